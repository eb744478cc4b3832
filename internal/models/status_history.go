package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry одна запись в журнале смены статусов.
// Журнал append-only: запись создаётся в той же транзакции, что и смена
// статуса, поэтому читатель никогда не видит статус без соответствующей записи.
type StatusHistoryEntry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Status    string     `db:"status" json:"status"`
	Reason    *string    `db:"reason" json:"reason,omitempty"`
	ActorID   *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// RequestStatusHistory запись журнала по запросу.
type RequestStatusHistory struct {
	StatusHistoryEntry
	RequestID uuid.UUID `db:"request_id" json:"request_id"`
}

// OfferStatusHistory запись журнала по предложению.
type OfferStatusHistory struct {
	StatusHistoryEntry
	OfferID uuid.UUID `db:"offer_id" json:"offer_id"`
}
