package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute представляет спор по оплаченному предложению.
// Создание спора — единственный способ перевести предложение в статус disputed.
type Dispute struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	OfferID    uuid.UUID  `db:"offer_id" json:"offer_id"`
	RaisedBy   uuid.UUID  `db:"raised_by" json:"raised_by"`
	Reason     string     `db:"reason" json:"reason"`
	Status     string     `db:"status" json:"status"`
	Resolution *string    `db:"resolution" json:"resolution,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
