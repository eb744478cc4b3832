package models

import (
	"time"

	"github.com/google/uuid"
)

// Request описывает запрос покупателя: что нужно, сколько и за какой бюджет.
type Request struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Quantity        int        `db:"quantity" json:"quantity"`
	Budget          float64    `db:"budget" json:"budget"`
	Deadline        time.Time  `db:"deadline" json:"deadline"`
	Category        string     `db:"category" json:"category"`
	Status          string     `db:"status" json:"status"`
	AcceptedOfferID *uuid.UUID `db:"accepted_offer_id" json:"accepted_offer_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	OffersCount *int `db:"offers_count" json:"offers_count,omitempty"`
}

// IsOwnedBy проверяет, принадлежит ли запрос пользователю.
func (r *Request) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}
