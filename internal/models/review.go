package models

import (
	"time"

	"github.com/google/uuid"
)

// Review отзыв участника завершённой сделки о втором участнике.
// Пара (offer_id, reviewer_id) уникальна: один отзыв на сделку от каждого.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OfferID    uuid.UUID `db:"offer_id" json:"offer_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	RevieweeID uuid.UUID `db:"reviewee_id" json:"reviewee_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
