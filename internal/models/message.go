package models

import (
	"time"

	"github.com/google/uuid"
)

// Message личное сообщение между покупателем и продавцом.
type Message struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SenderID   uuid.UUID `db:"sender_id" json:"sender_id"`
	ReceiverID uuid.UUID `db:"receiver_id" json:"receiver_id"`
	Content    string    `db:"content" json:"content"`
	IsRead     bool      `db:"is_read" json:"is_read"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
