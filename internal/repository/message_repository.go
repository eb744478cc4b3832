package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/bidme-backend/internal/models"
)

// MessageRepository отвечает за личные сообщения между участниками.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет сообщение.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		message.SenderID, message.ReceiverID, message.Content,
	).Scan(&message.ID, &message.CreatedAt); err != nil {
		return fmt.Errorf("message repository: create %w", err)
	}
	return nil
}

// ListConversation возвращает переписку двух пользователей по возрастанию времени.
func (r *MessageRepository) ListConversation(ctx context.Context, userID, otherID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	query := `
		SELECT * FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at
		LIMIT $3 OFFSET $4
	`
	if err := r.db.SelectContext(ctx, &messages, query, userID, otherID, limit, offset); err != nil {
		return nil, fmt.Errorf("message repository: list conversation %w", err)
	}
	return messages, nil
}

// MarkConversationRead отмечает входящие сообщения от собеседника прочитанными.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, userID, otherID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE
	`, userID, otherID)
	if err != nil {
		return fmt.Errorf("message repository: mark conversation read %w", err)
	}
	return nil
}
