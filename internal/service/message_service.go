package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

// MessageRepo описывает хранилище сообщений, используемое сервисом.
type MessageRepo interface {
	Create(ctx context.Context, message *models.Message) error
	ListConversation(ctx context.Context, userID, otherID uuid.UUID, limit, offset int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, userID, otherID uuid.UUID) error
}

// MessageService реализует личную переписку участников.
type MessageService struct {
	messages MessageRepo
	users    UserGetter
	notifier *Notifier
}

// NewMessageService создаёт сервис сообщений.
func NewMessageService(messages MessageRepo, users UserGetter, notifier *Notifier) *MessageService {
	return &MessageService{messages: messages, users: users, notifier: notifier}
}

// Send отправляет сообщение и будит получателя push-событием.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение не может быть пустым")
	}
	if senderID == receiverID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя отправить сообщение самому себе")
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить получателя")
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отправить сообщение")
	}

	s.notifier.Notify(receiverID, EventNewMessage, message)
	return message, nil
}

// GetConversation возвращает переписку с собеседником и отмечает входящие
// прочитанными.
func (s *MessageService) GetConversation(ctx context.Context, userID, otherID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	messages, err := s.messages.ListConversation(ctx, userID, otherID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить переписку")
	}
	if err := s.messages.MarkConversationRead(ctx, userID, otherID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отметить сообщения")
	}
	return messages, nil
}
