package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

// NotificationRepo описывает хранилище уведомлений, используемое сервисом.
type NotificationRepo interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService отвечает за внутриплатформенные уведомления.
type NotificationService struct {
	notifications NotificationRepo
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(notifications NotificationRepo) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// CreateNotificationForWS сохраняет уведомление, пришедшее из хаба.
// Payload хранится как есть: тип события плюс данные.
func (s *NotificationService) CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	payload, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("notification service: marshal payload %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Payload: payload,
	}
	return s.notifications.Create(ctx, notification)
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	notifications, err := s.notifications.List(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить уведомления")
	}
	return notifications, nil
}

// MarkRead отмечает уведомление прочитанным. Чужое уведомление недоступно.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить уведомление")
	}
	if notification.UserID != userID {
		return apperror.ErrForbidden
	}
	if err := s.notifications.MarkAsRead(ctx, notificationID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отметить уведомление")
	}
	return nil
}

// MarkAllRead отмечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifications.MarkAllAsRead(ctx, userID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отметить уведомления")
	}
	return nil
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать уведомления")
	}
	return count, nil
}
