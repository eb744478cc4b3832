package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/goroutine"
	"github.com/ignatzorin/bidme-backend/internal/logger"
	"github.com/ignatzorin/bidme-backend/internal/models"
)

// Имена событий side-channel.
const (
	EventOfferCreated    = "offer.created"
	EventOfferStatus     = "offer.status_changed"
	EventRequestStatus   = "request.status_changed"
	EventPaymentReceived = "payment.received"
	EventDisputeOpened   = "dispute.opened"
	EventNewMessage      = "message.received"
)

// HubBroadcaster отправляет событие подключённым клиентам пользователя.
type HubBroadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// EmailSender отправляет письмо.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// UserGetter возвращает профиль пользователя для адресации писем.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier best-effort веер событий: запись в БД и push идут через хаб,
// письмо — через EmailSender. Любая ошибка логируется и глотается,
// зафиксированный переход статуса она откатить не может.
type Notifier struct {
	hub   HubBroadcaster
	email EmailSender
	users UserGetter
}

// NewNotifier создаёт notifier. email может быть nil, если канал выключен.
func NewNotifier(hub HubBroadcaster, email EmailSender, users UserGetter) *Notifier {
	return &Notifier{hub: hub, email: email, users: users}
}

// Notify отправляет событие пользователю, не блокируя вызывающего.
func (n *Notifier) Notify(userID uuid.UUID, event string, data any) {
	if n == nil || n.hub == nil {
		return
	}
	goroutine.SafeGo(func() {
		if err := n.hub.BroadcastToUser(userID, event, data); err != nil {
			if logger.Log != nil {
				logger.Log.Errorf("notifier: событие %s для %s не доставлено: %v", event, userID, err)
			}
		}
	})
}

// NotifyEmail отправляет письмо пользователю, не блокируя вызывающего.
// Контекст запроса не используется: письмо не должно отменяться вместе с ним.
func (n *Notifier) NotifyEmail(userID uuid.UUID, subject, htmlBody string) {
	if n == nil || n.email == nil || n.users == nil {
		return
	}
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		user, err := n.users.GetByID(ctx, userID)
		if err != nil {
			if logger.Log != nil {
				logger.Log.Errorf("notifier: адресат %s не найден: %v", userID, err)
			}
			return
		}
		if err := n.email.Send(ctx, user.Email, subject, htmlBody); err != nil {
			if logger.Log != nil {
				logger.Log.Errorf("notifier: письмо для %s не отправлено: %v", userID, err)
			}
		}
	})
}
