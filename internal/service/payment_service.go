package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/logger"
	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/payment"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

// PaymentService связывает жизненный цикл предложения с платёжным шлюзом.
// Принятие предложения двухфазное: покупатель создаёт checkout-сессию,
// а статус accepted фиксируется только после подтверждения оплаты вебхуком.
type PaymentService struct {
	offers   OfferRepo
	requests RequestRepo
	gateway  payment.Gateway
	notifier *Notifier
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(offers OfferRepo, requests RequestRepo, gateway payment.Gateway, notifier *Notifier) *PaymentService {
	return &PaymentService{offers: offers, requests: requests, gateway: gateway, notifier: notifier}
}

// CheckoutResult ссылка на сессию оплаты для редиректа покупателя.
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateCheckout создаёт или переиспользует checkout-сессию для предложения.
// Сессия привязывается к предложению одним атомарным обновлением уже после
// успешного ответа шлюза, чтобы не хранить ссылки на несуществующие сессии.
func (s *PaymentService) CreateCheckout(ctx context.Context, actorID, offerID uuid.UUID, shippingAddress json.RawMessage) (*CheckoutResult, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, apperror.ErrOfferNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}

	request, err := s.requests.GetByID(ctx, offer.RequestID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос")
	}
	if !request.IsOwnedBy(actorID) {
		return nil, apperror.ErrForbidden
	}
	if offer.Amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма предложения должна быть больше нуля")
	}
	if offer.IsPaid() {
		return nil, apperror.New(apperror.ErrCodeConflict, "предложение уже оплачено")
	}
	if offer.Status != models.OfferStatusPending {
		return nil, apperror.New(apperror.ErrCodePrecondition, "оплатить можно только предложение в статусе pending")
	}
	if len(shippingAddress) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "адрес доставки обязателен")
	}

	// Повторный запрос покупателя не плодит дубликаты: пока прежняя
	// сессия открыта, возвращаем её.
	if offer.HasPendingPayment() {
		existing, err := s.gateway.GetSession(ctx, *offer.PaymentID)
		if err != nil {
			logger.Log.Warnf("payment: не удалось проверить сессию %s: %v", *offer.PaymentID, err)
		} else if existing.Open {
			return &CheckoutResult{SessionID: existing.ID, URL: existing.URL}, nil
		}
	}

	session, err := s.gateway.CreateSession(ctx, payment.CreateSessionInput{
		Title:     request.Title,
		Amount:    offer.Amount,
		OfferID:   offer.ID.String(),
		RequestID: request.ID.String(),
		BuyerID:   request.UserID.String(),
		SellerID:  offer.SellerID.String(),
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeGateway, "платёжный шлюз недоступен")
	}

	if _, err := s.offers.AttachPaymentSession(ctx, offer.ID, session.ID, shippingAddress); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось привязать сессию оплаты")
	}

	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

// HandleWebhook принимает событие шлюза. Ошибка возвращается только при
// невалидной подписи или сбое записи, который шлюзу имеет смысл повторить.
// Отсутствующее предложение логируется и подтверждается: бесконечные
// повторы по навсегда потерянной записи никому не нужны.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(rawBody, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return apperror.Wrap(err, apperror.ErrCodeSignature, "подпись вебхука не прошла проверку")
		}
		return apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось разобрать событие вебхука")
	}

	if event.Type != payment.EventCheckoutCompleted {
		logger.Log.Debugf("payment: событие %s пропущено", event.Type)
		return nil
	}

	offerID, err := uuid.Parse(event.OfferID)
	if err != nil {
		logger.Log.Errorf("payment: событие %s без валидного offerId: %q", event.SessionID, event.OfferID)
		return nil
	}

	offer, applied, err := s.offers.MarkPaid(ctx, offerID, "Оплата подтверждена шлюзом")
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			logger.Log.Errorf("payment: оплаченное предложение %s не найдено, событие подтверждено", offerID)
			return nil
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось применить подтверждение оплаты")
	}

	if !applied {
		// Повторная доставка события. Состояние уже сошлось, подтверждаем.
		logger.Log.Infof("payment: повторное событие по предложению %s", offerID)
		return nil
	}

	logger.Log.Infof("payment: предложение %s оплачено, сессия %s", offerID, event.SessionID)

	if buyerID, err := uuid.Parse(event.BuyerID); err == nil {
		s.notifier.Notify(buyerID, EventPaymentReceived, offer)
		s.notifier.NotifyEmail(buyerID, "Оплата подтверждена",
			"<p>Оплата прошла, предложение принято. Продавец приступает к выполнению.</p>")
	}
	s.notifier.Notify(offer.SellerID, EventPaymentReceived, offer)
	s.notifier.NotifyEmail(offer.SellerID, "Ваше предложение принято и оплачено",
		"<p>Покупатель оплатил ваше предложение. Можно приступать к выполнению.</p>")
	return nil
}
