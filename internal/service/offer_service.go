package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

// OfferRepo описывает хранилище предложений, используемое сервисом.
type OfferRepo interface {
	Create(ctx context.Context, offer *models.Offer, reason string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	GetLiveBySellerAndRequest(ctx context.Context, requestID, sellerID uuid.UUID) (*models.Offer, error)
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.Offer, error)
	ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]models.Offer, error)
	ListReceived(ctx context.Context, buyerID uuid.UUID) ([]models.Offer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, actorID *uuid.UUID) (*models.Offer, error)
	MarkPaid(ctx context.Context, id uuid.UUID, reason string) (*models.Offer, bool, error)
	AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string, shippingAddress json.RawMessage) (*models.Offer, error)
	UpdatePendingFields(ctx context.Context, id uuid.UUID, amount float64, message string, deliveryDate time.Time, credentials string) (*models.Offer, error)
	UpdateTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) (*models.Offer, error)
	GetHistory(ctx context.Context, offerID uuid.UUID) ([]models.OfferStatusHistory, error)
}

// OfferService реализует жизненный цикл предложений продавцов.
type OfferService struct {
	offers   OfferRepo
	requests RequestRepo
	users    UserGetter
	notifier *Notifier
}

// NewOfferService создаёт сервис предложений.
func NewOfferService(offers OfferRepo, requests RequestRepo, users UserGetter, notifier *Notifier) *OfferService {
	return &OfferService{offers: offers, requests: requests, users: users, notifier: notifier}
}

// CreateOfferInput данные для создания предложения.
type CreateOfferInput struct {
	RequestID    uuid.UUID `json:"request_id"`
	Amount       float64   `json:"amount"`
	Message      string    `json:"message"`
	DeliveryDate time.Time `json:"delivery_date"`
	Credentials  string    `json:"credentials"`
}

func (in CreateOfferInput) validate() error {
	details := map[string]any{}
	if in.Amount <= 0 {
		details["amount"] = "сумма должна быть больше нуля"
	}
	if strings.TrimSpace(in.Message) == "" {
		details["message"] = "сообщение обязательно"
	}
	if in.DeliveryDate.IsZero() {
		details["delivery_date"] = "срок поставки обязателен"
	}
	if strings.TrimSpace(in.Credentials) == "" {
		details["credentials"] = "квалификация обязательна"
	}
	if len(details) > 0 {
		err := apperror.New(apperror.ErrCodeValidation, "некорректные данные предложения")
		err.Details = details
		return err
	}
	return nil
}

// Create проверяет запрос и сохраняет предложение со статусом pending.
// Гонку двух одновременных предложений одного продавца окончательно
// закрывает уникальный индекс, здесь только ранняя проверка ради
// понятного сообщения об ошибке.
func (s *OfferService) Create(ctx context.Context, sellerID uuid.UUID, input CreateOfferInput) (*models.Offer, error) {
	if sellerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	request, err := s.requests.GetByID(ctx, input.RequestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос")
	}
	if request.IsOwnedBy(sellerID) {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя подать предложение на собственный запрос")
	}
	if request.Status != models.RequestStatusOpen {
		return nil, apperror.New(apperror.ErrCodePrecondition, "запрос больше не принимает предложения")
	}

	existing, err := s.offers.GetLiveBySellerAndRequest(ctx, input.RequestID, sellerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить предложения")
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "у вас уже есть активное предложение на этот запрос")
	}

	seller, err := s.users.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль")
	}

	offer := &models.Offer{
		RequestID:    input.RequestID,
		SellerID:     sellerID,
		SellerName:   seller.Name,
		Credentials:  strings.TrimSpace(input.Credentials),
		Amount:       input.Amount,
		Message:      strings.TrimSpace(input.Message),
		DeliveryDate: input.DeliveryDate,
		Status:       models.OfferStatusPending,
	}
	if err := s.offers.Create(ctx, offer, "Предложение создано"); err != nil {
		if errors.Is(err, repository.ErrDuplicateOffer) {
			return nil, apperror.New(apperror.ErrCodeConflict, "у вас уже есть активное предложение на этот запрос")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать предложение")
	}

	s.notifier.Notify(request.UserID, EventOfferCreated, offer)
	s.notifier.NotifyEmail(request.UserID, "Новое предложение на ваш запрос",
		"<p>На ваш запрос «"+request.Title+"» поступило новое предложение.</p>")
	return offer, nil
}

// Get возвращает предложение по идентификатору.
func (s *OfferService) Get(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, apperror.ErrOfferNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}
	return offer, nil
}

// ListByRequest возвращает предложения по запросу.
func (s *OfferService) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Offer, error) {
	offers, err := s.offers.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения")
	}
	return offers, nil
}

// ListMine возвращает предложения продавца.
func (s *OfferService) ListMine(ctx context.Context, sellerID uuid.UUID) ([]models.Offer, error) {
	offers, err := s.offers.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения")
	}
	return offers, nil
}

// ListReceived возвращает предложения на запросы покупателя.
func (s *OfferService) ListReceived(ctx context.Context, buyerID uuid.UUID) ([]models.Offer, error) {
	offers, err := s.offers.ListReceived(ctx, buyerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения")
	}
	return offers, nil
}

// EditOfferInput патч предложения. Два непересекающихся режима:
// правка содержимого, пока предложение pending, и добавление трек-номера
// после оплаты. Смешивать поля обоих режимов в одном патче нельзя.
type EditOfferInput struct {
	Amount       *float64   `json:"amount,omitempty"`
	Message      *string    `json:"message,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Credentials  *string    `json:"credentials,omitempty"`

	TrackingNumber *string `json:"tracking_number,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`
}

func (in EditOfferInput) hasContentFields() bool {
	return in.Amount != nil || in.Message != nil || in.DeliveryDate != nil || in.Credentials != nil
}

func (in EditOfferInput) hasTrackingFields() bool {
	return in.TrackingNumber != nil || in.Carrier != nil
}

// Edit применяет патч к предложению владельца.
func (s *OfferService) Edit(ctx context.Context, actorID, offerID uuid.UUID, input EditOfferInput) (*models.Offer, error) {
	offer, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsOwnedBy(actorID) {
		return nil, apperror.ErrForbidden
	}

	switch {
	case input.hasContentFields() && input.hasTrackingFields():
		return nil, apperror.New(apperror.ErrCodeValidation,
			"нельзя одновременно править содержимое и данные отправления")
	case input.hasTrackingFields():
		return s.editTracking(ctx, offer, input)
	case input.hasContentFields():
		return s.editPending(ctx, offer, input)
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "патч не содержит полей")
	}
}

func (s *OfferService) editPending(ctx context.Context, offer *models.Offer, input EditOfferInput) (*models.Offer, error) {
	if offer.Status != models.OfferStatusPending {
		return nil, apperror.New(apperror.ErrCodePrecondition,
			"править содержимое можно только у предложения в статусе pending")
	}

	amount := offer.Amount
	if input.Amount != nil {
		amount = *input.Amount
	}
	message := offer.Message
	if input.Message != nil {
		message = strings.TrimSpace(*input.Message)
	}
	deliveryDate := offer.DeliveryDate
	if input.DeliveryDate != nil {
		deliveryDate = *input.DeliveryDate
	}
	credentials := offer.Credentials
	if input.Credentials != nil {
		credentials = strings.TrimSpace(*input.Credentials)
	}

	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма должна быть больше нуля")
	}
	if message == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение обязательно")
	}

	updated, err := s.offers.UpdatePendingFields(ctx, offer.ID, amount, message, deliveryDate, credentials)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить предложение")
	}
	return updated, nil
}

func (s *OfferService) editTracking(ctx context.Context, offer *models.Offer, input EditOfferInput) (*models.Offer, error) {
	if !offer.IsPaid() && offer.Status != models.OfferStatusDelivered {
		return nil, apperror.New(apperror.ErrCodePrecondition,
			"данные отправления доступны только после оплаты")
	}

	trackingNumber := ""
	if offer.TrackingNumber != nil {
		trackingNumber = *offer.TrackingNumber
	}
	if input.TrackingNumber != nil {
		trackingNumber = strings.TrimSpace(*input.TrackingNumber)
	}
	carrier := ""
	if offer.Carrier != nil {
		carrier = *offer.Carrier
	}
	if input.Carrier != nil {
		carrier = strings.TrimSpace(*input.Carrier)
	}

	updated, err := s.offers.UpdateTracking(ctx, offer.ID, trackingNumber, carrier)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить данные отправления")
	}
	return updated, nil
}

// TransitionStatus переводит предложение в новый статус. Статус accepted
// недостижим этим путём: его устанавливает только подтверждение оплаты
// от шлюза, поэтому явный запрос на accepted отклоняется до таблицы переходов.
func (s *OfferService) TransitionStatus(ctx context.Context, actorID, offerID uuid.UUID, newStatus string, reason *string) (*models.Offer, error) {
	offer, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}

	request, err := s.requests.GetByID(ctx, offer.RequestID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос")
	}

	if newStatus == models.OfferStatusAccepted {
		return nil, apperror.New(apperror.ErrCodePrecondition,
			"принятие предложения выполняется только через оплату")
	}
	if !models.CanTransition(models.OfferStatusTransitions, offer.Status, newStatus) {
		return nil, apperror.NewInvalidTransition(offer.Status, newStatus,
			models.AllowedTransitions(models.OfferStatusTransitions, offer.Status))
	}

	if err := s.authorizeTransition(offer, request, actorID, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.offers.UpdateStatus(ctx, offerID, newStatus, reason, &actorID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, apperror.ErrOfferNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус предложения")
	}

	// Другую сторону сделки уведомляем о смене статуса.
	if actorID == offer.SellerID {
		s.notifier.Notify(request.UserID, EventOfferStatus, updated)
	} else {
		s.notifier.Notify(offer.SellerID, EventOfferStatus, updated)
	}
	return updated, nil
}

func (s *OfferService) authorizeTransition(offer *models.Offer, request *models.Request, actorID uuid.UUID, newStatus string) error {
	switch newStatus {
	case models.OfferStatusRejected:
		if !request.IsOwnedBy(actorID) {
			return apperror.ErrForbidden
		}
	case models.OfferStatusCancelled:
		// Из pending предложение отзывает продавец, после оплаты
		// отмена доступна обеим сторонам сделки.
		if offer.Status == models.OfferStatusPending {
			if !offer.IsOwnedBy(actorID) {
				return apperror.ErrForbidden
			}
		} else if !offer.IsOwnedBy(actorID) && !request.IsOwnedBy(actorID) {
			return apperror.ErrForbidden
		}
	case models.OfferStatusDelivered:
		if !offer.IsOwnedBy(actorID) {
			return apperror.ErrForbidden
		}
		if !offer.IsPaid() {
			return apperror.New(apperror.ErrCodePrecondition,
				"отметить доставку можно только после оплаты")
		}
	case models.OfferStatusCompleted:
		if !request.IsOwnedBy(actorID) {
			return apperror.ErrForbidden
		}
	default:
		return apperror.ErrForbidden
	}
	return nil
}

// GetHistory возвращает журнал статусов предложения.
func (s *OfferService) GetHistory(ctx context.Context, offerID uuid.UUID) ([]models.OfferStatusHistory, error) {
	if _, err := s.Get(ctx, offerID); err != nil {
		return nil, err
	}
	history, err := s.offers.GetHistory(ctx, offerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал статусов")
	}
	return history, nil
}
