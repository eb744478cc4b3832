package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
)

// DisputeRepo описывает хранилище споров, используемое сервисом.
type DisputeRepo interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByOfferID(ctx context.Context, offerID uuid.UUID) (*models.Dispute, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution string) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
}

// DisputeService реализует споры по оплаченным сделкам.
type DisputeService struct {
	disputes DisputeRepo
	offers   OfferRepo
	requests RequestRepo
	notifier *Notifier
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(disputes DisputeRepo, offers OfferRepo, requests RequestRepo, notifier *Notifier) *DisputeService {
	return &DisputeService{disputes: disputes, offers: offers, requests: requests, notifier: notifier}
}

// Open открывает спор по предложению. Перевод предложения в статус disputed —
// побочный эффект создания спора, отдельного клиентского действия нет.
func (s *DisputeService) Open(ctx context.Context, actorID, offerID uuid.UUID, reason string) (*models.Dispute, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина спора обязательна")
	}

	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, apperror.ErrOfferNotFound
	}

	request, err := s.requests.GetByID(ctx, offer.RequestID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос")
	}
	if !offer.IsOwnedBy(actorID) && !request.IsOwnedBy(actorID) {
		return nil, apperror.ErrForbidden
	}
	if !offer.IsPaid() {
		return nil, apperror.New(apperror.ErrCodePrecondition, "спор возможен только по оплаченной сделке")
	}

	existing, err := s.disputes.GetOpenByOfferID(ctx, offerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить споры")
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по этой сделке уже открыт спор")
	}

	dispute := &models.Dispute{
		OfferID:  offerID,
		RaisedBy: actorID,
		Reason:   strings.TrimSpace(reason),
		Status:   models.DisputeStatusOpen,
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось открыть спор")
	}

	// Уведомляем обе стороны сделки.
	s.notifier.Notify(offer.SellerID, EventDisputeOpened, dispute)
	s.notifier.Notify(request.UserID, EventDisputeOpened, dispute)
	s.notifier.NotifyEmail(offer.SellerID, "Открыт спор по сделке",
		"<p>По вашей сделке открыт спор. Зайдите на площадку, чтобы ответить.</p>")
	s.notifier.NotifyEmail(request.UserID, "Открыт спор по сделке",
		"<p>По вашей сделке открыт спор. Зайдите на площадку, чтобы ответить.</p>")
	return dispute, nil
}

// Resolve закрывает спор с текстом решения. Доступно только участникам сделки.
func (s *DisputeService) Resolve(ctx context.Context, actorID, disputeID uuid.UUID, resolution string) (*models.Dispute, error) {
	if strings.TrimSpace(resolution) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "текст решения обязателен")
	}

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, apperror.ErrDisputeNotFound
	}
	if dispute.Status != models.DisputeStatusOpen {
		return nil, apperror.New(apperror.ErrCodeConflict, "спор уже закрыт")
	}

	offer, err := s.offers.GetByID(ctx, dispute.OfferID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение")
	}
	request, err := s.requests.GetByID(ctx, offer.RequestID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос")
	}
	if !offer.IsOwnedBy(actorID) && !request.IsOwnedBy(actorID) {
		return nil, apperror.ErrForbidden
	}

	if err := s.disputes.Resolve(ctx, disputeID, strings.TrimSpace(resolution)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось закрыть спор")
	}

	resolved, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить спор")
	}
	return resolved, nil
}

// ListMine возвращает споры, в которых пользователь участвует.
func (s *DisputeService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 {
		limit = 50
	}
	disputes, err := s.disputes.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить споры")
	}
	return disputes, nil
}
