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

// ReviewRepo описывает хранилище отзывов, используемое сервисом.
type ReviewRepo interface {
	Create(ctx context.Context, review *models.Review) error
	GetByOfferAndReviewer(ctx context.Context, offerID, reviewerID uuid.UUID) (*models.Review, error)
	ListByRevieweeID(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error)
	ListByOfferID(ctx context.Context, offerID uuid.UUID) ([]models.Review, error)
	GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error)
}

// ReviewService реализует отзывы по завершённым сделкам.
type ReviewService struct {
	reviews  ReviewRepo
	offers   OfferRepo
	requests RequestRepo
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(reviews ReviewRepo, offers OfferRepo, requests RequestRepo) *ReviewService {
	return &ReviewService{reviews: reviews, offers: offers, requests: requests}
}

// SubmitReviewInput данные нового отзыва.
type SubmitReviewInput struct {
	OfferID uuid.UUID `json:"offer_id"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
}

// Submit создаёт отзыв участника завершённой сделки о второй стороне.
// Адресат отзыва вычисляется из ролей: покупатель оценивает продавца
// и наоборот. Повторный отзыв окончательно отсекает уникальный индекс.
func (s *ReviewService) Submit(ctx context.Context, reviewerID uuid.UUID, input SubmitReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}

	offer, err := s.offers.GetByID(ctx, input.OfferID)
	if err != nil {
		return nil, apperror.ErrOfferNotFound
	}
	if offer.Status != models.OfferStatusCompleted {
		return nil, apperror.New(apperror.ErrCodePrecondition, "отзыв возможен только по завершённой сделке")
	}

	request, err := s.requests.GetByID(ctx, offer.RequestID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос")
	}

	var revieweeID uuid.UUID
	switch reviewerID {
	case request.UserID:
		revieweeID = offer.SellerID
	case offer.SellerID:
		revieweeID = request.UserID
	default:
		return nil, apperror.ErrForbidden
	}

	existing, err := s.reviews.GetByOfferAndReviewer(ctx, input.OfferID, reviewerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить отзывы")
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "вы уже оставили отзыв по этой сделке")
	}

	review := &models.Review{
		OfferID:    input.OfferID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     input.Rating,
		Comment:    strings.TrimSpace(input.Comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.New(apperror.ErrCodeConflict, "вы уже оставили отзыв по этой сделке")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить отзыв")
	}
	return review, nil
}

// ListByUser возвращает отзывы о пользователе.
func (s *ReviewService) ListByUser(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	reviews, err := s.reviews.ListByRevieweeID(ctx, revieweeID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отзывы")
	}
	return reviews, nil
}

// ListByOffer возвращает отзывы по сделке.
func (s *ReviewService) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]models.Review, error) {
	reviews, err := s.reviews.ListByOfferID(ctx, offerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отзывы")
	}
	return reviews, nil
}

// UserRating агрегированный рейтинг пользователя.
type UserRating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// GetRating возвращает средний рейтинг пользователя.
func (s *ReviewService) GetRating(ctx context.Context, userID uuid.UUID) (*UserRating, error) {
	avg, count, err := s.reviews.GetAverageRating(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось вычислить рейтинг")
	}
	return &UserRating{Average: avg, Count: count}, nil
}
