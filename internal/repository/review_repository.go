package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/bidme-backend/internal/models"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	// ErrDuplicateReview возвращается при повторном отзыве того же участника
	// на ту же сделку; гонку закрывает уникальный индекс (offer_id, reviewer_id).
	ErrDuplicateReview = errors.New("duplicate review")
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create создаёт отзыв.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (offer_id, reviewer_id, reviewee_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		review.OfferID, review.ReviewerID, review.RevieweeID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateReview
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// GetByID возвращает отзыв по ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review, `SELECT * FROM reviews WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

// GetByOfferAndReviewer проверяет, оставлял ли пользователь отзыв по сделке.
func (r *ReviewRepository) GetByOfferAndReviewer(ctx context.Context, offerID, reviewerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review, `SELECT * FROM reviews WHERE offer_id = $1 AND reviewer_id = $2`, offerID, reviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// ListByRevieweeID возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByRevieweeID(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE reviewee_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, revieweeID, limit, offset)
	return reviews, err
}

// ListByOfferID возвращает отзывы по сделке.
func (r *ReviewRepository) ListByOfferID(ctx context.Context, offerID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `SELECT * FROM reviews WHERE offer_id = $1`, offerID)
	return reviews, err
}

// GetAverageRating возвращает средний рейтинг пользователя и число отзывов.
func (r *ReviewRepository) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	var result struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	err := r.db.GetContext(ctx, &result, `
		SELECT COALESCE(AVG(rating), 0) as avg, COUNT(*) as count FROM reviews WHERE reviewee_id = $1
	`, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("review repository: get average rating %w", err)
	}
	return result.Avg.Float64, result.Count, nil
}
