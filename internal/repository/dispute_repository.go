package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/bidme-backend/internal/models"
)

var ErrDisputeNotFound = errors.New("dispute not found")

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create сохраняет спор и переводит предложение в статус disputed одной
// транзакцией: спор без смены статуса (или наоборот) наблюдаться не должен.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("dispute repository: begin tx %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO disputes (offer_id, raised_by, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, query, d.OfferID, d.RaisedBy, d.Reason, d.Status).
		Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("dispute repository: insert %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE offers SET status = 'disputed', updated_at = NOW() WHERE id = $1
	`, d.OfferID); err != nil {
		return fmt.Errorf("dispute repository: set offer disputed %w", err)
	}

	if err := insertOfferHistory(ctx, tx, d.OfferID, models.OfferStatusDisputed, &d.Reason, &d.RaisedBy); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dispute repository: commit %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

// GetOpenByOfferID возвращает открытый спор по предложению, если есть.
func (r *DisputeRepository) GetOpenByOfferID(ctx context.Context, offerID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE offer_id = $1 AND status = 'open'`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get open by offer %w", err)
	}
	return &d, nil
}

func (r *DisputeRepository) Resolve(ctx context.Context, id uuid.UUID, resolution string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = 'resolved', resolution = $2, resolved_at = $3 WHERE id = $1
	`, id, resolution, now)
	return err
}

// ListByUser возвращает споры, в которых пользователь участвует как
// покупатель или продавец.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN offers o ON d.offer_id = o.id
		JOIN requests r ON o.request_id = r.id
		WHERE o.seller_id = $1 OR r.user_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}
