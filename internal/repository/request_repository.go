package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/bidme-backend/internal/models"
)

// Ошибки уровня репозитория.
var (
	ErrRequestNotFound = errors.New("request not found")
)

// RequestRepository отвечает за работу с запросами покупателей.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт новый экземпляр.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create сохраняет запрос и первую запись журнала статусов в одной транзакции.
// Читатель никогда не увидит запрос без записи "open" в журнале.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request, reason string) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("request repository: begin tx %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO requests (user_id, title, description, quantity, budget, deadline, category, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowxContext(ctx, query,
		request.UserID, request.Title, request.Description, request.Quantity,
		request.Budget, request.Deadline, request.Category, request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt); err != nil {
		return fmt.Errorf("request repository: insert %w", err)
	}

	if err := insertRequestHistory(ctx, tx, request.ID, request.Status, &reason, &request.UserID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("request repository: commit %w", err)
	}
	return nil
}

// GetByID возвращает запрос по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	var request models.Request
	query := `
		SELECT id, user_id, title, description, quantity, budget, deadline, category,
		       status, accepted_offer_id, created_at, updated_at
		FROM requests
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}
	return &request, nil
}

// ListFilter параметры выборки запросов.
type ListFilter struct {
	Category string
	Status   string
	UserID   *uuid.UUID
	Limit    int
	Offset   int
}

// List возвращает запросы с фильтрацией по категории, статусу и владельцу.
// Вместе с каждым запросом считается количество живых предложений.
func (r *RequestRepository) List(ctx context.Context, filter ListFilter) ([]models.Request, error) {
	query := `
		SELECT r.id, r.user_id, r.title, r.description, r.quantity, r.budget, r.deadline,
		       r.category, r.status, r.accepted_offer_id, r.created_at, r.updated_at,
		       COUNT(o.id) FILTER (WHERE o.status NOT IN ('cancelled', 'rejected'))::INT AS offers_count
		FROM requests r
		LEFT JOIN offers o ON o.request_id = r.id
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if filter.Category != "" {
		query += fmt.Sprintf(" AND r.category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND r.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.UserID != nil {
		query += fmt.Sprintf(" AND r.user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}

	query += " GROUP BY r.id ORDER BY r.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("request repository: list %w", err)
	}
	return requests, nil
}

// UpdateStatus меняет статус запроса и пишет запись журнала в одной транзакции.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, actorID *uuid.UUID) (*models.Request, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("request repository: begin tx %w", err)
	}
	defer tx.Rollback()

	var request models.Request
	query := `
		UPDATE requests SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, user_id, title, description, quantity, budget, deadline, category,
		          status, accepted_offer_id, created_at, updated_at
	`
	if err := tx.GetContext(ctx, &request, query, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: update status %w", err)
	}

	if err := insertRequestHistory(ctx, tx, id, status, reason, actorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("request repository: commit %w", err)
	}
	return &request, nil
}

// GetHistory возвращает журнал смены статусов запроса по возрастанию времени.
func (r *RequestRepository) GetHistory(ctx context.Context, requestID uuid.UUID) ([]models.RequestStatusHistory, error) {
	var history []models.RequestStatusHistory
	query := `
		SELECT id, request_id, status, reason, actor_id, created_at
		FROM request_status_history
		WHERE request_id = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &history, query, requestID); err != nil {
		return nil, fmt.Errorf("request repository: get history %w", err)
	}
	return history, nil
}

// insertRequestHistory добавляет запись журнала внутри уже открытой транзакции.
func insertRequestHistory(ctx context.Context, tx *sqlx.Tx, requestID uuid.UUID, status string, reason *string, actorID *uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO request_status_history (request_id, status, reason, actor_id)
		VALUES ($1, $2, $3, $4)
	`, requestID, status, reason, actorID)
	if err != nil {
		return fmt.Errorf("request repository: insert history %w", err)
	}
	return nil
}
