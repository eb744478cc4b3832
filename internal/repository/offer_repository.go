package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/bidme-backend/internal/models"
)

var (
	ErrOfferNotFound = errors.New("offer not found")
	// ErrDuplicateOffer возвращается, когда продавец пытается создать второе
	// живое предложение на тот же запрос. Гонка закрыта частичным уникальным
	// индексом, а не проверкой перед вставкой.
	ErrDuplicateOffer = errors.New("duplicate live offer")
)

const pqUniqueViolation = "23505"

// OfferRepository отвечает за работу с предложениями продавцов.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository создаёт новый экземпляр.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `
	id, request_id, seller_id, seller_name, credentials, amount, message, delivery_date,
	status, payment_status, payment_id, payment_attempts, shipping_address,
	tracking_number, carrier, created_at, updated_at
`

// Create сохраняет предложение и первую запись журнала в одной транзакции.
// Нарушение уникальности живого предложения возвращается как ErrDuplicateOffer.
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer, reason string) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("offer repository: begin tx %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO offers (request_id, seller_id, seller_name, credentials, amount, message, delivery_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowxContext(ctx, query,
		offer.RequestID, offer.SellerID, offer.SellerName, offer.Credentials,
		offer.Amount, offer.Message, offer.DeliveryDate, offer.Status,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateOffer
		}
		return fmt.Errorf("offer repository: insert %w", err)
	}

	if err := insertOfferHistory(ctx, tx, offer.ID, offer.Status, &reason, &offer.SellerID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("offer repository: commit %w", err)
	}
	return nil
}

// GetByID возвращает предложение по идентификатору.
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: get by id %w", err)
	}
	return &offer, nil
}

// GetLiveBySellerAndRequest возвращает живое предложение продавца на запрос, если есть.
func (r *OfferRepository) GetLiveBySellerAndRequest(ctx context.Context, requestID, sellerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	query := `
		SELECT ` + offerColumns + ` FROM offers
		WHERE request_id = $1 AND seller_id = $2 AND status NOT IN ('cancelled', 'rejected')
	`
	if err := r.db.GetContext(ctx, &offer, query, requestID, sellerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("offer repository: get live by seller %w", err)
	}
	return &offer, nil
}

// ListByRequestID возвращает предложения по запросу, новые первыми.
func (r *OfferRepository) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	query := `SELECT ` + offerColumns + ` FROM offers WHERE request_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &offers, query, requestID); err != nil {
		return nil, fmt.Errorf("offer repository: list by request %w", err)
	}
	return offers, nil
}

// ListBySellerID возвращает предложения продавца.
func (r *OfferRepository) ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	query := `SELECT ` + offerColumns + ` FROM offers WHERE seller_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &offers, query, sellerID); err != nil {
		return nil, fmt.Errorf("offer repository: list by seller %w", err)
	}
	return offers, nil
}

// ListReceived возвращает предложения на запросы, принадлежащие покупателю.
func (r *OfferRepository) ListReceived(ctx context.Context, buyerID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	query := `
		SELECT o.id, o.request_id, o.seller_id, o.seller_name, o.credentials, o.amount, o.message,
		       o.delivery_date, o.status, o.payment_status, o.payment_id, o.payment_attempts,
		       o.shipping_address, o.tracking_number, o.carrier, o.created_at, o.updated_at
		FROM offers o
		JOIN requests r ON r.id = o.request_id
		WHERE r.user_id = $1
		ORDER BY o.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &offers, query, buyerID); err != nil {
		return nil, fmt.Errorf("offer repository: list received %w", err)
	}
	return offers, nil
}

// UpdateStatus меняет статус предложения и пишет запись журнала в одной транзакции.
func (r *OfferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, actorID *uuid.UUID) (*models.Offer, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("offer repository: begin tx %w", err)
	}
	defer tx.Rollback()

	var offer models.Offer
	query := `
		UPDATE offers SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + offerColumns
	if err := tx.GetContext(ctx, &offer, query, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: update status %w", err)
	}

	if err := insertOfferHistory(ctx, tx, id, status, reason, actorID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("offer repository: commit %w", err)
	}
	return &offer, nil
}

// MarkPaid применяет подтверждение оплаты от шлюза: payment_status=paid,
// статус предложения accepted, родительский запрос accepted с обратной
// ссылкой на предложение. Все четыре записи (два статуса и два журнала)
// фиксируются одной транзакцией. Повторное применение к уже оплаченному
// предложению ничего не меняет и возвращает applied=false.
func (r *OfferRepository) MarkPaid(ctx context.Context, id uuid.UUID, reason string) (*models.Offer, bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("offer repository: begin tx %w", err)
	}
	defer tx.Rollback()

	var offer models.Offer
	lockQuery := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &offer, lockQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrOfferNotFound
		}
		return nil, false, fmt.Errorf("offer repository: lock for paid %w", err)
	}

	// Повторная доставка вебхука: состояние домена уже содержит ответ.
	if offer.IsPaid() {
		return &offer, false, nil
	}

	updateQuery := `
		UPDATE offers SET payment_status = 'paid', status = 'accepted', updated_at = NOW()
		WHERE id = $1
		RETURNING ` + offerColumns
	if err := tx.GetContext(ctx, &offer, updateQuery, id); err != nil {
		return nil, false, fmt.Errorf("offer repository: mark paid %w", err)
	}

	if err := insertOfferHistory(ctx, tx, id, models.OfferStatusAccepted, &reason, nil); err != nil {
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE requests SET status = 'accepted', accepted_offer_id = $2, updated_at = NOW()
		WHERE id = $1
	`, offer.RequestID, offer.ID); err != nil {
		return nil, false, fmt.Errorf("offer repository: accept parent request %w", err)
	}

	if err := insertRequestHistory(ctx, tx, offer.RequestID, models.RequestStatusAccepted, &reason, nil); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("offer repository: commit %w", err)
	}
	return &offer, true, nil
}

// AttachPaymentSession привязывает checkout-сессию к предложению одним
// атомарным обновлением: ссылка на сессию, статус оплаты pending,
// инкремент счётчика попыток и сериализованный адрес доставки.
func (r *OfferRepository) AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string, shippingAddress json.RawMessage) (*models.Offer, error) {
	var offer models.Offer
	query := `
		UPDATE offers
		SET payment_id = $2,
		    payment_status = 'pending',
		    payment_attempts = payment_attempts + 1,
		    shipping_address = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + offerColumns
	if err := r.db.GetContext(ctx, &offer, query, id, sessionID, shippingAddress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: attach payment session %w", err)
	}
	return &offer, nil
}

// UpdatePendingFields правит содержимое предложения, пока оно в статусе pending.
func (r *OfferRepository) UpdatePendingFields(ctx context.Context, id uuid.UUID, amount float64, message string, deliveryDate time.Time, credentials string) (*models.Offer, error) {
	var offer models.Offer
	query := `
		UPDATE offers
		SET amount = $2, message = $3, delivery_date = $4, credentials = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + offerColumns
	if err := r.db.GetContext(ctx, &offer, query, id, amount, message, deliveryDate, credentials); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: update pending fields %w", err)
	}
	return &offer, nil
}

// UpdateTracking сохраняет трек-номер и перевозчика.
func (r *OfferRepository) UpdateTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) (*models.Offer, error) {
	var offer models.Offer
	query := `
		UPDATE offers
		SET tracking_number = $2, carrier = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + offerColumns
	if err := r.db.GetContext(ctx, &offer, query, id, trackingNumber, carrier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: update tracking %w", err)
	}
	return &offer, nil
}

// GetHistory возвращает журнал смены статусов предложения по возрастанию времени.
func (r *OfferRepository) GetHistory(ctx context.Context, offerID uuid.UUID) ([]models.OfferStatusHistory, error) {
	var history []models.OfferStatusHistory
	query := `
		SELECT id, offer_id, status, reason, actor_id, created_at
		FROM offer_status_history
		WHERE offer_id = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &history, query, offerID); err != nil {
		return nil, fmt.Errorf("offer repository: get history %w", err)
	}
	return history, nil
}

// insertOfferHistory добавляет запись журнала внутри уже открытой транзакции.
func insertOfferHistory(ctx context.Context, tx *sqlx.Tx, offerID uuid.UUID, status string, reason *string, actorID *uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO offer_status_history (offer_id, status, reason, actor_id)
		VALUES ($1, $2, $3, $4)
	`, offerID, status, reason, actorID)
	if err != nil {
		return fmt.Errorf("offer repository: insert history %w", err)
	}
	return nil
}
