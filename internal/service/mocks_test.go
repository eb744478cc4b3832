package service

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/bidme-backend/internal/logger"
	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/payment"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

type mockRequestRepo struct {
	mock.Mock
}

func (m *mockRequestRepo) Create(ctx context.Context, request *models.Request, reason string) error {
	args := m.Called(ctx, request, reason)
	if args.Error(0) == nil {
		request.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestRepo) List(ctx context.Context, filter repository.ListFilter) ([]models.Request, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *mockRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, actorID *uuid.UUID) (*models.Request, error) {
	args := m.Called(ctx, id, status, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestRepo) GetHistory(ctx context.Context, requestID uuid.UUID) ([]models.RequestStatusHistory, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RequestStatusHistory), args.Error(1)
}

type mockOfferRepo struct {
	mock.Mock
}

func (m *mockOfferRepo) Create(ctx context.Context, offer *models.Offer, reason string) error {
	args := m.Called(ctx, offer, reason)
	if args.Error(0) == nil {
		offer.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockOfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) GetLiveBySellerAndRequest(ctx context.Context, requestID, sellerID uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, requestID, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Offer), args.Error(1)
}

func (m *mockOfferRepo) ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Offer), args.Error(1)
}

func (m *mockOfferRepo) ListReceived(ctx context.Context, buyerID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Offer), args.Error(1)
}

func (m *mockOfferRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, actorID *uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id, status, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) MarkPaid(ctx context.Context, id uuid.UUID, reason string) (*models.Offer, bool, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Offer), args.Bool(1), args.Error(2)
}

func (m *mockOfferRepo) AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string, shippingAddress json.RawMessage) (*models.Offer, error) {
	args := m.Called(ctx, id, sessionID, shippingAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) UpdatePendingFields(ctx context.Context, id uuid.UUID, amount float64, message string, deliveryDate time.Time, credentials string) (*models.Offer, error) {
	args := m.Called(ctx, id, amount, message, deliveryDate, credentials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) UpdateTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) (*models.Offer, error) {
	args := m.Called(ctx, id, trackingNumber, carrier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) GetHistory(ctx context.Context, offerID uuid.UUID) ([]models.OfferStatusHistory, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OfferStatusHistory), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	args := m.Called(ctx, d)
	if args.Error(0) == nil {
		d.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetOpenByOfferID(ctx context.Context, offerID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) Resolve(ctx context.Context, id uuid.UUID, resolution string) error {
	args := m.Called(ctx, id, resolution)
	return args.Error(0)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dispute), args.Error(1)
}

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByOfferAndReviewer(ctx context.Context, offerID, reviewerID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, offerID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByRevieweeID(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, revieweeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByOfferID(ctx context.Context, offerID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSession(ctx context.Context, in payment.CreateSessionInput) (*payment.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *mockGateway) GetSession(ctx context.Context, id string) (*payment.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *mockGateway) ParseWebhook(payload []byte, signatureHeader string) (*payment.CheckoutEvent, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutEvent), args.Error(1)
}

func strPtr(s string) *string {
	return &s
}
