package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

func validOfferInput(requestID uuid.UUID) CreateOfferInput {
	return CreateOfferInput{
		RequestID:    requestID,
		Amount:       1400,
		Message:      "Сделаю за неделю, портфолио в профиле",
		DeliveryDate: time.Now().Add(7 * 24 * time.Hour),
		Credentials:  "5 лет опыта",
	}
}

func TestOfferService_Create_Success(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	users := new(mockUserRepo)
	svc := NewOfferService(offers, requests, users, nil)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	requestID := uuid.New()

	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: buyerID, Title: "Нужен логотип", Status: models.RequestStatusOpen,
	}, nil)
	offers.On("GetLiveBySellerAndRequest", ctx, requestID, sellerID).Return(nil, nil)
	users.On("GetByID", ctx, sellerID).Return(&models.User{ID: sellerID, Name: "Иван"}, nil)
	offers.On("Create", ctx, mock.AnythingOfType("*models.Offer"), "Предложение создано").Return(nil)

	offer, err := svc.Create(ctx, sellerID, validOfferInput(requestID))

	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusPending, offer.Status)
	assert.Nil(t, offer.PaymentStatus)
	assert.Equal(t, "Иван", offer.SellerName)
	offers.AssertExpectations(t)
}

func TestOfferService_Create_OwnRequest(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	users := new(mockUserRepo)
	svc := NewOfferService(offers, requests, users, nil)
	ctx := context.Background()

	sellerID := uuid.New()
	requestID := uuid.New()
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: sellerID, Status: models.RequestStatusOpen,
	}, nil)

	_, err := svc.Create(ctx, sellerID, validOfferInput(requestID))

	assert.True(t, apperror.IsValidation(err))
	offers.AssertNotCalled(t, "Create")
}

func TestOfferService_Create_RequestNotOpen(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	users := new(mockUserRepo)
	svc := NewOfferService(offers, requests, users, nil)
	ctx := context.Background()

	requestID := uuid.New()
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusAccepted,
	}, nil)

	_, err := svc.Create(ctx, uuid.New(), validOfferInput(requestID))

	assert.True(t, apperror.IsPrecondition(err))
	offers.AssertNotCalled(t, "Create")
}

func TestOfferService_Create_DuplicateLiveOffer(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	users := new(mockUserRepo)
	svc := NewOfferService(offers, requests, users, nil)
	ctx := context.Background()

	sellerID := uuid.New()
	requestID := uuid.New()
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusOpen,
	}, nil)
	offers.On("GetLiveBySellerAndRequest", ctx, requestID, sellerID).Return(&models.Offer{
		ID: uuid.New(), RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusPending,
	}, nil)

	_, err := svc.Create(ctx, sellerID, validOfferInput(requestID))

	assert.True(t, apperror.IsConflict(err))
	offers.AssertNotCalled(t, "Create")
}

func TestOfferService_Create_DuplicateRace(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	users := new(mockUserRepo)
	svc := NewOfferService(offers, requests, users, nil)
	ctx := context.Background()

	sellerID := uuid.New()
	requestID := uuid.New()
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusOpen,
	}, nil)
	offers.On("GetLiveBySellerAndRequest", ctx, requestID, sellerID).Return(nil, nil)
	users.On("GetByID", ctx, sellerID).Return(&models.User{ID: sellerID, Name: "Иван"}, nil)
	// Проверка перед вставкой прошла, но уникальный индекс поймал гонку.
	offers.On("Create", ctx, mock.AnythingOfType("*models.Offer"), mock.Anything).Return(repository.ErrDuplicateOffer)

	_, err := svc.Create(ctx, sellerID, validOfferInput(requestID))

	assert.True(t, apperror.IsConflict(err))
}

func TestOfferService_TransitionStatus_AcceptedBlocked(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	buyerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: uuid.New(), Status: models.OfferStatusPending,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: buyerID, Status: models.RequestStatusOpen,
	}, nil)

	// Принять напрямую нельзя даже владельцу запроса: accepted ставит вебхук.
	_, err := svc.TransitionStatus(ctx, buyerID, offerID, models.OfferStatusAccepted, nil)

	assert.True(t, apperror.IsPrecondition(err))
	offers.AssertNotCalled(t, "UpdateStatus")
}

func TestOfferService_TransitionStatus_DeliveredUnpaid(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	pending := models.PaymentStatusPending
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: sellerID,
		Status: models.OfferStatusAccepted, PaymentStatus: &pending,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusAccepted,
	}, nil)

	_, err := svc.TransitionStatus(ctx, sellerID, offerID, models.OfferStatusDelivered, nil)

	assert.True(t, apperror.IsPrecondition(err))
	offers.AssertNotCalled(t, "UpdateStatus")
}

func TestOfferService_TransitionStatus_DeliveredPaid(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	paid := models.PaymentStatusPaid
	offer := &models.Offer{
		ID: offerID, RequestID: requestID, SellerID: sellerID,
		Status: models.OfferStatusAccepted, PaymentStatus: &paid,
	}
	delivered := &models.Offer{
		ID: offerID, RequestID: requestID, SellerID: sellerID,
		Status: models.OfferStatusDelivered, PaymentStatus: &paid,
	}
	offers.On("GetByID", ctx, offerID).Return(offer, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusAccepted,
	}, nil)
	offers.On("UpdateStatus", ctx, offerID, models.OfferStatusDelivered, (*string)(nil), &sellerID).Return(delivered, nil)

	updated, err := svc.TransitionStatus(ctx, sellerID, offerID, models.OfferStatusDelivered, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusDelivered, updated.Status)
	offers.AssertExpectations(t)
}

func TestOfferService_TransitionStatus_DeliveredNotSeller(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	buyerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	paid := models.PaymentStatusPaid
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: uuid.New(),
		Status: models.OfferStatusAccepted, PaymentStatus: &paid,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: buyerID, Status: models.RequestStatusAccepted,
	}, nil)

	_, err := svc.TransitionStatus(ctx, buyerID, offerID, models.OfferStatusDelivered, nil)

	assert.True(t, apperror.IsForbidden(err))
}

func TestOfferService_TransitionStatus_WithdrawBySeller(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	offer := &models.Offer{ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusPending}
	withdrawn := &models.Offer{ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusCancelled}

	offers.On("GetByID", ctx, offerID).Return(offer, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusOpen,
	}, nil)
	offers.On("UpdateStatus", ctx, offerID, models.OfferStatusCancelled, (*string)(nil), &sellerID).Return(withdrawn, nil)

	updated, err := svc.TransitionStatus(ctx, sellerID, offerID, models.OfferStatusCancelled, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusCancelled, updated.Status)
}

func TestOfferService_TransitionStatus_RejectByBuyer(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	offer := &models.Offer{ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusPending}
	rejected := &models.Offer{ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusRejected}

	offers.On("GetByID", ctx, offerID).Return(offer, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: buyerID, Status: models.RequestStatusOpen,
	}, nil)
	offers.On("UpdateStatus", ctx, offerID, models.OfferStatusRejected, (*string)(nil), &buyerID).Return(rejected, nil)

	updated, err := svc.TransitionStatus(ctx, buyerID, offerID, models.OfferStatusRejected, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusRejected, updated.Status)
}

func TestOfferService_TransitionStatus_RejectBySellerForbidden(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusPending,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusOpen,
	}, nil)

	_, err := svc.TransitionStatus(ctx, sellerID, offerID, models.OfferStatusRejected, nil)

	assert.True(t, apperror.IsForbidden(err))
}

func TestOfferService_TransitionStatus_Terminal(t *testing.T) {
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewOfferService(offers, requests, new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusRejected,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{
		ID: requestID, UserID: uuid.New(), Status: models.RequestStatusOpen,
	}, nil)

	_, err := svc.TransitionStatus(ctx, sellerID, offerID, models.OfferStatusCancelled, nil)

	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestOfferService_Edit_MixedModes(t *testing.T) {
	offers := new(mockOfferRepo)
	svc := NewOfferService(offers, new(mockRequestRepo), new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, SellerID: sellerID, Status: models.OfferStatusPending,
	}, nil)

	amount := 1200.0
	_, err := svc.Edit(ctx, sellerID, offerID, EditOfferInput{
		Amount:         &amount,
		TrackingNumber: strPtr("TRACK123"),
	})

	assert.True(t, apperror.IsValidation(err))
}

func TestOfferService_Edit_PendingFields(t *testing.T) {
	offers := new(mockOfferRepo)
	svc := NewOfferService(offers, new(mockRequestRepo), new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	deliveryDate := time.Now().Add(5 * 24 * time.Hour)
	offer := &models.Offer{
		ID: offerID, SellerID: sellerID, Status: models.OfferStatusPending,
		Amount: 1400, Message: "старое сообщение", DeliveryDate: deliveryDate, Credentials: "опыт",
	}
	offers.On("GetByID", ctx, offerID).Return(offer, nil)

	amount := 1200.0
	offers.On("UpdatePendingFields", ctx, offerID, amount, "старое сообщение", deliveryDate, "опыт").
		Return(&models.Offer{ID: offerID, SellerID: sellerID, Status: models.OfferStatusPending, Amount: amount}, nil)

	updated, err := svc.Edit(ctx, sellerID, offerID, EditOfferInput{Amount: &amount})

	assert.NoError(t, err)
	assert.Equal(t, amount, updated.Amount)
}

func TestOfferService_Edit_PendingFieldsAfterAccept(t *testing.T) {
	offers := new(mockOfferRepo)
	svc := NewOfferService(offers, new(mockRequestRepo), new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, SellerID: sellerID, Status: models.OfferStatusAccepted,
	}, nil)

	amount := 900.0
	_, err := svc.Edit(ctx, sellerID, offerID, EditOfferInput{Amount: &amount})

	assert.True(t, apperror.IsPrecondition(err))
	offers.AssertNotCalled(t, "UpdatePendingFields")
}

func TestOfferService_Edit_TrackingBeforePaid(t *testing.T) {
	offers := new(mockOfferRepo)
	svc := NewOfferService(offers, new(mockRequestRepo), new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, SellerID: sellerID, Status: models.OfferStatusPending,
	}, nil)

	_, err := svc.Edit(ctx, sellerID, offerID, EditOfferInput{TrackingNumber: strPtr("TRACK123")})

	assert.True(t, apperror.IsPrecondition(err))
	offers.AssertNotCalled(t, "UpdateTracking")
}

func TestOfferService_Edit_TrackingPaid(t *testing.T) {
	offers := new(mockOfferRepo)
	svc := NewOfferService(offers, new(mockRequestRepo), new(mockUserRepo), nil)
	ctx := context.Background()

	sellerID := uuid.New()
	offerID := uuid.New()
	paid := models.PaymentStatusPaid
	offer := &models.Offer{
		ID: offerID, SellerID: sellerID, Status: models.OfferStatusAccepted, PaymentStatus: &paid,
	}
	offers.On("GetByID", ctx, offerID).Return(offer, nil)
	offers.On("UpdateTracking", ctx, offerID, "TRACK123", "DHL").Return(&models.Offer{
		ID: offerID, SellerID: sellerID, Status: models.OfferStatusAccepted,
		TrackingNumber: strPtr("TRACK123"), Carrier: strPtr("DHL"),
	}, nil)

	updated, err := svc.Edit(ctx, sellerID, offerID, EditOfferInput{
		TrackingNumber: strPtr("TRACK123"),
		Carrier:        strPtr("DHL"),
	})

	assert.NoError(t, err)
	assert.Equal(t, "TRACK123", *updated.TrackingNumber)
}
