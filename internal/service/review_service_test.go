package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

func TestReviewService_Submit_BuyerReviewsSeller(t *testing.T) {
	reviews := new(mockReviewRepo)
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewReviewService(reviews, offers, requests)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()

	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusCompleted,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{ID: requestID, UserID: buyerID}, nil)
	reviews.On("GetByOfferAndReviewer", ctx, offerID, buyerID).Return(nil, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Submit(ctx, buyerID, SubmitReviewInput{
		OfferID: offerID, Rating: 5, Comment: "Отличная работа!",
	})

	assert.NoError(t, err)
	assert.Equal(t, sellerID, review.RevieweeID)
	assert.Equal(t, 5, review.Rating)
}

func TestReviewService_Submit_SellerReviewsBuyer(t *testing.T) {
	reviews := new(mockReviewRepo)
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewReviewService(reviews, offers, requests)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()

	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: sellerID, Status: models.OfferStatusCompleted,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{ID: requestID, UserID: buyerID}, nil)
	reviews.On("GetByOfferAndReviewer", ctx, offerID, sellerID).Return(nil, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)

	review, err := svc.Submit(ctx, sellerID, SubmitReviewInput{OfferID: offerID, Rating: 4})

	assert.NoError(t, err)
	assert.Equal(t, buyerID, review.RevieweeID)
}

func TestReviewService_Submit_InvalidRating(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockOfferRepo), new(mockRequestRepo))
	ctx := context.Background()

	_, err := svc.Submit(ctx, uuid.New(), SubmitReviewInput{OfferID: uuid.New(), Rating: 0})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Submit(ctx, uuid.New(), SubmitReviewInput{OfferID: uuid.New(), Rating: 6})
	assert.True(t, apperror.IsValidation(err))
}

func TestReviewService_Submit_OfferNotCompleted(t *testing.T) {
	reviews := new(mockReviewRepo)
	offers := new(mockOfferRepo)
	svc := NewReviewService(reviews, offers, new(mockRequestRepo))
	ctx := context.Background()

	offerID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, Status: models.OfferStatusDelivered,
	}, nil)

	_, err := svc.Submit(ctx, uuid.New(), SubmitReviewInput{OfferID: offerID, Rating: 5})

	assert.True(t, apperror.IsPrecondition(err))
	reviews.AssertNotCalled(t, "Create")
}

func TestReviewService_Submit_NotParticipant(t *testing.T) {
	reviews := new(mockReviewRepo)
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewReviewService(reviews, offers, requests)
	ctx := context.Background()

	offerID := uuid.New()
	requestID := uuid.New()
	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: uuid.New(), Status: models.OfferStatusCompleted,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{ID: requestID, UserID: uuid.New()}, nil)

	_, err := svc.Submit(ctx, uuid.New(), SubmitReviewInput{OfferID: offerID, Rating: 5})

	assert.True(t, apperror.IsForbidden(err))
	reviews.AssertNotCalled(t, "Create")
}

func TestReviewService_Submit_Duplicate(t *testing.T) {
	reviews := new(mockReviewRepo)
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewReviewService(reviews, offers, requests)
	ctx := context.Background()

	buyerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()

	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: uuid.New(), Status: models.OfferStatusCompleted,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{ID: requestID, UserID: buyerID}, nil)
	reviews.On("GetByOfferAndReviewer", ctx, offerID, buyerID).Return(&models.Review{ID: uuid.New()}, nil)

	_, err := svc.Submit(ctx, buyerID, SubmitReviewInput{OfferID: offerID, Rating: 5})

	assert.True(t, apperror.IsConflict(err))
	reviews.AssertNotCalled(t, "Create")
}

func TestReviewService_Submit_DuplicateRace(t *testing.T) {
	reviews := new(mockReviewRepo)
	offers := new(mockOfferRepo)
	requests := new(mockRequestRepo)
	svc := NewReviewService(reviews, offers, requests)
	ctx := context.Background()

	buyerID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()

	offers.On("GetByID", ctx, offerID).Return(&models.Offer{
		ID: offerID, RequestID: requestID, SellerID: uuid.New(), Status: models.OfferStatusCompleted,
	}, nil)
	requests.On("GetByID", ctx, requestID).Return(&models.Request{ID: requestID, UserID: buyerID}, nil)
	reviews.On("GetByOfferAndReviewer", ctx, offerID, buyerID).Return(nil, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(repository.ErrDuplicateReview)

	_, err := svc.Submit(ctx, buyerID, SubmitReviewInput{OfferID: offerID, Rating: 5})

	assert.True(t, apperror.IsConflict(err))
}
