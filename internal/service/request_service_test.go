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

func validRequestInput() CreateRequestInput {
	return CreateRequestInput{
		Title:       "Нужен логотип",
		Description: "Логотип для небольшой кофейни, есть референсы",
		Quantity:    1,
		Budget:      1500,
		Deadline:    time.Now().Add(30 * 24 * time.Hour),
		Category:    "creative-services",
	}
}

func TestRequestService_Create_Success(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Request"), "Запрос создан").Return(nil)

	request, err := svc.Create(ctx, ownerID, validRequestInput())

	assert.NoError(t, err)
	assert.NotNil(t, request)
	assert.Equal(t, models.RequestStatusOpen, request.Status)
	assert.Equal(t, ownerID, request.UserID)
	repo.AssertExpectations(t)
}

func TestRequestService_Create_Validation(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil)
	ctx := context.Background()

	input := validRequestInput()
	input.Title = "ab"
	input.Description = "коротко"
	input.Quantity = 0
	input.Budget = 0
	input.Deadline = time.Now().Add(-time.Hour)
	input.Category = "unknown"

	_, err := svc.Create(ctx, uuid.New(), input)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "title")
	assert.Contains(t, appErr.Details, "description")
	assert.Contains(t, appErr.Details, "quantity")
	assert.Contains(t, appErr.Details, "budget")
	assert.Contains(t, appErr.Details, "deadline")
	assert.Contains(t, appErr.Details, "category")
	repo.AssertNotCalled(t, "Create")
}

func TestRequestService_TransitionStatus_Cancel(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil)
	ctx := context.Background()

	ownerID := uuid.New()
	requestID := uuid.New()
	request := &models.Request{ID: requestID, UserID: ownerID, Status: models.RequestStatusOpen}
	cancelled := &models.Request{ID: requestID, UserID: ownerID, Status: models.RequestStatusCancelled}

	repo.On("GetByID", ctx, requestID).Return(request, nil)
	repo.On("UpdateStatus", ctx, requestID, models.RequestStatusCancelled, (*string)(nil), &ownerID).Return(cancelled, nil)

	updated, err := svc.TransitionStatus(ctx, ownerID, requestID, models.RequestStatusCancelled, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.RequestStatusCancelled, updated.Status)
	repo.AssertExpectations(t)
}

func TestRequestService_TransitionStatus_NotOwner(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil)
	ctx := context.Background()

	requestID := uuid.New()
	request := &models.Request{ID: requestID, UserID: uuid.New(), Status: models.RequestStatusOpen}
	repo.On("GetByID", ctx, requestID).Return(request, nil)

	_, err := svc.TransitionStatus(ctx, uuid.New(), requestID, models.RequestStatusCancelled, nil)

	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestRequestService_TransitionStatus_InvalidTransition(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil)
	ctx := context.Background()

	ownerID := uuid.New()
	requestID := uuid.New()
	request := &models.Request{ID: requestID, UserID: ownerID, Status: models.RequestStatusCompleted}
	repo.On("GetByID", ctx, requestID).Return(request, nil)

	_, err := svc.TransitionStatus(ctx, ownerID, requestID, models.RequestStatusPending, nil)

	assert.True(t, apperror.IsInvalidTransition(err))

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.RequestStatusCompleted, appErr.Details["current_status"])
	assert.Empty(t, appErr.Details["allowed_transitions"])
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestRequestService_TransitionStatus_AcceptedBlocked(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil)
	ctx := context.Background()

	ownerID := uuid.New()
	requestID := uuid.New()
	request := &models.Request{ID: requestID, UserID: ownerID, Status: models.RequestStatusPending}
	repo.On("GetByID", ctx, requestID).Return(request, nil)

	// Даже из pending, откуда accepted формально достижим,
	// клиентский переход отклоняется: accepted ставит только оплата.
	_, err := svc.TransitionStatus(ctx, ownerID, requestID, models.RequestStatusAccepted, nil)

	assert.True(t, apperror.IsPrecondition(err))
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestRequestService_TransitionStatus_NotFound(t *testing.T) {
	repo := new(mockRequestRepo)
	svc := NewRequestService(repo, nil)
	ctx := context.Background()

	requestID := uuid.New()
	repo.On("GetByID", ctx, requestID).Return(nil, repository.ErrRequestNotFound)

	_, err := svc.TransitionStatus(ctx, uuid.New(), requestID, models.RequestStatusCancelled, nil)

	assert.True(t, apperror.IsNotFound(err))
}
