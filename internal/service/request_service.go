package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/repository"
)

// RequestRepo описывает хранилище запросов, используемое сервисом.
type RequestRepo interface {
	Create(ctx context.Context, request *models.Request, reason string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string, actorID *uuid.UUID) (*models.Request, error)
	GetHistory(ctx context.Context, requestID uuid.UUID) ([]models.RequestStatusHistory, error)
}

// RequestService реализует жизненный цикл запросов покупателей.
type RequestService struct {
	requests RequestRepo
	notifier *Notifier
}

// NewRequestService создаёт сервис запросов.
func NewRequestService(requests RequestRepo, notifier *Notifier) *RequestService {
	return &RequestService{requests: requests, notifier: notifier}
}

// CreateRequestInput данные для создания запроса.
type CreateRequestInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	Budget      float64   `json:"budget"`
	Deadline    time.Time `json:"deadline"`
	Category    string    `json:"category"`
}

func (in CreateRequestInput) validate() error {
	details := map[string]any{}
	if len(strings.TrimSpace(in.Title)) < 3 {
		details["title"] = "заголовок должен содержать минимум 3 символа"
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		details["description"] = "описание должно содержать минимум 10 символов"
	}
	if in.Quantity < 1 {
		details["quantity"] = "количество должно быть не меньше 1"
	}
	if in.Budget < 1 {
		details["budget"] = "бюджет должен быть не меньше 1"
	}
	if !in.Deadline.After(time.Now()) {
		details["deadline"] = "срок должен быть в будущем"
	}
	if _, ok := models.ValidCategories[in.Category]; !ok {
		details["category"] = "неизвестная категория"
	}
	if len(details) > 0 {
		err := apperror.New(apperror.ErrCodeValidation, "некорректные данные запроса")
		err.Details = details
		return err
	}
	return nil
}

// Create валидирует поля и сохраняет запрос со статусом open.
func (s *RequestService) Create(ctx context.Context, ownerID uuid.UUID, input CreateRequestInput) (*models.Request, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	request := &models.Request{
		UserID:      ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Quantity:    input.Quantity,
		Budget:      input.Budget,
		Deadline:    input.Deadline,
		Category:    input.Category,
		Status:      models.RequestStatusOpen,
	}
	if err := s.requests.Create(ctx, request, "Запрос создан"); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать запрос")
	}
	return request, nil
}

// Get возвращает запрос по идентификатору.
func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос")
	}
	return request, nil
}

// List возвращает запросы с фильтрацией по категории и статусу.
func (s *RequestService) List(ctx context.Context, category, status string, limit, offset int) ([]models.Request, error) {
	if status != "" {
		if _, ok := models.RequestStatusTransitions[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус запроса")
		}
	}
	if category != "" {
		if _, ok := models.ValidCategories[category]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестная категория")
		}
	}

	requests, err := s.requests.List(ctx, repository.ListFilter{
		Category: category,
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список запросов")
	}
	return requests, nil
}

// ListMine возвращает запросы пользователя.
func (s *RequestService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]models.Request, error) {
	requests, err := s.requests.List(ctx, repository.ListFilter{UserID: &ownerID})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список запросов")
	}
	return requests, nil
}

// TransitionStatus переводит запрос в новый статус по таблице переходов.
// Статус accepted достигается только через подтверждение оплаты, поэтому
// прямой перевод в него клиентом запрещён.
func (s *RequestService) TransitionStatus(ctx context.Context, actorID, requestID uuid.UUID, newStatus string, reason *string) (*models.Request, error) {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.IsOwnedBy(actorID) {
		return nil, apperror.ErrForbidden
	}

	if newStatus == models.RequestStatusAccepted {
		return nil, apperror.New(apperror.ErrCodePrecondition,
			"статус accepted устанавливается только после подтверждения оплаты")
	}
	if !models.CanTransition(models.RequestStatusTransitions, request.Status, newStatus) {
		return nil, apperror.NewInvalidTransition(request.Status, newStatus,
			models.AllowedTransitions(models.RequestStatusTransitions, request.Status))
	}

	updated, err := s.requests.UpdateStatus(ctx, requestID, newStatus, reason, &actorID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус запроса")
	}

	s.notifier.Notify(updated.UserID, EventRequestStatus, updated)
	return updated, nil
}

// GetHistory возвращает журнал статусов запроса.
func (s *RequestService) GetHistory(ctx context.Context, requestID uuid.UUID) ([]models.RequestStatusHistory, error) {
	if _, err := s.Get(ctx, requestID); err != nil {
		return nil, err
	}
	history, err := s.requests.GetHistory(ctx, requestID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить журнал статусов")
	}
	return history, nil
}
