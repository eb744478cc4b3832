package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/bidme-backend/internal/http/handlers/common"
	"github.com/ignatzorin/bidme-backend/internal/models"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/service"
)

// RequestHandler обслуживает маршруты запросов покупателей.
type RequestHandler struct {
	requests *service.RequestService
	offers   *service.OfferService
}

// NewRequestHandler создаёт хэндлер запросов.
func NewRequestHandler(requests *service.RequestService, offers *service.OfferService) *RequestHandler {
	return &RequestHandler{requests: requests, offers: offers}
}

// Create POST /requests
func (h *RequestHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "некорректное тело запроса"))
		return
	}

	request, err := h.requests.Create(c.Request.Context(), userID, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Get GET /requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	request, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// List GET /requests
func (h *RequestHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	requests, err := h.requests.List(c.Request.Context(), c.Query("category"), c.Query("status"), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListMine GET /requests/my
func (h *RequestHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	requests, err := h.requests.ListMine(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// UpdateStatus PATCH /requests/:id/status
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	var req struct {
		Status string  `json:"status" binding:"required"`
		Reason *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "статус обязателен"))
		return
	}

	request, err := h.requests.TransitionStatus(c.Request.Context(), userID, id, req.Status, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// GetHistory GET /requests/:id/history
func (h *RequestHandler) GetHistory(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	history, err := h.requests.GetHistory(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// ListOffers GET /requests/:id/offers
func (h *RequestHandler) ListOffers(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	if _, err := h.requests.Get(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	offers, err := h.offers.ListByRequest(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// ListCategories GET /categories
func (h *RequestHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.CategoryOptions})
}
