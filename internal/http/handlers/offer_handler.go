package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/bidme-backend/internal/http/handlers/common"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/service"
)

// OfferHandler обслуживает маршруты предложений продавцов.
type OfferHandler struct {
	offers *service.OfferService
}

// NewOfferHandler создаёт хэндлер предложений.
func NewOfferHandler(offers *service.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// Create POST /offers
func (h *OfferHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	var input service.CreateOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "некорректное тело запроса"))
		return
	}

	offer, err := h.offers.Create(c.Request.Context(), userID, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// Get GET /offers/:id
func (h *OfferHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	offer, err := h.offers.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// ListMine GET /offers/my
func (h *OfferHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	offers, err := h.offers.ListMine(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// ListReceived GET /offers/received
func (h *OfferHandler) ListReceived(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	offers, err := h.offers.ListReceived(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// Edit PATCH /offers/:id
func (h *OfferHandler) Edit(c *gin.Context) {
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

	var input service.EditOfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "некорректное тело запроса"))
		return
	}

	offer, err := h.offers.Edit(c.Request.Context(), userID, id, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// UpdateStatus PATCH /offers/:id/status
func (h *OfferHandler) UpdateStatus(c *gin.Context) {
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

	offer, err := h.offers.TransitionStatus(c.Request.Context(), userID, id, req.Status, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// GetHistory GET /offers/:id/history
func (h *OfferHandler) GetHistory(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	history, err := h.offers.GetHistory(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}
