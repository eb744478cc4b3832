package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/bidme-backend/internal/http/handlers/common"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/service"
)

// DisputeHandler обслуживает маршруты споров.
type DisputeHandler struct {
	disputes *service.DisputeService
}

// NewDisputeHandler создаёт хэндлер споров.
func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// Open POST /offers/:id/dispute
func (h *DisputeHandler) Open(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "причина спора обязательна"))
		return
	}

	dispute, err := h.disputes.Open(c.Request.Context(), userID, offerID, req.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// Resolve POST /disputes/:id/resolve
func (h *DisputeHandler) Resolve(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	var req struct {
		Resolution string `json:"resolution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "текст решения обязателен"))
		return
	}

	dispute, err := h.disputes.Resolve(c.Request.Context(), userID, disputeID, req.Resolution)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// ListMine GET /disputes
func (h *DisputeHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}
