package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/bidme-backend/internal/http/handlers/common"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/service"
)

// PaymentHandler обслуживает checkout и вебхук платёжного шлюза.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler создаёт платёжный хэндлер.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateCheckout POST /offers/:id/checkout
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
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
		ShippingAddress json.RawMessage `json:"shipping_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "адрес доставки обязателен"))
		return
	}

	result, err := h.payments.CreateCheckout(c.Request.Context(), userID, offerID, req.ShippingAddress)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Webhook POST /payments/webhook
// Тело читается сырыми байтами: подпись считается именно по ним,
// любая переупаковка JSON её сломает.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "не удалось прочитать тело запроса"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.payments.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
