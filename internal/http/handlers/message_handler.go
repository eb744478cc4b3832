package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/bidme-backend/internal/http/handlers/common"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/service"
)

// MessageHandler обслуживает личную переписку.
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler создаёт хэндлер сообщений.
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send POST /messages
func (h *MessageHandler) Send(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "получатель и текст обязательны"))
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "неверный receiver_id"))
		return
	}

	message, err := h.messages.Send(c.Request.Context(), userID, receiverID, req.Content)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// GetConversation GET /messages/:userId
func (h *MessageHandler) GetConversation(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.Error(apperror.ErrUnauthorized)
		return
	}

	otherID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	limit, offset := common.GetPagination(c)
	messages, err := h.messages.GetConversation(c.Request.Context(), userID, otherID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
