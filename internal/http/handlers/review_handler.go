package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/bidme-backend/internal/http/handlers/common"
	"github.com/ignatzorin/bidme-backend/internal/pkg/apperror"
	"github.com/ignatzorin/bidme-backend/internal/service"
)

// ReviewHandler обслуживает маршруты отзывов.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler создаёт хэндлер отзывов.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create POST /offers/:id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
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
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, "оценка обязательна"))
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), userID, service.SubmitReviewInput{
		OfferID: offerID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListByOffer GET /offers/:id/reviews
func (h *ReviewHandler) ListByOffer(c *gin.Context) {
	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	reviews, err := h.reviews.ListByOffer(c.Request.Context(), offerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// ListByUser GET /users/:id/reviews
func (h *ReviewHandler) ListByUser(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	limit, offset := common.GetPagination(c)
	reviews, err := h.reviews.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// GetRating GET /users/:id/rating
func (h *ReviewHandler) GetRating(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.Error(apperror.New(apperror.ErrCodeBadRequest, err.Error()))
		return
	}

	rating, err := h.reviews.GetRating(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rating)
}
