package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"opaque/reviews-service/internal/app/reviews/entity"
	"opaque/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, req *entity.CreateReviewRequest) (*entity.Review, error)
	GetReview(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	ListReviews(ctx context.Context, limit int) ([]entity.Review, error)
	SearchReviews(ctx context.Context, q entity.ReviewQuery) (*entity.ReviewListResponse, error)
	UpdateReview(ctx context.Context, id uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
	RatingDistribution(ctx context.Context) (*entity.RatingDistribution, error)
}

// ReviewHandler - публичный API отзывов для фронтенда
type ReviewHandler struct {
	reviewService ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     newValidator(),
	}
}

// ListReviews GET /api/reviews/?limit=
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	reviews, err := h.reviewService.ListReviews(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err, "Failed to list reviews")
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// CreateReview POST /api/reviews/
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req entity.CreateReviewRequest
	if !decodeJSON(c, h.validator, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), &req)
	if err != nil {
		internalError(c, err, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetReview GET /api/reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := parseReviewID(c)
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			reviewNotFound(c)
			return
		}
		internalError(c, err, "Failed to get review")
		return
	}

	c.JSON(http.StatusOK, review)
}

// RatingStats GET /api/reviews/stats - данные для графика распределения оценок
func (h *ReviewHandler) RatingStats(c *gin.Context) {
	dist, err := h.reviewService.RatingDistribution(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to get rating statistics")
		return
	}

	c.JSON(http.StatusOK, dist)
}
