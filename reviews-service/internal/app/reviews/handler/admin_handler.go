package handler

import (
	"errors"
	"net/http"

	"opaque/reviews-service/internal/app/reviews/entity"
	"opaque/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// AdminHandler - список, поиск, фильтры и редактирование отзывов в админке
type AdminHandler struct {
	reviewService ReviewServiceInterface
	validator     *validator.Validate
}

func NewAdminHandler(reviewService ReviewServiceInterface) *AdminHandler {
	return &AdminHandler{
		reviewService: reviewService,
		validator:     newValidator(),
	}
}

// ListReviews GET /admin/reviews?q=&rating=&created=&ordering=&page=&page_size=
func (h *AdminHandler) ListReviews(c *gin.Context) {
	var q entity.ReviewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters")
		return
	}

	resp, err := h.reviewService.SearchReviews(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			badRequest(c, err.Error())
			return
		}
		internalError(c, err, "Failed to list reviews")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetReview GET /admin/reviews/:id
func (h *AdminHandler) GetReview(c *gin.Context) {
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

// UpdateReview PATCH /admin/reviews/:id; created_at в теле игнорируется
func (h *AdminHandler) UpdateReview(c *gin.Context) {
	id, ok := parseReviewID(c)
	if !ok {
		return
	}

	var req entity.UpdateReviewRequest
	if !decodeJSON(c, h.validator, &req) {
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			reviewNotFound(c)
		case errors.Is(err, service.ErrNothingToUpdate):
			badRequest(c, "No fields to update")
		default:
			internalError(c, err, "Failed to update review")
		}
		return
	}

	c.JSON(http.StatusOK, review)
}

// DeleteReview DELETE /admin/reviews/:id
func (h *AdminHandler) DeleteReview(c *gin.Context) {
	id, ok := parseReviewID(c)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			reviewNotFound(c)
			return
		}
		internalError(c, err, "Failed to delete review")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Review deleted successfully",
	})
}
