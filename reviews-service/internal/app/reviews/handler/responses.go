package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"opaque/pkg/logger"
	"opaque/reviews-service/internal/app/reviews/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// newValidator возвращает validator, который называет поля по json тегам
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Validation failed"
	}

	fe := validationErrors[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not be empty", fe.Field())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

type normalizer interface {
	Normalize()
}

// decodeJSON читает тело запроса в dst, нормализует и проверяет его; при ошибке уже ответил 400
func decodeJSON(c *gin.Context, v *validator.Validate, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if err := v.Struct(dst); err != nil {
		badRequest(c, formatValidationError(err))
		return false
	}
	return true
}

// parseReviewID разбирает :id; некорректный UUID - это тоже несуществующий отзыв
func parseReviewID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		reviewNotFound(c)
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, entity.ErrorResponse{
		Error:   "Bad Request",
		Message: message,
	})
}

func reviewNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, entity.ErrorResponse{
		Error:   "Not Found",
		Message: "Review not found",
	})
}

func internalError(c *gin.Context, err error, message string) {
	logger.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("route", c.FullPath()).
		Msg(message)

	c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
		Error:   "Internal Server Error",
		Message: message,
	})
}
