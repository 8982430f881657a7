package handler

import (
	"context"
	"errors"
	"net/http"

	"opaque/reviews-service/internal/app/reviews/entity"
	"opaque/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error)
}

type AuthHandler struct {
	auth     AuthServiceInterface
	validate *validator.Validate
}

func NewAuthHandler(auth AuthServiceInterface) *AuthHandler {
	return &AuthHandler{auth: auth, validate: newValidator()}
}

// Login POST /admin/login. Неизвестный логин, неверный пароль и отключенный
// администратор неразличимы для клиента.
func (h *AuthHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if !decodeJSON(c, h.validate, &req) {
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveUser):
		unauthorized(c, "Invalid username or password")
	default:
		internalError(c, err, "Failed to login")
	}
}
