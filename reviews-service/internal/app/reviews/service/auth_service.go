package service

import (
	"context"
	"errors"
	"fmt"

	"opaque/pkg/logger"
	"opaque/pkg/metrics"
	"opaque/reviews-service/internal/app/reviews/entity"
	"opaque/reviews-service/internal/app/reviews/repository"
	"opaque/reviews-service/internal/app/reviews/util"
)

// Роль и права администратора панели отзывов
const (
	AdminRole = "admin"

	PermReviewView   = "review.view"
	PermReviewChange = "review.change"
	PermReviewDelete = "review.delete"
)

var AdminPermissions = []string{PermReviewView, PermReviewChange, PermReviewDelete}

// AuthService - вход администраторов и проверка токенов
type AuthService struct {
	userRepo repository.AdminUserRepository
	tokens   *util.TokenIssuer
}

func NewAuthService(userRepo repository.AdminUserRepository, tokens *util.TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Login проверяет логин и пароль и выдает access токен
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminUserNotFound) {
			metrics.AdminLogins.WithLabelValues("failed").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	if !util.PasswordMatches(user.PasswordHash, req.Password) {
		metrics.AdminLogins.WithLabelValues("failed").Inc()
		return nil, ErrInvalidCredentials
	}

	// неактивному пользователю отказываем только после проверки пароля
	if !user.IsActive {
		metrics.AdminLogins.WithLabelValues("inactive").Inc()
		return nil, ErrInactiveUser
	}

	token, err := s.tokens.Issue(user.ID, user.Username, AdminRole, AdminPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("username", user.Username).Msg("Failed to update last login")
	}

	metrics.AdminLogins.WithLabelValues("success").Inc()

	return &entity.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// EnsureAdmin создает администратора при старте, если его еще нет.
// Возвращает true, если пользователь был создан.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrAdminUserNotFound) {
		return false, fmt.Errorf("failed to get admin user: %w", err)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.AdminUser{
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// другой экземпляр сервиса успел создать его раньше
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	return true, nil
}

// ValidateToken проверяет access токен и то, что его владелец все еще существует и активен.
// Ошибки util.ErrInvalidToken / util.ErrExpiredToken; остальные - сбой хранилища.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*util.AdminClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	adminID, err := claims.AdminID()
	if err != nil {
		return nil, util.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrAdminUserNotFound) {
			logger.Ctx(ctx).Warn().Str("admin_id", adminID.String()).Msg("Token of deleted admin rejected")
			return nil, util.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	if !user.IsActive {
		logger.Ctx(ctx).Warn().Str("username", user.Username).Msg("Token of inactive admin rejected")
		return nil, util.ErrInvalidToken
	}

	return claims, nil
}
