package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opaque/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type adminUserRepository struct {
	db *gorm.DB
}

// NewAdminUserRepository создает репозиторий администраторов
func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) Create(ctx context.Context, user *entity.AdminUser) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

func (r *adminUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error) {
	var user entity.AdminUser
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAdminUserNotFound
		}
		return nil, fmt.Errorf("failed to get admin user: %w", result.Error)
	}
	return &user, nil
}

func (r *adminUserRepository) GetByUsername(ctx context.Context, username string) (*entity.AdminUser, error) {
	var user entity.AdminUser
	result := r.db.WithContext(ctx).First(&user, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAdminUserNotFound
		}
		return nil, fmt.Errorf("failed to get admin user: %w", result.Error)
	}
	return &user, nil
}

// TouchLastLogin обновляет время последнего входа
func (r *adminUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&entity.AdminUser{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to update last login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAdminUserNotFound
	}
	return nil
}
