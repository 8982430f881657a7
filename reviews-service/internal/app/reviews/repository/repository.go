package repository

import (
	"context"
	"errors"

	"opaque/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound    = errors.New("review not found")
	ErrAdminUserNotFound = errors.New("admin user not found")
	ErrDuplicateUsername = errors.New("admin username already exists")
	ErrInvalidOrdering   = errors.New("invalid ordering field")
)

const serviceName = "reviews-service"

// ReviewRepository - хранилище отзывов (PostgreSQL или MongoDB)
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter entity.ReviewFilter) ([]entity.Review, int64, error)
	RatingCounts(ctx context.Context) (map[int]int64, error)
	DistinctRatings(ctx context.Context) ([]int, error)
}

type AdminUserRepository interface {
	Create(ctx context.Context, user *entity.AdminUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*entity.AdminUser, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}
