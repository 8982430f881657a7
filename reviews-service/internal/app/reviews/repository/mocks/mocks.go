// Package mocks содержит testify-моки зависимостей сервисов reviews-service.
package mocks

import (
	"context"
	"time"

	"opaque/pkg/ratingstats"
	"opaque/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ret достает i-е возвращаемое значение; nil в Return дает нулевое значение T
func ret[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	args := m.Called(ctx, id)
	return ret[*entity.Review](args, 0), args.Error(1)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *entity.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReviewRepository) List(ctx context.Context, filter entity.ReviewFilter) ([]entity.Review, int64, error) {
	args := m.Called(ctx, filter)
	return ret[[]entity.Review](args, 0), ret[int64](args, 1), args.Error(2)
}

func (m *MockReviewRepository) RatingCounts(ctx context.Context) (map[int]int64, error) {
	args := m.Called(ctx)
	return ret[map[int]int64](args, 0), args.Error(1)
}

func (m *MockReviewRepository) DistinctRatings(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	return ret[[]int](args, 0), args.Error(1)
}

type MockAdminUserRepository struct {
	mock.Mock
}

func (m *MockAdminUserRepository) Create(ctx context.Context, user *entity.AdminUser) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockAdminUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error) {
	args := m.Called(ctx, id)
	return ret[*entity.AdminUser](args, 0), args.Error(1)
}

func (m *MockAdminUserRepository) GetByUsername(ctx context.Context, username string) (*entity.AdminUser, error) {
	args := m.Called(ctx, username)
	return ret[*entity.AdminUser](args, 0), args.Error(1)
}

func (m *MockAdminUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockMessagePublisher запоминает тела опубликованных событий в Messages
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	return m.Called(ctx, key, value).Error(0)
}

type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context) (*ratingstats.Distribution, error) {
	args := m.Called(ctx)
	return ret[*ratingstats.Distribution](args, 0), args.Error(1)
}

func (m *MockStatsCache) Set(ctx context.Context, counts map[int]int64, asOf time.Time) error {
	return m.Called(ctx, counts, asOf).Error(0)
}

func (m *MockStatsCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
