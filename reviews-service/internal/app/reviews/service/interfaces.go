package service

import (
	"context"
	"time"

	"opaque/pkg/ratingstats"
)

// StatsCache - снапшот распределения оценок (ratingstats.Store)
type StatsCache interface {
	Get(ctx context.Context) (*ratingstats.Distribution, error)
	Set(ctx context.Context, counts map[int]int64, asOf time.Time) error
	Invalidate(ctx context.Context) error
}

// MessagePublisher отправляет событие отзыва; key - ID отзыва
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}
