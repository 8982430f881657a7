package service

import (
	"context"
	"time"

	"opaque/pkg/events"
	"opaque/pkg/ratingstats"
)

// SnapshotStore - снапшот распределения оценок (ratingstats.Store)
type SnapshotStore interface {
	Set(ctx context.Context, counts map[int]int64, asOf time.Time) error
	Apply(ctx context.Context, delta map[int]int64, at time.Time) (ratingstats.ApplyResult, error)
}

// StatsServiceInterface используется consumer'ом и cron планировщиком
type StatsServiceInterface interface {
	HandleEvent(ctx context.Context, event events.ReviewEvent) error
	RebuildSnapshot(ctx context.Context) error
}
