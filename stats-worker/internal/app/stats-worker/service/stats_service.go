package service

import (
	"context"
	"fmt"
	"time"

	"opaque/pkg/events"
	"opaque/pkg/logger"
	"opaque/pkg/metrics"
	"opaque/pkg/ratingstats"
	"opaque/stats-worker/internal/app/stats-worker/repository"
)

// Статусы обработки события для метрики stats_events_applied_total
const (
	statusApplied = "applied"
	statusRebuilt = "rebuilt"
	statusNoop    = "noop"
	statusStale   = "stale"
	statusFailed  = "failed"
)

type StatsService struct {
	repo  repository.StatsRepository
	store SnapshotStore
	now   func() time.Time
}

func NewStatsService(repo repository.StatsRepository, store SnapshotStore) *StatsService {
	return &StatsService{
		repo:  repo,
		store: store,
		now:   time.Now,
	}
}

// RebuildSnapshot пересчитывает распределение по хранилищу отзывов и заменяет снапшот
func (s *StatsService) RebuildSnapshot(ctx context.Context) error {
	// отметка берется до запроса: все, что закоммичено раньше нее, запрос увидит
	asOf := s.now().UTC()
	counts, err := s.repo.RatingCounts(ctx)
	if err != nil {
		metrics.StatsSnapshotRebuilds.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to load rating counts: %w", err)
	}

	if err := s.store.Set(ctx, counts, asOf); err != nil {
		metrics.StatsSnapshotRebuilds.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to store rating snapshot: %w", err)
	}

	metrics.StatsSnapshotRebuilds.WithLabelValues("success").Inc()
	logger.Debug().Interface("counts", counts).Msg("Rating snapshot rebuilt")
	return nil
}

// HandleEvent применяет событие отзыва к снапшоту.
// Если снапшота нет или дельту нельзя вычислить, снапшот строится заново:
// хранилище к этому моменту уже содержит изменение из события.
func (s *StatsService) HandleEvent(ctx context.Context, event events.ReviewEvent) error {
	eventType := string(event.EventType)

	delta, ok := Delta(event)
	if !ok {
		logger.Warn().
			Str("event_type", eventType).
			Str("review_id", event.ReviewID).
			Msg("Cannot compute rating delta, rebuilding snapshot")
		return s.rebuildForEvent(ctx, eventType)
	}

	if len(delta) == 0 {
		metrics.StatsEventsApplied.WithLabelValues(eventType, statusNoop).Inc()
		return nil
	}

	res, err := s.store.Apply(ctx, delta, event.Timestamp)
	if err != nil {
		metrics.StatsEventsApplied.WithLabelValues(eventType, statusFailed).Inc()
		return fmt.Errorf("failed to apply %s delta: %w", eventType, err)
	}

	switch res {
	case ratingstats.SnapshotMissing:
		return s.rebuildForEvent(ctx, eventType)
	case ratingstats.DeltaStale:
		metrics.StatsEventsApplied.WithLabelValues(eventType, statusStale).Inc()
		logger.Debug().
			Str("event_type", eventType).
			Str("review_id", event.ReviewID).
			Time("event_at", event.Timestamp).
			Msg("Event already counted by snapshot rebuild")
	default:
		metrics.StatsEventsApplied.WithLabelValues(eventType, statusApplied).Inc()
	}
	return nil
}

func (s *StatsService) rebuildForEvent(ctx context.Context, eventType string) error {
	if err := s.RebuildSnapshot(ctx); err != nil {
		metrics.StatsEventsApplied.WithLabelValues(eventType, statusFailed).Inc()
		return err
	}
	metrics.StatsEventsApplied.WithLabelValues(eventType, statusRebuilt).Inc()
	return nil
}

// Delta переводит событие в изменения счетчиков по оценкам.
// ok = false, если в событии нет нужной оценки (например, старое событие
// REVIEW_UPDATED без previous_rating).
func Delta(event events.ReviewEvent) (map[int]int64, bool) {
	switch event.EventType {
	case events.ReviewCreated:
		if event.Rating == 0 {
			return nil, false
		}
		return map[int]int64{event.Rating: 1}, true
	case events.ReviewDeleted:
		if event.Rating == 0 {
			return nil, false
		}
		return map[int]int64{event.Rating: -1}, true
	case events.ReviewUpdated:
		if event.Rating == 0 || event.PreviousRating == 0 {
			return nil, false
		}
		if event.Rating == event.PreviousRating {
			return map[int]int64{}, true
		}
		return map[int]int64{event.PreviousRating: -1, event.Rating: 1}, true
	default:
		return nil, false
	}
}
