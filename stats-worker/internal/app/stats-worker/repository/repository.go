package repository

import "context"

const (
	serviceName  = "stats-worker"
	reviewsTable = "reviews"
)

// StatsRepository читает агрегаты по таблице (коллекции) отзывов.
// Таблицей владеет reviews-service, worker только читает.
type StatsRepository interface {
	// RatingCounts - количество отзывов по каждой оценке
	RatingCounts(ctx context.Context) (map[int]int64, error)
}
