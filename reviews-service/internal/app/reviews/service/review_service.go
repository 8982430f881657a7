package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"opaque/pkg/events"
	"opaque/pkg/logger"
	"opaque/pkg/metrics"
	"opaque/pkg/ratingstats"
	"opaque/reviews-service/internal/app/reviews/entity"
	"opaque/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

const (
	// publishTimeout держит запрос в пределах WriteTimeout сервера, даже если Kafka не отвечает
	publishTimeout    = 3 * time.Second
	invalidateTimeout = 2 * time.Second
)

// ReviewService обрабатывает бизнес-логику отзывов
// Координирует работу репозитория, Kafka и снапшота статистики в Redis
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	publisher  MessagePublisher
	stats      StatsCache
	location   *time.Location
	now        func() time.Time

	publishTimeout time.Duration
}

// NewReviewService создает сервис отзывов.
// location - часовой пояс, в котором считаются фильтры "сегодня", "этот месяц" и т.д.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	publisher MessagePublisher,
	stats StatsCache,
	location *time.Location,
) *ReviewService {
	if location == nil {
		location = time.UTC
	}
	return &ReviewService{
		reviewRepo: reviewRepo,
		publisher:  publisher,
		stats:      stats,
		location:   location,
		now:        time.Now,

		publishTimeout: publishTimeout,
	}
}

// CreateReview сохраняет отзыв с формы сайта и публикует REVIEW_CREATED
func (s *ReviewService) CreateReview(ctx context.Context, req *entity.CreateReviewRequest) (*entity.Review, error) {
	review := &entity.Review{
		Name:    strings.TrimSpace(req.Name),
		Country: strings.TrimSpace(req.Country),
		Content: strings.TrimSpace(req.Content),
		Rating:  req.Rating,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsRating.Observe(float64(review.Rating))

	s.publish(ctx, events.ReviewEvent{
		EventType: events.ReviewCreated,
		ReviewID:  review.ID.String(),
		Country:   review.Country,
		Rating:    review.Rating,
		Timestamp: s.now().UTC(),
	})

	return review, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// ListReviews - публичный список, новые первыми
func (s *ReviewService) ListReviews(ctx context.Context, limit int) ([]entity.Review, error) {
	reviews, _, err := s.reviewRepo.List(ctx, entity.ReviewFilter{
		Ordering: entity.DefaultOrdering,
		Limit:    clampPageSize(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// SearchReviews - список в админке: поиск, фильтры по оценке и дате, сортировка, страницы
func (s *ReviewService) SearchReviews(ctx context.Context, q entity.ReviewQuery) (*entity.ReviewListResponse, error) {
	filter, page, pageSize, err := s.buildFilter(q)
	if err != nil {
		return nil, err
	}

	reviews, total, err := s.reviewRepo.List(ctx, filter)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidOrdering) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		return nil, fmt.Errorf("failed to search reviews: %w", err)
	}

	ratings, err := s.reviewRepo.DistinctRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating choices: %w", err)
	}

	summaries := make([]entity.ReviewSummary, 0, len(reviews))
	for _, r := range reviews {
		summaries = append(summaries, r.Summary())
	}

	return &entity.ReviewListResponse{
		Reviews:  summaries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Filters: entity.FilterChoices{
			Rating:  ratings,
			Created: entity.DateChoices,
		},
	}, nil
}

// buildFilter переводит параметры запроса в фильтр репозитория
func (s *ReviewService) buildFilter(q entity.ReviewQuery) (entity.ReviewFilter, int, int, error) {
	ordering, ok := entity.ParseOrdering(q.Ordering)
	if !ok {
		return entity.ReviewFilter{}, 0, 0, fmt.Errorf("%w: unknown ordering %q", ErrInvalidFilter, q.Ordering)
	}
	if !q.Created.Valid() {
		return entity.ReviewFilter{}, 0, 0, fmt.Errorf("%w: unknown created choice %q", ErrInvalidFilter, q.Created)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := clampPageSize(q.PageSize)

	filter := entity.ReviewFilter{
		Terms:    entity.SearchTerms(q.Search),
		Rating:   q.Rating,
		Ordering: ordering,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}

	if since, until, ok := q.Created.Bounds(s.now().In(s.location)); ok {
		filter.Since = &since
		filter.Until = &until
	}

	return filter, page, pageSize, nil
}

// UpdateReview частично обновляет отзыв; created_at не меняется
func (s *ReviewService) UpdateReview(ctx context.Context, id uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	if req.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	previousRating := review.Rating

	if req.Name != nil {
		review.Name = strings.TrimSpace(*req.Name)
	}
	if req.Country != nil {
		review.Country = strings.TrimSpace(*req.Country)
	}
	if req.Content != nil {
		review.Content = strings.TrimSpace(*req.Content)
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.publish(ctx, events.ReviewEvent{
		EventType:      events.ReviewUpdated,
		ReviewID:       review.ID.String(),
		Country:        review.Country,
		Rating:         review.Rating,
		PreviousRating: previousRating,
		Timestamp:      s.now().UTC(),
	})

	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, id uuid.UUID) error {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	metrics.ReviewsDeleted.Inc()

	s.publish(ctx, events.ReviewEvent{
		EventType: events.ReviewDeleted,
		ReviewID:  review.ID.String(),
		Country:   review.Country,
		Rating:    review.Rating,
		Timestamp: s.now().UTC(),
	})

	return nil
}

// RatingDistribution читает снапшот из Redis; при промахе считает по БД и кладет в Redis
func (s *ReviewService) RatingDistribution(ctx context.Context) (*entity.RatingDistribution, error) {
	cached, err := s.stats.Get(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to read rating snapshot, falling back to database")
	}
	if cached != nil {
		return cached, nil
	}

	// отметка до запроса: события, опубликованные раньше нее, worker не применит повторно
	asOf := s.now().UTC()
	counts, err := s.reviewRepo.RatingCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}

	if err := s.stats.Set(ctx, counts, asOf); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to store rating snapshot")
	}

	dist := ratingstats.NewDistribution(counts)
	return &dist, nil
}

// publish отправляет событие в Kafka. Ошибка не прерывает запрос: отзыв уже сохранен.
// Если событие потеряно, снапшот сбрасывается, чтобы его пересчитали по БД.
func (s *ReviewService) publish(ctx context.Context, event events.ReviewEvent) {
	err := s.sendEvent(ctx, event)
	if err == nil {
		return
	}

	logger.Ctx(ctx).Error().
		Err(err).
		Str("event_type", string(event.EventType)).
		Str("review_id", event.ReviewID).
		Msg("Failed to publish review event")

	// снапшот сбрасываем, даже если клиент уже отключился
	invalidateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()
	if err := s.stats.Invalidate(invalidateCtx); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate rating snapshot")
	}
}

func (s *ReviewService) sendEvent(ctx context.Context, event events.ReviewEvent) error {
	data, err := event.Marshal()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	// ключ = ID отзыва, события одного отзыва идут по порядку в одной партиции
	if err := s.publisher.PublishMessage(ctx, event.ReviewID, data); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}
	return nil
}

func clampPageSize(size int) int {
	switch {
	case size <= 0:
		return entity.DefaultPerPage
	case size > entity.MaxPerPage:
		return entity.MaxPerPage
	default:
		return size
	}
}
