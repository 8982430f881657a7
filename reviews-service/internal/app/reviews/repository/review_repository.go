package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"opaque/pkg/metrics"
	"opaque/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const reviewsTable = "reviews"

// колонки, по которым идет поиск (name, country, content)
var searchColumns = []string{"name", "country", "content"}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type reviewRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewReviewRepository создает репозиторий отзывов поверх PostgreSQL
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create сохраняет отзыв; ID генерируется здесь, created_at проставляет GORM
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) (err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBInsert, reviewsTable)
	defer func() { observe(err) }()

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	// timestamptz хранит микросекунды: возвращаем клиенту то же время, что потом прочитаем из БД
	review.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (_ *entity.Review, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() {
		if errors.Is(err, ErrReviewNotFound) {
			observe(nil)
			return
		}
		observe(err)
	}()

	var review entity.Review
	result := r.db.WithContext(ctx).First(&review, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", result.Error)
	}

	return &review, nil
}

// Update обновляет редактируемые поля; created_at не трогаем
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) (err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBUpdate, reviewsTable)
	defer func() { observe(err) }()

	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]interface{}{
			"name":    review.Name,
			"country": review.Country,
			"content": review.Content,
			"rating":  review.Rating,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Delete удаляет отзыв
func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBDelete, reviewsTable)
	defer func() { observe(err) }()

	result := r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// List возвращает страницу отзывов по фильтру и общее количество совпадений
func (r *reviewRepository) List(ctx context.Context, filter entity.ReviewFilter) (_ []entity.Review, _ int64, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() { observe(err) }()

	if !validOrdering(filter.Ordering) {
		return nil, 0, ErrInvalidOrdering
	}

	scoped := func() *gorm.DB {
		return applyFilter(r.db.WithContext(ctx).Model(&entity.Review{}), filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	reviews := make([]entity.Review, 0)
	if total == 0 {
		return reviews, 0, nil
	}

	query := scoped().Order(orderClause(filter.Ordering))
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, total, nil
}

// RatingCounts считает количество отзывов по каждой оценке
func (r *reviewRepository) RatingCounts(ctx context.Context) (_ map[int]int64, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() { observe(err) }()

	var rows []struct {
		Rating int
		Count  int64
	}
	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to count ratings: %w", result.Error)
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}

// DistinctRatings - встречающиеся оценки по возрастанию (варианты фильтра)
func (r *reviewRepository) DistinctRatings(ctx context.Context) (_ []int, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() { observe(err) }()

	ratings := make([]int, 0)
	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Distinct("rating").
		Order("rating").
		Pluck("rating", &ratings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get distinct ratings: %w", result.Error)
	}

	return ratings, nil
}

// applyFilter добавляет условия поиска и фильтров.
// Каждое слово поиска - OR по колонкам, слова между собой - AND.
func applyFilter(db *gorm.DB, filter entity.ReviewFilter) *gorm.DB {
	for _, term := range filter.Terms {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		conds := make([]string, len(searchColumns))
		args := make([]interface{}, len(searchColumns))
		for i, col := range searchColumns {
			conds[i] = col + " ILIKE ?"
			args[i] = pattern
		}
		// GORM сам заключает OR-условие в скобки, если условий несколько
		db = db.Where(strings.Join(conds, " OR "), args...)
	}

	if filter.Rating != nil {
		db = db.Where("rating = ?", *filter.Rating)
	}
	if filter.Since != nil {
		db = db.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		db = db.Where("created_at < ?", *filter.Until)
	}

	return db
}

// validOrdering: пустая сортировка означает сортировку по умолчанию
func validOrdering(o entity.Ordering) bool {
	return o.Field == "" || entity.OrderableFields[o.Field]
}

// orderClause строит ORDER BY; поле уже проверено validOrdering.
// id добавляется для стабильной пагинации при равных значениях.
func orderClause(o entity.Ordering) string {
	if o.Field == "" {
		o = entity.DefaultOrdering
	}

	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", o.Field, dir, dir)
}
