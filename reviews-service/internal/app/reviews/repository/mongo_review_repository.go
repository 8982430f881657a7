package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"opaque/pkg/metrics"
	"opaque/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// reviewDocument - представление отзыва в MongoDB, _id хранит UUID строкой
type reviewDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Country   string    `bson:"country"`
	Content   string    `bson:"content"`
	Rating    int       `bson:"rating"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDocument(r *entity.Review) reviewDocument {
	return reviewDocument{
		ID:        r.ID.String(),
		Name:      r.Name,
		Country:   r.Country,
		Content:   r.Content,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
}

func (d reviewDocument) toEntity() (entity.Review, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return entity.Review{}, fmt.Errorf("invalid review id %q: %w", d.ID, err)
	}
	return entity.Review{
		ID:        id,
		Name:      d.Name,
		Country:   d.Country,
		Content:   d.Content,
		Rating:    d.Rating,
		CreatedAt: d.CreatedAt,
	}, nil
}

type mongoReviewRepository struct {
	collection *mongo.Collection
}

// NewMongoReviewRepository создает репозиторий отзывов поверх MongoDB
// Индексы создаются отдельно через EnsureMongoIndexes
func NewMongoReviewRepository(db *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{
		collection: db.Collection(reviewsTable),
	}
}

// EnsureMongoIndexes создает индексы по created_at (сортировка, фильтр по дате) и rating
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(reviewsTable).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "rating", Value: 1}},
			Options: options.Index().SetName("rating_idx"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}
	return nil
}

// Create создает новый отзыв в MongoDB
func (r *mongoReviewRepository) Create(ctx context.Context, review *entity.Review) (err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBInsert, reviewsTable)
	defer func() { observe(err) }()

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	// MongoDB хранит время с точностью до миллисекунд
	review.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, toDocument(review)); err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetByID получает отзыв по ID
func (r *mongoReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)

	var doc reviewDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			observe(nil)
			return nil, ErrReviewNotFound
		}
		observe(err)
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	observe(nil)

	review, err := doc.toEntity()
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Update обновляет редактируемые поля, created_at не меняется
func (r *mongoReviewRepository) Update(ctx context.Context, review *entity.Review) (err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBUpdate, reviewsTable)
	defer func() { observe(err) }()

	update := bson.M{
		"$set": bson.M{
			"name":    review.Name,
			"country": review.Country,
			"content": review.Content,
			"rating":  review.Rating,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": review.ID.String()}, update)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// Delete удаляет отзыв из MongoDB
func (r *mongoReviewRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBDelete, reviewsTable)
	defer func() { observe(err) }()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// List возвращает страницу отзывов по фильтру и общее количество совпадений
func (r *mongoReviewRepository) List(ctx context.Context, filter entity.ReviewFilter) (_ []entity.Review, _ int64, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() { observe(err) }()

	if !validOrdering(filter.Ordering) {
		return nil, 0, ErrInvalidOrdering
	}

	query := buildMongoFilter(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	reviews := make([]entity.Review, 0)
	if total == 0 {
		return reviews, 0, nil
	}

	ordering := filter.Ordering
	if ordering.Field == "" {
		ordering = entity.DefaultOrdering
	}
	dir := 1
	if ordering.Desc {
		dir = -1
	}

	opts := options.Find().SetSort(bson.D{
		{Key: ordering.Field, Value: dir},
		{Key: "_id", Value: dir},
	})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reviews: %w", err)
	}

	for _, doc := range docs {
		review, err := doc.toEntity()
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}

	return reviews, total, nil
}

// RatingCounts считает количество отзывов по каждой оценке через $group
func (r *mongoReviewRepository) RatingCounts(ctx context.Context) (_ map[int]int64, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() { observe(err) }()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$rating"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Rating int   `bson:"_id"`
		Count  int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rating counts: %w", err)
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	return counts, nil
}

// DistinctRatings - встречающиеся оценки по возрастанию
func (r *mongoReviewRepository) DistinctRatings(ctx context.Context) (_ []int, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() { observe(err) }()

	values, err := r.collection.Distinct(ctx, "rating", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to get distinct ratings: %w", err)
	}

	ratings := make([]int, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int32:
			ratings = append(ratings, int(n))
		case int64:
			ratings = append(ratings, int(n))
		case float64:
			ratings = append(ratings, int(n))
		}
	}
	sort.Ints(ratings)

	return ratings, nil
}

// buildMongoFilter повторяет семантику SQL фильтра:
// каждое слово ищется без учета регистра хотя бы в одном поле
func buildMongoFilter(filter entity.ReviewFilter) bson.M {
	query := bson.M{}

	if len(filter.Terms) > 0 {
		and := make(bson.A, 0, len(filter.Terms))
		for _, term := range filter.Terms {
			regex := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
			or := make(bson.A, 0, len(searchColumns))
			for _, col := range searchColumns {
				or = append(or, bson.M{col: regex})
			}
			and = append(and, bson.M{"$or": or})
		}
		query["$and"] = and
	}

	if filter.Rating != nil {
		query["rating"] = *filter.Rating
	}

	created := bson.M{}
	if filter.Since != nil {
		created["$gte"] = *filter.Since
	}
	if filter.Until != nil {
		created["$lt"] = *filter.Until
	}
	if len(created) > 0 {
		query["created_at"] = created
	}

	return query
}
