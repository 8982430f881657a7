package repository

import (
	"context"
	"fmt"

	"opaque/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoStatsRepository struct {
	collection *mongo.Collection
}

func NewMongoStatsRepository(db *mongo.Database) StatsRepository {
	return &mongoStatsRepository{collection: db.Collection(reviewsTable)}
}

func (r *mongoStatsRepository) RatingCounts(ctx context.Context) (_ map[int]int64, err error) {
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
