package repository

import (
	"context"
	"fmt"

	"opaque/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// RatingCounts выполняет GROUP BY rating по всей таблице
func (r *statsRepository) RatingCounts(ctx context.Context) (_ map[int]int64, err error) {
	observe := metrics.ObserveDB(serviceName, metrics.DBSelect, reviewsTable)
	defer func() { observe(err) }()

	var rows []struct {
		Rating int
		Count  int64
	}
	result := r.db.WithContext(ctx).
		Table(reviewsTable).
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

// OpenPostgres открывает пул pgx и оборачивает его в GORM
func OpenPostgres(dsn string) (*gorm.DB, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}

	sqlDB := stdlib.OpenDB(*connConfig)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
