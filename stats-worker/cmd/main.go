package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"opaque/pkg/logger"
	"opaque/pkg/ratingstats"
	"opaque/pkg/retry"
	"opaque/stats-worker/internal/app/stats-worker/config"
	"opaque/stats-worker/internal/app/stats-worker/handler"
	"opaque/stats-worker/internal/app/stats-worker/processor"
	"opaque/stats-worker/internal/app/stats-worker/repository"
	"opaque/stats-worker/internal/app/stats-worker/service"
)

const serviceName = "stats-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Setup(logger.Options{
		Service:      serviceName,
		Level:        os.Getenv("LOG_LEVEL"),
		LogstashAddr: os.Getenv("LOGSTASH_ADDR"),
	}); err != nil {
		logger.Warn().Err(err).Msg("Logstash unavailable, logging to stdout only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]handler.Checker)

	var statsRepo repository.StatsRepository
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		mongoClient, err := connectMongoDB(ctx, cfg.MongoDB.URI)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(ctx); err != nil {
				logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
			}
		}()

		statsRepo = repository.NewMongoStatsRepository(mongoClient.Database(cfg.MongoDB.Database))
		checks["database"] = func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}
		logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")
	default:
		db, err := connectPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to get sql.DB")
		}
		defer sqlDB.Close()
		sqlDB.SetMaxOpenConns(5)
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)

		statsRepo = repository.NewStatsRepository(db)
		checks["database"] = sqlDB.PingContext
		logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")
	}

	redisClient, err := ratingstats.Dial(ctx, ratingstats.DialConfig{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Retry:    startupRetry("Redis"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	statsStore := ratingstats.NewStore(redisClient, cfg.Redis.StatsTTL, serviceName)
	defer statsStore.Close()
	checks["redis"] = statsStore.Ping
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	statsSvc := service.NewStatsService(statsRepo, statsStore)

	consumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.Topic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		statsSvc,
	)
	defer consumer.Close()

	scheduler := processor.NewCronScheduler(statsSvc)
	if err := scheduler.Start(ctx, cfg.CronSchedule.RebuildSnapshot); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.CronSchedule.RebuildSnapshot).Msg("Failed to start cron scheduler")
	}
	defer scheduler.Stop()

	mux := http.NewServeMux()
	handler.NewHealthCheckHandler(checks).RegisterRoutes(mux)
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.Run(gctx)
	})

	g.Go(func() error {
		logger.Info().Str("address", server.Addr).Msg("Starting health and metrics server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info().
		Str("topic", cfg.Kafka.Topic).
		Str("group", cfg.Kafka.GroupID).
		Str("storage", cfg.Storage.Driver).
		Msg("Stats Worker is running")

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Stats Worker stopped with error")
		return
	}
	logger.Info().Msg("Stats Worker stopped gracefully")
}

func startupRetry(dependency string) retry.Policy {
	return retry.Startup(func(attempt int, err error) {
		logger.Warn().
			Int("attempt", attempt).
			Err(err).
			Msgf("%s is not ready, retrying", dependency)
	})
}

func connectPostgres(ctx context.Context, dsn string) (*gorm.DB, error) {
	var db *gorm.DB
	err := startupRetry("PostgreSQL").Do(ctx, func(context.Context) error {
		var err error
		db, err = repository.OpenPostgres(dsn)
		return err
	})
	return db, err
}

func connectMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	var client *mongo.Client
	err := startupRetry("MongoDB").Do(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(attemptCtx, options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		if err := c.Ping(attemptCtx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	})
	return client, err
}
