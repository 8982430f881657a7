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

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"opaque/pkg/logger"
	"opaque/pkg/ratingstats"
	"opaque/pkg/retry"
	"opaque/reviews-service/internal/app/reviews/config"
	"opaque/reviews-service/internal/app/reviews/handler"
	"opaque/reviews-service/internal/app/reviews/infrastructure/messaging"
	"opaque/reviews-service/internal/app/reviews/repository"
	"opaque/reviews-service/internal/app/reviews/service"
	"opaque/reviews-service/internal/app/reviews/util"
)

const serviceName = "reviews-service"

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

	db, err := connectPostgres(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get sql.DB")
	}
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	checks := []namedCheck{{"postgres", sqlDB.PingContext}}

	var reviewRepo repository.ReviewRepository
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		mongoClient, err := connectMongoDB(ctx, cfg.MongoDB.URI)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer disconnectMongoDB(mongoClient)

		mongoDB := mongoClient.Database(cfg.MongoDB.Database)
		idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := repository.EnsureMongoIndexes(idxCtx, mongoDB); err != nil {
			logger.Warn().Err(err).Msg("Failed to create MongoDB indexes")
		}
		cancel()

		reviewRepo = repository.NewMongoReviewRepository(mongoDB)
		checks = append(checks, namedCheck{"mongodb", func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}})
		logger.Info().Str("database", cfg.MongoDB.Database).Msg("Reviews are stored in MongoDB")
	default:
		reviewRepo = repository.NewReviewRepository(db)
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
	checks = append(checks, namedCheck{"redis", statsStore.Ping})
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	kafkaProducer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Str("topic", kafkaProducer.Topic()).Msg("Initialized Kafka producer")

	reviewService := service.NewReviewService(reviewRepo, kafkaProducer, statsStore, cfg.Location())
	authService := service.NewAuthService(
		repository.NewAdminUserRepository(db),
		util.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL),
	)

	bootstrapAdmin(ctx, authService, cfg.Admin)

	router := handler.SetupRoutes(handler.Router{
		Reviews:     handler.NewReviewHandler(reviewService),
		Admin:       handler.NewAdminHandler(reviewService),
		Auth:        handler.NewAuthHandler(authService),
		AuthMW:      handler.NewAuthMiddleware(authService),
		RateLimiter: handler.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL),
		CORSOrigins: cfg.CORS.AllowOrigins,
		HealthCheck: func(c *gin.Context) error {
			pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			for _, check := range checks {
				if err := check.ping(pingCtx); err != nil {
					return fmt.Errorf("%s: %w", check.name, err)
				}
			}
			return nil
		},
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("address", server.Addr).
			Str("storage", cfg.Storage.Driver).
			Msg("Starting Reviews Service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down Reviews Service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Reviews Service stopped with error")
		return
	}
	logger.Info().Msg("Reviews Service stopped gracefully")
}

type namedCheck struct {
	name string
	ping func(ctx context.Context) error
}

// bootstrapAdmin создает администратора из ADMIN_USERNAME/ADMIN_PASSWORD, если его еще нет
func bootstrapAdmin(ctx context.Context, auth *service.AuthService, admin config.AdminConfig) {
	if admin.Password == "" {
		logger.Warn().Msg("ADMIN_PASSWORD is empty, admin user bootstrap skipped")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	created, err := auth.EnsureAdmin(ctx, admin.Username, admin.Password)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to bootstrap admin user")
	}
	if created {
		logger.Info().Str("username", admin.Username).Msg("Created admin user")
	}
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
	err := startupRetry("PostgreSQL").Do(ctx, func(ctx context.Context) error {
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

func disconnectMongoDB(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
	}
}
