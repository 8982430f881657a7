package config

import (
	"net"
	"time"

	"opaque/pkg/envcfg"
)

// Storage драйверы хранилища отзывов
const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// placeholderJWTSecret - значение из старых примеров .env, с ним сервис не стартует
const placeholderJWTSecret = "your-secret-key-change-this-in-production"

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	// в PostgreSQL всегда хранятся администраторы, при STORAGE_DRIVER=postgres и отзывы
	Database  envcfg.Postgres
	MongoDB   envcfg.Mongo
	Redis     envcfg.Redis
	Kafka     KafkaConfig
	JWT       JWTConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	TimeZone  string // часовой пояс для фильтров "today", "this_month"

	location *time.Location
}

type ServerConfig struct {
	Host string
	Port string
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type StorageConfig struct {
	Driver string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

// AdminConfig - администратор, создаваемый при старте, если его нет
type AdminConfig struct {
	Username string
	Password string
}

// RateLimitConfig - лимит на создание отзывов и вход в админку с одного IP
type RateLimitConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

type CORSConfig struct {
	AllowOrigins []string
}

func Load() (*Config, error) {
	return load(envcfg.New())
}

func load(env *envcfg.Reader) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: env.String("SERVER_HOST", "0.0.0.0"),
			Port: env.String("SERVER_PORT", "8000"),
		},
		Storage:  StorageConfig{Driver: env.OneOf("STORAGE_DRIVER", StoragePostgres, StoragePostgres, StorageMongo)},
		Database: env.Postgres(),
		MongoDB:  env.Mongo(),
		Redis:    env.Redis(),
		Kafka: KafkaConfig{
			Brokers: env.List("KAFKA_BROKERS", "localhost:9092"),
			Topic:   env.String("KAFKA_TOPIC", "review_events"),
		},
		JWT: JWTConfig{
			Secret:    env.String("JWT_SECRET", ""),
			AccessTTL: env.Duration("JWT_ACCESS_TTL", 12*time.Hour),
		},
		Admin: AdminConfig{
			Username: env.String("ADMIN_USERNAME", "admin"),
			Password: env.String("ADMIN_PASSWORD", ""),
		},
		RateLimit: RateLimitConfig{
			RPS:     env.Float("RATE_LIMIT_RPS", 1),
			Burst:   env.Int("RATE_LIMIT_BURST", 5),
			IdleTTL: env.Duration("RATE_LIMIT_IDLE_TTL", 10*time.Minute),
		},
		CORS:     CORSConfig{AllowOrigins: env.List("CORS_ALLOW_ORIGINS", "http://localhost:3000")},
		TimeZone: env.String("TIME_ZONE", "UTC"),
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		env.Failf("TIME_ZONE: %v", err)
	}
	cfg.location = loc

	if len(cfg.Kafka.Brokers) == 0 {
		env.Failf("KAFKA_BROKERS must not be empty")
	}
	if len(cfg.CORS.AllowOrigins) == 0 {
		env.Failf("CORS_ALLOW_ORIGINS must not be empty")
	}
	switch cfg.JWT.Secret {
	case "":
		env.Failf("JWT_SECRET is required")
	case placeholderJWTSecret:
		env.Failf("JWT_SECRET must be changed from the example value")
	}
	if cfg.JWT.AccessTTL <= 0 {
		env.Failf("JWT_ACCESS_TTL must be positive")
	}

	if err := env.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location - часовой пояс фильтров по дате
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
