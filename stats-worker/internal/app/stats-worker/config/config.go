package config

import (
	"opaque/pkg/envcfg"
)

// Storage драйверы, из которых пересчитывается снапшот
const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// Config - конфигурация stats-worker.
// Снапшот распределения оценок живет в том же Redis, что читает reviews-service.
type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Database     envcfg.Postgres
	MongoDB      envcfg.Mongo
	Redis        envcfg.Redis
	Kafka        KafkaConfig
	CronSchedule CronScheduleConfig
}

// ServerConfig - HTTP сервер только для /health и /metrics
type ServerConfig struct {
	Port string
}

func (c ServerConfig) Address() string {
	return ":" + c.Port
}

type StorageConfig struct {
	Driver string
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

type CronScheduleConfig struct {
	RebuildSnapshot string // "@every 10m" или выражение из 5 полей
}

func Load() (*Config, error) {
	return load(envcfg.New())
}

func load(env *envcfg.Reader) (*Config, error) {
	cfg := &Config{
		Server:   ServerConfig{Port: env.String("SERVER_PORT", "8080")},
		Storage:  StorageConfig{Driver: env.OneOf("STORAGE_DRIVER", StoragePostgres, StoragePostgres, StorageMongo)},
		Database: env.Postgres(),
		MongoDB:  env.Mongo(),
		Redis:    env.Redis(),
		Kafka: KafkaConfig{
			Brokers:  env.List("KAFKA_BROKERS", "localhost:9092"),
			Topic:    env.String("KAFKA_TOPIC", "review_events"),
			GroupID:  env.String("KAFKA_GROUP_ID", "stats-worker"),
			MinBytes: env.Int("KAFKA_MIN_BYTES", 1),
			MaxBytes: env.Int("KAFKA_MAX_BYTES", 10e6),
		},
		CronSchedule: CronScheduleConfig{
			RebuildSnapshot: env.String("CRON_REBUILD_SNAPSHOT", "@every 10m"),
		},
	}

	if len(cfg.Kafka.Brokers) == 0 {
		env.Failf("KAFKA_BROKERS must not be empty")
	}
	if cfg.Kafka.MinBytes > cfg.Kafka.MaxBytes {
		env.Failf("KAFKA_MIN_BYTES (%d) exceeds KAFKA_MAX_BYTES (%d)", cfg.Kafka.MinBytes, cfg.Kafka.MaxBytes)
	}

	if err := env.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
