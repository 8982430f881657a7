package ratingstats

import (
	"context"
	"fmt"
	"time"

	"opaque/pkg/retry"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// DialConfig описывает подключение к Redis, где лежит снапшот оценок
type DialConfig struct {
	Addr     string
	Password string
	DB       int
	Retry    retry.Policy
}

// Dial возвращает клиента только после успешного PING
func Dial(ctx context.Context, cfg DialConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := cfg.Retry.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}
