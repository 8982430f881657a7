// Package retry повторяет подключение к зависимостям, которые поднимаются дольше сервиса.
package retry

import (
	"context"
	"fmt"
	"time"
)

type Policy struct {
	Attempts int
	Wait     time.Duration
	OnRetry  func(attempt int, err error)
}

// Startup - 10 попыток раз в 3 секунды
func Startup(onRetry func(attempt int, err error)) Policy {
	return Policy{Attempts: 10, Wait: 3 * time.Second, OnRetry: onRetry}
}

// Do вызывает fn, пока она не вернет nil, не кончатся попытки или не отменится ctx
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := max(p.Attempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			return fmt.Errorf("after %d attempts: %w", attempts, err)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		timer := time.NewTimer(p.Wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
