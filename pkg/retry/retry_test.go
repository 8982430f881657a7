package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Do_SucceedsAfterRetries(t *testing.T) {
	var retried []int
	calls := 0
	p := Policy{Attempts: 5, Wait: time.Millisecond, OnRetry: func(attempt int, _ error) {
		retried = append(retried, attempt)
	}}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not ready")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestPolicy_Do_GivesUp(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0

	err := Policy{Attempts: 3, Wait: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestPolicy_Do_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0

	_ = Policy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("fail")
	})

	assert.Equal(t, 1, calls)
}

func TestPolicy_Do_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 100, Wait: time.Hour, OnRetry: func(int, error) { cancel() }}

	err := p.Do(ctx, func(context.Context) error { return errors.New("down") })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartup(t *testing.T) {
	p := Startup(nil)

	assert.Equal(t, 10, p.Attempts)
	assert.Equal(t, 3*time.Second, p.Wait)
}
