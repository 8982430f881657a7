package ratingstats

import (
	"context"
	"testing"
	"time"

	"opaque/pkg/retry"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Dial(context.Background(), DialConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestDial_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	var retries int
	_, err := Dial(context.Background(), DialConfig{
		Addr: addr,
		Retry: retry.Policy{
			Attempts: 2,
			Wait:     time.Millisecond,
			OnRetry:  func(int, error) { retries++ },
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis "+addr)
	assert.Equal(t, 1, retries)
}
