package rate

import (
	"context"
	"os"
	"testing"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.EqualValues(t, 3-i, res.Remaining)
	}
	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Greater(t, res.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, res.RetryAfter, time.Minute)

	// otra key tiene su propia ventana
	res, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiter_WindowExpires(t *testing.T) {
	l := NewMemoryLimiter(1, 30*time.Millisecond)
	ctx := context.Background()

	res, _ := l.Allow(ctx, "k")
	require.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "k")
	require.False(t, res.Allowed)

	time.Sleep(50 * time.Millisecond)
	res, _ = l.Allow(ctx, "k")
	require.True(t, res.Allowed)
}

func TestNewResult(t *testing.T) {
	r := newResult(5, 3, 0, time.Minute)
	require.False(t, r.Allowed)
	require.Zero(t, r.Remaining)
	require.Equal(t, time.Minute, r.RetryAfter)
}

// Requiere un redis real: REDIS_ADDR=localhost:6379 go test ./internal/rate
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := rdb.NewClient(&rdb.Options{Addr: addr})
	defer client.Close()

	l := NewRedisLimiter(client, "rl-test:", 2, time.Minute)
	ctx := context.Background()
	key := "test-" + time.Now().Format(time.RFC3339Nano)

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, key)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Greater(t, res.RetryAfter, time.Duration(0))
}
