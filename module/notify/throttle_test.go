package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestThrottleAllowsUpToMax(t *testing.T) {
	_, rdb := newTestRedis(t)
	th := NewThrottle(rdb)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := th.TryConsume(ctx, "conv1", "user1", 3, 3600)
		require.NoError(t, err)
		require.True(t, allowed, "call %d should be allowed", i+1)
	}

	allowed, err := th.TryConsume(ctx, "conv1", "user1", 3, 3600)
	require.NoError(t, err)
	require.False(t, allowed, "4th call within the window must be denied")
}

func TestThrottleWindowReset(t *testing.T) {
	mr, rdb := newTestRedis(t)
	th := NewThrottle(rdb)
	ctx := context.Background()

	allowed, err := th.TryConsume(ctx, "conv1", "user1", 1, 60)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = th.TryConsume(ctx, "conv1", "user1", 1, 60)
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(61 * time.Second)

	allowed, err = th.TryConsume(ctx, "conv1", "user1", 1, 60)
	require.NoError(t, err)
	require.True(t, allowed, "a fresh window starts after the TTL lapses")
}

func TestThrottleCountsDeniedAttempts(t *testing.T) {
	// The counter keeps filling even on over-limit calls, so denied
	// attempts do not shorten the effective window.
	_, rdb := newTestRedis(t)
	th := NewThrottle(rdb)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := th.TryConsume(ctx, "conv1", "user1", 2, 3600)
		require.NoError(t, err)
	}

	n, err := rdb.Get(ctx, throttleKey("conv1", "user1")).Int64()
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
}

func TestThrottleKeysAreIndependent(t *testing.T) {
	_, rdb := newTestRedis(t)
	th := NewThrottle(rdb)
	ctx := context.Background()

	allowed, err := th.TryConsume(ctx, "conv1", "user1", 1, 3600)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = th.TryConsume(ctx, "conv1", "user2", 1, 3600)
	require.NoError(t, err)
	require.True(t, allowed, "another recipient has its own window")

	allowed, err = th.TryConsume(ctx, "conv2", "user1", 1, 3600)
	require.NoError(t, err)
	require.True(t, allowed, "another conversation has its own window")
}
