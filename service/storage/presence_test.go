package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *PresenceStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewPresenceStore(rdb)
}

func TestPresenceHeartbeatAndLookup(t *testing.T) {
	_, ps := newTestStore(t)
	ctx := context.Background()

	online, err := ps.IsOnline(ctx, "user1")
	require.NoError(t, err)
	require.False(t, online)

	require.NoError(t, ps.Heartbeat(ctx, "user1", "gw-03", time.Minute))

	gw, online, err := ps.Lookup(ctx, "user1")
	require.NoError(t, err)
	require.True(t, online)
	require.Equal(t, "gw-03", gw)
}

func TestPresenceOffline(t *testing.T) {
	_, ps := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ps.Heartbeat(ctx, "user1", "gw-01", time.Minute))
	require.NoError(t, ps.Offline(ctx, "user1"))

	online, err := ps.IsOnline(ctx, "user1")
	require.NoError(t, err)
	require.False(t, online)
}

func TestPresenceExpiresWithTTL(t *testing.T) {
	mr, ps := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ps.Heartbeat(ctx, "user1", "gw-01", 30*time.Second))
	mr.FastForward(31 * time.Second)

	online, err := ps.IsOnline(ctx, "user1")
	require.NoError(t, err)
	require.False(t, online, "a stale heartbeat counts as offline")
}
