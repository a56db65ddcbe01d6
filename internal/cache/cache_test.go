package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIncrementWindow(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		count, ttl, err := store.IncrementWithTTL(ctx, "rl:login:1.2.3.4", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, count)
		require.Equal(t, time.Minute, ttl)
	}

	now = now.Add(30 * time.Second)
	count, ttl, err := store.IncrementWithTTL(ctx, "rl:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 4, count)
	require.Equal(t, 30*time.Second, ttl)

	now = now.Add(31 * time.Second)
	count, _, err = store.IncrementWithTTL(ctx, "rl:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestMemoryStoreSetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))

	value, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), value)

	now = now.Add(2 * time.Second)
	_, ok, err = store.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "c", []byte("3"), time.Second))
	now = now.Add(2 * time.Second)
	require.Equal(t, 1, store.Purge())

	require.NoError(t, store.Delete(ctx, "b"))
	_, ok, err = store.Get(ctx, "b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPrefixedKeys(t *testing.T) {
	require.Equal(t, "track:rl:login", prefixed("rl::login"))
	require.Equal(t, "track:rl", prefixed("track:rl"))
	require.Equal(t, "track:x", prefixed(":x"))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("TRACK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TRACK_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{Address: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	count, _, err := store.IncrementWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.NoError(t, store.Delete(ctx, key))
}
