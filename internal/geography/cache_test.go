package geography

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rep-ingest/internal/model"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close() //nolint:errcheck
		mr.Close()
	})
	return client, mr
}

func TestCachedResolver_ReadThrough(t *testing.T) {
	client, mr := setupTestRedis(t)
	inner := &stubResolver{geo: &model.Geography{ZipCode: "11354", City: "Flushing", State: "NY"}}
	c := NewCachedResolver(inner, client, time.Hour)
	ctx := context.Background()

	geo, err := c.Resolve(ctx, "11354")
	require.NoError(t, err)
	assert.Equal(t, "Flushing", geo.City)

	geo, err = c.Resolve(ctx, "11354")
	require.NoError(t, err)
	assert.Equal(t, "Flushing", geo.City)
	assert.Equal(t, 1, inner.calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	assert.True(t, mr.Exists(cacheKeyPrefix+"11354"))
	assert.Equal(t, time.Hour, mr.TTL(cacheKeyPrefix+"11354"))
}

func TestCachedResolver_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	inner := &stubResolver{geo: &model.Geography{ZipCode: "11354"}}
	c := NewCachedResolver(inner, client, time.Minute)
	ctx := context.Background()

	_, err := c.Resolve(ctx, "11354")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.Resolve(ctx, "11354")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedResolver_NotFoundNotCached(t *testing.T) {
	client, mr := setupTestRedis(t)
	inner := &stubResolver{err: ErrNotFound}
	c := NewCachedResolver(inner, client, time.Hour)

	_, err := c.Resolve(context.Background(), "00000")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, mr.Exists(cacheKeyPrefix+"00000"))
}

func TestCachedResolver_CorruptEntryFallsThrough(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKeyPrefix+"11354", "not json"))
	inner := &stubResolver{geo: &model.Geography{ZipCode: "11354", State: "NY"}}
	c := NewCachedResolver(inner, client, time.Hour)

	geo, err := c.Resolve(context.Background(), "11354")
	require.NoError(t, err)
	assert.Equal(t, "NY", geo.State)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedResolver_RedisDownFallsThrough(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() }) //nolint:errcheck
	inner := &stubResolver{geo: &model.Geography{ZipCode: "11354", State: "NY"}}
	c := NewCachedResolver(inner, client, time.Hour)

	geo, err := c.Resolve(context.Background(), "11354")
	require.NoError(t, err)
	assert.Equal(t, "NY", geo.State)
}
