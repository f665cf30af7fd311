package geography

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sells-group/rep-ingest/internal/model"
)

const cacheKeyPrefix = "rep-ingest:geography:"

// CachedResolver decorates a Resolver with a Redis read-through cache.
// Cache failures are logged and fall through to the wrapped resolver.
// Not-found outcomes are never cached.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedResolver wraps next with a cache backed by client.
func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, client: client, ttl: ttl}
}

// Resolve implements Resolver.
func (c *CachedResolver) Resolve(ctx context.Context, zip string) (*model.Geography, error) {
	if err := ValidateZIP(zip); err != nil {
		return nil, err
	}

	key := cacheKeyPrefix + zip
	if geo, ok := c.get(ctx, key); ok {
		return geo, nil
	}

	geo, err := c.next.Resolve(ctx, zip)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, geo)
	return geo, nil
}

// Stats returns cache hit and miss counts.
func (c *CachedResolver) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedResolver) get(ctx context.Context, key string) (*model.Geography, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("geography cache get failed", zap.String("key", key), zap.Error(err))
		}
		c.misses.Add(1)
		return nil, false
	}

	var geo model.Geography
	if err := json.Unmarshal(data, &geo); err != nil {
		zap.L().Warn("geography cache unmarshal failed", zap.String("key", key), zap.Error(err))
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	zap.L().Debug("geography cache hit", zap.String("key", key))
	return &geo, true
}

func (c *CachedResolver) set(ctx context.Context, key string, geo *model.Geography) {
	data, err := json.Marshal(geo)
	if err != nil {
		zap.L().Warn("geography cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		zap.L().Warn("geography cache set failed", zap.String("key", key), zap.Error(err))
	}
}
