package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rep-ingest/internal/config"
	"github.com/sells-group/rep-ingest/internal/fetcher"
	"github.com/sells-group/rep-ingest/internal/fixture"
	"github.com/sells-group/rep-ingest/internal/geography"
	"github.com/sells-group/rep-ingest/internal/pipeline"
	"github.com/sells-group/rep-ingest/internal/resilience"
	"github.com/sells-group/rep-ingest/internal/source"
	"github.com/sells-group/rep-ingest/internal/store"
)

// appEnv holds the store, the orchestrator and everything they depend on.
// Callers must defer Close on every path.
type appEnv struct {
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
	Fixtures     *fixture.Set
	Metrics      *pipeline.Metrics
	Registry     *prometheus.Registry

	redis *redis.Client
	cache *geography.CachedResolver
}

// Close releases the store and the cache connection.
func (e *appEnv) Close() {
	if e.cache != nil {
		hits, misses := e.cache.Stats()
		zap.L().Info("geography cache stats", zap.Int64("hits", hits), zap.Int64("misses", misses))
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initEnv validates config for mode, opens and optionally migrates the
// store, and wires resolver, adapters and orchestrator.
func initEnv(ctx context.Context, c *config.Config, mode string, migrate bool) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	set, err := fixture.Load(c.Fixtures.Path)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st, Fixtures: set}

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			env.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	if c.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(c.Cache.RedisURL)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "parse cache.redis_url")
		}
		env.redis = redis.NewClient(opts)
	}

	adapters, err := buildAdapters(c, set)
	if err != nil {
		env.Close()
		return nil, err
	}

	env.Registry = prometheus.NewRegistry()
	env.Metrics = pipeline.NewMetrics(env.Registry)
	resolver := buildResolver(c, set, env.redis)
	env.cache, _ = resolver.(*geography.CachedResolver)
	env.Orchestrator = pipeline.New(
		resolver,
		adapters,
		st,
		pipeline.WithMetrics(env.Metrics),
	)
	return env, nil
}

func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite":
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = "rep-ingest.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}

// buildResolver layers the geography backends: fixtures first, Zippopotam
// when live lookups are enabled, all behind the Redis cache when configured.
func buildResolver(c *config.Config, set *fixture.Set, rdb *redis.Client) geography.Resolver {
	var r geography.Resolver = geography.NewFixtureResolver(set)
	if c.Geography.Live {
		live := geography.NewZippopotamResolver(
			geography.WithBaseURL(c.Geography.ZippopotamURL),
			geography.WithRateLimit(c.Geography.RateLimitRPS),
			geography.WithRetry(resilience.FromMillis(c.Scraper.MaxAttempts, c.Scraper.RetryWaitMs)),
		)
		r = geography.NewChainResolver(r, live)
	}
	if rdb != nil {
		r = geography.NewCachedResolver(r, rdb, c.Cache.TTL())
	}
	return r
}

// buildAdapters registers every known adapter and returns the enabled ones
// in configured order.
func buildAdapters(c *config.Config, set *fixture.Set) ([]source.Adapter, error) {
	reg := source.NewRegistry()

	var f fetcher.Fetcher
	if c.Sources.House.Live {
		f = newRequester(c, source.HouseName)
	}
	reg.Register(source.NewHouseAdapter(source.HouseConfig{
		LookupURL:   c.Sources.House.LookupURL,
		SenatorsURL: c.Sources.House.SenatorsURL,
		Live:        c.Sources.House.Live,
	}, f, set))
	reg.Register(source.NewFixtureAdapter(set))
	reg.Register(source.NewGovernorAdapter(set))

	adapters, err := reg.Select(c.Sources.Enabled)
	if err != nil {
		return nil, eris.Wrap(err, "select sources")
	}
	return adapters, nil
}

func newRequester(c *config.Config, name string) *fetcher.Requester {
	return fetcher.NewRequester(fetcher.Options{
		Source:       name,
		Timeout:      c.Scraper.Timeout(),
		Delay:        c.Scraper.Delay(),
		Retry:        resilience.FromMillis(c.Scraper.MaxAttempts, c.Scraper.RetryWaitMs),
		HostLimiters: fetcher.DefaultHostLimiters(),
	})
}
