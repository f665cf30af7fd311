package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Scraper   ScraperConfig   `yaml:"scraper" mapstructure:"scraper"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Geography GeographyConfig `yaml:"geography" mapstructure:"geography"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Fixtures  FixturesConfig  `yaml:"fixtures" mapstructure:"fixtures"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScraperConfig holds the per-adapter network discipline.
type ScraperConfig struct {
	DelayMs     int `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryWaitMs int `yaml:"retry_wait_ms" mapstructure:"retry_wait_ms"`
}

// Delay returns the pause applied after every network call.
func (s ScraperConfig) Delay() time.Duration {
	return time.Duration(s.DelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// RetryWait returns the fixed wait between attempts.
func (s ScraperConfig) RetryWait() time.Duration {
	return time.Duration(s.RetryWaitMs) * time.Millisecond
}

// BatchConfig configures batch driving.
type BatchConfig struct {
	PauseMs     int `yaml:"pause_ms" mapstructure:"pause_ms"`
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Pause returns the inter-item pause.
func (b BatchConfig) Pause() time.Duration {
	return time.Duration(b.PauseMs) * time.Millisecond
}

// SourcesConfig selects and configures source adapters.
type SourcesConfig struct {
	Enabled []string          `yaml:"enabled" mapstructure:"enabled"`
	House   HouseSourceConfig `yaml:"house" mapstructure:"house"`
}

// HouseSourceConfig configures the House lookup adapter.
type HouseSourceConfig struct {
	LookupURL   string `yaml:"lookup_url" mapstructure:"lookup_url"`
	SenatorsURL string `yaml:"senators_url" mapstructure:"senators_url"`
	Live        bool   `yaml:"live" mapstructure:"live"`
}

// GeographyConfig configures ZIP code resolution.
type GeographyConfig struct {
	Live          bool    `yaml:"live" mapstructure:"live"`
	ZippopotamURL string  `yaml:"zippopotam_url" mapstructure:"zippopotam_url"`
	RateLimitRPS  float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// CacheConfig configures the optional Redis geography cache.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// FixturesConfig points at an alternate fixture file. Empty uses the embedded set.
type FixturesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REPINGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("scraper.delay_ms", 2000)
	v.SetDefault("scraper.timeout_secs", 30)
	v.SetDefault("scraper.max_attempts", 3)
	v.SetDefault("scraper.retry_wait_ms", 2000)
	v.SetDefault("batch.pause_ms", 3000)
	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("sources.enabled", []string{"house"})
	v.SetDefault("sources.house.lookup_url", "https://ziplook.house.gov/htbin/findrep_house")
	v.SetDefault("sources.house.senators_url", "https://www.senate.gov/general/contact_information/senators_cfm.xml")
	v.SetDefault("sources.house.live", true)
	v.SetDefault("geography.live", false)
	v.SetDefault("geography.zippopotam_url", "https://api.zippopotam.us/us")
	v.SetDefault("geography.rate_limit_rps", 5.0)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl_hours", 168)
	v.SetDefault("fixtures.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required by the given command mode.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "ingest", "migrate":
		errs = append(errs, c.validateStore()...)
	case "serve":
		errs = append(errs, c.validateStore()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "ingest" || mode == "serve" {
		if c.Scraper.MaxAttempts < 1 {
			errs = append(errs, "scraper.max_attempts must be >= 1")
		}
		if c.Scraper.DelayMs < 0 || c.Scraper.RetryWaitMs < 0 {
			errs = append(errs, "scraper delays must be >= 0")
		}
		if c.Scraper.TimeoutSecs <= 0 {
			errs = append(errs, "scraper.timeout_secs must be > 0")
		}
		if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 16 {
			errs = append(errs, "batch.concurrency must be between 1 and 16")
		}
		if c.Batch.PauseMs < 0 {
			errs = append(errs, "batch.pause_ms must be >= 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "sqlite":
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}
	return errs
}

// InitLogger initializes the global zap logger. Verbose forces debug level.
func InitLogger(cfg LogConfig, verbose bool) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
