// Package config provides unified configuration loading for the matching engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the matching engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Cache         CacheConfig         `yaml:"cache"`
	Extractor     ExtractorConfig     `yaml:"extractor"`
	Matching      MatchingConfig      `yaml:"matching"`
	Autocomplete  AutocompleteConfig  `yaml:"autocomplete"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Detection     DetectionConfig     `yaml:"detection"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// CatalogConfig holds catalog database settings. The catalog is a read-only
// collaborator; the engine never writes to it.
type CatalogConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	PageSize int            `yaml:"page_size"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds cache settings for the search response cache.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ExtractorConfig holds feature-extraction service settings.
type ExtractorConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// MatchingConfig holds scoring thresholds and budgets. The variance
// threshold and per-field caps are tuning carried over from observed
// behavior, not guaranteed-optimal values.
type MatchingConfig struct {
	VarianceThreshold float64 `yaml:"variance_threshold"`
	TextMinScore      int     `yaml:"text_min_score"`
	ImageMinScore     float64 `yaml:"image_min_score"`
	MaxResults        int     `yaml:"max_results"`
	ScoreWorkers      int     `yaml:"score_workers"`
	CacheResults      bool    `yaml:"cache_results"`
}

// AutocompleteConfig holds vocabulary cache settings.
type AutocompleteConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	SampleSize      int           `yaml:"sample_size"`
	MaxSuggestions  int           `yaml:"max_suggestions"`
}

// RateLimitConfig holds the per-caller search rate limit.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
}

// DetectionConfig holds detection post-processing settings.
type DetectionConfig struct {
	IOUThreshold      float64       `yaml:"iou_threshold"`
	TrackTimeout      time.Duration `yaml:"track_timeout"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`
	HistoryLength     int           `yaml:"history_length"`
	SpeedThreshold    float64       `yaml:"speed_threshold"`
	VelocitySmoothing float64       `yaml:"velocity_smoothing"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8082,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "/tmp/matching-engine.db",
				MaxOpenConns: 1,
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
			PageSize: 200,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        2 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Extractor: ExtractorConfig{
			BaseURL:   "http://localhost:8090",
			Dimension: 1024,
			Timeout:   15 * time.Second,
		},
		Matching: MatchingConfig{
			VarianceThreshold: 0.1,
			TextMinScore:      10,
			ImageMinScore:     0.65,
			MaxResults:        20,
			ScoreWorkers:      4,
			CacheResults:      true,
		},
		Autocomplete: AutocompleteConfig{
			RefreshInterval: 5 * time.Minute,
			SampleSize:      200,
			MaxSuggestions:  20,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   20,
			Window:  time.Minute,
		},
		Detection: DetectionConfig{
			IOUThreshold:      0.5,
			TrackTimeout:      30 * time.Second,
			SweepInterval:     10 * time.Second,
			HistoryLength:     15,
			SpeedThreshold:    2.0,
			VelocitySmoothing: 0.7,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "debug",
			LogFormat:   "json",
			ServiceName: "matching-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Catalog.Driver != "sqlite" && c.Catalog.Driver != "postgres" {
		return fmt.Errorf("invalid catalog driver: %s", c.Catalog.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Extractor.Dimension < 1 {
		return fmt.Errorf("extractor dimension must be positive")
	}

	if c.Matching.ImageMinScore < 0 || c.Matching.ImageMinScore > 1 {
		return fmt.Errorf("image_min_score must be between 0 and 1")
	}

	if c.RateLimit.Limit < 1 {
		return fmt.Errorf("rate limit must be at least 1")
	}

	if c.Detection.IOUThreshold <= 0 || c.Detection.IOUThreshold > 1 {
		return fmt.Errorf("iou_threshold must be in (0, 1]")
	}

	return nil
}

// CatalogDSN returns the appropriate catalog connection string.
func (c *Config) CatalogDSN() string {
	if c.Catalog.Driver == "sqlite" {
		return c.Catalog.SQLite.Path
	}
	return c.Catalog.Postgres.DSN
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("CATALOG_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Catalog.Driver = "sqlite"
			cfg.Catalog.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Catalog.Driver = "postgres"
			cfg.Catalog.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("EXTRACTOR_URL"); v != "" {
		cfg.Extractor.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("RATE_LIMIT_DISABLED"); v == "true" {
		cfg.RateLimit.Enabled = false
	}
}
