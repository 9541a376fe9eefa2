package matching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/recovr-ai/matching-engine/internal/cache"
	"github.com/recovr-ai/matching-engine/internal/observability"
)

// ResultCache caches ranked search results keyed by a hash of the query.
type ResultCache struct {
	client cache.Client
	logger *observability.Logger
	config ResultCacheConfig
}

// ResultCacheConfig configures the result cache.
type ResultCacheConfig struct {
	// TTL is how long a cached result set stays fresh.
	TTL time.Duration
	// KeyPrefix is the cache key prefix.
	KeyPrefix string
	// Enabled controls whether caching is active.
	Enabled bool
}

// DefaultResultCacheConfig returns default cache configuration.
func DefaultResultCacheConfig() ResultCacheConfig {
	return ResultCacheConfig{
		TTL:       2 * time.Minute,
		KeyPrefix: "search:results:",
		Enabled:   true,
	}
}

// NewResultCache creates a result cache over the given cache client.
func NewResultCache(client cache.Client, logger *observability.Logger, config ResultCacheConfig) *ResultCache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "search:results:"
	}
	if config.TTL == 0 {
		config.TTL = 2 * time.Minute
	}
	return &ResultCache{client: client, logger: logger, config: config}
}

// CachedResults is the cached form of a ranked result set.
type CachedResults struct {
	Results     []Result  `json:"results"`
	Quality     string    `json:"quality"`
	Suggestions []string  `json:"suggestions,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
}

// CacheKey builds a deterministic key from the query fields.
func (c *ResultCache) CacheKey(kind string, parts ...string) string {
	combined := kind + "|" + strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(combined))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:16])
}

// Get retrieves cached results if available.
func (c *ResultCache) Get(ctx context.Context, key string) (*CachedResults, bool) {
	if !c.config.Enabled || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Debug().Err(err).Str("key", key).Msg("Cache get error")
		}
		return nil, false
	}

	var cached CachedResults
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached results")
		return nil, false
	}

	c.logger.Debug().Str("key", key).Msg("Cache hit")
	return &cached, true
}

// Set caches a ranked result set.
func (c *ResultCache) Set(ctx context.Context, key string, cached CachedResults) error {
	if !c.config.Enabled || c.client == nil {
		return nil
	}

	cached.CachedAt = time.Now()
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.config.TTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache results")
		return err
	}
	return nil
}

// Invalidate drops all cached result sets. Called when the catalog changes.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	if !c.config.Enabled || c.client == nil {
		return nil
	}
	return c.client.DeleteByPrefix(ctx, c.config.KeyPrefix)
}
