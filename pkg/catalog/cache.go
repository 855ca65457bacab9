package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"moodflix/internal/metrics"
	"moodflix/internal/util"
	"moodflix/pkg/domain"
)

const defaultCachePrefix = "moodflix:catalog"

// RedisCache is a read-through cache for movie details and watch providers.
// Discover results are not cached.
type RedisCache struct {
	next   Catalog
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisCache wraps next. scope separates entries per response language and
// region so a config change does not serve stale translations.
func NewRedisCache(next Catalog, client redis.UniversalClient, ttl time.Duration, scope string) *RedisCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	prefix := defaultCachePrefix
	if scope != "" {
		prefix += ":" + scope
	}
	return &RedisCache{next: next, client: client, ttl: ttl, prefix: prefix}
}

// Discover is passed through.
func (c *RedisCache) Discover(ctx context.Context, genres []string) ([]domain.Movie, error) {
	return c.next.Discover(ctx, genres)
}

// MovieDetails serves from cache, falling back to the catalog.
func (c *RedisCache) MovieDetails(ctx context.Context, id int64) (domain.MovieDetail, error) {
	var detail domain.MovieDetail
	key := c.key("detail", id)
	if c.lookup(ctx, "detail", key, &detail) {
		return detail, nil
	}
	detail, err := c.next.MovieDetails(ctx, id)
	if err != nil {
		return domain.MovieDetail{}, err
	}
	c.store(ctx, key, detail)
	return detail, nil
}

// WatchProviders serves from cache, falling back to the catalog.
func (c *RedisCache) WatchProviders(ctx context.Context, id int64) ([]domain.Provider, error) {
	var providers []domain.Provider
	key := c.key("providers", id)
	if c.lookup(ctx, "providers", key, &providers) {
		return providers, nil
	}
	providers, err := c.next.WatchProviders(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, providers)
	return providers, nil
}

// lookup reports a hit. Redis failures count as misses.
func (c *RedisCache) lookup(ctx context.Context, kind, key string, out any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		util.LoggerFromContext(ctx).Warn("catalog cache read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		metrics.CacheLookups.WithLabelValues(kind, "error").Inc()
		_ = c.client.Del(ctx, key).Err()
		return false
	}
	metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *RedisCache) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		util.LoggerFromContext(ctx).Warn("catalog cache write failed", "key", key, "err", err)
	}
}

func (c *RedisCache) key(kind string, id int64) string {
	return c.prefix + ":" + kind + ":" + strconv.FormatInt(id, 10)
}
