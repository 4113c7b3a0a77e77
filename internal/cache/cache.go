// Package cache memoizes nearby searches in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sells-group/iwash/internal/config"
	"github.com/sells-group/iwash/internal/model"
	"github.com/sells-group/iwash/internal/search"
)

const keyPrefix = "iwash:search:"

// NewClient creates a Redis client from cfg.
func NewClient(cfg config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Key returns the cache key for a search.
func Key(origin model.Coordinate, radiusM int) string {
	return fmt.Sprintf("%s%.6f:%.6f:%d", keyPrefix, origin.Latitude, origin.Longitude, radiusM)
}

// SearchCache wraps a Searcher with a Redis read-through cache. Redis
// failures are logged and the wrapped searcher is used directly; failed
// searches are never cached.
type SearchCache struct {
	next search.Searcher
	rdb  *redis.Client
	ttl  time.Duration
}

// New creates a SearchCache. A non-positive ttl defaults to five minutes.
func New(next search.Searcher, rdb *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SearchCache{next: next, rdb: rdb, ttl: ttl}
}

// SearchNearby implements search.Searcher.
func (c *SearchCache) SearchNearby(ctx context.Context, origin model.Coordinate, radiusM int) (*search.Result, error) {
	key := Key(origin, radiusM)
	log := zap.L().With(zap.String("cache_key", key))

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res search.Result
		if uerr := json.Unmarshal(raw, &res); uerr == nil {
			log.Debug("search cache hit")
			return &res, nil
		}
		log.Warn("search cache entry unreadable, refetching")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("search cache get failed", zap.Error(err))
	}

	res, err := c.next.SearchNearby(ctx, origin, radiusM)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		log.Warn("search cache marshal failed", zap.Error(err))
		return res, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn("search cache set failed", zap.Error(err))
	}
	return res, nil
}

// Ping checks the Redis connection.
func (c *SearchCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
