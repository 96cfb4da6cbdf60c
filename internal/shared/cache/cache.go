// Package cache provides a tag-based read-through cache on Redis.
// Keys register under tag sets so a whole tag group can be invalidated
// after a write. Cache failures degrade to computing the value.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache tags grouped by what writes invalidate them.
const (
	TagOrders     = "orders"
	TagTasks      = "tasks"
	TagCompanies  = "companies"
	TagProducts   = "products"
	TagUsers      = "users"
	TagReference  = "reference_data"
	TagStatistics = "statistics"
)

type Cache struct {
	rdb    *redis.Client
	logger *zap.Logger
	prefix string
}

func New(rdb *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{rdb: rdb, logger: logger, prefix: "workshop:"}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}

// Remember returns the cached value under key, or computes it with fn,
// stores it for ttl, and registers the key under each tag. Redis
// errors are logged and the computed value is returned uncached.
func (c *Cache) Remember(ctx context.Context, key string, tags []string, ttl time.Duration, dest any, fn func() (any, error)) error {
	full := c.key(key)

	raw, err := c.rdb.Get(ctx, full).Bytes()
	if err == nil {
		if uerr := json.Unmarshal(raw, dest); uerr == nil {
			return nil
		}
		// corrupt entry, fall through and recompute
	} else if err != redis.Nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	value, err := fn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return err
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, full, data, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, c.tagKey(tag), full)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// FlushByTags deletes every key registered under the given tags and the
// tag sets themselves. Errors are logged, never returned: invalidation
// is fire and forget.
func (c *Cache) FlushByTags(ctx context.Context, tags ...string) {
	for _, tag := range tags {
		tk := c.tagKey(tag)
		keys, err := c.rdb.SMembers(ctx, tk).Result()
		if err != nil {
			c.logger.Warn("cache tag read failed", zap.String("tag", tag), zap.Error(err))
			continue
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("cache flush failed", zap.String("tag", tag), zap.Error(err))
			}
		}
		if err := c.rdb.Del(ctx, tk).Err(); err != nil {
			c.logger.Warn("cache tag delete failed", zap.String("tag", tag), zap.Error(err))
		}
	}
}

// Forget drops a single key.
func (c *Cache) Forget(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn("cache forget failed", zap.String("key", key), zap.Error(err))
	}
}
