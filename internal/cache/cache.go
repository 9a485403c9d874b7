package cache

import (
	"context"
	"encoding/json"
	"time"

	"folio/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis with JSON serialization, per-entry TTLs, and tag
// sets for manual invalidation. A nil Redis client degrades to a
// pass-through: every read misses and writes are dropped, so the
// application keeps working without a cache backend.
//
// Cache values are constructed and injected; nothing in this package
// reads ambient state except the optional process-wide client managed
// by InitRedis.
type Cache struct {
	rdb        *redis.Client
	contentTTL time.Duration
}

// New returns a Cache backed by rdb with the default content TTL. rdb
// may be nil.
func New(rdb *redis.Client) *Cache {
	return NewWithTTL(rdb, ContentTTL)
}

// NewWithTTL returns a Cache whose content entries expire after
// contentTTL. A non-positive TTL falls back to the default.
func NewWithTTL(rdb *redis.Client, contentTTL time.Duration) *Cache {
	if contentTTL <= 0 {
		contentTTL = ContentTTL
	}
	return &Cache{rdb: rdb, contentTTL: contentTTL}
}

// ContentTTL is the staleness bound applied to content entries.
func (c *Cache) ContentTTL() time.Duration {
	return c.contentTTL
}

func tagKey(tag string) string {
	return "tag:" + tag
}

// GetJSON attempts to get the key and unmarshal it into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c.rdb == nil {
		return false, nil
	}
	s, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with ttl, registering the key
// under each tag so InvalidateTag can expire it later.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration, tags ...string) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, key, b, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagKey(tag), key)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Aside tries the cache first; on miss it calls fetch (which must write
// into dest) and stores the result best-effort. A fetch error is
// propagated without touching any previously cached value, so a failing
// store never poisons the cache. op labels the hit/miss metrics.
func (c *Cache) Aside(ctx context.Context, op, key string, dest any, ttl time.Duration, tags []string, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.CacheHits.WithLabelValues(op).Inc()
		return nil
	}
	// Backend errors count as misses: the content store is still the
	// source of truth.
	observability.CacheMisses.WithLabelValues(op).Inc()

	if err := fetch(); err != nil {
		return err
	}

	_ = c.SetJSON(ctx, key, dest, ttl, tags...)
	return nil
}

// Invalidate removes the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.rdb == nil || len(keys) == 0 {
		return
	}
	c.rdb.Del(ctx, keys...)
}

// InvalidateTag force-expires every entry registered under tag, so the
// next read bypasses the time window and refetches immediately.
func (c *Cache) InvalidateTag(ctx context.Context, tag string) error {
	if c.rdb == nil {
		return nil
	}
	members, err := c.rdb.SMembers(ctx, tagKey(tag)).Result()
	if err != nil {
		return err
	}
	keys := append(members, tagKey(tag))
	return c.rdb.Del(ctx, keys...).Err()
}
