package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// FeedKeyPrefix namespaces every rendered feed page in Redis.
const FeedKeyPrefix = "feedcache:"

// IndexFeed identifies the global post listing.
const IndexFeed = "index"

// FeedPageKey is the cache key for one page of a feed.
func FeedPageKey(feed string, page int) string {
	return fmt.Sprintf("%s:page:%d", feed, page)
}

// PageCache stores rendered feed pages. Entries never expire; they are
// dropped only by Clear.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
	Clear(ctx context.Context) error
}

// RedisPageCache keeps rendered pages in Redis under FeedKeyPrefix.
type RedisPageCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisPageCache returns a Redis-backed page cache.
func NewRedisPageCache(rdb *redis.Client) *RedisPageCache {
	return &RedisPageCache{rdb: rdb, prefix: FeedKeyPrefix}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := observability.TraceRedisOperation(ctx, "feedcache.get")
	defer span.End()

	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.RecordCacheLookup("redis", "miss")
		return nil, false, nil
	}
	if err != nil {
		observability.RecordCacheLookup("redis", "error")
		return nil, false, err
	}
	observability.RecordCacheLookup("redis", "hit")
	return b, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, body []byte) error {
	ctx, span := observability.TraceRedisOperation(ctx, "feedcache.set")
	defer span.End()

	return c.rdb.Set(ctx, c.prefix+key, body, 0).Err()
}

// Clear deletes every key under the prefix using SCAN so large key sets do not block Redis.
func (c *RedisPageCache) Clear(ctx context.Context) error {
	ctx, span := observability.TraceRedisOperation(ctx, "feedcache.clear")
	defer span.End()

	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	observability.FeedCacheClears.WithLabelValues("redis").Inc()
	middleware.Logger.DebugContext(ctx, "feed cache cleared", slog.Int("keys", removed))
	return nil
}

// MemoryPageCache is an in-process page cache used when Redis is not available.
type MemoryPageCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryPageCache returns an empty in-process page cache.
func NewMemoryPageCache() *MemoryPageCache {
	return &MemoryPageCache{entries: make(map[string][]byte)}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b, ok := c.entries[key]
	if !ok {
		observability.RecordCacheLookup("memory", "miss")
		return nil, false, nil
	}
	observability.RecordCacheLookup("memory", "hit")
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, body []byte) error {
	stored := make([]byte, len(body))
	copy(stored, body)

	c.mu.Lock()
	c.entries[key] = stored
	c.mu.Unlock()
	return nil
}

func (c *MemoryPageCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string][]byte)
	c.mu.Unlock()

	observability.FeedCacheClears.WithLabelValues("memory").Inc()
	return nil
}

// Len reports the number of cached pages.
func (c *MemoryPageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// NewPageCache picks the Redis cache when requested and a client is
// available, and the in-memory cache otherwise.
func NewPageCache(backend string, rdb *redis.Client) PageCache {
	if backend != "memory" && rdb != nil {
		return NewRedisPageCache(rdb)
	}
	if backend != "memory" {
		middleware.Logger.Warn("redis unavailable, feed cache falls back to process memory")
	}
	return NewMemoryPageCache()
}
