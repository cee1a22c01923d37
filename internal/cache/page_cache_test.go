package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func exercisePageCache(t *testing.T, c PageCache) {
	t.Helper()
	ctx := context.Background()
	key1 := FeedPageKey(IndexFeed, 1)
	key2 := FeedPageKey(IndexFeed, 2)

	_, found, err := c.Get(ctx, key1)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key1, []byte("page one")))
	require.NoError(t, c.Set(ctx, key2, []byte("page two")))

	got, found, err := c.Get(ctx, key1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "page one", string(got))

	require.NoError(t, c.Clear(ctx))

	for _, key := range []string{key1, key2} {
		_, found, err = c.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}

func TestMemoryPageCache(t *testing.T) {
	c := NewMemoryPageCache()
	exercisePageCache(t, c)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryPageCache_StoresCopies(t *testing.T) {
	c := NewMemoryPageCache()
	ctx := context.Background()
	body := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", body))
	body[0] = 'z'

	got, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestRedisPageCache(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	exercisePageCache(t, NewRedisPageCache(rdb))
}

func TestRedisPageCache_NoExpiryAndClearLeavesOtherKeys(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	ctx := context.Background()
	c := NewRedisPageCache(rdb)

	require.NoError(t, rdb.Set(ctx, "group:cats", "{}", 0).Err())
	require.NoError(t, c.Set(ctx, FeedPageKey(IndexFeed, 1), []byte("x")))

	assert.Zero(t, mr.TTL(FeedKeyPrefix+FeedPageKey(IndexFeed, 1)))

	require.NoError(t, c.Clear(ctx))
	assert.True(t, mr.Exists("group:cats"))
	assert.False(t, mr.Exists(FeedKeyPrefix+FeedPageKey(IndexFeed, 1)))
}

func TestNewPageCache_Selection(t *testing.T) {
	_, rdb := newMiniredisClient(t)

	_, isRedis := NewPageCache("redis", rdb).(*RedisPageCache)
	assert.True(t, isRedis)

	_, isMemory := NewPageCache("redis", nil).(*MemoryPageCache)
	assert.True(t, isMemory)

	_, isMemory = NewPageCache("memory", rdb).(*MemoryPageCache)
	assert.True(t, isMemory)
}

func TestAside_FetchesOnceThenServesFromRedis(t *testing.T) {
	_, rdb := newMiniredisClient(t)
	SetClient(rdb)
	t.Cleanup(func() { SetClient(nil) })

	ctx := context.Background()
	calls := 0
	fetch := func(dest *map[string]string) func() error {
		return func() error {
			calls++
			*dest = map[string]string{"slug": "cats"}
			return nil
		}
	}

	var first map[string]string
	require.NoError(t, Aside(ctx, GroupKey("cats"), &first, GroupTTL, fetch(&first)))
	var second map[string]string
	require.NoError(t, Aside(ctx, GroupKey("cats"), &second, GroupTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "cats", second["slug"])

	InvalidateGroup(ctx, "cats")
	var third map[string]string
	require.NoError(t, Aside(ctx, GroupKey("cats"), &third, GroupTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_WithoutRedisAlwaysFetches(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest string
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "k", &dest, UserTTL, func() error {
			calls++
			dest = "v"
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}
