package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestAsideFetchesOnceWithinTTL(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *string) func() error {
		return func() error {
			calls++
			*dest = "fetched"
			return nil
		}
	}

	var got string
	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Hour, nil, fetch(&got)))
	assert.Equal(t, "fetched", got)
	assert.Equal(t, 1, calls)

	var again string
	require.NoError(t, c.Aside(ctx, "test", "k", &again, time.Hour, nil, fetch(&again)))
	assert.Equal(t, "fetched", again)
	assert.Equal(t, 1, calls, "read inside the staleness bound must not refetch")
}

func TestAsideRefetchesAfterTTL(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	calls := 0
	var got string
	fetch := func() error {
		calls++
		got = "fetched"
		return nil
	}

	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Minute, nil, fetch))
	mr.FastForward(2 * time.Minute)

	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Minute, nil, fetch))
	assert.Equal(t, 2, calls, "read past the staleness bound must refetch exactly once")
}

func TestAsideFetchErrorDoesNotPoisonCache(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	var got string
	boom := errors.New("store down")
	err := c.Aside(ctx, "test", "k", &got, time.Hour, nil, func() error { return boom })
	require.ErrorIs(t, err, boom)

	assert.False(t, mr.Exists("k"), "failed fetch must not be cached")
}

func TestAsideServesCachedValueWhileFresh(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	var seed string
	require.NoError(t, c.Aside(ctx, "test", "k", &seed, time.Hour, nil, func() error {
		seed = "v1"
		return nil
	}))

	// The store failing is invisible while the cached value is fresh.
	var got string
	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Hour, nil, func() error {
		return errors.New("store down")
	}))
	assert.Equal(t, "v1", got)
}

func TestInvalidateTagExpiresAllTaggedEntries(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "blog:posts:0", []string{"a"}, time.Hour, TagBlog))
	require.NoError(t, c.SetJSON(ctx, "blog:tags", []string{"go"}, time.Hour, TagBlog))
	require.NoError(t, c.SetJSON(ctx, "projects:all", []string{"p"}, time.Hour, TagProjects))

	require.NoError(t, c.InvalidateTag(ctx, TagBlog))

	assert.False(t, mr.Exists("blog:posts:0"))
	assert.False(t, mr.Exists("blog:tags"))
	assert.False(t, mr.Exists("tag:"+TagBlog))
	assert.True(t, mr.Exists("projects:all"), "other tags stay cached")
}

func TestInvalidateTagForcesRefetch(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	calls := 0
	var got string
	fetch := func() error {
		calls++
		got = "fetched"
		return nil
	}

	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Hour, []string{TagBlog}, fetch))
	require.NoError(t, c.InvalidateTag(ctx, TagBlog))
	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Hour, []string{TagBlog}, fetch))

	assert.Equal(t, 2, calls, "tag invalidation bypasses the time window")
}

func TestNewWithTTLAppliesConfiguredExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewWithTTL(rdb, 90*time.Second)
	assert.Equal(t, 90*time.Second, c.ContentTTL())

	var got string
	require.NoError(t, c.Aside(context.Background(), "test", "k", &got, c.ContentTTL(), nil, func() error {
		got = "fetched"
		return nil
	}))
	assert.Equal(t, 90*time.Second, mr.TTL("k"))
}

func TestNewWithTTLFallsBackToDefault(t *testing.T) {
	assert.Equal(t, ContentTTL, NewWithTTL(nil, 0).ContentTTL())
	assert.Equal(t, ContentTTL, NewWithTTL(nil, -time.Second).ContentTTL())
	assert.Equal(t, ContentTTL, New(nil).ContentTTL())
}

func TestNilClientIsPassThrough(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	calls := 0
	var got string
	fetch := func() error {
		calls++
		got = "fetched"
		return nil
	}

	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Hour, nil, fetch))
	require.NoError(t, c.Aside(ctx, "test", "k", &got, time.Hour, nil, fetch))
	assert.Equal(t, 2, calls, "without a backend every read goes to the store")

	require.NoError(t, c.InvalidateTag(ctx, TagBlog))
}
