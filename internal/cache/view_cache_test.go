package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	IDs []string `json:"ids"`
}

func newTestCache(t *testing.T) (*RedisViewCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisViewCache(client, time.Minute), mr
}

func TestRedisViewCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got snapshot
	assert.False(t, c.Get(ctx, RootPath, "u1", &got))

	c.Set(ctx, RootPath, "u1", 0, snapshot{IDs: []string{"a", "b"}})
	require.True(t, c.Get(ctx, RootPath, "u1", &got))
	assert.Equal(t, []string{"a", "b"}, got.IDs)
	assert.True(t, mr.Exists("view:/:u1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.Get(ctx, RootPath, "u1", &got))
}

func TestRedisViewCache_InvalidateDropsEveryViewerOfPath(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, RootPath, "u1", 0, snapshot{})
	c.Set(ctx, RootPath, "u2", 0, snapshot{})
	c.Set(ctx, "/profile", "u1", 0, snapshot{})

	c.Invalidate(ctx, RootPath)

	assert.False(t, mr.Exists("view:/:u1"))
	assert.False(t, mr.Exists("view:/:u2"))
	assert.True(t, mr.Exists("view:/profile:u1"))
}

func TestRedisViewCache_InvalidateAdvancesGeneration(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	gen, ok := c.Generation(ctx, RootPath)
	require.True(t, ok)
	assert.Zero(t, gen)

	c.Invalidate(ctx, RootPath)
	next, ok := c.Generation(ctx, RootPath)
	require.True(t, ok)
	assert.Equal(t, gen+1, next)
	assert.True(t, mr.Exists("view:gen:/"))

	other, _ := c.Generation(ctx, "/profile")
	assert.Zero(t, other)
}

func TestRedisViewCache_SetWithStaleGenerationIsDropped(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	// 读者取代数后开始查询，查询期间路径被失效
	gen, ok := c.Generation(ctx, RootPath)
	require.True(t, ok)
	c.Invalidate(ctx, RootPath)

	c.Set(ctx, RootPath, "u1", gen, snapshot{IDs: []string{"stale"}})
	assert.False(t, mr.Exists("view:/:u1"))

	fresh, _ := c.Generation(ctx, RootPath)
	c.Set(ctx, RootPath, "u1", fresh, snapshot{IDs: []string{"fresh"}})
	var got snapshot
	require.True(t, c.Get(ctx, RootPath, "u1", &got))
	assert.Equal(t, []string{"fresh"}, got.IDs)
	ttl := mr.TTL("view:/:u1")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRedisViewCache_UnavailableRedisIsSilent(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	ctx := context.Background()

	var got snapshot
	assert.NotPanics(t, func() {
		c.Set(ctx, RootPath, "u1", 0, snapshot{})
		c.Invalidate(ctx, RootPath)
	})
	assert.False(t, c.Get(ctx, RootPath, "u1", &got))
	_, ok := c.Generation(ctx, RootPath)
	assert.False(t, ok)
}

func TestNoopViewCache(t *testing.T) {
	var c ViewCache = NoopViewCache{}
	var got snapshot
	c.Set(context.Background(), RootPath, "u1", 0, snapshot{IDs: []string{"x"}})
	assert.False(t, c.Get(context.Background(), RootPath, "u1", &got))
	_, ok := c.Generation(context.Background(), RootPath)
	assert.False(t, ok)
}
