package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	cache, err := NewRedisCache("redis://"+mr.Addr(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	return cache, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Ping(ctx))
	require.NoError(t, cache.Set(ctx, "image:abc", "ref-123", time.Hour))

	val, err := cache.Get(ctx, "image:abc")
	require.NoError(t, err)
	assert.Equal(t, "ref-123", val)
}

func TestRedisCache_GetMissing(t *testing.T) {
	cache, _ := setupTestRedis(t)

	val, err := cache.Get(context.Background(), "image:never-set")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestRedisCache_Expiration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "image:ttl", "ref-456", time.Minute))
	mr.FastForward(2 * time.Minute)

	val, err := cache.Get(ctx, "image:ttl")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	_, err := NewRedisCache("not-a-url", logger)
	assert.Error(t, err)
}
