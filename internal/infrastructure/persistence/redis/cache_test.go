package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
)

var _ matching.ResultCache = (*Cache)(nil)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := NewCacheFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

type payload struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

func TestCache_SetGet(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "matches:a:{}", payload{IDs: []string{"b", "c"}, Total: 2}, time.Minute))

	var got payload
	require.NoError(t, cache.Get(ctx, "matches:a:{}", &got))
	assert.Equal(t, payload{IDs: []string{"b", "c"}, Total: 2}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, cache.Get(ctx, "matches:a:{}", &got), ErrCacheMiss)
}

func TestCache_Validation(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	assert.ErrorIs(t, cache.Set(ctx, "", 1, time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, cache.Set(ctx, "k", nil, time.Minute), ErrCacheNilValue)
	assert.ErrorIs(t, cache.Set(ctx, "k", 1, -time.Second), ErrCacheInvalidTTL)
	assert.ErrorIs(t, cache.DeleteByPattern(ctx, ""), ErrCacheKeyEmpty)
}

func TestCache_DeleteByPattern(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	// more than one DEL batch
	for i := 0; i < 250; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("matches:%d:{}", i), i, time.Minute))
	}
	require.NoError(t, cache.Set(ctx, "session:keep", "x", time.Minute))

	require.NoError(t, cache.DeleteByPattern(ctx, matching.CacheInvalidationPattern))

	exists, err := cache.Exists(ctx, "matches:7:{}")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cache.Exists(ctx, "session:keep")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewCache_ConnectionFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.DialTimeout = 200 * time.Millisecond
	cfg.MaxRetries = -1

	_, err := NewCache(cfg)
	assert.ErrorIs(t, err, ErrCacheConnection)
}

func TestNewCache_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.URL = "redis://" + mr.Addr() + "/0"

	cache, err := NewCache(cfg)
	require.NoError(t, err)
	defer cache.Close()
	assert.NoError(t, cache.Ping(context.Background()))
}
