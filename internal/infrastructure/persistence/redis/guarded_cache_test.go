package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/pkg/circuitbreaker"
)

func TestGuardedCache_MissesDoNotOpenCircuit(t *testing.T) {
	cache, _ := newTestCache(t)
	guarded := NewGuardedCache(cache, clockwork.NewFakeClock(), nil)
	ctx := context.Background()

	var got payload
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, guarded.Get(ctx, "matches:none", &got), ErrCacheMiss)
	}
	assert.Equal(t, circuitbreaker.StateClosed, guarded.State())

	require.NoError(t, guarded.Set(ctx, "matches:a", payload{Total: 1}, time.Minute))
	require.NoError(t, guarded.Get(ctx, "matches:a", &got))
	assert.Equal(t, 1, got.Total)
}

func TestGuardedCache_OpensAndRecovers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	cache := NewCacheFromClient(client)
	t.Cleanup(func() { _ = cache.Close() })

	clock := clockwork.NewFakeClock()
	guarded := NewGuardedCache(cache, clock, nil)
	ctx := context.Background()

	mr.SetError("server down")
	var got payload
	for i := 0; i < 3; i++ {
		err := guarded.Get(ctx, "matches:a", &got)
		require.Error(t, err)
		assert.NotErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	}
	assert.Equal(t, circuitbreaker.StateOpen, guarded.State())
	assert.ErrorIs(t, guarded.Get(ctx, "matches:a", &got), circuitbreaker.ErrCircuitOpen)

	mr.SetError("")
	clock.Advance(16 * time.Second)
	require.NoError(t, guarded.Set(ctx, "matches:a", payload{Total: 2}, time.Minute))
	assert.Equal(t, circuitbreaker.StateClosed, guarded.State())
}
