package redis

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/pkg/circuitbreaker"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// GuardedCache puts a circuit breaker in front of a result cache. While the
// circuit is open every call fails fast with circuitbreaker.ErrCircuitOpen,
// which the ranking component treats like a miss.
type GuardedCache struct {
	cache   matching.ResultCache
	breaker *circuitbreaker.CircuitBreaker
}

var _ matching.ResultCache = (*GuardedCache)(nil)

// NewGuardedCache wraps cache with circuitbreaker.CacheBreaker.
func NewGuardedCache(cache matching.ResultCache, clock clockwork.Clock, log *logger.Logger) *GuardedCache {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Named("match_cache")
	return &GuardedCache{
		cache: cache,
		breaker: circuitbreaker.CacheBreaker(clock, isTransportError, func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	}
}

// isTransportError reports whether err says the cache itself is unhealthy.
func isTransportError(err error) bool {
	switch {
	case errors.Is(err, ErrCacheMiss),
		errors.Is(err, ErrCacheSerialization),
		errors.Is(err, ErrCacheKeyEmpty),
		errors.Is(err, ErrCacheNilValue),
		errors.Is(err, ErrCacheInvalidTTL):
		return false
	default:
		return true
	}
}

// Get implements matching.ResultCache.
func (g *GuardedCache) Get(ctx context.Context, key string, dest any) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.cache.Get(ctx, key, dest)
	})
}

// Set implements matching.ResultCache.
func (g *GuardedCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.cache.Set(ctx, key, value, ttl)
	})
}

// DeleteByPattern implements matching.ResultCache.
func (g *GuardedCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.cache.DeleteByPattern(ctx, pattern)
	})
}

// State returns the breaker state.
func (g *GuardedCache) State() circuitbreaker.State {
	return g.breaker.State()
}
