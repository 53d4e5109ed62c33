package matching

import (
	"context"
	"time"
)

// Cache key layout for ranked results.
const (
	CacheKeyPrefix = "matches:"

	// CacheInvalidationPattern matches every cached ranking.
	CacheInvalidationPattern = CacheKeyPrefix + "*"
)

// ResultCache is the narrow cache capability the ranking component needs.
// Get returns an error (a miss included) when the key cannot be served.
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}
