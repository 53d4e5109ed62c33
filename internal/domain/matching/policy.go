// Package matching contains the compatibility scorer used to rank boxers
// against each other and the tolerance policy it is configured with.
package matching

import (
	"fmt"
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
)

// Policy holds the tunable matching constants. It is injected into the scorer
// and the lifecycle components at construction.
type Policy struct {
	// WeightToleranceKg is the largest weight difference a pair may have.
	WeightToleranceKg float64 `yaml:"weight_tolerance_kg"`

	// FightsTolerance is the largest career-fights difference a pair may have.
	FightsTolerance int `yaml:"fights_tolerance"`

	// CacheTTL bounds how long ranked results are served from cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RequestExpiry is how long a match request stays PENDING.
	RequestExpiry time.Duration `yaml:"request_expiry"`

	// DefaultLimit is the result limit when the caller does not pass one.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps caller-supplied limits.
	MaxLimit int `yaml:"max_limit"`

	// OverFetchFactor multiplies the limit when querying candidates from storage.
	OverFetchFactor int `yaml:"over_fetch_factor"`
}

// MatchRequestExpiryDays is the default lifetime of a match request.
const MatchRequestExpiryDays = 7

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		WeightToleranceKg: 5,
		FightsTolerance:   3,
		CacheTTL:          5 * time.Minute,
		RequestExpiry:     MatchRequestExpiryDays * 24 * time.Hour,
		DefaultLimit:      20,
		MaxLimit:          100,
		OverFetchFactor:   3,
	}
}

// Validate checks the policy for values the scorer cannot work with.
func (p Policy) Validate() error {
	switch {
	case p.WeightToleranceKg < 0:
		return invalidPolicy("weight tolerance cannot be negative")
	case p.FightsTolerance < 0:
		return invalidPolicy("fights tolerance cannot be negative")
	case p.RequestExpiry <= 0:
		return invalidPolicy("request expiry must be positive")
	case p.DefaultLimit <= 0:
		return invalidPolicy("default limit must be positive")
	case p.MaxLimit < p.DefaultLimit:
		return invalidPolicy(fmt.Sprintf("max limit %d is below default limit %d", p.MaxLimit, p.DefaultLimit))
	case p.OverFetchFactor < 1:
		return invalidPolicy("over-fetch factor must be at least 1")
	case p.CacheTTL < 0:
		return invalidPolicy("cache ttl cannot be negative")
	}
	return nil
}

// NormalizeLimit applies the default and the cap to a caller-supplied limit.
func (p Policy) NormalizeLimit(limit int) int {
	if limit <= 0 {
		return p.DefaultLimit
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		return p.MaxLimit
	}
	return limit
}

// WeightWindow returns the storage weight range for a source of kg, rounded
// to 0.01 kg like the stored weights.
func (p Policy) WeightWindow(kg float64) (lo, hi float64) {
	return roundKg(kg - p.WeightToleranceKg), roundKg(kg + p.WeightToleranceKg)
}

func invalidPolicy(msg string) error {
	return shared.NewDomainError("matching", "Validate", shared.ErrValueOutOfRange, msg)
}
