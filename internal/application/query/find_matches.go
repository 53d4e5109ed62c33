// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND MATCHES QUERY
// Ranks candidate boxers against a source boxer. Candidates outside the
// weight or fight-count tolerance are dropped, the rest are sorted by score.
// Results are cached per (source, options) and the whole cache is cleared on
// any profile change.
// ══════════════════════════════════════════════════════════════════════════════

// FindMatchesOptions narrows the candidate pool.
type FindMatchesOptions struct {
	// Limit defaults to the policy's DefaultLimit.
	Limit int `json:"limit"`

	// ExperienceLevels defaults to the adjacency set of the source tier.
	ExperienceLevels []boxer.ExperienceLevel `json:"experience_levels,omitempty"`

	// City and Country are case-insensitive substring filters.
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`

	ExcludeIDs []string `json:"exclude_ids,omitempty"`
}

// FindMatchesQuery asks for ranked candidates for one boxer.
type FindMatchesQuery struct {
	BoxerID string
	Options FindMatchesOptions
}

// FindMatchesResult is the ranked list. Total counts every candidate that
// passed the tolerance filter, before truncation to the limit.
type FindMatchesResult struct {
	Matches []matching.Score `json:"matches"`
	Total   int              `json:"total"`
}

// FindMatchesHandler serves candidate ranking and owns the result cache.
type FindMatchesHandler struct {
	boxers   boxer.Repository
	requests match.Repository
	scorer   *matching.Scorer
	cache    matching.ResultCache
	log      *logger.Logger
}

// NewFindMatchesHandler creates a new FindMatchesHandler. cache may be nil.
func NewFindMatchesHandler(
	boxers boxer.Repository,
	requests match.Repository,
	scorer *matching.Scorer,
	cache matching.ResultCache,
	log *logger.Logger,
) *FindMatchesHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &FindMatchesHandler{
		boxers:   boxers,
		requests: requests,
		scorer:   scorer,
		cache:    cache,
		log:      log.Named("find_matches"),
	}
}

// Handle returns compatible candidates for q.BoxerID.
func (h *FindMatchesHandler) Handle(ctx context.Context, q FindMatchesQuery) (*FindMatchesResult, error) {
	source, err := h.boxers.GetByID(ctx, q.BoxerID)
	if err != nil {
		return nil, err
	}

	opts := h.normalize(source, q.Options)
	key := CacheKey(source.ID, opts)

	if cached, ok := h.fromCache(ctx, key); ok {
		return cached, nil
	}

	result, err := h.rank(ctx, source, opts)
	if err != nil {
		return nil, err
	}

	h.toCache(ctx, key, result)
	return result, nil
}

// GetSuggestedMatchesQuery asks for default-option suggestions.
type GetSuggestedMatchesQuery struct {
	BoxerID string
	Limit   int
}

// HandleSuggested ranks candidates with default options, skipping boxers that
// already share a PENDING request with the source in either direction.
func (h *FindMatchesHandler) HandleSuggested(ctx context.Context, q GetSuggestedMatchesQuery) (*FindMatchesResult, error) {
	exclude, err := h.requests.PendingCounterparts(ctx, q.BoxerID)
	if err != nil {
		return nil, fmt.Errorf("find_matches: pending counterparts: %w", err)
	}
	return h.Handle(ctx, FindMatchesQuery{
		BoxerID: q.BoxerID,
		Options: FindMatchesOptions{Limit: q.Limit, ExcludeIDs: exclude},
	})
}

// InvalidateMatchCache clears every cached ranking. A change to one boxer can
// move it in anyone's results, so entries are not tracked per boxer.
func (h *FindMatchesHandler) InvalidateMatchCache(ctx context.Context, boxerID string) error {
	if h.cache == nil {
		return nil
	}
	if err := h.cache.DeleteByPattern(ctx, matching.CacheInvalidationPattern); err != nil {
		return fmt.Errorf("find_matches: invalidate cache after %s changed: %w", boxerID, err)
	}
	h.log.Debug("match cache invalidated", logger.BoxerID(boxerID))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ranking
// ─────────────────────────────────────────────────────────────────────────────

func (h *FindMatchesHandler) rank(ctx context.Context, source *boxer.Boxer, opts FindMatchesOptions) (*FindMatchesResult, error) {
	policy := h.scorer.Policy()

	filter := boxer.SearchFilter{
		Experience: opts.ExperienceLevels,
		City:       opts.City,
		Country:    opts.Country,
		ExcludeIDs: append([]string{source.ID}, opts.ExcludeIDs...),
		Limit:      opts.Limit * policy.OverFetchFactor,
	}
	if source.HasWeight() {
		lo, hi := policy.WeightWindow(*source.WeightKg)
		filter.MinWeightKg = &lo
		filter.MaxWeightKg = &hi
		filter.IncludeUnspecifiedWeight = true
	}

	candidates, err := h.boxers.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find_matches: search candidates: %w", err)
	}

	scores := make([]matching.Score, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == source.ID || !c.IsMatchable() {
			continue
		}
		score, verdict := h.scorer.Evaluate(source, c)
		if !verdict.Compatible {
			continue
		}
		scores = append(scores, score)
	}

	SortScores(scores)

	total := len(scores)
	if len(scores) > opts.Limit {
		scores = scores[:opts.Limit]
	}
	return &FindMatchesResult{Matches: scores, Total: total}, nil
}

// SortScores orders by score descending, then smaller fight-count difference,
// then boxer id.
func SortScores(scores []matching.Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.FightsDiff != b.FightsDiff {
			return a.FightsDiff < b.FightsDiff
		}
		return a.BoxerID < b.BoxerID
	})
}

// normalize fills defaults and canonicalizes options so equal requests share
// a cache key.
func (h *FindMatchesHandler) normalize(source *boxer.Boxer, in FindMatchesOptions) FindMatchesOptions {
	out := FindMatchesOptions{
		Limit:   h.scorer.Policy().NormalizeLimit(in.Limit),
		City:    strings.TrimSpace(in.City),
		Country: strings.TrimSpace(in.Country),
	}

	levels := in.ExperienceLevels
	if len(levels) == 0 {
		levels = source.Experience.CompatibleLevels()
	}
	out.ExperienceLevels = slices.Clone(levels)
	slices.SortFunc(out.ExperienceLevels, func(a, b boxer.ExperienceLevel) int { return a.Rank() - b.Rank() })
	out.ExperienceLevels = slices.Compact(out.ExperienceLevels)

	if len(in.ExcludeIDs) > 0 {
		out.ExcludeIDs = slices.Clone(in.ExcludeIDs)
		slices.Sort(out.ExcludeIDs)
		out.ExcludeIDs = slices.Compact(out.ExcludeIDs)
	}
	return out
}

// CacheKey builds the cache key for a source boxer and normalized options.
func CacheKey(sourceID string, opts FindMatchesOptions) string {
	encoded, _ := json.Marshal(opts)
	return matching.CacheKeyPrefix + sourceID + ":" + string(encoded)
}

func (h *FindMatchesHandler) fromCache(ctx context.Context, key string) (*FindMatchesResult, bool) {
	if h.cache == nil {
		return nil, false
	}
	var cached FindMatchesResult
	if err := h.cache.Get(ctx, key, &cached); err != nil {
		return nil, false
	}
	if cached.Matches == nil {
		cached.Matches = []matching.Score{}
	}
	return &cached, true
}

func (h *FindMatchesHandler) toCache(ctx context.Context, key string, result *FindMatchesResult) {
	if h.cache == nil {
		return
	}
	ttl := h.scorer.Policy().CacheTTL
	if ttl <= 0 {
		return
	}
	if err := h.cache.Set(ctx, key, result, ttl); err != nil {
		h.log.Warn("failed to cache match results", logger.String("key", key), logger.Err(err))
	}
}
