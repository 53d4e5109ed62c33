package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/memory"
)

var t0 = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	cache  *memory.Cache
	clock  *clockwork.FakeClock
	finder *FindMatchesHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	store := memory.NewStore()
	cache := memory.NewCache(clock)
	scorer := matching.NewScorer(matching.DefaultPolicy())
	return &fixture{
		store:  store,
		cache:  cache,
		clock:  clock,
		finder: NewFindMatchesHandler(store.Boxers(), store.MatchRequests(), scorer, cache, nil),
	}
}

func kg(v float64) *float64 { return &v }

func (f *fixture) boxer(t *testing.T, id string, weight *float64, wins int, exp boxer.ExperienceLevel, city string) *boxer.Boxer {
	t.Helper()
	ctx := context.Background()
	u, err := user.NewUser("u-"+id, id+"@example.com", "hash", user.RoleBoxer, t0)
	require.NoError(t, err)
	require.NoError(t, f.store.Users().Create(ctx, u))
	b, err := boxer.NewBoxer(boxer.NewBoxerParams{
		ID: id, UserID: u.ID, Name: id, WeightKg: weight, Wins: wins,
		Experience: exp, City: city, Country: "UK", Now: t0,
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Boxers().Create(ctx, b))
	return b
}

func matchIDs(r *FindMatchesResult) []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.BoxerID
	}
	return out
}

func TestFindMatches_RanksAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.boxer(t, "src", kg(75), 13, boxer.ExperienceIntermediate, "London")
	f.boxer(t, "close", kg(77), 12, boxer.ExperienceIntermediate, "London")        // 78
	f.boxer(t, "noweight", nil, 13, boxer.ExperienceIntermediate, "London")        // 15+30+20+20 = 85
	f.boxer(t, "country", kg(75), 13, boxer.ExperienceAdvanced, "Leeds")           // 30+30+10+10 = 80
	f.boxer(t, "heavy", kg(81), 13, boxer.ExperienceIntermediate, "London")        // weight out
	f.boxer(t, "veteran", kg(75), 20, boxer.ExperienceIntermediate, "London")      // fights out
	f.boxer(t, "beginner", kg(75), 13, boxer.ExperienceBeginner, "London")         // tier out
	hidden := f.boxer(t, "hidden", kg(75), 13, boxer.ExperienceIntermediate, "London")
	hidden.Searchable = false
	require.NoError(t, f.store.Boxers().Update(ctx, hidden))

	res, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src"})
	require.NoError(t, err)
	assert.Equal(t, []string{"noweight", "country", "close"}, matchIDs(res))
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 85, res.Matches[0].Value)
	assert.Nil(t, res.Matches[0].WeightDiffKg)
}

func TestFindMatches_TotalCountsBeforeTruncation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.boxer(t, "src", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "b1", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "b2", kg(71), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "b3", kg(72), 0, boxer.ExperienceAmateur, "Leeds")

	res, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src", Options: FindMatchesOptions{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b2"}, matchIDs(res))
	assert.Equal(t, 3, res.Total)
}

func TestFindMatches_TieBreak(t *testing.T) {
	scores := []matching.Score{
		{BoxerID: "z", Value: 80, FightsDiff: 1},
		{BoxerID: "y", Value: 80, FightsDiff: 0},
		{BoxerID: "a", Value: 80, FightsDiff: 1},
		{BoxerID: "top", Value: 90, FightsDiff: 3},
	}
	SortScores(scores)
	got := []string{scores[0].BoxerID, scores[1].BoxerID, scores[2].BoxerID, scores[3].BoxerID}
	assert.Equal(t, []string{"top", "y", "a", "z"}, got)
}

func TestFindMatches_KeepsCandidatesExactlyAtWeightTolerance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.boxer(t, "src", kg(64.4), 0, boxer.ExperienceBeginner, "Leeds")
	f.boxer(t, "lighter", kg(59.4), 0, boxer.ExperienceBeginner, "Leeds")
	f.boxer(t, "heavier", kg(69.4), 0, boxer.ExperienceBeginner, "Leeds")
	f.boxer(t, "over", kg(69.41), 0, boxer.ExperienceBeginner, "Leeds")

	res, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lighter", "heavier"}, matchIDs(res))
	for _, m := range res.Matches {
		require.NotNil(t, m.WeightDiffKg)
		assert.Equal(t, 5.0, *m.WeightDiffKg)
	}
}

func TestFindMatches_ExplicitFiltersCannotBypassTolerance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.boxer(t, "src", kg(60), 0, boxer.ExperienceBeginner, "Leeds")
	f.boxer(t, "pro", kg(60), 0, boxer.ExperienceProfessional, "Leeds")
	f.boxer(t, "heavy", kg(90), 0, boxer.ExperienceBeginner, "Leeds")

	res, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src", Options: FindMatchesOptions{
		ExperienceLevels: boxer.ExperienceLevels,
		ExcludeIDs:       []string{"nobody"},
	}})
	require.NoError(t, err)
	// the pro is allowed by the explicit tier list, the heavy one never is
	assert.Equal(t, []string{"pro"}, matchIDs(res))
	assert.False(t, res.Matches[0].ExperienceCompatible)
}

func TestFindMatches_CityFilterAndExclusion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.boxer(t, "src", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "b1", kg(70), 0, boxer.ExperienceAmateur, "London")
	f.boxer(t, "b2", kg(70), 0, boxer.ExperienceAmateur, "Londonderry")
	f.boxer(t, "b3", kg(70), 0, boxer.ExperienceAmateur, "Leeds")

	res, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src", Options: FindMatchesOptions{
		City: "london", ExcludeIDs: []string{"b2"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, matchIDs(res))
}

func TestFindMatches_SourceNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.finder.Handle(context.Background(), FindMatchesQuery{BoxerID: "ghost"})
	assert.ErrorIs(t, err, boxer.ErrBoxerNotFound)
}

func TestFindMatches_CacheAndInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.boxer(t, "src", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "b1", kg(70), 0, boxer.ExperienceAmateur, "Leeds")

	first, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src"})
	require.NoError(t, err)
	require.Len(t, first.Matches, 1)
	assert.Equal(t, 1, f.cache.Len())

	// a new boxer is not visible while the entry is fresh
	f.boxer(t, "b2", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	cached, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src"})
	require.NoError(t, err)
	assert.Len(t, cached.Matches, 1)

	require.NoError(t, f.finder.InvalidateMatchCache(ctx, "b2"))
	assert.Equal(t, 0, f.cache.Len())

	fresh, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src"})
	require.NoError(t, err)
	assert.Len(t, fresh.Matches, 2)

	// and entries lapse after the ttl
	f.boxer(t, "b3", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.clock.Advance(matching.DefaultPolicy().CacheTTL + time.Second)
	lapsed, err := f.finder.Handle(ctx, FindMatchesQuery{BoxerID: "src"})
	require.NoError(t, err)
	assert.Len(t, lapsed.Matches, 3)
}

func TestCacheKey_IsCanonical(t *testing.T) {
	f := newFixture(t)
	src := &boxer.Boxer{ID: "src", Experience: boxer.ExperienceAmateur}

	a := f.finder.normalize(src, FindMatchesOptions{ExcludeIDs: []string{"b", "a", "b"}})
	b := f.finder.normalize(src, FindMatchesOptions{Limit: 20, ExcludeIDs: []string{"a", "b"},
		ExperienceLevels: []boxer.ExperienceLevel{boxer.ExperienceIntermediate, boxer.ExperienceBeginner, boxer.ExperienceAmateur}})
	assert.Equal(t, CacheKey("src", a), CacheKey("src", b))
	assert.NotEqual(t, CacheKey("src", a), CacheKey("other", a))
}

type failingCache struct{}

func (failingCache) Get(context.Context, string, any) error { return errors.New("down") }
func (failingCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("down")
}
func (failingCache) DeleteByPattern(context.Context, string) error { return errors.New("down") }

func TestFindMatches_CacheFailuresAreMisses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.boxer(t, "src", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "b1", kg(70), 0, boxer.ExperienceAmateur, "Leeds")

	finder := NewFindMatchesHandler(f.store.Boxers(), f.store.MatchRequests(),
		matching.NewScorer(matching.DefaultPolicy()), failingCache{}, nil)

	res, err := finder.Handle(ctx, FindMatchesQuery{BoxerID: "src"})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Error(t, finder.InvalidateMatchCache(ctx, "src"))
}

func TestSuggestedMatches_ExcludesPendingCounterparts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.boxer(t, "src", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "out", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "in", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "free", kg(70), 0, boxer.ExperienceAmateur, "Leeds")
	f.boxer(t, "done", kg(70), 0, boxer.ExperienceAmateur, "Leeds")

	create := func(id, from, to string) *match.MatchRequest {
		r, err := match.NewMatchRequest(match.NewMatchRequestParams{
			ID: id, RequesterID: from, TargetID: to, Now: t0, TTL: time.Hour,
		})
		require.NoError(t, err)
		require.NoError(t, f.store.MatchRequests().Create(ctx, r))
		return r
	}
	create("r1", "src", "out")
	create("r2", "in", "src")
	closed := create("r3", "src", "done")
	require.NoError(t, closed.Cancel("src", t0))
	require.NoError(t, f.store.MatchRequests().Update(ctx, closed))

	res, err := f.finder.HandleSuggested(ctx, GetSuggestedMatchesQuery{BoxerID: "src", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"done", "free"}, matchIDs(res))
}
