package memory

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
)

var now = time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

func kg(v float64) *float64 { return &v }

func seedBoxer(t *testing.T, s *Store, id string, weight *float64, exp boxer.ExperienceLevel, city string) *boxer.Boxer {
	t.Helper()
	ctx := context.Background()
	u, err := user.NewUser("u-"+id, id+"@example.com", "hash", user.RoleBoxer, now)
	require.NoError(t, err)
	require.NoError(t, s.Users().Create(ctx, u))
	b, err := boxer.NewBoxer(boxer.NewBoxerParams{
		ID: id, UserID: u.ID, Name: id, WeightKg: weight, Experience: exp, City: city, Now: now,
	})
	require.NoError(t, err)
	require.NoError(t, s.Boxers().Create(ctx, b))
	return b
}

func TestBoxerRepo_Search(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	seedBoxer(t, s, "a", kg(70), boxer.ExperienceAmateur, "London")
	seedBoxer(t, s, "b", kg(73), boxer.ExperienceAmateur, "Londonderry")
	seedBoxer(t, s, "c", nil, boxer.ExperienceAmateur, "Leeds")
	seedBoxer(t, s, "d", kg(90), boxer.ExperienceAmateur, "London")
	seedBoxer(t, s, "e", kg(71), boxer.ExperienceProfessional, "London")
	hidden := seedBoxer(t, s, "f", kg(70), boxer.ExperienceAmateur, "London")
	hidden.Searchable = false
	require.NoError(t, s.Boxers().Update(ctx, hidden))

	lo, hi := 65.0, 75.0
	got, err := s.Boxers().Search(ctx, boxer.SearchFilter{
		Experience:               []boxer.ExperienceLevel{boxer.ExperienceAmateur},
		MinWeightKg:              &lo,
		MaxWeightKg:              &hi,
		IncludeUnspecifiedWeight: true,
		ExcludeIDs:               []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(got))

	got, err = s.Boxers().Search(ctx, boxer.SearchFilter{City: "LONDON", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestBoxerRepo_InactiveAccountIsNotMatchable(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedBoxer(t, s, "a", kg(70), boxer.ExperienceAmateur, "")
	s.users["u-a"].Active = false

	got, err := s.Boxers().Search(ctx, boxer.SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	b, err := s.Boxers().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, b.Active)
}

func TestBoxerRepo_OneProfilePerUser(t *testing.T) {
	s := NewStore()
	b := seedBoxer(t, s, "a", nil, boxer.ExperienceBeginner, "")
	dup := b.Clone()
	dup.ID = "a2"
	assert.ErrorIs(t, s.Boxers().Create(context.Background(), dup), boxer.ErrProfileAlreadyExists)
}

func TestMatchRepo_PendingUniquenessAndQueries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.MatchRequests()

	newReq := func(id, from, to string, at time.Time) *match.MatchRequest {
		r, err := match.NewMatchRequest(match.NewMatchRequestParams{
			ID: id, RequesterID: from, TargetID: to, Now: at, TTL: 7 * 24 * time.Hour,
		})
		require.NoError(t, err)
		return r
	}

	require.NoError(t, repo.Create(ctx, newReq("r1", "a", "b", now)))
	assert.ErrorIs(t, repo.Create(ctx, newReq("r2", "a", "b", now)), match.ErrDuplicateRequest)
	require.NoError(t, repo.Create(ctx, newReq("r3", "c", "a", now.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, newReq("r4", "d", "a", now.Add(2*time.Minute))))

	r4, err := repo.GetByID(ctx, "r4")
	require.NoError(t, err)
	require.NoError(t, r4.Decline("a", "", now.Add(time.Hour)))
	require.NoError(t, repo.Update(ctx, r4))

	page, total, err := repo.List(ctx, match.ListFilter{BoxerID: "a", Direction: match.DirectionIncoming, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "r4", page[0].ID)

	counts, err := repo.CountByStatus(ctx, "a", match.DirectionIncoming, now)
	require.NoError(t, err)
	assert.Equal(t, match.StatusCounts{Pending: 1, Declined: 1, Total: 2}, counts)

	later := now.Add(8 * 24 * time.Hour)
	counts, err = repo.CountByStatus(ctx, "a", match.DirectionIncoming, later)
	require.NoError(t, err)
	assert.Equal(t, match.StatusCounts{Declined: 1, Expired: 1, Total: 2}, counts)

	expired := match.StatusExpired
	page, total, err = repo.List(ctx, match.ListFilter{BoxerID: "a", Direction: match.DirectionIncoming, Status: &expired, Now: later})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, "r3", page[0].ID)
	assert.Equal(t, match.StatusExpired, page[0].Status)
	stored, err := repo.GetByID(ctx, "r3")
	require.NoError(t, err)
	assert.Equal(t, match.StatusPending, stored.Status)

	others, err := repo.PendingCounterparts(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, others)

	n, err := repo.ExpirePending(ctx, now.Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.FindPending(ctx, "a", "b")
	assert.ErrorIs(t, err, match.ErrRequestNotFound)
}

func TestClubRepo_ApproveMembershipIsAtomic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	b := seedBoxer(t, s, "a", nil, boxer.ExperienceBeginner, "")

	c, err := club.NewClub("c1", "owner", "Kronk Gym", "Detroit", "US", now)
	require.NoError(t, err)
	require.NoError(t, s.Clubs().Create(ctx, c))

	dup, err := club.NewClub("c2", "owner", "kronk gym", "", "", now)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Clubs().Create(ctx, dup), club.ErrSlugTaken)

	m := club.NewMembershipRequest("m1", b.UserID, c.ID, "", now)
	require.NoError(t, s.Clubs().SaveMembership(ctx, m))
	require.NoError(t, m.Approve("owner", now))
	require.NoError(t, s.Clubs().ApproveMembership(ctx, m, b.ID, c.ID, c.AffiliationLabel()))

	stored, err := s.Boxers().GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ClubID)
	assert.Equal(t, "c1", *stored.ClubID)
	assert.Equal(t, "Kronk Gym (Detroit)", stored.GymAffiliation)

	approved := club.MembershipApproved
	list, err := s.Clubs().ListMemberships(ctx, c.ID, &approved)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m1", list[0].ID)
}

func TestCache_TTLAndPattern(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	c := NewCache(clock)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "matches:a:{}", []string{"x"}, time.Minute))
	require.NoError(t, c.Set(ctx, `matches:b:{"city":"a/b"}`, 1, time.Minute))
	require.NoError(t, c.Set(ctx, "other", 1, 0))

	var got []string
	require.NoError(t, c.Get(ctx, "matches:a:{}", &got))
	assert.Equal(t, []string{"x"}, got)

	require.NoError(t, c.DeleteByPattern(ctx, "matches:*"))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Set(ctx, "matches:a:{}", []string{"y"}, time.Minute))
	clock.Advance(time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "matches:a:{}", &got), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "other", new(int)))
}

func ids(bs []*boxer.Boxer) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}
