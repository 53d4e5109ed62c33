package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
)

type recordingInvalidator struct {
	calls []string
	err   error
}

func (r *recordingInvalidator) InvalidateMatchCache(_ context.Context, boxerID string) error {
	r.calls = append(r.calls, boxerID)
	return r.err
}

func strPtr(s string) *string { return &s }

func newProfileHandler(e *env, cache CacheInvalidator) *BoxerProfileHandler {
	return NewBoxerProfileHandler(e.store.Boxers(), e.store.Clubs(), cache, e.pub, e.clock, nil).
		withID("boxer-new")
}

// withID pins the generated id for deterministic assertions.
func (h *BoxerProfileHandler) withID(id string) *BoxerProfileHandler {
	h.newID = func() string { return id }
	return h
}

func TestBoxerProfile_Create(t *testing.T) {
	e := newEnv(t)
	cache := &recordingInvalidator{}
	h := newProfileHandler(e, cache)

	b, err := h.Create(context.Background(), CreateBoxerProfileCommand{
		UserID:     "u-1",
		Name:       "  Anna <script>x</script>",
		WeightKg:   kg(61.5),
		Wins:       4,
		Experience: boxer.ExperienceIntermediate,
		City:       "Leeds",
	})
	require.NoError(t, err)
	assert.Equal(t, "boxer-new", b.ID)
	assert.Equal(t, "Anna", b.Name)
	assert.True(t, b.Searchable)
	assert.Equal(t, []string{"boxer-new"}, cache.calls)

	_, err = h.withID("boxer-2").Create(context.Background(), CreateBoxerProfileCommand{
		UserID: "u-1", Name: "Again", Experience: boxer.ExperienceBeginner,
	})
	assert.ErrorIs(t, err, boxer.ErrProfileAlreadyExists)
}

func TestBoxerProfile_CreateValidation(t *testing.T) {
	e := newEnv(t)
	h := newProfileHandler(e, nil)

	_, err := h.Create(context.Background(), CreateBoxerProfileCommand{
		UserID: "u-1", Name: "Heavy", WeightKg: kg(250), Experience: boxer.ExperienceBeginner,
	})
	assert.ErrorIs(t, err, boxer.ErrInvalidWeight)
	assert.True(t, shared.IsValidation(err))

	_, err = h.Create(context.Background(), CreateBoxerProfileCommand{
		UserID: "u-1", Name: "Neg", Losses: -1, Experience: boxer.ExperienceBeginner,
	})
	assert.ErrorIs(t, err, boxer.ErrInvalidRecord)
}

func TestBoxerProfile_UpdateAuthorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addBoxer(t, "a", kg(70), 0)

	gym, err := club.NewClub("club-1", "owner-1", "Iron Gym", "Leeds", "UK", t0)
	require.NoError(t, err)
	require.NoError(t, e.store.Clubs().Create(ctx, gym))

	b, err := e.store.Boxers().GetByID(ctx, "a")
	require.NoError(t, err)
	b.AssignClub(gym.ID, gym.AffiliationLabel(), t0)
	require.NoError(t, e.store.Boxers().Update(ctx, b))

	tests := []struct {
		name  string
		actor user.Actor
		ok    bool
	}{
		{"owner", user.Actor{UserID: "u-a", Role: user.RoleBoxer}, true},
		{"admin", user.Actor{UserID: "root", Role: user.RoleAdmin}, true},
		{"club owner", user.Actor{UserID: "owner-1", Role: user.RoleGymOwner}, true},
		{"club owner without role", user.Actor{UserID: "owner-1", Role: user.RoleBoxer}, false},
		{"other coach", user.Actor{UserID: "coach-2", Role: user.RoleCoach}, false},
		{"stranger", user.Actor{UserID: "u-x", Role: user.RoleBoxer}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &recordingInvalidator{}
			h := newProfileHandler(e, cache)
			got, err := h.Update(ctx, UpdateBoxerProfileCommand{
				Actor:   tt.actor,
				BoxerID: "a",
				Patch:   boxer.ProfilePatch{City: strPtr("York")},
			})
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, "York", got.City)
				assert.Equal(t, []string{"a"}, cache.calls)
				return
			}
			assert.ErrorIs(t, err, boxer.ErrProfileEditForbidden)
			assert.True(t, shared.IsForbidden(err))
			assert.Empty(t, cache.calls)
		})
	}
}

func TestBoxerProfile_UpdateKeepsWriteWhenInvalidationFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addBoxer(t, "a", kg(70), 0)
	h := newProfileHandler(e, &recordingInvalidator{err: errors.New("redis down")})

	hidden := false
	got, err := h.Update(ctx, UpdateBoxerProfileCommand{
		Actor:   user.Actor{UserID: "u-a", Role: user.RoleBoxer},
		BoxerID: "a",
		Patch:   boxer.ProfilePatch{Searchable: &hidden, ClearWeight: true},
	})
	require.NoError(t, err)
	assert.False(t, got.Searchable)
	assert.Nil(t, got.WeightKg)

	stored, err := e.store.Boxers().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.False(t, stored.Searchable)
	assert.Contains(t, e.pub.types(), shared.EventBoxerProfileUpdated)
}

func TestBoxerProfile_UpdateInvalidPatchLeavesProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.addBoxer(t, "a", kg(70), 0)
	h := newProfileHandler(e, nil)

	wins := -3
	_, err := h.Update(ctx, UpdateBoxerProfileCommand{
		Actor:   user.Actor{UserID: "u-a", Role: user.RoleBoxer},
		BoxerID: "a",
		Patch:   boxer.ProfilePatch{Wins: &wins, City: strPtr("York")},
	})
	assert.ErrorIs(t, err, boxer.ErrInvalidRecord)

	stored, err := e.store.Boxers().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, stored.City)
}
