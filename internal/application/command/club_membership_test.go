package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
)

var gymOwner = user.Actor{UserID: "owner-1", Role: user.RoleGymOwner}

func newClubFixture(t *testing.T) (*env, *ClubHandler, *recordingInvalidator, *club.Club) {
	t.Helper()
	e := newEnv(t)
	cache := &recordingInvalidator{}
	seq := 0
	h := NewClubHandler(e.store.Clubs(), e.store.Boxers(), cache, e.pub, e.clock, nil)
	h.newID = func() string { seq++; return fmt.Sprintf("id-%d", seq) }

	c, err := h.CreateClub(context.Background(), CreateClubCommand{
		Actor: gymOwner, Name: "Iron Fist Gym", City: "Leeds", Country: "UK",
	})
	require.NoError(t, err)
	return e, h, cache, c
}

func TestCreateClub(t *testing.T) {
	_, h, _, c := newClubFixture(t)
	assert.Equal(t, "iron-fist-gym", c.Slug)
	assert.Equal(t, gymOwner.UserID, c.OwnerID)

	_, err := h.CreateClub(context.Background(), CreateClubCommand{
		Actor: user.Actor{UserID: "u-9", Role: user.RoleBoxer}, Name: "Nope",
	})
	assert.ErrorIs(t, err, club.ErrClubCreateDenied)
	assert.True(t, shared.IsForbidden(err))
}

func TestRequestMembership_Upsert(t *testing.T) {
	e, h, _, c := newClubFixture(t)
	ctx := context.Background()

	first, err := h.RequestMembership(ctx, RequestMembershipCommand{UserID: "u-a", ClubID: c.ID, Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, club.MembershipPending, first.Status)

	again, err := h.RequestMembership(ctx, RequestMembershipCommand{UserID: "u-a", ClubID: c.ID, Message: "hello?"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "hi", again.Message)

	_, err = h.Reject(ctx, ReviewMembershipCommand{Actor: gymOwner, ClubID: c.ID, MembershipID: first.ID, Notes: "full"})
	require.NoError(t, err)

	e.clock.Advance(time.Hour)
	reopened, err := h.RequestMembership(ctx, RequestMembershipCommand{UserID: "u-a", ClubID: c.ID, Message: "please"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, reopened.ID)
	assert.Equal(t, club.MembershipPending, reopened.Status)
	assert.Equal(t, "please", reopened.Message)
	assert.Nil(t, reopened.ReviewedBy)
	assert.Nil(t, reopened.ReviewedAt)
	assert.Empty(t, reopened.Notes)

	_, err = h.RequestMembership(ctx, RequestMembershipCommand{UserID: "u-a", ClubID: "missing"})
	assert.ErrorIs(t, err, club.ErrClubNotFound)
}

func TestApproveMembership(t *testing.T) {
	e, h, cache, c := newClubFixture(t)
	ctx := context.Background()
	e.addBoxer(t, "a", kg(70), 0)

	m, err := h.RequestMembership(ctx, RequestMembershipCommand{UserID: "u-a", ClubID: c.ID})
	require.NoError(t, err)

	_, err = h.Approve(ctx, ReviewMembershipCommand{
		Actor: user.Actor{UserID: "intruder", Role: user.RoleGymOwner}, ClubID: c.ID, MembershipID: m.ID,
	})
	assert.ErrorIs(t, err, club.ErrNotClubOwner)

	approved, err := h.Approve(ctx, ReviewMembershipCommand{Actor: gymOwner, ClubID: c.ID, MembershipID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, club.MembershipApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, gymOwner.UserID, *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)

	b, err := e.store.Boxers().GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, b.ClubID)
	assert.Equal(t, c.ID, *b.ClubID)
	assert.Equal(t, "Iron Fist Gym (Leeds)", b.GymAffiliation)
	assert.Equal(t, []string{"a"}, cache.calls)

	_, err = h.RequestMembership(ctx, RequestMembershipCommand{UserID: "u-a", ClubID: c.ID})
	assert.ErrorIs(t, err, club.ErrAlreadyMember)
	assert.True(t, shared.IsValidation(err))

	_, err = h.Reject(ctx, ReviewMembershipCommand{Actor: gymOwner, ClubID: c.ID, MembershipID: m.ID})
	assert.ErrorIs(t, err, club.ErrMembershipNotOpen)
	assert.True(t, shared.IsConflict(err))
}

func TestApproveMembership_RequiresBoxerProfile(t *testing.T) {
	e, h, _, c := newClubFixture(t)
	ctx := context.Background()

	m, err := h.RequestMembership(ctx, RequestMembershipCommand{UserID: "coach-without-profile", ClubID: c.ID})
	require.NoError(t, err)

	_, err = h.Approve(ctx, ReviewMembershipCommand{Actor: gymOwner, ClubID: c.ID, MembershipID: m.ID})
	assert.ErrorIs(t, err, club.ErrNoBoxerProfile)

	stored, err := e.store.Clubs().GetMembershipByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, club.MembershipPending, stored.Status)
}

func TestReview_MembershipFromAnotherClub(t *testing.T) {
	_, h, _, c := newClubFixture(t)
	ctx := context.Background()

	other, err := h.CreateClub(ctx, CreateClubCommand{Actor: gymOwner, Name: "Second Gym"})
	require.NoError(t, err)
	m, err := h.RequestMembership(ctx, RequestMembershipCommand{UserID: "u-a", ClubID: other.ID})
	require.NoError(t, err)

	_, err = h.Reject(ctx, ReviewMembershipCommand{Actor: gymOwner, ClubID: c.ID, MembershipID: m.ID})
	assert.ErrorIs(t, err, club.ErrMembershipNotFound)
}
