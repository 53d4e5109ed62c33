package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
)

var t0 = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func pending(t *testing.T) *MatchRequest {
	t.Helper()
	r, err := NewMatchRequest(NewMatchRequestParams{
		ID: "r-1", RequesterID: "a", TargetID: "b",
		Message: "spar on Saturday?", Now: t0, TTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return r
}

func TestNewMatchRequest(t *testing.T) {
	r := pending(t)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, t0.Add(7*24*time.Hour), r.ExpiresAt)
	assert.True(t, r.Involves("a"))
	assert.Equal(t, "b", r.Counterpart("a"))
	assert.Equal(t, "a", r.Counterpart("b"))

	_, err := NewMatchRequest(NewMatchRequestParams{ID: "r-2", RequesterID: "x", TargetID: "x", Now: t0})
	assert.ErrorIs(t, err, ErrSelfRequest)
	assert.True(t, shared.IsValidation(err))
}

func TestMatchRequest_Accept(t *testing.T) {
	r := pending(t)

	err := r.Accept("a", "", t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotTarget)
	assert.True(t, shared.IsForbidden(err))

	require.NoError(t, r.Accept("b", "see you there", t0.Add(time.Hour)))
	assert.Equal(t, StatusAccepted, r.Status)
	assert.Equal(t, "see you there", r.ResponseMessage)
	require.NotNil(t, r.RespondedAt)

	err = r.Cancel("a", t0.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotPending)
	assert.True(t, shared.IsConflict(err))
	assert.Contains(t, err.Error(), "ACCEPTED")
}

func TestMatchRequest_RespondAfterExpiry(t *testing.T) {
	for name, respond := range map[string]func(*MatchRequest, time.Time) error{
		"accept":  func(r *MatchRequest, now time.Time) error { return r.Accept("b", "", now) },
		"decline": func(r *MatchRequest, now time.Time) error { return r.Decline("b", "", now) },
	} {
		t.Run(name, func(t *testing.T) {
			r := pending(t)
			err := respond(r, r.ExpiresAt.Add(time.Second))
			assert.ErrorIs(t, err, ErrRequestExpired)
			assert.Equal(t, StatusExpired, r.Status)
			assert.Nil(t, r.RespondedAt)
		})
	}
}

func TestMatchRequest_ExpiryBoundary(t *testing.T) {
	r := pending(t)
	// exactly at expiry is not yet expired
	require.NoError(t, r.Decline("b", "no thanks", r.ExpiresAt))
	assert.Equal(t, StatusDeclined, r.Status)
}

func TestMatchRequest_Cancel(t *testing.T) {
	r := pending(t)
	assert.ErrorIs(t, r.Cancel("b", t0), ErrNotRequester)
	assert.ErrorIs(t, r.Cancel("stranger", t0), ErrNotRequester)
	require.NoError(t, r.Cancel("a", t0))
	assert.Equal(t, StatusCancelled, r.Status)
	assert.ErrorIs(t, r.Accept("b", "", t0), ErrNotPending)
}

func TestMatchRequest_ExpireIfDue(t *testing.T) {
	r := pending(t)
	assert.False(t, r.ExpireIfDue(t0.Add(24*time.Hour)))
	assert.True(t, r.ExpireIfDue(t0.Add(8*24*time.Hour)))
	assert.Equal(t, StatusExpired, r.Status)
	assert.False(t, r.ExpireIfDue(t0.Add(9*24*time.Hour)))
}

func TestStatusCounts_Add(t *testing.T) {
	var c StatusCounts
	c.Add(StatusPending, 2)
	c.Add(StatusExpired, 1)
	c.Add(Status("BOGUS"), 5)
	assert.Equal(t, StatusCounts{Pending: 2, Expired: 1, Total: 3}, c)
}

func TestParse(t *testing.T) {
	s, err := ParseStatus("accepted")
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, s)
	_, err = ParseStatus("done")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	d, err := ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, DirectionIncoming, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestListFilter_Matches(t *testing.T) {
	r := pending(t)
	accepted := StatusAccepted
	assert.True(t, ListFilter{BoxerID: "b", Direction: DirectionIncoming}.Matches(r))
	assert.False(t, ListFilter{BoxerID: "a", Direction: DirectionIncoming}.Matches(r))
	assert.True(t, ListFilter{BoxerID: "a", Direction: DirectionOutgoing}.Matches(r))
	assert.False(t, ListFilter{BoxerID: "a", Direction: DirectionOutgoing, Status: &accepted}.Matches(r))

	pendingStatus, expired := StatusPending, StatusExpired
	overdue := r.ExpiresAt.Add(time.Second)
	assert.True(t, ListFilter{BoxerID: "b", Status: &pendingStatus}.Matches(r))
	assert.False(t, ListFilter{BoxerID: "b", Status: &pendingStatus, Now: overdue}.Matches(r))
	assert.True(t, ListFilter{BoxerID: "b", Status: &expired, Now: overdue}.Matches(r))
}

func TestMatchRequest_StatusAt(t *testing.T) {
	r := pending(t)
	assert.Equal(t, StatusPending, r.StatusAt(time.Time{}))
	assert.Equal(t, StatusPending, r.StatusAt(r.ExpiresAt))
	assert.Equal(t, StatusExpired, r.StatusAt(r.ExpiresAt.Add(time.Second)))
	assert.Equal(t, StatusPending, r.Status)

	require.NoError(t, r.Decline("b", "", r.ExpiresAt))
	assert.Equal(t, StatusDeclined, r.StatusAt(r.ExpiresAt.Add(time.Hour)))
}
