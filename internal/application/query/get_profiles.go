package query

import (
	"context"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// GetProfilesHandler serves boxer and club reads.
type GetProfilesHandler struct {
	boxers boxer.Repository
	clubs  club.Repository
}

// NewGetProfilesHandler creates a new GetProfilesHandler.
func NewGetProfilesHandler(boxers boxer.Repository, clubs club.Repository) *GetProfilesHandler {
	return &GetProfilesHandler{boxers: boxers, clubs: clubs}
}

// Boxer returns a boxer profile by id.
func (h *GetProfilesHandler) Boxer(ctx context.Context, id string) (*boxer.Boxer, error) {
	return h.boxers.GetByID(ctx, id)
}

// BoxerForUser returns the profile owned by a user.
func (h *GetProfilesHandler) BoxerForUser(ctx context.Context, userID string) (*boxer.Boxer, error) {
	return h.boxers.GetByUserID(ctx, userID)
}

// Club returns a club by id.
func (h *GetProfilesHandler) Club(ctx context.Context, id string) (*club.Club, error) {
	return h.clubs.GetByID(ctx, id)
}

// Memberships lists a club's membership requests. Only the owner or an admin may list them.
func (h *GetProfilesHandler) Memberships(ctx context.Context, actor user.Actor, clubID string, status *club.MembershipStatus) ([]*club.MembershipRequest, error) {
	c, err := h.clubs.GetByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, club.ErrNotClubOwner
	}
	return h.clubs.ListMemberships(ctx, clubID, status)
}
