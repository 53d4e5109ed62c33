package command

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
	"github.com/boxmatch/boxmatch-hub/pkg/security"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLUB MEMBERSHIP COMMANDS
// PENDING → APPROVED | REJECTED by the club owner. A rejected user may ask
// again, which reopens the same record.
// ══════════════════════════════════════════════════════════════════════════════

// CreateClubCommand registers a club owned by the actor.
type CreateClubCommand struct {
	Actor   user.Actor
	Name    string
	City    string
	Country string
}

// RequestMembershipCommand asks to join a club.
type RequestMembershipCommand struct {
	UserID  string
	ClubID  string
	Message string
}

// ReviewMembershipCommand approves or rejects a request.
type ReviewMembershipCommand struct {
	Actor        user.Actor
	ClubID       string
	MembershipID string
	Notes        string
}

// ClubHandler manages clubs and membership requests.
type ClubHandler struct {
	deps
	clubs  club.Repository
	boxers boxer.Repository
	cache  CacheInvalidator
	clock  clockwork.Clock
}

// NewClubHandler creates a new ClubHandler.
func NewClubHandler(
	clubs club.Repository,
	boxers boxer.Repository,
	cache CacheInvalidator,
	publisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *ClubHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClubHandler{
		deps:   newDeps(publisher, log, "club_membership"),
		clubs:  clubs,
		boxers: boxers,
		cache:  cache,
		clock:  clock,
	}
}

// CreateClub stores a new club. Only gym owners, coaches and admins may create one.
func (h *ClubHandler) CreateClub(ctx context.Context, cmd CreateClubCommand) (*club.Club, error) {
	if !cmd.Actor.Role.CanManageClubs() {
		return nil, club.ErrClubCreateDenied
	}
	c, err := club.NewClub(h.newID(), cmd.Actor.UserID,
		security.SanitizeText(cmd.Name),
		security.SanitizeText(cmd.City),
		security.SanitizeText(cmd.Country),
		h.clock.Now(),
	)
	if err != nil {
		return nil, err
	}
	if err := h.clubs.Create(ctx, c); err != nil {
		if shared.IsAlreadyExists(err) {
			return nil, err
		}
		return nil, fmt.Errorf("club: create: %w", err)
	}
	h.log.Info("club created", logger.ClubID(c.ID), logger.String("slug", c.Slug))
	return c, nil
}

// RequestMembership creates a PENDING request, or returns the existing one.
// A rejected request is reopened; an approved one fails as already a member.
func (h *ClubHandler) RequestMembership(ctx context.Context, cmd RequestMembershipCommand) (*club.MembershipRequest, error) {
	if _, err := h.clubs.GetByID(ctx, cmd.ClubID); err != nil {
		return nil, err
	}
	message := security.SanitizeText(cmd.Message)

	existing, err := h.clubs.GetMembership(ctx, cmd.UserID, cmd.ClubID)
	switch {
	case err == nil:
		changed, err := existing.Reopen(message, h.clock.Now())
		if err != nil {
			return nil, err
		}
		if !changed {
			return existing, nil
		}
		if err := h.clubs.SaveMembership(ctx, existing); err != nil {
			return nil, fmt.Errorf("club: reopen membership: %w", err)
		}
		h.publishMembership(ctx, shared.EventMembershipRequested, existing)
		return existing, nil
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("club: load membership: %w", err)
	}

	m := club.NewMembershipRequest(h.newID(), cmd.UserID, cmd.ClubID, message, h.clock.Now())
	if err := h.clubs.SaveMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("club: save membership: %w", err)
	}
	h.log.Info("membership requested", logger.UserID(m.UserID), logger.ClubID(m.ClubID))
	h.publishMembership(ctx, shared.EventMembershipRequested, m)
	return m, nil
}

// Approve assigns the requesting user's boxer to the club and marks the
// request APPROVED in one transaction.
func (h *ClubHandler) Approve(ctx context.Context, cmd ReviewMembershipCommand) (*club.MembershipRequest, error) {
	c, m, err := h.loadForReview(ctx, cmd)
	if err != nil {
		return nil, err
	}

	b, err := h.boxers.GetByUserID(ctx, m.UserID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, club.ErrNoBoxerProfile
		}
		return nil, fmt.Errorf("club: load boxer: %w", err)
	}

	if err := m.Approve(cmd.Actor.UserID, h.clock.Now()); err != nil {
		return nil, err
	}
	if err := h.clubs.ApproveMembership(ctx, m, b.ID, c.ID, c.AffiliationLabel()); err != nil {
		return nil, fmt.Errorf("club: approve membership: %w", err)
	}

	h.log.Info("membership approved", logger.ClubID(c.ID), logger.BoxerID(b.ID))
	h.invalidate(ctx, h.cache, b.ID)
	h.publishMembership(ctx, shared.EventMembershipApproved, m)
	return m, nil
}

// Reject marks a PENDING request REJECTED with optional notes.
func (h *ClubHandler) Reject(ctx context.Context, cmd ReviewMembershipCommand) (*club.MembershipRequest, error) {
	_, m, err := h.loadForReview(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := m.Reject(cmd.Actor.UserID, security.SanitizeText(cmd.Notes), h.clock.Now()); err != nil {
		return nil, err
	}
	if err := h.clubs.SaveMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("club: reject membership: %w", err)
	}
	h.log.Info("membership rejected", logger.ClubID(m.ClubID), logger.UserID(m.UserID))
	h.publishMembership(ctx, shared.EventMembershipRejected, m)
	return m, nil
}

// loadForReview checks the club, its ownership and that the request belongs to it.
func (h *ClubHandler) loadForReview(ctx context.Context, cmd ReviewMembershipCommand) (*club.Club, *club.MembershipRequest, error) {
	c, err := h.clubs.GetByID(ctx, cmd.ClubID)
	if err != nil {
		return nil, nil, err
	}
	if !c.IsOwnedBy(cmd.Actor.UserID) {
		return nil, nil, club.ErrNotClubOwner
	}
	m, err := h.clubs.GetMembershipByID(ctx, cmd.MembershipID)
	if err != nil {
		return nil, nil, err
	}
	if m.ClubID != c.ID {
		return nil, nil, club.ErrMembershipNotFound
	}
	return c, m, nil
}

func (h *ClubHandler) publishMembership(ctx context.Context, t shared.EventType, m *club.MembershipRequest) {
	h.publish(ctx, shared.NewEvent(t, m.ID, h.clock.Now(), map[string]any{
		"user_id": m.UserID,
		"club_id": m.ClubID,
		"status":  string(m.Status),
	}))
}
