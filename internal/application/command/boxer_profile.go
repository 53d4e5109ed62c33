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
// BOXER PROFILE COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// CreateBoxerProfileCommand creates the caller's own profile.
type CreateBoxerProfileCommand struct {
	UserID     string
	Name       string
	WeightKg   *float64
	Wins       int
	Losses     int
	Draws      int
	Experience boxer.ExperienceLevel
	City       string
	Country    string
	Bio        string
}

// UpdateBoxerProfileCommand applies a patch on behalf of an actor.
type UpdateBoxerProfileCommand struct {
	Actor   user.Actor
	BoxerID string
	Patch   boxer.ProfilePatch
}

// BoxerProfileHandler creates and edits boxer profiles.
type BoxerProfileHandler struct {
	deps
	boxers boxer.Repository
	clubs  club.Repository
	cache  CacheInvalidator
	clock  clockwork.Clock
}

// NewBoxerProfileHandler creates a new BoxerProfileHandler.
func NewBoxerProfileHandler(
	boxers boxer.Repository,
	clubs club.Repository,
	cache CacheInvalidator,
	publisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *BoxerProfileHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BoxerProfileHandler{
		deps:   newDeps(publisher, log, "boxer_profile"),
		boxers: boxers,
		clubs:  clubs,
		cache:  cache,
		clock:  clock,
	}
}

// Create stores a new searchable profile owned by cmd.UserID.
func (h *BoxerProfileHandler) Create(ctx context.Context, cmd CreateBoxerProfileCommand) (*boxer.Boxer, error) {
	b, err := boxer.NewBoxer(boxer.NewBoxerParams{
		ID:         h.newID(),
		UserID:     cmd.UserID,
		Name:       security.SanitizeText(cmd.Name),
		WeightKg:   cmd.WeightKg,
		Wins:       cmd.Wins,
		Losses:     cmd.Losses,
		Draws:      cmd.Draws,
		Experience: cmd.Experience,
		City:       security.SanitizeText(cmd.City),
		Country:    security.SanitizeText(cmd.Country),
		Bio:        security.SanitizeText(cmd.Bio),
		Now:        h.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := h.boxers.Create(ctx, b); err != nil {
		if shared.IsAlreadyExists(err) {
			return nil, err
		}
		return nil, fmt.Errorf("boxer_profile: create: %w", err)
	}

	h.log.Info("boxer profile created", logger.BoxerID(b.ID), logger.UserID(b.UserID))
	h.invalidate(ctx, h.cache, b.ID)
	return b, nil
}

// Update applies the patch when the actor owns the profile, is an admin, or
// owns the boxer's club. The match cache is cleared after the write.
func (h *BoxerProfileHandler) Update(ctx context.Context, cmd UpdateBoxerProfileCommand) (*boxer.Boxer, error) {
	b, err := h.boxers.GetByID(ctx, cmd.BoxerID)
	if err != nil {
		return nil, err
	}

	if err := h.authorize(ctx, cmd.Actor, b); err != nil {
		return nil, err
	}

	if err := b.Apply(sanitizePatch(cmd.Patch), h.clock.Now()); err != nil {
		return nil, err
	}

	if err := h.boxers.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("boxer_profile: update: %w", err)
	}

	h.log.Info("boxer profile updated", logger.BoxerID(b.ID), logger.UserID(cmd.Actor.UserID))
	h.invalidate(ctx, h.cache, b.ID)
	h.publish(ctx, shared.NewEvent(shared.EventBoxerProfileUpdated, b.ID, h.clock.Now(), map[string]any{
		"updated_by": cmd.Actor.UserID,
		"searchable": b.Searchable,
	}))
	return b, nil
}

func (h *BoxerProfileHandler) authorize(ctx context.Context, actor user.Actor, b *boxer.Boxer) error {
	if actor.UserID == b.UserID || actor.IsAdmin() {
		return nil
	}
	if b.ClubID == nil || (actor.Role != user.RoleCoach && actor.Role != user.RoleGymOwner) {
		return boxer.ErrProfileEditForbidden
	}
	c, err := h.clubs.GetByID(ctx, *b.ClubID)
	if err != nil {
		if shared.IsNotFound(err) {
			return boxer.ErrProfileEditForbidden
		}
		return fmt.Errorf("boxer_profile: load club: %w", err)
	}
	if !c.IsOwnedBy(actor.UserID) {
		return boxer.ErrProfileEditForbidden
	}
	return nil
}

func sanitizePatch(p boxer.ProfilePatch) boxer.ProfilePatch {
	clean := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := security.SanitizeText(*s)
		return &v
	}
	p.Name = clean(p.Name)
	p.City = clean(p.City)
	p.Country = clean(p.Country)
	p.Bio = clean(p.Bio)
	return p
}
