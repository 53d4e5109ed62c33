package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
	"github.com/boxmatch/boxmatch-hub/pkg/security"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH REQUEST LIFECYCLE
// PENDING → ACCEPTED | DECLINED (target), CANCELLED (requester),
// EXPIRED (time). Terminal states never change again.
// ══════════════════════════════════════════════════════════════════════════════

// CreateMatchRequestCommand proposes a bout from requester to target.
type CreateMatchRequestCommand struct {
	RequesterID   string
	TargetID      string
	Message       string
	ProposedDate  *time.Time
	ProposedVenue string
}

// RespondCommand accepts or declines a request as its target.
type RespondCommand struct {
	RequestID       string
	ActingBoxerID   string
	ResponseMessage string
}

// CancelCommand withdraws a request as its requester.
type CancelCommand struct {
	RequestID     string
	ActingBoxerID string
}

// MatchRequestHandler runs every match-request transition.
type MatchRequestHandler struct {
	deps
	boxers   boxer.Repository
	requests match.Repository
	scorer   *matching.Scorer
	clock    clockwork.Clock
}

// NewMatchRequestHandler creates a new MatchRequestHandler.
func NewMatchRequestHandler(
	boxers boxer.Repository,
	requests match.Repository,
	scorer *matching.Scorer,
	publisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *MatchRequestHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MatchRequestHandler{
		deps:     newDeps(publisher, log, "match_requests"),
		boxers:   boxers,
		requests: requests,
		scorer:   scorer,
		clock:    clock,
	}
}

// WithIDGenerator overrides id generation.
func (h *MatchRequestHandler) WithIDGenerator(gen IDGenerator) *MatchRequestHandler {
	h.newID = gen
	return h
}

// ─────────────────────────────────────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────────────────────────────────────

// Create validates the pairing and persists a new PENDING request.
func (h *MatchRequestHandler) Create(ctx context.Context, cmd CreateMatchRequestCommand) (*match.MatchRequest, error) {
	if cmd.RequesterID == cmd.TargetID {
		return nil, match.ErrSelfRequest
	}

	target, err := h.boxers.GetByID(ctx, cmd.TargetID)
	if err != nil {
		return nil, err
	}
	if !target.IsMatchable() {
		return nil, match.ErrTargetUnavailable
	}

	requester, err := h.boxers.GetByID(ctx, cmd.RequesterID)
	if err != nil {
		return nil, err
	}

	if _, verdict := h.scorer.Evaluate(requester, target); !verdict.Compatible {
		return nil, match.ErrIncompatible.WithMessage("boxers are not compatible: %s", verdict.Reason)
	}

	if err := h.ensureNoPending(ctx, requester.ID, target.ID); err != nil {
		return nil, err
	}

	req, err := match.NewMatchRequest(match.NewMatchRequestParams{
		ID:            h.newID(),
		RequesterID:   requester.ID,
		TargetID:      target.ID,
		Message:       security.SanitizeText(cmd.Message),
		ProposedDate:  cmd.ProposedDate,
		ProposedVenue: security.SanitizeText(cmd.ProposedVenue),
		Now:           h.clock.Now(),
		TTL:           h.scorer.Policy().RequestExpiry,
	})
	if err != nil {
		return nil, err
	}

	// storage enforces one PENDING per ordered pair for concurrent creates
	if err := h.requests.Create(ctx, req); err != nil {
		if errors.Is(err, match.ErrDuplicateRequest) {
			return nil, match.ErrDuplicateRequest
		}
		return nil, fmt.Errorf("create_match_request: persist: %w", err)
	}

	h.log.Info("match request created",
		logger.MatchRequestID(req.ID),
		logger.String("requester_id", req.RequesterID),
		logger.String("target_id", req.TargetID),
	)
	h.publish(ctx, h.event(shared.EventMatchRequestCreated, req))
	return req, nil
}

func (h *MatchRequestHandler) ensureNoPending(ctx context.Context, requesterID, targetID string) error {
	_, err := h.requests.FindPending(ctx, requesterID, targetID)
	switch {
	case err == nil:
		return match.ErrDuplicateRequest
	case !shared.IsNotFound(err):
		return fmt.Errorf("create_match_request: duplicate check: %w", err)
	}

	_, err = h.requests.FindPending(ctx, targetID, requesterID)
	switch {
	case err == nil:
		return match.ErrReverseDuplicate
	case !shared.IsNotFound(err):
		return fmt.Errorf("create_match_request: reverse duplicate check: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Respond
// ─────────────────────────────────────────────────────────────────────────────

// Accept moves the request to ACCEPTED. A request found past its expiry is
// persisted as EXPIRED and the call fails.
func (h *MatchRequestHandler) Accept(ctx context.Context, cmd RespondCommand) (*match.MatchRequest, error) {
	return h.transition(ctx, cmd.RequestID, shared.EventMatchRequestAccepted, func(r *match.MatchRequest, now time.Time) error {
		return r.Accept(cmd.ActingBoxerID, security.SanitizeText(cmd.ResponseMessage), now)
	})
}

// Decline moves the request to DECLINED, with the same expiry handling as Accept.
func (h *MatchRequestHandler) Decline(ctx context.Context, cmd RespondCommand) (*match.MatchRequest, error) {
	return h.transition(ctx, cmd.RequestID, shared.EventMatchRequestDeclined, func(r *match.MatchRequest, now time.Time) error {
		return r.Decline(cmd.ActingBoxerID, security.SanitizeText(cmd.ResponseMessage), now)
	})
}

// Cancel moves the request to CANCELLED.
func (h *MatchRequestHandler) Cancel(ctx context.Context, cmd CancelCommand) (*match.MatchRequest, error) {
	return h.transition(ctx, cmd.RequestID, shared.EventMatchRequestCancelled, func(r *match.MatchRequest, now time.Time) error {
		return r.Cancel(cmd.ActingBoxerID, now)
	})
}

func (h *MatchRequestHandler) transition(
	ctx context.Context,
	id string,
	eventType shared.EventType,
	apply func(*match.MatchRequest, time.Time) error,
) (*match.MatchRequest, error) {
	req, err := h.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(req, h.clock.Now()); err != nil {
		if errors.Is(err, match.ErrRequestExpired) {
			h.persistExpiry(ctx, req)
		}
		return nil, err
	}

	if err := h.requests.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("match_requests: persist %s: %w", req.Status, err)
	}

	h.log.Info("match request updated", logger.MatchRequestID(req.ID), logger.String("status", string(req.Status)))
	h.publish(ctx, h.event(eventType, req))
	return req, nil
}

// persistExpiry stores the EXPIRED transition a failed response produced.
func (h *MatchRequestHandler) persistExpiry(ctx context.Context, req *match.MatchRequest) {
	if err := h.requests.Update(ctx, req); err != nil {
		h.log.Error("failed to persist expired match request", logger.MatchRequestID(req.ID), logger.Err(err))
		return
	}
	h.log.Info("match request expired on response", logger.MatchRequestID(req.ID))
	h.publish(ctx, h.event(shared.EventMatchRequestExpired, req))
}

// ─────────────────────────────────────────────────────────────────────────────
// Expire sweep
// ─────────────────────────────────────────────────────────────────────────────

// ExpireOldRequests moves every overdue PENDING request to EXPIRED and
// returns how many changed. It is idempotent.
func (h *MatchRequestHandler) ExpireOldRequests(ctx context.Context) (int, error) {
	n, err := h.requests.ExpirePending(ctx, h.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("expire_match_requests: %w", err)
	}
	if n > 0 {
		h.log.Info("expired overdue match requests", logger.Int("count", n))
	}
	return n, nil
}

func (h *MatchRequestHandler) event(t shared.EventType, r *match.MatchRequest) shared.Event {
	return shared.NewEvent(t, r.ID, h.clock.Now(), map[string]any{
		"requester_id": r.RequesterID,
		"target_id":    r.TargetID,
		"status":       string(r.Status),
	})
}
