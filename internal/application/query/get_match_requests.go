package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MATCH REQUESTS QUERY
// Lists a boxer's incoming or outgoing requests and aggregates per-status
// counts for both directions.
// ══════════════════════════════════════════════════════════════════════════════

// Paging defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// GetMatchRequestsQuery selects one page of a boxer's requests.
type GetMatchRequestsQuery struct {
	BoxerID   string
	Direction match.Direction

	// Status is optional.
	Status *match.Status

	// Page is 1-based.
	Page     int
	PageSize int
}

// Validate normalizes paging and checks the direction.
func (q *GetMatchRequestsQuery) Validate() error {
	if q.BoxerID == "" {
		return shared.NewDomainError("match", "List", shared.ErrInvalidID, "boxer id is required")
	}
	if q.Direction == "" {
		q.Direction = match.DirectionIncoming
	}
	if q.Direction != match.DirectionIncoming && q.Direction != match.DirectionOutgoing {
		return match.ErrInvalidDirection
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return nil
}

// MatchRequestPage is one page of requests.
type MatchRequestPage struct {
	Items      []*match.MatchRequest
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// GetMatchRequestsHandler serves request listings, stats and single reads.
type GetMatchRequestsHandler struct {
	requests  match.Repository
	publisher shared.EventPublisher
	clock     clockwork.Clock
	log       *logger.Logger
}

// NewGetMatchRequestsHandler creates a new GetMatchRequestsHandler.
func NewGetMatchRequestsHandler(
	requests match.Repository,
	publisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *GetMatchRequestsHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &GetMatchRequestsHandler{
		requests:  requests,
		publisher: publisher,
		clock:     clock,
		log:       log.Named("get_match_requests"),
	}
}

// Handle returns a page of requests, newest first. PENDING requests past
// their expiry are listed and filtered as EXPIRED; storage is left to Get,
// the responses and the expiry sweep.
func (h *GetMatchRequestsHandler) Handle(ctx context.Context, q GetMatchRequestsQuery) (*MatchRequestPage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	items, total, err := h.requests.List(ctx, match.ListFilter{
		BoxerID:   q.BoxerID,
		Direction: q.Direction,
		Status:    q.Status,
		Now:       h.clock.Now(),
		Offset:    (q.Page - 1) * q.PageSize,
		Limit:     q.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("get_match_requests: list: %w", err)
	}

	return &MatchRequestPage{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
	}, nil
}

// Stats returns per-status counts for incoming and outgoing requests, with
// overdue PENDING requests counted as EXPIRED.
func (h *GetMatchRequestsHandler) Stats(ctx context.Context, boxerID string) (*match.Stats, error) {
	now := h.clock.Now()
	incoming, err := h.requests.CountByStatus(ctx, boxerID, match.DirectionIncoming, now)
	if err != nil {
		return nil, fmt.Errorf("get_match_requests: count incoming: %w", err)
	}
	outgoing, err := h.requests.CountByStatus(ctx, boxerID, match.DirectionOutgoing, now)
	if err != nil {
		return nil, fmt.Errorf("get_match_requests: count outgoing: %w", err)
	}
	return &match.Stats{Incoming: incoming, Outgoing: outgoing}, nil
}

// Get returns one request to one of its participants. A PENDING request past
// its expiry is persisted as EXPIRED before being returned.
func (h *GetMatchRequestsHandler) Get(ctx context.Context, id, actingBoxerID string) (*match.MatchRequest, error) {
	req, err := h.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Involves(actingBoxerID) {
		return nil, match.ErrNotParticipant
	}

	if req.ExpireIfDue(h.clock.Now()) {
		if err := h.requests.Update(ctx, req); err != nil {
			return nil, fmt.Errorf("get_match_requests: persist expiry: %w", err)
		}
		h.log.Info("match request expired on read", logger.MatchRequestID(req.ID))
		event := shared.NewEvent(shared.EventMatchRequestExpired, req.ID, h.clock.Now(), map[string]any{
			"requester_id": req.RequesterID,
			"target_id":    req.TargetID,
		})
		if err := h.publisher.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
			h.log.Warn("failed to publish event", logger.String("event", string(event.Type)), logger.Err(err))
		}
	}
	return req, nil
}
