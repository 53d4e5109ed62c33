// Package match contains the match-request aggregate: a proposal from one
// boxer to another with a PENDING → terminal state machine.
package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the state of a match request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Statuses lists every status, initial first.
var Statuses = []Status{StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusExpired}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", ErrInvalidStatus.WithMessage("unknown match request status %q", s)
	}
	return status, nil
}

// IsValid reports whether the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsPending returns true for the only non-terminal status.
func (s Status) IsPending() bool {
	return s == StatusPending
}

// IsFinal returns true for terminal statuses.
func (s Status) IsFinal() bool {
	return s.IsValid() && s != StatusPending
}

// Direction selects requests by the boxer's role in them.
type Direction string

const (
	// DirectionIncoming selects requests where the boxer is the target.
	DirectionIncoming Direction = "incoming"
	// DirectionOutgoing selects requests where the boxer is the requester.
	DirectionOutgoing Direction = "outgoing"
)

// ParseDirection parses a direction, defaulting to incoming for empty input.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionIncoming:
		return DirectionIncoming, nil
	case DirectionOutgoing:
		return DirectionOutgoing, nil
	default:
		return "", ErrInvalidDirection
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrRequestNotFound   = shared.NewDomainError("match", "Find", shared.ErrNotFound, "match request not found")
	ErrSelfRequest       = shared.NewDomainError("match", "Create", shared.ErrValidation, "cannot send a match request to yourself")
	ErrTargetUnavailable = shared.NewDomainError("match", "Create", shared.ErrValidation, "target boxer is not available for matching")
	ErrIncompatible      = shared.NewDomainError("match", "Create", shared.ErrValidation, "boxers are not compatible")
	ErrDuplicateRequest  = shared.NewDomainError("match", "Create", shared.ErrAlreadyExists, "a pending match request to this boxer already exists")
	ErrReverseDuplicate  = shared.NewDomainError("match", "Create", shared.ErrAlreadyExists, "this boxer has already sent you a pending match request; respond to it instead")
	ErrNotTarget         = shared.NewDomainError("match", "Respond", shared.ErrForbidden, "only the target boxer can respond to this match request")
	ErrNotRequester      = shared.NewDomainError("match", "Cancel", shared.ErrForbidden, "only the requesting boxer can cancel this match request")
	ErrNotParticipant    = shared.NewDomainError("match", "Find", shared.ErrForbidden, "not a participant of this match request")
	ErrNotPending        = shared.NewDomainError("match", "Transition", shared.ErrAlreadyProcessed, "match request has already been processed")
	ErrRequestExpired    = shared.NewDomainError("match", "Transition", shared.ErrExpired, "match request has expired")
	ErrInvalidStatus     = shared.NewDomainError("match", "Parse", shared.ErrInvalidInput, "invalid match request status")
	ErrInvalidDirection  = shared.NewDomainError("match", "Parse", shared.ErrInvalidInput, "direction must be incoming or outgoing")
	ErrMessageTooLong    = shared.NewDomainError("match", "Create", shared.ErrValueOutOfRange, "message is too long")
)

// MaxMessageLength bounds request and response messages.
const MaxMessageLength = 1000

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: MATCH REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// MatchRequest is a proposal from the requester boxer to the target boxer.
type MatchRequest struct {
	ID          string
	RequesterID string
	TargetID    string
	Status      Status

	Message         string
	ResponseMessage string

	ProposedDate  *time.Time
	ProposedVenue string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
	RespondedAt *time.Time
}

// NewMatchRequestParams holds the input for a new request.
type NewMatchRequestParams struct {
	ID            string
	RequesterID   string
	TargetID      string
	Message       string
	ProposedDate  *time.Time
	ProposedVenue string
	Now           time.Time
	TTL           time.Duration
}

// NewMatchRequest builds a PENDING request expiring at Now+TTL.
func NewMatchRequest(p NewMatchRequestParams) (*MatchRequest, error) {
	if p.ID == "" || p.RequesterID == "" || p.TargetID == "" {
		return nil, shared.NewDomainError("match", "Create", shared.ErrInvalidID, "request, requester and target ids are required")
	}
	if p.RequesterID == p.TargetID {
		return nil, ErrSelfRequest
	}
	if len(p.Message) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	now := p.Now.UTC()
	return &MatchRequest{
		ID:            p.ID,
		RequesterID:   p.RequesterID,
		TargetID:      p.TargetID,
		Status:        StatusPending,
		Message:       p.Message,
		ProposedDate:  p.ProposedDate,
		ProposedVenue: strings.TrimSpace(p.ProposedVenue),
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(p.TTL),
	}, nil
}

// IsExpiredAt reports whether a PENDING request is past its expiry at now.
func (r *MatchRequest) IsExpiredAt(now time.Time) bool {
	return r.Status.IsPending() && now.After(r.ExpiresAt)
}

// StatusAt is the status the request has at now: EXPIRED for an overdue
// PENDING request, the stored status otherwise. A zero now reads the stored status.
func (r *MatchRequest) StatusAt(now time.Time) Status {
	if r.IsExpiredAt(now) {
		return StatusExpired
	}
	return r.Status
}

// Involves reports whether the boxer is the requester or the target.
func (r *MatchRequest) Involves(boxerID string) bool {
	return r.RequesterID == boxerID || r.TargetID == boxerID
}

// Counterpart returns the other participant.
func (r *MatchRequest) Counterpart(boxerID string) string {
	if r.RequesterID == boxerID {
		return r.TargetID
	}
	return r.RequesterID
}

// ─────────────────────────────────────────────────────────────────────────────
// Transitions
// ─────────────────────────────────────────────────────────────────────────────

// Accept moves the request to ACCEPTED. An expired request is moved to
// EXPIRED instead and ErrRequestExpired is returned; the caller must persist
// the request in both cases.
func (r *MatchRequest) Accept(actingBoxerID, response string, now time.Time) error {
	return r.respond(StatusAccepted, actingBoxerID, response, now)
}

// Decline moves the request to DECLINED, with the same expiry handling as
// Accept: a request cannot be declined once it has expired.
func (r *MatchRequest) Decline(actingBoxerID, response string, now time.Time) error {
	return r.respond(StatusDeclined, actingBoxerID, response, now)
}

func (r *MatchRequest) respond(to Status, actingBoxerID, response string, now time.Time) error {
	if actingBoxerID != r.TargetID {
		return ErrNotTarget
	}
	if err := r.requirePending(); err != nil {
		return err
	}
	if len(response) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if r.IsExpiredAt(now) {
		r.markExpired(now)
		return ErrRequestExpired
	}

	at := now.UTC()
	r.Status = to
	r.ResponseMessage = response
	r.RespondedAt = &at
	r.UpdatedAt = at
	return nil
}

// Cancel moves the request to CANCELLED. Only the requester may cancel.
func (r *MatchRequest) Cancel(actingBoxerID string, now time.Time) error {
	if actingBoxerID != r.RequesterID {
		return ErrNotRequester
	}
	if err := r.requirePending(); err != nil {
		return err
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now.UTC()
	return nil
}

// ExpireIfDue moves a PENDING request past its expiry to EXPIRED.
// It reports whether the status changed.
func (r *MatchRequest) ExpireIfDue(now time.Time) bool {
	if !r.IsExpiredAt(now) {
		return false
	}
	r.markExpired(now)
	return true
}

func (r *MatchRequest) markExpired(now time.Time) {
	r.Status = StatusExpired
	r.UpdatedAt = now.UTC()
}

func (r *MatchRequest) requirePending() error {
	if !r.Status.IsPending() {
		return ErrNotPending.WithMessage("match request is already %s", r.Status)
	}
	return nil
}

// Clone returns a deep copy.
func (r *MatchRequest) Clone() *MatchRequest {
	if r == nil {
		return nil
	}
	clone := *r
	if r.ProposedDate != nil {
		d := *r.ProposedDate
		clone.ProposedDate = &d
	}
	if r.RespondedAt != nil {
		t := *r.RespondedAt
		clone.RespondedAt = &t
	}
	return &clone
}

// String returns a string representation for logging.
func (r *MatchRequest) String() string {
	return fmt.Sprintf("MatchRequest{ID: %s, %s -> %s, Status: %s}", r.ID, r.RequesterID, r.TargetID, r.Status)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// StatusCounts holds per-status totals for one direction.
type StatusCounts struct {
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Declined  int `json:"declined"`
	Cancelled int `json:"cancelled"`
	Expired   int `json:"expired"`
	Total     int `json:"total"`
}

// Add adds n requests of the given status.
func (c *StatusCounts) Add(status Status, n int) {
	switch status {
	case StatusPending:
		c.Pending += n
	case StatusAccepted:
		c.Accepted += n
	case StatusDeclined:
		c.Declined += n
	case StatusCancelled:
		c.Cancelled += n
	case StatusExpired:
		c.Expired += n
	default:
		return
	}
	c.Total += n
}

// Stats aggregates incoming and outgoing counts independently.
type Stats struct {
	Incoming StatusCounts `json:"incoming"`
	Outgoing StatusCounts `json:"outgoing"`
}
