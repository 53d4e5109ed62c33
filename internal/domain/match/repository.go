package match

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage operations for match requests.
type Repository interface {
	// Create stores a new PENDING request.
	// Returns ErrDuplicateRequest if a PENDING request already exists for
	// the same ordered (requester, target) pair.
	Create(ctx context.Context, r *MatchRequest) error

	// GetByID returns a request by id.
	// Returns ErrRequestNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*MatchRequest, error)

	// Update overwrites a request.
	// Returns ErrRequestNotFound if it does not exist.
	Update(ctx context.Context, r *MatchRequest) error

	// FindPending returns the PENDING request requester → target.
	// Returns ErrRequestNotFound if there is none.
	FindPending(ctx context.Context, requesterID, targetID string) (*MatchRequest, error)

	// List returns a page of requests for a boxer and the total matching the filter.
	// Newest first.
	List(ctx context.Context, filter ListFilter) ([]*MatchRequest, int, error)

	// CountByStatus returns per-status counts for a boxer in one direction.
	// PENDING requests past their expiry at now are counted as EXPIRED.
	CountByStatus(ctx context.Context, boxerID string, direction Direction, now time.Time) (StatusCounts, error)

	// ExpirePending moves every PENDING request with expiry before now to EXPIRED
	// and returns how many were changed.
	ExpirePending(ctx context.Context, now time.Time) (int, error)

	// PendingCounterparts returns the ids of boxers that share a PENDING request
	// with the boxer, in either direction.
	PendingCounterparts(ctx context.Context, boxerID string) ([]string, error)
}

// ListFilter selects requests for one boxer.
type ListFilter struct {
	BoxerID   string
	Direction Direction

	// Status is optional.
	Status *Status

	// Now, when set, makes PENDING requests past their expiry read and
	// filter as EXPIRED. Nothing is written.
	Now time.Time

	Offset int
	Limit  int
}

// Matches reports whether r satisfies the filter, ignoring pagination.
func (f ListFilter) Matches(r *MatchRequest) bool {
	switch f.Direction {
	case DirectionOutgoing:
		if r.RequesterID != f.BoxerID {
			return false
		}
	default:
		if r.TargetID != f.BoxerID {
			return false
		}
	}
	return f.Status == nil || r.StatusAt(f.Now) == *f.Status
}
