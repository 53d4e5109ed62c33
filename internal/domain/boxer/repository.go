package boxer

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage operations for boxer profiles.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create stores a new profile.
	// Returns ErrProfileAlreadyExists if the user already owns a profile.
	Create(ctx context.Context, b *Boxer) error

	// GetByID returns a profile by id.
	// Returns ErrBoxerNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Boxer, error)

	// GetByUserID returns the profile owned by a user account.
	// Returns ErrBoxerNotFound if the user has no profile.
	GetByUserID(ctx context.Context, userID string) (*Boxer, error)

	// Update overwrites a profile.
	// Returns ErrBoxerNotFound if it does not exist.
	Update(ctx context.Context, b *Boxer) error

	// ─────────────────────────────────────────────────────────────────────────
	// Search
	// ─────────────────────────────────────────────────────────────────────────

	// Search returns matchable boxers (searchable and active) that satisfy the filter.
	// Results are ordered by id so repeated calls over the same data are stable.
	Search(ctx context.Context, filter SearchFilter) ([]*Boxer, error)
}

// SearchFilter narrows the candidate pool for matching.
type SearchFilter struct {
	// Experience restricts tiers. Empty means any tier.
	Experience []ExperienceLevel

	// Weight window. Applied only when both bounds are set.
	MinWeightKg *float64
	MaxWeightKg *float64

	// IncludeUnspecifiedWeight keeps boxers without a weight inside a weight window.
	IncludeUnspecifiedWeight bool

	// City and Country are case-insensitive substring filters.
	City    string
	Country string

	ExcludeIDs []string

	Limit int
}

// HasWeightWindow reports whether the filter restricts weight.
func (f SearchFilter) HasWeightWindow() bool {
	return f.MinWeightKg != nil && f.MaxWeightKg != nil
}

// Excludes reports whether id is in the exclusion list.
func (f SearchFilter) Excludes(id string) bool {
	for _, ex := range f.ExcludeIDs {
		if ex == id {
			return true
		}
	}
	return false
}
