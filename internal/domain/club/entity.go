// Package club contains clubs and the membership-request workflow through
// which a boxer joins a club.
package club

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrClubNotFound       = shared.NewDomainError("club", "Find", shared.ErrNotFound, "club not found")
	ErrSlugTaken          = shared.NewDomainError("club", "Create", shared.ErrAlreadyExists, "a club with this name already exists")
	ErrInvalidClubName    = shared.NewDomainError("club", "Create", shared.ErrEmptyValue, "club name is required")
	ErrNotClubOwner       = shared.NewDomainError("club", "Review", shared.ErrForbidden, "only the club owner can review membership requests")
	ErrClubCreateDenied   = shared.NewDomainError("club", "Create", shared.ErrForbidden, "only gym owners, coaches and admins can create clubs")
	ErrMembershipNotFound = shared.NewDomainError("club", "FindMembership", shared.ErrNotFound, "membership request not found")
	ErrAlreadyMember      = shared.NewDomainError("club", "RequestMembership", shared.ErrValidation, "already a member of this club")
	ErrNoBoxerProfile     = shared.NewDomainError("club", "Approve", shared.ErrValidation, "user must have a boxer profile to join a club")
	ErrMembershipNotOpen  = shared.NewDomainError("club", "Review", shared.ErrAlreadyProcessed, "membership request has already been reviewed")
	ErrNotesTooLong       = shared.NewDomainError("club", "Review", shared.ErrValueOutOfRange, "notes are too long")
)

// MaxNotesLength bounds review notes.
const MaxNotesLength = 1000

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: CLUB
// ══════════════════════════════════════════════════════════════════════════════

// Club is a gym owned by a user.
type Club struct {
	ID        string
	OwnerID   string
	Name      string
	Slug      string
	City      string
	Country   string
	CreatedAt time.Time
}

// NewClub builds a club and derives its URL slug from the name.
func NewClub(id, ownerID, name, city, country string, now time.Time) (*Club, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidClubName
	}
	s := slug.Make(name)
	if s == "" {
		return nil, ErrInvalidClubName.WithMessage("club name %q has no usable characters", name)
	}
	return &Club{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Slug:      s,
		City:      strings.TrimSpace(city),
		Country:   strings.TrimSpace(country),
		CreatedAt: now.UTC(),
	}, nil
}

// IsOwnedBy reports whether the user owns the club.
func (c *Club) IsOwnedBy(userID string) bool {
	return c.OwnerID == userID
}

// AffiliationLabel is the gym-affiliation text set on member boxers.
func (c *Club) AffiliationLabel() string {
	if c.City == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.City)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: MEMBERSHIP REQUEST
// ══════════════════════════════════════════════════════════════════════════════

// MembershipStatus is the state of a membership request.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "PENDING"
	MembershipApproved MembershipStatus = "APPROVED"
	MembershipRejected MembershipStatus = "REJECTED"
)

// ParseMembershipStatus parses a status name, case-insensitively.
func ParseMembershipStatus(s string) (MembershipStatus, error) {
	st := MembershipStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case MembershipPending, MembershipApproved, MembershipRejected:
		return st, nil
	default:
		return "", shared.NewDomainError("club", "Parse", shared.ErrInvalidInput, fmt.Sprintf("unknown membership status %q", s))
	}
}

// MembershipRequest is unique per (user, club).
type MembershipRequest struct {
	ID         string
	UserID     string
	ClubID     string
	Status     MembershipStatus
	Message    string
	ReviewedBy *string
	ReviewedAt *time.Time
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewMembershipRequest builds a PENDING request.
func NewMembershipRequest(id, userID, clubID, message string, now time.Time) *MembershipRequest {
	return &MembershipRequest{
		ID:        id,
		UserID:    userID,
		ClubID:    clubID,
		Status:    MembershipPending,
		Message:   message,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Reopen resets a REJECTED request to PENDING and clears the review fields.
// A PENDING request is left unchanged; an APPROVED one fails.
// It reports whether the request was modified.
func (m *MembershipRequest) Reopen(message string, now time.Time) (bool, error) {
	switch m.Status {
	case MembershipPending:
		return false, nil
	case MembershipApproved:
		return false, ErrAlreadyMember
	}
	m.Status = MembershipPending
	m.Message = message
	m.ReviewedBy = nil
	m.ReviewedAt = nil
	m.Notes = ""
	m.UpdatedAt = now.UTC()
	return true, nil
}

// Approve marks the request APPROVED by the reviewer.
func (m *MembershipRequest) Approve(reviewerID string, now time.Time) error {
	return m.review(MembershipApproved, reviewerID, "", now)
}

// Reject marks the request REJECTED with optional notes.
func (m *MembershipRequest) Reject(reviewerID, notes string, now time.Time) error {
	if len(notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return m.review(MembershipRejected, reviewerID, notes, now)
}

func (m *MembershipRequest) review(to MembershipStatus, reviewerID, notes string, now time.Time) error {
	if m.Status != MembershipPending {
		return ErrMembershipNotOpen.WithMessage("membership request is already %s", m.Status)
	}
	at := now.UTC()
	m.Status = to
	m.ReviewedBy = &reviewerID
	m.ReviewedAt = &at
	m.Notes = notes
	m.UpdatedAt = at
	return nil
}

// Clone returns a deep copy.
func (m *MembershipRequest) Clone() *MembershipRequest {
	if m == nil {
		return nil
	}
	clone := *m
	if m.ReviewedBy != nil {
		r := *m.ReviewedBy
		clone.ReviewedBy = &r
	}
	if m.ReviewedAt != nil {
		t := *m.ReviewedAt
		clone.ReviewedAt = &t
	}
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage operations for clubs and membership requests.
type Repository interface {
	// Create returns ErrSlugTaken if another club has the same slug.
	Create(ctx context.Context, c *Club) error

	// GetByID returns ErrClubNotFound if the club does not exist.
	GetByID(ctx context.Context, id string) (*Club, error)

	// GetMembership returns the request for the (user, club) pair.
	// Returns ErrMembershipNotFound if none exists.
	GetMembership(ctx context.Context, userID, clubID string) (*MembershipRequest, error)

	// GetMembershipByID returns ErrMembershipNotFound if the request does not exist.
	GetMembershipByID(ctx context.Context, id string) (*MembershipRequest, error)

	// SaveMembership inserts or updates a request keyed by (user, club).
	SaveMembership(ctx context.Context, m *MembershipRequest) error

	// ListMemberships returns a club's requests, optionally filtered by status, oldest first.
	ListMemberships(ctx context.Context, clubID string, status *MembershipStatus) ([]*MembershipRequest, error)

	// ApproveMembership persists an approved request together with the boxer's
	// club assignment and affiliation label in one transaction.
	ApproveMembership(ctx context.Context, m *MembershipRequest, boxerID, clubID, affiliation string) error
}
