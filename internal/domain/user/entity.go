// Package user contains the account model. An account owns at most one
// boxer profile and may own clubs.
package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
)

// Role is the account role used for permission checks.
type Role string

const (
	RoleBoxer    Role = "BOXER"
	RoleCoach    Role = "COACH"
	RoleGymOwner Role = "GYM_OWNER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole parses a role name. Empty input defaults to BOXER.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if r == "" {
		return RoleBoxer, nil
	}
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// IsValid reports whether the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleBoxer, RoleCoach, RoleGymOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanManageClubs reports whether the role may create clubs.
func (r Role) CanManageClubs() bool {
	return r == RoleGymOwner || r == RoleCoach || r == RoleAdmin
}

// MinPasswordLength is enforced at registration.
const MinPasswordLength = 8

var (
	ErrUserNotFound       = shared.NewDomainError("user", "Find", shared.ErrNotFound, "user not found")
	ErrEmailTaken         = shared.NewDomainError("user", "Register", shared.ErrAlreadyExists, "email is already registered")
	ErrInvalidEmail       = shared.NewDomainError("user", "Register", shared.ErrInvalidInput, "invalid email address")
	ErrWeakPassword       = shared.NewDomainError("user", "Register", shared.ErrInvalidInput, "password must be at least 8 characters")
	ErrInvalidRole        = shared.NewDomainError("user", "Register", shared.ErrInvalidInput, "invalid role")
	ErrInvalidCredentials = shared.NewDomainError("user", "Login", shared.ErrUnauthorized, "invalid email or password")
	ErrAccountDisabled    = shared.NewDomainError("user", "Login", shared.ErrUnauthorized, "account is disabled")
)

// User is an account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// NewUser builds an active account. The password must already be hashed.
func NewUser(id, email, passwordHash string, role Role, now time.Time) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	return &User{
		ID:           id,
		Email:        normalized,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}

// IsAdmin reports whether the account has the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Repository defines storage operations for accounts.
type Repository interface {
	// Create stores a new account. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *User) error

	// GetByID returns ErrUserNotFound if the account does not exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail expects a normalized email. Returns ErrUserNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller has the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
