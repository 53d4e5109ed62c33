package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
	"github.com/boxmatch/boxmatch-hub/pkg/security"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// RegisterCommand creates an account.
type RegisterCommand struct {
	Email    string
	Password string
	Role     user.Role
}

// LoginCommand exchanges credentials for a token.
type LoginCommand struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

// AuthHandler registers accounts and issues access tokens.
type AuthHandler struct {
	deps
	users  user.Repository
	hasher *security.PasswordHasher
	tokens *security.TokenIssuer
	clock  clockwork.Clock
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	users user.Repository,
	hasher *security.PasswordHasher,
	tokens *security.TokenIssuer,
	clock clockwork.Clock,
	log *logger.Logger,
) *AuthHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthHandler{
		deps:   newDeps(nil, log, "auth"),
		users:  users,
		hasher: hasher,
		tokens: tokens,
		clock:  clock,
	}
}

// Register creates an active account and returns a token for it.
func (h *AuthHandler) Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error) {
	if len(cmd.Password) < user.MinPasswordLength {
		return nil, user.ErrWeakPassword
	}
	if cmd.Role == "" {
		cmd.Role = user.RoleBoxer
	}

	hash, err := h.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	u, err := user.NewUser(h.newID(), cmd.Email, hash, cmd.Role, h.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := h.users.Create(ctx, u); err != nil {
		if shared.IsAlreadyExists(err) {
			return nil, user.ErrEmailTaken
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	h.log.Info("user registered", logger.UserID(u.ID), logger.String("role", string(u.Role)))
	return h.issue(u)
}

// Login verifies credentials. Unknown emails, wrong passwords and disabled
// accounts all fail as unauthorized.
func (h *AuthHandler) Login(ctx context.Context, cmd LoginCommand) (*AuthResult, error) {
	email, err := user.NormalizeEmail(cmd.Email)
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	u, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: load user: %w", err)
	}

	if err := h.hasher.Verify(u.PasswordHash, cmd.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: verify password: %w", err)
	}
	if !u.Active {
		return nil, user.ErrAccountDisabled
	}

	return h.issue(u)
}

func (h *AuthHandler) issue(u *user.User) (*AuthResult, error) {
	token, expiresAt, err := h.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: expiresAt}, nil
}
