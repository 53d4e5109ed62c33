package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

type principalCtxKey struct{}

// principalFrom returns the authenticated caller stored by authenticated.
func principalFrom(ctx context.Context) (user.Actor, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(user.Actor)
	return p, ok
}

// authenticated requires a valid bearer token and stores the caller in the context.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}
		if s.deps.Tokens == nil {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication is not configured")
			return
		}

		claims, err := s.deps.Tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			s.logger.Debug("token rejected", logger.Err(err))
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}
		role, err := user.ParseRole(claims.Role)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		actor := user.Actor{UserID: claims.UserID, Role: role}
		next(w, r.WithContext(context.WithValue(r.Context(), principalCtxKey{}, actor)))
	}
}

// adminOnly requires an authenticated ADMIN.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		if p, _ := principalFrom(r.Context()); !p.IsAdmin() {
			s.writeError(w, r, http.StatusForbidden, "forbidden", "Admin role required")
			return
		}
		next(w, r)
	})
}

// actor returns the caller. Only valid behind authenticated.
func actor(r *http.Request) user.Actor {
	p, _ := principalFrom(r.Context())
	return p
}
