package http

import (
	"net/http"

	"github.com/boxmatch/boxmatch-hub/internal/application/command"
	"github.com/boxmatch/boxmatch-hub/internal/application/query"
	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "Boxing Match Hub API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":         "/health",
			"auth":           "/api/v1/auth",
			"boxers":         "/api/v1/boxers",
			"match_requests": "/api/v1/match-requests",
			"clubs":          "/api/v1/clubs",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		s.writeJSON(w, r, code, status)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady handles the readiness probe.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			s.writeError(w, r, http.StatusServiceUnavailable, "not_ready", status.Message)
			return
		}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var role user.Role
	if body.Role != "" {
		parsed, err := user.ParseRole(body.Role)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		role = parsed
	}

	res, err := s.deps.Auth.Register(r.Context(), command.RegisterCommand{
		Email:    body.Email,
		Password: body.Password,
		Role:     role,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toAuthResponse(res))
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	res, err := s.deps.Auth.Login(r.Context(), command.LoginCommand{Email: body.Email, Password: body.Password})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toAuthResponse(res))
}

func toAuthResponse(res *command.AuthResult) authResponse {
	return authResponse{User: toUserResponse(res.User), Token: res.Token, ExpiresAt: res.ExpiresAt}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOXER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCreateBoxer handles POST /api/v1/boxers. The profile belongs to the caller.
func (s *Server) handleCreateBoxer(w http.ResponseWriter, r *http.Request) {
	var body createBoxerRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	level, err := boxer.ParseExperienceLevel(body.Experience)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	b, err := s.deps.Profiles.Create(r.Context(), command.CreateBoxerProfileCommand{
		UserID:     actor(r).UserID,
		Name:       body.Name,
		WeightKg:   body.WeightKg,
		Wins:       body.Wins,
		Losses:     body.Losses,
		Draws:      body.Draws,
		Experience: level,
		City:       body.City,
		Country:    body.Country,
		Bio:        body.Bio,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toBoxerResponse(b))
}

// handleGetMyBoxer handles GET /api/v1/boxers/me
func (s *Server) handleGetMyBoxer(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Reads.BoxerForUser(r.Context(), actor(r).UserID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toBoxerResponse(b))
}

// handleGetBoxer handles GET /api/v1/boxers/{id}
func (s *Server) handleGetBoxer(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Reads.Boxer(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toBoxerResponse(b))
}

// handleUpdateBoxer handles PATCH /api/v1/boxers/{id}
func (s *Server) handleUpdateBoxer(w http.ResponseWriter, r *http.Request) {
	var body updateBoxerRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	patch, err := body.patch()
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	b, err := s.deps.Profiles.Update(r.Context(), command.UpdateBoxerProfileCommand{
		Actor:   actor(r),
		BoxerID: r.PathValue("id"),
		Patch:   patch,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toBoxerResponse(b))
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleFindMatches handles GET /api/v1/boxers/{id}/matches
// Query: limit, experience (comma-separated tiers), city, country, exclude (comma-separated ids).
func (s *Server) handleFindMatches(w http.ResponseWriter, r *http.Request) {
	opts := query.FindMatchesOptions{
		Limit:      getQueryParamInt(r, "limit", 0),
		City:       r.URL.Query().Get("city"),
		Country:    r.URL.Query().Get("country"),
		ExcludeIDs: getQueryParamList(r, "exclude"),
	}
	for _, raw := range getQueryParamList(r, "experience") {
		level, err := boxer.ParseExperienceLevel(raw)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		opts.ExperienceLevels = append(opts.ExperienceLevels, level)
	}

	res, err := s.deps.Matches.Handle(r.Context(), query.FindMatchesQuery{BoxerID: r.PathValue("id"), Options: opts})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSONWithMeta(w, r, http.StatusOK, toMatchesResponse(res), &ResponseMeta{TotalCount: res.Total})
}

// handleSuggestedMatches handles GET /api/v1/boxers/{id}/suggestions
func (s *Server) handleSuggestedMatches(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Matches.HandleSuggested(r.Context(), query.GetSuggestedMatchesQuery{
		BoxerID: r.PathValue("id"),
		Limit:   getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSONWithMeta(w, r, http.StatusOK, toMatchesResponse(res), &ResponseMeta{TotalCount: res.Total})
}
