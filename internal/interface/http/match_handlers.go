package http

import (
	"context"
	"net/http"
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/application/command"
	"github.com/boxmatch/boxmatch-hub/internal/application/query"
	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// actingBoxer resolves the caller's own boxer profile.
func (s *Server) actingBoxer(r *http.Request) (*boxer.Boxer, error) {
	return s.deps.Reads.BoxerForUser(r.Context(), actor(r).UserID)
}

// handleCreateMatchRequest handles POST /api/v1/match-requests
func (s *Server) handleCreateMatchRequest(w http.ResponseWriter, r *http.Request) {
	var body createMatchRequestRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	me, err := s.actingBoxer(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	req, err := s.deps.MatchRequests.Create(r.Context(), command.CreateMatchRequestCommand{
		RequesterID:   me.ID,
		TargetID:      body.TargetID,
		Message:       body.Message,
		ProposedDate:  body.ProposedDate,
		ProposedVenue: body.ProposedVenue,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toMatchRequestResponse(req))
}

// handleListMatchRequests handles GET /api/v1/match-requests
// Query: direction (incoming|outgoing), status, page, page_size.
func (s *Server) handleListMatchRequests(w http.ResponseWriter, r *http.Request) {
	me, err := s.actingBoxer(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	direction, err := match.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	q := query.GetMatchRequestsQuery{
		BoxerID:   me.ID,
		Direction: direction,
		Page:      getQueryParamInt(r, "page", 1),
		PageSize:  getQueryParamInt(r, "page_size", query.DefaultPageSize),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := match.ParseStatus(raw)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		q.Status = &st
	}

	page, err := s.deps.Requests.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSONWithMeta(w, r, http.StatusOK, toMatchRequestResponses(page.Items), &ResponseMeta{
		TotalCount: page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		HasMore:    page.Page < page.TotalPages,
	})
}

// handleMatchRequestStats handles GET /api/v1/match-requests/stats
func (s *Server) handleMatchRequestStats(w http.ResponseWriter, r *http.Request) {
	me, err := s.actingBoxer(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	stats, err := s.deps.Requests.Stats(r.Context(), me.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, stats)
}

// handleGetMatchRequest handles GET /api/v1/match-requests/{id}
func (s *Server) handleGetMatchRequest(w http.ResponseWriter, r *http.Request) {
	me, err := s.actingBoxer(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	req, err := s.deps.Requests.Get(r.Context(), r.PathValue("id"), me.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toMatchRequestResponse(req))
}

// handleAcceptMatchRequest handles POST /api/v1/match-requests/{id}/accept
func (s *Server) handleAcceptMatchRequest(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.deps.MatchRequests.Accept)
}

// handleDeclineMatchRequest handles POST /api/v1/match-requests/{id}/decline
func (s *Server) handleDeclineMatchRequest(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.deps.MatchRequests.Decline)
}

type respondFunc func(ctx context.Context, cmd command.RespondCommand) (*match.MatchRequest, error)

func (s *Server) respond(w http.ResponseWriter, r *http.Request, fn respondFunc) {
	var body respondRequest
	if err := s.decodeOptionalJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	me, err := s.actingBoxer(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	req, err := fn(r.Context(), command.RespondCommand{
		RequestID:       r.PathValue("id"),
		ActingBoxerID:   me.ID,
		ResponseMessage: body.ResponseMessage,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toMatchRequestResponse(req))
}

// handleCancelMatchRequest handles POST /api/v1/match-requests/{id}/cancel
func (s *Server) handleCancelMatchRequest(w http.ResponseWriter, r *http.Request) {
	me, err := s.actingBoxer(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	req, err := s.deps.MatchRequests.Cancel(r.Context(), command.CancelCommand{
		RequestID:     r.PathValue("id"),
		ActingBoxerID: me.ID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toMatchRequestResponse(req))
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleExpireMatchRequests handles POST /api/v1/admin/match-requests/expire
func (s *Server) handleExpireMatchRequests(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.MatchRequests.ExpireOldRequests(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("manual expire sweep", logger.UserID(actor(r).UserID), logger.Int("expired", n))
	s.writeJSON(w, r, http.StatusOK, map[string]int{"expired": n})
}

type jobResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
	NextRun     string `json:"next_run,omitempty"`
	RunCount    int64  `json:"run_count"`
	FailCount   int64  `json:"fail_count"`
	LastError   string `json:"last_error,omitempty"`
}

// handleListJobs handles GET /api/v1/admin/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scheduler == nil {
		s.writeJSON(w, r, http.StatusOK, []jobResponse{})
		return
	}

	jobs := s.deps.Scheduler.ListJobs()
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		jr := jobResponse{
			Name:        j.Name,
			Description: j.Description,
			Schedule:    j.Schedule,
			RunCount:    j.RunCount,
			FailCount:   j.FailCount,
		}
		if !j.NextRun.IsZero() {
			jr.NextRun = j.NextRun.UTC().Format(time.RFC3339)
		}
		if j.LastRun != nil && j.LastRun.Error != nil {
			jr.LastError = j.LastRun.Error.Error()
		}
		out = append(out, jr)
	}
	s.writeJSON(w, r, http.StatusOK, out)
}
