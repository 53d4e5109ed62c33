package http

import (
	"context"
	"net/http"

	"github.com/boxmatch/boxmatch-hub/internal/application/command"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
)

// handleCreateClub handles POST /api/v1/clubs
func (s *Server) handleCreateClub(w http.ResponseWriter, r *http.Request) {
	var body createClubRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	c, err := s.deps.Clubs.CreateClub(r.Context(), command.CreateClubCommand{
		Actor:   actor(r),
		Name:    body.Name,
		City:    body.City,
		Country: body.Country,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toClubResponse(c))
}

// handleGetClub handles GET /api/v1/clubs/{id}
func (s *Server) handleGetClub(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Reads.Club(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toClubResponse(c))
}

// handleRequestMembership handles POST /api/v1/clubs/{id}/memberships
func (s *Server) handleRequestMembership(w http.ResponseWriter, r *http.Request) {
	var body membershipRequestBody
	if err := s.decodeOptionalJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	m, err := s.deps.Clubs.RequestMembership(r.Context(), command.RequestMembershipCommand{
		UserID:  actor(r).UserID,
		ClubID:  r.PathValue("id"),
		Message: body.Message,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toMembershipResponse(m))
}

// handleListMemberships handles GET /api/v1/clubs/{id}/memberships?status=
func (s *Server) handleListMemberships(w http.ResponseWriter, r *http.Request) {
	var status *club.MembershipStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := club.ParseMembershipStatus(raw)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		status = &st
	}

	items, err := s.deps.Reads.Memberships(r.Context(), actor(r), r.PathValue("id"), status)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]membershipResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMembershipResponse(m))
	}
	s.writeJSONWithMeta(w, r, http.StatusOK, out, &ResponseMeta{TotalCount: len(out)})
}

// handleApproveMembership handles POST /api/v1/clubs/{id}/memberships/{membershipID}/approve
func (s *Server) handleApproveMembership(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.deps.Clubs.Approve)
}

// handleRejectMembership handles POST /api/v1/clubs/{id}/memberships/{membershipID}/reject
func (s *Server) handleRejectMembership(w http.ResponseWriter, r *http.Request) {
	s.review(w, r, s.deps.Clubs.Reject)
}

type reviewFunc func(ctx context.Context, cmd command.ReviewMembershipCommand) (*club.MembershipRequest, error)

func (s *Server) review(w http.ResponseWriter, r *http.Request, fn reviewFunc) {
	var body reviewRequestBody
	if err := s.decodeOptionalJSON(w, r, &body); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	m, err := fn(r.Context(), command.ReviewMembershipCommand{
		Actor:        actor(r),
		ClubID:       r.PathValue("id"),
		MembershipID: r.PathValue("membershipID"),
		Notes:        body.Notes,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toMembershipResponse(m))
}
