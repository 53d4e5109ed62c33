package http

import (
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/application/query"
	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// ══════════════════════════════════════════════════════════════════════════════

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type createBoxerRequest struct {
	Name       string   `json:"name"`
	WeightKg   *float64 `json:"weight_kg"`
	Wins       int      `json:"wins"`
	Losses     int      `json:"losses"`
	Draws      int      `json:"draws"`
	Experience string   `json:"experience"`
	City       string   `json:"city"`
	Country    string   `json:"country"`
	Bio        string   `json:"bio"`
}

type updateBoxerRequest struct {
	Name        *string  `json:"name"`
	WeightKg    *float64 `json:"weight_kg"`
	ClearWeight bool     `json:"clear_weight"`
	Wins        *int     `json:"wins"`
	Losses      *int     `json:"losses"`
	Draws       *int     `json:"draws"`
	Experience  *string  `json:"experience"`
	City        *string  `json:"city"`
	Country     *string  `json:"country"`
	Bio         *string  `json:"bio"`
	Searchable  *bool    `json:"searchable"`
}

func (u updateBoxerRequest) patch() (boxer.ProfilePatch, error) {
	p := boxer.ProfilePatch{
		Name:        u.Name,
		WeightKg:    u.WeightKg,
		ClearWeight: u.ClearWeight,
		Wins:        u.Wins,
		Losses:      u.Losses,
		Draws:       u.Draws,
		City:        u.City,
		Country:     u.Country,
		Bio:         u.Bio,
		Searchable:  u.Searchable,
	}
	if u.Experience != nil {
		level, err := boxer.ParseExperienceLevel(*u.Experience)
		if err != nil {
			return p, err
		}
		p.Experience = &level
	}
	return p, nil
}

type createMatchRequestRequest struct {
	TargetID      string     `json:"target_id"`
	Message       string     `json:"message"`
	ProposedDate  *time.Time `json:"proposed_date"`
	ProposedVenue string     `json:"proposed_venue"`
}

type respondRequest struct {
	ResponseMessage string `json:"response_message"`
}

type createClubRequest struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type membershipRequestBody struct {
	Message string `json:"message"`
}

type reviewRequestBody struct {
	Notes string `json:"notes"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE BODIES
// ══════════════════════════════════════════════════════════════════════════════

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

type boxerResponse struct {
	ID             string                `json:"id"`
	UserID         string                `json:"user_id"`
	Name           string                `json:"name"`
	WeightKg       *float64              `json:"weight_kg"`
	Wins           int                   `json:"wins"`
	Losses         int                   `json:"losses"`
	Draws          int                   `json:"draws"`
	TotalFights    int                   `json:"total_fights"`
	Record         string                `json:"record"`
	Experience     boxer.ExperienceLevel `json:"experience"`
	City           string                `json:"city"`
	Country        string                `json:"country"`
	Bio            string                `json:"bio"`
	Searchable     bool                  `json:"searchable"`
	ClubID         *string               `json:"club_id"`
	GymAffiliation string                `json:"gym_affiliation"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func toBoxerResponse(b *boxer.Boxer) boxerResponse {
	return boxerResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		Name:           b.Name,
		WeightKg:       b.WeightKg,
		Wins:           b.Wins,
		Losses:         b.Losses,
		Draws:          b.Draws,
		TotalFights:    b.TotalFights(),
		Record:         b.Record(),
		Experience:     b.Experience,
		City:           b.City,
		Country:        b.Country,
		Bio:            b.Bio,
		Searchable:     b.Searchable,
		ClubID:         b.ClubID,
		GymAffiliation: b.GymAffiliation,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

type scoreResponse struct {
	matching.Score
	Quality matching.Quality `json:"quality"`
}

type matchesResponse struct {
	Matches []scoreResponse `json:"matches"`
	Total   int             `json:"total"`
}

func toMatchesResponse(res *query.FindMatchesResult) matchesResponse {
	out := matchesResponse{Matches: make([]scoreResponse, 0, len(res.Matches)), Total: res.Total}
	for _, sc := range res.Matches {
		out.Matches = append(out.Matches, scoreResponse{Score: sc, Quality: sc.Quality()})
	}
	return out
}

type matchRequestResponse struct {
	ID              string       `json:"id"`
	RequesterID     string       `json:"requester_id"`
	TargetID        string       `json:"target_id"`
	Status          match.Status `json:"status"`
	Message         string       `json:"message"`
	ResponseMessage string       `json:"response_message,omitempty"`
	ProposedDate    *time.Time   `json:"proposed_date,omitempty"`
	ProposedVenue   string       `json:"proposed_venue,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	ExpiresAt       time.Time    `json:"expires_at"`
	RespondedAt     *time.Time   `json:"responded_at,omitempty"`
}

func toMatchRequestResponse(m *match.MatchRequest) matchRequestResponse {
	return matchRequestResponse{
		ID:              m.ID,
		RequesterID:     m.RequesterID,
		TargetID:        m.TargetID,
		Status:          m.Status,
		Message:         m.Message,
		ResponseMessage: m.ResponseMessage,
		ProposedDate:    m.ProposedDate,
		ProposedVenue:   m.ProposedVenue,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		ExpiresAt:       m.ExpiresAt,
		RespondedAt:     m.RespondedAt,
	}
}

func toMatchRequestResponses(items []*match.MatchRequest) []matchRequestResponse {
	out := make([]matchRequestResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toMatchRequestResponse(m))
	}
	return out
}

type clubResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

func toClubResponse(c *club.Club) clubResponse {
	return clubResponse{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Name:      c.Name,
		Slug:      c.Slug,
		City:      c.City,
		Country:   c.Country,
		CreatedAt: c.CreatedAt,
	}
}

type membershipResponse struct {
	ID         string                `json:"id"`
	UserID     string                `json:"user_id"`
	ClubID     string                `json:"club_id"`
	Status     club.MembershipStatus `json:"status"`
	Message    string                `json:"message"`
	ReviewedBy *string               `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time            `json:"reviewed_at,omitempty"`
	Notes      string                `json:"notes,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func toMembershipResponse(m *club.MembershipRequest) membershipResponse {
	return membershipResponse{
		ID:         m.ID,
		UserID:     m.UserID,
		ClubID:     m.ClubID,
		Status:     m.Status,
		Message:    m.Message,
		ReviewedBy: m.ReviewedBy,
		ReviewedAt: m.ReviewedAt,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
