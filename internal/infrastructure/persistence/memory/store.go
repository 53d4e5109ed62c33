// Package memory provides in-process implementations of the domain
// repositories and the result cache. They back the "memory" storage driver
// used for local development and are the storage fakes in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"
)

// Store holds every aggregate behind one lock so multi-aggregate writes
// (membership approval) are atomic.
type Store struct {
	mu sync.RWMutex

	users       map[string]*user.User
	boxers      map[string]*boxer.Boxer
	requests    map[string]*match.MatchRequest
	clubs       map[string]*club.Club
	memberships map[string]*club.MembershipRequest
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*user.User),
		boxers:      make(map[string]*boxer.Boxer),
		requests:    make(map[string]*match.MatchRequest),
		clubs:       make(map[string]*club.Club),
		memberships: make(map[string]*club.MembershipRequest),
	}
}

// Users returns the account repository.
func (s *Store) Users() user.Repository { return &userRepo{s} }

// Boxers returns the boxer repository.
func (s *Store) Boxers() boxer.Repository { return &boxerRepo{s} }

// MatchRequests returns the match-request repository.
func (s *Store) MatchRequests() match.Repository { return &matchRepo{s} }

// Clubs returns the club repository.
func (s *Store) Clubs() club.Repository { return &clubRepo{s} }

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	clone := *u
	r.s.users[u.ID] = &clone
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrUserNotFound
}

// ══════════════════════════════════════════════════════════════════════════════
// BOXERS
// ══════════════════════════════════════════════════════════════════════════════

type boxerRepo struct{ s *Store }

func (r *boxerRepo) Create(_ context.Context, b *boxer.Boxer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.boxers {
		if existing.UserID == b.UserID {
			return boxer.ErrProfileAlreadyExists
		}
	}
	r.s.boxers[b.ID] = b.Clone()
	return nil
}

func (r *boxerRepo) GetByID(_ context.Context, id string) (*boxer.Boxer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.boxers[id]
	if !ok {
		return nil, boxer.ErrBoxerNotFound
	}
	return r.s.withAccountState(b), nil
}

func (r *boxerRepo) GetByUserID(_ context.Context, userID string) (*boxer.Boxer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.boxers {
		if b.UserID == userID {
			return r.s.withAccountState(b), nil
		}
	}
	return nil, boxer.ErrBoxerNotFound
}

func (r *boxerRepo) Update(_ context.Context, b *boxer.Boxer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.boxers[b.ID]; !ok {
		return boxer.ErrBoxerNotFound
	}
	r.s.boxers[b.ID] = b.Clone()
	return nil
}

func (r *boxerRepo) Search(_ context.Context, f boxer.SearchFilter) ([]*boxer.Boxer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*boxer.Boxer, 0)
	for _, stored := range r.s.boxers {
		b := r.s.withAccountState(stored)
		if !b.IsMatchable() || f.Excludes(b.ID) {
			continue
		}
		if len(f.Experience) > 0 && !containsLevel(f.Experience, b.Experience) {
			continue
		}
		if f.HasWeightWindow() {
			if b.WeightKg == nil {
				if !f.IncludeUnspecifiedWeight {
					continue
				}
			} else if *b.WeightKg < *f.MinWeightKg || *b.WeightKg > *f.MaxWeightKg {
				continue
			}
		}
		if !containsFold(b.City, f.City) || !containsFold(b.Country, f.Country) {
			continue
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// withAccountState returns a copy whose Active flag follows the owning account.
// Callers must hold the lock.
func (s *Store) withAccountState(b *boxer.Boxer) *boxer.Boxer {
	clone := b.Clone()
	if u, ok := s.users[b.UserID]; ok {
		clone.Active = u.Active
	}
	return clone
}

func containsLevel(levels []boxer.ExperienceLevel, l boxer.ExperienceLevel) bool {
	for _, x := range levels {
		if x == l {
			return true
		}
	}
	return false
}

func containsFold(value, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(sub))
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCH REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

type matchRepo struct{ s *Store }

func (r *matchRepo) Create(_ context.Context, m *match.MatchRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// one PENDING per ordered pair, mirroring the partial unique index
	if m.Status.IsPending() && r.s.findPending(m.RequesterID, m.TargetID) != nil {
		return match.ErrDuplicateRequest
	}
	r.s.requests[m.ID] = m.Clone()
	return nil
}

func (r *matchRepo) GetByID(_ context.Context, id string) (*match.MatchRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.requests[id]
	if !ok {
		return nil, match.ErrRequestNotFound
	}
	return m.Clone(), nil
}

func (r *matchRepo) Update(_ context.Context, m *match.MatchRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[m.ID]; !ok {
		return match.ErrRequestNotFound
	}
	r.s.requests[m.ID] = m.Clone()
	return nil
}

func (r *matchRepo) FindPending(_ context.Context, requesterID, targetID string) (*match.MatchRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if m := r.s.findPending(requesterID, targetID); m != nil {
		return m.Clone(), nil
	}
	return nil, match.ErrRequestNotFound
}

func (s *Store) findPending(requesterID, targetID string) *match.MatchRequest {
	for _, m := range s.requests {
		if m.Status.IsPending() && m.RequesterID == requesterID && m.TargetID == targetID {
			return m
		}
	}
	return nil
}

func (r *matchRepo) List(_ context.Context, f match.ListFilter) ([]*match.MatchRequest, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*match.MatchRequest, 0)
	for _, m := range r.s.requests {
		if f.Matches(m) {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}

	page := make([]*match.MatchRequest, 0, end-start)
	for _, m := range all[start:end] {
		c := m.Clone()
		c.Status = m.StatusAt(f.Now)
		page = append(page, c)
	}
	return page, total, nil
}

func (r *matchRepo) CountByStatus(_ context.Context, boxerID string, d match.Direction, now time.Time) (match.StatusCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var counts match.StatusCounts
	f := match.ListFilter{BoxerID: boxerID, Direction: d}
	for _, m := range r.s.requests {
		if f.Matches(m) {
			counts.Add(m.StatusAt(now), 1)
		}
	}
	return counts, nil
}

func (r *matchRepo) ExpirePending(_ context.Context, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, m := range r.s.requests {
		if m.ExpireIfDue(now) {
			n++
		}
	}
	return n, nil
}

func (r *matchRepo) PendingCounterparts(_ context.Context, boxerID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, m := range r.s.requests {
		if !m.Status.IsPending() || !m.Involves(boxerID) {
			continue
		}
		other := m.Counterpart(boxerID)
		if _, dup := seen[other]; !dup {
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLUBS
// ══════════════════════════════════════════════════════════════════════════════

type clubRepo struct{ s *Store }

func (r *clubRepo) Create(_ context.Context, c *club.Club) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.clubs {
		if existing.Slug == c.Slug {
			return club.ErrSlugTaken
		}
	}
	clone := *c
	r.s.clubs[c.ID] = &clone
	return nil
}

func (r *clubRepo) GetByID(_ context.Context, id string) (*club.Club, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clubs[id]
	if !ok {
		return nil, club.ErrClubNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *clubRepo) GetMembership(_ context.Context, userID, clubID string) (*club.MembershipRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.memberships {
		if m.UserID == userID && m.ClubID == clubID {
			return m.Clone(), nil
		}
	}
	return nil, club.ErrMembershipNotFound
}

func (r *clubRepo) GetMembershipByID(_ context.Context, id string) (*club.MembershipRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.memberships[id]
	if !ok {
		return nil, club.ErrMembershipNotFound
	}
	return m.Clone(), nil
}

func (r *clubRepo) SaveMembership(_ context.Context, m *club.MembershipRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.saveMembership(m)
	return nil
}

// saveMembership upserts by (user, club). Callers must hold the lock.
func (s *Store) saveMembership(m *club.MembershipRequest) {
	for id, existing := range s.memberships {
		if existing.UserID == m.UserID && existing.ClubID == m.ClubID && id != m.ID {
			delete(s.memberships, id)
		}
	}
	s.memberships[m.ID] = m.Clone()
}

func (r *clubRepo) ListMemberships(_ context.Context, clubID string, status *club.MembershipStatus) ([]*club.MembershipRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*club.MembershipRequest, 0)
	for _, m := range r.s.memberships {
		if m.ClubID != clubID || (status != nil && m.Status != *status) {
			continue
		}
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *clubRepo) ApproveMembership(_ context.Context, m *club.MembershipRequest, boxerID, clubID, affiliation string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boxers[boxerID]
	if !ok {
		return boxer.ErrBoxerNotFound
	}
	if _, ok := r.s.memberships[m.ID]; !ok {
		return club.ErrMembershipNotFound
	}
	updated := b.Clone()
	updated.AssignClub(clubID, affiliation, m.UpdatedAt)
	r.s.boxers[boxerID] = updated
	r.s.saveMembership(m)
	return nil
}
