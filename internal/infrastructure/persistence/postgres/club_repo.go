package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLUB REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ClubRepository implements club.Repository for PostgreSQL.
type ClubRepository struct {
	conn *Connection
}

// NewClubRepository creates a new ClubRepository.
func NewClubRepository(conn *Connection) *ClubRepository {
	return &ClubRepository{conn: conn}
}

// Create stores a new club.
func (r *ClubRepository) Create(ctx context.Context, c *club.Club) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO clubs (id, owner_id, name, slug, city, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.OwnerID, c.Name, c.Slug, c.City, c.Country, c.CreatedAt)
	if err != nil {
		if IsUniqueViolationOn(err, uniqueClubSlug) {
			return club.ErrSlugTaken
		}
		return fmt.Errorf("failed to create club: %w", err)
	}
	return nil
}

// GetByID returns a club by id.
func (r *ClubRepository) GetByID(ctx context.Context, id string) (*club.Club, error) {
	if !isUUID(id) {
		return nil, club.ErrClubNotFound
	}
	var c club.Club
	err := r.conn.QueryRow(ctx, `
		SELECT id, owner_id, name, slug, city, country, created_at
		FROM clubs WHERE id = $1
	`, id).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Slug, &c.City, &c.Country, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, club.ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	return &c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Membership Requests
// ─────────────────────────────────────────────────────────────────────────────

const membershipColumns = `
	id, user_id, club_id, status, message, reviewed_by, reviewed_at, notes, created_at, updated_at
`

// GetMembership returns the request for a (user, club) pair.
func (r *ClubRepository) GetMembership(ctx context.Context, userID, clubID string) (*club.MembershipRequest, error) {
	if !isUUID(userID) || !isUUID(clubID) {
		return nil, club.ErrMembershipNotFound
	}
	row := r.conn.QueryRow(ctx, `
		SELECT `+membershipColumns+` FROM membership_requests
		WHERE user_id = $1 AND club_id = $2
	`, userID, clubID)
	return scanMembership(row)
}

// GetMembershipByID returns a request by id.
func (r *ClubRepository) GetMembershipByID(ctx context.Context, id string) (*club.MembershipRequest, error) {
	if !isUUID(id) {
		return nil, club.ErrMembershipNotFound
	}
	row := r.conn.QueryRow(ctx, `SELECT `+membershipColumns+` FROM membership_requests WHERE id = $1`, id)
	return scanMembership(row)
}

// SaveMembership upserts a request keyed by (user, club).
func (r *ClubRepository) SaveMembership(ctx context.Context, m *club.MembershipRequest) error {
	return saveMembership(ctx, r.conn, m)
}

func saveMembership(ctx context.Context, q Querier, m *club.MembershipRequest) error {
	_, err := q.Exec(ctx, `
		INSERT INTO membership_requests (`+membershipColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT `+uniqueMembershipUserClub+` DO UPDATE SET
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			reviewed_by = EXCLUDED.reviewed_by,
			reviewed_at = EXCLUDED.reviewed_at,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`,
		m.ID, m.UserID, m.ClubID, string(m.Status), m.Message,
		m.ReviewedBy, m.ReviewedAt, m.Notes, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save membership request: %w", err)
	}
	return nil
}

// ListMemberships returns a club's requests, oldest first.
func (r *ClubRepository) ListMemberships(ctx context.Context, clubID string, status *club.MembershipStatus) ([]*club.MembershipRequest, error) {
	if !isUUID(clubID) {
		return []*club.MembershipRequest{}, nil
	}
	var s *string
	if status != nil {
		v := string(*status)
		s = &v
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+membershipColumns+` FROM membership_requests
		WHERE club_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at, id
	`, clubID, s)
	if err != nil {
		return nil, fmt.Errorf("failed to list membership requests: %w", err)
	}
	defer rows.Close()

	out := make([]*club.MembershipRequest, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ApproveMembership assigns the boxer to the club and stores the approved
// request in one transaction.
func (r *ClubRepository) ApproveMembership(ctx context.Context, m *club.MembershipRequest, boxerID, clubID, affiliation string) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE boxers SET club_id = $1, gym_affiliation = $2, updated_at = $3
			WHERE id = $4
		`, clubID, affiliation, m.UpdatedAt, boxerID)
		if err != nil {
			return fmt.Errorf("failed to assign club: %w", err)
		}
		if result.RowsAffected() == 0 {
			return boxer.ErrBoxerNotFound
		}
		return saveMembership(ctx, tx, m)
	})
}

func scanMembership(row rowScanner) (*club.MembershipRequest, error) {
	var (
		m      club.MembershipRequest
		status string
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.ClubID, &status, &m.Message,
		&m.ReviewedBy, &m.ReviewedAt, &m.Notes, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, club.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan membership request: %w", err)
	}
	m.Status = club.MembershipStatus(status)
	return &m, nil
}
