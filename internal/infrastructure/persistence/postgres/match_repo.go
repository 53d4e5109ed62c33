package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH REQUEST REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MatchRequestRepository implements match.Repository for PostgreSQL.
// The partial unique index idx_match_requests_pending_pair guarantees at most
// one PENDING request per ordered pair even under concurrent creates.
type MatchRequestRepository struct {
	conn *Connection
}

// NewMatchRequestRepository creates a new MatchRequestRepository.
func NewMatchRequestRepository(conn *Connection) *MatchRequestRepository {
	return &MatchRequestRepository{conn: conn}
}

const matchRequestColumns = `
	id, requester_id, target_id, status, message, response_message,
	proposed_date, proposed_venue, created_at, updated_at, expires_at, responded_at
`

// Create stores a new request.
func (r *MatchRequestRepository) Create(ctx context.Context, m *match.MatchRequest) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO match_requests (`+matchRequestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		m.ID, m.RequesterID, m.TargetID, string(m.Status), m.Message, m.ResponseMessage,
		m.ProposedDate, m.ProposedVenue, m.CreatedAt, m.UpdatedAt, m.ExpiresAt, m.RespondedAt,
	)
	if err != nil {
		if IsUniqueViolationOn(err, uniquePendingMatchPair) {
			return match.ErrDuplicateRequest
		}
		return fmt.Errorf("failed to create match request: %w", err)
	}
	return nil
}

// GetByID returns a request by id.
func (r *MatchRequestRepository) GetByID(ctx context.Context, id string) (*match.MatchRequest, error) {
	if !isUUID(id) {
		return nil, match.ErrRequestNotFound
	}
	row := r.conn.QueryRow(ctx, `SELECT `+matchRequestColumns+` FROM match_requests WHERE id = $1`, id)
	return scanMatchRequest(row)
}

// Update persists the mutable fields of a request.
func (r *MatchRequestRepository) Update(ctx context.Context, m *match.MatchRequest) error {
	result, err := r.conn.Exec(ctx, `
		UPDATE match_requests SET
			status = $1,
			response_message = $2,
			updated_at = $3,
			responded_at = $4
		WHERE id = $5
	`, string(m.Status), m.ResponseMessage, m.UpdatedAt, m.RespondedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update match request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return match.ErrRequestNotFound
	}
	return nil
}

// FindPending returns the PENDING request requester → target.
func (r *MatchRequestRepository) FindPending(ctx context.Context, requesterID, targetID string) (*match.MatchRequest, error) {
	if !isUUID(requesterID) || !isUUID(targetID) {
		return nil, match.ErrRequestNotFound
	}
	row := r.conn.QueryRow(ctx, `
		SELECT `+matchRequestColumns+`
		FROM match_requests
		WHERE requester_id = $1 AND target_id = $2 AND status = 'PENDING'
	`, requesterID, targetID)
	return scanMatchRequest(row)
}

// List returns one page of a boxer's requests, newest first, and the total.
func (r *MatchRequestRepository) List(ctx context.Context, f match.ListFilter) ([]*match.MatchRequest, int, error) {
	if !isUUID(f.BoxerID) {
		return []*match.MatchRequest{}, 0, nil
	}
	column := directionColumn(f.Direction)
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	now := asOf(f.Now)

	var total int
	err := r.conn.QueryRow(ctx, `
		SELECT count(*) FROM match_requests
		WHERE `+column+` = $1 AND ($2::text IS NULL OR `+statusAsOf("$3")+` = $2)
	`, f.BoxerID, status, now).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count match requests: %w", err)
	}

	limit := any(nil)
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+matchRequestColumns+`
		FROM match_requests
		WHERE `+column+` = $1 AND ($2::text IS NULL OR `+statusAsOf("$3")+` = $2)
		ORDER BY created_at DESC, id DESC
		OFFSET $4 LIMIT $5
	`, f.BoxerID, status, now, max(f.Offset, 0), limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list match requests: %w", err)
	}
	defer rows.Close()

	out := make([]*match.MatchRequest, 0)
	for rows.Next() {
		m, err := scanMatchRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		m.Status = m.StatusAt(f.Now)
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// statusAsOf selects status with PENDING rows past the timestamp parameter
// read as EXPIRED. A NULL timestamp leaves status unchanged.
func statusAsOf(param string) string {
	return `CASE WHEN status = 'PENDING' AND expires_at < ` + param + `::timestamptz THEN 'EXPIRED' ELSE status END`
}

// asOf is the timestamp parameter for statusAsOf; zero means no expiry overlay.
func asOf(now time.Time) any {
	if now.IsZero() {
		return nil
	}
	return now.UTC()
}

// CountByStatus returns per-status counts for a boxer in one direction,
// counting overdue PENDING requests as EXPIRED.
func (r *MatchRequestRepository) CountByStatus(ctx context.Context, boxerID string, d match.Direction, now time.Time) (match.StatusCounts, error) {
	var counts match.StatusCounts
	if !isUUID(boxerID) {
		return counts, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+statusAsOf("$2")+` AS effective_status, count(*) FROM match_requests
		WHERE `+directionColumn(d)+` = $1
		GROUP BY effective_status
	`, boxerID, asOf(now))
	if err != nil {
		return counts, fmt.Errorf("failed to count match requests by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts.Add(match.Status(status), n)
	}
	return counts, rows.Err()
}

// ExpirePending moves overdue PENDING requests to EXPIRED in one statement.
func (r *MatchRequestRepository) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	result, err := r.conn.Exec(ctx, `
		UPDATE match_requests
		SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'PENDING' AND expires_at < $1
	`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire match requests: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// PendingCounterparts returns the boxers sharing a PENDING request with boxerID.
func (r *MatchRequestRepository) PendingCounterparts(ctx context.Context, boxerID string) ([]string, error) {
	if !isUUID(boxerID) {
		return []string{}, nil
	}
	rows, err := r.conn.Query(ctx, `
		SELECT DISTINCT CASE WHEN requester_id = $1 THEN target_id ELSE requester_id END::text AS other
		FROM match_requests
		WHERE status = 'PENDING' AND (requester_id = $1 OR target_id = $1)
		ORDER BY other
	`, boxerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending counterparts: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan counterpart: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func directionColumn(d match.Direction) string {
	if d == match.DirectionOutgoing {
		return "requester_id"
	}
	return "target_id"
}

func scanMatchRequest(row rowScanner) (*match.MatchRequest, error) {
	var (
		m      match.MatchRequest
		status string
	)
	err := row.Scan(
		&m.ID, &m.RequesterID, &m.TargetID, &status, &m.Message, &m.ResponseMessage,
		&m.ProposedDate, &m.ProposedVenue, &m.CreatedAt, &m.UpdatedAt, &m.ExpiresAt, &m.RespondedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, match.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan match request: %w", err)
	}
	m.Status = match.Status(status)
	return &m, nil
}
