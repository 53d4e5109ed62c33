package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOXER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BoxerRepository implements boxer.Repository for PostgreSQL.
// A boxer's Active flag is read from the owning user account.
type BoxerRepository struct {
	conn *Connection
}

// NewBoxerRepository creates a new BoxerRepository.
func NewBoxerRepository(conn *Connection) *BoxerRepository {
	return &BoxerRepository{conn: conn}
}

const boxerSelect = `
	SELECT b.id, b.user_id, b.name, b.weight_kg, b.wins, b.losses, b.draws,
	       b.experience, b.city, b.country, b.bio, b.searchable, u.active,
	       b.club_id, b.gym_affiliation, b.created_at, b.updated_at
	FROM boxers b
	JOIN users u ON u.id = b.user_id
`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create stores a new profile.
func (r *BoxerRepository) Create(ctx context.Context, b *boxer.Boxer) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO boxers (
			id, user_id, name, weight_kg, wins, losses, draws, experience,
			city, country, bio, searchable, club_id, gym_affiliation, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		b.ID, b.UserID, b.Name, b.WeightKg, b.Wins, b.Losses, b.Draws, string(b.Experience),
		b.City, b.Country, b.Bio, b.Searchable, b.ClubID, b.GymAffiliation, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolationOn(err, uniqueBoxerUser) {
			return boxer.ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create boxer: %w", err)
	}
	return nil
}

// GetByID returns a profile by id.
func (r *BoxerRepository) GetByID(ctx context.Context, id string) (*boxer.Boxer, error) {
	if !isUUID(id) {
		return nil, boxer.ErrBoxerNotFound
	}
	return scanBoxer(r.conn.QueryRow(ctx, boxerSelect+` WHERE b.id = $1`, id))
}

// GetByUserID returns the profile owned by a user.
func (r *BoxerRepository) GetByUserID(ctx context.Context, userID string) (*boxer.Boxer, error) {
	if !isUUID(userID) {
		return nil, boxer.ErrBoxerNotFound
	}
	return scanBoxer(r.conn.QueryRow(ctx, boxerSelect+` WHERE b.user_id = $1`, userID))
}

// Update overwrites the mutable profile fields.
func (r *BoxerRepository) Update(ctx context.Context, b *boxer.Boxer) error {
	result, err := r.conn.Exec(ctx, `
		UPDATE boxers SET
			name = $1,
			weight_kg = $2,
			wins = $3,
			losses = $4,
			draws = $5,
			experience = $6,
			city = $7,
			country = $8,
			bio = $9,
			searchable = $10,
			club_id = $11,
			gym_affiliation = $12,
			updated_at = $13
		WHERE id = $14
	`,
		b.Name, b.WeightKg, b.Wins, b.Losses, b.Draws, string(b.Experience),
		b.City, b.Country, b.Bio, b.Searchable, b.ClubID, b.GymAffiliation, b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update boxer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return boxer.ErrBoxerNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Search
// ─────────────────────────────────────────────────────────────────────────────

// Search returns matchable boxers satisfying the filter, ordered by id.
func (r *BoxerRepository) Search(ctx context.Context, f boxer.SearchFilter) ([]*boxer.Boxer, error) {
	query, args := buildSearchQuery(f)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search boxers: %w", err)
	}
	defer rows.Close()

	out := make([]*boxer.Boxer, 0)
	for rows.Next() {
		b, err := scanBoxer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// buildSearchQuery renders the candidate query with positional arguments.
func buildSearchQuery(f boxer.SearchFilter) (string, []any) {
	var (
		where = []string{"b.searchable", "u.active"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Experience) > 0 {
		levels := make([]string, len(f.Experience))
		for i, l := range f.Experience {
			levels[i] = string(l)
		}
		where = append(where, "b.experience = ANY("+arg(levels)+")")
	}
	if f.HasWeightWindow() {
		window := "b.weight_kg BETWEEN " + arg(*f.MinWeightKg) + " AND " + arg(*f.MaxWeightKg)
		if f.IncludeUnspecifiedWeight {
			window = "(" + window + " OR b.weight_kg IS NULL)"
		}
		where = append(where, window)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		where = append(where, "b.city ILIKE "+arg("%"+escapeLike(city)+"%"))
	}
	if country := strings.TrimSpace(f.Country); country != "" {
		where = append(where, "b.country ILIKE "+arg("%"+escapeLike(country)+"%"))
	}
	if len(f.ExcludeIDs) > 0 {
		where = append(where, "NOT (b.id::text = ANY("+arg(f.ExcludeIDs)+"))")
	}

	query := boxerSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY b.id"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	return query, args
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanBoxer(row rowScanner) (*boxer.Boxer, error) {
	var (
		b          boxer.Boxer
		experience string
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.Name, &b.WeightKg, &b.Wins, &b.Losses, &b.Draws,
		&experience, &b.City, &b.Country, &b.Bio, &b.Searchable, &b.Active,
		&b.ClubID, &b.GymAffiliation, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, boxer.ErrBoxerNotFound
		}
		return nil, fmt.Errorf("failed to scan boxer: %w", err)
	}
	b.Experience = boxer.ExperienceLevel(experience)
	return &b, nil
}
