package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
)

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"
	assert.Equal(t,
		"host=localhost port=5432 dbname=boxmatch user=postgres password=secret sslmode=disable connect_timeout=10",
		cfg.DSN())

	cfg.URL = "postgres://u:p@db:5432/boxmatch"
	assert.Equal(t, cfg.URL, cfg.DSN())

	poolCfg, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(10), poolCfg.MaxConns)
}

func TestBuildSearchQuery(t *testing.T) {
	lo, hi := 65.0, 75.0
	query, args := buildSearchQuery(boxer.SearchFilter{
		Experience:               []boxer.ExperienceLevel{boxer.ExperienceAmateur, boxer.ExperienceIntermediate},
		MinWeightKg:              &lo,
		MaxWeightKg:              &hi,
		IncludeUnspecifiedWeight: true,
		City:                     "lon_",
		ExcludeIDs:               []string{"x"},
		Limit:                    60,
	})

	assert.Contains(t, query, "b.searchable AND u.active")
	assert.Contains(t, query, "b.experience = ANY($1)")
	assert.Contains(t, query, "(b.weight_kg BETWEEN $2 AND $3 OR b.weight_kg IS NULL)")
	assert.Contains(t, query, "b.city ILIKE $4")
	assert.Contains(t, query, "NOT (b.id::text = ANY($5))")
	assert.Contains(t, query, "ORDER BY b.id LIMIT $6")
	assert.Equal(t, []any{
		[]string{"AMATEUR", "INTERMEDIATE"}, 65.0, 75.0, `%lon\_%`, []string{"x"}, 60,
	}, args)
}

func TestBuildSearchQuery_Minimal(t *testing.T) {
	query, args := buildSearchQuery(boxer.SearchFilter{})
	assert.NotContains(t, query, "LIMIT")
	assert.NotContains(t, query, "weight_kg BETWEEN")
	assert.Empty(t, args)
}

func TestErrorHelpers(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: uniquePendingMatchPair})
	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolationOn(dup, uniquePendingMatchPair))
	assert.False(t, IsUniqueViolationOn(dup, uniqueClubSlug))
	assert.True(t, IsNoRows(fmt.Errorf("wrap: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("other")))
}

func TestMigrations_AreOrderedAndReversible(t *testing.T) {
	migrations := GetMigrations()
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL, m.Name)
		assert.NotEmpty(t, m.DownSQL, m.Name)
	}
	assert.Contains(t, migration003Up, "WHERE status = 'PENDING'")
}

func TestHealthStatus_String(t *testing.T) {
	status := HealthStatus{
		Healthy:       true,
		PingLatency:   1200 * time.Microsecond,
		TotalConns:    3,
		IdleConns:     2,
		AcquiredConns: 1,
		MaxConns:      10,
	}
	assert.Equal(t, "ping 1ms, 3/10 connections (1 acquired, 2 idle)", status.String())
}

func TestIsUUID(t *testing.T) {
	assert.True(t, isUUID("3f1c2a7e-9b1d-4c1e-8f00-1a2b3c4d5e6f"))
	assert.False(t, isUUID("ghost"))
}

func TestStatusAsOf(t *testing.T) {
	assert.Equal(t,
		"CASE WHEN status = 'PENDING' AND expires_at < $2::timestamptz THEN 'EXPIRED' ELSE status END",
		statusAsOf("$2"))

	assert.Nil(t, asOf(time.Time{}))
	at := time.Date(2025, 9, 1, 12, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, at.UTC(), asOf(at))
}
