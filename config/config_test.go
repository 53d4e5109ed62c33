package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setMemoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setMemoryEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "boxmatch-hub", cfg.App.Name)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Hour, cfg.Scheduler.ExpireInterval)
	assert.Equal(t, matching.DefaultPolicy(), cfg.Matching)
	assert.True(t, cfg.Features.IsEnabled(FeatureMatchSuggestions, nil))
}

func TestLoad_MatchingEnvOverrides(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("MATCH_WEIGHT_TOLERANCE_KG", "7.5")
	t.Setenv("MATCH_FIGHTS_TOLERANCE", "4")
	t.Setenv("MATCH_REQUEST_EXPIRY_DAYS", "3")
	t.Setenv("MATCH_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7.5, cfg.Matching.WeightToleranceKg)
	assert.Equal(t, 4, cfg.Matching.FightsTolerance)
	assert.Equal(t, 72*time.Hour, cfg.Matching.RequestExpiry)
	assert.Equal(t, 90*time.Second, cfg.Matching.CacheTTL)
}

func TestLoad_PolicyFileThenEnv(t *testing.T) {
	setMemoryEnv(t)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weight_tolerance_kg: 8\nfights_tolerance: 6\nrequest_expiry: 48h\n"), 0o600))
	t.Setenv("MATCHING_POLICY_FILE", path)
	t.Setenv("MATCH_FIGHTS_TOLERANCE", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.Matching.WeightToleranceKg)
	assert.Equal(t, 2, cfg.Matching.FightsTolerance, "environment wins over the file")
	assert.Equal(t, 48*time.Hour, cfg.Matching.RequestExpiry)
	assert.Equal(t, 20, cfg.Matching.DefaultLimit, "keys absent from the file keep defaults")
}

func TestLoad_MissingPolicyFile(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("MATCHING_POLICY_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read policy file")
}

func TestParsePolicyYAML(t *testing.T) {
	p := matching.DefaultPolicy()
	require.NoError(t, ParsePolicyYAML(nil, &p))
	assert.Equal(t, matching.DefaultPolicy(), p)

	require.NoError(t, ParsePolicyYAML([]byte("max_limit: 50\ncache_ttl: 1m\n"), &p))
	assert.Equal(t, 50, p.MaxLimit)
	assert.Equal(t, time.Minute, p.CacheTTL)

	err := ParsePolicyYAML([]byte("weight_tolerance: 5\n"), &p)
	require.Error(t, err, "unknown keys are rejected")
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_DatabaseURLFromParts(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "boxer")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://boxer:pw@db:5432/boxmatch?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, cfg.Database.URL, cfg.Database.Postgres().DSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{Environment: EnvProduction},
			HTTP:      HTTPConfig{Port: 8080},
			Storage:   StorageConfig{Driver: StoragePostgres},
			Database:  DatabaseConfig{URL: "postgres://x"},
			Auth:      AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour},
			Scheduler: SchedulerConfig{ExpireInterval: time.Hour},
			Matching:  matching.DefaultPolicy(),
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"short secret in production", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"memory in production", func(c *Config) { c.Storage.Driver = StorageMemory }, "not allowed in production"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, "STORAGE_DRIVER"},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "HTTP_PORT"},
		{"bad policy", func(c *Config) { c.Matching.OverFetchFactor = 0 }, "over-fetch"},
		{"zero sweep interval", func(c *Config) { c.Scheduler.ExpireInterval = 0 }, "SCHEDULER_EXPIRE_INTERVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestSectionConversions(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380, DB: 2, PoolSize: 4}.Client()
	assert.Equal(t, "cache", r.Host)
	assert.Equal(t, 6380, r.Port)
	assert.Equal(t, 2, r.DB)

	n := NATSConfig{URL: "nats://bus:4222", SubjectPrefix: "bx"}.Publisher("worker")
	assert.Equal(t, "nats://bus:4222", n.URL)
	assert.Equal(t, "bx", n.SubjectPrefix)
	assert.Equal(t, "worker", n.Name)
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("FEATURE_MATCHING_SUGGESTIONS", "false")
	t.Setenv("FEATURE_CLUBS_MEMBERSHIPS", "0")
	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureMatchSuggestions, nil))
	assert.False(t, ff.IsEnabled(FeatureClubMemberships, &FeatureContext{UserID: "u-1"}))
	assert.True(t, ff.IsEnabled(FeatureMatchSuggestions, &FeatureContext{IsAdmin: true}))
	assert.False(t, ff.IsEnabled("unknown.feature", nil))

	ff.SetUserOverride("u-1", FeatureMatchSuggestions, true)
	assert.True(t, ff.IsEnabled(FeatureMatchSuggestions, &FeatureContext{UserID: "u-1"}))
	ff.ClearUserOverrides("u-1")
	assert.False(t, ff.IsEnabled(FeatureMatchSuggestions, &FeatureContext{UserID: "u-1"}))

	require.NoError(t, ff.SetRolloutPercent(FeatureMatchCache, 50))
	first := ff.IsEnabled(FeatureMatchCache, &FeatureContext{UserID: "u-42"})
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureMatchCache, &FeatureContext{UserID: "u-42"}), "rollout is sticky")
	}

	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureMatchCache, 101), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.EnableFeature("nope"), ErrFeatureNotFound)
	assert.Len(t, ff.GetAllFeatures(), 4)
}
