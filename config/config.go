// Package config provides application configuration loaded from environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/messaging"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/postgres"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/redis"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	NATS          NATSConfig
	Scheduler     SchedulerConfig
	Matching      matching.Policy
	Features      *FeatureFlags
	Observability ObservabilityConfig
}

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// MinJWTSecretLength is the shortest HS256 secret accepted.
const MinJWTSecretLength = 32

// AppConfig holds general application settings.
type AppConfig struct {
	Name            string
	Environment     Environment
	Debug           bool
	Version         string
	ShutdownTimeout time.Duration
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// CORSOrigins lists allowed origins; empty means any origin.
	CORSOrigins []string

	// RateLimit is requests per minute per client IP. Zero disables limiting.
	RateLimit int
}

// Addr returns the listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string // postgres, memory
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	AutoMigrate     bool
}

// Postgres converts the section to the connection layer's config.
func (d DatabaseConfig) Postgres() postgres.Config {
	cfg := postgres.DefaultConfig()
	if d.URL != "" {
		cfg.URL = d.URL
	}
	cfg.MaxConns = int32(d.MaxConns)
	cfg.MinConns = int32(d.MinConns)
	cfg.MaxConnLifetime = d.ConnMaxLifetime
	cfg.MaxConnIdleTime = d.ConnMaxIdleTime
	cfg.ConnectTimeout = d.ConnectTimeout
	return cfg
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	URL          string
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Disabled switches the match cache to the in-process implementation.
	Disabled bool
}

// Client converts the section to the cache adapter's config.
func (r RedisConfig) Client() redis.Config {
	cfg := redis.DefaultConfig()
	cfg.URL = r.URL
	cfg.Host = r.Host
	cfg.Port = r.Port
	cfg.Password = r.Password
	cfg.DB = r.DB
	cfg.PoolSize = r.PoolSize
	cfg.MinIdleConns = r.MinIdleConns
	cfg.DialTimeout = r.DialTimeout
	cfg.ReadTimeout = r.ReadTimeout
	cfg.WriteTimeout = r.WriteTimeout
	return cfg
}

// AuthConfig holds account and token settings.
type AuthConfig struct {
	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int
}

// NATSConfig holds event publishing settings.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration

	// Disabled routes domain events to the log instead of NATS.
	Disabled bool
}

// Publisher converts the section to the messaging layer's config.
func (n NATSConfig) Publisher(clientName string) messaging.NATSConfig {
	cfg := messaging.DefaultNATSConfig()
	cfg.URL = n.URL
	cfg.SubjectPrefix = n.SubjectPrefix
	cfg.MaxReconnects = n.MaxReconnects
	cfg.ReconnectWait = n.ReconnectWait
	if clientName != "" {
		cfg.Name = clientName
	}
	return cfg
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	// Enabled runs the scheduler inside the API process as well as in the worker.
	Enabled bool

	ExpireInterval time.Duration
	JobTimeout     time.Duration
	Timezone       string
	Location       *time.Location
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		App:           loadAppConfig(),
		HTTP:          loadHTTPConfig(),
		Storage:       StorageConfig{Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres))},
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Auth:          loadAuthConfig(),
		NATS:          loadNATSConfig(),
		Scheduler:     loadSchedulerConfig(),
		Features:      LoadFeatureFlags(),
		Observability: loadObservabilityConfig(),
	}

	policy, err := loadMatchingPolicy()
	if err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}
	cfg.Matching = policy

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", string(EnvDevelopment)))
	return AppConfig{
		Name:            getEnv("APP_NAME", "boxmatch-hub"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:         getEnv("HTTP_HOST", "0.0.0.0"),
		Port:         getEnvInt("HTTP_PORT", 8080),
		ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		CORSOrigins:  getEnvSlice("CORS_ALLOWED_ORIGINS", nil),
		RateLimit:    getEnvInt("HTTP_RATE_LIMIT", 120),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	url := getEnv("DATABASE_URL", "")
	if url == "" {
		host := getEnv("DB_HOST", "")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "")
		pass := getEnv("DB_PASSWORD", "")
		name := getEnv("DB_NAME", "boxmatch")
		sslmode := getEnv("DB_SSLMODE", "disable")

		if host != "" && user != "" {
			url = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				user, pass, host, port, name, sslmode)
		}
	}

	return DatabaseConfig{
		URL:             url,
		MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		MinConns:        getEnvInt("DB_MIN_CONNS", 2),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:          getEnv("REDIS_URL", ""),
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "boxmatch-hub"),
		TokenTTL:   getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 12),
	}
}

func loadNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "boxmatch.events"),
		MaxReconnects: getEnvInt("NATS_MAX_RECONNECTS", -1),
		ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		Disabled:      getEnvBool("NATS_DISABLED", false),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	timezone := getEnv("SCHEDULER_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return SchedulerConfig{
		Enabled:        getEnvBool("SCHEDULER_ENABLED", false),
		ExpireInterval: getEnvDuration("SCHEDULER_EXPIRE_INTERVAL", time.Hour),
		JobTimeout:     getEnvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
		Timezone:       timezone,
		Location:       loc,
	}
}

// loadMatchingPolicy starts from the defaults, applies MATCHING_POLICY_FILE
// when set, then lets individual environment variables win.
func loadMatchingPolicy() (matching.Policy, error) {
	p := matching.DefaultPolicy()

	if path := getEnv("MATCHING_POLICY_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read policy file: %w", err)
		}
		if err := ParsePolicyYAML(data, &p); err != nil {
			return p, fmt.Errorf("%s: %w", path, err)
		}
	}

	p.WeightToleranceKg = getEnvFloat("MATCH_WEIGHT_TOLERANCE_KG", p.WeightToleranceKg)
	p.FightsTolerance = getEnvInt("MATCH_FIGHTS_TOLERANCE", p.FightsTolerance)
	p.CacheTTL = getEnvDuration("MATCH_CACHE_TTL", p.CacheTTL)
	if days := getEnvInt("MATCH_REQUEST_EXPIRY_DAYS", 0); days > 0 {
		p.RequestExpiry = time.Duration(days) * 24 * time.Hour
	}
	p.DefaultLimit = getEnvInt("MATCH_DEFAULT_LIMIT", p.DefaultLimit)
	p.MaxLimit = getEnvInt("MATCH_MAX_LIMIT", p.MaxLimit)
	p.OverFetchFactor = getEnvInt("MATCH_OVER_FETCH_FACTOR", p.OverFetchFactor)
	return p, nil
}

// ParsePolicyYAML overlays the keys present in data onto p.
// Durations use Go syntax ("5m", "168h").
func ParsePolicyYAML(data []byte, p *matching.Policy) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse matching policy: %w", err)
	}
	return nil
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	switch c.Storage.Driver {
	case StoragePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL (or DB_HOST/DB_USER) is required for the postgres driver")
		}
	case StorageMemory:
		if c.App.Environment == EnvProduction {
			errs = append(errs, "STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER must be %q or %q", StoragePostgres, StorageMemory))
	}

	if c.App.Environment == EnvProduction && len(c.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters in production", MinJWTSecretLength))
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, "JWT_TOKEN_TTL must be positive")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, "HTTP_RATE_LIMIT cannot be negative")
	}
	if c.Scheduler.ExpireInterval <= 0 {
		errs = append(errs, "SCHEDULER_EXPIRE_INTERVAL must be positive")
	}

	if err := c.Matching.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvSlice(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		result = append(result, p)
	}
	return result
}
