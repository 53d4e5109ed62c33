// Package bootstrap holds the process wiring shared by cmd/api and cmd/worker.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/boxmatch/boxmatch-hub/config"
	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/messaging"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/postgres"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
	"github.com/boxmatch/boxmatch-hub/pkg/retry"
)

// Logger builds the process logger from the observability section.
func Logger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	opts.Format = cfg.Observability.LogFormat
	return logger.New(opts).With(logger.String("service", cfg.App.Name))
}

// LogRetry returns an OnRetry callback that reports failed connection attempts.
func LogRetry(log *logger.Logger, target string) func(int, error, time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		log.Warn("connection attempt failed",
			logger.String("target", target),
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", delay),
			logger.Err(err),
		)
	}
}

// ConnectPostgres opens the pool, retrying while the database starts, and
// applies migrations when DB_AUTO_MIGRATE is set.
func ConnectPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Connection, error) {
	log.Info("connecting to database")
	conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnection(ctx, cfg.Database.Postgres())
	}, retry.StartupOptions(LogRetry(log, "postgres"))...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	log.Info("database connection established")
	return conn, nil
}

// Publisher returns where domain events leave the process, plus its closer.
//
// Events go to NATS unless NATS is disabled, in which case they are logged.
// Debug mode logs them in addition to NATS. The event_publishing feature
// flag turns publishing off entirely.
func Publisher(ctx context.Context, cfg *config.Config, clientName string, log *logger.Logger) (shared.EventPublisher, func(), error) {
	noop := func() {}

	if !cfg.Features.IsEnabled(config.FeatureEventPublishing, nil) {
		log.Info("event publishing disabled by feature flag")
		return shared.NopPublisher{}, noop, nil
	}
	if cfg.NATS.Disabled {
		log.Info("nats disabled; events are written to the log")
		return messaging.NewLogPublisher(log), noop, nil
	}

	pub, err := retry.DoWithData(ctx, func(context.Context) (*messaging.NATSPublisher, error) {
		return messaging.NewNATSPublisher(cfg.NATS.Publisher(clientName), log)
	}, retry.StartupOptions(LogRetry(log, "nats"))...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	var out shared.EventPublisher = pub
	if cfg.App.Debug {
		out = messaging.MultiPublisher{pub, messaging.NewLogPublisher(log)}
	}
	return out, func() {
		if err := pub.Close(); err != nil {
			log.Warn("failed to close nats publisher", logger.Err(err))
		}
	}, nil
}
