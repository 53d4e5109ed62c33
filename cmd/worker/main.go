// Package main is the background worker of Boxing Match Hub.
//
// The worker runs the scheduled jobs against the shared PostgreSQL database:
// pending match requests older than the expiry window are marked EXPIRED and
// a match_request.expired event is published for each of them.
//
// With -rollback the worker reverts the last applied migration and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/config"
	"github.com/boxmatch/boxmatch-hub/internal/application/command"
	"github.com/boxmatch/boxmatch-hub/internal/bootstrap"
	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/postgres"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/scheduler"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/scheduler/jobs"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// errMemoryStorage is returned when the worker is started against the
// in-memory store, which it cannot share with the API process.
var errMemoryStorage = errors.New("worker requires STORAGE_DRIVER=postgres; use SCHEDULER_ENABLED=true on the API for in-memory storage")

func main() {
	rollback := flag.Bool("rollback", false, "revert the last applied migration and exit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entry := run
	if *rollback {
		entry = rollbackMigration
	}
	if err := entry(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration & logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Driver == config.StorageMemory {
		return errMemoryStorage
	}

	log := bootstrap.Logger(cfg).Named("worker")
	defer func() { _ = log.Sync() }()

	log.Info("starting Boxing Match Hub worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.Scheduler.Location.String()),
		logger.Duration("expire_interval", cfg.Scheduler.ExpireInterval),
	)

	clock := clockwork.NewRealClock()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Database
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := bootstrap.ConnectPostgres(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database connection")
		conn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Events
	// ─────────────────────────────────────────────────────────────────────────
	publisher, closePublisher, err := bootstrap.Publisher(ctx, cfg, "boxmatch-worker", log)
	if err != nil {
		return err
	}
	defer closePublisher()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Application layer
	// ─────────────────────────────────────────────────────────────────────────
	requests := command.NewMatchRequestHandler(
		postgres.NewBoxerRepository(conn),
		postgres.NewMatchRequestRepository(conn),
		matching.NewScorer(cfg.Matching),
		publisher,
		clock,
		log,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	sched, err := scheduler.NewScheduler(scheduler.Config{
		Logger:     log,
		Clock:      clock,
		Location:   cfg.Scheduler.Location,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	expire := jobs.NewExpireMatchRequestsJob(requests, clock, log)
	if err := sched.Register(expire, scheduler.Every(cfg.Scheduler.ExpireInterval)); err != nil {
		return fmt.Errorf("failed to register %s: %w", expire.Name(), err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Catch up on anything that expired while the worker was down.
	if _, err := sched.RunNow(ctx, expire.Name()); err != nil {
		log.Warn("initial expiry run failed", logger.Err(err))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	log.Info("stopping scheduler", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	done := make(chan error, 1)
	go func() { done <- sched.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("scheduler stopped with error", logger.Err(err))
			return err
		}
	case <-clock.After(cfg.App.ShutdownTimeout):
		log.Warn("scheduler did not stop before the shutdown timeout")
	}

	log.Info("worker stopped")
	return nil
}

// rollbackMigration reverts the newest applied migration.
func rollbackMigration(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Storage.Driver == config.StorageMemory {
		return errMemoryStorage
	}

	log := bootstrap.Logger(cfg).Named("migrations")
	defer func() { _ = log.Sync() }()

	// Connect without applying pending migrations first.
	connCfg := *cfg
	connCfg.Database.AutoMigrate = false
	conn, err := bootstrap.ConnectPostgres(ctx, &connCfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	version, err := postgres.NewMigrator(conn).Rollback(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	if version == 0 {
		log.Info("no applied migrations to roll back")
		return nil
	}
	log.Info("migration rolled back", logger.Int("version", version))
	return nil
}
