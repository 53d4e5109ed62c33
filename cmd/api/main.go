// Package main is the entry point of the Boxing Match Hub API.
//
// The process serves the REST API. It can also run the background scheduler
// in-process (SCHEDULER_ENABLED=true) for single-instance deployments;
// otherwise cmd/worker runs the scheduled jobs.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	// Application layer
	"github.com/boxmatch/boxmatch-hub/config"
	"github.com/boxmatch/boxmatch-hub/internal/application/command"
	"github.com/boxmatch/boxmatch-hub/internal/application/query"
	"github.com/boxmatch/boxmatch-hub/internal/bootstrap"

	// Domain
	"github.com/boxmatch/boxmatch-hub/internal/domain/boxer"
	"github.com/boxmatch/boxmatch-hub/internal/domain/club"
	"github.com/boxmatch/boxmatch-hub/internal/domain/match"
	"github.com/boxmatch/boxmatch-hub/internal/domain/matching"
	"github.com/boxmatch/boxmatch-hub/internal/domain/user"

	// Infrastructure layer
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/messaging"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/memory"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/postgres"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/persistence/redis"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/scheduler"
	"github.com/boxmatch/boxmatch-hub/internal/infrastructure/scheduler/jobs"

	// Interface layer
	httpserver "github.com/boxmatch/boxmatch-hub/internal/interface/http"
	"github.com/boxmatch/boxmatch-hub/internal/interface/http/handlers"

	// Packages
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
	"github.com/boxmatch/boxmatch-hub/pkg/retry"
	"github.com/boxmatch/boxmatch-hub/pkg/security"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// repositories groups the storage backend chosen by STORAGE_DRIVER.
type repositories struct {
	users    user.Repository
	boxers   boxer.Repository
	requests match.Repository
	clubs    club.Repository
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration & logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := bootstrap.Logger(cfg)
	defer func() { _ = log.Sync() }()

	log.Info("starting Boxing Match Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("storage", cfg.Storage.Driver),
	)

	clock := clockwork.NewRealClock()
	health := handlers.NewCompositeHealthChecker(cfg.App.Version, clock)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Storage
	// ─────────────────────────────────────────────────────────────────────────
	var repos repositories
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		repos = repositories{users: store.Users(), boxers: store.Boxers(), requests: store.MatchRequests(), clubs: store.Clubs()}

	default:
		conn, err := bootstrap.ConnectPostgres(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database connection")
			conn.Close()
		}()
		health.AddReportCheck("database", handlers.NewReportCheck(conn))
		repos = repositories{
			users:    postgres.NewUserRepository(conn),
			boxers:   postgres.NewBoxerRepository(conn),
			requests: postgres.NewMatchRequestRepository(conn),
			clubs:    postgres.NewClubRepository(conn),
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Match cache
	// ─────────────────────────────────────────────────────────────────────────
	var cache matching.ResultCache
	switch {
	case !cfg.Features.IsEnabled(config.FeatureMatchCache, nil):
		log.Info("match cache disabled by feature flag")
	case cfg.Redis.Disabled:
		cache = memory.NewCache(clock)
		log.Info("using in-process match cache")
	default:
		redisCache, err := retry.DoWithData(ctx, func(context.Context) (*redis.Cache, error) {
			return redis.NewCache(cfg.Redis.Client())
		}, retry.StartupOptions(bootstrap.LogRetry(log, "redis"))...)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = redisCache.Close() }()
		health.AddCheck("redis", handlers.NewPingCheck(redisCache))
		cache = redis.NewGuardedCache(redisCache, clock, log)
		log.Info("redis match cache connected")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Events
	// ─────────────────────────────────────────────────────────────────────────
	bus := messaging.NewInMemoryEventBus(log)
	defer func() { _ = bus.Close() }()

	external, closeExternal, err := bootstrap.Publisher(ctx, cfg, "boxmatch-api", log)
	if err != nil {
		return err
	}
	defer closeExternal()
	if err := bus.SubscribeAll(messaging.Handler(external.Publish)); err != nil {
		return fmt.Errorf("subscribe publisher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Application layer
	// ─────────────────────────────────────────────────────────────────────────
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		log.Warn("JWT_SECRET is not set; using a random secret, tokens will not survive a restart")
	}
	tokens := security.NewTokenIssuer(secret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL, clock)
	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	scorer := matching.NewScorer(cfg.Matching)

	matches := query.NewFindMatchesHandler(repos.boxers, repos.requests, scorer, cache, log)
	matchRequests := command.NewMatchRequestHandler(repos.boxers, repos.requests, scorer, bus, clock, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Optional in-process scheduler
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.NewScheduler(scheduler.Config{
			Logger:     log,
			Clock:      clock,
			Location:   cfg.Scheduler.Location,
			JobTimeout: cfg.Scheduler.JobTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		job := jobs.NewExpireMatchRequestsJob(matchRequests, clock, log)
		if err := sched.Register(job, scheduler.Every(cfg.Scheduler.ExpireInterval)); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.CORSOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimit
	httpConfig.Version = cfg.App.Version

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Auth:          command.NewAuthHandler(repos.users, hasher, tokens, clock, log),
		Profiles:      command.NewBoxerProfileHandler(repos.boxers, repos.clubs, matches, bus, clock, log),
		MatchRequests: matchRequests,
		Clubs:         command.NewClubHandler(repos.clubs, repos.boxers, matches, bus, clock, log),
		Matches:       matches,
		Requests:      query.NewGetMatchRequestsHandler(repos.requests, bus, clock, log),
		Reads:         query.NewGetProfilesHandler(repos.boxers, repos.clubs),
		Tokens:        tokens,
		Features:      cfg.Features,
		Scheduler:     sched,
		HealthChecker: health,
		Clock:         clock,
		Logger:        log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error("http server failed", logger.Err(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}
	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func randomSecret() (string, error) {
	b := make([]byte, config.MinJWTSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
