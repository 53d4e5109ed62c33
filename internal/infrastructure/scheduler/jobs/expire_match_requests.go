// Package jobs contains the scheduled jobs of Boxing Match Hub.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE MATCH REQUESTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RequestExpirer moves overdue PENDING match requests to EXPIRED.
type RequestExpirer interface {
	ExpireOldRequests(ctx context.Context) (int, error)
}

// ExpireStats describes the last sweep.
type ExpireStats struct {
	StartedAt time.Time
	Duration  time.Duration
	Expired   int
}

// ExpireMatchRequestsJob keeps stored request statuses current so listings
// and stats never show overdue requests as PENDING.
type ExpireMatchRequestsJob struct {
	expirer RequestExpirer
	clock   clockwork.Clock
	log     *logger.Logger

	lastStats atomic.Pointer[ExpireStats]
}

// NewExpireMatchRequestsJob creates the sweep job.
func NewExpireMatchRequestsJob(expirer RequestExpirer, clock clockwork.Clock, log *logger.Logger) *ExpireMatchRequestsJob {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ExpireMatchRequestsJob{
		expirer: expirer,
		clock:   clock,
		log:     log.Named("expire_match_requests"),
	}
}

// Name returns the job name.
func (j *ExpireMatchRequestsJob) Name() string {
	return "expire_match_requests"
}

// Description returns a human-readable description.
func (j *ExpireMatchRequestsJob) Description() string {
	return "Moves PENDING match requests past their expiry to EXPIRED"
}

// Run executes one sweep.
func (j *ExpireMatchRequestsJob) Run(ctx context.Context) error {
	startedAt := j.clock.Now()

	n, err := j.expirer.ExpireOldRequests(ctx)
	if err != nil {
		return fmt.Errorf("expire match requests: %w", err)
	}

	stats := &ExpireStats{
		StartedAt: startedAt,
		Duration:  j.clock.Since(startedAt),
		Expired:   n,
	}
	j.lastStats.Store(stats)

	j.log.Debug("sweep finished", logger.Int("expired", n), logger.Latency(stats.Duration))
	return nil
}

// LastStats returns the stats of the last successful sweep, or nil.
func (j *ExpireMatchRequestsJob) LastStats() *ExpireStats {
	return j.lastStats.Load()
}
