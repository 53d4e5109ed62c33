// Package scheduler runs periodic background jobs for Boxing Match Hub,
// such as the sweep that expires overdue match requests. Timing is delegated
// to gocron; this package adds job registration by name, per-run timeouts,
// manual triggering and a bounded run history.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrNilJob           = errors.New("scheduler: job is nil")
	ErrJobAlreadyExists = errors.New("scheduler: job already registered")
	ErrJobNotFound      = errors.New("scheduler: job not found")
	ErrInvalidSchedule  = errors.New("scheduler: invalid schedule")
	ErrAlreadyRunning   = errors.New("scheduler: already running")
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping or the run times out.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
	Manual      bool
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULES
// ══════════════════════════════════════════════════════════════════════════════

// Schedule says when a job runs: either at a fixed interval or on a cron expression.
type Schedule struct {
	interval time.Duration
	cron     string
}

// Every runs a job at a fixed interval.
func Every(d time.Duration) Schedule {
	return Schedule{interval: d}
}

// Cron runs a job on a standard five-field cron expression.
func Cron(expr string) Schedule {
	return Schedule{cron: expr}
}

// String returns a human-readable representation of the schedule.
func (s Schedule) String() string {
	if s.cron != "" {
		return "cron(" + s.cron + ")"
	}
	return "every " + s.interval.String()
}

func (s Schedule) definition() (gocron.JobDefinition, error) {
	switch {
	case s.cron != "":
		return gocron.CronJob(s.cron, false), nil
	case s.interval > 0:
		return gocron.DurationJob(s.interval), nil
	default:
		return nil, ErrInvalidSchedule
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the Scheduler.
type Config struct {
	Logger *logger.Logger

	// Clock drives both gocron and run timestamps. Defaults to the real clock.
	Clock clockwork.Clock

	// Location for cron expressions (default: UTC).
	Location *time.Location

	// JobTimeout bounds a single run. Zero means no timeout.
	JobTimeout time.Duration

	// MaxHistorySize is the maximum number of job results to keep in history.
	MaxHistorySize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Logger:         logger.Default(),
		Clock:          clockwork.NewRealClock(),
		Location:       time.UTC,
		JobTimeout:     5 * time.Minute,
		MaxHistorySize: 200,
	}
}

// Scheduler manages and executes scheduled jobs.
type Scheduler struct {
	mu sync.RWMutex

	cron       gocron.Scheduler
	log        *logger.Logger
	clock      clockwork.Clock
	timeout    time.Duration
	maxHistory int

	ctx    context.Context
	cancel context.CancelFunc

	jobs       map[string]*scheduledJob
	running    bool
	stopped    bool
	runHistory []JobResult
}

type scheduledJob struct {
	job       Job
	schedule  Schedule
	handle    gocron.Job
	lastRun   *JobResult
	runCount  int64
	failCount int64
}

// NewScheduler creates a new Scheduler with the given configuration.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxHistorySize <= 0 {
		cfg.MaxHistorySize = 200
	}

	cron, err := gocron.NewScheduler(
		gocron.WithLocation(cfg.Location),
		gocron.WithClock(cfg.Clock),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron,
		log:        cfg.Logger.Named("scheduler"),
		clock:      cfg.Clock,
		timeout:    cfg.JobTimeout,
		maxHistory: cfg.MaxHistorySize,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]*scheduledJob),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register adds a job with the given schedule. Runs of the same job never
// overlap: a tick that arrives while the job is still running is skipped.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	def, err := schedule.definition()
	if err != nil {
		return fmt.Errorf("%w: %s", err, job.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	sj := &scheduledJob{job: job, schedule: schedule}
	handle, err := s.cron.NewJob(
		def,
		gocron.NewTask(func() { s.execute(s.ctx, sj, false) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, name, err)
	}
	sj.handle = handle
	s.jobs[name] = sj

	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("description", job.Description()),
		logger.String("schedule", schedule.String()),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.running = true
	s.cron.Start()
	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels in-flight runs and waits for them to return. It is safe to call twice.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.running = false
	s.mu.Unlock()

	s.cancel()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("scheduler: shutdown: %w", err)
	}
	s.log.Info("scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ══════════════════════════════════════════════════════════════════════════════
// EXECUTION
// ══════════════════════════════════════════════════════════════════════════════

// RunNow immediately executes a job by name, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (*JobResult, error) {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	result := s.execute(ctx, sj, true)
	return &result, result.Error
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob, manual bool) JobResult {
	name := sj.job.Name()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := s.clock.Now()
	err := s.runSafely(ctx, sj.job)
	completedAt := s.clock.Now()

	result := JobResult{
		JobName:     name,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
		Manual:      manual,
	}

	s.mu.Lock()
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	sj.lastRun = &result
	s.runHistory = append(s.runHistory, result)
	if len(s.runHistory) > s.maxHistory {
		s.runHistory = s.runHistory[len(s.runHistory)-s.maxHistory:]
	}
	s.mu.Unlock()

	fields := []logger.Field{
		logger.String("job", name),
		logger.Bool("manual", manual),
		logger.Duration("duration", result.Duration),
	}
	if err != nil {
		s.log.Error("job failed", append(fields, logger.Err(err))...)
	} else {
		s.log.Info("job completed", fields...)
	}
	return result
}

// runSafely turns a panicking job into a failed run.
func (s *Scheduler) runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), p)
		}
	}()
	return job.Run(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS & INFO
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo contains information about a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	NextRun     time.Time
	LastRun     *JobResult
	RunCount    int64
	FailCount   int64
}

// ListJobs returns information about all registered jobs, sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		info := JobInfo{
			Name:        name,
			Description: sj.job.Description(),
			Schedule:    sj.schedule.String(),
			LastRun:     sj.lastRun,
			RunCount:    sj.runCount,
			FailCount:   sj.failCount,
		}
		if next, err := sj.handle.NextRun(); err == nil {
			info.NextRun = next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetHistory returns up to limit recent results, newest first.
func (s *Scheduler) GetHistory(limit int) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runHistory)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]JobResult, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.runHistory[i])
	}
	return out
}
