package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	panic bool
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "test job" }
func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("boom")
	}
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logger = logger.NewNop()
	s, err := NewScheduler(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "sweep"}

	require.NoError(t, s.Register(job, Every(time.Hour)))
	assert.ErrorIs(t, s.Register(job, Every(time.Hour)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, Every(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "bad"}, Schedule{}), ErrInvalidSchedule)

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "sweep", jobs[0].Name)
	assert.Equal(t, "every 1h0m0s", jobs[0].Schedule)
}

func TestScheduler_RunNowRecordsHistory(t *testing.T) {
	s := newTestScheduler(t)
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("nope")}
	panicking := &countingJob{name: "panicking", panic: true}
	require.NoError(t, s.Register(ok, Cron("0 3 * * *")))
	require.NoError(t, s.Register(failing, Every(time.Hour)))
	require.NoError(t, s.Register(panicking, Every(time.Hour)))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	_, err = s.RunNow(context.Background(), "failing")
	assert.EqualError(t, err, "nope")

	_, err = s.RunNow(context.Background(), "panicking")
	assert.ErrorContains(t, err, "panicked")

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	history := s.GetHistory(2)
	require.Len(t, history, 2)
	assert.Equal(t, "panicking", history[0].JobName)
	assert.Equal(t, "failing", history[1].JobName)

	for _, info := range s.ListJobs() {
		assert.EqualValues(t, 1, info.RunCount, info.Name)
		require.NotNil(t, info.LastRun, info.Name)
	}
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, Every(20*time.Millisecond)))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)

	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}
