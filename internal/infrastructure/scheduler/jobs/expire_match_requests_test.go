package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExpirer struct {
	n     int
	err   error
	calls int
}

func (s *stubExpirer) ExpireOldRequests(context.Context) (int, error) {
	s.calls++
	return s.n, s.err
}

func TestExpireMatchRequestsJob_Run(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 3, 0, 0, 0, time.UTC))
	expirer := &stubExpirer{n: 4}
	job := NewExpireMatchRequestsJob(expirer, clock, nil)

	assert.Equal(t, "expire_match_requests", job.Name())
	assert.NotEmpty(t, job.Description())
	assert.Nil(t, job.LastStats())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, expirer.calls)

	stats := job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.Expired)
	assert.Equal(t, clock.Now(), stats.StartedAt)
}

func TestExpireMatchRequestsJob_PropagatesError(t *testing.T) {
	job := NewExpireMatchRequestsJob(&stubExpirer{err: errors.New("db down")}, nil, nil)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Nil(t, job.LastStats())
}
