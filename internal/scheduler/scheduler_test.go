package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cockpit/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	failures int // fail this many times before succeeding
	runs     int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.NewWithWriter(io.Discard))
	s.retryDelay = time.Millisecond
	return s
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "refresh", schedule: "0 30 22 * * 1-5"}

	require.NoError(t, s.AddJob(job))

	t.Run("duplicate name rejected", func(t *testing.T) {
		assert.Error(t, s.AddJob(&stubJob{name: "refresh", schedule: "@daily"}))
	})

	t.Run("bad schedule rejected", func(t *testing.T) {
		assert.Error(t, s.AddJob(&stubJob{name: "other", schedule: "not a schedule"}))
	})
}

func TestScheduler_RunJobRecordsHistory(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "refresh", schedule: "0 30 22 * * 1-5"}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	history, err := s.History("refresh")
	require.NoError(t, err)
	latest := history.Latest()
	require.NotNil(t, latest)
	assert.True(t, latest.Success)
	assert.Equal(t, "refresh", latest.JobName)
}

func TestScheduler_RetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, 3, job.runs)
	history, err := s.History("flaky")
	require.NoError(t, err)
	assert.True(t, history.Latest().Success)
}

func TestScheduler_ExhaustedRetriesRecordFailure(t *testing.T) {
	s := newTestScheduler()
	s.maxRetries = 1
	job := &stubJob{name: "dead", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, 2, job.runs)
	history, err := s.History("dead")
	require.NoError(t, err)
	latest := history.Latest()
	assert.False(t, latest.Success)
	assert.Equal(t, "boom", latest.Error)
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
	_, err := s.History("missing")
	assert.Error(t, err)
}
