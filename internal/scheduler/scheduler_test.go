package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/krxdaily/pkg/logger"
)

// scriptedJob fails the first `failures` runs
type scriptedJob struct {
	name     string
	schedule string
	failures int
	runs     int
}

func (j *scriptedJob) Name() string     { return j.name }
func (j *scriptedJob) Schedule() string { return j.schedule }

func (j *scriptedJob) Run(context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func newTestScheduler(maxRetries int) *Scheduler {
	return New(time.UTC, logger.Nop(), WithRetry(maxRetries, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&scriptedJob{name: "b", schedule: "0 0 18 * * 1-5"}))
	require.NoError(t, s.AddJob(&scriptedJob{name: "a", schedule: "@daily"}))
	assert.Error(t, s.AddJob(&scriptedJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&scriptedJob{name: "c", schedule: "not a cron"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&scriptedJob{name: "daily", schedule: "0 0 18 * * 1-5"}))

	s.Start()
	defer s.Stop()

	next, ok := s.NextRun("daily")
	require.True(t, ok)
	assert.Equal(t, 18, next.In(time.UTC).Hour())
	assert.NotEqual(t, time.Saturday, next.Weekday())
	assert.NotEqual(t, time.Sunday, next.Weekday())

	_, ok = s.NextRun("missing")
	assert.False(t, ok)
}

func TestRunJob_RetryThenSuccess(t *testing.T) {
	s := newTestScheduler(2)
	job := &scriptedJob{name: "collect", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("collect")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, job.runs)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Error)
}

func TestRunJob_ExhaustsRetries(t *testing.T) {
	s := newTestScheduler(1)
	job := &scriptedJob{name: "collect", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("collect")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 2, job.runs)
	assert.Equal(t, "upstream unavailable", result.Error)

	_, err = s.RunJob("missing")
	assert.Error(t, err)
}

func TestHistoryAndStats(t *testing.T) {
	s := newTestScheduler(0)
	job := &scriptedJob{name: "collect", schedule: "@daily", failures: 1}
	require.NoError(t, s.AddJob(job))

	first, _ := s.RunJob("collect")
	second, _ := s.RunJob("collect")
	assert.NotEqual(t, first.RunID, second.RunID)

	history, err := s.GetJobHistory("collect")
	require.NoError(t, err)
	require.Len(t, history.Results, 2)
	assert.False(t, history.Results[0].Success)
	assert.True(t, history.Results[1].Success)
	assert.Equal(t, 0.5, history.SuccessRate())

	stats := s.GetJobStats()["collect"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	require.NotNil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastFailure)
	assert.Equal(t, second.StartTime, *stats.LastRun)

	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestJobHistory_Bounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.Add(JobResult{Attempts: i, Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Equal(t, 20, h.Results[0].Attempts)

	latest := h.Latest(3)
	require.Len(t, latest, 3)
	assert.Equal(t, maxHistory+19, latest[2].Attempts)
	succeeded, failed := h.Counts()
	assert.Equal(t, maxHistory/2, succeeded)
	assert.Equal(t, maxHistory/2, failed)
	assert.Empty(t, (&JobHistory{}).Latest(5))
	assert.Zero(t, (&JobHistory{}).SuccessRate())
}

func TestStop_CancelsRetries(t *testing.T) {
	s := New(time.UTC, logger.Nop(), WithRetry(5, time.Hour))
	job := &scriptedJob{name: "collect", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	s.Start()
	s.Stop()

	result, err := s.RunJob("collect")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, job.runs, "a stopped scheduler runs nothing")
}
