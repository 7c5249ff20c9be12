package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRun struct {
	mu   sync.Mutex
	jobs []models.ReminderJob
}

func (r *recordingRun) run(_ context.Context, job models.ReminderJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recordingRun) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func createTestLocalScheduler(t *testing.T, rec *recordingRun) *LocalScheduler {
	t.Helper()
	s, err := NewLocalScheduler(rec.run, 5*time.Second, logger.NewTestLogger(t))
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestLocalScheduler_PastTriggerRunsImmediately(t *testing.T) {
	rec := &recordingRun{}
	s := createTestLocalScheduler(t, rec)
	job := createTestJob(models.EventEvidenceReminder, time.Now().Add(-time.Minute))

	require.NoError(t, s.Schedule(context.Background(), job))

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, job.JobGroup, rec.jobs[0].JobGroup)
}

func TestLocalScheduler_ReschedulingReplacesPendingJob(t *testing.T) {
	rec := &recordingRun{}
	s := createTestLocalScheduler(t, rec)
	job := createTestJob(models.EventEvidenceReminder, time.Now().Add(time.Hour))

	require.NoError(t, s.Schedule(context.Background(), job))
	require.NoError(t, s.Schedule(context.Background(), job))

	assert.Equal(t, 1, s.Pending(job))
	assert.Equal(t, 0, rec.count())
}

func TestLocalScheduler_HearingRemindersAreDistinct(t *testing.T) {
	rec := &recordingRun{}
	s := createTestLocalScheduler(t, rec)
	first := createTestJob(models.EventHearingReminder, time.Now().Add(time.Hour))
	second := createTestJob(models.EventHearingReminder, time.Now().Add(2*time.Hour))

	require.NoError(t, s.Schedule(context.Background(), first))
	require.NoError(t, s.Schedule(context.Background(), second))

	assert.Equal(t, 1, s.Pending(first))
	assert.Equal(t, 1, s.Pending(second))
}
