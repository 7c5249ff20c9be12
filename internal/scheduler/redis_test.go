package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/engine"
	"tya-notifications/internal/engine/outofhours"
	"tya-notifications/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var triggerAt = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

func createTestRedisScheduler(t *testing.T) (*RedisScheduler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisScheduler(client, "tya:jobs", logger.NewTestLogger(t)), mr
}

func createTestJob(eventID models.EventType, at time.Time) models.ReminderJob {
	return models.ReminderJob{
		JobGroup:  models.JobGroup("1001", eventID),
		EventID:   eventID,
		CaseID:    "1001",
		TriggerAt: at,
	}
}

func TestRedisScheduler_ScheduleIsIdempotent(t *testing.T) {
	s, mr := createTestRedisScheduler(t)
	ctx := context.Background()
	job := createTestJob(models.EventEvidenceReminder, triggerAt)

	require.NoError(t, s.Schedule(ctx, job))
	require.NoError(t, s.Schedule(ctx, job))

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	score, err := mr.ZScore("tya:jobs:due", jobKey(job))
	require.NoError(t, err)
	assert.Equal(t, float64(triggerAt.Unix()), score)
}

func TestRedisScheduler_SameGroupDifferentTrigger(t *testing.T) {
	s, _ := createTestRedisScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Schedule(ctx, createTestJob(models.EventHearingReminder, triggerAt)))
	require.NoError(t, s.Schedule(ctx, createTestJob(models.EventHearingReminder, triggerAt.Add(5*24*time.Hour))))

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)
}

func TestRedisScheduler_Claim(t *testing.T) {
	s, mr := createTestRedisScheduler(t)
	ctx := context.Background()

	due := createTestJob(models.EventEvidenceReminder, triggerAt)
	due.Payload = []byte(`{"eventType":"question_round_issued"}`)
	later := createTestJob(models.EventDwpResponseLateReminder, triggerAt.Add(time.Hour))
	require.NoError(t, s.Schedule(ctx, due))
	require.NoError(t, s.Schedule(ctx, later))

	jobs, err := s.Claim(ctx, triggerAt.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, due.JobGroup, jobs[0].JobGroup)
	assert.True(t, due.TriggerAt.Equal(jobs[0].TriggerAt))
	assert.JSONEq(t, string(due.Payload), string(jobs[0].Payload))

	again, err := s.Claim(ctx, triggerAt.Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	bodies, err := mr.HKeys("tya:jobs:jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{jobKey(later)}, bodies)
	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestRedisScheduler_ScheduleFailsWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisScheduler(client, "tya:jobs", logger.NewTestLogger(t))

	err := s.Schedule(context.Background(), createTestJob(models.EventEvidenceReminder, triggerAt))

	assert.Error(t, err)
}

func TestRedisScheduler_RunDueReschedulesFailures(t *testing.T) {
	s, _ := createTestRedisScheduler(t)
	ctx := context.Background()
	ok := createTestJob(models.EventEvidenceReminder, triggerAt)
	failing := createTestJob(models.EventDwpResponseLateReminder, triggerAt)
	require.NoError(t, s.Schedule(ctx, ok))
	require.NoError(t, s.Schedule(ctx, failing))

	var ran []string
	now := triggerAt.Add(time.Second)
	s.runDue(ctx, now, time.Minute, func(_ context.Context, job models.ReminderJob) error {
		ran = append(ran, job.JobGroup)
		if job.EventID == models.EventDwpResponseLateReminder {
			return errors.New("workflow unavailable")
		}
		return nil
	})

	assert.ElementsMatch(t, []string{ok.JobGroup, failing.JobGroup}, ran)

	jobs, err := s.Claim(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, failing.JobGroup, jobs[0].JobGroup)
	assert.True(t, now.Add(time.Minute).Equal(jobs[0].TriggerAt))
}

func TestRedisScheduler_RedeliveredOutOfHoursRequestQueuedOnce(t *testing.T) {
	s, _ := createTestRedisScheduler(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	evening := time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)
	gate, err := outofhours.NewCalculator(func() time.Time { return evening }, outofhours.MinuteJitter, "Europe/London", 9, 17)
	require.NoError(t, err)
	eng := engine.New(engine.Dependencies{
		Gate:       gate,
		Dispatcher: engine.NewDispatcher(nil, nil, nil, nil, engine.DispatcherConfig{}, log),
		Jobs:       s,
		Logger:     log,
	})

	req := engine.Request{
		EventType: models.EventQuestionRoundIssued,
		NewCase:   models.CaseSnapshot{CaseID: "1001"},
	}
	var until []time.Time
	for i := 0; i < 5; i++ {
		result, err := eng.Process(ctx, req)
		require.NoError(t, err)
		require.True(t, result.Deferred)
		until = append(until, *result.DeferredUntil)
	}

	for _, at := range until[1:] {
		assert.True(t, until[0].Equal(at))
	}
	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}
