package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"tya-notifications/internal/common/config"
	apperrors "tya-notifications/internal/common/errors"
	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/engine/outofhours"
	"tya-notifications/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const week = 7 * 24 * time.Hour

type recordingScheduler struct {
	jobs    []models.ReminderJob
	failAt  int
	callErr error
}

func (r *recordingScheduler) Schedule(_ context.Context, job models.ReminderJob) error {
	if r.callErr != nil && len(r.jobs) == r.failAt {
		return r.callErr
	}
	r.jobs = append(r.jobs, job)
	return nil
}

func createTestConfig() config.ReminderConfig {
	return config.ReminderConfig{
		EvidenceReminderDelay:     48 * time.Hour,
		HearingReminderFirstLead:  48 * time.Hour,
		HearingReminderSecondLead: week,
		DwpResponseLateDelay:      5 * week,
		HearingHolding: config.HearingHoldingConfig{
			First:  6 * week,
			Second: 4 * week,
			Third:  3 * week,
			Final:  2 * week,
		},
	}
}

func createTestScheduler(t *testing.T, jobs JobScheduler, jitter func(string) time.Duration) *Scheduler {
	return NewScheduler(jobs, createTestConfig(), jitter, logger.NewTestLogger(t))
}

var dwpRespondAt = time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)

func createTestCase(format models.HearingFormat) models.CaseSnapshot {
	return models.CaseSnapshot{
		CaseID: "1234",
		Appeal: models.Appeal{HearingType: format, BenefitCode: "PIP"},
		Events: []models.Event{
			{Date: dwpRespondAt, Type: models.EventDwpRespond},
			{Date: dwpRespondAt.Add(-30 * 24 * time.Hour), Type: models.EventAppealReceived.ID()},
		},
	}
}

func TestPlan_DwpResponseOralSchedulesEvidenceAndHoldingChain(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)

	jobs, err := s.Plan(models.EventDwpResponseReceived, createTestCase(models.HearingOral))
	require.NoError(t, err)
	require.Len(t, jobs, 5)

	assert.Equal(t, models.EventEvidenceReminder, jobs[0].EventID)
	assert.Equal(t, "1234_evidenceReminder", jobs[0].JobGroup)
	assert.Equal(t, dwpRespondAt.Add(48*time.Hour), jobs[0].TriggerAt)

	cfg := createTestConfig()
	offsets := []time.Duration{cfg.HearingHolding.First, cfg.HearingHolding.Second, cfg.HearingHolding.Third, cfg.HearingHolding.Final}
	prev := dwpRespondAt
	for i, job := range jobs[1:] {
		assert.Equal(t, holdingChain[i], job.EventID)
		assert.Equal(t, models.JobGroup("1234", holdingChain[i]), job.JobGroup)
		assert.True(t, job.TriggerAt.After(prev), "trigger %d must follow its predecessor", i)
		assert.Equal(t, prev.Add(offsets[i]), job.TriggerAt)
		prev = job.TriggerAt
	}
}

func TestPlan_HoldingChainIsDeterministic(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)
	c := createTestCase(models.HearingOral)

	first, err := s.Plan(models.EventDwpResponseReceived, c)
	require.NoError(t, err)
	second, err := s.Plan(models.EventDwpResponseReceived, c)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPlan_DwpResponsePaperSkipsHoldingChain(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)

	jobs, err := s.Plan(models.EventDwpResponseReceived, createTestCase(models.HearingPaper))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.EventEvidenceReminder, jobs[0].EventID)
}

func TestPlan_OnlineSchedulesNothing(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)

	jobs, err := s.Plan(models.EventDwpResponseReceived, createTestCase(models.HearingOnline))
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestPlan_EvidenceReminderNeedsDwpRespondEvent(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)
	c := createTestCase(models.HearingPaper)
	c.Events = c.Events[1:]
	c.DwpResponseDate = "2024-03-04"

	_, err := s.Plan(models.EventDwpResponseReceived, c)

	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeReminderAnchorNotFound, stdErr.Code)
	assert.Contains(t, stdErr.Details, "evidenceReminder")
}

func TestHoldingAnchor_FallsBackToResponseDateWithJitter(t *testing.T) {
	var keys []string
	s := createTestScheduler(t, &recordingScheduler{}, func(key string) time.Duration {
		keys = append(keys, key)
		return 17 * time.Minute
	})
	c := createTestCase(models.HearingOral)
	c.Events = nil
	c.DwpResponseDate = "2024-03-04"

	jobs, err := s.holdingReminders(c)
	require.NoError(t, err)
	require.Len(t, jobs, 4)

	anchor := time.Date(2024, 3, 4, 0, 17, 0, 0, time.UTC)
	assert.Equal(t, anchor.Add(6*week), jobs[0].TriggerAt)
	assert.Equal(t, []string{"1234_hearingHoldingReminder"}, keys)
}

func TestHoldingAnchor_FallbackIsStableAcrossRuns(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, outofhours.MinuteJitter)
	c := createTestCase(models.HearingOral)
	c.Events = nil
	c.DwpResponseDate = "2024-03-04"

	first, err := s.holdingReminders(c)
	require.NoError(t, err)
	again, err := s.holdingReminders(c)
	require.NoError(t, err)

	assert.Equal(t, first, again)
}

func TestHoldingAnchor_MissingEverywhere(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)

	for _, date := range []string{"", "04/03/2024"} {
		c := createTestCase(models.HearingOral)
		c.Events = nil
		c.DwpResponseDate = date

		_, err := s.holdingReminders(c)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReminderAnchorNotFound), "date %q", date)
	}
}

func TestPlan_HearingBooked(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)
	hearingAt := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	c := createTestCase(models.HearingOral)
	c.Hearings = []models.Hearing{
		{DateTime: hearingAt},
		{DateTime: hearingAt.Add(-60 * 24 * time.Hour)},
	}

	jobs, err := s.Plan(models.EventHearingBooked, c)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, hearingAt.Add(-48*time.Hour), jobs[0].TriggerAt)
	assert.Equal(t, hearingAt.Add(-week), jobs[1].TriggerAt)
	assert.Equal(t, jobs[0].JobGroup, jobs[1].JobGroup)
	assert.Equal(t, "1234_hearingReminder", jobs[0].JobGroup)
}

func TestPlan_HearingBookedWithoutHearing(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)

	_, err := s.Plan(models.EventHearingBooked, createTestCase(models.HearingOral))

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeHearingNotFound))
}

func TestPlan_AppealReceivedSchedulesLateResponseReminder(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)
	c := createTestCase(models.HearingPaper)

	jobs, err := s.Plan(models.EventAppealReceived, c)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.EventDwpResponseLateReminder, jobs[0].EventID)
	assert.Equal(t, c.Events[1].Date.Add(5*week), jobs[0].TriggerAt)

	c.Events = c.Events[:1]
	_, err = s.Plan(models.EventAppealReceived, c)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReminderAnchorNotFound))
}

func TestPlan_OtherEventsScheduleNothing(t *testing.T) {
	s := createTestScheduler(t, &recordingScheduler{}, nil)

	for _, et := range []models.EventType{models.EventAppealLapsed, models.EventSubscriptionUpdated, models.EventEvidenceReminder} {
		jobs, err := s.Plan(et, createTestCase(models.HearingOral))
		require.NoError(t, err)
		assert.Empty(t, jobs, et)
	}
}

func TestSchedule_SubmitsEveryJob(t *testing.T) {
	rec := &recordingScheduler{}
	s := createTestScheduler(t, rec, nil)

	jobs, err := s.Schedule(context.Background(), models.EventDwpResponseReceived, createTestCase(models.HearingOral))
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
	assert.Equal(t, jobs, rec.jobs)
}

func TestSchedule_SchedulerFailure(t *testing.T) {
	rec := &recordingScheduler{failAt: 2, callErr: errors.New("redis unavailable")}
	s := createTestScheduler(t, rec, nil)

	jobs, err := s.Schedule(context.Background(), models.EventDwpResponseReceived, createTestCase(models.HearingOral))

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobScheduleFailed))
	assert.Len(t, jobs, 2)
}
