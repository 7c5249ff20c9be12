// Package reminder computes the follow-up jobs a dispatched event triggers
// and submits them to the job scheduler.
package reminder

import (
	"context"
	"time"

	"tya-notifications/internal/common/config"
	apperrors "tya-notifications/internal/common/errors"
	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/common/metrics"
	"tya-notifications/internal/models"
)

// JobScheduler accepts one-shot jobs. Implementations must treat a repeated
// job (same group, event and trigger time) as a no-op.
type JobScheduler interface {
	Schedule(ctx context.Context, job models.ReminderJob) error
}

// dwpResponseDateLayout is the format of CaseSnapshot.DwpResponseDate.
const dwpResponseDateLayout = "2006-01-02"

var holdingChain = []models.EventType{
	models.EventFirstHoldingReminder,
	models.EventSecondHoldingReminder,
	models.EventThirdHoldingReminder,
	models.EventFinalHoldingReminder,
}

type Scheduler struct {
	jobs   JobScheduler
	cfg    config.ReminderConfig
	jitter func(key string) time.Duration
	logger logger.Logger
}

// NewScheduler builds a Scheduler. jitter offsets the holding chain when it
// has to fall back to the bare DWP response date. It is keyed on the first
// holding job group and must be stable per key; nil means no offset.
func NewScheduler(jobs JobScheduler, cfg config.ReminderConfig, jitter func(key string) time.Duration, log logger.Logger) *Scheduler {
	if jitter == nil {
		jitter = func(string) time.Duration { return 0 }
	}
	return &Scheduler{
		jobs:   jobs,
		cfg:    cfg,
		jitter: jitter,
		logger: log.WithFields(map[string]interface{}{"component": "reminder-scheduler"}),
	}
}

// Plan returns the jobs eventType triggers on c without submitting them. c
// must already be normalised.
func (s *Scheduler) Plan(eventType models.EventType, c models.CaseSnapshot) ([]models.ReminderJob, error) {
	if c.HearingFormat() == models.HearingOnline {
		return nil, nil
	}

	switch eventType {
	case models.EventDwpResponseReceived:
		jobs, err := s.evidenceReminder(c)
		if err != nil {
			return nil, err
		}
		if c.HearingFormat() != models.HearingOral {
			return jobs, nil
		}
		chain, err := s.holdingReminders(c)
		if err != nil {
			return nil, err
		}
		return append(jobs, chain...), nil
	case models.EventHearingBooked:
		return s.hearingReminders(c)
	case models.EventAppealReceived:
		return s.dwpResponseLateReminder(c)
	}
	return nil, nil
}

// Schedule plans and submits the reminders for eventType. It returns the jobs
// that were accepted before any failure.
func (s *Scheduler) Schedule(ctx context.Context, eventType models.EventType, c models.CaseSnapshot) ([]models.ReminderJob, error) {
	jobs, err := s.Plan(eventType, c)
	if err != nil {
		return nil, err
	}

	scheduled := make([]models.ReminderJob, 0, len(jobs))
	for _, job := range jobs {
		if err := s.jobs.Schedule(ctx, job); err != nil {
			return scheduled, apperrors.NewJobScheduleFailedError(job.JobGroup, err)
		}
		metrics.RemindersScheduled.WithLabelValues(job.EventID.ID()).Inc()
		s.logger.Info("Scheduled reminder", map[string]interface{}{
			"caseId":    job.CaseID,
			"eventId":   job.EventID.ID(),
			"jobGroup":  job.JobGroup,
			"triggerAt": job.TriggerAt.Format(time.RFC3339),
		})
		scheduled = append(scheduled, job)
	}
	return scheduled, nil
}

func (s *Scheduler) evidenceReminder(c models.CaseSnapshot) ([]models.ReminderJob, error) {
	anchor, ok := c.LatestEventOfType(models.EventDwpRespond)
	if !ok {
		return nil, apperrors.NewReminderAnchorNotFoundError(models.EventEvidenceReminder.ID(), models.EventDwpRespond)
	}
	return []models.ReminderJob{
		newJob(c.CaseID, models.EventEvidenceReminder, anchor.Date.Add(s.cfg.EvidenceReminderDelay)),
	}, nil
}

func (s *Scheduler) hearingReminders(c models.CaseSnapshot) ([]models.ReminderJob, error) {
	hearing, ok := c.LatestHearing()
	if !ok {
		return nil, apperrors.NewHearingNotFoundError(models.EventHearingReminder.ID())
	}
	return []models.ReminderJob{
		newJob(c.CaseID, models.EventHearingReminder, hearing.DateTime.Add(-s.cfg.HearingReminderFirstLead)),
		newJob(c.CaseID, models.EventHearingReminder, hearing.DateTime.Add(-s.cfg.HearingReminderSecondLead)),
	}, nil
}

// holdingReminders builds the four-link chain. Each trigger is the previous
// trigger plus that link's offset.
func (s *Scheduler) holdingReminders(c models.CaseSnapshot) ([]models.ReminderJob, error) {
	at, err := s.holdingAnchor(c)
	if err != nil {
		return nil, err
	}

	offsets := []time.Duration{
		s.cfg.HearingHolding.First,
		s.cfg.HearingHolding.Second,
		s.cfg.HearingHolding.Third,
		s.cfg.HearingHolding.Final,
	}
	jobs := make([]models.ReminderJob, 0, len(holdingChain))
	for i, eventID := range holdingChain {
		at = at.Add(offsets[i])
		jobs = append(jobs, newJob(c.CaseID, eventID, at))
	}
	return jobs, nil
}

func (s *Scheduler) holdingAnchor(c models.CaseSnapshot) (time.Time, error) {
	if e, ok := c.LatestEventOfType(models.EventDwpRespond); ok {
		return e.Date, nil
	}
	if c.DwpResponseDate != "" {
		day, err := time.Parse(dwpResponseDateLayout, c.DwpResponseDate)
		if err == nil {
			return day.Add(s.jitter(models.JobGroup(c.CaseID, models.EventFirstHoldingReminder))), nil
		}
		s.logger.Warn("Unparseable DWP response date", map[string]interface{}{
			"caseId":          c.CaseID,
			"dwpResponseDate": c.DwpResponseDate,
		})
	}
	return time.Time{}, apperrors.NewReminderAnchorNotFoundError(models.EventFirstHoldingReminder.ID(), models.EventDwpRespond)
}

func (s *Scheduler) dwpResponseLateReminder(c models.CaseSnapshot) ([]models.ReminderJob, error) {
	anchor, ok := c.LatestEventOfType(models.EventAppealReceived.ID())
	if !ok {
		return nil, apperrors.NewReminderAnchorNotFoundError(models.EventDwpResponseLateReminder.ID(), models.EventAppealReceived.ID())
	}
	return []models.ReminderJob{
		newJob(c.CaseID, models.EventDwpResponseLateReminder, anchor.Date.Add(s.cfg.DwpResponseLateDelay)),
	}, nil
}

func newJob(caseID string, eventID models.EventType, at time.Time) models.ReminderJob {
	return models.ReminderJob{
		JobGroup:  models.JobGroup(caseID, eventID),
		EventID:   eventID,
		CaseID:    caseID,
		TriggerAt: at,
	}
}
