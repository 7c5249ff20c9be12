// Package scheduler holds the JobScheduler implementations used by the
// engine and the runner that handles jobs once they fall due.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/engine"
	"tya-notifications/internal/models"
)

// jobKey identifies one job. Jobs sharing a group (the two hearing reminders)
// are told apart by their trigger time.
func jobKey(job models.ReminderJob) string {
	return fmt.Sprintf("%s@%d", job.JobGroup, job.TriggerAt.Unix())
}

// Processor runs a case event through the notification pipeline.
type Processor interface {
	Process(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// ReminderPublisher hands a due reminder back to the workflow, which reloads
// the current case before the event is processed.
type ReminderPublisher interface {
	PublishReminderDue(ctx context.Context, job models.ReminderJob) error
}

// Runner executes due jobs. A job carrying a payload is a deferred request
// and goes straight back into the engine; anything else is a reminder.
type Runner struct {
	engine    Processor
	publisher ReminderPublisher
	logger    logger.Logger
}

func NewRunner(engine Processor, publisher ReminderPublisher, log logger.Logger) *Runner {
	return &Runner{
		engine:    engine,
		publisher: publisher,
		logger:    log.WithFields(map[string]interface{}{"component": "job-runner"}),
	}
}

func (r *Runner) Run(ctx context.Context, job models.ReminderJob) error {
	log := logger.ForCase(r.logger, job.CaseID, job.EventID.ID())

	if len(job.Payload) == 0 {
		if err := r.publisher.PublishReminderDue(ctx, job); err != nil {
			return fmt.Errorf("publish reminder %s: %w", job.JobGroup, err)
		}
		log.Info("Reminder handed to workflow", map[string]interface{}{"jobGroup": job.JobGroup})
		return nil
	}

	var req engine.Request
	if err := json.Unmarshal(job.Payload, &req); err != nil {
		return fmt.Errorf("decode deferred request %s: %w", job.JobGroup, err)
	}
	result, err := r.engine.Process(ctx, req)
	if err != nil {
		return err
	}
	log.Info("Deferred request processed", map[string]interface{}{
		"dispatched": len(result.Dispatched),
		"deferred":   result.Deferred,
	})
	return nil
}
