package scheduler

import (
	"context"
	"fmt"
	"time"

	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/models"

	"github.com/go-co-op/gocron/v2"
)

// LocalScheduler runs jobs in-process. Pending jobs do not survive a restart,
// so it is meant for single-instance and development deployments.
type LocalScheduler struct {
	cron    gocron.Scheduler
	run     func(context.Context, models.ReminderJob) error
	timeout time.Duration
	logger  logger.Logger
}

func NewLocalScheduler(run func(context.Context, models.ReminderJob) error, timeout time.Duration, log logger.Logger, opts ...gocron.SchedulerOption) (*LocalScheduler, error) {
	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &LocalScheduler{
		cron:    cron,
		run:     run,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "local-scheduler"}),
	}, nil
}

func (l *LocalScheduler) Start() {
	l.cron.Start()
}

func (l *LocalScheduler) Shutdown() error {
	return l.cron.Shutdown()
}

// Schedule registers a one-shot job tagged with its key. A job already
// pending under the same key is replaced; a trigger in the past runs now.
func (l *LocalScheduler) Schedule(_ context.Context, job models.ReminderJob) error {
	key := jobKey(job)
	l.cron.RemoveByTags(key)

	start := gocron.OneTimeJobStartImmediately()
	if job.TriggerAt.After(time.Now()) {
		start = gocron.OneTimeJobStartDateTime(job.TriggerAt)
	}

	_, err := l.cron.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(l.fire, job),
		gocron.WithName(job.JobGroup),
		gocron.WithTags(key),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", key, err)
	}
	return nil
}

// Pending counts the jobs still registered under key.
func (l *LocalScheduler) Pending(job models.ReminderJob) int {
	key := jobKey(job)
	n := 0
	for _, j := range l.cron.Jobs() {
		for _, tag := range j.Tags() {
			if tag == key {
				n++
			}
		}
	}
	return n
}

func (l *LocalScheduler) fire(job models.ReminderJob) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.run(ctx, job); err != nil {
		l.logger.Error("Scheduled job failed", map[string]interface{}{
			"jobGroup": job.JobGroup,
			"caseId":   job.CaseID,
			"error":    err.Error(),
		})
	}
}
