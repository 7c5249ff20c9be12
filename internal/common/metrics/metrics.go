package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications handed to the provider, by channel and event type",
		},
		[]string{"channel", "event_type"},
	)

	NotificationSendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_send_attempts_total",
			Help: "Provider send attempts including retries",
		},
		[]string{"channel", "outcome"},
	)

	NotificationsDeferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_deferred_total",
			Help: "Events deferred to the next business window",
		},
		[]string{"event_type"},
	)

	RemindersScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Reminder jobs submitted to the scheduler",
		},
		[]string{"event_type"},
	)

	ResolutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_resolution_failures_total",
			Help: "Fatal failures while resolving a notification, by error code",
		},
		[]string{"code"},
	)
)
