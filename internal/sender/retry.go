package sender

import (
	"context"
	"time"

	"tya-notifications/internal/common/config"
	apperrors "tya-notifications/internal/common/errors"
	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/common/metrics"
	"tya-notifications/internal/engine"
	"tya-notifications/internal/models"
)

const bundledLetterKey = "bundled"

// RetryingSender retries each send with exponential backoff. When attempts
// run out the last error comes back as NOTIFICATION_SEND_FAILED.
type RetryingSender struct {
	next         engine.NotificationSender
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	logger       logger.Logger
}

func NewRetryingSender(next engine.NotificationSender, cfg config.RetryConfig, log logger.Logger) *RetryingSender {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingSender{
		next:         next,
		maxAttempts:  attempts,
		initialDelay: cfg.InitialDelay,
		maxDelay:     30 * time.Second,
		sleep:        sleepContext,
		logger:       log.WithFields(map[string]interface{}{"component": "retrying-sender"}),
	}
}

func (r *RetryingSender) SendEmail(ctx context.Context, templateID, email string, placeholders map[string]string, reference, caseID string) error {
	return r.do(ctx, models.ChannelEmail, templateID, caseID, func(ctx context.Context) error {
		return r.next.SendEmail(ctx, templateID, email, placeholders, reference, caseID)
	})
}

func (r *RetryingSender) SendSms(ctx context.Context, templateID, mobile string, placeholders map[string]string, reference, smsSender, caseID string) error {
	return r.do(ctx, models.ChannelSMS, templateID, caseID, func(ctx context.Context) error {
		return r.next.SendSms(ctx, templateID, mobile, placeholders, reference, smsSender, caseID)
	})
}

func (r *RetryingSender) SendLetter(ctx context.Context, templateID string, address models.Address, placeholders map[string]string, caseID string) error {
	return r.do(ctx, models.ChannelLetter, templateID, caseID, func(ctx context.Context) error {
		return r.next.SendLetter(ctx, templateID, address, placeholders, caseID)
	})
}

func (r *RetryingSender) SendBundledLetter(ctx context.Context, postcode string, letter []byte, caseID string) error {
	return r.do(ctx, models.ChannelLetter, bundledLetterKey, caseID, func(ctx context.Context) error {
		return r.next.SendBundledLetter(ctx, postcode, letter, caseID)
	})
}

func (r *RetryingSender) do(ctx context.Context, channel models.Channel, templateID, caseID string, send func(context.Context) error) error {
	key := templateID + "/" + string(channel)
	delay := r.initialDelay
	var err error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = send(ctx); err == nil {
			metrics.NotificationSendAttempts.WithLabelValues(string(channel), "success").Inc()
			return nil
		}
		metrics.NotificationSendAttempts.WithLabelValues(string(channel), "failure").Inc()

		r.logger.Warn("send attempt failed", map[string]interface{}{
			"key":     key,
			"caseId":  caseID,
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt == r.maxAttempts {
			break
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			err = sleepErr
			break
		}
		delay *= 2
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}

	return apperrors.NewNotificationSendFailedError(string(channel), templateID, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
