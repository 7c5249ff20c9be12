package observability

import (
	"context"
	"testing"
	"time"

	"tya-notifications/internal/common/config"
	"tya-notifications/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

func TestNew_TracingDisabled(t *testing.T) {
	o := New("tya-notifications-test", config.TracingConfig{}, logger.NewTestLogger(t))
	defer o.Shutdown()

	assert.NotNil(t, o.meterProvider)
	assert.Nil(t, o.tracerProvider)

	o.RecordJobProcessed(context.Background(), "completed")
	o.RecordJobDuration(context.Background(), 120*time.Millisecond, "completed")
}

func TestNew_TracingEnabled(t *testing.T) {
	o := New("tya-notifications-test", config.TracingConfig{
		Enabled:        true,
		JaegerEndpoint: "http://127.0.0.1:1/api/traces",
	}, logger.NewTestLogger(t))

	assert.NotNil(t, o.tracerProvider)
	o.Shutdown()
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	o := &Observability{logger: logger.NewNoOpLogger()}

	o.RecordJobProcessed(context.Background(), "failed")
	o.RecordJobDuration(context.Background(), time.Second, "failed")
	o.Shutdown()
}
