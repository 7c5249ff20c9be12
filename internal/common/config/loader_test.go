package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  redis:
    address: localhost:6379
workers:
  process-case-event:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Notifications.OutOfHours.StartHour)
	assert.Equal(t, 17, cfg.Notifications.OutOfHours.EndHour)
	assert.Equal(t, "Europe/London", cfg.Notifications.OutOfHours.Zone)
	assert.Equal(t, SchedulerModeRedis, cfg.Scheduler.Mode)
	assert.Equal(t, EmailProviderSES, cfg.Notifications.Email.Provider)
	assert.Equal(t, 48*time.Hour, cfg.Notifications.Reminders.EvidenceReminderDelay)
	assert.Equal(t, 30000, GetWorkerConfig(cfg, WorkerProcessCaseEvent).Timeout)
	assert.True(t, IsWorkerEnabled(cfg, WorkerProcessCaseEvent))
}

func TestLoadFromFile_DecodesDurationsAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_BROKER", "zeebe:26500")
	path := writeConfig(t, `
camunda:
  broker_address: ${TEST_BROKER}
scheduler:
  mode: local
notifications:
  reminders:
    evidence_reminder_delay: 72h
    hearing_holding:
      first: 60s
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, 72*time.Hour, cfg.Notifications.Reminders.EvidenceReminderDelay)
	assert.Equal(t, time.Minute, cfg.Notifications.Reminders.HearingHolding.First)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "scheduler:\n  mode: local\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "inverted business window",
			body: `
camunda: {broker_address: x}
scheduler: {mode: local}
notifications:
  out_of_hours: {start_hour: 17, end_hour: 9}
`,
			wantErr: "window [17,9) is invalid",
		},
		{
			name: "smtp without host",
			body: `
camunda: {broker_address: x}
scheduler: {mode: local}
notifications:
  email: {provider: smtp}
`,
			wantErr: "notifications.smtp.host is required",
		},
		{
			name: "unknown template source",
			body: `
camunda: {broker_address: x}
scheduler: {mode: local}
notifications:
  templates: {source: consul}
`,
			wantErr: "notifications.templates.source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
