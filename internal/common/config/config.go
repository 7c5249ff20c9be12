package config

import (
	"fmt"
	"time"
)

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Server        ServerConfig            `mapstructure:"server"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
	Scheduler     SchedulerConfig         `mapstructure:"scheduler"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

const (
	SchedulerModeRedis = "redis"
	SchedulerModeLocal = "local"
)

type SchedulerConfig struct {
	Mode         string        `mapstructure:"mode"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type NotificationConfig struct {
	OutOfHours    OutOfHoursConfig    `mapstructure:"out_of_hours"`
	Features      FeatureConfig       `mapstructure:"features"`
	Reminders     ReminderConfig      `mapstructure:"reminders"`
	Links         LinksConfig         `mapstructure:"links"`
	HelplinePhone string              `mapstructure:"helpline_phone"`
	Templates     TemplateStoreConfig `mapstructure:"templates"`
	Email         EmailConfig         `mapstructure:"email"`
	SMS           SMSConfig           `mapstructure:"sms"`
	AWS           AWSConfig           `mapstructure:"aws"`
	SMTP          SMTPConfig          `mapstructure:"smtp"`
	Letters       LettersConfig       `mapstructure:"letters"`
	Pdf           PdfConfig           `mapstructure:"pdf"`
	Retry         RetryConfig         `mapstructure:"retry"`
}

type OutOfHoursConfig struct {
	StartHour int    `mapstructure:"start_hour"`
	EndHour   int    `mapstructure:"end_hour"`
	Zone      string `mapstructure:"zone"`
}

type FeatureConfig struct {
	LettersEnabled        bool `mapstructure:"letters_enabled"`
	BundledLettersEnabled bool `mapstructure:"bundled_letters_enabled"`
}

type ReminderConfig struct {
	EvidenceReminderDelay     time.Duration        `mapstructure:"evidence_reminder_delay"`
	HearingReminderFirstLead  time.Duration        `mapstructure:"hearing_reminder_first_lead"`
	HearingReminderSecondLead time.Duration        `mapstructure:"hearing_reminder_second_lead"`
	DwpResponseLateDelay      time.Duration        `mapstructure:"dwp_response_late_delay"`
	HearingHolding            HearingHoldingConfig `mapstructure:"hearing_holding"`
}

type HearingHoldingConfig struct {
	First  time.Duration `mapstructure:"first"`
	Second time.Duration `mapstructure:"second"`
	Third  time.Duration `mapstructure:"third"`
	Final  time.Duration `mapstructure:"final"`
}

type LinksConfig struct {
	ManageEmails           string `mapstructure:"manage_emails"`
	TrackAppeal            string `mapstructure:"track_appeal"`
	EvidenceSubmissionInfo string `mapstructure:"evidence_submission_info"`
	ClaimingExpenses       string `mapstructure:"claiming_expenses"`
	HearingInfo            string `mapstructure:"hearing_info"`
}

const (
	TemplateSourceFile     = "file"
	TemplateSourcePostgres = "postgres"
)

type TemplateStoreConfig struct {
	Source       string        `mapstructure:"source"`
	RegistryPath string        `mapstructure:"registry_path"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

const (
	EmailProviderSES  = "ses"
	EmailProviderSMTP = "smtp"
)

type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Provider  string `mapstructure:"provider"`
	FromEmail string `mapstructure:"from_email"`
}

type SMSConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type LettersConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

type PdfConfig struct {
	ServiceURL     string `mapstructure:"service_url"`
	EvidenceUserID string `mapstructure:"evidence_user_id"`
	Timeout        int    `mapstructure:"timeout"` // milliseconds
}

type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}
