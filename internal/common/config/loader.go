package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// WorkerProcessCaseEvent is the job type the engine subscribes to.
const WorkerProcessCaseEvent = "process-case-event"

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return decode(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Notifications.SMTP.Password == "" {
		cfg.Notifications.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	}
	if cfg.Notifications.Letters.AMQPURL == "" {
		cfg.Notifications.Letters.AMQPURL = os.Getenv("PRINT_QUEUE_URL")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Scheduler.Mode == "" {
		cfg.Scheduler.Mode = SchedulerModeRedis
	}
	if cfg.Scheduler.KeyPrefix == "" {
		cfg.Scheduler.KeyPrefix = "tya:jobs"
	}
	if cfg.Scheduler.PollInterval == 0 {
		cfg.Scheduler.PollInterval = 5 * time.Second
	}

	n := &cfg.Notifications
	if n.OutOfHours.StartHour == 0 && n.OutOfHours.EndHour == 0 {
		n.OutOfHours.StartHour = 9
		n.OutOfHours.EndHour = 17
	}
	if n.OutOfHours.Zone == "" {
		n.OutOfHours.Zone = "Europe/London"
	}

	r := &n.Reminders
	if r.EvidenceReminderDelay == 0 {
		r.EvidenceReminderDelay = 48 * time.Hour
	}
	if r.HearingReminderFirstLead == 0 {
		r.HearingReminderFirstLead = 48 * time.Hour
	}
	if r.HearingReminderSecondLead == 0 {
		r.HearingReminderSecondLead = 7 * 24 * time.Hour
	}
	if r.DwpResponseLateDelay == 0 {
		r.DwpResponseLateDelay = 35 * 24 * time.Hour
	}
	if r.HearingHolding.First == 0 {
		r.HearingHolding.First = 6 * 7 * 24 * time.Hour
	}
	if r.HearingHolding.Second == 0 {
		r.HearingHolding.Second = 4 * 7 * 24 * time.Hour
	}
	if r.HearingHolding.Third == 0 {
		r.HearingHolding.Third = 4 * 7 * 24 * time.Hour
	}
	if r.HearingHolding.Final == 0 {
		r.HearingHolding.Final = 4 * 7 * 24 * time.Hour
	}

	if n.Templates.Source == "" {
		n.Templates.Source = TemplateSourceFile
	}
	if n.Templates.RegistryPath == "" {
		n.Templates.RegistryPath = "configs/templates.yaml"
	}
	if n.Templates.CacheTTL == 0 {
		n.Templates.CacheTTL = 5 * time.Minute
	}
	if n.Email.Provider == "" {
		n.Email.Provider = EmailProviderSES
	}
	if n.AWS.Region == "" {
		n.AWS.Region = "eu-west-2"
	}
	if n.SMTP.Port == 0 {
		n.SMTP.Port = 587
	}
	if n.Letters.Exchange == "" {
		n.Letters.Exchange = "tya.letters"
	}
	if n.Pdf.Timeout == 0 {
		n.Pdf.Timeout = 30000
	}
	if n.Pdf.EvidenceUserID == "" {
		n.Pdf.EvidenceUserID = "sscs"
	}
	if n.Retry.MaxAttempts == 0 {
		n.Retry.MaxAttempts = 3
	}
	if n.Retry.InitialDelay == 0 {
		n.Retry.InitialDelay = 500 * time.Millisecond
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.Database.Redis.Address == "" && cfg.Scheduler.Mode == SchedulerModeRedis {
		return fmt.Errorf("database.redis.address is required for the redis scheduler")
	}

	n := cfg.Notifications
	if n.OutOfHours.StartHour < 0 || n.OutOfHours.EndHour > 24 || n.OutOfHours.StartHour >= n.OutOfHours.EndHour {
		return fmt.Errorf("notifications.out_of_hours window [%d,%d) is invalid", n.OutOfHours.StartHour, n.OutOfHours.EndHour)
	}
	if _, err := time.LoadLocation(n.OutOfHours.Zone); err != nil {
		return fmt.Errorf("notifications.out_of_hours.zone: %w", err)
	}

	switch n.Templates.Source {
	case TemplateSourceFile:
	case TemplateSourcePostgres:
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres host and database are required for the postgres template store")
		}
	default:
		return fmt.Errorf("notifications.templates.source %q is not supported", n.Templates.Source)
	}

	switch n.Email.Provider {
	case EmailProviderSES:
	case EmailProviderSMTP:
		if n.SMTP.Host == "" {
			return fmt.Errorf("notifications.smtp.host is required for the smtp provider")
		}
	default:
		return fmt.Errorf("notifications.email.provider %q is not supported", n.Email.Provider)
	}

	switch cfg.Scheduler.Mode {
	case SchedulerModeRedis, SchedulerModeLocal:
	default:
		return fmt.Errorf("scheduler.mode %q is not supported", cfg.Scheduler.Mode)
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
