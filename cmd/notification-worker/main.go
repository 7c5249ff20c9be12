package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	awsclients "tya-notifications/internal/common/aws"
	"tya-notifications/internal/common/camunda"
	"tya-notifications/internal/common/config"
	"tya-notifications/internal/common/database"
	httpclient "tya-notifications/internal/common/http"
	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/common/observability"
	"tya-notifications/internal/engine"
	"tya-notifications/internal/engine/outofhours"
	"tya-notifications/internal/engine/reminder"
	"tya-notifications/internal/engine/templates"
	"tya-notifications/internal/models"
	"tya-notifications/internal/pdf"
	"tya-notifications/internal/scheduler"
	"tya-notifications/internal/sender"
	"tya-notifications/pkg/registry"

	pce "tya-notifications/internal/workers/notification/process-case-event"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting notification worker...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name, cfg.Tracing, log)
	defer obs.Shutdown()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.Dial(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var redis *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		redis = database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	n := cfg.Notifications

	store, reg, err := templates.NewRegistryStore(n.Templates.RegistryPath)
	if err != nil {
		zapLog.Fatal("template registry load failed", zap.Error(err))
	}
	if problems := reg.Validate(); len(problems) > 0 {
		zapLog.Warn("template registry has problems", zap.Strings("problems", problems))
	}

	var templateStore templates.Store = store
	if n.Templates.Source == config.TemplateSourcePostgres {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureTemplateSchema(ctx); err != nil {
			zapLog.Fatal("template schema check failed", zap.Error(err))
		}
		var cache *goredis.Client
		if redis != nil {
			cache = redis.GetClient()
		}
		templateStore = templates.NewPostgresStore(pg.GetDB(), cache, n.Templates.CacheTTL, log)
		zapLog.Info("PostgreSQL template store ready")
	}

	notificationSender, closeSender := buildSender(ctx, n, reg, log, zapLog)
	defer closeSender()

	loc, err := time.LoadLocation(n.OutOfHours.Zone)
	if err != nil {
		zapLog.Fatal("invalid out-of-hours zone", zap.Error(err))
	}
	gate, err := outofhours.NewCalculator(time.Now, outofhours.MinuteJitter, n.OutOfHours.Zone, n.OutOfHours.StartHour, n.OutOfHours.EndHour)
	if err != nil {
		zapLog.Fatal("out-of-hours calculator failed", zap.Error(err))
	}

	// The runner needs the engine and the local scheduler needs the runner.
	var runner *scheduler.Runner
	runJob := func(ctx context.Context, job models.ReminderJob) error {
		return runner.Run(ctx, job)
	}

	var jobs engine.JobScheduler
	switch cfg.Scheduler.Mode {
	case config.SchedulerModeLocal:
		local, err := scheduler.NewLocalScheduler(runJob, config.GetDuration(cfg.Camunda.Timeout), log)
		if err != nil {
			zapLog.Fatal("local scheduler failed", zap.Error(err))
		}
		local.Start()
		defer local.Shutdown()
		jobs = local
	default:
		if redis == nil {
			zapLog.Fatal("redis scheduler mode needs database.redis.address")
		}
		redisJobs := scheduler.NewRedisScheduler(redis.GetClient(), cfg.Scheduler.KeyPrefix, log)
		go redisJobs.Poll(ctx, cfg.Scheduler.PollInterval, runJob)
		jobs = redisJobs
	}
	zapLog.Info("Job scheduler ready", zap.String("mode", cfg.Scheduler.Mode))

	pdfHTTP := httpclient.NewClient(config.GetDuration(n.Pdf.Timeout))
	dispatcher := engine.NewDispatcher(
		notificationSender,
		pdf.NewCoverLetterClient(pdfHTTP, n.Pdf.ServiceURL, log),
		pdf.NewEvidenceClient(pdfHTTP, n.Pdf.EvidenceUserID),
		pdf.NewMerger(),
		engine.DispatcherConfig{
			LettersEnabled:        n.Features.LettersEnabled,
			BundledLettersEnabled: n.Features.BundledLettersEnabled,
			Coversheets:           reg.Coversheets,
		},
		log,
	)

	eng := engine.New(engine.Dependencies{
		Gate:         gate,
		Templates:    templates.NewResolver(templateStore),
		Validator:    engine.NewDefaultValidator(time.Now),
		Personaliser: engine.NewPersonaliser(n.Links, n.HelplinePhone, loc),
		Dispatcher:   dispatcher,
		Reminders:    reminder.NewScheduler(jobs, n.Reminders, outofhours.MinuteJitter, log),
		Jobs:         jobs,
		Logger:       log,
	})
	runner = scheduler.NewRunner(eng, zeebe, log)

	handler, err := pce.NewHandler(pce.HandlerOptions{
		AppConfig: cfg,
		Engine:    eng,
		Logger:    log,
	})
	if err != nil {
		zapLog.Fatal("failed to create process-case-event handler", zap.Error(err))
	}
	jobWorker := camunda.StartWorker(zeebe.GetClient(), pce.TaskType, config.GetWorkerConfig(cfg, pce.TaskType), handler, log)

	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			status, code := "ready", http.StatusOK
			if err := zeebe.HealthCheck(r.Context()); err != nil {
				status, code = "unavailable", http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := http.ListenAndServe(cfg.Server.Address, mux); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping worker...")
	stop()
	if jobWorker != nil {
		jobWorker.Stop(30 * time.Second)
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Notification worker stopped gracefully")
}

// buildSender assembles the channel transports behind the retrying sender.
// Channels switched off in configuration get no transport.
func buildSender(ctx context.Context, n config.NotificationConfig, reg *registry.TemplateRegistry, log logger.Logger, zapLog *zap.Logger) (engine.NotificationSender, func()) {
	var (
		email   sender.EmailTransport
		sms     sender.SmsTransport
		letters sender.LetterTransport
		closers []func() error
	)

	if n.Email.Enabled {
		switch n.Email.Provider {
		case config.EmailProviderSMTP:
			email = sender.NewSMTPEmail(n.SMTP, n.Email.FromEmail, reg.Bodies, log)
		default:
			sesClient, err := awsclients.NewSESClient(ctx, n.AWS.Region)
			if err != nil {
				zapLog.Fatal("SES client failed", zap.Error(err))
			}
			email = sender.NewSESEmail(sesClient, n.Email.FromEmail, log)
		}
	}

	if n.SMS.Enabled {
		snsClient, err := awsclients.NewSNSClient(ctx, n.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client failed", zap.Error(err))
		}
		sms = sender.NewSNSSms(snsClient, reg.Bodies, log)
	}

	if n.Features.LettersEnabled {
		if n.Letters.AMQPURL == "" {
			zapLog.Warn("letters enabled but no print queue configured, letters will be dropped")
		} else {
			var publisher *sender.LetterPublisher
			err := retryWithBackoff(func() error {
				var err error
				publisher, err = sender.NewLetterPublisher(n.Letters.AMQPURL, n.Letters.Exchange, log)
				return err
			}, 10, 2*time.Second, zapLog, "Print queue connection")
			if err != nil {
				zapLog.Fatal("print queue failed after retries", zap.Error(err))
			}
			letters = publisher
			closers = append(closers, publisher.Close)
		}
	}

	s := sender.NewRetryingSender(sender.New(email, sms, letters, log), n.Retry, log)
	return s, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zapLog.Warn("close transport failed", zap.Error(err))
			}
		}
	}
}
