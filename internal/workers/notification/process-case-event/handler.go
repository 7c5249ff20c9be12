package processcaseevent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tya-notifications/internal/common/config"
	"tya-notifications/internal/common/errors"
	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/common/metrics"
	"tya-notifications/internal/engine"
	"tya-notifications/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = config.WorkerProcessCaseEvent

type Processor interface {
	Process(ctx context.Context, req engine.Request) (*engine.Result, error)
}

type Handler struct {
	config       *Config
	engine       Processor
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Engine       Processor
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%s: engine is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		engine:       opts.Engine,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		now:          time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	req, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, req)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (engine.Request, error) {
	variables := job.GetVariables()
	if err := validateVariables(variables); err != nil {
		return engine.Request{}, errors.NewInvalidPayloadError(err.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return engine.Request{}, errors.NewInvalidPayloadError(fmt.Sprintf("parse input: %v", err))
	}

	eventType, err := models.ParseEventType(input.EventType)
	if err != nil {
		return engine.Request{}, errors.NewUnknownEventTypeError(input.EventType).WithCase(input.NewCase.CaseID, input.EventType)
	}

	return engine.Request{
		EventType: eventType,
		NewCase:   input.NewCase,
		OldCase:   input.OldCase,
	}, nil
}

// Execute runs one case event through the engine.
func (h *Handler) Execute(ctx context.Context, req engine.Request) (*Output, error) {
	output := &Output{
		RunID:      uuid.NewString(),
		Dispatched: []models.DispatchRecord{},
	}

	if req.EventType == models.EventDoNotSend {
		h.logger.Info("event marked do-not-send, skipping", map[string]interface{}{
			"caseId": req.NewCase.CaseID,
		})
		output.ProcessedAt = h.now().UTC().Format(time.RFC3339)
		return output, nil
	}

	result, err := h.engine.Process(ctx, req)
	if err != nil {
		return nil, err
	}

	output.Deferred = result.Deferred
	if result.DeferredUntil != nil {
		output.DeferredUntil = result.DeferredUntil.UTC().Format(time.RFC3339)
	}
	if result.Dispatched != nil {
		output.Dispatched = result.Dispatched
	}
	output.RemindersScheduled = len(result.Reminders)
	output.ProcessedAt = h.now().UTC().Format(time.RFC3339)
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.GetKey(),
		"deferred":   output.Deferred,
		"dispatched": len(output.Dispatched),
		"reminders":  output.RemindersScheduled,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
