package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "tya-notifications/internal/common/errors"
	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/common/metrics"
	"tya-notifications/internal/engine/outofhours"
	"tya-notifications/internal/engine/templates"
	"tya-notifications/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tya-notifications/engine"

// Request is one inbound case event. OldCase is only consulted for
// subscription updates.
type Request struct {
	EventType models.EventType     `json:"eventType"`
	NewCase   models.CaseSnapshot  `json:"newCase"`
	OldCase   *models.CaseSnapshot `json:"oldCase,omitempty"`
}

type Result struct {
	Deferred      bool                    `json:"deferred"`
	DeferredUntil *time.Time              `json:"deferredUntil,omitempty"`
	Dispatched    []models.DispatchRecord `json:"dispatched"`
	Reminders     []models.ReminderJob    `json:"reminders"`
}

type Dependencies struct {
	Gate         *outofhours.Calculator
	Templates    TemplateResolver
	Validator    NotificationValidator
	Personaliser *Personaliser
	Dispatcher   *Dispatcher
	Reminders    ReminderScheduler
	Jobs         JobScheduler
	Logger       logger.Logger
}

// Engine runs the decision pipeline for one case event at a time. It holds
// no state between calls.
type Engine struct {
	gate         *outofhours.Calculator
	templates    TemplateResolver
	validator    NotificationValidator
	personaliser *Personaliser
	dispatcher   *Dispatcher
	reminders    ReminderScheduler
	jobs         JobScheduler
	lettersOn    bool
	logger       logger.Logger
	tracer       trace.Tracer
}

func New(deps Dependencies) *Engine {
	return &Engine{
		gate:         deps.Gate,
		templates:    deps.Templates,
		validator:    deps.Validator,
		personaliser: deps.Personaliser,
		dispatcher:   deps.Dispatcher,
		reminders:    deps.Reminders,
		jobs:         deps.Jobs,
		lettersOn:    deps.Dispatcher.cfg.LettersEnabled,
		logger:       deps.Logger,
		tracer:       otel.Tracer(tracerName),
	}
}

// Process handles req end to end: out-of-hours deferral, recipient
// resolution, dispatch, subscription-update side channels and reminders.
// Every returned error is a *StandardError carrying the case id and event.
func (e *Engine) Process(ctx context.Context, req Request) (*Result, error) {
	eventType := req.EventType
	caseID := req.NewCase.CaseID
	log := logger.ForCase(e.logger, caseID, eventType.ID())

	ctx, span := e.tracer.Start(ctx, "engine.Process", trace.WithAttributes(
		attribute.String("case.id", caseID),
		attribute.String("event.type", eventType.ID()),
	))
	defer span.End()

	result, err := e.process(ctx, req, log)
	if err != nil {
		stdErr := apperrors.Normalize(err).WithCase(caseID, eventType.ID())
		metrics.ResolutionFailures.WithLabelValues(string(stdErr.Code)).Inc()
		span.RecordError(stdErr)
		span.SetStatus(codes.Error, string(stdErr.Code))
		log.Error("Notification processing failed", map[string]interface{}{
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
		})
		return result, stdErr
	}
	return result, nil
}

func (e *Engine) process(ctx context.Context, req Request, log logger.Logger) (*Result, error) {
	newCase := req.NewCase.Normalised()
	var (
		oldCase  models.CaseSnapshot
		previous *models.CaseSnapshot
	)
	if req.OldCase != nil {
		oldCase = req.OldCase.Normalised()
		previous = &oldCase
	}
	eventType := req.EventType
	result := &Result{}

	log.Info("Notification event triggered", nil)

	if e.gate.ShouldDefer(eventType.AllowOutOfHours()) {
		at, err := e.deferToBusinessHours(ctx, req)
		if err != nil {
			return result, err
		}
		result.Deferred = true
		result.DeferredUntil = &at
		log.Info("Deferred to next business window", map[string]interface{}{
			"deferredUntil": at.Format(time.RFC3339),
		})
		return result, nil
	}

	// A failure for one recipient is reported but never stops the others
	// or the reminders.
	var errs []error
	dispatchedAny := false
	for _, recipient := range ResolveSubscriptions(eventType, newCase) {
		records, valid, err := e.notifyRecipient(ctx, eventType, newCase, oldCase, previous, recipient, log)
		result.Dispatched = append(result.Dispatched, records...)
		dispatchedAny = dispatchedAny || valid
		if err != nil {
			log.Warn("Recipient not fully notified", map[string]interface{}{
				"role":  string(recipient.Role),
				"error": err.Error(),
			})
			errs = append(errs, err)
		}
	}

	if dispatchedAny {
		jobs, err := e.reminders.Schedule(ctx, eventType, newCase)
		result.Reminders = jobs
		if err != nil {
			errs = append(errs, err)
		}
	}
	return result, errors.Join(errs...)
}

// notifyRecipient reports valid=false when the event does not apply to the
// recipient at all.
func (e *Engine) notifyRecipient(ctx context.Context, eventType models.EventType, newCase, oldCase models.CaseSnapshot, previous *models.CaseSnapshot, recipient models.SubscriptionWithType, log logger.Logger) ([]models.DispatchRecord, bool, error) {
	bundle, err := e.resolveTemplates(ctx, eventType, newCase, recipient.Role)
	if err != nil {
		return nil, false, err
	}
	if !e.isValid(eventType, newCase, recipient.Subscription, bundle) {
		log.Debug("Notification not valid for recipient", map[string]interface{}{
			"role": string(recipient.Role),
		})
		return nil, false, nil
	}

	records, err := e.notify(ctx, eventType, newCase, oldCase, recipient, bundle, log)
	resent, resendErr := e.resendLastNotification(ctx, eventType, newCase, previous, recipient, log)
	return append(records, resent...), true, errors.Join(err, resendErr)
}

// deferToBusinessHours hands the whole request to the job scheduler for the
// next business window.
func (e *Engine) deferToBusinessHours(ctx context.Context, req Request) (time.Time, error) {
	group := models.JobGroup(req.NewCase.CaseID, req.EventType)
	at := e.gate.StartOfNextInHoursPeriod(group)
	payload, err := json.Marshal(req)
	if err != nil {
		return time.Time{}, apperrors.NewInternalError(fmt.Errorf("encode deferred request: %w", err))
	}

	job := models.ReminderJob{
		JobGroup:  group,
		EventID:   req.EventType,
		CaseID:    req.NewCase.CaseID,
		TriggerAt: at,
		Payload:   payload,
	}
	if err := e.jobs.Schedule(ctx, job); err != nil {
		return time.Time{}, apperrors.NewJobScheduleFailedError(job.JobGroup, err)
	}
	metrics.NotificationsDeferred.WithLabelValues(req.EventType.ID()).Inc()
	return at, nil
}

func (e *Engine) resolveTemplates(ctx context.Context, eventType models.EventType, c models.CaseSnapshot, role models.Role) (models.TemplateBundle, error) {
	return e.templates.Resolve(ctx, templates.Request{
		EventType:   eventType,
		Role:        role,
		Format:      c.HearingFormat(),
		BenefitCode: c.Appeal.BenefitCode,
		CohActive:   c.OnlinePanel,
	})
}

// isValid: mandatory letters always go; a fallback letter goes to a recipient
// without electronic channels; anything else needs a subscription and both
// validator checks.
func (e *Engine) isValid(eventType models.EventType, c models.CaseSnapshot, sub models.Subscription, bundle models.TemplateBundle) bool {
	if eventType.IsMandatoryLetter() {
		return true
	}
	if !e.validator.IsHearingTypeValid(c, eventType) {
		return false
	}
	if e.fallbackLetterDue(eventType, sub, bundle) {
		return true
	}
	return sub.HasAnySubscription() && e.validator.IsStillValid(c.Hearings, eventType)
}

func (e *Engine) fallbackLetterDue(eventType models.EventType, sub models.Subscription, bundle models.TemplateBundle) bool {
	return e.lettersOn && eventType.IsFallbackLetter() && !sub.HasAnySubscription() && bundle.LetterTemplateID != ""
}

// notify dispatches to one recipient and, for subscription updates, to the
// contact details the update superseded.
func (e *Engine) notify(ctx context.Context, eventType models.EventType, newCase, oldCase models.CaseSnapshot, recipient models.SubscriptionWithType, bundle models.TemplateBundle, log logger.Logger) ([]models.DispatchRecord, error) {
	var decision Decision
	if eventType == models.EventSubscriptionUpdated {
		decision = Reconcile(oldCase.Subscriptions.For(recipient.Role), recipient.Subscription)
		recipient.Subscription = decision.Apply(recipient.Subscription)
		if decision.Suppress {
			log.Info("Subscription unchanged, confirmation suppressed", map[string]interface{}{
				"role": string(recipient.Role),
			})
		}
	}

	n := e.buildNotification(eventType, newCase, recipient, bundle)
	records, err := e.dispatcher.Dispatch(ctx, newCase, recipient, n)

	if eventType != models.EventSubscriptionUpdated || !decision.HasSupersededContact() {
		return records, err
	}
	if latest, ok := newCase.LatestEvent(); ok && latest.Type == models.EventSubscriptionUpdated.ID() {
		log.Info("Latest case event is a subscription update, superseded contact not notified", nil)
		return records, err
	}

	superseded, supersededErr := e.notifySupersededContact(ctx, newCase, oldCase, recipient.Role, n, decision)
	return append(records, superseded...), errors.Join(err, supersededErr)
}

func (e *Engine) notifySupersededContact(ctx context.Context, newCase, oldCase models.CaseSnapshot, role models.Role, primary models.Notification, decision Decision) ([]models.DispatchRecord, error) {
	bundle, err := e.resolveTemplates(ctx, models.EventSubscriptionOld, newCase, role)
	if err != nil {
		return nil, err
	}

	old := primary.Clone()
	old.EventType = models.EventSubscriptionOld
	old.Templates = bundle
	old.Destination.Email = decision.OldEmail
	old.Destination.Mobile = decision.OldMobile
	old.Reference = oldCase.CaseReference

	recipient := models.SubscriptionWithType{Role: role, Subscription: decision.supersededSubscription()}
	records, err := e.dispatcher.Dispatch(ctx, newCase, recipient, old)
	for i := range records {
		records[i].Superseded = true
	}
	return records, err
}

// resendLastNotification repeats the latest case notification to a recipient
// who has just subscribed, on channels that were not already subscribed. It
// needs the recipient's previous subscription; without one nothing is resent.
func (e *Engine) resendLastNotification(ctx context.Context, eventType models.EventType, newCase models.CaseSnapshot, previous *models.CaseSnapshot, recipient models.SubscriptionWithType, log logger.Logger) ([]models.DispatchRecord, error) {
	if eventType != models.EventSubscriptionUpdated || newCase.Appeal.HearingType == models.HearingPaper {
		return nil, nil
	}
	if previous == nil {
		return nil, nil
	}
	before, ok := previous.Subscriptions.Get(recipient.Role)
	if !ok || !JustSubscribed(before, recipient.Subscription) {
		return nil, nil
	}
	latest, ok := newCase.LatestEvent()
	if !ok || latest.Type == "" || latest.Type == models.EventSubscriptionUpdated.ID() {
		log.Info("No last event to resend", nil)
		return nil, nil
	}
	lastType, err := models.ParseEventType(latest.Type)
	if err != nil || lastType == models.EventDoNotSend {
		log.Info("Last case event has no notification", map[string]interface{}{"lastEvent": latest.Type})
		return nil, nil
	}

	sub := recipient.Subscription
	if before.IsEmailSubscribed() {
		sub = sub.WithEmail("")
	}
	if before.IsSmsSubscribed() {
		sub = sub.WithMobile("")
	}
	recipient.Subscription = sub

	bundle, err := e.resolveTemplates(ctx, lastType, newCase, recipient.Role)
	if err != nil {
		return nil, err
	}
	log.Info("Resending last notification", map[string]interface{}{"lastEvent": lastType.ID()})
	return e.dispatcher.Dispatch(ctx, newCase, recipient, e.buildNotification(lastType, newCase, recipient, bundle))
}

func (e *Engine) buildNotification(eventType models.EventType, c models.CaseSnapshot, recipient models.SubscriptionWithType, bundle models.TemplateBundle) models.Notification {
	party := recipientParty(c, recipient.Role)
	placeholders := e.personaliser.Build(eventType, c, recipient)
	return models.Notification{
		EventType: eventType,
		Role:      recipient.Role,
		Templates: bundle,
		Destination: models.Destination{
			Email:   recipient.Subscription.Email,
			Mobile:  recipient.Subscription.Mobile,
			Address: party.Address,
			Name:    placeholders[NameKey],
		},
		Reference:    c.CaseReference,
		Placeholders: placeholders,
	}
}
