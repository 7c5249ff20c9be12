// Package templates maps an event, role and hearing format onto the
// provider template ids for each channel.
package templates

import (
	"context"
	"strings"

	apperrors "tya-notifications/internal/common/errors"
	"tya-notifications/internal/models"
)

// Store resolves a template key. found is false when the key is not
// configured; err is reserved for store failures.
type Store interface {
	Lookup(ctx context.Context, key string) (id string, found bool, err error)
}

// Events that share one template across every recipient role.
var sharedTemplateEvents = map[models.EventType]struct{}{
	models.EventSubscriptionCreated:     {},
	models.EventSubscriptionUpdated:     {},
	models.EventSubscriptionOld:         {},
	models.EventEvidenceReminder:        {},
	models.EventHearingReminder:         {},
	models.EventFirstHoldingReminder:    {},
	models.EventSecondHoldingReminder:   {},
	models.EventThirdHoldingReminder:    {},
	models.EventFinalHoldingReminder:    {},
	models.EventDwpResponseLateReminder: {},
}

type Request struct {
	EventType   models.EventType
	Role        models.Role
	Format      models.HearingFormat
	BenefitCode string
	CohActive   bool
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Name returns the template name used inside the key namespace.
func Name(req Request) string {
	if req.Format == models.HearingOnline || req.CohActive {
		return req.EventType.ID()
	}
	if _, ok := sharedTemplateEvents[req.EventType]; ok {
		return req.EventType.ID()
	}
	return req.EventType.ID() + "." + string(req.Role)
}

func namespace(req Request) string {
	if req.Format == models.HearingOnline || req.CohActive {
		return "notification.online."
	}
	return "notification."
}

// EmailKey, SmsKey and LetterKey build the store keys for req.
func EmailKey(req Request) string  { return namespace(req) + Name(req) + ".emailId" }
func SmsKey(req Request) string    { return namespace(req) + Name(req) + ".smsId" }
func LetterKey(req Request) string { return namespace(req) + Name(req) + ".letterId" }

// SmsSenderKey depends only on the benefit.
func SmsSenderKey(benefitCode string) string {
	return "smsSender." + strings.ToLower(strings.TrimSpace(benefitCode))
}

// Resolve returns the template bundle for req. A missing letter template is
// an error only for mandatory-letter events.
func (r *Resolver) Resolve(ctx context.Context, req Request) (models.TemplateBundle, error) {
	var (
		bundle models.TemplateBundle
		err    error
	)

	if bundle.EmailTemplateID, _, err = r.lookup(ctx, EmailKey(req)); err != nil {
		return models.TemplateBundle{}, err
	}
	if bundle.SmsTemplateID, _, err = r.lookup(ctx, SmsKey(req)); err != nil {
		return models.TemplateBundle{}, err
	}
	if bundle.SmsSenderID, _, err = r.lookup(ctx, SmsSenderKey(req.BenefitCode)); err != nil {
		return models.TemplateBundle{}, err
	}

	letterKey := LetterKey(req)
	letterID, found, err := r.lookup(ctx, letterKey)
	if err != nil {
		return models.TemplateBundle{}, err
	}
	if !found && req.EventType.IsMandatoryLetter() {
		return models.TemplateBundle{}, apperrors.NewTemplateNotFoundError(letterKey)
	}
	bundle.LetterTemplateID = letterID

	return bundle, nil
}

func (r *Resolver) lookup(ctx context.Context, key string) (string, bool, error) {
	id, found, err := r.store.Lookup(ctx, key)
	if err != nil {
		return "", false, apperrors.NewTemplateStoreUnavailableError(key, err)
	}
	if !found || strings.TrimSpace(id) == "" {
		return "", false, nil
	}
	return id, true, nil
}
