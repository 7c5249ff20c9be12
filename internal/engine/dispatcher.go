package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"

	apperrors "tya-notifications/internal/common/errors"
	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/common/metrics"
	"tya-notifications/internal/models"

	"golang.org/x/sync/errgroup"
)

type DispatcherConfig struct {
	LettersEnabled        bool
	BundledLettersEnabled bool
	// Coversheets maps an event id to the cover letter template path used
	// for bundled letters.
	Coversheets map[string]string
}

// Dispatcher decides which channels a notification goes out on and builds
// the per-channel payloads.
type Dispatcher struct {
	sender   NotificationSender
	pdf      PdfService
	evidence EvidenceStore
	merger   PdfMerger
	cfg      DispatcherConfig
	logger   logger.Logger
}

func NewDispatcher(sender NotificationSender, pdf PdfService, evidence EvidenceStore, merger PdfMerger, cfg DispatcherConfig, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		pdf:      pdf,
		evidence: evidence,
		merger:   merger,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

type channelSend func(ctx context.Context, n models.Notification) error

// Dispatch sends n to recipient over every eligible channel. Channels run
// concurrently, each on its own copy of the placeholders, and a failing
// channel does not stop the others. Records come back in email, SMS, letter
// order; the error joins every channel failure.
func (d *Dispatcher) Dispatch(ctx context.Context, c models.CaseSnapshot, recipient models.SubscriptionWithType, n models.Notification) ([]models.DispatchRecord, error) {
	sub := recipient.Subscription

	type branch struct {
		channel    models.Channel
		templateID string
		send       channelSend
	}
	var branches []branch

	if sub.SubscribeEmail && n.Destination.Email != "" && n.Templates.EmailTemplateID != "" {
		branches = append(branches, branch{models.ChannelEmail, n.Templates.EmailTemplateID, d.sendEmail(c)})
	}
	if sub.SubscribeSms && n.Destination.Mobile != "" && n.Templates.SmsTemplateID != "" {
		branches = append(branches, branch{models.ChannelSMS, n.Templates.SmsTemplateID, d.sendSms(c)})
	}
	if d.letterEligible(n, sub) {
		send := d.sendLetter(c)
		if d.cfg.BundledLettersEnabled && n.EventType.IsBundledLetter() {
			send = d.sendBundledLetter(c)
		}
		branches = append(branches, branch{models.ChannelLetter, n.Templates.LetterTemplateID, send})
	}

	if len(branches) == 0 {
		d.logger.Debug("No eligible channel", map[string]interface{}{
			"caseId":    c.CaseID,
			"eventType": n.EventType.ID(),
			"role":      string(recipient.Role),
		})
		return nil, nil
	}

	sent := make([]bool, len(branches))
	errs := make([]error, len(branches))
	var g errgroup.Group
	for i, b := range branches {
		i, b := i, b
		own := n.Clone()
		g.Go(func() error {
			if err := b.send(ctx, own); err != nil {
				if _, ok := apperrors.As(err); !ok {
					err = apperrors.NewNotificationSendFailedError(string(b.channel), b.templateID, err)
				}
				errs[i] = err
				return err
			}
			sent[i] = true
			metrics.NotificationsSent.WithLabelValues(string(b.channel), n.EventType.ID()).Inc()
			return nil
		})
	}
	var err error
	if g.Wait() != nil {
		err = errors.Join(errs...)
	}

	records := make([]models.DispatchRecord, 0, len(branches))
	for i, b := range branches {
		if !sent[i] {
			continue
		}
		records = append(records, models.DispatchRecord{
			Role:       recipient.Role,
			Channel:    b.channel,
			TemplateID: b.templateID,
			EventType:  n.EventType,
		})
	}
	return records, err
}

// letterEligible covers mandatory letters and the fallback letter for a
// recipient with no electronic subscription.
func (d *Dispatcher) letterEligible(n models.Notification, sub models.Subscription) bool {
	if !d.cfg.LettersEnabled || n.Templates.LetterTemplateID == "" {
		return false
	}
	if n.EventType.IsMandatoryLetter() {
		return true
	}
	return n.EventType.IsFallbackLetter() && !sub.HasAnySubscription()
}

func (d *Dispatcher) sendEmail(c models.CaseSnapshot) channelSend {
	return func(ctx context.Context, n models.Notification) error {
		return d.sender.SendEmail(ctx, n.Templates.EmailTemplateID, n.Destination.Email, n.Placeholders, n.Reference, c.CaseID)
	}
}

func (d *Dispatcher) sendSms(c models.CaseSnapshot) channelSend {
	return func(ctx context.Context, n models.Notification) error {
		return d.sender.SendSms(ctx, n.Templates.SmsTemplateID, n.Destination.Mobile, n.Placeholders, n.Reference, n.Templates.SmsSenderID, c.CaseID)
	}
}

func (d *Dispatcher) sendLetter(c models.CaseSnapshot) channelSend {
	return func(ctx context.Context, n models.Notification) error {
		maps.Copy(n.Placeholders, letterAddressPlaceholders(n.Destination))
		return d.sender.SendLetter(ctx, n.Templates.LetterTemplateID, n.Destination.Address, n.Placeholders, c.CaseID)
	}
}

// sendBundledLetter renders the event's cover letter, appends the latest
// direction notice when the case has one and sends the result as one PDF.
// Bundles are keyed on the appellant's postcode whoever the recipient is.
func (d *Dispatcher) sendBundledLetter(c models.CaseSnapshot) channelSend {
	return func(ctx context.Context, n models.Notification) error {
		maps.Copy(n.Placeholders, letterAddressPlaceholders(n.Destination))

		letter, err := d.buildBundledLetter(ctx, c, n)
		if err != nil {
			d.logger.Error("Bundled letter failed", map[string]interface{}{
				"caseId":    c.CaseID,
				"eventType": n.EventType.ID(),
				"error":     err.Error(),
			})
			return apperrors.NewPdfGenerationFailedError(c.CaseID, err)
		}
		return d.sender.SendBundledLetter(ctx, c.Appeal.Appellant.Address.Postcode, letter, c.CaseID)
	}
}

func (d *Dispatcher) buildBundledLetter(ctx context.Context, c models.CaseSnapshot, n models.Notification) ([]byte, error) {
	path, ok := d.cfg.Coversheets[n.EventType.ID()]
	if !ok || path == "" {
		return nil, fmt.Errorf("no coversheet configured for %s", n.EventType.ID())
	}

	cover, err := d.pdf.GenerateCoverLetter(ctx, path, c.CaseID, n.Placeholders)
	if err != nil {
		return nil, fmt.Errorf("generate cover letter: %w", err)
	}

	doc, ok := c.LatestDocumentOfType(models.DocumentDirectionText)
	if !ok {
		return cover, nil
	}

	stored, err := d.evidence.Download(ctx, doc.URL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", doc.URL, err)
	}

	merged, err := d.merger.Merge(cover, stored)
	if err != nil {
		return nil, fmt.Errorf("merge bundled letter: %w", err)
	}
	return merged, nil
}
