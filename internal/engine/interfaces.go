// Package engine decides who is notified about a case event, over which
// channels and with which templates, and hands the resulting notifications
// and reminder jobs to their transports.
package engine

import (
	"context"

	"tya-notifications/internal/engine/reminder"
	"tya-notifications/internal/engine/templates"
	"tya-notifications/internal/models"
)

type NotificationValidator interface {
	// IsStillValid reports whether a later case state has not made the
	// notification obsolete.
	IsStillValid(hearings []models.Hearing, eventType models.EventType) bool
	IsHearingTypeValid(c models.CaseSnapshot, eventType models.EventType) bool
}

// NotificationSender delivers one notification over one channel. Calls must
// be safe to retry.
type NotificationSender interface {
	SendEmail(ctx context.Context, templateID, email string, placeholders map[string]string, reference, caseID string) error
	SendSms(ctx context.Context, templateID, mobile string, placeholders map[string]string, reference, smsSender, caseID string) error
	SendLetter(ctx context.Context, templateID string, address models.Address, placeholders map[string]string, caseID string) error
	SendBundledLetter(ctx context.Context, postcode string, letter []byte, caseID string) error
}

type JobScheduler = reminder.JobScheduler

type TemplateResolver interface {
	Resolve(ctx context.Context, req templates.Request) (models.TemplateBundle, error)
}

type ReminderScheduler interface {
	Schedule(ctx context.Context, eventType models.EventType, c models.CaseSnapshot) ([]models.ReminderJob, error)
}

// PdfService renders a cover letter from a template path.
type PdfService interface {
	GenerateCoverLetter(ctx context.Context, templatePath, caseID string, placeholders map[string]string) ([]byte, error)
}

// EvidenceStore downloads a previously stored case document.
type EvidenceStore interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type PdfMerger interface {
	Merge(docs ...[]byte) ([]byte, error)
}
