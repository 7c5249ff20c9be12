// Package sender delivers notifications to the email, SMS and print
// providers.
package sender

import (
	"context"
	"strings"

	"tya-notifications/internal/common/logger"
	"tya-notifications/internal/models"
)

type EmailTransport interface {
	SendEmail(ctx context.Context, templateID, to string, placeholders map[string]string, reference string) error
}

type SmsTransport interface {
	SendSms(ctx context.Context, templateID, mobile string, placeholders map[string]string, reference, senderID string) error
}

type LetterTransport interface {
	PublishLetter(ctx context.Context, letter Letter) error
	PublishBundledLetter(ctx context.Context, caseID, postcode string, pdf []byte) error
}

// Letter is the print request for a templated letter.
type Letter struct {
	CaseID       string            `json:"caseId"`
	TemplateID   string            `json:"templateId"`
	Address      models.Address    `json:"address"`
	Placeholders map[string]string `json:"placeholders"`
}

// Sender routes each channel to its transport. A nil transport means the
// channel is switched off and sends to it are dropped.
type Sender struct {
	email   EmailTransport
	sms     SmsTransport
	letters LetterTransport
	logger  logger.Logger
}

func New(email EmailTransport, sms SmsTransport, letters LetterTransport, log logger.Logger) *Sender {
	return &Sender{
		email:   email,
		sms:     sms,
		letters: letters,
		logger:  log.WithFields(map[string]interface{}{"component": "sender"}),
	}
}

func (s *Sender) SendEmail(ctx context.Context, templateID, email string, placeholders map[string]string, reference, caseID string) error {
	if s.email == nil {
		s.disabled(models.ChannelEmail, templateID, caseID)
		return nil
	}
	return s.email.SendEmail(ctx, templateID, email, placeholders, reference)
}

func (s *Sender) SendSms(ctx context.Context, templateID, mobile string, placeholders map[string]string, reference, smsSender, caseID string) error {
	if s.sms == nil {
		s.disabled(models.ChannelSMS, templateID, caseID)
		return nil
	}
	return s.sms.SendSms(ctx, templateID, mobile, placeholders, reference, smsSender)
}

func (s *Sender) SendLetter(ctx context.Context, templateID string, address models.Address, placeholders map[string]string, caseID string) error {
	if s.letters == nil {
		s.disabled(models.ChannelLetter, templateID, caseID)
		return nil
	}
	return s.letters.PublishLetter(ctx, Letter{
		CaseID:       caseID,
		TemplateID:   templateID,
		Address:      address,
		Placeholders: placeholders,
	})
}

func (s *Sender) SendBundledLetter(ctx context.Context, postcode string, letter []byte, caseID string) error {
	if s.letters == nil {
		s.disabled(models.ChannelLetter, "", caseID)
		return nil
	}
	return s.letters.PublishBundledLetter(ctx, caseID, postcode, letter)
}

func (s *Sender) disabled(channel models.Channel, templateID, caseID string) {
	s.logger.Info("channel disabled, notification dropped", map[string]interface{}{
		"channel":    string(channel),
		"templateId": templateID,
		"caseId":     caseID,
	})
}

// Render substitutes {{key}} placeholders in text. Unknown placeholders are
// left as they are.
func Render(text string, placeholders map[string]string) string {
	if len(placeholders) == 0 {
		return text
	}
	pairs := make([]string, 0, len(placeholders)*2)
	for k, v := range placeholders {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
