package sender

import (
	"context"
	"encoding/json"
	"fmt"

	awsclients "tya-notifications/internal/common/aws"
	"tya-notifications/internal/common/config"
	"tya-notifications/internal/common/logger"
	"tya-notifications/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/wneessen/go-mail"
)

// SESEmail sends email through SES stored templates. The template id is
// the SES template name.
type SESEmail struct {
	client awsclients.SESAPI
	from   string
	logger logger.Logger
}

func NewSESEmail(client awsclients.SESAPI, from string, log logger.Logger) *SESEmail {
	return &SESEmail{
		client: client,
		from:   from,
		logger: log.WithFields(map[string]interface{}{"provider": config.EmailProviderSES}),
	}
}

func (s *SESEmail) SendEmail(ctx context.Context, templateID, to string, placeholders map[string]string, reference string) error {
	data, err := json.Marshal(placeholders)
	if err != nil {
		return fmt.Errorf("encode template data: %w", err)
	}

	out, err := s.client.SendTemplatedEmail(ctx, &ses.SendTemplatedEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Source:       aws.String(s.from),
		Template:     aws.String(templateID),
		TemplateData: aws.String(string(data)),
	})
	if err != nil {
		return err
	}

	s.logger.Debug("email sent", map[string]interface{}{
		"templateId": templateID,
		"reference":  reference,
		"messageId":  aws.ToString(out.MessageId),
	})
	return nil
}

// SMTPEmail renders registry bodies locally and relays them over SMTP.
type SMTPEmail struct {
	cfg    config.SMTPConfig
	from   string
	bodies map[string]registry.TemplateBody
	logger logger.Logger
}

func NewSMTPEmail(cfg config.SMTPConfig, from string, bodies map[string]registry.TemplateBody, log logger.Logger) *SMTPEmail {
	return &SMTPEmail{
		cfg:    cfg,
		from:   from,
		bodies: bodies,
		logger: log.WithFields(map[string]interface{}{"provider": config.EmailProviderSMTP}),
	}
}

func (s *SMTPEmail) SendEmail(ctx context.Context, templateID, to string, placeholders map[string]string, reference string) error {
	m, err := s.buildMessage(templateID, to, placeholders, reference)
	if err != nil {
		return err
	}

	policy := mail.NoTLS
	if s.cfg.UseTLS {
		policy = mail.TLSMandatory
	}
	opts := []mail.Option{mail.WithPort(s.cfg.Port), mail.WithTLSPolicy(policy)}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return err
	}

	s.logger.Debug("email sent", map[string]interface{}{
		"templateId": templateID,
		"reference":  reference,
	})
	return nil
}

func (s *SMTPEmail) buildMessage(templateID, to string, placeholders map[string]string, reference string) (*mail.Msg, error) {
	body, ok := s.bodies[templateID]
	if !ok {
		return nil, fmt.Errorf("no email body registered for template %s", templateID)
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	m.SetGenHeader(mail.Header("X-Notification-Reference"), reference)
	m.Subject(Render(body.Subject, placeholders))
	m.SetBodyString(mail.TypeTextPlain, Render(body.Body, placeholders))
	return m, nil
}
