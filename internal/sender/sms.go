package sender

import (
	"context"
	"fmt"
	"strings"

	awsclients "tya-notifications/internal/common/aws"
	"tya-notifications/internal/common/logger"
	"tya-notifications/pkg/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	attrSenderID = "AWS.SNS.SMS.SenderID"
	attrSMSType  = "AWS.SNS.SMS.SMSType"
)

// SNSSms publishes rendered SMS bodies directly to a phone number.
type SNSSms struct {
	client awsclients.SNSAPI
	bodies map[string]registry.TemplateBody
	logger logger.Logger
}

func NewSNSSms(client awsclients.SNSAPI, bodies map[string]registry.TemplateBody, log logger.Logger) *SNSSms {
	return &SNSSms{
		client: client,
		bodies: bodies,
		logger: log.WithFields(map[string]interface{}{"provider": "sns"}),
	}
}

func (s *SNSSms) SendSms(ctx context.Context, templateID, mobile string, placeholders map[string]string, reference, senderID string) error {
	body, ok := s.bodies[templateID]
	if !ok {
		return fmt.Errorf("no sms body registered for template %s", templateID)
	}

	attrs := map[string]types.MessageAttributeValue{
		attrSMSType: {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if senderID != "" {
		attrs[attrSenderID] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(senderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(ToE164(mobile)),
		Message:           aws.String(Render(body.Body, placeholders)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return err
	}

	s.logger.Debug("sms sent", map[string]interface{}{
		"templateId": templateID,
		"reference":  reference,
		"messageId":  aws.ToString(out.MessageId),
	})
	return nil
}

// ToE164 converts a UK mobile number as entered on the appeal form into
// E.164. Numbers already carrying a country code are kept.
func ToE164(mobile string) string {
	n := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(mobile)
	switch {
	case strings.HasPrefix(n, "+"):
		return n
	case strings.HasPrefix(n, "0044"):
		return "+" + n[2:]
	case strings.HasPrefix(n, "44"):
		return "+" + n
	case strings.HasPrefix(n, "0"):
		return "+44" + n[1:]
	default:
		return n
	}
}
