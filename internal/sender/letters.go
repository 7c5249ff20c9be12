package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tya-notifications/internal/common/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingKeyLetter        = "letter.templated"
	RoutingKeyBundledLetter = "letter.bundled"
)

var ErrLetterNacked = errors.New("letter rejected by broker")

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// LetterPublisher puts letters on the print exchange and waits for the
// broker to confirm each one.
type LetterPublisher struct {
	conn     *amqp.Connection
	open     func() (amqpChannel, error)
	exchange string
	logger   logger.Logger
}

// NewLetterPublisher dials url and declares exchange as a durable topic.
func NewLetterPublisher(url, exchange string, log logger.Logger) (*LetterPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial print broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	p := newLetterPublisher(func() (amqpChannel, error) { return conn.Channel() }, exchange, log)
	p.conn = conn
	return p, nil
}

func newLetterPublisher(open func() (amqpChannel, error), exchange string, log logger.Logger) *LetterPublisher {
	return &LetterPublisher{
		open:     open,
		exchange: exchange,
		logger:   log.WithFields(map[string]interface{}{"component": "letter-publisher", "exchange": exchange}),
	}
}

func (p *LetterPublisher) PublishLetter(ctx context.Context, letter Letter) error {
	body, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal letter: %w", err)
	}
	return p.publish(ctx, RoutingKeyLetter, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Headers:     amqp.Table{"caseId": letter.CaseID, "templateId": letter.TemplateID},
	})
}

func (p *LetterPublisher) PublishBundledLetter(ctx context.Context, caseID, postcode string, pdf []byte) error {
	return p.publish(ctx, RoutingKeyBundledLetter, amqp.Publishing{
		ContentType: "application/pdf",
		Body:        pdf,
		Headers:     amqp.Table{"caseId": caseID, "postcode": postcode},
	})
}

func (p *LetterPublisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("confirm mode: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	msg.DeliveryMode = amqp.Persistent
	msg.MessageId = uuid.NewString()
	msg.Timestamp = time.Now().UTC()

	if err := ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return err
	}

	select {
	case c, ok := <-confirms:
		if !ok || !c.Ack {
			return fmt.Errorf("%w: message %s", ErrLetterNacked, msg.MessageId)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	p.logger.Info("published", map[string]interface{}{
		"key":       key,
		"messageId": msg.MessageId,
	})
	return nil
}

func (p *LetterPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
