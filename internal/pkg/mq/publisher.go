package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrNotConfirmed is returned when the broker nacks a confirmed publish.
	ErrNotConfirmed = errors.New("broker did not confirm message")
	// ErrUnroutable is returned when a mandatory message reached no queue.
	ErrUnroutable = errors.New("broker returned unroutable message")
)

type Publisher struct {
	// mu is held from publish to confirm so at most one message is in flight
	// and any basic.return belongs to it.
	mu        sync.Mutex
	conn      *amqp.Connection
	ch        *amqp.Channel
	exchange  string
	mandatory bool
	returns   chan amqp.Return
}

// NewPublisher opens a channel in confirm mode on a durable topic exchange.
// With mandatory set, a message no queue is bound for fails with ErrUnroutable
// even though the broker acks it.
func NewPublisher(url, exchange string, mandatory bool) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	p := &Publisher{conn: conn, ch: ch, exchange: exchange, mandatory: mandatory}
	if mandatory {
		// The broker sends basic.return before the ack of the same message, and
		// the client delivers it here before it resolves the confirm.
		p.returns = ch.NotifyReturn(make(chan amqp.Return, 8))
	}
	return p, nil
}

// PublishJSON publishes v and waits for the broker to confirm it.
// messageID doubles as the idempotency key for consumers.
func (p *Publisher) PublishJSON(ctx context.Context, key, messageID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, key, p.mandatory, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm %s: %w", key, err)
	}
	return confirmOutcome(key, messageID, acked, p.returns)
}

// confirmOutcome turns a resolved confirm into an error. A return queued for
// messageID means the ack only covered an unroutable message.
func confirmOutcome(key, messageID string, acked bool, returns <-chan amqp.Return) error {
	if !acked {
		return fmt.Errorf("publish %s: %w", key, ErrNotConfirmed)
	}
	for {
		select {
		case r, ok := <-returns:
			if !ok {
				return nil
			}
			if r.MessageId == messageID {
				return fmt.Errorf("publish %s: %w: %d %s", key, ErrUnroutable, r.ReplyCode, r.ReplyText)
			}
		default:
			return nil
		}
	}
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
