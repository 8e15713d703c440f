// Package billing talks to the external billing collaborator. Every call is
// keyed by booking id plus an idempotency key and is never retried here.
package billing

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
)

const collaborator = "billing"

// Command is one billing instruction.
type Command struct {
	BookingID      string    `json:"booking_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	AmountCents    int64     `json:"amount_cents,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
}

type Client interface {
	// NotifyCancellationRequested tells billing a member asked to cancel.
	NotifyCancellationRequested(ctx context.Context, cmd Command) error
	// ReverseCharges refunds any captured session for the booking.
	ReverseCharges(ctx context.Context, cmd Command) error
	// CaptureFees charges the settled amount.
	CaptureFees(ctx context.Context, cmd Command) error
}

const (
	KeyCancellationRequested = "billing.cancellation_requested"
	KeyReverseCharges        = "billing.reverse_charges"
	KeyCaptureFees           = "billing.capture_fees"
)

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key, messageID string, v any) error
}

type amqpClient struct {
	pub     Publisher
	timeout time.Duration
}

// NewAMQPClient sends commands as persistent messages and waits for the broker
// confirm. A nack or timeout surfaces as a TransientIO error.
func NewAMQPClient(pub Publisher, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &amqpClient{pub: pub, timeout: timeout}
}

func (c *amqpClient) NotifyCancellationRequested(ctx context.Context, cmd Command) error {
	return c.send(ctx, KeyCancellationRequested, cmd)
}

func (c *amqpClient) ReverseCharges(ctx context.Context, cmd Command) error {
	return c.send(ctx, KeyReverseCharges, cmd)
}

func (c *amqpClient) CaptureFees(ctx context.Context, cmd Command) error {
	return c.send(ctx, KeyCaptureFees, cmd)
}

func (c *amqpClient) send(ctx context.Context, key string, cmd Command) error {
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pub.PublishJSON(ctx, key, cmd.IdempotencyKey, cmd); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("booking_id", cmd.BookingID).
			Str("idempotency_key", cmd.IdempotencyKey).
			Str("routing_key", key).
			Msg("Billing command not confirmed")
		return apperror.TransientIO(collaborator, err)
	}
	return nil
}

type logClient struct{}

// NewLogClient accepts every command and only logs it. Used when no broker is configured.
func NewLogClient() Client {
	return logClient{}
}

func (logClient) NotifyCancellationRequested(ctx context.Context, cmd Command) error {
	logCommand(ctx, KeyCancellationRequested, cmd)
	return nil
}

func (logClient) ReverseCharges(ctx context.Context, cmd Command) error {
	logCommand(ctx, KeyReverseCharges, cmd)
	return nil
}

func (logClient) CaptureFees(ctx context.Context, cmd Command) error {
	logCommand(ctx, KeyCaptureFees, cmd)
	return nil
}

func logCommand(ctx context.Context, key string, cmd Command) {
	log.Ctx(ctx).Info().
		Str("booking_id", cmd.BookingID).
		Str("idempotency_key", cmd.IdempotencyKey).
		Int64("amount_cents", cmd.AmountCents).
		Msg("Billing command " + key)
}
