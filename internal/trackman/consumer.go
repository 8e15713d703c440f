package trackman

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/retry"
)

// Exchange and routing keys of the external system's booking feed.
const (
	Exchange   = "trackman"
	Queue      = "bay-booking.trackman-import"
	BindingKey = "trackman.booking.*"

	KeyCreated   = "trackman.booking.created"
	KeyUpdated   = "trackman.booking.updated"
	KeyCancelled = "trackman.booking.cancelled"
)

// RetryPolicy paces import retries within one delivery and reopening the
// delivery channel after the broker drops it.
var RetryPolicy = retry.Policy{Attempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}

// ErrDeliveriesClosed is returned by Run when the delivery channel keeps
// closing without delivering anything.
var ErrDeliveriesClosed = errors.New("trackman delivery channel closed")

// DeliverySource is satisfied by *mq.Consumer.
type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

type Consumer struct {
	importer *Importer
	source   DeliverySource
	policy   retry.Policy
}

func NewConsumer(importer *Importer, source DeliverySource, policy retry.Policy) *Consumer {
	return &Consumer{importer: importer, source: source, policy: policy}
}

// Run imports deliveries until ctx is done. A closed delivery channel is
// reopened; Run fails once the source stays unavailable.
func (c *Consumer) Run(ctx context.Context) error {
	idle := 0
	for {
		msgs, err := c.open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		handled, done := c.drain(ctx, msgs)
		if done {
			return nil
		}
		if handled > 0 {
			idle = 0
		} else {
			idle++
			if idle >= max(c.policy.Attempts, 1) {
				return ErrDeliveriesClosed
			}
		}
		log.Ctx(ctx).Warn().Int("handled", handled).Msg("Trackman delivery channel closed, reopening")
	}
}

func (c *Consumer) open(ctx context.Context) (<-chan amqp.Delivery, error) {
	var msgs <-chan amqp.Delivery
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var err error
		msgs, err = c.source.Deliveries(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("open trackman deliveries: %w", err)
	}
	return msgs, nil
}

// drain handles deliveries until the channel closes. done is true once ctx is.
func (c *Consumer) drain(ctx context.Context, msgs <-chan amqp.Delivery) (handled int, done bool) {
	for {
		select {
		case <-ctx.Done():
			return handled, true
		case d, ok := <-msgs:
			if !ok {
				return handled, ctx.Err() != nil
			}
			c.handle(ctx, d)
			handled++
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	logger := log.Ctx(ctx).With().Str("routing_key", d.RoutingKey).Str("message_id", d.MessageId).Logger()

	switch d.RoutingKey {
	case KeyCreated, KeyUpdated:
	case KeyCancelled:
		// Status belongs to this system; staff complete cancellations by hand.
		logger.Warn().Msg("External cancellation received; left for staff")
		_ = d.Ack(false)
		return
	default:
		_ = d.Ack(false)
		return
	}

	var eb ExternalBooking
	if err := json.Unmarshal(d.Body, &eb); err != nil {
		logger.Error().Err(err).Msg("Undecodable import message, dead-lettered")
		_ = d.Nack(false, false)
		return
	}
	externalID := strings.TrimSpace(eb.ExternalID)

	res, err := c.importOnce(logger.WithContext(ctx), eb)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case retryable(err):
		logger.Warn().Err(err).
			Str("external_booking_id", externalID).
			Int64("delivery_count", deliveryCount(d)).
			Msg("Import deferred")
		_ = d.Nack(false, true)
		return
	default:
		logger.Error().Err(err).
			Str("kind", string(apperror.KindOf(err))).
			Str("external_booking_id", externalID).
			Msg("Import rejected, dead-lettered")
		_ = d.Nack(false, false)
		return
	}
	if res != nil {
		logger.Debug().Str("booking_id", res.Booking.ID).Bool("created", res.Created).Msg("Import applied")
	}
}

// importOnce retries Import with backoff. Import upserts by external id, so a
// repeat after a partial failure is safe.
func (c *Consumer) importOnce(ctx context.Context, eb ExternalBooking) (*Result, error) {
	var res *Result
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var err error
		res, err = c.importer.Import(ctx, eb)
		if err != nil && !retryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
	return res, err
}

// retryable is true for failures of the store or a collaborator rather than
// of the message itself. Untyped errors come from the store.
func retryable(err error) bool {
	switch apperror.KindOf(err) {
	case apperror.KindTransientIO, apperror.KindInternal, apperror.KindStaleState:
		return true
	default:
		return false
	}
}

// deliveryCount is the quorum queue's redelivery counter; zero on first delivery.
func deliveryCount(d amqp.Delivery) int64 {
	switch v := d.Headers["x-delivery-count"].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}
