package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// StatusChangedKey is the routing key of status change events.
const StatusChangedKey = "booking.status_changed"

// StatusChanged is published after a transition commits.
type StatusChanged struct {
	BookingID  string    `json:"booking_id"`
	ResourceID string    `json:"resource_id"`
	Date       string    `json:"date"`
	Action     Action    `json:"action"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	Version    int       `json:"version"`
	At         time.Time `json:"at"`
}

// Events receives committed state changes. Delivery is best effort.
type Events interface {
	StatusChanged(ctx context.Context, e StatusChanged)
}

type NopEvents struct{}

func (NopEvents) StatusChanged(context.Context, StatusChanged) {}

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key, messageID string, v any) error
}

type amqpEvents struct {
	pub Publisher
}

func NewAMQPEvents(pub Publisher) Events {
	return &amqpEvents{pub: pub}
}

func (e *amqpEvents) StatusChanged(ctx context.Context, ev StatusChanged) {
	id := ev.BookingID + ":" + string(ev.Action) + ":" + strconv.Itoa(ev.Version)
	if err := e.pub.PublishJSON(ctx, StatusChangedKey, id, ev); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("booking_id", ev.BookingID).Msg("Failed to publish status change")
	}
}
