package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryLimit is how many times the broker redelivers a message before it
// moves it to the dead-letter queue.
const DeliveryLimit = 10

// Consumer reads a durable quorum queue bound to a topic exchange. Rejected
// messages and messages past DeliveryLimit land in "<queue>.dead".
type Consumer struct {
	url      string
	exchange string
	queue    string
	keys     []string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(url, exchange, queue string, keys []string) (*Consumer, error) {
	c := &Consumer{url: url, exchange: exchange, queue: queue, keys: keys}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Consumer) deadLetterExchange() string { return c.queue + ".dlx" }

func (c *Consumer) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	fail := func(step string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%s: %w", step, err)
	}

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	if err := ch.ExchangeDeclare(c.deadLetterExchange(), "fanout", true, false, false, false, nil); err != nil {
		return fail("declare dead-letter exchange", err)
	}
	dead, err := ch.QueueDeclare(c.queue+".dead", true, false, false, false, nil)
	if err != nil {
		return fail("declare dead-letter queue", err)
	}
	if err := ch.QueueBind(dead.Name, "", c.deadLetterExchange(), false, nil); err != nil {
		return fail("bind dead-letter queue", err)
	}
	if err := ch.Qos(20, 0, false); err != nil {
		return fail("set qos", err)
	}
	q, err := ch.QueueDeclare(c.queue, true, false, false, false, amqp.Table{
		"x-queue-type":           "quorum",
		"x-dead-letter-exchange": c.deadLetterExchange(),
		"x-delivery-limit":       int32(DeliveryLimit),
	})
	if err != nil {
		return fail("declare queue", err)
	}
	for _, rk := range c.keys {
		if err := ch.QueueBind(q.Name, rk, c.exchange, false, nil); err != nil {
			return fail("bind "+rk, err)
		}
	}

	c.conn, c.ch = conn, ch
	return nil
}

// Deliveries starts consuming, reconnecting first when the broker dropped the
// previous channel.
func (c *Consumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch == nil || c.ch.IsClosed() {
		c.closeLocked()
		if err := c.connect(); err != nil {
			return nil, err
		}
	}
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Consumer) closeLocked() error {
	var err error
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
