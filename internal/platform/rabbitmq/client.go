// Package rabbitmq wraps the AMQP client with a confirm-mode publishing
// channel and mutex-guarded reconnect.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"mngkeeper/internal/platform/config"
)

// Client maintains a long-lived connection and a confirm-mode channel.
// Reconnect happens on demand under the mutex so concurrent callers never
// race to re-dial.
type Client struct {
	url            string
	exchange       string
	confirmTimeout time.Duration
	logger         *slog.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// New dials the broker, opens a confirm-mode channel and declares the topic
// exchange. Returns nil if the URL is empty (broker not configured).
func New(cfg config.RabbitMQConfig, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	c := &Client{
		url:            cfg.URL,
		exchange:       cfg.Exchange,
		confirmTimeout: cfg.ConfirmTimeout,
		logger:         logger,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

// connectLocked (re)establishes the connection, channel and exchange.
// Callers must hold c.mu.
func (c *Client) connectLocked() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() //nolint:errcheck // best-effort cleanup on init failure
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close() //nolint:errcheck
		return fmt.Errorf("enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close() //nolint:errcheck
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}

	c.conn = conn
	c.ch = ch
	return nil
}

// channel returns a live confirm-mode channel, reconnecting if the previous
// connection dropped.
func (c *Client) channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("rabbitmq client is closed")
	}
	if c.conn == nil || c.conn.IsClosed() || c.ch == nil || c.ch.IsClosed() {
		if err := c.connectLocked(); err != nil {
			return nil, err
		}
		c.logger.Info("rabbitmq connection re-established")
	}
	return c.ch, nil
}

// Publish sends a persistent message to the topic exchange and waits up to
// the configured confirm timeout for broker acknowledgment. The returned bool
// reports whether the confirmation arrived in time; the message is still
// published when it is false.
func (c *Client) Publish(ctx context.Context, routingKey string, body []byte) (bool, error) {
	ch, err := c.channel()
	if err != nil {
		return false, err
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx, c.exchange, routingKey, true, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return false, fmt.Errorf("publish to %s (%s): %w", c.exchange, routingKey, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()
	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		// Timeout waiting for the confirm, not a publish failure.
		return false, nil
	}
	return acked, nil
}

// Subscribe binds a durable queue to the exchange with the given routing-key
// pattern and dispatches deliveries to handler. A handler error nacks the
// delivery with requeue.
func (c *Client) Subscribe(ctx context.Context, queue, routingKey string, handler func(ctx context.Context, body []byte) error) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, routingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s (%s): %w", queue, c.exchange, routingKey, err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", queue, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := handler(ctx, d.Body); err != nil {
					c.logger.Error("message handler failed",
						"queue", queue,
						"routing_key", d.RoutingKey,
						"error", err,
					)
					d.Nack(false, true) //nolint:errcheck
					continue
				}
				d.Ack(false) //nolint:errcheck
			}
		}
	}()

	c.logger.Info("subscribed", "queue", queue, "exchange", c.exchange, "routing_key", routingKey)
	return nil
}

// Health reports whether the connection is open.
func (c *Client) Health(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}

// Close shuts down the channel and connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.ch != nil && !c.ch.IsClosed() {
		c.ch.Close() //nolint:errcheck
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}
