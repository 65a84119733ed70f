// Package amqp publishes change events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"expenses/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	dialTimeout    = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewClient dials the broker and declares the topic exchange.
func NewClient(url, exchangeName string, logger *log.Logger) (*Client, error) {
	client := NewDisconnected(url, exchangeName, logger)
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

// NewDisconnected returns a client that connects on first use or through
// Reconnect. It is used when the broker is down at startup.
func NewDisconnected(url, exchangeName string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		url:          url,
		exchangeName: exchangeName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
}

func (c *Client) connect() error {
	conn, err := amqp091.DialConfig(c.url, amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp091.DefaultDial(dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

// ensureChannel reconnects when the previous connection was lost.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()
	if err := c.connect(); err != nil {
		return nil, err
	}
	c.logger.Info("Reconnected to AMQP broker", "exchange", c.exchangeName)
	return c.channel, nil
}

// Publish sends ev to the exchange under its routing key.
func (c *Client) Publish(ctx context.Context, ev ChangeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", ev.RoutingKey(), ErrCircuitOpen)
	}

	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channel, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName,  // exchange
		ev.RoutingKey(), // routing key
		false,           // mandatory
		false,           // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.closeLocked()
			c.mu.Unlock()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	c.logger.DebugContext(ctx, "Published change event",
		log.FieldOperation, log.OpPublish,
		"routing_key", ev.RoutingKey(),
		"id", ev.ID.String())
	return nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	failures := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if failures >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.logger.Warn("AMQP circuit breaker opened", "failures", failures)
		}
	}
}

// exponentialBackoff returns the delay before reconnect attempt n, capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Reconnect retries the connection with exponential backoff until it
// succeeds or ctx is done.
func (c *Client) Reconnect(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		_, err := c.ensureChannel()
		if err == nil {
			c.recordSuccess()
			return nil
		}
		c.logger.Warn("AMQP reconnect failed", "attempt", attempt, log.FieldError, err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "connection closed", "eof", "broken pipe", "use of closed network connection"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
