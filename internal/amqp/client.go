// Package amqp publishes and consumes transaction events over RabbitMQ.
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

	applog "financialchecker/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// ErrCircuitOpen is returned by publish calls while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Handler processes one decoded message. A returned error requeues it.
type Handler func(ctx context.Context, msg *TransactionCreatedMessage) error

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *applog.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	failMu       sync.Mutex
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string, logger *applog.Logger) (*Client, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(applog.ComponentAMQP),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// Direct exchange: the routing key is the queue name.
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// currentChannel returns an open channel, reconnecting once if needed.
func (c *Client) currentChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	ch, conn := c.channel, c.conn
	c.mu.Unlock()
	if ch != nil && !ch.IsClosed() && conn != nil && !conn.IsClosed() {
		return ch, nil
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel, nil
}

// PublishTransactionCreated publishes msg as a persistent JSON message.
func (c *Client) PublishTransactionCreated(ctx context.Context, msg *TransactionCreatedMessage) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", msg.ID, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.currentChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			MessageId:    msg.ID,
			Body:         body,
		})
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.DebugContext(ctx, "Published transaction created message",
		applog.FieldTransactionID, msg.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// ConsumeTransactionCreated delivers messages to handler until ctx ends.
// Lost connections are re-established with exponential backoff.
func (c *Client) ConsumeTransactionCreated(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if err != nil && !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		c.logger.WarnContext(ctx, "Consumer lost connection, retrying",
			applog.FieldError, err, "attempt", attempt, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err := c.connect(); err != nil {
			c.logger.WarnContext(ctx, "Reconnect failed", applog.FieldError, err)
		} else {
			attempt = 0
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler Handler) error {
	ch, err := c.currentChannel()
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	c.logger.InfoContext(ctx, "Started consuming transaction messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.handleDelivery(ctx, d, handler)
		}
	}
}

// handleDelivery acks on success, requeues on handler error and drops
// bodies that cannot be decoded.
func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	msg, err := TransactionCreatedMessageFromJSON(d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal message", applog.FieldError, err)
		_ = d.Nack(false, false)
		return
	}
	if err := handler(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle message",
			applog.FieldError, err,
			applog.FieldTransactionID, msg.ID)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.failMu.Lock()
	last := c.lastFailure
	c.failMu.Unlock()
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
	c.failMu.Lock()
	c.lastFailure = time.Now()
	c.failMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel closed", "dial"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}
