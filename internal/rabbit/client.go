package rabbit

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// NewRabbit connects to url and declares exchange as a durable topic exchange.
func NewRabbit(url, exchange string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial -> %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("conn.Channel -> %w", err)
	}

	if err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("ch.ExchangeDeclare -> %w", err)
	}

	zap.L().Info("rabbitmq connected", zap.String("exchange", exchange))

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

// DeclareQueue declares a durable queue bound to the exchange with routingKey.
func (c *Client) DeclareQueue(queue, routingKey string) error {
	if _, err := c.channel.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("c.channel.QueueDeclare -> %w", err)
	}

	if err := c.channel.QueueBind(
		queue,
		routingKey,
		c.exchange,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("c.channel.QueueBind -> %w", err)
	}

	return nil
}

func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	zap.L().Info("rabbitmq connection closed")
}

func (c *Client) Publish(ctx context.Context, routingKey string, message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         message,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("c.channel.PublishWithContext -> %w", err)
	}

	zap.L().Debug("message published", zap.String("exchange", c.exchange), zap.String("routing_key", routingKey))
	return nil
}

// Consume delivers messages from queue to handler until ctx is done. A
// message whose handler fails is requeued once, then dropped.
func (c *Client) Consume(ctx context.Context, queue string, handler func([]byte) error) error {
	msgs, err := c.channel.Consume(
		queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("c.channel.Consume -> %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				if err := handler(d.Body); err != nil {
					zap.L().Warn("failed to process message",
						zap.String("queue", queue),
						zap.Bool("redelivered", d.Redelivered),
						zap.Error(err),
					)
					_ = d.Nack(false, !d.Redelivered)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	zap.L().Info("started consuming", zap.String("queue", queue))
	return nil
}
