// Package events publishes generation outcomes to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// GenerationEvent is the JSON body of every published message.
type GenerationEvent struct {
	CorrelationID string    `json:"correlationId"`
	Status        string    `json:"status"`
	Code          string    `json:"code"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	FileCount     int       `json:"fileCount"`
	DurationMS    int64     `json:"durationMs"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type connection interface {
	Close() error
}

type Publisher struct {
	conn  connection
	ch    channel
	queue string
}

// Dial connects, opens a channel and declares the durable queue.
func Dial(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Publish(ctx context.Context, ev GenerationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     ev.CorrelationID,
		CorrelationId: ev.CorrelationID,
		Timestamp:     ev.OccurredAt,
		Body:          body,
	})
}

// Close closes the channel and then the connection, reporting both failures.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
