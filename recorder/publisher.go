// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/danielhkuo/uvpd/engine"
	"github.com/danielhkuo/uvpd/models"
)

// DefaultExchange receives step records when no exchange is configured
const DefaultExchange = "uvpd.steps"

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RunEvent is published when a run starts or ends.
type RunEvent struct {
	BatchID string    `json:"batch_id"`
	RunID   int       `json:"run_id"`
	Event   string    `json:"event"`
	At      time.Time `json:"at"`
}

// Publisher sends step records to a topic exchange. Routing keys are
// "<batch>.run.<id>.step", "<batch>.run.<id>.started" and
// "<batch>.run.<id>.completed", so consumers can bind per batch or per run.
type Publisher struct {
	exchange string

	mu   sync.Mutex
	ch   Channel
	conn *amqp.Connection
}

// Dial connects to the broker and opens a channel
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	p := NewPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

// NewPublisher publishes on an already open channel
func NewPublisher(ch Channel, exchange string) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{exchange: exchange, ch: ch}
}

// Close releases the channel and, when dialled, the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Publisher) BeginBatch(ctx context.Context, b engine.Batch) error {
	p.mu.Lock()
	err := p.ch.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	return p.publish(ctx, b.ID+".batch", models.Batch{
		ID:         b.ID,
		Seed:       b.Seed,
		Runs:       b.Runs,
		MaxVoters:  b.MaxVoters,
		Candidates: b.Candidates,
		CreatedAt:  b.CreatedAt,
	})
}

// RunExists always reports false: the broker keeps no run state
func (p *Publisher) RunExists(context.Context, string, int) (bool, error) {
	return false, nil
}

func (p *Publisher) StartRun(ctx context.Context, batchID string, runID int) error {
	return p.publish(ctx, runKeyPrefix(batchID, runID)+".started",
		RunEvent{BatchID: batchID, RunID: runID, Event: "started", At: time.Now().UTC()})
}

func (p *Publisher) AppendStep(ctx context.Context, batchID string, rec engine.WinnerRecord) error {
	return p.publish(ctx, runKeyPrefix(batchID, rec.RunID)+".step", models.NewStepRecord(batchID, rec))
}

func (p *Publisher) EndRun(ctx context.Context, batchID string, runID int) error {
	return p.publish(ctx, runKeyPrefix(batchID, runID)+".completed",
		RunEvent{BatchID: batchID, RunID: runID, Event: "completed", At: time.Now().UTC()})
}

func (p *Publisher) publish(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message for %s: %w", key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}
	return nil
}

func runKeyPrefix(batchID string, runID int) string {
	return fmt.Sprintf("%s.run.%d", batchID, runID)
}
