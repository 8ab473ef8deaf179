// Package kafka publishes triage results as JSON events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/linnemanlabs/ticketwatch/internal/triage"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the payload written for every analyzed ticket.
type Event struct {
	BatchID    string         `json:"batch_id"`
	AnalyzedAt time.Time      `json:"analyzed_at"`
	Result     *triage.Result `json:"result"`
}

// Publisher writes one message per result, keyed by ticket ID so that
// events for the same ticket land on the same partition.
type Publisher struct {
	w   messageWriter
	now func() time.Time
}

// New creates a Publisher for topic on the given brokers.
func New(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 250 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}), nil
}

func newPublisher(w messageWriter) *Publisher {
	return &Publisher{w: w, now: time.Now}
}

// Name identifies the notifier in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// Notify publishes r under batchID.
func (p *Publisher) Notify(ctx context.Context, batchID string, r *triage.Result) error {
	at := p.now().UTC()
	body, err := json.Marshal(Event{BatchID: batchID, AnalyzedAt: at, Result: r})
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(r.ID),
		Value: body,
		Time:  at,
		Headers: []kafka.Header{
			{Key: "risk_label", Value: []byte(r.Label.String())},
			{Key: "source", Value: []byte(r.Source)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write message: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
