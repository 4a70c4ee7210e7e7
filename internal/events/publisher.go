// Package events mirrors agent action events onto a Kafka topic for external
// consumers. The memory bank stays the system of record; the mirror is
// optional and a nil Publisher is a no-op.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type envelope struct {
	Timestamp string         `json:"timestamp"`
	Agent     string         `json:"agent"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}

type Publisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewPublisher returns nil when no brokers are configured.
func NewPublisher(brokers []string, topic string, log zerolog.Logger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		log: log.With().Str("component", "event-publisher").Logger(),
	}
}

func (p *Publisher) Publish(ctx context.Context, agent, action string, details map[string]any) error {
	if p == nil {
		return nil
	}
	value, err := json.Marshal(envelope{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Agent:     agent,
		Action:    action,
		Details:   details,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(agent), Value: value}); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
