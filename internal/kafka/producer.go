package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-fidelity/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Publisher streams domain events. The card workflows depend on this rather
// than on a Kafka writer so the broker stays optional.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event interface{}) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	log    *logger.Logger
}

// NewProducer returns a producer that routes each message by its topic.
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, log: log}
}

// Publish marshals event to JSON and writes it keyed by key.
func (p *Producer) Publish(ctx context.Context, topic, key string, event interface{}) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if p.log != nil {
		p.log.LogKafka("publish", topic, key)
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopPublisher drops every event. Used when KAFKA_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                               { return nil }
