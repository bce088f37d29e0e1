package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"ms-fidelity/internal/logger"
	"ms-fidelity/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// EnrollmentConsumer follows the enrollment topic so every portal instance
// can notify its own open pages, not only the one that served the request.
type EnrollmentConsumer struct {
	reader messageReader
	log    *logger.Logger
}

// NewEnrollmentConsumer creates a consumer for the given topic and group
func NewEnrollmentConsumer(brokers []string, topic, groupID string, log *logger.Logger) *EnrollmentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &EnrollmentConsumer{reader: reader, log: log}
}

// Start consumes until ctx is cancelled or the reader is closed.
func (c *EnrollmentConsumer) Start(ctx context.Context, handler func(models.EnrollmentCreatedEvent)) {
	c.log.Info("KAFKA", "enrollment consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.log.Info("KAFKA", "enrollment consumer stopped")
				return
			}
			if errors.Is(err, io.EOF) {
				return
			}
			c.log.Error("KAFKA", "error reading message: "+err.Error())
			continue
		}

		var event models.EnrollmentCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Warn("KAFKA", "failed to unmarshal enrollment event: "+err.Error())
			continue
		}

		c.log.LogKafka("consume", msg.Topic, event.EnrollmentID)
		handler(event)
	}
}

// Close shuts down the Kafka reader
func (c *EnrollmentConsumer) Close() error {
	return c.reader.Close()
}
