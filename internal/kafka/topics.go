package kafka

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"ms-fidelity/internal/logger"

	"github.com/segmentio/kafka-go"
)

// EnsureTopicsExist creates the event topics if they don't already exist.
func EnsureTopicsExist(ctx context.Context, brokers []string, topics []string, log *logger.Logger) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if errors.Is(err, kafka.TopicAlreadyExists) {
				log.Debug("KAFKA", "topic already exists: "+topic)
				continue
			}
			// keep going; a missing topic is auto-created on first write
			log.Warn("KAFKA", "error creating topic "+topic+": "+err.Error())
			continue
		}
		log.Info("KAFKA", "created topic: "+topic)
	}

	time.Sleep(500 * time.Millisecond)
	return nil
}
