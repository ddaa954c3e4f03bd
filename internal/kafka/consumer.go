package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"turfbook/internal/logger"
	"turfbook/internal/models"
)

type Consumer struct {
	reader *kafka.Reader
	Logger *logger.Logger
}

// NewConsumer creates a Kafka consumer for the given topic and group.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, Logger: log}
}

// Start consumes booking events until the context is cancelled. Undecodable
// messages are logged and skipped so one bad payload cannot wedge the
// consumer group.
func (c *Consumer) Start(ctx context.Context, handler func(event models.BookingEvent)) {
	if c.Logger != nil {
		c.Logger.LogKafka("start", c.reader.Config().Topic, "consumer started")
	}

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if c.Logger != nil {
				c.Logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			}
			continue
		}

		var event models.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			if c.Logger != nil {
				c.Logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message: %v", err))
			}
			continue
		}

		if c.Logger != nil {
			c.Logger.LogKafka("receive", c.reader.Config().Topic, fmt.Sprintf("booking=%s type=%s", event.BookingID, event.Type))
		}
		handler(event)
	}
}

// Close gracefully shuts down the Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
