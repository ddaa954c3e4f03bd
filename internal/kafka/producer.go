package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"turfbook/internal/logger"
	"turfbook/internal/models"
)

// Producer fans booking lifecycle events out to their topics. One writer
// per topic, sharing the broker connection pool.
type Producer struct {
	created   *kafka.Writer
	confirmed *kafka.Writer
	cancelled *kafka.Writer
	Logger    *logger.Logger
}

type Topics struct {
	BookingCreated   string
	BookingConfirmed string
	BookingCancelled string
}

func NewProducer(brokers []string, topics Topics, log *logger.Logger) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		created:   newWriter(topics.BookingCreated),
		confirmed: newWriter(topics.BookingConfirmed),
		cancelled: newWriter(topics.BookingCancelled),
		Logger:    log,
	}
}

func (p *Producer) publish(w *kafka.Writer, event models.BookingEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.Logger != nil {
		p.Logger.LogKafka("publish", w.Topic, fmt.Sprintf("booking=%s type=%s", event.BookingID, event.Type))
	}

	return w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.BookingID),
			Value: msgBytes,
		},
	)
}

// PublishBookingCreated streams the booking creation event.
func (p *Producer) PublishBookingCreated(event models.BookingEvent) error {
	return p.publish(p.created, event)
}

// PublishBookingConfirmed streams the payment confirmation event.
func (p *Producer) PublishBookingConfirmed(event models.BookingEvent) error {
	return p.publish(p.confirmed, event)
}

// PublishBookingCancelled streams the cancellation event.
func (p *Producer) PublishBookingCancelled(event models.BookingEvent) error {
	return p.publish(p.cancelled, event)
}

// Close flushes and closes all writers.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.created, p.confirmed, p.cancelled} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
