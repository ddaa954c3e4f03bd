package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"turfbook/internal/logger"
	"turfbook/internal/models"
)

// PaymentProducer streams advance-payment outcomes. The notification
// consumer uses these to send receipts and retry prompts.
type PaymentProducer struct {
	succeeded *kafka.Writer
	failed    *kafka.Writer
	Logger    *logger.Logger
}

type PaymentTopics struct {
	PaymentSucceeded string
	PaymentFailed    string
}

func NewPaymentProducer(brokers []string, topics PaymentTopics, log *logger.Logger) *PaymentProducer {
	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &PaymentProducer{
		succeeded: newWriter(topics.PaymentSucceeded),
		failed:    newWriter(topics.PaymentFailed),
		Logger:    log,
	}
}

func (p *PaymentProducer) publish(w *kafka.Writer, event models.PaymentEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.Logger != nil {
		p.Logger.LogKafka("publish", w.Topic, fmt.Sprintf("payment=%s booking=%s type=%s", event.PaymentID, event.BookingID, event.Type))
	}

	return w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.BookingID),
			Value: msgBytes,
		},
	)
}

func (p *PaymentProducer) PublishPaymentSucceeded(event models.PaymentEvent) error {
	return p.publish(p.succeeded, event)
}

func (p *PaymentProducer) PublishPaymentFailed(event models.PaymentEvent) error {
	return p.publish(p.failed, event)
}

func (p *PaymentProducer) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.succeeded, p.failed} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
