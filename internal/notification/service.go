package notification

import (
	"context"
	"fmt"
	"strings"

	"turfbook/internal/logger"
	"turfbook/internal/models"
)

// EmailSender is implemented by Mailer.
type EmailSender interface {
	SendBookingCreated(event models.BookingEvent) error
	SendBookingConfirmed(event models.BookingEvent) error
	SendBookingCancelled(event models.BookingEvent) error
}

// TextSender is implemented by SMSSender.
type TextSender interface {
	Send(ctx context.Context, phone, message string) error
}

// Service turns booking lifecycle events into customer notifications.
// Delivery failures are logged and dropped; a dead SMTP relay must never
// stall the consumer group.
type Service struct {
	Mailer EmailSender
	SMS    TextSender
	Logger *logger.Logger
}

func NewService(mailer EmailSender, sms TextSender, log *logger.Logger) *Service {
	return &Service{
		Mailer: mailer,
		SMS:    sms,
		Logger: log,
	}
}

// HandleBookingEvent is the kafka consumer callback for all three booking
// topics.
func (s *Service) HandleBookingEvent(event models.BookingEvent) {
	ctx := context.Background()

	switch event.Type {
	case models.EventBookingCreated:
		s.try(event, "created email", func() error { return s.Mailer.SendBookingCreated(event) })
	case models.EventBookingConfirmed:
		s.try(event, "confirmed email", func() error { return s.Mailer.SendBookingConfirmed(event) })
		s.try(event, "confirmed sms", func() error {
			return s.SMS.Send(ctx, event.Phone, confirmationText(event))
		})
	case models.EventBookingCancelled:
		s.try(event, "cancelled email", func() error { return s.Mailer.SendBookingCancelled(event) })
	default:
		s.Logger.Warn("NOTIFY", fmt.Sprintf("Unknown event type %q for booking %s", event.Type, event.BookingID))
	}
}

func (s *Service) try(event models.BookingEvent, what string, send func() error) {
	if err := send(); err != nil {
		s.Logger.Error("NOTIFY", fmt.Sprintf("Failed to send %s for booking %s: %v", what, event.BookingID, err))
		return
	}
	s.Logger.Info("NOTIFY", fmt.Sprintf("Sent %s for booking %s", what, event.BookingID))
}

func confirmationText(event models.BookingEvent) string {
	return fmt.Sprintf("TurfBook: booking %s confirmed for %s on %s (%s). Show your QR pass at the gate.",
		event.Reference, event.GroundID, event.Date, strings.Join(event.Slots, ", "))
}
