package notification

import (
	"context"
	"errors"
	"testing"

	"turfbook/internal/logger"
	"turfbook/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendBookingCreated(e models.BookingEvent) error {
	return m.Called(e).Error(0)
}
func (m *MockMailer) SendBookingConfirmed(e models.BookingEvent) error {
	return m.Called(e).Error(0)
}
func (m *MockMailer) SendBookingCancelled(e models.BookingEvent) error {
	return m.Called(e).Error(0)
}

type MockTexter struct{ mock.Mock }

func (m *MockTexter) Send(ctx context.Context, phone, message string) error {
	return m.Called(ctx, phone, message).Error(0)
}

func testEvent(eventType string) models.BookingEvent {
	return models.BookingEvent{
		Type:      eventType,
		BookingID: "bk-1",
		Reference: "TB-7K3QX9",
		GroundID:  "match",
		Sport:     "cricket",
		Date:      "2030-06-10",
		Slots:     []string{"06:00-07:00"},
		Email:     "sam@example.com",
		Phone:     "+919812345678",
	}
}

func TestHandleBookingEvent_Created(t *testing.T) {
	mailer := new(MockMailer)
	texter := new(MockTexter)
	svc := NewService(mailer, texter, logger.NewLogger())

	event := testEvent(models.EventBookingCreated)
	mailer.On("SendBookingCreated", event).Return(nil)

	svc.HandleBookingEvent(event)

	mailer.AssertExpectations(t)
	texter.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleBookingEvent_ConfirmedSendsEmailAndText(t *testing.T) {
	mailer := new(MockMailer)
	texter := new(MockTexter)
	svc := NewService(mailer, texter, logger.NewLogger())

	event := testEvent(models.EventBookingConfirmed)
	mailer.On("SendBookingConfirmed", event).Return(nil)
	texter.On("Send", mock.Anything, "+919812345678", mock.MatchedBy(func(msg string) bool {
		return len(msg) > 0
	})).Return(nil)

	svc.HandleBookingEvent(event)

	mailer.AssertExpectations(t)
	texter.AssertExpectations(t)
}

func TestHandleBookingEvent_EmailFailureDoesNotBlockText(t *testing.T) {
	mailer := new(MockMailer)
	texter := new(MockTexter)
	svc := NewService(mailer, texter, logger.NewLogger())

	event := testEvent(models.EventBookingConfirmed)
	mailer.On("SendBookingConfirmed", event).Return(errors.New("smtp relay down"))
	texter.On("Send", mock.Anything, "+919812345678", mock.Anything).Return(nil)

	svc.HandleBookingEvent(event)

	texter.AssertExpectations(t)
}

func TestHandleBookingEvent_Cancelled(t *testing.T) {
	mailer := new(MockMailer)
	texter := new(MockTexter)
	svc := NewService(mailer, texter, logger.NewLogger())

	event := testEvent(models.EventBookingCancelled)
	mailer.On("SendBookingCancelled", event).Return(nil)

	svc.HandleBookingEvent(event)

	mailer.AssertExpectations(t)
}

func TestHandleBookingEvent_UnknownTypeIgnored(t *testing.T) {
	mailer := new(MockMailer)
	texter := new(MockTexter)
	svc := NewService(mailer, texter, logger.NewLogger())

	svc.HandleBookingEvent(testEvent("booking.unknown"))

	mailer.AssertNotCalled(t, "SendBookingCreated", mock.Anything)
	mailer.AssertNotCalled(t, "SendBookingConfirmed", mock.Anything)
	mailer.AssertNotCalled(t, "SendBookingCancelled", mock.Anything)
}
