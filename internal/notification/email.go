package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"turfbook/internal/config"
	"turfbook/internal/logger"
	"turfbook/internal/models"
)

// Mailer sends customer-facing booking emails over plain SMTP.
type Mailer struct {
	cfg config.EmailConfig
	log *logger.Logger
}

func NewMailer(cfg config.EmailConfig, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #2e7d32; margin: 0;">TurfBook</h2>
		</div>
`

const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>
`

func (m *Mailer) send(to []string, subject, body string) error {
	if m.cfg.SMTPUsername == "" || m.cfg.SMTPPassword == "" || m.cfg.SMTPHost == "" {
		return fmt.Errorf("email configuration not set")
	}

	headers := map[string]string{
		"From":         fmt.Sprintf("TurfBook <%s>", m.cfg.From),
		"To":           strings.Join(to, ","),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)

	err := smtp.SendMail(m.cfg.SMTPHost+":"+m.cfg.SMTPPort, auth, m.cfg.From, to, []byte(message))
	if err != nil {
		m.log.Error("EMAIL", fmt.Sprintf("Failed to send email to %v: %v", to, err))
		return err
	}

	m.log.Info("EMAIL", fmt.Sprintf("Sent %q to %v", subject, to))
	return nil
}

func slotSummary(event models.BookingEvent) string {
	return fmt.Sprintf("%s ground on %s, slots: %s", event.GroundID, event.Date, strings.Join(event.Slots, ", "))
}

// SendBookingCreated tells the customer their slots are held pending the
// advance payment.
func (m *Mailer) SendBookingCreated(event models.BookingEvent) error {
	subject := fmt.Sprintf("Booking %s received - TurfBook", event.Reference)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Received</h1>
					<p>Hello,</p>
					<p>Your %s booking is in. %s.</p>
					<p>Your slots are held while the advance payment completes. If the advance is not
					paid before the hold lapses, the booking is released automatically.</p>
					<p>Booking reference: <strong>%s</strong></p>
					<p>Best regards,<br>The TurfBook Team</p>
				</div>`+emailFooter,
		event.Sport, slotSummary(event), event.Reference)

	return m.send([]string{event.Email}, subject, body)
}

// SendBookingConfirmed delivers the confirmation with the entry-pass pointer.
func (m *Mailer) SendBookingConfirmed(event models.BookingEvent) error {
	subject := fmt.Sprintf("Booking %s confirmed - TurfBook", event.Reference)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Confirmed</h1>
					<p>Hello,</p>
					<p>Your %s booking is confirmed. %s.</p>
					<p>Show the QR entry pass from your bookings page at the gate. Any balance is
					payable at the venue.</p>
					<p>Booking reference: <strong>%s</strong></p>
					<p>Best regards,<br>The TurfBook Team</p>
				</div>`+emailFooter,
		event.Sport, slotSummary(event), event.Reference)

	return m.send([]string{event.Email}, subject, body)
}

// SendBookingCancelled confirms the cancellation and slot release.
func (m *Mailer) SendBookingCancelled(event models.BookingEvent) error {
	subject := fmt.Sprintf("Booking %s cancelled - TurfBook", event.Reference)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Cancelled</h1>
					<p>Hello,</p>
					<p>Your %s booking (%s) has been cancelled and its slots released.</p>
					<p>Booking reference: <strong>%s</strong></p>
					<p>Best regards,<br>The TurfBook Team</p>
				</div>`+emailFooter,
		event.Sport, slotSummary(event), event.Reference)

	return m.send([]string{event.Email}, subject, body)
}
