package pass

import (
	"encoding/json"
	"time"

	"turfbook/internal/models"
)

// EncryptForTest builds the encrypted pass string without the QR encoding
// step, so tests can exercise Decode directly.
func EncryptForTest(g *Generator, b *models.Booking) (string, error) {
	payload := Payload{
		BookingID: b.BookingID,
		Reference: b.Reference,
		GroundID:  b.GroundID,
		Sport:     b.Sport,
		Date:      b.Date,
		Slots:     b.Slots,
		Customer:  b.CustomerName,
		IssuedAt:  time.Now(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return encryptAES(data, g.secret)
}
