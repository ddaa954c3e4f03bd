package pass

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"turfbook/internal/models"
)

// Payload is what gate staff see when they scan an entry pass.
type Payload struct {
	BookingID string    `json:"booking_id"`
	Reference string    `json:"reference"`
	GroundID  string    `json:"ground_id"`
	Sport     string    `json:"sport"`
	Date      string    `json:"date"`
	Slots     []string  `json:"slots"`
	Customer  string    `json:"customer"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Generator turns confirmed bookings into encrypted QR entry passes. The
// payload is AES-encrypted so a pass can't be forged from a screenshot of
// someone else's booking details.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// GeneratePassPNG renders the encrypted pass as a 256px QR code.
func (g *Generator) GeneratePassPNG(b *models.Booking) ([]byte, error) {
	if b.Status != models.BookingConfirmed {
		return nil, fmt.Errorf("entry pass requires a confirmed booking, got %s", b.Status)
	}

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
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// Decode verifies and decrypts a scanned pass back into its payload.
func (g *Generator) Decode(scanned string) (*Payload, error) {
	plaintext, err := decryptAES(scanned, g.secret)
	if err != nil {
		return nil, fmt.Errorf("invalid pass: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("invalid pass payload: %w", err)
	}
	return &payload, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	plaintext := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(plaintext, ciphertext[aes.BlockSize:])
	return plaintext, nil
}
