package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// QRTokenBytes is the entropy of a booking QR token: 16 random bytes
// give 128 bits, hex-encoded to 32 characters.
const QRTokenBytes = 16

// QRToken is the credential issued once per booking.  The token is
// immutable after issuance; only its expiry decides validity.
type QRToken struct {
	Token       string    // 32-char hex credential
	GeneratedAt time.Time // issuance timestamp (UTC)
	ExpiresAt   time.Time // start time + validity window
}

// NewQRToken issues a fresh token for a booking that starts at
// startTime.  The expiry is startTime plus the configured validity
// window.  Uniqueness is enforced by the database's sparse unique
// index; on a duplicate-key error callers regenerate rather than
// overwrite.
func NewQRToken(startTime time.Time, validity time.Duration) (QRToken, error) {
	token, err := RandomHex(QRTokenBytes)
	if err != nil {
		return QRToken{}, err
	}
	return QRToken{
		Token:       token,
		GeneratedAt: time.Now().UTC(),
		ExpiresAt:   startTime.UTC().Add(validity),
	}, nil
}

// Valid reports whether the token can still be used at instant now.
// Status scoping (confirmed/active only) is applied by the booking
// lookup; this covers the time window alone.
func (q QRToken) Valid(now time.Time) bool {
	return now.Before(q.ExpiresAt)
}

// QRPayload is the JSON document encoded into the QR image.  It
// mirrors what entry terminals expect to scan.
type QRPayload struct {
	BookingID uint64    `json:"booking_id"`
	Token     string    `json:"qr_code"`
	UserID    uint64    `json:"user_id"`
	ParkingID uint64    `json:"parking_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Expires   time.Time `json:"expires"`
}

// RenderQRDataURL encodes the payload as JSON inside a PNG QR image
// and returns it as a data URL suitable for direct embedding in an
// <img> tag.  size is the pixel width of the square image.
func RenderQRDataURL(p QRPayload, size int) (string, error) {
	if size <= 0 {
		size = 256
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	png, err := qrcode.Encode(string(body), qrcode.Medium, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// NewOTP returns a zero-padded numeric one-time password of the
// given number of digits, generated with crypto/rand.
func NewOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
