package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestNewQRToken(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	q, err := NewQRToken(start, 15*time.Minute)
	require.NoError(t, err)
	assert.Regexp(t, hexToken, q.Token)
	assert.Equal(t, start.Add(15*time.Minute), q.ExpiresAt)
	assert.False(t, q.GeneratedAt.IsZero())
}

func TestNewQRTokenUniqueness(t *testing.T) {
	start := time.Now().UTC()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		q, err := NewQRToken(start, time.Minute)
		require.NoError(t, err)
		_, dup := seen[q.Token]
		require.False(t, dup, "duplicate token issued")
		seen[q.Token] = struct{}{}
	}
}

func TestQRTokenValid(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	q, err := NewQRToken(start, 15*time.Minute)
	require.NoError(t, err)

	assert.True(t, q.Valid(start))
	assert.True(t, q.Valid(start.Add(14*time.Minute)))
	// Expiry boundary is exclusive: now < expiry.
	assert.False(t, q.Valid(start.Add(15*time.Minute)))
	assert.False(t, q.Valid(start.Add(time.Hour)))
}

func TestRenderQRDataURL(t *testing.T) {
	url, err := RenderQRDataURL(QRPayload{BookingID: 7, Token: "abc"}, 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestNewOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := NewOTP(6)
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, otp)
	}
}
