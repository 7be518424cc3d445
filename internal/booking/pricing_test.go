package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBillableHours(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		elapsed     time.Duration
		stillActive bool
		want        uint32
	}{
		{"30 minutes bills one hour", 30 * time.Minute, false, 1},
		{"exactly one hour", time.Hour, false, 1},
		{"61 minutes bills two hours", 61 * time.Minute, false, 2},
		{"two hours exact", 2 * time.Hour, false, 2},
		{"zero elapsed floors at one hour", 0, false, 1},
		{"active stay adds two buffer hours", 30 * time.Minute, true, 3},
		{"active stay on long interval", 5 * time.Hour, true, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BillableHours(base, base.Add(tt.elapsed), tt.stillActive)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name     string
		hours    uint32
		rate     float64
		subtotal float64
		tax      float64
		total    float64
	}{
		{"one hour at 2.50", 1, 2.5, 2.5, 0.48, 2.98},
		{"three hours at 1.00", 3, 1, 3, 0.57, 3.57},
		{"zero rate", 4, 0, 0, 0, 0},
		{"cent rounding half-up", 1, 0.03, 0.03, 0.01, 0.04},
		{"larger amounts", 10, 3.75, 37.5, 7.13, 44.63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Price(tt.hours, tt.rate)
			assert.Equal(t, tt.rate, q.Rate)
			assert.Equal(t, tt.hours, q.Hours)
			assert.Equal(t, tt.subtotal, q.Subtotal)
			assert.Equal(t, tt.tax, q.Tax)
			assert.Equal(t, tt.total, q.Total)
		})
	}
}

// Total must equal round2(subtotal + round2(subtotal*0.19)) and never
// undercut the subtotal, for a spread of duration/rate pairs.
func TestPriceProperties(t *testing.T) {
	rates := []float64{0, 0.5, 1, 1.25, 2.4, 3.333, 10}
	for hours := uint32(1); hours <= 48; hours += 7 {
		for _, rate := range rates {
			q := Price(hours, rate)
			assert.GreaterOrEqual(t, q.Total, q.Subtotal)
			assert.Equal(t, Round2(q.Subtotal+q.Tax), q.Total)
			assert.Equal(t, Round2(q.Subtotal*TaxRate), q.Tax)
		}
	}
}

func TestPriceInterval(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// 90 minutes parked at 2/h: 2 hours billed, 4.00 + 0.76 tax.
	q := PriceInterval(start, start.Add(90*time.Minute), 2, false)
	assert.Equal(t, uint32(2), q.Hours)
	assert.Equal(t, 4.0, q.Subtotal)
	assert.Equal(t, 0.76, q.Tax)
	assert.Equal(t, 4.76, q.Total)

	// Same interval still active: +2 buffer hours.
	q = PriceInterval(start, start.Add(90*time.Minute), 2, true)
	assert.Equal(t, uint32(4), q.Hours)
}

func TestDeriveDuration(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	hours, days, months := DeriveDuration(start, start.Add(25*time.Hour))
	assert.Equal(t, uint32(25), hours)
	assert.Equal(t, uint32(2), days)
	assert.Equal(t, uint32(1), months)

	hours, days, months = DeriveDuration(start, start.Add(31*24*time.Hour))
	assert.Equal(t, uint32(744), hours)
	assert.Equal(t, uint32(31), days)
	assert.Equal(t, uint32(2), months)

	hours, days, months = DeriveDuration(start, start)
	assert.Zero(t, hours)
	assert.Zero(t, days)
	assert.Zero(t, months)
}
