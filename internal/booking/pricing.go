package booking

import (
	"math"
	"time"
)

// TaxRate is the VAT applied to every booking subtotal.
const TaxRate = 0.19

// ActiveStayBuffer is added to the billed hours when pricing is
// recomputed while the car is still parked.  It makes an in-progress
// stay a conservative estimate; the final check-out recomputation
// replaces it with the actual elapsed time.
const ActiveStayBuffer = 2

// Quote is the result of a pricing computation.  Subtotal, Tax and
// Total are rounded half-up on the cent boundary and are never
// negative for non-negative inputs.
type Quote struct {
	Rate     float64
	Hours    uint32
	Subtotal float64
	Tax      float64
	Total    float64
}

// Round2 rounds half-up to two decimal places.  math.Round rounds
// half away from zero, which matches half-up for the non-negative
// amounts used here.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BillableHours converts an elapsed interval into billed hours:
// partial hours always round up, and the result never drops below
// one hour.  When stillActive is true the ActiveStayBuffer is added
// before the one-hour floor is applied.
func BillableHours(start, end time.Time, stillActive bool) uint32 {
	hours := int64(math.Ceil(end.Sub(start).Hours()))
	if stillActive {
		hours += ActiveStayBuffer
	}
	if hours < 1 {
		hours = 1
	}
	return uint32(hours)
}

// Price computes a quote for a number of billed hours at an hourly
// rate.  It is pure: same inputs, same quote, no side effects.
func Price(hours uint32, rate float64) Quote {
	subtotal := Round2(float64(hours) * rate)
	tax := Round2(subtotal * TaxRate)
	return Quote{
		Rate:     rate,
		Hours:    hours,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    Round2(subtotal + tax),
	}
}

// PriceInterval combines BillableHours and Price for an interval.
func PriceInterval(start, end time.Time, rate float64, stillActive bool) Quote {
	return Price(BillableHours(start, end, stillActive), rate)
}

// DeriveDuration recomputes the hours/days/months triple from an
// interval, each part rounded up.  A month counts as 30 days.
func DeriveDuration(start, end time.Time) (hours, days, months uint32) {
	d := end.Sub(start)
	if d <= 0 {
		return 0, 0, 0
	}
	hours = uint32(math.Ceil(d.Hours()))
	days = uint32(math.Ceil(d.Hours() / 24))
	months = uint32(math.Ceil(d.Hours() / (24 * 30)))
	return hours, days, months
}
