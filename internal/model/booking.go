package model

import "time"

// Booking records a user's reservation of one spot at a parking lot
// for a time interval.  It is a transactional record referencing
// User, ParkingLot and Vehicle by id; deleting a referent does not
// cascade here.  Bookings are never hard-deleted – terminal statuses
// (completed, cancelled, no_show) keep the historical record.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who made the booking.
//  ParkingLotID   – lot being reserved.
//  VehicleID      – vehicle used (nil for immediate reservations).
//  BookingType    – hourly, daily or monthly.
//  StartTime      – reserved interval start (must be in the future
//                   at creation time).
//  EndTime        – reserved interval end (after StartTime).
//  Duration       – derived hours/days/months, recomputed whenever
//                   the effective times change.
//  Status         – see booking.Status for the state machine.
//  Pricing        – snapshot of rate/subtotal/tax/total, computed at
//                   creation and recomputed at check-out.
//  QRToken        – opaque 32-char hex credential, immutable once
//                   issued; empty until issued.
//  QRGeneratedAt  – when the token was issued.
//  QRExpiresAt    – StartTime plus the configured validity window.
//  CheckInTime    – set when the driver scans in.
//  CheckOutTime   – set when the driver scans out.
//  AdminValidated – set once by an admin while the booking is
//                   confirmed; does not change Status.
//  Payment        – settlement sub-record, finalised at check-out.
//  CancelledAt    – when the booking was cancelled.
//  CancellationReason – one of user_cancelled, no_show,
//                   system_cancelled, parking_unavailable.
//  Rating         – 1–5 sub-ratings, mutable only after completion.
//  Feedback       – free text, at most 500 characters.
type Booking struct {
	ID                 uint64     // bookings.id
	UserID             uint64     // bookings.user_id
	ParkingLotID       uint64     // bookings.parking_lot_id
	VehicleID          *uint64    // bookings.vehicle_id (nullable)
	BookingType        string     // bookings.booking_type
	StartTime          time.Time  // bookings.start_time
	EndTime            time.Time  // bookings.end_time
	Duration           Duration   // bookings.duration_* columns
	Status             string     // bookings.status
	Pricing            Pricing    // bookings.rate/subtotal/tax/total
	QRToken            string     // bookings.qr_token (sparse unique)
	QRGeneratedAt      *time.Time // bookings.qr_generated_at
	QRExpiresAt        *time.Time // bookings.qr_expires_at
	CheckInTime        *time.Time // bookings.check_in_time
	CheckOutTime       *time.Time // bookings.check_out_time
	AdminValidated     bool       // bookings.admin_validated
	AdminValidatedAt   *time.Time // bookings.admin_validated_at
	AdminValidatedBy   *uint64    // bookings.admin_validated_by
	Payment            Payment    // bookings.payment_* columns
	CancelledAt        *time.Time // bookings.cancelled_at
	CancellationReason *string    // bookings.cancellation_reason
	Rating             Rating     // bookings.rating_* columns
	Feedback           *string    // bookings.feedback
	CreatedAt          time.Time  // bookings.created_at
	UpdatedAt          time.Time  // bookings.updated_at
}

// Duration is the derived length of a booking, all parts rounded up.
type Duration struct {
	Hours  uint32 `json:"hours"`
	Days   uint32 `json:"days"`
	Months uint32 `json:"months"`
}

// Pricing is the monetary snapshot stored on the booking.  All values
// are in the lot's currency, rounded half-up to two decimal places,
// and never negative.
type Pricing struct {
	Rate     float64 `json:"rate"`
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Payment tracks settlement at the exit terminal.  Status is one of
// pending, paid, failed or refunded.
type Payment struct {
	Status        string     `json:"status"`
	Method        string     `json:"method"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
}

// Rating holds the three 1–5 sub-ratings a customer may leave after
// completion.  Nil means not rated on that dimension yet; merging a
// new rating never clears an existing value.
type Rating struct {
	Lot     *uint8 `json:"parking,omitempty"`
	Service *uint8 `json:"service,omitempty"`
	Overall *uint8 `json:"overall,omitempty"`
}
