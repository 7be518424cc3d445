// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully created.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64  `json:"booking_id"`
	UserID      uint64  `json:"user_id"`
	ParkingID   uint64  `json:"parking_id"`
	ParkingName string  `json:"parking_name"`
	City        string  `json:"city"`
	BookingType string  `json:"booking_type"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	Total       float64 `json:"total"`
	ConfirmedAt string  `json:"confirmed_at"`
}

// BookingClosedEvent is published when a booking reaches a terminal
// status: completed at check-out, cancelled, or marked no-show.  The
// Status field tells consumers which one.
type BookingClosedEvent struct {
	BookingID uint64  `json:"booking_id"`
	UserID    uint64  `json:"user_id"`
	ParkingID uint64  `json:"parking_id"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
	Total     float64 `json:"total"`
	Hours     uint32  `json:"hours"`
	ClosedAt  string  `json:"closed_at"`
}

// OTPIssuedEvent asks the notification worker to deliver a one-time
// password out of band.  The code itself travels in the message; the
// queue is internal and not exposed to clients.
type OTPIssuedEvent struct {
	UserID   uint64 `json:"user_id"`
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	IssuedAt string `json:"issued_at"`
}
