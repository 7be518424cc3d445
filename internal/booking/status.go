// Package booking contains the booking lifecycle core: the status
// state machine, the pricing calculator and the transition guards
// shared by the HTTP handlers.  Everything here is free of HTTP and
// persistence concerns so it can be tested against literal values.
package booking

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Cancellation reasons recorded on the booking.
const (
	ReasonUserCancelled      = "user_cancelled"
	ReasonNoShow             = "no_show"
	ReasonSystemCancelled    = "system_cancelled"
	ReasonParkingUnavailable = "parking_unavailable"
)

// ValidCancellationReason reports whether r is a known reason.
func ValidCancellationReason(r string) bool {
	switch r {
	case ReasonUserCancelled, ReasonNoShow, ReasonSystemCancelled, ReasonParkingUnavailable:
		return true
	}
	return false
}

// StateError is returned when a transition is attempted from an
// illegal status.  It names the attempted transition so handlers can
// surface the violated precondition verbatim.
type StateError struct {
	From Status
	To   Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("illegal transition from %s to %s", e.From, e.To)
}

// Guard errors for the timing preconditions.  They are sentinel
// values so handlers can map them to specific responses.
var (
	ErrCheckInTooEarly  = errors.New("check-in not available yet")
	ErrCancelTooLate    = errors.New("cancellation window has closed")
	ErrAlreadyValidated = errors.New("booking already validated")
	ErrNotCompleted     = errors.New("booking is not completed")
)

// transitions lists the allowed edges of the status machine:
//
//	pending → confirmed → active → completed
//	pending/confirmed → cancelled
//	confirmed → no_show (admin-triggered, never automatic)
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusActive, StatusCancelled, StatusNoShow},
	StatusActive:    {StatusCompleted},
}

// CanTransition checks if moving from one status to another is
// allowed by the state machine.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition validates the edge and returns the new status, or a
// *StateError naming the rejected edge.  It performs no side effects;
// callers persist the result together with the associated ledger and
// pricing mutations in one transaction.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, &StateError{From: from, To: to}
	}
	return to, nil
}

// CheckInWindow gates check-in to at most this long before the
// booked start time.  The scan flow keeps this gate: drivers may
// enter up to 15 minutes early, never more.
const CheckInWindow = 15 * time.Minute

// GuardCheckIn validates the timing precondition for the
// confirmed → active transition.  now and startTime must be UTC.
func GuardCheckIn(now, startTime time.Time, window time.Duration) error {
	if window <= 0 {
		window = CheckInWindow
	}
	if startTime.Sub(now) > window {
		return ErrCheckInTooEarly
	}
	return nil
}

// CancellationNotice is the minimum lead time before start for a
// cancellation to be accepted.
const CancellationNotice = 2 * time.Hour

// GuardCancel validates the timing precondition for cancelling a
// pending or confirmed booking.
func GuardCancel(now, startTime time.Time, notice time.Duration) error {
	if notice <= 0 {
		notice = CancellationNotice
	}
	if startTime.Sub(now) < notice {
		return ErrCancelTooLate
	}
	return nil
}

// RatingInput is a partial rating submitted after completion.  Nil
// fields leave the stored value untouched.
type RatingInput struct {
	Lot      *uint8
	Service  *uint8
	Overall  *uint8
	Feedback *string
}

// MaxFeedbackLen bounds the free-text feedback.
const MaxFeedbackLen = 500

// ValidateRating checks the 1–5 bounds on every provided sub-rating
// and the feedback length.  It returns the name of the offending
// field so handlers can produce field-level detail.
func ValidateRating(in RatingInput) error {
	check := func(name string, v *uint8) error {
		if v != nil && (*v < 1 || *v > 5) {
			return fmt.Errorf("%s rating must be between 1 and 5", name)
		}
		return nil
	}
	if err := check("parking", in.Lot); err != nil {
		return err
	}
	if err := check("service", in.Service); err != nil {
		return err
	}
	if err := check("overall", in.Overall); err != nil {
		return err
	}
	if in.Feedback != nil && len(*in.Feedback) > MaxFeedbackLen {
		return fmt.Errorf("feedback cannot exceed %d characters", MaxFeedbackLen)
	}
	return nil
}
