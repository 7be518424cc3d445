package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"confirmed to active", StatusConfirmed, StatusActive, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"confirmed to no_show", StatusConfirmed, StatusNoShow, true},
		{"active to completed", StatusActive, StatusCompleted, true},
		// Illegal edges.
		{"pending to active", StatusPending, StatusActive, false},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"active to cancelled", StatusActive, StatusCancelled, false},
		{"completed is terminal", StatusCompleted, StatusActive, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
		{"no_show is terminal", StatusNoShow, StatusConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransitionNamesRejectedEdge(t *testing.T) {
	_, err := Transition(StatusPending, StatusCompleted)
	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
	assert.Equal(t, StatusPending, stateErr.From)
	assert.Equal(t, StatusCompleted, stateErr.To)

	next, err := Transition(StatusConfirmed, StatusActive)
	assert.NoError(t, err)
	assert.Equal(t, StatusActive, next)
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusNoShow.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusActive.Terminal())
}

func TestGuardCheckIn(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// 16 minutes early: rejected.
	err := GuardCheckIn(now, now.Add(16*time.Minute), CheckInWindow)
	assert.ErrorIs(t, err, ErrCheckInTooEarly)

	// Exactly 15 minutes early: allowed.
	assert.NoError(t, GuardCheckIn(now, now.Add(15*time.Minute), CheckInWindow))

	// Start already passed: allowed.
	assert.NoError(t, GuardCheckIn(now, now.Add(-time.Hour), CheckInWindow))
}

func TestGuardCancel(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// One hour before start: rejected.
	err := GuardCancel(now, now.Add(time.Hour), CancellationNotice)
	assert.ErrorIs(t, err, ErrCancelTooLate)

	// Three hours before start: allowed.
	assert.NoError(t, GuardCancel(now, now.Add(3*time.Hour), CancellationNotice))

	// Exactly two hours is still inside the allowed window.
	assert.NoError(t, GuardCancel(now, now.Add(2*time.Hour), CancellationNotice))
}

func TestValidateRating(t *testing.T) {
	u := func(v uint8) *uint8 { return &v }
	s := func(v string) *string { return &v }

	assert.NoError(t, ValidateRating(RatingInput{Lot: u(5), Service: u(1), Overall: u(3)}))
	assert.NoError(t, ValidateRating(RatingInput{}))
	assert.Error(t, ValidateRating(RatingInput{Lot: u(0)}))
	assert.Error(t, ValidateRating(RatingInput{Overall: u(6)}))

	long := make([]byte, MaxFeedbackLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateRating(RatingInput{Feedback: s(string(long))}))
	assert.NoError(t, ValidateRating(RatingInput{Feedback: s("great spot")}))
}

func TestValidCancellationReason(t *testing.T) {
	assert.True(t, ValidCancellationReason(ReasonUserCancelled))
	assert.True(t, ValidCancellationReason(ReasonParkingUnavailable))
	assert.False(t, ValidCancellationReason("changed_my_mind"))
}
