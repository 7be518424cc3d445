package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking-reservation/internal/repository"
)

var scanBookingColumns = []string{
	"id", "user_id", "parking_lot_id", "vehicle_id", "booking_type",
	"start_time", "end_time",
	"duration_hours", "duration_days", "duration_months", "status",
	"rate", "subtotal", "tax", "total",
	"qr_token", "qr_generated_at", "qr_expires_at", "check_in_time", "check_out_time",
	"admin_validated", "admin_validated_at", "admin_validated_by",
	"payment_status", "payment_method", "payment_txn_id", "payment_paid_at", "payment_amount",
	"cancelled_at", "cancellation_reason", "rating_lot", "rating_service", "rating_overall", "feedback",
	"created_at", "updated_at",
}

func TestScanRequiresAction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	h := NewQRHandler(testConfig(), repository.NewBookingRepo(db), repository.NewParkingRepo(db))

	req, rec := jsonRequest(http.MethodPost, "/v1/qr/scan",
		`{"qr_code":"deadbeefdeadbeefdeadbeefdeadbeef","action":"open-sesame"}`)
	c := echo.New().NewContext(req, rec)

	if err := h.Scan(c); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	// The token must never be looked up for an unknown action.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database access: %v", err)
	}
}

// An entry terminal scanning an already-active booking must be told
// the booking is past check-in; it must not silently close the stay.
func TestScanRejectsCheckInOnActiveBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	start := time.Now().UTC().Add(-time.Hour)
	end := start.Add(3 * time.Hour)
	issued := start.Add(-24 * time.Hour)
	expires := time.Now().UTC().Add(30 * time.Minute)
	checkedIn := start.Add(10 * time.Minute)

	mock.ExpectBegin()
	rows := sqlmock.NewRows(scanBookingColumns).AddRow(
		1, 42, 7, nil, "hourly", start, end,
		uint32(3), uint32(0), uint32(0), "active",
		2.5, 7.5, 1.43, 8.93,
		"deadbeefdeadbeefdeadbeefdeadbeef", issued, expires, checkedIn, nil,
		false, nil, nil,
		"pending", "", nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		start, start)
	mock.ExpectQuery(`WHERE qr_token = \?`).
		WithArgs("deadbeefdeadbeefdeadbeefdeadbeef").
		WillReturnRows(rows)
	mock.ExpectRollback()

	h := NewQRHandler(testConfig(), repository.NewBookingRepo(db), repository.NewParkingRepo(db))

	// Uppercase input exercises token normalization too.
	req, rec := jsonRequest(http.MethodPost, "/v1/qr/scan",
		`{"qr_code":"DEADBEEFDEADBEEFDEADBEEFDEADBEEF","action":"checkin"}`)
	c := echo.New().NewContext(req, rec)

	if err := h.Scan(c); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "not ready for check-in") {
		t.Fatalf("body = %s, want check-in rejection", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
