package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smart-parking-reservation/internal/config"
	"github.com/iliyamo/smart-parking-reservation/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		QRValidity:    15 * time.Minute,
		CheckInWindow: 15 * time.Minute,
		CancelNotice:  2 * time.Hour,
		QRImageSize:   256,
	}
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

// A lot with no free spots rejects creation before the overlap check
// runs, even when the requested window itself is free.
func TestCreateRejectsFullLot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	start := now.Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(2 * time.Hour)

	mock.ExpectBegin()
	lotRows := sqlmock.NewRows([]string{
		"id", "owner_id", "name", "description", "street", "city",
		"latitude", "longitude", "total_spots", "available_spots",
		"hourly_rate", "daily_rate", "monthly_rate", "is_active",
		"created_at", "updated_at",
	}).AddRow(7, 2, "Central", nil, "Main st", "Berlin",
		52.52, 13.40, uint32(10), uint32(0), 2.5, nil, nil, true, now, now)
	mock.ExpectQuery(`FROM parking_lots WHERE id=\? LIMIT 1 FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(lotRows)
	mock.ExpectRollback()

	h := NewBookingHandler(testConfig(),
		repository.NewBookingRepo(db), repository.NewParkingRepo(db), repository.NewVehicleRepo(db))

	body := fmt.Sprintf(`{"parking_id":7,"booking_type":"hourly","start_time":%q,"end_time":%q}`,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	req, rec := jsonRequest(http.MethodPost, "/v1/bookings", body)
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", uint64(42))

	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusConflict, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "no spots available") {
		t.Fatalf("body = %s, want full-lot rejection", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
