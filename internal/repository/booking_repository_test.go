package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/smart-parking-reservation/internal/model"
)

func mustTx(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

// The overlap predicate must compare the requested window half-open:
// the new end is matched against existing starts and the new start
// against existing ends, so back-to-back bookings never collide.
func TestHasOverlapArgumentOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`status IN \('confirmed','active'\)\s+AND start_time < \?\s+AND end_time > \?`).
		WithArgs(uint64(5), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	repo := NewBookingRepo(db)
	tx := mustTx(t, db)
	defer tx.Rollback()

	got, err := repo.HasOverlapTx(context.Background(), tx, 5, start, end)
	if err != nil {
		t.Fatalf("overlap: %v", err)
	}
	if !got {
		t.Fatal("overlap = false, want true")
	}
	_ = tx.Rollback()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateReportsTokenCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(errDup1062{})
	mock.ExpectRollback()

	repo := NewBookingRepo(db)
	tx := mustTx(t, db)
	defer tx.Rollback()

	b := sampleBooking()
	if err := repo.CreateTx(context.Background(), tx, &b); err != ErrDuplicateToken {
		t.Fatalf("create error = %v, want ErrDuplicateToken", err)
	}
}

func sampleBooking() model.Booking {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	gen := start.Add(-24 * time.Hour)
	exp := start.Add(15 * time.Minute)
	return model.Booking{
		UserID:        2,
		ParkingLotID:  5,
		BookingType:   "hourly",
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		Duration:      model.Duration{Hours: 2},
		Status:        "confirmed",
		Pricing:       model.Pricing{Rate: 2.5, Subtotal: 5, Tax: 0.95, Total: 5.95},
		QRToken:       "deadbeefdeadbeefdeadbeefdeadbeef",
		QRGeneratedAt: &gen,
		QRExpiresAt:   &exp,
	}
}

type errDup1062 struct{}

func (errDup1062) Error() string {
	return "Error 1062 (23000): Duplicate entry 'abc' for key 'bookings.qr_token'"
}

func TestFindByQRCodeScopesValidity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// Expired or foreign-status rows must be filtered by the query, so
	// the statement has to carry both predicates.
	mock.ExpectQuery(`qr_expires_at > UTC_TIMESTAMP\(\)\s+AND status IN \('confirmed','active'\)`).
		WithArgs("deadbeef").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewBookingRepo(db)
	if _, err := repo.FindByQRCode(context.Background(), "deadbeef"); err != sql.ErrNoRows {
		t.Fatalf("find error = %v, want sql.ErrNoRows", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminValidateOnlyOnceFromConfirmed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`status='confirmed' AND admin_validated=0`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewBookingRepo(db)
	ok, err := repo.AdminValidate(context.Background(), 9, 1, time.Now())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Fatal("validate reported success on zero affected rows")
	}
}

func TestUpdateRatingMergesWithCoalesce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	overall := uint8(5)
	mock.ExpectExec(`rating_overall\s+= COALESCE\(\?, rating_overall\)`).
		WithArgs(nil, nil, overall, nil, uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewBookingRepo(db)
	if err := repo.UpdateRating(context.Background(), 4, nil, nil, &overall, nil); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
