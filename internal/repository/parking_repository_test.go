package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAdjustAvailabilityClampsInStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE parking_lots\s+SET available_spots = LEAST\(total_spots, GREATEST\(0, CAST\(available_spots AS SIGNED\) \+ \?\)\)`).
		WithArgs(int32(-1), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT available_spots FROM parking_lots").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"available_spots"}).AddRow(4))
	mock.ExpectCommit()

	repo := NewParkingRepo(db)
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	got, err := repo.AdjustAvailabilityTx(context.Background(), tx, 7, -1)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got != 4 {
		t.Fatalf("available = %d, want 4", got)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestParkingDeleteRefusedWhileBookingsOpen(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT owner_id FROM parking_lots").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(10))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	repo := NewParkingRepo(db)
	if err := repo.Delete(context.Background(), 3, 10); err != ErrConflict {
		t.Fatalf("delete error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestParkingDeleteForbiddenForStranger(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT owner_id FROM parking_lots").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(10))
	mock.ExpectRollback()

	repo := NewParkingRepo(db)
	if err := repo.Delete(context.Background(), 3, 99); err != ErrForbidden {
		t.Fatalf("delete error = %v, want ErrForbidden", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
