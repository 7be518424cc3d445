package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/smart-parking-reservation/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  Bookings are a
// historical record: rows are inserted and updated but never deleted.
// All timestamp fields are stored in UTC.  Mutations that belong to a
// status transition are exposed as ...Tx methods so the handler can
// commit the status change, the availability adjustment and the
// pricing snapshot together or not at all.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for transaction control.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id,user_id,parking_lot_id,vehicle_id,booking_type,start_time,end_time,
	duration_hours,duration_days,duration_months,status,rate,subtotal,tax,total,
	qr_token,qr_generated_at,qr_expires_at,check_in_time,check_out_time,
	admin_validated,admin_validated_at,admin_validated_by,
	payment_status,payment_method,payment_txn_id,payment_paid_at,payment_amount,
	cancelled_at,cancellation_reason,rating_lot,rating_service,rating_overall,feedback,
	created_at,updated_at`

// HasOverlapTx reports whether any confirmed or active booking on the
// lot intersects [start, end) under half-open semantics:
//
//	existing.start < end AND existing.end > start
//
// It must run inside the creation transaction, after the lot row has
// been locked, so two concurrent requests for the same slot cannot
// both pass.
func (r *BookingRepo) HasOverlapTx(ctx context.Context, tx *sql.Tx, lotID uint64, start, end time.Time) (bool, error) {
	const q = `SELECT EXISTS(
	               SELECT 1 FROM bookings
	               WHERE parking_lot_id = ?
	                 AND status IN ('confirmed','active')
	                 AND start_time < ?
	                 AND end_time > ?)`
	var overlaps bool
	err := tx.QueryRowContext(ctx, q, lotID, end, start).Scan(&overlaps)
	return overlaps, err
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID.  The caller must have
// run HasOverlapTx first and must commit or rollback the transaction.
// A QR token collision surfaces as ErrDuplicateToken (MySQL 1062 on
// the sparse unique index) so the caller can regenerate and retry
// instead of overwriting.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	    (user_id, parking_lot_id, vehicle_id, booking_type, start_time, end_time,
	     duration_hours, duration_days, duration_months, status,
	     rate, subtotal, tax, total, qr_token, qr_generated_at, qr_expires_at)
	    VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.ParkingLotID, b.VehicleID, b.BookingType, b.StartTime.UTC(), b.EndTime.UTC(),
		b.Duration.Hours, b.Duration.Days, b.Duration.Months, b.Status,
		b.Pricing.Rate, b.Pricing.Subtotal, b.Pricing.Tax, b.Pricing.Total,
		b.QRToken, b.QRGeneratedAt, b.QRExpiresAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateToken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByIDForUser returns a booking when it exists and belongs to the
// user.  sql.ErrNoRows means not found; a booking owned by someone
// else yields ErrForbidden.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	b, err := r.scanOne(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if b.UserID != userID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

// GetByID returns a booking regardless of owner (admin surface).
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (model.Booking, error) {
	return r.scanOne(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1", bookingID)
}

// GetByIDTx loads a booking inside a transaction with a row lock so
// a transition cannot race another transition on the same booking.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=? LIMIT 1 FOR UPDATE", bookingID))
}

// FindByQRCodeTx resolves a QR token to its booking, applying the
// validity scope in the query itself: the token must not be expired
// and the booking must be confirmed or active.  An expired token is
// indistinguishable from an unknown one (sql.ErrNoRows), which is
// what the scan endpoints report.  The row is locked for the
// duration of the transaction.
func (r *BookingRepo) FindByQRCodeTx(ctx context.Context, tx *sql.Tx, token string) (model.Booking, error) {
	const q = "SELECT " + bookingColumns + ` FROM bookings
	    WHERE qr_token = ?
	      AND qr_expires_at > UTC_TIMESTAMP()
	      AND status IN ('confirmed','active')
	    LIMIT 1 FOR UPDATE`
	return scanBooking(tx.QueryRowContext(ctx, q, token))
}

// FindByQRCode is the read-only variant used by the validate endpoint.
func (r *BookingRepo) FindByQRCode(ctx context.Context, token string) (model.Booking, error) {
	const q = "SELECT " + bookingColumns + ` FROM bookings
	    WHERE qr_token = ?
	      AND qr_expires_at > UTC_TIMESTAMP()
	      AND status IN ('confirmed','active')
	    LIMIT 1`
	return r.scanOne(ctx, q, token)
}

// ListByUser returns the user's bookings newest first, optionally
// filtered by status, with limit/offset pagination.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, status string, limit, offset int) ([]model.Booking, error) {
	query := "SELECT " + bookingColumns + " FROM bookings WHERE user_id=?"
	args := []interface{}{userID}
	if status != "" {
		query += " AND status=?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountByUser returns the total rows behind ListByUser for pagination.
func (r *BookingRepo) CountByUser(ctx context.Context, userID uint64, status string) (int, error) {
	query := "SELECT COUNT(*) FROM bookings WHERE user_id=?"
	args := []interface{}{userID}
	if status != "" {
		query += " AND status=?"
		args = append(args, status)
	}
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// CountActiveByUser returns how many of the user's bookings are
// currently active.
func (r *BookingRepo) CountActiveByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE user_id=? AND status='active'", userID).Scan(&n)
	return n, err
}

// CheckInTx records the confirmed → active transition.
func (r *BookingRepo) CheckInTx(ctx context.Context, tx *sql.Tx, bookingID uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status='active', check_in_time=? WHERE id=?", at.UTC(), bookingID)
	return err
}

// CheckOutTx records the active → completed transition together with
// the recomputed pricing snapshot, the derived duration and the
// payment sub-record.
func (r *BookingRepo) CheckOutTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status='completed', check_out_time=?,
		 duration_hours=?, duration_days=?, duration_months=?,
		 rate=?, subtotal=?, tax=?, total=?,
		 payment_status=?, payment_method=?, payment_txn_id=?, payment_amount=?
		 WHERE id=?`,
		b.CheckOutTime, b.Duration.Hours, b.Duration.Days, b.Duration.Months,
		b.Pricing.Rate, b.Pricing.Subtotal, b.Pricing.Tax, b.Pricing.Total,
		b.Payment.Status, b.Payment.Method, b.Payment.TransactionID, b.Payment.Amount,
		b.ID)
	return err
}

// CancelTx records the pending/confirmed → cancelled transition.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID uint64, at time.Time, reason string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status='cancelled', cancelled_at=?, cancellation_reason=? WHERE id=?",
		at.UTC(), reason, bookingID)
	return err
}

// MarkNoShowTx records the admin-triggered confirmed → no_show
// transition.
func (r *BookingRepo) MarkNoShowTx(ctx context.Context, tx *sql.Tx, bookingID uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status='no_show', cancelled_at=?, cancellation_reason='no_show' WHERE id=?",
		at.UTC(), bookingID)
	return err
}

// UpdateRating merges a partial rating into the stored record.
// COALESCE keeps existing values when the caller omits a dimension.
func (r *BookingRepo) UpdateRating(ctx context.Context, bookingID uint64, lot, service, overall *uint8, feedback *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET
		 rating_lot      = COALESCE(?, rating_lot),
		 rating_service  = COALESCE(?, rating_service),
		 rating_overall  = COALESCE(?, rating_overall),
		 feedback        = COALESCE(?, feedback)
		 WHERE id=?`,
		lot, service, overall, feedback, bookingID)
	return err
}

// AdminValidate flags a confirmed booking as validated by the given
// admin.  The WHERE clause enforces "only from confirmed and only
// once"; zero affected rows means the precondition failed.
func (r *BookingRepo) AdminValidate(ctx context.Context, bookingID, adminID uint64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET admin_validated=1, admin_validated_at=?, admin_validated_by=?
		 WHERE id=? AND status='confirmed' AND admin_validated=0`,
		at.UTC(), adminID, bookingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RevenueRow is one completed booking inside a reporting window.
type RevenueRow struct {
	BookingID    uint64    `json:"booking_id"`
	LotID        uint64    `json:"parking_id"`
	LotName      string    `json:"parking_name"`
	UserID       uint64    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Total        float64   `json:"total"`
	Hours        uint32    `json:"hours"`
	CheckOutTime time.Time `json:"check_out_time"`
}

// CompletedBetween returns completed bookings whose check-out falls
// inside [start, end], newest first, joined with lot and user names
// for the revenue report.
func (r *BookingRepo) CompletedBetween(ctx context.Context, start, end time.Time) ([]RevenueRow, error) {
	const q = `SELECT b.id, p.id, p.name, u.id, CONCAT(u.first_name, ' ', u.last_name),
	                  b.total, b.duration_hours, b.check_out_time
	           FROM bookings b
	           JOIN parking_lots p ON p.id = b.parking_lot_id
	           JOIN users u ON u.id = b.user_id
	           WHERE b.status = 'completed' AND b.check_out_time BETWEEN ? AND ?
	           ORDER BY b.check_out_time DESC`
	rows, err := r.db.QueryContext(ctx, q, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RevenueRow, 0)
	for rows.Next() {
		var row RevenueRow
		if err := rows.Scan(&row.BookingID, &row.LotID, &row.LotName, &row.UserID,
			&row.UserName, &row.Total, &row.Hours, &row.CheckOutTime); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListRecent returns the newest bookings across all users for the
// admin dashboard.
func (r *BookingRepo) ListRecent(ctx context.Context, limit int) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0, limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// StatusCounts returns the number of bookings per status for the
// admin dashboard.
func (r *BookingRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM bookings GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *BookingRepo) scanOne(ctx context.Context, query string, args ...interface{}) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, query, args...))
}

type bookingScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s bookingScanner) (model.Booking, error) {
	var (
		b           model.Booking
		vehicleID   sql.NullInt64
		qrToken     sql.NullString
		qrGenerated sql.NullTime
		qrExpires   sql.NullTime
		checkIn     sql.NullTime
		checkOut    sql.NullTime
		validatedAt sql.NullTime
		validatedBy sql.NullInt64
		txnID       sql.NullString
		paidAt      sql.NullTime
		payAmount   sql.NullFloat64
		cancelledAt sql.NullTime
		reason      sql.NullString
		ratingLot   sql.NullInt64
		ratingSvc   sql.NullInt64
		ratingAll   sql.NullInt64
		feedback    sql.NullString
	)
	err := s.Scan(&b.ID, &b.UserID, &b.ParkingLotID, &vehicleID, &b.BookingType,
		&b.StartTime, &b.EndTime,
		&b.Duration.Hours, &b.Duration.Days, &b.Duration.Months, &b.Status,
		&b.Pricing.Rate, &b.Pricing.Subtotal, &b.Pricing.Tax, &b.Pricing.Total,
		&qrToken, &qrGenerated, &qrExpires, &checkIn, &checkOut,
		&b.AdminValidated, &validatedAt, &validatedBy,
		&b.Payment.Status, &b.Payment.Method, &txnID, &paidAt, &payAmount,
		&cancelledAt, &reason, &ratingLot, &ratingSvc, &ratingAll, &feedback,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if vehicleID.Valid {
		v := uint64(vehicleID.Int64)
		b.VehicleID = &v
	}
	if qrToken.Valid {
		b.QRToken = qrToken.String
	}
	b.QRGeneratedAt = nullTime(qrGenerated)
	b.QRExpiresAt = nullTime(qrExpires)
	b.CheckInTime = nullTime(checkIn)
	b.CheckOutTime = nullTime(checkOut)
	b.AdminValidatedAt = nullTime(validatedAt)
	if validatedBy.Valid {
		v := uint64(validatedBy.Int64)
		b.AdminValidatedBy = &v
	}
	if txnID.Valid {
		t := txnID.String
		b.Payment.TransactionID = &t
	}
	b.Payment.PaidAt = nullTime(paidAt)
	if payAmount.Valid {
		a := payAmount.Float64
		b.Payment.Amount = &a
	}
	b.CancelledAt = nullTime(cancelledAt)
	if reason.Valid {
		re := reason.String
		b.CancellationReason = &re
	}
	b.Rating.Lot = nullRating(ratingLot)
	b.Rating.Service = nullRating(ratingSvc)
	b.Rating.Overall = nullRating(ratingAll)
	if feedback.Valid {
		f := feedback.String
		b.Feedback = &f
	}
	return b, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullRating(n sql.NullInt64) *uint8 {
	if !n.Valid {
		return nil
	}
	v := uint8(n.Int64)
	return &v
}
