package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/smart-parking-reservation/internal/model"
)

// ParkingRepo provides data access to the parking_lots table.  The
// available-spots counter is only ever mutated through
// AdjustAvailabilityTx so the [0, total_spots] invariant holds no
// matter how callers sequence check-ins, check-outs and cancels.
type ParkingRepo struct{ db *sql.DB }

func NewParkingRepo(db *sql.DB) *ParkingRepo { return &ParkingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *ParkingRepo) DB() *sql.DB { return r.db }

const parkingColumns = `id,owner_id,name,description,street,city,latitude,longitude,
	total_spots,available_spots,hourly_rate,daily_rate,monthly_rate,is_active,created_at,updated_at`

// Create inserts a lot.  Available spots start at full capacity.
func (r *ParkingRepo) Create(ctx context.Context, p *model.ParkingLot) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO parking_lots
		 (owner_id, name, description, street, city, latitude, longitude,
		  total_spots, available_spots, hourly_rate, daily_rate, monthly_rate, is_active)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.OwnerID, p.Name, p.Description, p.Street, p.City, p.Latitude, p.Longitude,
		p.TotalSpots, p.TotalSpots, p.HourlyRate, p.DailyRate, p.MonthlyRate, p.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.AvailableSpots = p.TotalSpots
	return nil
}

// GetByID returns a single lot.
func (r *ParkingRepo) GetByID(ctx context.Context, id uint64) (model.ParkingLot, error) {
	return scanParking(r.db.QueryRowContext(ctx,
		"SELECT "+parkingColumns+" FROM parking_lots WHERE id=? LIMIT 1", id))
}

// GetByIDTx is GetByID inside a transaction with a row lock.  Booking
// creation locks the lot row first so concurrent requests for the
// same lot serialize before the overlap check runs.
func (r *ParkingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ParkingLot, error) {
	return scanParking(tx.QueryRowContext(ctx,
		"SELECT "+parkingColumns+" FROM parking_lots WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// List returns active lots, optionally filtered by city.
func (r *ParkingRepo) List(ctx context.Context, city string) ([]model.ParkingLot, error) {
	query := "SELECT " + parkingColumns + " FROM parking_lots WHERE is_active=1"
	args := []interface{}{}
	if city != "" {
		query += " AND city=?"
		args = append(args, city)
	}
	query += " ORDER BY name"
	return r.list(ctx, query, args...)
}

// ListByOwner returns every lot of the owner including inactive ones.
func (r *ParkingRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.ParkingLot, error) {
	return r.list(ctx,
		"SELECT "+parkingColumns+" FROM parking_lots WHERE owner_id=? ORDER BY name", ownerID)
}

// Update applies mutable lot attributes after verifying ownership.
// Capacity changes keep available_spots clamped into the new range.
func (r *ParkingRepo) Update(ctx context.Context, p *model.ParkingLot, ownerID uint64) error {
	var actualOwner uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT owner_id FROM parking_lots WHERE id=?", p.ID).Scan(&actualOwner)
	if err != nil {
		return err
	}
	if actualOwner != ownerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE parking_lots SET name=?, description=?, street=?, city=?, latitude=?, longitude=?,
		 total_spots=?, available_spots=LEAST(available_spots, ?),
		 hourly_rate=?, daily_rate=?, monthly_rate=?, is_active=?
		 WHERE id=?`,
		p.Name, p.Description, p.Street, p.City, p.Latitude, p.Longitude,
		p.TotalSpots, p.TotalSpots,
		p.HourlyRate, p.DailyRate, p.MonthlyRate, p.IsActive, p.ID)
	return err
}

// Delete removes a lot unless bookings in a non-terminal status still
// reference it.
func (r *ParkingRepo) Delete(ctx context.Context, lotID, ownerID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var actualOwner uint64
	err = tx.QueryRowContext(ctx,
		"SELECT owner_id FROM parking_lots WHERE id=? FOR UPDATE", lotID).Scan(&actualOwner)
	if err != nil {
		return err
	}
	if actualOwner != ownerID {
		return ErrForbidden
	}
	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE parking_lot_id=? AND status IN ('pending','confirmed','active')`,
		lotID).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM parking_lots WHERE id=?", lotID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AdjustAvailabilityTx applies delta to the lot's available spots as
// one conditional update:
//
//	available_spots = LEAST(total_spots, GREATEST(0, available_spots + delta))
//
// The clamp lives in the statement itself, so the read-modify-write
// is atomic and the counter can never leave [0, total_spots] even
// when callers double-count.  Clamping rather than rejecting is the
// documented policy: an out-of-range delta is absorbed silently.  It
// returns the new available count.
func (r *ParkingRepo) AdjustAvailabilityTx(ctx context.Context, tx *sql.Tx, lotID uint64, delta int32) (uint32, error) {
	_, err := tx.ExecContext(ctx,
		`UPDATE parking_lots
		 SET available_spots = LEAST(total_spots, GREATEST(0, CAST(available_spots AS SIGNED) + ?))
		 WHERE id = ?`,
		delta, lotID)
	if err != nil {
		return 0, err
	}
	var available uint32
	err = tx.QueryRowContext(ctx,
		"SELECT available_spots FROM parking_lots WHERE id=?", lotID).Scan(&available)
	return available, err
}

func (r *ParkingRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.ParkingLot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ParkingLot, 0)
	for rows.Next() {
		p, err := scanParking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type parkingScanner interface {
	Scan(dest ...interface{}) error
}

func scanParking(s parkingScanner) (model.ParkingLot, error) {
	var (
		p           model.ParkingLot
		description sql.NullString
		daily       sql.NullFloat64
		monthly     sql.NullFloat64
	)
	err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &description, &p.Street, &p.City,
		&p.Latitude, &p.Longitude, &p.TotalSpots, &p.AvailableSpots,
		&p.HourlyRate, &daily, &monthly, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.ParkingLot{}, err
	}
	if description.Valid {
		d := description.String
		p.Description = &d
	}
	if daily.Valid {
		d := daily.Float64
		p.DailyRate = &d
	}
	if monthly.Valid {
		m := monthly.Float64
		p.MonthlyRate = &m
	}
	return p, nil
}
