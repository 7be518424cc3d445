package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/smart-parking-reservation/internal/model"
)

// VehicleRepo provides data access to the vehicles table.  Plates
// are stored upper-cased and unique across the whole system.
type VehicleRepo struct{ db *sql.DB }

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

var ErrPlateExists = errors.New("license plate already registered")

const vehicleColumns = `id,owner_id,license_plate,make,model,color,year,is_default,created_at,updated_at`

// Create inserts a vehicle for the owner.  A duplicate plate
// surfaces as ErrPlateExists (MySQL error 1062 on the unique index).
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	v.LicensePlate = strings.ToUpper(strings.TrimSpace(v.LicensePlate))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (owner_id, license_plate, make, model, color, year, is_default)
		 VALUES (?,?,?,?,?,?,?)`,
		v.OwnerID, v.LicensePlate, v.Make, v.Model, v.Color, v.Year, v.IsDefault)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrPlateExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByIDForOwner returns the vehicle when it exists and belongs to
// the owner.  A vehicle owned by someone else yields ErrForbidden so
// handlers can distinguish 403 from 404.
func (r *VehicleRepo) GetByIDForOwner(ctx context.Context, vehicleID, ownerID uint64) (model.Vehicle, error) {
	v, err := r.scanOne(ctx, "SELECT "+vehicleColumns+" FROM vehicles WHERE id=? LIMIT 1", vehicleID)
	if err != nil {
		return model.Vehicle{}, err
	}
	if v.OwnerID != ownerID {
		return model.Vehicle{}, ErrForbidden
	}
	return v, nil
}

// ListByOwner returns all vehicles registered by the owner, default
// vehicle first, then newest first.
func (r *VehicleRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE owner_id=? ORDER BY is_default DESC, created_at DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Update applies the mutable attributes.  Ownership must have been
// verified by the caller via GetByIDForOwner.
func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
	v.LicensePlate = strings.ToUpper(strings.TrimSpace(v.LicensePlate))
	_, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET license_plate=?, make=?, model=?, color=?, year=? WHERE id=?`,
		v.LicensePlate, v.Make, v.Model, v.Color, v.Year, v.ID)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return ErrPlateExists
	}
	return err
}

// SetDefault marks one vehicle as the owner's default and clears the
// flag on the rest in a single transaction.
func (r *VehicleRepo) SetDefault(ctx context.Context, vehicleID, ownerID uint64) error {
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
	if _, err := tx.ExecContext(ctx,
		"UPDATE vehicles SET is_default=0 WHERE owner_id=?", ownerID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE vehicles SET is_default=1 WHERE id=? AND owner_id=?", vehicleID, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a vehicle unless it is referenced by a booking that
// is not yet terminal.  The active-booking guard and the delete run
// in one transaction so a booking created in between cannot orphan.
func (r *VehicleRepo) Delete(ctx context.Context, vehicleID, ownerID uint64) error {
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
		"SELECT owner_id FROM vehicles WHERE id=? FOR UPDATE", vehicleID).Scan(&actualOwner)
	if err != nil {
		return err
	}
	if actualOwner != ownerID {
		return ErrForbidden
	}
	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE vehicle_id=? AND status IN ('pending','confirmed','active')`,
		vehicleID).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM vehicles WHERE id=?", vehicleID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type vehicleScanner interface {
	Scan(dest ...interface{}) error
}

func (r *VehicleRepo) scanOne(ctx context.Context, query string, args ...interface{}) (model.Vehicle, error) {
	return scanVehicle(r.db.QueryRowContext(ctx, query, args...))
}

func scanVehicle(s vehicleScanner) (model.Vehicle, error) {
	var (
		v     model.Vehicle
		color sql.NullString
		year  sql.NullInt64
	)
	err := s.Scan(&v.ID, &v.OwnerID, &v.LicensePlate, &v.Make, &v.Model,
		&color, &year, &v.IsDefault, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return model.Vehicle{}, err
	}
	if color.Valid {
		c := color.String
		v.Color = &c
	}
	if year.Valid {
		y := uint32(year.Int64)
		v.Year = &y
	}
	return v, nil
}
