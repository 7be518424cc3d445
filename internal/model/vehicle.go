package model

import "time"

// Vehicle describes a car registered by a user.  License plates are
// unique across the system.  A user may register multiple vehicles
// and mark one of them as the default used for new bookings.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – user who registered the vehicle.
//  LicensePlate – unique, upper-cased plate string.
//  Make         – manufacturer (e.g. Peugeot).
//  Model        – model name.
//  Color        – optional color description.
//  Year         – optional construction year.
//  IsDefault    – whether this is the owner's default vehicle.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Vehicle struct {
	ID           uint64    // vehicles.id
	OwnerID      uint64    // vehicles.owner_id
	LicensePlate string    // vehicles.license_plate
	Make         string    // vehicles.make
	Model        string    // vehicles.model
	Color        *string   // vehicles.color (nullable)
	Year         *uint32   // vehicles.year (nullable)
	IsDefault    bool      // vehicles.is_default
	CreatedAt    time.Time // vehicles.created_at
	UpdatedAt    time.Time // vehicles.updated_at
}
