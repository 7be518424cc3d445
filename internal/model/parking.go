package model

import "time"

// ParkingLot represents a parking facility with a fixed spot
// capacity.  Availability is a bounded counter: available spots
// always stay within [0, TotalSpots] and are mutated exclusively
// through ParkingRepo.AdjustAvailabilityTx, never written directly
// by handlers.
//
// Fields:
//  ID             – primary key identifier.
//  OwnerID        – user ID of the lot owner.
//  Name           – display name of the lot.
//  Description    – optional free-text description.
//  Street         – street part of the address.
//  City           – city part of the address.
//  Latitude       – WGS84 latitude of the entrance.
//  Longitude      – WGS84 longitude of the entrance.
//  TotalSpots     – fixed capacity, at least 1.
//  AvailableSpots – free spots right now, within [0, TotalSpots].
//  HourlyRate     – price per hour, ≥ 0.
//  DailyRate      – price per day (nil if not offered).
//  MonthlyRate    – price per month (nil if not offered).
//  IsActive       – whether the lot accepts bookings.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type ParkingLot struct {
	ID             uint64    // parking_lots.id
	OwnerID        uint64    // parking_lots.owner_id
	Name           string    // parking_lots.name
	Description    *string   // parking_lots.description (nullable)
	Street         string    // parking_lots.street
	City           string    // parking_lots.city
	Latitude       float64   // parking_lots.latitude
	Longitude      float64   // parking_lots.longitude
	TotalSpots     uint32    // parking_lots.total_spots
	AvailableSpots uint32    // parking_lots.available_spots
	HourlyRate     float64   // parking_lots.hourly_rate
	DailyRate      *float64  // parking_lots.daily_rate (nullable)
	MonthlyRate    *float64  // parking_lots.monthly_rate (nullable)
	IsActive       bool      // parking_lots.is_active
	CreatedAt      time.Time // parking_lots.created_at
	UpdatedAt      time.Time // parking_lots.updated_at
}

// HasFreeSpot reports whether the lot can currently accept a new
// check-in.  Inactive lots never accept check-ins.
func (p *ParkingLot) HasFreeSpot() bool {
	return p.IsActive && p.AvailableSpots > 0
}
