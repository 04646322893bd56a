package model

import (
	"fmt"
	"time"
)

// VehicleType identifies the pricing category of a vehicle.
type VehicleType string

const (
	TypeBike     VehicleType = "bike"
	TypeSnowBike VehicleType = "snow-bike"
	TypeEBike    VehicleType = "e-bike"
	TypeScooter  VehicleType = "scooter"
)

// Valid reports whether the type is one of the known categories.
func (t VehicleType) Valid() bool {
	switch t {
	case TypeBike, TypeSnowBike, TypeEBike, TypeScooter:
		return true
	}
	return false
}

// Vehicle represents one rentable unit of the fleet.
//
// Vehicles are created at seed time and never destroyed. The mutable
// fields (position, availability, last-seen) may only change while the
// registry's lock for this vehicle is held.
type Vehicle struct {
	ID         string
	Type       VehicleType
	Lat        float64
	Lng        float64
	Available  bool
	LastSeenAt time.Time
}

// Validate checks that the vehicle seed data is sound.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if !v.Type.Valid() {
		return fmt.Errorf("unknown vehicle type %q", v.Type)
	}
	return nil
}
