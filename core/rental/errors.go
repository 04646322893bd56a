package rental

import "errors"

// Typed failures surfaced to the boundary layer. VehicleMissing is an
// internal inconsistency (a rental referencing a vehicle the registry
// no longer resolves) and is never expected in normal operation; the
// rest are client-caused.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrRentalNotFound      = errors.New("rental not found")
	ErrVehicleNotAvailable = errors.New("vehicle not available")
	ErrUserAlreadyRenting  = errors.New("user already has an active rental")
	ErrVehicleMissing      = errors.New("vehicle missing from registry")
)
