package model

import "time"

// Rental records a single rental session of a vehicle by a user.
//
// A rental is active while EndedAt is nil. Settling sets EndedAt and
// CostCents exactly once; after that the record is immutable.
type Rental struct {
	ID        string
	UserID    string
	VehicleID string
	StartedAt time.Time
	EndedAt   *time.Time
	CostCents *int64
}

// Active reports whether the rental has not yet been settled.
func (r Rental) Active() bool { return r.EndedAt == nil }
