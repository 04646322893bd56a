package rental

import (
	"time"

	"github.com/veloway/rentd/core/model"
	"github.com/veloway/rentd/core/pricing"
)

// Snapshot is the read-only projection of a rental returned to callers.
// For an active rental EstimateCents is the cost as if it ended now and
// CostCents stays nil; for a settled rental both carry the final cost.
type Snapshot struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	VehicleID       string            `json:"vehicle_id"`
	VehicleType     model.VehicleType `json:"vehicle_type"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         *time.Time        `json:"ended_at"`
	DurationSeconds int64             `json:"duration_seconds"`
	CostCents       *int64            `json:"cost_cents"`
	EstimateCents   int64             `json:"current_cost_estimate_cents"`
	PerMinuteCents  int64             `json:"per_minute_cents"`
	UnlockCents     int64             `json:"unlock_cents"`
}

// VehicleSnapshot is the fleet view exposed to callers, including the
// pricing fields for the vehicle's type and the renter, if any.
type VehicleSnapshot struct {
	ID              string            `json:"id"`
	Type            model.VehicleType `json:"vehicle_type"`
	Lat             float64           `json:"lat"`
	Lng             float64           `json:"lng"`
	Available       bool              `json:"is_available"`
	LastSeenAt      time.Time         `json:"last_seen_at"`
	RentedByUserID  *string           `json:"rented_by_user_id"`
	CurrentRentalID *string           `json:"current_rental_id"`
	PerMinuteCents  int64             `json:"per_minute_cents"`
	UnlockCents     int64             `json:"unlock_cents"`
}

func (m *Manager) snapshot(rec model.Rental, vt model.VehicleType, now time.Time) Snapshot {
	rule := m.prices.Rule(vt)
	end := now
	if rec.EndedAt != nil {
		end = *rec.EndedAt
	}
	dur := int64(end.Sub(rec.StartedAt) / time.Second)
	if dur < 0 {
		dur = 0
	}
	estimate := pricing.Cost(rule, rec.StartedAt, now)
	if rec.CostCents != nil {
		estimate = *rec.CostCents
	}
	return Snapshot{
		ID:              rec.ID,
		UserID:          rec.UserID,
		VehicleID:       rec.VehicleID,
		VehicleType:     vt,
		StartedAt:       rec.StartedAt,
		EndedAt:         rec.EndedAt,
		DurationSeconds: dur,
		CostCents:       rec.CostCents,
		EstimateCents:   estimate,
		PerMinuteCents:  rule.PerMinuteCents,
		UnlockCents:     rule.UnlockCents,
	}
}

// vehicleType resolves the type of the rental's vehicle, falling back
// to the standard bike category when the registry no longer knows it.
func (m *Manager) vehicleType(vehicleID string) model.VehicleType {
	if v, ok := m.reg.Get(vehicleID); ok {
		return v.Type
	}
	return model.TypeBike
}
