// Package pricing holds the static per-vehicle-type cost parameters and
// the cost function applied at settlement time.
package pricing

import (
	"time"

	"github.com/veloway/rentd/core/model"
)

// Rule holds the cost parameters for one vehicle type, in cents.
type Rule struct {
	UnlockCents    int64 `json:"unlock_cents"`
	PerMinuteCents int64 `json:"per_minute_cents"`
}

// Table maps vehicle types to their pricing rule. It is read-only after
// construction and safe for concurrent use.
type Table struct {
	rules    map[model.VehicleType]Rule
	fallback Rule
}

// NewTable builds a table from the given rules. Lookups for types
// missing from the map fall back to the standard bike rate.
func NewTable(rules map[model.VehicleType]Rule) *Table {
	cp := make(map[model.VehicleType]Rule, len(rules))
	for t, r := range rules {
		cp[t] = r
	}
	return &Table{rules: cp, fallback: Rule{UnlockCents: 0, PerMinuteCents: 50}}
}

// Default returns the built-in pricing: bikes and snow-bikes at
// 50¢/min, e-bikes and scooters at 100¢/min, no unlock fee.
func Default() *Table {
	return NewTable(map[model.VehicleType]Rule{
		model.TypeBike:     {UnlockCents: 0, PerMinuteCents: 50},
		model.TypeSnowBike: {UnlockCents: 0, PerMinuteCents: 50},
		model.TypeEBike:    {UnlockCents: 0, PerMinuteCents: 100},
		model.TypeScooter:  {UnlockCents: 0, PerMinuteCents: 100},
	})
}

// Rule returns the pricing rule for the given vehicle type.
func (t *Table) Rule(vt model.VehicleType) Rule {
	if r, ok := t.rules[vt]; ok {
		return r
	}
	return t.fallback
}

// Cost computes the settled cost in cents for a ride between start and
// end. Whole elapsed seconds are rounded up to the next full minute,
// with a minimum of one billable minute. A negative elapsed duration
// (clock skew) is clamped to zero before rounding.
func Cost(r Rule, start, end time.Time) int64 {
	secs := int64(end.Sub(start) / time.Second)
	if secs < 0 {
		secs = 0
	}
	minutes := (secs + 59) / 60
	if minutes < 1 {
		minutes = 1
	}
	return r.UnlockCents + minutes*r.PerMinuteCents
}
