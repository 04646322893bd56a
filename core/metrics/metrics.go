// Package metrics defines the observability interfaces the rental core
// emits into. Implementations live in infra/metrics.
package metrics

import (
	"time"

	"github.com/veloway/rentd/core/model"
)

// EventKind classifies a rental lifecycle transition.
type EventKind string

const (
	KindStarted EventKind = "started"
	KindEnded   EventKind = "ended"
	KindExpired EventKind = "expired"
)

// RentalEvent captures one lifecycle transition for observability
// sinks. Events are emitted outside any lock.
type RentalEvent struct {
	Kind        EventKind
	RentalID    string
	UserID      string
	VehicleID   string
	VehicleType model.VehicleType
	// CostCents is the settled cost; zero while the rental is active.
	CostCents int64
	Duration  time.Duration
	Time      time.Time
}

// Sink records rental lifecycle events.
type Sink interface {
	RecordRental(ev RentalEvent) error
}

// FleetSizeRecorder records the size of the seeded fleet.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordRental(RentalEvent) error { return nil }
func (NopSink) RecordFleetSize(int) error      { return nil }
