// Package rental implements the rental lifecycle state machine:
// starting, ending, lazy auto-expiry and bulk reset, with the
// concurrency guarantees that make each transition atomic.
package rental

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/veloway/rentd/core/clock"
	"github.com/veloway/rentd/core/ledger"
	"github.com/veloway/rentd/core/logger"
	"github.com/veloway/rentd/core/metrics"
	"github.com/veloway/rentd/core/model"
	"github.com/veloway/rentd/core/pricing"
	"github.com/veloway/rentd/core/registry"
	"github.com/veloway/rentd/internal/eventbus"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// Manager orchestrates the registry, ledger, pricing table and clock to
// implement the rental lifecycle. Every operation captures the clock
// once and reuses that instant for all derived values, and no I/O
// happens while a lock is held: lifecycle events go out on the bus
// after the critical sections complete.
type Manager struct {
	reg     *registry.Registry
	led     *ledger.Ledger
	prices  *pricing.Table
	clock   clock.Clock
	maxRide time.Duration
	log     logger.Logger
	bus     *eventbus.Bus
}

// NewManager wires a lifecycle manager. The bus and log may be nil.
func NewManager(reg *registry.Registry, led *ledger.Ledger, prices *pricing.Table, clk clock.Clock, maxRide time.Duration, log logger.Logger, bus *eventbus.Bus) (*Manager, error) {
	if reg == nil || led == nil || prices == nil {
		return nil, errors.New("registry, ledger and pricing table are required")
	}
	if clk == nil {
		clk = clock.System()
	}
	if log == nil {
		log = nopLogger{}
	}
	if maxRide <= 0 {
		maxRide = 240 * time.Minute
	}
	return &Manager{reg: reg, led: led, prices: prices, clock: clk, maxRide: maxRide, log: log, bus: bus}, nil
}

// Start opens a rental of vehicleID by userID. The availability check,
// the user-uniqueness check and the record creation all happen while
// the vehicle's exclusive lock is held, so two concurrent starts can
// never double-book a vehicle, and the ledger's own mutation lock keeps
// two concurrent starts for one user from both succeeding even against
// different vehicles.
func (m *Manager) Start(userID, vehicleID string) (Snapshot, error) {
	if userID == "" || vehicleID == "" {
		return Snapshot{}, fmt.Errorf("%w: user_id and vehicle_id are required", ErrInvalidArgument)
	}
	now := m.clock.Now()

	veh, ok := m.reg.Get(vehicleID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	// Advisory fast path; the authoritative check happens in
	// ledger.Create under its mutation lock.
	if _, busy := m.led.FindActiveByUser(userID); busy {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUserAlreadyRenting, userID)
	}

	var rec model.Rental
	err := m.reg.WithExclusive(vehicleID, func(h registry.Handle) error {
		if !h.Vehicle().Available {
			return fmt.Errorf("%w: %s", ErrVehicleNotAvailable, vehicleID)
		}
		created, err := m.led.Create(userID, vehicleID, now)
		switch {
		case errors.Is(err, ledger.ErrUserBusy):
			return fmt.Errorf("%w: %s", ErrUserAlreadyRenting, userID)
		case errors.Is(err, ledger.ErrVehicleBusy):
			return fmt.Errorf("%w: %s", ErrVehicleNotAvailable, vehicleID)
		case err != nil:
			return err
		}
		h.SetAvailability(false)
		h.TouchLastSeen(now)
		rec = created
		return nil
	})
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
		}
		return Snapshot{}, err
	}

	m.log.Infof("rental %s started: user=%s vehicle=%s", rec.ID, userID, vehicleID)
	m.publish(metrics.RentalEvent{
		Kind:        metrics.KindStarted,
		RentalID:    rec.ID,
		UserID:      userID,
		VehicleID:   vehicleID,
		VehicleType: veh.Type,
		Time:        now,
	})
	return m.snapshot(rec, veh.Type, now), nil
}

// End settles the rental. Repeat calls are not an error: once settled,
// the stored snapshot is returned unchanged. The optional dropoff
// coordinates are applied only when both are present and numerically
// valid; malformed coordinates are ignored rather than failing the
// settlement.
func (m *Manager) End(rentalID string, lat, lng *float64) (Snapshot, error) {
	now := m.clock.Now()
	rec, ok := m.led.Get(rentalID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrRentalNotFound, rentalID)
	}
	if !rec.Active() {
		return m.snapshot(rec, m.vehicleType(rec.VehicleID), now), nil
	}
	return m.settle(rec, now, lat, lng, metrics.KindEnded)
}

// Get returns the rental snapshot, applying the lazy auto-expire check
// first: a rental active longer than the configured maximum is settled
// at this read, with cost computed up to now.
func (m *Manager) Get(rentalID string) (Snapshot, error) {
	now := m.clock.Now()
	rec, ok := m.led.Get(rentalID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrRentalNotFound, rentalID)
	}
	if rec.Active() && now.Sub(rec.StartedAt) > m.maxRide {
		return m.settle(rec, now, nil, nil, metrics.KindExpired)
	}
	return m.snapshot(rec, m.vehicleType(rec.VehicleID), now), nil
}

// ActiveForUser returns the user's active rental, if any. The expiry
// check runs first, so an overlong rental is settled here and reported
// as absent.
func (m *Manager) ActiveForUser(userID string) (Snapshot, bool) {
	rec, ok := m.led.FindActiveByUser(userID)
	if !ok {
		return Snapshot{}, false
	}
	snap, err := m.Get(rec.ID)
	if err != nil {
		m.log.Errorf("active rental lookup for user %s: %v", userID, err)
		return Snapshot{}, false
	}
	if snap.EndedAt != nil {
		return Snapshot{}, false
	}
	return snap, true
}

// Vehicles returns the fleet snapshot in seed order, each vehicle
// annotated with its pricing fields and current renter.
func (m *Manager) Vehicles() []VehicleSnapshot {
	vehicles := m.reg.List()
	out := make([]VehicleSnapshot, 0, len(vehicles))
	for _, v := range vehicles {
		rule := m.prices.Rule(v.Type)
		snap := VehicleSnapshot{
			ID:             v.ID,
			Type:           v.Type,
			Lat:            v.Lat,
			Lng:            v.Lng,
			Available:      v.Available,
			LastSeenAt:     v.LastSeenAt,
			PerMinuteCents: rule.PerMinuteCents,
			UnlockCents:    rule.UnlockCents,
		}
		if rec, ok := m.led.FindActiveByVehicle(v.ID); ok {
			user := rec.UserID
			rid := rec.ID
			snap.RentedByUserID = &user
			snap.CurrentRentalID = &rid
		}
		out = append(out, snap)
	}
	return out
}

// Reset wipes the ledger and marks every vehicle available. Test and
// operational use only.
func (m *Manager) Reset() {
	now := m.clock.Now()
	m.led.Clear()
	m.reg.MarkAllAvailable(now)
	m.log.Warnf("state reset: ledger cleared, fleet marked available")
}

func (m *Manager) settle(rec model.Rental, now time.Time, lat, lng *float64, kind metrics.EventKind) (Snapshot, error) {
	veh, ok := m.reg.Get(rec.VehicleID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrVehicleMissing, rec.VehicleID)
	}
	cost := pricing.Cost(m.prices.Rule(veh.Type), rec.StartedAt, now)

	settled, err := m.led.Settle(rec.ID, now, cost)
	if errors.Is(err, ledger.ErrAlreadySettled) {
		// A concurrent End won the race; its outcome stands.
		return m.snapshot(settled, veh.Type, now), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrRentalNotFound, rec.ID)
	}

	err = m.reg.WithExclusive(rec.VehicleID, func(h registry.Handle) error {
		if validCoords(lat, lng) {
			h.UpdatePosition(*lat, *lng)
		}
		h.SetAvailability(true)
		h.TouchLastSeen(now)
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrVehicleMissing, rec.VehicleID)
	}

	m.log.Infof("rental %s %s: vehicle=%s cost_cents=%d", settled.ID, kind, settled.VehicleID, cost)
	m.publish(metrics.RentalEvent{
		Kind:        kind,
		RentalID:    settled.ID,
		UserID:      settled.UserID,
		VehicleID:   settled.VehicleID,
		VehicleType: veh.Type,
		CostCents:   cost,
		Duration:    now.Sub(settled.StartedAt),
		Time:        now,
	})
	return m.snapshot(settled, veh.Type, now), nil
}

func (m *Manager) publish(ev metrics.RentalEvent) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}

func validCoords(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return false
	}
	if math.IsNaN(*lat) || math.IsInf(*lat, 0) || math.IsNaN(*lng) || math.IsInf(*lng, 0) {
		return false
	}
	return *lat >= -90 && *lat <= 90 && *lng >= -180 && *lng <= 180
}
