// Package ledger is the consistent store of rental records. It keeps
// O(1) active-rental indices per vehicle and per user, updated in the
// same critical section as every mutation.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veloway/rentd/core/model"
)

var (
	// ErrNotFound is returned for unknown rental ids.
	ErrNotFound = errors.New("rental not found")
	// ErrAlreadySettled is returned when settling a settled record.
	ErrAlreadySettled = errors.New("rental already settled")
	// ErrUserBusy is returned when the user already holds an active rental.
	ErrUserBusy = errors.New("user already has an active rental")
	// ErrVehicleBusy is returned when the vehicle already has an active rental.
	ErrVehicleBusy = errors.New("vehicle already has an active rental")
)

// Ledger stores rental records. The single mutex keeps the record map
// and both active indices transactional: a concurrent reader never
// observes an index entry pointing at a settled record. Because Create
// checks the user index and inserts under the same lock, two concurrent
// starts for one user cannot both succeed, regardless of which vehicle
// locks they hold.
type Ledger struct {
	mu              sync.RWMutex
	records         map[string]*model.Rental
	order           []string
	activeByVehicle map[string]string
	activeByUser    map[string]string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		records:         make(map[string]*model.Rental),
		activeByVehicle: make(map[string]string),
		activeByUser:    make(map[string]string),
	}
}

// Create allocates a fresh rental id and stores an active record.
// It fails with ErrUserBusy or ErrVehicleBusy when an active record
// already exists for the user or the vehicle.
func (l *Ledger) Create(userID, vehicleID string, startedAt time.Time) (model.Rental, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.activeByUser[userID]; busy {
		return model.Rental{}, fmt.Errorf("%w: %s", ErrUserBusy, userID)
	}
	if _, busy := l.activeByVehicle[vehicleID]; busy {
		return model.Rental{}, fmt.Errorf("%w: %s", ErrVehicleBusy, vehicleID)
	}
	rec := &model.Rental{
		ID:        uuid.NewString(),
		UserID:    userID,
		VehicleID: vehicleID,
		StartedAt: startedAt,
	}
	l.records[rec.ID] = rec
	l.order = append(l.order, rec.ID)
	l.activeByUser[userID] = rec.ID
	l.activeByVehicle[vehicleID] = rec.ID
	return *rec, nil
}

// Get returns a copy of the record.
func (l *Ledger) Get(id string) (model.Rental, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[id]
	if !ok {
		return model.Rental{}, false
	}
	return *rec, true
}

// Settle sets the end timestamp and cost on an active record and drops
// it from both active indices in the same critical section.
func (l *Ledger) Settle(id string, endedAt time.Time, costCents int64) (model.Rental, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[id]
	if !ok {
		return model.Rental{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.EndedAt != nil {
		return *rec, ErrAlreadySettled
	}
	end := endedAt
	cost := costCents
	rec.EndedAt = &end
	rec.CostCents = &cost
	delete(l.activeByUser, rec.UserID)
	delete(l.activeByVehicle, rec.VehicleID)
	return *rec, nil
}

// FindActiveByVehicle returns the active rental for the vehicle, if any.
func (l *Ledger) FindActiveByVehicle(vehicleID string) (model.Rental, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.activeByVehicle[vehicleID]
	if !ok {
		return model.Rental{}, false
	}
	return *l.records[id], true
}

// FindActiveByUser returns the active rental for the user, if any.
func (l *Ledger) FindActiveByUser(userID string) (model.Rental, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.activeByUser[userID]
	if !ok {
		return model.Rental{}, false
	}
	return *l.records[id], true
}

// List returns all records in insertion order.
func (l *Ledger) List() []model.Rental {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Rental, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.records[id])
	}
	return out
}

// Clear removes every record. Test and debug use only.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make(map[string]*model.Rental)
	l.order = nil
	l.activeByUser = make(map[string]string)
	l.activeByVehicle = make(map[string]string)
}
