// Package registry owns the vehicle fleet and the per-vehicle locks
// that serialize reservation against release.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/veloway/rentd/core/model"
)

// ErrNotFound is returned when a vehicle id is unknown to the registry.
var ErrNotFound = errors.New("vehicle not found")

type entry struct {
	mu sync.Mutex
	v  model.Vehicle
}

// Registry holds the fleet. The fleet is static for the lifetime of the
// process: vehicles are added at seed time and never removed.
//
// Locking is two-level. The registry mutex guards only the id maps and
// is held briefly for lookups; each vehicle carries its own mutex,
// acquired via WithExclusive, which is the sole serialization point for
// mutating that vehicle. Operations on different vehicles never block
// each other.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*entry
	order []string
}

// New seeds a registry with the given fleet. Every vehicle starts
// available with last-seen set to now unless the seed says otherwise.
func New(seed []model.Vehicle, now time.Time) (*Registry, error) {
	r := &Registry{items: make(map[string]*entry, len(seed))}
	for _, v := range seed {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.items[v.ID]; dup {
			return nil, fmt.Errorf("duplicate vehicle id %q", v.ID)
		}
		v.Available = true
		if v.LastSeenAt.IsZero() {
			v.LastSeenAt = now
		}
		r.items[v.ID] = &entry{v: v}
		r.order = append(r.order, v.ID)
	}
	return r, nil
}

// Get returns a consistent copy of the vehicle.
func (r *Registry) Get(id string) (model.Vehicle, bool) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return model.Vehicle{}, false
	}
	e.mu.Lock()
	v := e.v
	e.mu.Unlock()
	return v, true
}

// List returns a snapshot of the fleet in insertion order.
func (r *Registry) List() []model.Vehicle {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.items[id])
	}
	r.mu.RUnlock()

	out := make([]model.Vehicle, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.v)
		e.mu.Unlock()
	}
	return out
}

// Len returns the fleet size.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Handle gives mutable access to one vehicle. It is only valid inside
// the WithExclusive callback that produced it.
type Handle struct {
	e *entry
}

// Vehicle returns the current state of the locked vehicle.
func (h Handle) Vehicle() model.Vehicle { return h.e.v }

// SetAvailability flips the availability flag.
func (h Handle) SetAvailability(ok bool) { h.e.v.Available = ok }

// UpdatePosition moves the vehicle.
func (h Handle) UpdatePosition(lat, lng float64) {
	h.e.v.Lat = lat
	h.e.v.Lng = lng
}

// TouchLastSeen records when the vehicle was last observed.
func (h Handle) TouchLastSeen(now time.Time) { h.e.v.LastSeenAt = now }

// WithExclusive runs fn while holding the vehicle's lock. The lock is
// released on every exit path, including when fn fails. This is the
// only way to mutate a vehicle, which makes check-then-reserve atomic
// per vehicle.
func (r *Registry) WithExclusive(id string, fn func(Handle) error) error {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(Handle{e: e})
}

// MarkAllAvailable resets every vehicle to available with last-seen set
// to now. Used by the bulk reset operation.
func (r *Registry) MarkAllAvailable(now time.Time) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.items[id])
	}
	r.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		e.v.Available = true
		e.v.LastSeenAt = now
		e.mu.Unlock()
	}
}
