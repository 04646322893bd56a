package registry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/veloway/rentd/core/model"
)

var seedTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func testFleet() []model.Vehicle {
	return []model.Vehicle{
		{ID: "b1", Type: model.TypeBike, Lat: 43.81, Lng: -111.79},
		{ID: "b2", Type: model.TypeEBike, Lat: 43.82, Lng: -111.78},
		{ID: "b3", Type: model.TypeScooter, Lat: 43.82, Lng: -111.79},
	}
}

func TestNewSeedsAvailableFleet(t *testing.T) {
	r, err := New(testFleet(), seedTime)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("len = %d, want 3", r.Len())
	}
	v, ok := r.Get("b2")
	if !ok {
		t.Fatal("b2 missing")
	}
	if !v.Available {
		t.Error("seeded vehicle should be available")
	}
	if !v.LastSeenAt.Equal(seedTime) {
		t.Errorf("last seen = %v, want %v", v.LastSeenAt, seedTime)
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	fleet := testFleet()
	fleet = append(fleet, model.Vehicle{ID: "b1", Type: model.TypeBike})
	if _, err := New(fleet, seedTime); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestNewRejectsInvalidVehicle(t *testing.T) {
	if _, err := New([]model.Vehicle{{ID: "", Type: model.TypeBike}}, seedTime); err == nil {
		t.Fatal("expected validation error for empty id")
	}
	if _, err := New([]model.Vehicle{{ID: "x", Type: "hoverboard"}}, seedTime); err == nil {
		t.Fatal("expected validation error for unknown type")
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	r, err := New(testFleet(), seedTime)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got := r.List()
	want := []string{"b1", "b2", "b3"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("list[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestWithExclusiveUnknownID(t *testing.T) {
	r, _ := New(testFleet(), seedTime)
	err := r.WithExclusive("nope", func(Handle) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWithExclusiveMutations(t *testing.T) {
	r, _ := New(testFleet(), seedTime)
	later := seedTime.Add(5 * time.Minute)
	err := r.WithExclusive("b1", func(h Handle) error {
		h.SetAvailability(false)
		h.UpdatePosition(44.0, -112.0)
		h.TouchLastSeen(later)
		return nil
	})
	if err != nil {
		t.Fatalf("with exclusive: %v", err)
	}
	v, _ := r.Get("b1")
	if v.Available {
		t.Error("availability not flipped")
	}
	if v.Lat != 44.0 || v.Lng != -112.0 {
		t.Errorf("position = %v,%v", v.Lat, v.Lng)
	}
	if !v.LastSeenAt.Equal(later) {
		t.Errorf("last seen = %v, want %v", v.LastSeenAt, later)
	}
}

// Only one of many concurrent claimants may flip an available vehicle
// to unavailable.
func TestWithExclusiveSerializesClaims(t *testing.T) {
	r, _ := New(testFleet(), seedTime)
	const claimants = 50
	var wg sync.WaitGroup
	var won int32
	var mu sync.Mutex
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.WithExclusive("b1", func(h Handle) error {
				if !h.Vehicle().Available {
					return errors.New("taken")
				}
				h.SetAvailability(false)
				mu.Lock()
				won++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if won != 1 {
		t.Fatalf("%d claimants won, want exactly 1", won)
	}
}

func TestMarkAllAvailable(t *testing.T) {
	r, _ := New(testFleet(), seedTime)
	for _, id := range []string{"b1", "b3"} {
		_ = r.WithExclusive(id, func(h Handle) error {
			h.SetAvailability(false)
			return nil
		})
	}
	resetAt := seedTime.Add(time.Hour)
	r.MarkAllAvailable(resetAt)
	for _, v := range r.List() {
		if !v.Available {
			t.Errorf("%s still unavailable after reset", v.ID)
		}
		if !v.LastSeenAt.Equal(resetAt) {
			t.Errorf("%s last seen = %v, want %v", v.ID, v.LastSeenAt, resetAt)
		}
	}
}
