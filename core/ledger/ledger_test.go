package ledger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCreateAndGet(t *testing.T) {
	l := New()
	rec, err := l.Create("u1", "b1", t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", rec.ID, err)
	}
	if !rec.Active() {
		t.Error("fresh record should be active")
	}
	got, ok := l.Get(rec.ID)
	if !ok {
		t.Fatal("record missing")
	}
	if got.UserID != "u1" || got.VehicleID != "b1" || !got.StartedAt.Equal(t0) {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestCreateRejectsBusyUserAndVehicle(t *testing.T) {
	l := New()
	if _, err := l.Create("u1", "b1", t0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := l.Create("u1", "b2", t0); !errors.Is(err, ErrUserBusy) {
		t.Fatalf("err = %v, want ErrUserBusy", err)
	}
	if _, err := l.Create("u2", "b1", t0); !errors.Is(err, ErrVehicleBusy) {
		t.Fatalf("err = %v, want ErrVehicleBusy", err)
	}
}

func TestSettleClearsIndices(t *testing.T) {
	l := New()
	rec, _ := l.Create("u1", "b1", t0)
	end := t0.Add(2 * time.Minute)
	settled, err := l.Settle(rec.ID, end, 100)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.EndedAt == nil || !settled.EndedAt.Equal(end) {
		t.Errorf("ended at = %v, want %v", settled.EndedAt, end)
	}
	if settled.CostCents == nil || *settled.CostCents != 100 {
		t.Errorf("cost = %v, want 100", settled.CostCents)
	}
	if _, ok := l.FindActiveByUser("u1"); ok {
		t.Error("user index not cleared")
	}
	if _, ok := l.FindActiveByVehicle("b1"); ok {
		t.Error("vehicle index not cleared")
	}
	// user and vehicle are free again
	if _, err := l.Create("u1", "b1", end); err != nil {
		t.Fatalf("re-create after settle: %v", err)
	}
}

func TestSettleIsIdempotentAtTheStore(t *testing.T) {
	l := New()
	rec, _ := l.Create("u1", "b1", t0)
	first, err := l.Settle(rec.ID, t0.Add(time.Minute), 50)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	second, err := l.Settle(rec.ID, t0.Add(time.Hour), 9999)
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("err = %v, want ErrAlreadySettled", err)
	}
	if !second.EndedAt.Equal(*first.EndedAt) || *second.CostCents != *first.CostCents {
		t.Error("second settle must return the original settlement untouched")
	}
}

func TestSettleUnknownID(t *testing.T) {
	l := New()
	if _, err := l.Settle("nope", t0, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Two goroutines racing to start rentals for the same user: exactly one
// Create may win, whatever the interleaving.
func TestConcurrentCreateSameUser(t *testing.T) {
	for i := 0; i < 100; i++ {
		l := New()
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, vehicle := range []string{"b1", "b2"} {
			wg.Add(1)
			go func(slot int, vid string) {
				defer wg.Done()
				_, errs[slot] = l.Create("u1", vid, t0)
			}(j, vehicle)
		}
		wg.Wait()
		var ok, busy int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrUserBusy):
				busy++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 || busy != 1 {
			t.Fatalf("run %d: %d succeeded, %d rejected; want 1 and 1", i, ok, busy)
		}
	}
}

func TestListOrderAndClear(t *testing.T) {
	l := New()
	a, _ := l.Create("u1", "b1", t0)
	b, _ := l.Create("u2", "b2", t0.Add(time.Second))
	recs := l.List()
	if len(recs) != 2 || recs[0].ID != a.ID || recs[1].ID != b.ID {
		t.Fatalf("unexpected list: %+v", recs)
	}
	l.Clear()
	if len(l.List()) != 0 {
		t.Error("clear left records behind")
	}
	if _, ok := l.FindActiveByUser("u1"); ok {
		t.Error("clear left user index behind")
	}
}
