package clock

import (
	"testing"
	"time"
)

func TestSystemReturnsUTC(t *testing.T) {
	now := System().Now()
	if now.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", now.Location())
	}
}

func TestFakeAdvanceAndSet(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)
	if !f.Now().Equal(start) {
		t.Fatalf("now = %v, want %v", f.Now(), start)
	}
	f.Advance(90 * time.Second)
	if !f.Now().Equal(start.Add(90 * time.Second)) {
		t.Fatalf("now = %v after advance", f.Now())
	}
	pin := start.Add(time.Hour)
	f.Set(pin)
	if !f.Now().Equal(pin) {
		t.Fatalf("now = %v after set", f.Now())
	}
}
