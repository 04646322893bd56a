package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	coremetrics "github.com/veloway/rentd/core/metrics"
	"github.com/veloway/rentd/internal/eventbus"
)

type captureSink struct {
	mu     sync.Mutex
	events []coremetrics.RentalEvent
}

func (c *captureSink) RecordRental(ev coremetrics.RentalEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureSink) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestCollectorForwardsEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartEventCollector(ctx, bus, sink)

	bus.Publish(coremetrics.RentalEvent{Kind: coremetrics.KindStarted, RentalID: "r1"})
	bus.Publish(coremetrics.RentalEvent{Kind: coremetrics.KindEnded, RentalID: "r1"})

	deadline := time.After(2 * time.Second)
	for sink.len() < 2 {
		select {
		case <-deadline:
			t.Fatalf("collector forwarded %d events, want 2", sink.len())
		case <-time.After(10 * time.Millisecond):
		}
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.events[0].Kind != coremetrics.KindStarted || sink.events[1].Kind != coremetrics.KindEnded {
		t.Fatalf("unexpected order: %+v", sink.events)
	}
}

func TestCollectorStopsOnBusClose(t *testing.T) {
	bus := eventbus.New()
	sink := &captureSink{}
	StartEventCollector(context.Background(), bus, sink)
	bus.Close()
	// nothing to assert beyond not deadlocking; give the goroutine a tick
	time.Sleep(20 * time.Millisecond)
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordRental(coremetrics.RentalEvent{Kind: coremetrics.KindStarted}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if a.len() != 1 || b.len() != 1 {
		t.Fatalf("fan-out reached %d and %d sinks", a.len(), b.len())
	}
	// captureSink does not record fleet size; must not error
	if err := m.RecordFleetSize(6); err != nil {
		t.Fatalf("fleet size: %v", err)
	}
}
