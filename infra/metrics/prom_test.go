package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/veloway/rentd/core/metrics"
	"github.com/veloway/rentd/core/model"
)

func newTestSink(t *testing.T) *PromSink {
	t.Helper()
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	return sink
}

func TestPromSinkCountsLifecycle(t *testing.T) {
	sink := newTestSink(t)

	ev := coremetrics.RentalEvent{
		Kind:        coremetrics.KindStarted,
		RentalID:    "r1",
		VehicleType: model.TypeBike,
	}
	if err := sink.RecordRental(ev); err != nil {
		t.Fatalf("record started: %v", err)
	}
	if got := testutil.ToFloat64(sink.started.WithLabelValues("bike")); got != 1 {
		t.Errorf("started = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.active); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}

	ev.Kind = coremetrics.KindEnded
	ev.CostCents = 100
	ev.Duration = 2 * time.Minute
	if err := sink.RecordRental(ev); err != nil {
		t.Fatalf("record ended: %v", err)
	}
	if got := testutil.ToFloat64(sink.ended.WithLabelValues("bike", "false")); got != 1 {
		t.Errorf("ended = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.active); got != 0 {
		t.Errorf("active = %v, want 0 after settle", got)
	}
}

func TestPromSinkExpiredLabel(t *testing.T) {
	sink := newTestSink(t)
	err := sink.RecordRental(coremetrics.RentalEvent{
		Kind:        coremetrics.KindExpired,
		VehicleType: model.TypeScooter,
		CostCents:   12050,
		Duration:    241 * time.Minute,
	})
	if err != nil {
		t.Fatalf("record expired: %v", err)
	}
	if got := testutil.ToFloat64(sink.ended.WithLabelValues("scooter", "true")); got != 1 {
		t.Errorf("expired ended = %v, want 1", got)
	}
}

func TestPromSinkFleetSize(t *testing.T) {
	sink := newTestSink(t)
	if err := sink.RecordFleetSize(6); err != nil {
		t.Fatalf("record fleet size: %v", err)
	}
	if got := testutil.ToFloat64(sink.fleet); got != 6 {
		t.Errorf("fleet = %v, want 6", got)
	}
}

func TestNewPromSinkWithRegistryTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration must tolerate existing collectors: %v", err)
	}
}
