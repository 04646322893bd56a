// Package metrics implements the observability sinks the rental core
// emits into: Prometheus for scraping, InfluxDB for event history, and
// a fan-out for running both.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/veloway/rentd/core/metrics"
)

// PromSink records rental lifecycle events as Prometheus metrics.
type PromSink struct {
	started  *prometheus.CounterVec
	ended    *prometheus.CounterVec
	active   prometheus.Gauge
	duration *prometheus.HistogramVec
	cost     *prometheus.HistogramVec
	fleet    prometheus.Gauge
}

// NewPromSink registers rental metrics on the default registerer. The
// Prometheus HTTP server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	started := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_started_total",
		Help: "Total number of rentals started",
	}, []string{"vehicle_type"})
	ended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_ended_total",
		Help: "Total number of rentals settled",
	}, []string{"vehicle_type", "expired"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rentals_active",
		Help: "Number of currently active rentals",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_duration_seconds",
		Help:    "Duration of settled rentals",
		Buckets: prometheus.ExponentialBuckets(60, 2, 10),
	}, []string{"vehicle_type"})
	cost := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rental_cost_cents",
		Help:    "Settled rental cost in cents",
		Buckets: prometheus.ExponentialBuckets(50, 2, 10),
	}, []string{"vehicle_type"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_vehicles_total",
		Help: "Number of vehicles in the seeded fleet",
	})

	s := &PromSink{started: started, ended: ended, active: active, duration: duration, cost: cost, fleet: fleet}
	for _, c := range []prometheus.Collector{started, ended, active, duration, cost, fleet} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordRental updates the counters, gauge and histograms for one
// lifecycle event.
func (s *PromSink) RecordRental(ev coremetrics.RentalEvent) error {
	vt := string(ev.VehicleType)
	switch ev.Kind {
	case coremetrics.KindStarted:
		s.started.WithLabelValues(vt).Inc()
		s.active.Inc()
	case coremetrics.KindEnded, coremetrics.KindExpired:
		expired := "false"
		if ev.Kind == coremetrics.KindExpired {
			expired = "true"
		}
		s.ended.WithLabelValues(vt, expired).Inc()
		s.active.Dec()
		s.duration.WithLabelValues(vt).Observe(ev.Duration.Seconds())
		s.cost.WithLabelValues(vt).Observe(float64(ev.CostCents))
	}
	return nil
}

// RecordFleetSize sets the fleet size gauge.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}
