// Package app wires the rental service together from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/veloway/rentd/api"
	"github.com/veloway/rentd/config"
	"github.com/veloway/rentd/core/clock"
	"github.com/veloway/rentd/core/ledger"
	coremetrics "github.com/veloway/rentd/core/metrics"
	"github.com/veloway/rentd/core/model"
	coremon "github.com/veloway/rentd/core/monitoring"
	"github.com/veloway/rentd/core/registry"
	"github.com/veloway/rentd/core/rental"
	"github.com/veloway/rentd/infra/logger"
	"github.com/veloway/rentd/infra/metrics"
	"github.com/veloway/rentd/infra/monitoring"
	"github.com/veloway/rentd/infra/mqtt"
	"github.com/veloway/rentd/internal/eventbus"
)

// Service owns the assembled components and their lifecycle.
type Service struct {
	Manager *rental.Manager

	apiSrv    *api.Server
	bus       *eventbus.Bus
	sink      coremetrics.Sink
	telemetry *mqtt.Subscriber
	log       logger.Logger

	promEnabled bool
	promAddr    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	monitor, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	coremon.Init(monitor)

	clk := clock.System()
	now := clk.Now()

	seed := make([]model.Vehicle, 0, len(cfg.Fleet))
	for _, f := range cfg.Fleet {
		seed = append(seed, f.Vehicle())
	}
	reg, err := registry.New(seed, now)
	if err != nil {
		return nil, fmt.Errorf("seed fleet: %w", err)
	}
	led := ledger.New()

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	maxRide := time.Duration(cfg.Rentals.MaxRideMinutes) * time.Minute
	mgr, err := rental.NewManager(reg, led, cfg.Pricing.Table(), clk, maxRide, logger.New("rental"), bus)
	if err != nil {
		return nil, fmt.Errorf("rental manager: %w", err)
	}

	svc := &Service{
		Manager:     mgr,
		bus:         bus,
		sink:        sink,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promAddr:    cfg.Metrics.PrometheusAddr,
	}

	if cfg.Telemetry.Enabled {
		sub, err := mqtt.NewSubscriber(cfg.Telemetry, reg, clk)
		if err != nil {
			return nil, fmt.Errorf("telemetry subscriber: %w", err)
		}
		svc.telemetry = sub
	}

	svc.apiSrv = api.NewServer(cfg.Server.Addr, cfg.Server.StaticDir, cfg.Server.MapsKey, mgr)

	if r, ok := sink.(coremetrics.FleetSizeRecorder); ok {
		if err := r.RecordFleetSize(reg.Len()); err != nil {
			logg.Warnf("record fleet size: %v", err)
		}
	}
	return svc, nil
}

// Run starts the HTTP listeners and the event collector, then blocks
// until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.apiSrv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.apiSrv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.telemetry != nil {
		s.telemetry.Close()
	}
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return nil
}
