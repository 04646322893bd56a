package metrics

import (
	"context"

	coremetrics "github.com/veloway/rentd/core/metrics"
	"github.com/veloway/rentd/core/monitoring"
	"github.com/veloway/rentd/infra/logger"
	"github.com/veloway/rentd/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards rental
// lifecycle events to the sink. Recording happens on this goroutine, so
// sink I/O never runs inside the core's critical sections. It stops
// when the context is cancelled or the bus closes.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus, sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		log := logger.New("event-collector")
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordRental(ev); err != nil {
					log.Errorf("record rental event: %v", err)
					monitoring.CaptureException(err, map[string]string{
						"event":      string(ev.Kind),
						"vehicle_id": ev.VehicleID,
					})
				}
			}
		}
	}()
}
