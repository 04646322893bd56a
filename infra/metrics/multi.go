package metrics

import (
	"errors"

	coremetrics "github.com/veloway/rentd/core/metrics"
)

// MultiSink fans every event out to all configured sinks.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordRental forwards the event to every sink, collecting errors.
func (m *MultiSink) RecordRental(ev coremetrics.RentalEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordRental(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordFleetSize forwards to every sink that records fleet size.
func (m *MultiSink) RecordFleetSize(size int) error {
	var errs []error
	for _, s := range m.sinks {
		if r, ok := s.(coremetrics.FleetSizeRecorder); ok {
			if err := r.RecordFleetSize(size); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
