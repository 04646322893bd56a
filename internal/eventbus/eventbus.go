// Package eventbus provides a small fan-out bus used to move rental
// lifecycle events from the core to observability consumers without
// doing I/O inside the core's critical sections.
package eventbus

import (
	"sync"

	"github.com/veloway/rentd/core/metrics"
)

// Bus fans rental events out to subscribers. Delivery is non-blocking:
// a slow subscriber drops events rather than stalling a publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan metrics.RentalEvent
	closed bool
}

// New creates an empty bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all current subscribers.
func (b *Bus) Publish(ev metrics.RentalEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel. The channel
// is closed when the bus is closed or the subscriber unsubscribes.
func (b *Bus) Subscribe() <-chan metrics.RentalEvent {
	ch := make(chan metrics.RentalEvent, 16)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan metrics.RentalEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
