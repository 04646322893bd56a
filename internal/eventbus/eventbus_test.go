package eventbus

import (
	"testing"
	"time"

	"github.com/veloway/rentd/core/metrics"
)

func TestPublishFansOut(t *testing.T) {
	b := New()
	defer b.Close()
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(metrics.RentalEvent{Kind: metrics.KindStarted, RentalID: "r1"})

	for _, ch := range []<-chan metrics.RentalEvent{a, c} {
		select {
		case ev := <-ch:
			if ev.RentalID != "r1" {
				t.Fatalf("got %q", ev.RentalID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	defer b.Close()
	ch := b.Subscribe()

	done := make(chan struct{})
	go func() {
		// Overflow the subscriber buffer; Publish must never block.
		for i := 0; i < 100; i++ {
			b.Publish(metrics.RentalEvent{Kind: metrics.KindStarted})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	if got := len(ch); got > 16 {
		t.Fatalf("buffered %d events, cap is 16", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	defer b.Close()
	ch := b.Subscribe()
	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	// publishing after unsubscribe must not panic
	b.Publish(metrics.RentalEvent{})
}

func TestCloseIsTerminal(t *testing.T) {
	b := New()
	ch := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after close")
	}
	b.Publish(metrics.RentalEvent{}) // no-op, no panic
	if _, ok := <-b.Subscribe(); ok {
		t.Fatal("subscribe after close must return a closed channel")
	}
	b.Close() // idempotent
}
