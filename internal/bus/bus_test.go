package bus

import (
	"testing"
	"time"
)

func TestPublishReachesMatchingSubscriber(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("listing.", 4)
	defer unsub()

	b.Publish(Event{Kind: "listing.loaded", Payload: "jobs"})

	select {
	case evt := <-ch:
		if evt.Kind != "listing.loaded" {
			t.Errorf("kind = %q, want listing.loaded", evt.Kind)
		}
		if evt.ID == "" {
			t.Error("event ID not stamped")
		}
		if evt.Timestamp.IsZero() {
			t.Error("event timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPublishSkipsNonMatchingNamespace(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 4)
	defer unsub()

	b.Publish(Event{Kind: "listing.loaded"})

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %q", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 4)
	unsub()

	b.Publish(Event{Kind: "chat.messages_replaced"})

	evt, ok := <-ch
	if ok {
		t.Fatalf("unexpected event %q after unsubscribe", evt.Kind)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("listing.", 4)

	done := make(chan int)
	go func() {
		n := 0
		for range ch {
			n++
		}
		done <- n
	}()

	b.Publish(Event{Kind: "listing.loaded"})
	unsub()

	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("drained %d events, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatal("range over subscription did not terminate after unsubscribe")
	}

	// Second unsubscribe and later publishes are no-ops.
	unsub()
	b.Publish(Event{Kind: "listing.loaded"})
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe("", 1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		// Second publish would block forever if delivery were not
		// best-effort.
		b.Publish(Event{Kind: "chat.poll_tick"})
		b.Publish(Event{Kind: "chat.poll_tick"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber")
	}
}
