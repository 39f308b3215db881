package hub

import (
	"testing"
	"time"

	"github.com/tupanlabs/zapgate/internal/session"
)

func TestPublishSubscribe(t *testing.T) {
	h := New()
	id, events := h.Subscribe()
	defer h.Unsubscribe(id)

	h.Publish(session.StateChange{Session: "a", State: "open"})

	select {
	case got := <-events:
		if got.Session != "a" || got.State != "open" {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestPublish_NoSubscribersDoesNotBlock(t *testing.T) {
	h := New()
	done := make(chan struct{})
	go func() {
		h.Publish(session.StateChange{Session: "a", State: "open"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}

func TestPublish_StalledSubscriberDropsEvents(t *testing.T) {
	h := New()
	id, _ := h.Subscribe()
	defer h.Unsubscribe(id)

	// Overfill the subscriber buffer; publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish(session.StateChange{Session: "a", State: "open"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	h := New()
	id, events := h.Subscribe()
	h.Unsubscribe(id)

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	// Double unsubscribe is a no-op.
	h.Unsubscribe(id)
}
