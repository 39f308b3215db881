// Package hub broadcasts session lifecycle transitions to in-process and
// WebSocket subscribers. Delivery is best effort: a stalled subscriber loses
// events rather than blocking the registry.
package hub

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tupanlabs/zapgate/internal/session"
)

// subscriberBuffer absorbs short bursts per subscriber.
const subscriberBuffer = 32

// Hub fans lifecycle events out to subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan session.StateChange
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[string]chan session.StateChange)}
}

// Publish broadcasts a state change to all subscribers without blocking.
func (h *Hub) Publish(change session.StateChange) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- change:
		default:
			// Subscriber stalled; drop rather than block the registry.
		}
	}
}

// Subscribe registers a new subscriber and returns its ID and event channel.
func (h *Hub) Subscribe() (string, <-chan session.StateChange) {
	id := uuid.NewString()
	ch := make(chan session.StateChange, subscriberBuffer)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}
