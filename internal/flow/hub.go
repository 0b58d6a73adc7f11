package flow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/oshokin/recall-lens/internal/logger"
)

// DefaultSubscriberBuffer is the per-subscriber event backlog.
const DefaultSubscriberBuffer = 64

// Hub fans events out to any number of subscribers.
// A subscriber that falls behind by more than its buffer loses events.
type Hub struct {
	// buffer is the channel capacity of new subscriptions.
	buffer int
	// subscribers maps subscription ids to their channels.
	subscribers map[string]chan Event
	// closed is set by Close.
	closed bool
	// mu protects subscribers and serializes sends against close.
	mu sync.Mutex
}

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	return &Hub{
		buffer:      buffer,
		subscribers: make(map[string]chan Event),
	}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel; it is safe to call more than once and after Close.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)

		return ch, func() {}
	}

	h.subscribers[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if _, ok := h.subscribers[id]; !ok {
			return
		}

		delete(h.subscribers, id)
		close(ch)
	}
}

// Close ends every subscription. Later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish implements Sink without blocking.
func (h *Hub) Publish(ctx context.Context, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			logger.WarnKV(ctx, "Dropping event for slow subscriber", "subscriber", id, "kind", event.Kind)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}
