package order

import (
	"sync"

	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
)

// EventType distinguishes hub events.
type EventType string

const (
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event is one push to a live subscriber: the fresh snapshot after a
// mutation, or a deletion marker.
type Event struct {
	Type    EventType
	OrderID string
	// Order is nil for deletions.
	Order *domain.Order
}

// Hub fans order changes out to live subscribers. Subscribers watch either a
// single order or the whole collection; delivery is best-effort and
// unordered, and a subscriber that stops draining its channel is skipped
// rather than blocking publishers.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	orderSubs map[string]map[int]chan Event
	collSubs  map[int]chan Event
}

const subscriberBuffer = 16

func NewHub() *Hub {
	return &Hub{
		orderSubs: make(map[string]map[int]chan Event),
		collSubs:  make(map[int]chan Event),
	}
}

// SubscribeOrder watches a single order. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (h *Hub) SubscribeOrder(orderID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	ch := make(chan Event, subscriberBuffer)
	if h.orderSubs[orderID] == nil {
		h.orderSubs[orderID] = make(map[int]chan Event)
	}
	h.orderSubs[orderID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.orderSubs[orderID]; ok {
			if c, ok := subs[id]; ok {
				delete(subs, id)
				close(c)
			}
			if len(subs) == 0 {
				delete(h.orderSubs, orderID)
			}
		}
	}

	return ch, cancel
}

// SubscribeAll watches every order change.
func (h *Hub) SubscribeAll() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID

	ch := make(chan Event, subscriberBuffer)
	h.collSubs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.collSubs[id]; ok {
			delete(h.collSubs, id)
			close(c)
		}
	}

	return ch, cancel
}

// Publish pushes the event to all matching subscribers without blocking.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.collSubs {
		send(ch, event)
	}
	for _, ch := range h.orderSubs[event.OrderID] {
		send(ch, event)
	}
}

func send(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		// subscriber is not draining; skip it
	}
}
