package order

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_SubscribeOrder(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.SubscribeOrder("order-1")
	defer cancel()

	hub.Publish(Event{Type: EventUpdated, OrderID: "order-1"})
	hub.Publish(Event{Type: EventUpdated, OrderID: "order-2"})

	ev := <-events
	assert.Equal(t, "order-1", ev.OrderID)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event for %s", ev.OrderID)
	default:
	}
}

func TestHub_SubscribeAll_SeesEveryOrder(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.SubscribeAll()
	defer cancel()

	hub.Publish(Event{Type: EventUpdated, OrderID: "order-1"})
	hub.Publish(Event{Type: EventDeleted, OrderID: "order-2"})

	first := <-events
	second := <-events
	assert.Equal(t, EventUpdated, first.Type)
	assert.Equal(t, EventDeleted, second.Type)
	assert.Equal(t, "order-2", second.OrderID)
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.SubscribeOrder("order-1")
	cancel()

	_, open := <-events
	require.False(t, open)

	// publishing after cancel must not panic on the closed channel
	hub.Publish(Event{Type: EventUpdated, OrderID: "order-1"})

	// cancel is idempotent
	cancel()
}

func TestHub_SlowSubscriberIsSkipped(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.SubscribeOrder("order-1")
	defer cancel()

	// overflow the buffer; Publish must never block
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.Publish(Event{Type: EventUpdated, OrderID: "order-1"})
	}

	assert.Len(t, events, subscriberBuffer)
}

func TestHub_ConcurrentPublishAndCancel(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, cancel := hub.SubscribeOrder("order-1")
			defer cancel()
			for j := 0; j < 50; j++ {
				hub.Publish(Event{Type: EventUpdated, OrderID: "order-1"})
			}
			for len(events) > 0 {
				<-events
			}
		}()
	}
	wg.Wait()

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.orderSubs)
}
