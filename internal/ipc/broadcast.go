package ipc

import (
	"log"
	"sync"
	"sync/atomic"
)

// subscriberBuffer is how many unread events a subscriber can fall behind
// before new events start being dropped for it.
const subscriberBuffer = 256

type subscriber struct {
	ch     chan Event
	lagged atomic.Uint64
}

// Hub fans a published event out to every subscriber's own buffered
// channel. It is hand-built on sync.RWMutex plus one channel per
// subscriber, since no broadcast-with-lag-counting primitive exists in
// the standard library.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	nextID uint64
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// Subscribe registers a new receiver and returns its channel and an
// unsubscribe function. The channel is closed by Unsubscribe, never by the
// hub spontaneously.
func (h *Hub) Subscribe() (id uint64, ch <-chan Event, unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id = h.nextID
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	h.subs[id] = sub
	h.mu.Unlock()

	return id, sub.ch, func() { h.unsubscribe(id) }
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Publish implements session.EventPublisher: it delivers to every current
// subscriber without blocking. A subscriber that isn't draining its
// channel fast enough has the event dropped and its lag counter
// incremented instead of stalling every other subscriber.
func (h *Hub) Publish(event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ev := Event{Event: event, Data: data}
	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			n := sub.lagged.Add(1)
			if n == 1 || n%100 == 0 {
				log.Printf("ipc: subscriber %d lagging, %d events dropped", id, n)
			}
		}
	}
}

// Lagged returns how many events have been dropped for a subscriber.
func (h *Hub) Lagged(id uint64) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sub, ok := h.subs[id]
	if !ok {
		return 0
	}
	return sub.lagged.Load()
}
