// Package events fans engine notifications out to stream subscribers.
package events

import "sync"

// subscriberBuffer bounds how far a subscriber may fall behind before
// events are dropped for it.
const subscriberBuffer = 10

// Hub delivers published events to every live subscriber. Delivery is
// best-effort per subscriber: a full buffer drops the event for that
// subscriber only, never blocking the publisher or the other subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its event channel.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Safe to call once per channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

// Publish offers e to every subscriber, skipping any whose buffer is full.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
