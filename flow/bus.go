// ABOUTME: In-process publish/subscribe bus carrying node-change events between flow components.
// ABOUTME: Delivery is synchronous fan-out on the publishing goroutine; handlers may publish re-entrantly.
package flow

import "sync"

// Event announces that a node's data changed. Patch lists the fields that
// changed; subscribers that only care about membership can ignore it.
type Event struct {
	NodeID string         `json:"nodeId"`
	Patch  map[string]any `json:"patch"`
}

// Bus is a typed publish/subscribe channel. There is no queueing, no
// persistence, and no ordering guarantee among subscribers of the same
// event. A Publish call returns only after every subscriber has run.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Handlers must be subscribed for the lifetime of the component and
// unsubscribed on disposal.
func (b *Bus) Subscribe(handler func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the event to every current subscriber, synchronously,
// on the caller's goroutine. The subscriber list is snapshotted before
// delivery so handlers can subscribe, unsubscribe, or publish again
// without deadlocking.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	handlers := make([]func(Event), 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(evt)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
