// Package events provides typed, in-process publish/subscribe used by the
// deck components to announce state changes.
package events

import (
	"sync"
	"sync/atomic"
)

// SubscriptionID identifies a handler registered on a Bus.
type SubscriptionID uint64

// Handler receives published events.
type Handler[T any] func(T)

type handlerEntry[T any] struct {
	id      SubscriptionID
	handler Handler[T]
}

// Bus delivers each published event to every current subscriber,
// synchronously and in subscription order. The zero value is ready to use.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers []handlerEntry[T]

	subIDCounter atomic.Uint64
}

// Subscribe registers handler and returns a function that removes it.
// A nil handler is ignored.
func (b *Bus[T]) Subscribe(handler Handler[T]) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	id := SubscriptionID(b.subIDCounter.Add(1))

	b.mu.Lock()
	b.handlers = append(b.handlers, handlerEntry[T]{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus[T]) unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.handlers {
		if entry.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish calls every subscriber with evt. Handlers run on the caller's
// goroutine without the bus lock held, so they may subscribe or unsubscribe.
func (b *Bus[T]) Publish(evt T) {
	b.mu.RLock()
	if len(b.handlers) == 0 {
		b.mu.RUnlock()
		return
	}
	snapshot := make([]handlerEntry[T], len(b.handlers))
	copy(snapshot, b.handlers)
	b.mu.RUnlock()

	for _, entry := range snapshot {
		entry.handler(evt)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Clear removes every subscription.
func (b *Bus[T]) Clear() {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
}
