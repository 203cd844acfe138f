package session

import (
	"sync"

	"scalp-engine/internal/domain"
)

// EventHandler consumes engine events.
type EventHandler func(domain.Event)

// Bus fans engine events out to subscribers. Delivery is synchronous and in
// subscription order; handlers must not block.
type Bus struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers an event to every handler.
func (b *Bus) Publish(evt domain.Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}
