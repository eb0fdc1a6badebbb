package events

import (
	"context"
	"sync"

	"hipotecas_portal_backend/platform/logger"
)

// InMemoryBus is a simple in-process event bus. Handlers run asynchronously;
// a failing handler is logged and never propagates to the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers registered for its name.
// Each handler runs in its own goroutine detached from the request context,
// so a slow subscriber cannot delay the HTTP response.
func (b *InMemoryBus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	subscribers := make([]Handler, len(b.handlers[event.EventName()]))
	copy(subscribers, b.handlers[event.EventName()])
	b.mu.RUnlock()

	for _, handler := range subscribers {
		h := handler
		go func() {
			if err := h.Handle(context.Background(), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}()
	}
}

var _ Bus = (*InMemoryBus)(nil)
