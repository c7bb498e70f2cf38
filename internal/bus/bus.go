package bus

import (
	"sync"
)

// Logger defines the logging interface used by the Bus.
type Logger interface {
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Handler is a subscriber callback.
//
// The payload is signal-specific: per-device signals carry a
// transport.Params (nil meaning "went offline" or a no-op refresh),
// the add-entities signal carries the new entity slice.
type Handler func(payload any)

// Bus is a process-wide synchronous publish/subscribe dispatcher.
//
// Delivery is immediate and in registration order; there is no queue.
// A panic in one handler is recovered and logged so the remaining
// handlers still run. Publishing from inside a handler is allowed.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Handlers for a single
//     Publish call run sequentially on the publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   Logger
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger used for recovered handler panics.
func (b *Bus) SetLogger(logger Logger) {
	b.logger = logger
}

// Subscribe registers a handler for a signal name.
// Handlers are invoked in registration order.
func (b *Bus) Subscribe(signal string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers[signal] = append(b.handlers[signal], handler)
	b.mu.Unlock()
}

// Publish invokes every handler registered for the signal, in order,
// on the calling goroutine. A panicking handler does not prevent the
// remaining handlers from running.
func (b *Bus) Publish(signal string, payload any) {
	b.mu.RLock()
	// Copy the slice header so handlers may Subscribe or Publish
	// without deadlocking.
	handlers := b.handlers[signal]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.invoke(signal, h, payload)
	}
}

// invoke runs one handler with panic recovery.
func (b *Bus) invoke(signal string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus handler panicked", "signal", signal, "panic", r)
		}
	}()
	h(payload)
}

// Clear removes all registrations.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.handlers = make(map[string][]Handler)
	b.mu.Unlock()
}

// SubscriberCount returns the number of handlers registered for a signal.
func (b *Bus) SubscriberCount(signal string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[signal])
}
