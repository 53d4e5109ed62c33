// Package messaging publishes domain events of Boxing Match Hub. Events are
// sent to NATS in production; an in-process bus and a log publisher cover
// local development and tests.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEventBusClosed is returned when operations are attempted on a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// Handler consumes a published event.
type Handler func(ctx context.Context, event shared.Event) error

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events synchronously to in-process handlers.
// Suitable for single-instance deployments and testing.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]Handler
	allHandlers []Handler
	log         *logger.Logger
	closed      bool
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(log *logger.Logger) *InMemoryEventBus {
	if log == nil {
		log = logger.NewNop()
	}
	return &InMemoryEventBus{
		handlers: make(map[shared.EventType][]Handler),
		log:      log.Named("event_bus"),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler Handler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler Handler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish runs every matching handler in registration order. Handler errors
// are logged; the first one is returned after all handlers ran.
func (b *InMemoryEventBus) Publish(ctx context.Context, event shared.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]Handler, 0, len(b.handlers[event.Type])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	var first error
	for _, h := range handlers {
		if err := runHandler(ctx, h, event); err != nil {
			b.log.Error("handler error", logger.String("event", string(event.Type)), logger.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func runHandler(ctx context.Context, h Handler, event shared.Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
	}()
	return h(ctx, event)
}

// Close stops accepting events.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG PUBLISHER
// ══════════════════════════════════════════════════════════════════════════════

// LogPublisher writes events to the structured log. Used when NATS is disabled.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Default()
	}
	return &LogPublisher{log: log.Named("events")}
}

// Publish implements shared.EventPublisher.
func (p *LogPublisher) Publish(_ context.Context, event shared.Event) error {
	p.log.Info("domain event",
		logger.String("event", string(event.Type)),
		logger.String("aggregate_id", event.AggregateID),
		logger.String("correlation_id", event.CorrelationID),
		logger.Any("payload", event.Payload),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FAN-OUT
// ══════════════════════════════════════════════════════════════════════════════

// MultiPublisher sends each event to every publisher and joins their errors.
type MultiPublisher []shared.EventPublisher

// Publish implements shared.EventPublisher.
func (m MultiPublisher) Publish(ctx context.Context, event shared.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
