// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// CacheInvalidator clears cached matching results after a profile change.
type CacheInvalidator interface {
	InvalidateMatchCache(ctx context.Context, boxerID string) error
}

// IDGenerator returns new entity ids.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// deps bundles the collaborators every handler shares.
type deps struct {
	publisher shared.EventPublisher
	log       *logger.Logger
	newID     IDGenerator
}

func newDeps(publisher shared.EventPublisher, log *logger.Logger, component string) deps {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return deps{publisher: publisher, log: log.Named(component), newID: NewUUID}
}

// publish sends an event after the state change is persisted. Failures are
// logged and never returned.
func (d deps) publish(ctx context.Context, event shared.Event) {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		event = event.WithCorrelationID(id)
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.log.Warn("failed to publish event",
			logger.String("event", string(event.Type)),
			logger.String("aggregate_id", event.AggregateID),
			logger.Err(err),
		)
	}
}

// invalidate clears the match cache. Failures are logged and never returned.
func (d deps) invalidate(ctx context.Context, cache CacheInvalidator, boxerID string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateMatchCache(ctx, boxerID); err != nil {
		d.log.Warn("failed to invalidate match cache", logger.BoxerID(boxerID), logger.Err(err))
	}
}
