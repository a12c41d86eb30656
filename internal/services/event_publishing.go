package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/career-assessment-service/internal/events"
)

// eventEmitter publishes domain events without failing the calling operation;
// a lost event is logged, the user's write has already succeeded.
type eventEmitter struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func newEventEmitter(publisher events.EventPublisher, logger *slog.Logger) *eventEmitter {
	return &eventEmitter{publisher: publisher, logger: logger}
}

func (e *eventEmitter) emit(ctx context.Context, eventType events.EventType, data interface{}) {
	if e == nil || e.publisher == nil {
		return
	}

	event := events.NewEvent(eventType, data)
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", eventType,
			"event_id", event.ID,
			"error", err)
	}
}
