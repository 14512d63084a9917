package sitecontent

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) RecordCreated(ctx context.Context, collection Collection, id uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) RecordUpdated(ctx context.Context, collection Collection, id uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) RecordDeactivated(ctx context.Context, collection Collection, id uuid.UUID) error {
	return nil
}

func (n *NoopEventSink) CacheInvalidated(ctx context.Context, collection Collection, removed int) error {
	return nil
}

// LoggingEventSink writes lifecycle events to a slog logger.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink that logs at debug level.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger.With("component", "events")}
}

func (l *LoggingEventSink) RecordCreated(ctx context.Context, collection Collection, id uuid.UUID) error {
	l.logger.DebugContext(ctx, "record created", "collection", collection, "id", id)
	return nil
}

func (l *LoggingEventSink) RecordUpdated(ctx context.Context, collection Collection, id uuid.UUID) error {
	l.logger.DebugContext(ctx, "record updated", "collection", collection, "id", id)
	return nil
}

func (l *LoggingEventSink) RecordDeactivated(ctx context.Context, collection Collection, id uuid.UUID) error {
	l.logger.DebugContext(ctx, "record deactivated", "collection", collection, "id", id)
	return nil
}

func (l *LoggingEventSink) CacheInvalidated(ctx context.Context, collection Collection, removed int) error {
	l.logger.DebugContext(ctx, "cache invalidated", "collection", collection, "removed", removed)
	return nil
}
