package simpleslots

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// RevisionSaved does nothing and returns nil
func (n *NoopEventSink) RevisionSaved(ctx context.Context, page *Page, revision *Revision) error {
	return nil
}

// SlotRemoved does nothing and returns nil
func (n *NoopEventSink) SlotRemoved(ctx context.Context, page *Page, role string) error {
	return nil
}

// PageRefreshed does nothing and returns nil
func (n *NoopEventSink) PageRefreshed(ctx context.Context, page *Page, revision *Revision) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// RevisionSaved logs the saved revision
func (l *LoggingEventSink) RevisionSaved(ctx context.Context, page *Page, revision *Revision) error {
	l.logger.InfoContext(ctx, "Revision saved",
		"page", page.Title, "revision_id", revision.ID, "slots", revision.Roles(), "tags", revision.Tags)
	return nil
}

// SlotRemoved logs the removed slot
func (l *LoggingEventSink) SlotRemoved(ctx context.Context, page *Page, role string) error {
	l.logger.InfoContext(ctx, "Slot removed", "page", page.Title, "slot", role)
	return nil
}

// PageRefreshed logs the null edit
func (l *LoggingEventSink) PageRefreshed(ctx context.Context, page *Page, revision *Revision) error {
	l.logger.InfoContext(ctx, "Page refreshed", "page", page.Title, "revision_id", revision.ID)
	return nil
}
