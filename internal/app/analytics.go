/**
 * @description
 * Fire-and-forget analytics tracker. Collections events (escalations,
 * reminders, pauses) are published to the analytics exchange; a publish
 * failure is logged and swallowed because analytics must never affect the
 * collections flow.
 */

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/recoup/collections-service/pkg/rabbitmq"
)

const analyticsExchange = "analytics_events"

// Analytics tracks collections events for the analytics pipeline.
type Analytics interface {
	Track(ctx context.Context, eventName string, properties map[string]any)
}

// EventTracker publishes analytics events to RabbitMQ.
type EventTracker struct {
	producer rabbitmq.Publisher
	logger   *slog.Logger
}

// NewEventTracker creates a tracker over the given producer.
func NewEventTracker(producer rabbitmq.Publisher, logger *slog.Logger) *EventTracker {
	return &EventTracker{producer: producer, logger: logger}
}

type analyticsEvent struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Track publishes one event. Failures are logged, never returned.
func (t *EventTracker) Track(ctx context.Context, eventName string, properties map[string]any) {
	if t.producer == nil {
		return
	}

	event := analyticsEvent{
		Event:      eventName,
		Properties: properties,
		OccurredAt: time.Now().UTC(),
	}

	if err := t.producer.Publish(ctx, analyticsExchange, "collections."+eventName, event); err != nil {
		t.logger.Warn("failed to publish analytics event", "event", eventName, "error", err)
	}
}
