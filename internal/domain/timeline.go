/**
 * @description
 * This file defines the timeline event model. Timeline events are the
 * append-only audit trail for every action the collections engine takes
 * against an invoice. Events are never mutated or deleted; the timeline is
 * the source of truth for dispute resolution.
 */

package domain

import (
	"time"
)

// Timeline event types.
const (
	EventEscalated    = "escalated"
	EventReminderSent = "reminder_sent"
	EventPaused       = "paused"
	EventResumed      = "resumed"
)

// Notification channels recorded on reminder_sent events.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPhone = "phone"
)

// TimelineEvent is one immutable audit record for an invoice.
type TimelineEvent struct {
	ID              string         `json:"id"`
	InvoiceID       string         `json:"invoice_id"`
	EscalationLevel Level          `json:"escalation_level"`
	EventType       string         `json:"event_type"`
	Channel         string         `json:"channel,omitempty"`
	Message         string         `json:"message,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}
