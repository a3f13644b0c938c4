/**
 * @description
 * Phone outreach task queue. The collections-service never dials anyone
 * itself; at agency level it publishes a call task that the outreach worker
 * consumes, the same producer/consumer split the analytics events use. The
 * task id comes back so the timeline can record the dispatch.
 */

package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/recoup/collections-service/pkg/rabbitmq"
)

const outreachExchange = "outreach_tasks"

// CallTask is one queued phone follow-up for the outreach worker.
type CallTask struct {
	TaskID           string `json:"task_id"`
	InvoiceID        string `json:"invoice_id"`
	InvoiceReference string `json:"invoice_reference"`
	RecipientPhone   string `json:"recipient_phone"`
	ClientName       string `json:"client_name"`
	EscalationLevel  string `json:"escalation_level"`
	DaysOverdue      int    `json:"days_overdue"`
	TotalOwedPence   int64  `json:"total_owed_pence"`
}

// CallQueue enqueues phone follow-up tasks and returns the task id recorded
// on the invoice timeline.
type CallQueue interface {
	Enqueue(ctx context.Context, task CallTask) (string, error)
}

// RabbitCallQueue publishes call tasks to the outreach exchange.
type RabbitCallQueue struct {
	producer rabbitmq.Publisher
}

// NewRabbitCallQueue creates a call queue over the given producer.
func NewRabbitCallQueue(producer rabbitmq.Publisher) *RabbitCallQueue {
	return &RabbitCallQueue{producer: producer}
}

// Enqueue publishes one call task and returns its id.
func (q *RabbitCallQueue) Enqueue(ctx context.Context, task CallTask) (string, error) {
	if q.producer == nil {
		return "", fmt.Errorf("outreach producer is not configured")
	}

	task.TaskID = uuid.NewString()
	if err := q.producer.Publish(ctx, outreachExchange, "outreach.phone_call", task); err != nil {
		return "", fmt.Errorf("failed to publish call task: %w", err)
	}
	return task.TaskID, nil
}
