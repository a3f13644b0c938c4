/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the collections-service needs. The engine and HTTP handlers depend
 * on this interface rather than on Postgres directly, so tests substitute
 * in-memory stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/recoup/collections-service/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Invoice methods. Invoices are owned by the main application; the
	// engine reads candidates by status and only ever flips the status to
	// 'in_collections' (inside RecordEscalation).
	ListCollectibleInvoices(ctx context.Context) ([]domain.Invoice, error)
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// Escalation state methods. One row per invoice, last-writer-wins.
	// RecordEscalation commits one level transition atomically: the state
	// advance, the invoice status flip on the first escalation, and the
	// escalated timeline event all land together or not at all, so a retried
	// invoice can never observe a half-applied transition.
	GetEscalationState(ctx context.Context, invoiceID string) (*domain.EscalationState, error)
	CreateEscalationState(ctx context.Context, state *domain.EscalationState) error
	RecordEscalation(ctx context.Context, invoiceID string, newLevel domain.Level, escalatedAt time.Time, markInCollections bool, event *domain.TimelineEvent) error
	PauseEscalationState(ctx context.Context, invoiceID string, reason domain.PauseReason, pausedAt time.Time, pauseUntil *time.Time) error
	ResumeEscalationState(ctx context.Context, invoiceID string) error

	// Timeline methods. Append-only; events are never updated or deleted.
	AppendTimelineEvent(ctx context.Context, event *domain.TimelineEvent) error
	ListTimelineEvents(ctx context.Context, invoiceID string, limit int) ([]domain.TimelineEvent, error)

	// Automation settings. Returns ErrNotFound when the user has never saved
	// collections settings; callers apply domain.DefaultAutomationConfig.
	GetAutomationConfig(ctx context.Context, userID string) (*domain.AutomationConfig, error)
}
