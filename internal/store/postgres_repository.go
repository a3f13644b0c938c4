/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL for the invoices, escalation_states,
 * timeline_events, and user_collection_settings tables.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/recoup/collections-service/internal/domain"
)

// execer is satisfied by both the pool and a transaction, so the timeline
// insert can run standalone or inside RecordEscalation's transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListCollectibleInvoices fetches every invoice the escalation run should
// consider: anything overdue or already in collections.
func (r *PostgresRepository) ListCollectibleInvoices(ctx context.Context) ([]domain.Invoice, error) {
	query := `
        SELECT id, freelancer_id, reference, amount, currency, due_date, status,
               client_name, client_email, COALESCE(client_phone, ''), sms_opted_out
        FROM invoices
        WHERE status IN ('overdue', 'in_collections')
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		err := rows.Scan(
			&inv.ID, &inv.FreelancerID, &inv.Reference, &inv.Amount, &inv.Currency,
			&inv.DueDate, &inv.Status, &inv.ClientName, &inv.ClientEmail,
			&inv.ClientPhone, &inv.SMSOptedOut)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

// FindInvoiceByID retrieves a single invoice.
func (r *PostgresRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	var inv domain.Invoice
	query := `
        SELECT id, freelancer_id, reference, amount, currency, due_date, status,
               client_name, client_email, COALESCE(client_phone, ''), sms_opted_out
        FROM invoices
        WHERE id = $1
    `
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(
		&inv.ID, &inv.FreelancerID, &inv.Reference, &inv.Amount, &inv.Currency,
		&inv.DueDate, &inv.Status, &inv.ClientName, &inv.ClientEmail,
		&inv.ClientPhone, &inv.SMSOptedOut)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// GetEscalationState retrieves the escalation record for an invoice.
func (r *PostgresRepository) GetEscalationState(ctx context.Context, invoiceID string) (*domain.EscalationState, error) {
	var (
		state       domain.EscalationState
		level       string
		pauseReason *string
	)
	query := `
        SELECT invoice_id, current_level, is_paused, pause_reason,
               paused_at, pause_until, last_escalated_at, created_at, updated_at
        FROM escalation_states
        WHERE invoice_id = $1
    `
	err := r.db.QueryRow(ctx, query, invoiceID).Scan(
		&state.InvoiceID, &level, &state.IsPaused, &pauseReason,
		&state.PausedAt, &state.PauseUntil, &state.LastEscalatedAt,
		&state.CreatedAt, &state.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	parsed, err := domain.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invoice %s has corrupt escalation state: %w", invoiceID, err)
	}
	state.CurrentLevel = parsed
	if pauseReason != nil {
		state.PauseReason = domain.PauseReason(*pauseReason)
	}
	return &state, nil
}

// CreateEscalationState inserts the initial escalation record for an invoice.
// A concurrent insert for the same invoice wins via the primary key; the
// conflict clause keeps the call idempotent.
func (r *PostgresRepository) CreateEscalationState(ctx context.Context, state *domain.EscalationState) error {
	query := `
        INSERT INTO escalation_states
            (invoice_id, current_level, is_paused, last_escalated_at, created_at, updated_at)
        VALUES ($1, $2, FALSE, $3, NOW(), NOW())
        ON CONFLICT (invoice_id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query, state.InvoiceID, string(state.CurrentLevel), state.LastEscalatedAt)
	return err
}

// RecordEscalation commits one level transition in a single transaction: the
// state advance, the invoice status flip when this is the first escalation,
// and the escalated timeline event. A failure on any write rolls back all of
// them, so the retry path re-evaluates the invoice from its pre-transition
// state. Writing the same level twice is a no-op rather than an error.
func (r *PostgresRepository) RecordEscalation(ctx context.Context, invoiceID string, newLevel domain.Level, escalatedAt time.Time, markInCollections bool, event *domain.TimelineEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	advanceQuery := `
        UPDATE escalation_states
        SET current_level = $1,
            last_escalated_at = $2,
            updated_at = NOW()
        WHERE invoice_id = $3
          AND current_level <> $1
    `
	if _, err := tx.Exec(ctx, advanceQuery, string(newLevel), escalatedAt, invoiceID); err != nil {
		return err
	}

	if markInCollections {
		statusQuery := `
        UPDATE invoices
        SET status = 'in_collections',
            updated_at = NOW()
        WHERE id = $1
    `
		if _, err := tx.Exec(ctx, statusQuery, invoiceID); err != nil {
			return err
		}
	}

	if err := insertTimelineEvent(ctx, tx, event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// PauseEscalationState marks an invoice's escalation as paused.
func (r *PostgresRepository) PauseEscalationState(ctx context.Context, invoiceID string, reason domain.PauseReason, pausedAt time.Time, pauseUntil *time.Time) error {
	query := `
        UPDATE escalation_states
        SET is_paused = TRUE,
            pause_reason = $1,
            paused_at = $2,
            pause_until = $3,
            updated_at = NOW()
        WHERE invoice_id = $4
    `
	commandTag, err := r.db.Exec(ctx, query, string(reason), pausedAt, pauseUntil, invoiceID)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResumeEscalationState clears the pause flags on an invoice's escalation.
// The next run re-evaluates the policy level from current days overdue.
func (r *PostgresRepository) ResumeEscalationState(ctx context.Context, invoiceID string) error {
	query := `
        UPDATE escalation_states
        SET is_paused = FALSE,
            pause_reason = NULL,
            paused_at = NULL,
            pause_until = NULL,
            updated_at = NOW()
        WHERE invoice_id = $1
    `
	commandTag, err := r.db.Exec(ctx, query, invoiceID)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendTimelineEvent inserts one audit event. There is deliberately no
// update or delete path for timeline_events.
func (r *PostgresRepository) AppendTimelineEvent(ctx context.Context, event *domain.TimelineEvent) error {
	return insertTimelineEvent(ctx, r.db, event)
}

func insertTimelineEvent(ctx context.Context, db execer, event *domain.TimelineEvent) error {
	var metadata []byte
	if event.Metadata != nil {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal timeline metadata: %w", err)
		}
	}

	query := `
        INSERT INTO timeline_events
            (id, invoice_id, escalation_level, event_type, channel, message, metadata, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
    `
	_, err := db.Exec(ctx, query,
		event.ID, event.InvoiceID, string(event.EscalationLevel), event.EventType,
		event.Channel, event.Message, metadata, event.CreatedAt)
	return err
}

// ListTimelineEvents returns an invoice's audit history, newest first.
func (r *PostgresRepository) ListTimelineEvents(ctx context.Context, invoiceID string, limit int) ([]domain.TimelineEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
        SELECT id, invoice_id, escalation_level, event_type,
               COALESCE(channel, ''), COALESCE(message, ''), metadata, created_at
        FROM timeline_events
        WHERE invoice_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, invoiceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TimelineEvent
	for rows.Next() {
		var (
			event    domain.TimelineEvent
			level    string
			metadata []byte
		)
		err := rows.Scan(&event.ID, &event.InvoiceID, &level, &event.EventType,
			&event.Channel, &event.Message, &metadata, &event.CreatedAt)
		if err != nil {
			return nil, err
		}
		event.EscalationLevel = domain.Level(level)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal timeline metadata: %w", err)
			}
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// GetAutomationConfig retrieves a user's collections settings. Returns
// ErrNotFound when the user has never saved settings; callers fall back to
// domain.DefaultAutomationConfig.
func (r *PostgresRepository) GetAutomationConfig(ctx context.Context, userID string) (*domain.AutomationConfig, error) {
	cfg := domain.AutomationConfig{UserID: userID}
	query := `
        SELECT enabled, email_enabled, sms_enabled, phone_enabled, agency_enabled,
               pause_on_payment_claim, pause_on_dispute
        FROM user_collection_settings
        WHERE user_id = $1
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&cfg.Enabled,
		&cfg.Channels.EmailEnabled, &cfg.Channels.SMSEnabled,
		&cfg.Channels.PhoneEnabled, &cfg.Channels.AgencyEnabled,
		&cfg.PauseConditions.OnPaymentClaim, &cfg.PauseConditions.OnDispute)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}
