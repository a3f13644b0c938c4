/**
 * @description
 * Externally triggered pause/resume entry points. These are the only
 * non-scheduled mutations to escalation state: the main application calls
 * them when a client files a payment claim or raises a dispute, or when a
 * freelancer pauses collections manually. A paused invoice is never advanced
 * by the batch runner until resumed, explicitly or by its pause window
 * expiring.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recoup/collections-service/internal/domain"
	"github.com/recoup/collections-service/internal/store"
)

// PauseEscalation pauses collections for an invoice. until is optional; when
// nil the pause holds until an explicit resume. An invoice the scan has not
// seen yet gets an initial state row so the pause has something to hold.
// Claim- and dispute-triggered pauses honour the owner's pause-condition
// settings; a disabled condition makes the call a no-op and returns false.
func (e *Engine) PauseEscalation(ctx context.Context, invoiceID string, reason domain.PauseReason, until *time.Time) (bool, error) {
	now := e.now()

	inv, err := e.repo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return false, err
	}

	cfg, err := e.automationConfig(ctx, inv.FreelancerID)
	if err != nil {
		return false, err
	}
	if !cfg.PauseConditions.Allows(reason) {
		e.logger.Info("pause condition disabled by user settings",
			"invoice_id", invoiceID, "reason", reason)
		return false, nil
	}

	state, err := e.repo.GetEscalationState(ctx, invoiceID)
	if errors.Is(err, store.ErrNotFound) {
		state = &domain.EscalationState{
			InvoiceID:    invoiceID,
			CurrentLevel: domain.LevelPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if createErr := e.repo.CreateEscalationState(ctx, state); createErr != nil {
			return false, fmt.Errorf("failed to create escalation state: %w", createErr)
		}
	} else if err != nil {
		return false, fmt.Errorf("failed to load escalation state: %w", err)
	}

	if err := e.repo.PauseEscalationState(ctx, invoiceID, reason, now, until); err != nil {
		return false, fmt.Errorf("failed to pause escalation: %w", err)
	}

	metadata := map[string]any{"pause_reason": string(reason)}
	if until != nil {
		metadata["pause_until"] = until.UTC().Format(time.RFC3339)
	}
	event := &domain.TimelineEvent{
		ID:              uuid.NewString(),
		InvoiceID:       invoiceID,
		EscalationLevel: state.CurrentLevel,
		EventType:       domain.EventPaused,
		Message:         fmt.Sprintf("Escalation paused (%s)", reason),
		Metadata:        metadata,
		CreatedAt:       now,
	}
	if err := e.repo.AppendTimelineEvent(ctx, event); err != nil {
		return false, fmt.Errorf("failed to record pause event: %w", err)
	}

	e.logger.Info("escalation paused", "invoice_id", invoiceID, "reason", reason)
	e.analytics.Track(ctx, "escalation_paused", map[string]any{
		"invoice_id": invoiceID,
		"reason":     string(reason),
	})
	return true, nil
}

// ResumeEscalation lifts a pause. The next run re-evaluates the policy level
// from current days overdue, which may advance the invoice further than where
// it was paused if time has passed.
func (e *Engine) ResumeEscalation(ctx context.Context, invoiceID string, reason string) error {
	now := e.now()

	state, err := e.repo.GetEscalationState(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to load escalation state: %w", err)
	}
	if !state.IsPaused {
		return nil
	}

	if err := e.repo.ResumeEscalationState(ctx, invoiceID); err != nil {
		return fmt.Errorf("failed to resume escalation: %w", err)
	}

	event := &domain.TimelineEvent{
		ID:              uuid.NewString(),
		InvoiceID:       invoiceID,
		EscalationLevel: state.CurrentLevel,
		EventType:       domain.EventResumed,
		Message:         "Escalation resumed",
		Metadata: map[string]any{
			"resume_reason":  reason,
			"paused_reason":  string(state.PauseReason),
			"paused_at_days": pausedDays(state.PausedAt, now),
		},
		CreatedAt: now,
	}
	if err := e.repo.AppendTimelineEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record resume event: %w", err)
	}

	e.logger.Info("escalation resumed", "invoice_id", invoiceID, "reason", reason)
	e.analytics.Track(ctx, "escalation_resumed", map[string]any{
		"invoice_id": invoiceID,
		"auto":       false,
		"reason":     reason,
	})
	return nil
}

func pausedDays(pausedAt *time.Time, now time.Time) int {
	if pausedAt == nil {
		return 0
	}
	return int(now.Sub(*pausedAt).Hours() / 24)
}
