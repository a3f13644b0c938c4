/**
 * @description
 * The collections escalation engine. One run scans every overdue or
 * in-collections invoice, advances each through the escalation levels per the
 * policy, updates the escalation state and timeline, and dispatches reminder
 * notifications. Invoices are processed in fixed-size batches with bounded
 * parallelism inside each batch; every invoice is isolated so a bad record
 * can never take down the run.
 *
 * Each level transition is committed atomically (state advance, invoice
 * status, escalated timeline event) before notifications are dispatched: a
 * failed commit leaves no trace for the retry to trip over, and once the
 * commit lands a retried invoice finds the level already applied and sends
 * nothing twice.
 *
 * @dependencies
 * - golang.org/x/sync/errgroup: Bounded-parallel batch workers.
 * - internal/store: Data access.
 * - pkg/emailclient, pkg/smsclient: Outbound channels.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/recoup/collections-service/internal/config"
	"github.com/recoup/collections-service/internal/domain"
	"github.com/recoup/collections-service/internal/store"
	"github.com/recoup/collections-service/pkg/emailclient"
	"github.com/recoup/collections-service/pkg/smsclient"
)

// ErrRunInProgress is returned when another collections run holds the run lock.
var ErrRunInProgress = errors.New("a collections run is already in progress")

// EmailSender delivers one reminder email and returns the provider message id.
type EmailSender interface {
	Send(ctx context.Context, req emailclient.SendRequest) (string, error)
}

// SMSSender delivers one reminder SMS. Provider-side rejections come back in
// the Result, not as an error.
type SMSSender interface {
	Send(ctx context.Context, req smsclient.SendRequest) (smsclient.Result, error)
}

// outcome classifies what happened to one invoice during a run.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomePaused
	outcomeEscalated
)

// Engine orchestrates collections runs.
type Engine struct {
	repo      store.Repository
	email     EmailSender
	sms       SMSSender
	calls     CallQueue
	analytics Analytics
	lock      RunLock
	logger    *slog.Logger
	config    config.Config

	// now is swappable in tests.
	now func() time.Time
}

// NewEngine creates a collections engine. lock may be nil when overlap
// protection is handled elsewhere (tests, one-off CLI invocations); calls may
// be nil when no phone outreach pipeline is deployed.
func NewEngine(repo store.Repository, email EmailSender, sms SMSSender, calls CallQueue, analytics Analytics, lock RunLock, logger *slog.Logger, cfg config.Config) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 10
	}
	return &Engine{
		repo:      repo,
		email:     email,
		sms:       sms,
		calls:     calls,
		analytics: analytics,
		lock:      lock,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// Run executes one full collections scan and returns the aggregated summary.
// Only a failure of the initial invoice fetch (or a held run lock) is fatal;
// per-invoice failures end up in the summary's error list.
func (e *Engine) Run(ctx context.Context) (*domain.RunSummary, error) {
	started := e.now()
	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Errors:    []domain.RunError{},
	}

	if e.lock != nil {
		release, ok, err := e.lock.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer release()
	}

	e.logger.Info("starting collections run", "run_id", summary.RunID)

	invoices, err := e.repo.ListCollectibleInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collectible invoices: %w", err)
	}
	summary.ScannedCount = len(invoices)

	if len(invoices) == 0 {
		e.logger.Info("no invoices to process", "run_id", summary.RunID)
		summary.DurationMs = time.Since(started).Milliseconds()
		return summary, nil
	}

	e.logger.Info("found invoices to process", "run_id", summary.RunID, "count", len(invoices))

	counters := &domain.RunCounters{}
	for start := 0; start < len(invoices); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(invoices) {
			end = len(invoices)
		}
		e.processBatch(ctx, invoices[start:end], counters)
	}

	counters.Snapshot(summary)
	summary.DurationMs = time.Since(started).Milliseconds()

	e.logger.Info("collections run finished",
		"run_id", summary.RunID,
		"scanned", summary.ScannedCount,
		"escalated", summary.EscalatedCount,
		"paused", summary.PausedCount,
		"skipped", summary.SkippedCount,
		"errors", len(summary.Errors),
		"duration_ms", summary.DurationMs)

	e.analytics.Track(ctx, "run_completed", map[string]any{
		"run_id":    summary.RunID,
		"scanned":   summary.ScannedCount,
		"escalated": summary.EscalatedCount,
		"paused":    summary.PausedCount,
		"skipped":   summary.SkippedCount,
		"errors":    len(summary.Errors),
	})

	return summary, nil
}

// processBatch runs one batch with bounded parallelism. Workers never return
// errors to the group; failures are recorded in the counters so the remaining
// invoices always complete.
func (e *Engine) processBatch(ctx context.Context, batch []domain.Invoice, counters *domain.RunCounters) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.BatchConcurrency)

	for _, inv := range batch {
		inv := inv
		g.Go(func() error {
			e.processInvoice(gctx, inv, counters)
			return nil
		})
	}

	_ = g.Wait()
}

// processInvoice evaluates one invoice with retry-with-backoff around the
// whole unit of work. After exhausting retries the error is recorded and the
// batch moves on.
func (e *Engine) processInvoice(ctx context.Context, inv domain.Invoice, counters *domain.RunCounters) {
	opts := RetryOptions{
		MaxAttempts: e.config.RetryMaxAttempts,
		BaseDelay:   e.config.RetryBaseDelay,
	}

	var out outcome
	err := withRetry(ctx, opts, func() error {
		o, evalErr := e.evaluateInvoice(ctx, inv)
		if evalErr != nil {
			return evalErr
		}
		out = o
		return nil
	})
	if err != nil {
		e.logger.Error("invoice processing failed", "invoice_id", inv.ID, "error", err)
		counters.AddError(inv.ID, err)
		return
	}

	switch out {
	case outcomeEscalated:
		counters.AddEscalated()
	case outcomePaused:
		counters.AddPaused()
	default:
		counters.AddSkipped()
	}
}

// evaluateInvoice is one attempt at the per-invoice state machine: compute
// days overdue, load or create state, handle pauses, consult the automation
// config and the policy, then escalate and dispatch.
func (e *Engine) evaluateInvoice(ctx context.Context, inv domain.Invoice) (outcome, error) {
	now := e.now()

	daysOverdue := inv.DaysOverdue(now)
	if daysOverdue < 0 {
		// Not yet due. Invalid input for the policy, skipped rather than erred.
		return outcomeSkipped, nil
	}

	state, err := e.repo.GetEscalationState(ctx, inv.ID)
	if errors.Is(err, store.ErrNotFound) {
		state = &domain.EscalationState{
			InvoiceID:    inv.ID,
			CurrentLevel: domain.LevelPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if createErr := e.repo.CreateEscalationState(ctx, state); createErr != nil {
			return 0, fmt.Errorf("failed to create escalation state: %w", createErr)
		}
	} else if err != nil {
		return 0, fmt.Errorf("failed to load escalation state: %w", err)
	}

	if state.IsPaused {
		if state.PauseUntil != nil && now.After(*state.PauseUntil) {
			if err := e.autoResume(ctx, inv.ID, state, now); err != nil {
				return 0, err
			}
		} else {
			return outcomePaused, nil
		}
	}

	cfg, err := e.automationConfig(ctx, inv.FreelancerID)
	if err != nil {
		return 0, err
	}
	if !cfg.Enabled {
		return outcomeSkipped, nil
	}

	targetLevel := LevelForDaysOverdue(daysOverdue)
	if targetLevel == domain.LevelAgency && !cfg.Channels.AgencyEnabled {
		// Agency referral is consent-gated. Without the opt-in the invoice
		// tops out at final notices.
		targetLevel = domain.LevelFinal
	}
	if !targetLevel.After(state.CurrentLevel) {
		return outcomeSkipped, nil
	}

	if err := e.escalate(ctx, inv, state, targetLevel, daysOverdue, now); err != nil {
		return 0, err
	}

	// Notifications are a post-action on the committed transition; channel
	// failures are logged per channel and never fail the invoice.
	e.dispatchReminders(ctx, inv, *cfg, targetLevel, daysOverdue)

	return outcomeEscalated, nil
}

// automationConfig resolves a user's collections settings, falling back to
// the defaults when the user has never saved any.
func (e *Engine) automationConfig(ctx context.Context, userID string) (*domain.AutomationConfig, error) {
	cfg, err := e.repo.GetAutomationConfig(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		defaultCfg := domain.DefaultAutomationConfig(userID)
		return &defaultCfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load automation config: %w", err)
	}
	return cfg, nil
}

// autoResume lifts a pause whose pause_until has passed. The policy then
// evaluates the invoice normally in the same cycle.
func (e *Engine) autoResume(ctx context.Context, invoiceID string, state *domain.EscalationState, now time.Time) error {
	if err := e.repo.ResumeEscalationState(ctx, invoiceID); err != nil {
		return fmt.Errorf("failed to auto-resume escalation: %w", err)
	}

	event := &domain.TimelineEvent{
		ID:              uuid.NewString(),
		InvoiceID:       invoiceID,
		EscalationLevel: state.CurrentLevel,
		EventType:       domain.EventResumed,
		Message:         "Escalation automatically resumed after pause window expired",
		Metadata: map[string]any{
			"auto_resume":  true,
			"pause_reason": string(state.PauseReason),
		},
		CreatedAt: now,
	}
	if err := e.repo.AppendTimelineEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record resume event: %w", err)
	}

	state.IsPaused = false
	state.PauseReason = ""
	state.PausedAt = nil
	state.PauseUntil = nil

	e.logger.Info("escalation auto-resumed", "invoice_id", invoiceID)
	e.analytics.Track(ctx, "escalation_resumed", map[string]any{
		"invoice_id": invoiceID,
		"auto":       true,
	})
	return nil
}

// escalate commits the level transition: state row, invoice status, and the
// escalated timeline event land in one store transaction, so a transient
// failure rolls the whole transition back and the retry starts clean.
func (e *Engine) escalate(ctx context.Context, inv domain.Invoice, state *domain.EscalationState, targetLevel domain.Level, daysOverdue int, now time.Time) error {
	previousLevel := state.CurrentLevel

	metadata := map[string]any{
		"previous_level": string(previousLevel),
		"days_overdue":   daysOverdue,
	}
	if calc, err := CalculateLateInterest(inv.Amount, daysOverdue, DefaultBankBaseRate); err == nil {
		metadata["total_owed_pence"] = calc.TotalOwedPence
	}

	event := &domain.TimelineEvent{
		ID:              uuid.NewString(),
		InvoiceID:       inv.ID,
		EscalationLevel: targetLevel,
		EventType:       domain.EventEscalated,
		Message:         fmt.Sprintf("Escalated from %s to %s at %d days overdue", previousLevel, targetLevel, daysOverdue),
		Metadata:        metadata,
		CreatedAt:       now,
	}

	markInCollections := previousLevel == domain.LevelPending
	if err := e.repo.RecordEscalation(ctx, inv.ID, targetLevel, now, markInCollections, event); err != nil {
		return fmt.Errorf("failed to record escalation: %w", err)
	}

	state.CurrentLevel = targetLevel
	state.LastEscalatedAt = &now

	e.logger.Info("invoice escalated",
		"invoice_id", inv.ID,
		"previous_level", previousLevel,
		"new_level", targetLevel,
		"days_overdue", daysOverdue)

	e.analytics.Track(ctx, "invoice_escalated", map[string]any{
		"invoice_id":     inv.ID,
		"freelancer_id":  inv.FreelancerID,
		"previous_level": string(previousLevel),
		"new_level":      string(targetLevel),
		"days_overdue":   daysOverdue,
	})
	return nil
}

// dispatchReminders sends the channel set for the reached level, applying
// channel opt-ins and consent gates. Each channel fails independently.
func (e *Engine) dispatchReminders(ctx context.Context, inv domain.Invoice, cfg domain.AutomationConfig, level domain.Level, daysOverdue int) {
	calc, err := CalculateLateInterest(inv.Amount, daysOverdue, DefaultBankBaseRate)
	if err != nil {
		e.logger.Warn("skipping interest breakdown in reminders", "invoice_id", inv.ID, "error", err)
		calc = InterestCalculation{PrincipalPence: inv.Amount, TotalOwedPence: inv.Amount}
	}

	for _, channel := range ChannelsForLevel(level) {
		switch channel {
		case domain.ChannelEmail:
			e.sendEmailReminder(ctx, inv, cfg, level, daysOverdue, calc)
		case domain.ChannelSMS:
			e.sendSMSReminder(ctx, inv, cfg, level, daysOverdue, calc)
		case domain.ChannelPhone:
			e.queuePhoneFollowUp(ctx, inv, cfg, level, daysOverdue, calc)
		}
	}
}

func (e *Engine) sendEmailReminder(ctx context.Context, inv domain.Invoice, cfg domain.AutomationConfig, level domain.Level, daysOverdue int, calc InterestCalculation) {
	if !cfg.Channels.EmailEnabled || inv.ClientEmail == "" {
		return
	}

	msg := RenderEmailReminder(level, inv, daysOverdue, calc, e.config.BusinessName)
	messageID, err := e.email.Send(ctx, emailclient.SendRequest{
		To:       inv.ClientEmail,
		Subject:  msg.Subject,
		TextBody: msg.Body,
		Tag:      "collections_" + string(level),
	})
	if err != nil {
		e.logger.Error("failed to send reminder email", "invoice_id", inv.ID, "level", level, "error", err)
		return
	}

	e.recordReminderSent(ctx, inv, level, domain.ChannelEmail, messageID, daysOverdue)
}

func (e *Engine) sendSMSReminder(ctx context.Context, inv domain.Invoice, cfg domain.AutomationConfig, level domain.Level, daysOverdue int, calc InterestCalculation) {
	// Consent-gated channel: explicit opt-in required, recipient must have a
	// number and must not have opted out. Silent skip on any missing precondition.
	if !cfg.Channels.SMSEnabled || inv.ClientPhone == "" || inv.SMSOptedOut {
		return
	}

	result, err := e.sms.Send(ctx, smsclient.SendRequest{
		RecipientPhone:   inv.ClientPhone,
		InvoiceReference: inv.Reference,
		Body:             RenderSMSReminder(level, inv, daysOverdue, calc, e.config.BusinessName),
	})
	if err != nil {
		e.logger.Error("failed to send reminder SMS", "invoice_id", inv.ID, "level", level, "error", err)
		return
	}
	if !result.Success {
		e.logger.Warn("SMS provider rejected reminder",
			"invoice_id", inv.ID,
			"level", level,
			"error_code", result.ErrorCode,
			"error_message", result.ErrorMsg)
		return
	}

	e.recordReminderSent(ctx, inv, level, domain.ChannelSMS, result.MessageSID, daysOverdue)
}

// queuePhoneFollowUp hands the account to the phone outreach pipeline. The
// call itself is placed by a downstream worker; queueing the task is this
// service's dispatch. Consent-gated like SMS, off by default.
func (e *Engine) queuePhoneFollowUp(ctx context.Context, inv domain.Invoice, cfg domain.AutomationConfig, level domain.Level, daysOverdue int, calc InterestCalculation) {
	if e.calls == nil || !cfg.Channels.PhoneEnabled || inv.ClientPhone == "" {
		return
	}

	taskID, err := e.calls.Enqueue(ctx, CallTask{
		InvoiceID:        inv.ID,
		InvoiceReference: inv.Reference,
		RecipientPhone:   inv.ClientPhone,
		ClientName:       inv.ClientName,
		EscalationLevel:  string(level),
		DaysOverdue:      daysOverdue,
		TotalOwedPence:   calc.TotalOwedPence,
	})
	if err != nil {
		e.logger.Error("failed to queue phone follow-up", "invoice_id", inv.ID, "level", level, "error", err)
		return
	}

	e.recordReminderSent(ctx, inv, level, domain.ChannelPhone, taskID, daysOverdue)
}

// recordReminderSent appends the audit event for a successful send. A failure
// here is logged rather than propagated: the message is already out, and a
// retry would double-send.
func (e *Engine) recordReminderSent(ctx context.Context, inv domain.Invoice, level domain.Level, channel, messageID string, daysOverdue int) {
	event := &domain.TimelineEvent{
		ID:              uuid.NewString(),
		InvoiceID:       inv.ID,
		EscalationLevel: level,
		EventType:       domain.EventReminderSent,
		Channel:         channel,
		Message:         fmt.Sprintf("Reminder sent via %s at level %s", channel, level),
		Metadata: map[string]any{
			"message_id":   messageID,
			"days_overdue": daysOverdue,
		},
		CreatedAt: e.now(),
	}
	if err := e.repo.AppendTimelineEvent(ctx, event); err != nil {
		e.logger.Error("failed to record reminder event", "invoice_id", inv.ID, "channel", channel, "error", err)
	}

	e.analytics.Track(ctx, "reminder_sent", map[string]any{
		"invoice_id": inv.ID,
		"level":      string(level),
		"channel":    channel,
		"message_id": messageID,
	})
}
