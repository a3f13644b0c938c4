/**
 * @description
 * This file defines the escalation level enum and the per-invoice escalation
 * state record. Levels form a closed, totally ordered set so that invalid
 * level values cannot be constructed from arbitrary strings and ordering
 * comparisons are explicit rather than string comparisons.
 */

package domain

import (
	"fmt"
	"time"
)

// Level is one ordered stage of collections intensity.
type Level string

const (
	LevelPending Level = "pending"
	LevelGentle  Level = "gentle"
	LevelFirm    Level = "firm"
	LevelFinal   Level = "final"
	LevelAgency  Level = "agency"
)

// levelRank fixes the total order over levels. Unknown values rank below
// pending so they can never win a comparison.
var levelRank = map[Level]int{
	LevelPending: 0,
	LevelGentle:  1,
	LevelFirm:    2,
	LevelFinal:   3,
	LevelAgency:  4,
}

// ParseLevel converts a stored string into a Level, rejecting unknown values.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if _, ok := levelRank[l]; !ok {
		return "", fmt.Errorf("unknown escalation level %q", s)
	}
	return l, nil
}

// Compare returns a negative number if l is earlier in the ordering than
// other, zero if equal, and a positive number if later.
func (l Level) Compare(other Level) int {
	return levelRank[l] - levelRank[other]
}

// After reports whether l is strictly later in the ordering than other.
func (l Level) After(other Level) bool {
	return l.Compare(other) > 0
}

// PauseReason explains why an invoice's escalation was paused.
type PauseReason string

const (
	PauseReasonPaymentClaim PauseReason = "payment_claim"
	PauseReasonDispute      PauseReason = "dispute"
	PauseReasonManual       PauseReason = "manual"
)

// ParsePauseReason validates an externally supplied pause reason.
func ParsePauseReason(s string) (PauseReason, error) {
	switch r := PauseReason(s); r {
	case PauseReasonPaymentClaim, PauseReasonDispute, PauseReasonManual:
		return r, nil
	default:
		return "", fmt.Errorf("unknown pause reason %q", s)
	}
}

// EscalationState is the durable per-invoice collections record. One row per
// invoice, created lazily the first time the scan encounters it overdue and
// retained for audit after payment.
type EscalationState struct {
	InvoiceID       string      `json:"invoice_id"`
	CurrentLevel    Level       `json:"current_level"`
	IsPaused        bool        `json:"is_paused"`
	PauseReason     PauseReason `json:"pause_reason,omitempty"`
	PausedAt        *time.Time  `json:"paused_at,omitempty"`
	PauseUntil      *time.Time  `json:"pause_until,omitempty"`
	LastEscalatedAt *time.Time  `json:"last_escalated_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
