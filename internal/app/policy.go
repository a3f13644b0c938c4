/**
 * @description
 * Escalation policy for the collections engine. Pure functions mapping days
 * overdue to an escalation level and governing which notification channels
 * fire at each level. Keeping the policy free of I/O makes the batch runner's
 * decisions independently testable.
 */

package app

import (
	"github.com/recoup/collections-service/internal/domain"
)

// Day-overdue boundaries for each escalation level.
const (
	gentleThresholdDays = 5
	firmThresholdDays   = 15
	finalThresholdDays  = 30
	agencyThresholdDays = 60
)

// LevelForDaysOverdue maps days overdue to the escalation level an invoice
// should be at. Callers must not pass negative values; the batch runner skips
// not-yet-due invoices before consulting the policy.
func LevelForDaysOverdue(days int) domain.Level {
	switch {
	case days >= agencyThresholdDays:
		return domain.LevelAgency
	case days >= finalThresholdDays:
		return domain.LevelFinal
	case days >= firmThresholdDays:
		return domain.LevelFirm
	case days >= gentleThresholdDays:
		return domain.LevelGentle
	default:
		return domain.LevelPending
	}
}

// ShouldEscalate reports whether an invoice at currentLevel must advance for
// the given days overdue. Levels only ever move forward; if cron runs were
// missed the invoice jumps straight to the policy level in one step.
func ShouldEscalate(currentLevel domain.Level, daysOverdue int) bool {
	return LevelForDaysOverdue(daysOverdue).After(currentLevel)
}

// ChannelsForLevel returns the fixed channel set dispatched at each level.
// Channel opt-ins and consent are applied on top of this by the runner.
func ChannelsForLevel(level domain.Level) []string {
	switch level {
	case domain.LevelGentle:
		return []string{domain.ChannelEmail}
	case domain.LevelFirm, domain.LevelFinal:
		return []string{domain.ChannelEmail, domain.ChannelSMS}
	case domain.LevelAgency:
		return []string{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPhone}
	default:
		return nil
	}
}
