/**
 * @description
 * This file defines the per-user automation settings that gate what the
 * collections engine is allowed to do on a freelancer's behalf. Settings are
 * owned by the main application and read-only here.
 *
 * @notes
 * - Defaults fail open on global automation (a missing row means the engine
 *   runs) but fail closed on consent-gated channels: an unconsented SMS is a
 *   compliance risk, a skipped reminder is not.
 */

package domain

// ChannelSettings holds per-channel opt-ins for a freelancer.
type ChannelSettings struct {
	EmailEnabled  bool `json:"email_enabled"`
	SMSEnabled    bool `json:"sms_enabled"`
	PhoneEnabled  bool `json:"phone_enabled"`
	AgencyEnabled bool `json:"agency_enabled"`
}

// PauseConditions holds the events that automatically pause escalation.
type PauseConditions struct {
	OnPaymentClaim bool `json:"on_payment_claim"`
	OnDispute      bool `json:"on_dispute"`
}

// Allows reports whether the user's settings permit a pause for the given
// reason. Manual pauses are always allowed; claim- and dispute-triggered
// pauses honour the user's toggles.
func (p PauseConditions) Allows(reason PauseReason) bool {
	switch reason {
	case PauseReasonPaymentClaim:
		return p.OnPaymentClaim
	case PauseReasonDispute:
		return p.OnDispute
	default:
		return true
	}
}

// AutomationConfig is the resolved collections configuration for one user.
type AutomationConfig struct {
	UserID          string          `json:"user_id"`
	Enabled         bool            `json:"enabled"`
	Channels        ChannelSettings `json:"channels"`
	PauseConditions PauseConditions `json:"pause_conditions"`
}

// DefaultAutomationConfig returns the configuration applied when a user has
// never saved collections settings.
func DefaultAutomationConfig(userID string) AutomationConfig {
	return AutomationConfig{
		UserID:  userID,
		Enabled: true,
		Channels: ChannelSettings{
			EmailEnabled:  true,
			SMSEnabled:    false,
			PhoneEnabled:  false,
			AgencyEnabled: false,
		},
		PauseConditions: PauseConditions{
			OnPaymentClaim: true,
			OnDispute:      true,
		},
	}
}
