/**
 * @description
 * Reminder message templates for each escalation level. The dispatcher fills
 * these with invoice details and the statutory interest breakdown before
 * handing the payload to the outbound channel clients.
 */

package app

import (
	"fmt"
	"unicode/utf8"

	"github.com/recoup/collections-service/internal/domain"
)

const smsCharacterLimit = 160

// ReminderMessage is a rendered reminder ready for a channel client.
type ReminderMessage struct {
	Subject string
	Body    string
}

// RenderEmailReminder builds the email subject and body for an escalation
// level. Tone hardens as the level rises; amounts quote the statutory total
// owed including interest and the fixed recovery cost.
func RenderEmailReminder(level domain.Level, inv domain.Invoice, daysOverdue int, calc InterestCalculation, businessName string) ReminderMessage {
	total := FormatPence(calc.TotalOwedPence)
	principal := FormatPence(inv.Amount)
	due := inv.DueDate.Format("2 January 2006")

	switch level {
	case domain.LevelGentle:
		return ReminderMessage{
			Subject: fmt.Sprintf("Payment Reminder - Invoice #%s - %s", inv.Reference, principal),
			Body: fmt.Sprintf(
				"Dear %s,\n\n"+
					"This is a friendly reminder that invoice #%s for %s was due on %s.\n\n"+
					"If you've already sent the payment, please disregard this message. "+
					"If not, we'd appreciate payment at your earliest convenience.\n\n"+
					"Invoice Details:\n"+
					"- Invoice Number: #%s\n"+
					"- Amount Due: %s\n"+
					"- Original Due Date: %s\n"+
					"- Days Overdue: %d\n\n"+
					"Best regards,\n%s",
				inv.ClientName, inv.Reference, principal, due,
				inv.Reference, principal, due, daysOverdue, businessName),
		}
	case domain.LevelFirm:
		return ReminderMessage{
			Subject: fmt.Sprintf("Overdue Notice - Invoice #%s - Action Required", inv.Reference),
			Body: fmt.Sprintf(
				"Dear %s,\n\n"+
					"Invoice #%s for %s is now %d days overdue.\n\n"+
					"Payment Details:\n"+
					"- Original Amount: %s\n"+
					"- Statutory Interest Accrued: %s\n"+
					"- Fixed Recovery Cost: %s\n"+
					"- Total Now Due: %s\n\n"+
					"Interest is charged under the Late Payment of Commercial Debts (Interest) "+
					"Act 1998 and accrues at %s per day until payment is received.\n\n"+
					"Please arrange payment within 48 hours to avoid further action.\n\n"+
					"Regards,\n%s\nCollections",
				inv.ClientName, inv.Reference, principal, daysOverdue,
				principal, FormatPence(calc.InterestAccrued), FormatPence(calc.FixedRecoveryFee), total,
				FormatPence(calc.DailyInterest), businessName),
		}
	case domain.LevelFinal:
		return ReminderMessage{
			Subject: fmt.Sprintf("FINAL NOTICE - Invoice #%s - %s Now Due", inv.Reference, total),
			Body: fmt.Sprintf(
				"Dear %s,\n\n"+
					"IMMEDIATE ACTION REQUIRED\n\n"+
					"Despite previous reminders, invoice #%s remains unpaid.\n\n"+
					"Account Status:\n"+
					"- Total Outstanding: %s\n"+
					"- Days Overdue: %d\n"+
					"- Interest Applied: %s\n\n"+
					"You must take action within 5 days to avoid referral to a debt "+
					"collection agency and possible legal action.\n\n"+
					"%s\nCollections",
				inv.ClientName, inv.Reference, total, daysOverdue,
				FormatPence(calc.InterestAccrued), businessName),
		}
	case domain.LevelAgency:
		return ReminderMessage{
			Subject: fmt.Sprintf("NOTICE OF REFERRAL - Invoice #%s", inv.Reference),
			Body: fmt.Sprintf(
				"Dear %s,\n\n"+
					"Invoice #%s for %s is %d days overdue and is being referred to a "+
					"registered debt collection agency.\n\n"+
					"The total outstanding, including statutory interest and recovery "+
					"costs, is %s. Payment in full before referral completes will stop "+
					"the process.\n\n"+
					"%s\nCollections",
				inv.ClientName, inv.Reference, principal, daysOverdue, total, businessName),
		}
	default:
		return ReminderMessage{}
	}
}

// RenderSMSReminder builds the SMS body for an escalation level, truncated to
// fit a single 160-character segment.
func RenderSMSReminder(level domain.Level, inv domain.Invoice, daysOverdue int, calc InterestCalculation, businessName string) string {
	var body string
	switch level {
	case domain.LevelFinal, domain.LevelAgency:
		body = fmt.Sprintf("FINAL NOTICE from %s: invoice #%s (%s) is %d days overdue. Pay now to avoid escalation.",
			businessName, inv.Reference, FormatPence(calc.TotalOwedPence), daysOverdue)
	default:
		body = fmt.Sprintf("%s: invoice #%s for %s is %d days overdue. Please arrange payment.",
			businessName, inv.Reference, FormatPence(calc.TotalOwedPence), daysOverdue)
	}

	// Truncate on rune boundaries: the pound sign is multi-byte and a byte
	// slice could cut it in half.
	if utf8.RuneCountInString(body) > smsCharacterLimit {
		runes := []rune(body)
		body = string(runes[:smsCharacterLimit-3]) + "..."
	}
	return body
}
