/**
 * @description
 * This file defines the invoice model as seen by the collections-service.
 * Invoices are owned by the main application; this service reads them by
 * status and mutates only the status field (to 'in_collections') when an
 * invoice enters the collections flow.
 *
 * @notes
 * - Amounts are stored as `int64` in pence to avoid floating-point
 *   inaccuracies with financial data.
 */

package domain

import (
	"time"
)

// Invoice statuses relevant to the collections engine. Other statuses exist
// in the main application but are never returned by the overdue scan.
const (
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusInCollections = "in_collections"
)

// Invoice represents an overdue invoice candidate for escalation.
type Invoice struct {
	ID           string    `json:"id"`
	FreelancerID string    `json:"freelancer_id"`
	Reference    string    `json:"reference"`
	Amount       int64     `json:"amount"` // in pence
	Currency     string    `json:"currency"`
	DueDate      time.Time `json:"due_date"`
	Status       string    `json:"status"`
	ClientName   string    `json:"client_name"`
	ClientEmail  string    `json:"client_email"`
	ClientPhone  string    `json:"client_phone"`
	SMSOptedOut  bool      `json:"sms_opted_out"`
}

// DaysOverdue returns the number of whole days elapsed since the invoice's
// due date at the given instant. Negative when the invoice is not yet due.
func (i Invoice) DaysOverdue(now time.Time) int {
	return int(now.Sub(i.DueDate).Hours() / 24)
}
