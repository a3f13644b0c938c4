package app

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/recoup/collections-service/internal/domain"
)

func templateInvoice() domain.Invoice {
	return domain.Invoice{
		ID:          "inv1",
		Reference:   "INV-1042",
		Amount:      150_000,
		DueDate:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ClientName:  "Acme Ltd",
		ClientEmail: "accounts@acme.example",
	}
}

func TestRenderEmailReminder_GentleQuotesPrincipal(t *testing.T) {
	calc, _ := CalculateLateInterest(150_000, 7, DefaultBankBaseRate)
	msg := RenderEmailReminder(domain.LevelGentle, templateInvoice(), 7, calc, "Recoup")

	if !strings.Contains(msg.Subject, "INV-1042") {
		t.Errorf("expected subject to reference the invoice, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "£1,500.00") {
		t.Error("expected body to quote the principal amount")
	}
	if !strings.Contains(msg.Body, "Acme Ltd") {
		t.Error("expected body to address the client")
	}
	if strings.Contains(msg.Body, "Act 1998") {
		t.Error("gentle reminder should not mention statutory interest")
	}
}

func TestRenderEmailReminder_FirmIncludesInterestBreakdown(t *testing.T) {
	calc, _ := CalculateLateInterest(150_000, 20, DefaultBankBaseRate)
	msg := RenderEmailReminder(domain.LevelFirm, templateInvoice(), 20, calc, "Recoup")

	if !strings.Contains(msg.Body, "Act 1998") {
		t.Error("firm reminder should cite the Late Payment Act")
	}
	if !strings.Contains(msg.Body, FormatPence(calc.TotalOwedPence)) {
		t.Error("firm reminder should quote the total owed")
	}
}

func TestRenderEmailReminder_FinalEscalatesTone(t *testing.T) {
	calc, _ := CalculateLateInterest(150_000, 35, DefaultBankBaseRate)
	msg := RenderEmailReminder(domain.LevelFinal, templateInvoice(), 35, calc, "Recoup")

	if !strings.Contains(msg.Subject, "FINAL NOTICE") {
		t.Errorf("expected FINAL NOTICE subject, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "IMMEDIATE ACTION REQUIRED") {
		t.Error("expected final reminder to demand immediate action")
	}
}

func TestRenderSMSReminder_FitsSingleSegment(t *testing.T) {
	calc, _ := CalculateLateInterest(150_000, 35, DefaultBankBaseRate)
	inv := templateInvoice()
	inv.Reference = "INV-EXTREMELY-LONG-REFERENCE-NUMBER-2026-0001"

	body := RenderSMSReminder(domain.LevelFinal, inv, 35, calc, "A Very Long Business Trading Name Limited")
	if got := utf8.RuneCountInString(body); got > 160 {
		t.Fatalf("expected SMS body within 160 characters, got %d", got)
	}
	if !utf8.ValidString(body) {
		t.Fatal("expected truncation to preserve valid UTF-8")
	}
	if !strings.HasSuffix(body, "...") {
		t.Fatalf("expected truncated body to end with ellipsis, got %q", body)
	}

	short := RenderSMSReminder(domain.LevelGentle, templateInvoice(), 7, calc, "Recoup")
	if !strings.Contains(short, "INV-1042") {
		t.Errorf("expected SMS to reference the invoice, got %q", short)
	}
}

func TestRenderSMSReminder_TruncationNeverSplitsAPoundSign(t *testing.T) {
	// Pick a principal whose formatted total sits right at the cut point so
	// the multi-byte currency symbol straddles the old byte boundary.
	inv := templateInvoice()
	inv.Reference = strings.Repeat("X", 120)
	for days := 30; days <= 40; days++ {
		calc, _ := CalculateLateInterest(inv.Amount, days, DefaultBankBaseRate)
		body := RenderSMSReminder(domain.LevelFinal, inv, days, calc, "Recoup Collections Limited")
		if !utf8.ValidString(body) {
			t.Fatalf("day %d: truncation produced invalid UTF-8: %q", days, body)
		}
		if utf8.RuneCountInString(body) > 160 {
			t.Fatalf("day %d: body exceeds 160 characters", days)
		}
	}
}
