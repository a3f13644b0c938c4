package app

import (
	"testing"
	"time"
)

func TestCalculateLateInterest(t *testing.T) {
	// £1,500 principal, 20 days overdue at 8% + 5.25%.
	calc, err := CalculateLateInterest(150_000, 20, DefaultBankBaseRate)
	if err != nil {
		t.Fatalf("CalculateLateInterest returned error: %v", err)
	}

	if calc.InterestRate != 13.25 {
		t.Errorf("expected annual rate 13.25, got %v", calc.InterestRate)
	}
	// daily = 150000 * 0.1325 / 365 = 54.45 pence
	if calc.DailyInterest != 54 {
		t.Errorf("expected daily interest 54 pence, got %d", calc.DailyInterest)
	}
	if calc.InterestAccrued != 1089 {
		t.Errorf("expected accrued interest 1089 pence, got %d", calc.InterestAccrued)
	}
	if calc.FixedRecoveryFee != 7_000 {
		t.Errorf("expected £70 recovery fee, got %d", calc.FixedRecoveryFee)
	}
	if calc.TotalOwedPence != 150_000+1089+7_000 {
		t.Errorf("unexpected total owed %d", calc.TotalOwedPence)
	}
}

func TestCalculateLateInterest_RejectsInvalidInput(t *testing.T) {
	if _, err := CalculateLateInterest(0, 10, DefaultBankBaseRate); err == nil {
		t.Error("expected error for zero principal")
	}
	if _, err := CalculateLateInterest(100_000, -1, DefaultBankBaseRate); err == nil {
		t.Error("expected error for negative days overdue")
	}
}

func TestFixedRecoveryCost_Tiers(t *testing.T) {
	cases := []struct {
		principal int64
		want      int64
	}{
		{50_000, 4_000},     // £500 -> £40
		{99_999, 4_000},     // £999.99 -> £40
		{100_000, 7_000},    // £1,000 -> £70
		{999_999, 7_000},    // £9,999.99 -> £70
		{1_000_000, 10_000}, // £10,000 -> £100
	}
	for _, tc := range cases {
		if got := FixedRecoveryCost(tc.principal); got != tc.want {
			t.Errorf("FixedRecoveryCost(%d) = %d, want %d", tc.principal, got, tc.want)
		}
	}
}

func TestProjectInterestAccrual(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	projections := ProjectInterestAccrual(150_000, due, 30)

	if len(projections) != 31 {
		t.Fatalf("expected 31 daily snapshots, got %d", len(projections))
	}
	if projections[0].InterestAccrued != 0 {
		t.Errorf("expected zero interest on day 0, got %d", projections[0].InterestAccrued)
	}
	if projections[0].TotalOwedPence != 150_000+7_000 {
		t.Errorf("expected day 0 total to be principal plus fee, got %d", projections[0].TotalOwedPence)
	}
	if !projections[30].Date.Equal(due.AddDate(0, 0, 30)) {
		t.Errorf("expected day 30 date %v, got %v", due.AddDate(0, 0, 30), projections[30].Date)
	}
	if projections[30].InterestAccrued <= projections[15].InterestAccrued {
		t.Error("expected interest to accrue monotonically")
	}
}

func TestFormatPence(t *testing.T) {
	cases := []struct {
		pence int64
		want  string
	}{
		{0, "£0.00"},
		{50, "£0.50"},
		{150_000, "£1,500.00"},
		{123_456, "£1,234.56"},
		{100_000_000, "£1,000,000.00"},
		{-50, "-£0.50"},
	}
	for _, tc := range cases {
		if got := FormatPence(tc.pence); got != tc.want {
			t.Errorf("FormatPence(%d) = %q, want %q", tc.pence, got, tc.want)
		}
	}
}
