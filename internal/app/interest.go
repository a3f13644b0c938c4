/**
 * @description
 * Late payment interest calculator under the UK Late Payment of Commercial
 * Debts (Interest) Act 1998. Reminder emails and timeline metadata quote the
 * total owed (principal + statutory interest + fixed recovery cost) so
 * clients see the real cost of continued non-payment.
 *
 * Formula:
 *   daily interest = principal x (statutory 8% + BoE base rate) / 365
 *   total owed     = principal + daily interest x days overdue + fixed cost
 *
 * @notes
 * - Amounts are in pence throughout; interest is rounded to the nearest penny
 *   only at the end of each calculation.
 * - The Bank of England base rate changes periodically. It is configurable per
 *   calculation; the default matches the rate current as of November 2024.
 */

package app

import (
	"fmt"
	"math"
	"time"
)

const (
	// StatutoryInterestRate is fixed by the 1998 Act, in percent per annum.
	StatutoryInterestRate = 8.0

	// DefaultBankBaseRate is the Bank of England base rate in percent.
	DefaultBankBaseRate = 5.25
)

// Fixed debt recovery costs under the Act, tiered by principal (pence).
const (
	recoveryTier1MaxPence = 99_999    // up to £999.99 -> £40
	recoveryTier2MaxPence = 999_999   // up to £9,999.99 -> £70
	recoveryTier1FeePence = 4_000
	recoveryTier2FeePence = 7_000
	recoveryTier3FeePence = 10_000
)

// InterestCalculation is the breakdown of interest owed on one invoice.
type InterestCalculation struct {
	PrincipalPence   int64   `json:"principal_pence"`
	InterestRate     float64 `json:"interest_rate"` // annual percent
	BankBaseRate     float64 `json:"bank_base_rate"`
	StatutoryRate    float64 `json:"statutory_rate"`
	DaysOverdue      int     `json:"days_overdue"`
	DailyInterest    int64   `json:"daily_interest_pence"`
	InterestAccrued  int64   `json:"interest_accrued_pence"`
	FixedRecoveryFee int64   `json:"fixed_recovery_fee_pence"`
	TotalOwedPence   int64   `json:"total_owed_pence"`
}

// FixedRecoveryCost returns the statutory debt recovery fee in pence for a
// given principal.
func FixedRecoveryCost(principalPence int64) int64 {
	switch {
	case principalPence <= recoveryTier1MaxPence:
		return recoveryTier1FeePence
	case principalPence <= recoveryTier2MaxPence:
		return recoveryTier2FeePence
	default:
		return recoveryTier3FeePence
	}
}

// CalculateLateInterest computes the statutory interest breakdown for an
// overdue principal. baseRate is the BoE base rate in percent; pass
// DefaultBankBaseRate unless a historical rate applies.
func CalculateLateInterest(principalPence int64, daysOverdue int, baseRate float64) (InterestCalculation, error) {
	if principalPence <= 0 {
		return InterestCalculation{}, fmt.Errorf("principal must be greater than 0, got %d", principalPence)
	}
	if daysOverdue < 0 {
		return InterestCalculation{}, fmt.Errorf("days overdue must not be negative, got %d", daysOverdue)
	}

	annualRate := StatutoryInterestRate + baseRate
	dailyInterest := float64(principalPence) * (annualRate / 100) / 365
	accrued := dailyInterest * float64(daysOverdue)
	fee := FixedRecoveryCost(principalPence)
	total := principalPence + int64(math.Round(accrued)) + fee

	return InterestCalculation{
		PrincipalPence:   principalPence,
		InterestRate:     annualRate,
		BankBaseRate:     baseRate,
		StatutoryRate:    StatutoryInterestRate,
		DaysOverdue:      daysOverdue,
		DailyInterest:    int64(math.Round(dailyInterest)),
		InterestAccrued:  int64(math.Round(accrued)),
		FixedRecoveryFee: fee,
		TotalOwedPence:   total,
	}, nil
}

// InterestProjection is one day's snapshot of projected accrual.
type InterestProjection struct {
	Day             int       `json:"day"`
	Date            time.Time `json:"date"`
	InterestAccrued int64     `json:"interest_accrued_pence"`
	TotalOwedPence  int64     `json:"total_owed_pence"`
}

// ProjectInterestAccrual projects daily interest accrual from the due date
// over the given horizon. Useful for showing a client what the debt will cost
// if left unpaid.
func ProjectInterestAccrual(principalPence int64, dueDate time.Time, projectionDays int) []InterestProjection {
	annualRate := StatutoryInterestRate + DefaultBankBaseRate
	dailyInterest := float64(principalPence) * (annualRate / 100) / 365
	fee := FixedRecoveryCost(principalPence)

	projections := make([]InterestProjection, 0, projectionDays+1)
	for day := 0; day <= projectionDays; day++ {
		accrued := int64(math.Round(dailyInterest * float64(day)))
		projections = append(projections, InterestProjection{
			Day:             day,
			Date:            dueDate.AddDate(0, 0, day),
			InterestAccrued: accrued,
			TotalOwedPence:  principalPence + accrued + fee,
		})
	}
	return projections
}

// FormatPence renders a pence amount as a pounds string, e.g. "£1,234.56".
func FormatPence(pence int64) string {
	pounds := pence / 100
	rem := pence % 100
	if rem < 0 {
		rem = -rem
	}

	s := fmt.Sprintf("%d", pounds)
	if pounds < 0 {
		s = s[1:]
	}
	var grouped []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, c)
	}
	sign := ""
	if pence < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s£%s.%02d", sign, grouped, rem)
}
