package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// GracePeriodDays is the window after the due date during which an
	// invoice is in_grace rather than overdue
	GracePeriodDays = 30
)

// MonthlyInterestRate is the flat monthly rate applied upfront over the
// payment plan duration
var MonthlyInterestRate = decimal.NewFromFloat(0.035)

// AccrualResult reports the outcome of bringing one invoice up to date
type AccrualResult struct {
	InterestAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Status         InvoiceStatus
	MonthsOverdue  int
	Changed        bool
}

// UpfrontInterest computes the flat interest charged over the whole plan:
// principal * monthly_rate * plan_duration_months. Exact decimal arithmetic;
// rounding happens only at presentation.
func UpfrontInterest(principal decimal.Decimal, planDurationMonths int) decimal.Decimal {
	if planDurationMonths <= 0 {
		return decimal.Zero
	}
	return principal.Mul(MonthlyInterestRate).Mul(decimal.NewFromInt(int64(planDurationMonths)))
}

// AccrueInterest brings an invoice's interest, totals and status up to date
// for the given clock. Idempotent: repeated calls with the same now and no
// intervening payment leave the invoice unchanged after the first call.
//
// Paid invoices are frozen; the only write ever made to one is backfilling
// the upfront interest on legacy rows where it was never recorded.
func AccrueInterest(inv *Invoice, now time.Time) AccrualResult {
	if inv.Status == InvoiceStatusPaid {
		return accruePaid(inv, now)
	}

	interest := UpfrontInterest(inv.PrincipalAmount, inv.PaymentPlanDurationMonths)
	total := inv.PrincipalAmount.Add(interest)
	remaining := total.Sub(inv.PaidAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	status := InvoiceStatusPending
	monthsOverdue := 0
	if inv.DueDate != nil {
		due := *inv.DueDate
		graceEnd := due.AddDate(0, 0, GracePeriodDays)
		if inv.GracePeriodEndDate != nil {
			graceEnd = *inv.GracePeriodEndDate
		}

		switch {
		case now.Before(due):
			status = InvoiceStatusPending
		case !now.After(graceEnd):
			status = InvoiceStatusInGrace
			monthsOverdue = monthsOverdueSince(due, now)
		default:
			status = InvoiceStatusOverdue
			monthsOverdue = monthsOverdueSince(due, now)
		}
	}

	changed := !inv.InterestAmount.Equal(interest) ||
		!inv.TotalAmount.Equal(total) ||
		!inv.RemainingBalance.Equal(remaining) ||
		inv.Status != status ||
		inv.MonthsOverdue != monthsOverdue

	if changed {
		wasOverdue := inv.Status == InvoiceStatusOverdue
		inv.InterestAmount = interest
		inv.TotalAmount = total
		inv.RemainingBalance = remaining
		inv.Status = status
		inv.MonthsOverdue = monthsOverdue
		inv.UpdatedAt = now
		inv.IncrementVersion()
		if status == InvoiceStatusOverdue && !wasOverdue {
			inv.AddDomainEvent(NewInvoiceOverdueEvent(inv))
		}
	}

	return AccrualResult{
		InterestAmount: interest,
		TotalAmount:    total,
		Status:         status,
		MonthsOverdue:  monthsOverdue,
		Changed:        changed,
	}
}

// accruePaid freezes paid invoices except for the legacy interest backfill
func accruePaid(inv *Invoice, now time.Time) AccrualResult {
	changed := false
	if inv.InterestAmount.IsZero() && inv.PaymentPlanDurationMonths > 0 {
		inv.InterestAmount = UpfrontInterest(inv.PrincipalAmount, inv.PaymentPlanDurationMonths)
		inv.TotalAmount = inv.PrincipalAmount.Add(inv.InterestAmount)
		inv.UpdatedAt = now
		inv.IncrementVersion()
		changed = true
	}

	return AccrualResult{
		InterestAmount: inv.InterestAmount,
		TotalAmount:    inv.TotalAmount,
		Status:         InvoiceStatusPaid,
		MonthsOverdue:  inv.MonthsOverdue,
		Changed:        changed,
	}
}

// monthsOverdueSince counts whole months elapsed from due to now, with a
// floor of one: an invoice inside its first month past due is one month
// overdue, not zero.
func monthsOverdueSince(due, now time.Time) int {
	if now.Before(due) {
		return 0
	}
	months := 0
	for !due.AddDate(0, months+1, 0).After(now) {
		months++
	}
	if months < 1 {
		return 1
	}
	return months
}
