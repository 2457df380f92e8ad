package ledger

import (
	"sort"
	"time"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationResult reports how a repayment was distributed.
// Applied + Remainder always equals the original amount; the remainder is
// reported back to the caller, never credited anywhere.
type AllocationResult struct {
	Applied       decimal.Decimal
	Remainder     decimal.Decimal
	Touched       []*Invoice
	LastInvoiceID *uuid.UUID
}

// AllocatePayment distributes a repayment across a customer's open
// obligations in earliest-obligation-first order: due_date ascending with
// NULL due dates sorted first. Paid invoices absorb into their
// credit-repayment overlay; unpaid invoices are accrued first and absorb into
// the fulfillment ledger.
//
// When target is non-nil the whole amount goes to that invoice only.
// Callers hold the customer lock and reconcile balances afterwards.
func AllocatePayment(invoices []*Invoice, amount decimal.Decimal, target *Invoice, now time.Time) (*AllocationResult, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Repayment amount must be positive")
	}

	candidates := invoices
	if target != nil {
		candidates = []*Invoice{target}
	} else {
		candidates = openObligations(invoices)
		sortByDueDateNullsFirst(candidates)
	}

	result := &AllocationResult{
		Applied:   decimal.Zero,
		Remainder: amount,
	}

	for _, inv := range candidates {
		if !result.Remainder.IsPositive() {
			break
		}

		var apply decimal.Decimal
		if inv.Status == InvoiceStatusPaid {
			apply = inv.applyCreditRepayment(result.Remainder, now)
		} else {
			if inv.DueDate != nil {
				AccrueInterest(inv, now)
			}
			apply = inv.applyFulfillmentPayment(result.Remainder, now)
		}

		if apply.IsPositive() {
			result.Applied = result.Applied.Add(apply)
			result.Remainder = result.Remainder.Sub(apply)
			result.Touched = append(result.Touched, inv)
			id := inv.ID
			result.LastInvoiceID = &id
		}
	}

	return result, nil
}

// openObligations filters to invoices that can still absorb money: anything
// unpaid, plus paid invoices whose credit-repayment overlay is not settled.
func openObligations(invoices []*Invoice) []*Invoice {
	open := make([]*Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.Status != InvoiceStatusPaid || inv.CreditRepaidStatus != CreditRepaidFullyPaid {
			open = append(open, inv)
		}
	}
	return open
}

// sortByDueDateNullsFirst orders by due_date ascending with NULL due dates
// first. The NULLs-first ordering is deliberate and preserved exactly.
func sortByDueDateNullsFirst(invoices []*Invoice) {
	sort.SliceStable(invoices, func(a, b int) bool {
		da, db := invoices[a].DueDate, invoices[b].DueDate
		switch {
		case da == nil && db == nil:
			return false
		case da == nil:
			return true
		case db == nil:
			return false
		default:
			return da.Before(*db)
		}
	})
}
