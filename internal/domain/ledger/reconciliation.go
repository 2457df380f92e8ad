package ledger

import (
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// ReconcileResult reports a customer's recomputed exposure.
// Normalized lists the paid invoices whose stored RemainingBalance drifted
// from the overlay formula and was rewritten; only those need persisting.
type ReconcileResult struct {
	UnpaidExposure   decimal.Decimal
	CreditNotRepaid  decimal.Decimal
	CurrentBalance   decimal.Decimal
	AvailableBalance decimal.Decimal
	Normalized       []*Invoice
}

// ReconcileBalances recomputes a customer's current and available balance
// from their full invoice set and installs the result on the aggregate.
//
// current = Σ remaining over non-paid, non-pending invoices
//         + Σ max(0, total - credit_repaid) over paid, not fully repaid ones.
// Pending invoices are offers not yet acted on and contribute nothing.
func ReconcileBalances(customer *partner.Customer, invoices []*Invoice) ReconcileResult {
	result := ReconcileResult{
		UnpaidExposure:  decimal.Zero,
		CreditNotRepaid: decimal.Zero,
	}

	for _, inv := range invoices {
		switch {
		case inv.Status == InvoiceStatusPending:
			// no exposure until acted on
		case inv.Status != InvoiceStatusPaid:
			result.UnpaidExposure = result.UnpaidExposure.Add(inv.RemainingBalance)
		case inv.CreditRepaidStatus != CreditRepaidFullyPaid:
			owed := inv.CreditOwed()
			result.CreditNotRepaid = result.CreditNotRepaid.Add(owed)
			if !inv.RemainingBalance.Equal(owed) {
				inv.RemainingBalance = owed
				inv.IncrementVersion()
				result.Normalized = append(result.Normalized, inv)
			}
		}
	}

	result.CurrentBalance = result.UnpaidExposure.Add(result.CreditNotRepaid)
	customer.ApplyBalances(result.CurrentBalance)
	result.AvailableBalance = customer.AvailableBalance

	return result
}
