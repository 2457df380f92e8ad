package ledger

import (
	"time"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the fulfillment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"  // Offer not yet acted on; no exposure
	InvoiceStatusInGrace InvoiceStatus = "in_grace" // Past due but inside the grace window
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusPaid    InvoiceStatus = "paid" // Terminal; credit-repayment overlay takes over
)

// CreditRepaidStatus tracks the repayment of platform-advanced credit.
// It only becomes meaningful once the invoice reaches paid status; the empty
// value means the overlay has not started.
type CreditRepaidStatus string

const (
	CreditRepaidNone          CreditRepaidStatus = ""
	CreditRepaidPending       CreditRepaidStatus = "pending"
	CreditRepaidPartiallyPaid CreditRepaidStatus = "partially_paid"
	CreditRepaidFullyPaid     CreditRepaidStatus = "fully_paid"
)

// Invoice is the unit of credit. It carries two ledgers: the fulfillment
// ledger (principal + interest vs. paid_amount) while unpaid, and once paid a
// credit-repayment overlay where RemainingBalance tracks what the customer
// still owes the platform for the advance (TotalAmount - CreditRepaidAmount).
type Invoice struct {
	shared.BaseAggregateRoot
	Reference                 string
	BusinessID                uuid.UUID
	CustomerID                *uuid.UUID
	BusinessCustomerID        *uuid.UUID
	PrincipalAmount           decimal.Decimal
	InterestAmount            decimal.Decimal
	TotalAmount               decimal.Decimal
	PaidAmount                decimal.Decimal
	RemainingBalance          decimal.Decimal
	PurchaseDate              time.Time
	DueDate                   *time.Time
	GracePeriodEndDate        *time.Time
	PaymentPlanDurationMonths int
	Status                    InvoiceStatus
	MonthsOverdue             int
	CreditRepaidStatus        CreditRepaidStatus
	CreditRepaidAmount        decimal.Decimal
	CreditRepaidAt            *time.Time
	PaidAt                    *time.Time
}

// NewInvoiceParams carries the resolved inputs for invoice creation.
// The payer is resolved by the application layer before construction; either
// CustomerID or BusinessCustomerID must be set.
type NewInvoiceParams struct {
	Reference          string
	BusinessID         uuid.UUID
	CustomerID         *uuid.UUID
	BusinessCustomerID *uuid.UUID
	Principal          decimal.Decimal
	PurchaseDate       time.Time
	DueDate            *time.Time
	PlanDurationMonths int
}

// NewInvoice creates an invoice in pending status. RemainingBalance starts at
// the principal; interest is added by the first accrual. No customer balance
// is touched and no payout is issued at creation time.
func NewInvoice(p NewInvoiceParams) (*Invoice, error) {
	if p.BusinessID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Supplier business ID is required")
	}
	if p.CustomerID == nil && p.BusinessCustomerID == nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invoice requires a payer")
	}
	if !p.Principal.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Principal amount must be positive")
	}
	if p.PlanDurationMonths < 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment plan duration cannot be negative")
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = time.Now()
	}

	inv := &Invoice{
		BaseAggregateRoot:         shared.NewBaseAggregateRoot(),
		Reference:                 p.Reference,
		BusinessID:                p.BusinessID,
		CustomerID:                p.CustomerID,
		BusinessCustomerID:        p.BusinessCustomerID,
		PrincipalAmount:           p.Principal,
		InterestAmount:            decimal.Zero,
		TotalAmount:               p.Principal,
		PaidAmount:                decimal.Zero,
		RemainingBalance:          p.Principal,
		PurchaseDate:              p.PurchaseDate,
		DueDate:                   p.DueDate,
		PaymentPlanDurationMonths: p.PlanDurationMonths,
		Status:                    InvoiceStatusPending,
		CreditRepaidAmount:        decimal.Zero,
	}
	if p.DueDate != nil {
		graceEnd := p.DueDate.AddDate(0, 0, GracePeriodDays)
		inv.GracePeriodEndDate = &graceEnd
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// DefaultDueDate derives the due date from the purchase date and the payer's
// payment plan when none is supplied at creation.
func DefaultDueDate(purchaseDate time.Time, planDurationMonths int) time.Time {
	if planDurationMonths <= 0 {
		planDurationMonths = 1
	}
	return purchaseDate.AddDate(0, planDurationMonths, 0)
}

// IsPaid reports whether the invoice reached terminal fulfillment status
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsFullyRepaid reports whether the credit-repayment overlay is settled
func (i *Invoice) IsFullyRepaid() bool {
	return i.CreditRepaidStatus == CreditRepaidFullyPaid
}

// CreditOwed returns what the customer still owes the platform on a paid
// invoice, floored at zero.
func (i *Invoice) CreditOwed() decimal.Decimal {
	owed := i.TotalAmount.Sub(i.CreditRepaidAmount)
	if owed.IsNegative() {
		return decimal.Zero
	}
	return owed
}

// LinkPayer attaches the platform customer once the payer is known.
// Linking an already-linked invoice to a different customer is rejected.
func (i *Invoice) LinkPayer(customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Customer ID is required")
	}
	if i.CustomerID != nil {
		if *i.CustomerID == customerID {
			return nil
		}
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Invoice is already linked to a customer")
	}

	i.CustomerID = &customerID
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// ForceInGrace promotes a pending invoice into the grace window so its
// exposure counts immediately. Used on financed purchases and on admin
// approval of a pending invoice.
func (i *Invoice) ForceInGrace() error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Paid invoices cannot re-enter the grace window")
	}
	if i.Status != InvoiceStatusPending {
		return nil
	}

	i.Status = InvoiceStatusInGrace
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// MarkPaidViaCheckout records the business-facing settlement of a financed
// invoice: the supplier is owed the principal only (interest stays with the
// platform), the invoice becomes paid, and the full total flips into the
// credit-repayment overlay as what the customer now owes back.
func (i *Invoice) MarkPaidViaCheckout(now time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Invoice is already paid")
	}

	i.PaidAmount = i.PrincipalAmount
	i.Status = InvoiceStatusPaid
	i.RemainingBalance = i.TotalAmount
	i.CreditRepaidStatus = CreditRepaidPending
	i.CreditRepaidAmount = decimal.Zero
	i.PaidAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePaidEvent(i))

	return nil
}

// MarkPaidDirectly is the administrative override: the customer's obligation
// is settled in full outside the allocator, so both ledgers close at once.
func (i *Invoice) MarkPaidDirectly(now time.Time) error {
	if i.Status == InvoiceStatusPaid && i.IsFullyRepaid() {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Invoice is already settled")
	}

	i.PaidAmount = i.TotalAmount
	i.RemainingBalance = decimal.Zero
	i.Status = InvoiceStatusPaid
	i.CreditRepaidStatus = CreditRepaidFullyPaid
	i.CreditRepaidAmount = i.TotalAmount
	i.CreditRepaidAt = &now
	if i.PaidAt == nil {
		i.PaidAt = &now
	}
	i.UpdatedAt = now
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePaidEvent(i))

	return nil
}

// applyFulfillmentPayment applies an amount to the unpaid ledger and returns
// how much was actually absorbed. Callers accrue first.
func (i *Invoice) applyFulfillmentPayment(amount decimal.Decimal, now time.Time) decimal.Decimal {
	apply := decimal.Min(amount, i.RemainingBalance)
	if !apply.IsPositive() {
		return decimal.Zero
	}

	i.PaidAmount = i.PaidAmount.Add(apply)
	i.RemainingBalance = i.RemainingBalance.Sub(apply)

	if !i.RemainingBalance.IsPositive() {
		i.RemainingBalance = decimal.Zero
		i.Status = InvoiceStatusPaid
		i.PaidAt = &now
		if i.CreditRepaidStatus == CreditRepaidNone {
			i.CreditRepaidStatus = CreditRepaidPending
			i.CreditRepaidAmount = decimal.Zero
		}
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	} else if i.Status == InvoiceStatusPending {
		// a touched invoice must count toward exposure
		i.Status = InvoiceStatusInGrace
	}

	i.UpdatedAt = now
	i.IncrementVersion()

	return apply
}

// applyCreditRepayment applies an amount to the credit-repayment overlay of a
// paid invoice and returns how much was absorbed.
func (i *Invoice) applyCreditRepayment(amount decimal.Decimal, now time.Time) decimal.Decimal {
	owed := i.CreditOwed()
	apply := decimal.Min(amount, owed)
	if !apply.IsPositive() {
		return decimal.Zero
	}

	i.CreditRepaidAmount = i.CreditRepaidAmount.Add(apply)
	if i.CreditRepaidAmount.GreaterThanOrEqual(i.TotalAmount) {
		i.CreditRepaidAmount = i.TotalAmount
		i.CreditRepaidStatus = CreditRepaidFullyPaid
		i.CreditRepaidAt = &now
	} else {
		i.CreditRepaidStatus = CreditRepaidPartiallyPaid
	}
	i.RemainingBalance = i.CreditOwed()
	i.UpdatedAt = now
	i.IncrementVersion()

	return apply
}
