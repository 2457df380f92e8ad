package ledger

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository defines persistence for Invoice aggregates
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	Update(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByCustomer returns every invoice owned by the customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)
	// FindOpenByCustomer returns the allocation candidate set: unpaid
	// invoices plus paid ones with an unsettled credit-repayment overlay,
	// ordered by due_date ascending with NULL due dates first
	FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)
	// FindOutstanding returns all non-paid invoices for the accrual sweep
	FindOutstanding(ctx context.Context) ([]*Invoice, error)
}

// PaymentRepository defines persistence for Payment records
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindByReference looks up a payment by external transaction reference
	// within one customer, for duplicate-delivery detection
	FindByReference(ctx context.Context, customerID uuid.UUID, reference string) (*Payment, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Payment, error)
}

// PayoutRepository defines persistence for Payout records
type PayoutRepository interface {
	Save(ctx context.Context, payout *Payout) error
	Update(ctx context.Context, payout *Payout) error
	// ExistsForInvoice guards the at-most-one-payout-per-invoice invariant
	ExistsForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) (*Payout, error)
}

// TransactionRepository stores the append-only money movement trail
type TransactionRepository interface {
	Save(ctx context.Context, transaction *Transaction) error
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Transaction, error)
}
