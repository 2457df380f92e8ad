package ledger

import (
	"time"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the processing state of a repayment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is one repayment event from a customer. It is immutable once
// completed; AppliedAmount and ExcessAmount record how the allocator
// distributed it so no money disappears from the accounting result.
type Payment struct {
	shared.BaseEntity
	CustomerID           uuid.UUID
	InvoiceID            *uuid.UUID
	Amount               decimal.Decimal
	AppliedAmount        decimal.Decimal
	ExcessAmount         decimal.Decimal
	Status               PaymentStatus
	TransactionReference string
}

// NewPayment creates a pending repayment record
func NewPayment(customerID uuid.UUID, amount decimal.Decimal, transactionReference string) (*Payment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}

	return &Payment{
		BaseEntity:           shared.NewBaseEntity(),
		CustomerID:           customerID,
		Amount:               amount,
		AppliedAmount:        decimal.Zero,
		ExcessAmount:         decimal.Zero,
		Status:               PaymentStatusPending,
		TransactionReference: transactionReference,
	}, nil
}

// Complete records the allocation outcome on the payment
func (p *Payment) Complete(applied, excess decimal.Decimal, lastInvoiceID *uuid.UUID) {
	p.AppliedAmount = applied
	p.ExcessAmount = excess
	p.InvoiceID = lastInvoiceID
	p.Status = PaymentStatusCompleted
	p.UpdatedAt = time.Now()
}
