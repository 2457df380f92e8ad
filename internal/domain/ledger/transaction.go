package ledger

import (
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a money movement
type TransactionType string

const (
	TransactionTypeCreditPurchase TransactionType = "credit_purchase"
	TransactionTypeRepayment      TransactionType = "repayment"
	TransactionTypePayout         TransactionType = "payout"
	TransactionTypeRefund         TransactionType = "refund"
)

// Transaction is an append-only audit record of a money movement. Rows are
// written once and never mutated; balances are derived from invoices, never
// from this trail.
type Transaction struct {
	shared.BaseEntity
	CustomerID  *uuid.UUID
	InvoiceID   *uuid.UUID
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
}

// NewTransaction records a money movement
func NewTransaction(txType TransactionType, amount decimal.Decimal, customerID, invoiceID *uuid.UUID, description string) (*Transaction, error) {
	switch txType {
	case TransactionTypeCreditPurchase, TransactionTypeRepayment, TransactionTypePayout, TransactionTypeRefund:
	default:
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid transaction type")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Transaction amount must be positive")
	}

	return &Transaction{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		InvoiceID:   invoiceID,
		Type:        txType,
		Amount:      amount,
		Description: description,
	}, nil
}
