package partner

import (
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustmentType classifies why a customer's credit limit changed
type AdjustmentType string

const (
	AdjustmentTypeRecalculation AdjustmentType = "recalculation" // Derived from credit terms
	AdjustmentTypeOverride      AdjustmentType = "override"      // Explicit admin limit
	AdjustmentTypeWalletCredit  AdjustmentType = "wallet_credit" // Limit increased by a wallet top-up
)

// CreditLimitAdjustment is an append-only audit record of a credit limit
// change. Rows are written once and never mutated; balances are still derived
// from the invoice set, not from this trail.
type CreditLimitAdjustment struct {
	shared.BaseEntity
	CustomerID    uuid.UUID
	PreviousLimit decimal.Decimal
	NewLimit      decimal.Decimal
	Type          AdjustmentType
	Reason        string
	Actor         string
}

// NewCreditLimitAdjustment records a credit limit change
func NewCreditLimitAdjustment(customerID uuid.UUID, previous, newLimit decimal.Decimal, adjType AdjustmentType, reason, actor string) (*CreditLimitAdjustment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer ID is required")
	}
	switch adjType {
	case AdjustmentTypeRecalculation, AdjustmentTypeOverride, AdjustmentTypeWalletCredit:
	default:
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid adjustment type")
	}
	if actor == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Actor is required")
	}

	return &CreditLimitAdjustment{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		PreviousLimit: previous,
		NewLimit:      newLimit,
		Type:          adjType,
		Reason:        reason,
		Actor:         actor,
	}, nil
}
