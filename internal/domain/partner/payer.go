package partner

import (
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PayerKind distinguishes how an invoice's payer is identified
type PayerKind string

const (
	// PayerDirect names a platform customer directly
	PayerDirect PayerKind = "direct"
	// PayerDeferred names a business customer; the platform customer is
	// resolved when that buyer first pays
	PayerDeferred PayerKind = "deferred"
)

// PayerRef is a tagged reference to whoever owes an invoice
type PayerRef struct {
	Kind PayerKind
	ID   uuid.UUID
}

// DirectPayer references a platform customer
func DirectPayer(customerID uuid.UUID) PayerRef {
	return PayerRef{Kind: PayerDirect, ID: customerID}
}

// DeferredPayer references a business customer not yet linked to a platform customer
func DeferredPayer(businessCustomerID uuid.UUID) PayerRef {
	return PayerRef{Kind: PayerDeferred, ID: businessCustomerID}
}

// Validate checks the reference is well-formed
func (p PayerRef) Validate() error {
	switch p.Kind {
	case PayerDirect, PayerDeferred:
	default:
		return shared.NewDomainError(shared.CodeValidation, "Invalid payer kind")
	}
	if p.ID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Payer ID is required")
	}
	return nil
}
