package ledger

import (
	"time"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus represents the disbursement state of a payout
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

// Payout is the disbursement of one invoice's principal to its supplier.
// At most one payout ever exists per invoice; callers check the repository
// before creating one.
type Payout struct {
	shared.BaseEntity
	InvoiceID    uuid.UUID
	BusinessID   uuid.UUID
	Amount       decimal.Decimal
	Status       PayoutStatus
	Reference    string
	FailureError string
	DispatchedAt *time.Time
}

// NewPayout creates a pending payout of an invoice's principal
func NewPayout(invoiceID, businessID uuid.UUID, amount decimal.Decimal) (*Payout, error) {
	if invoiceID == uuid.Nil || businessID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invoice and business IDs are required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payout amount must be positive")
	}

	return &Payout{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  invoiceID,
		BusinessID: businessID,
		Amount:     amount,
		Status:     PayoutStatusPending,
	}, nil
}

// MarkCompleted records a successful disbursement
func (p *Payout) MarkCompleted(reference string) {
	now := time.Now()
	p.Status = PayoutStatusCompleted
	p.Reference = reference
	p.DispatchedAt = &now
	p.UpdatedAt = now
}

// MarkFailed records a failed disbursement attempt
func (p *Payout) MarkFailed(reason string) {
	p.Status = PayoutStatusFailed
	p.FailureError = reason
	p.UpdatedAt = time.Now()
}
