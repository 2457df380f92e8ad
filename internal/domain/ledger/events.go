package ledger

import (
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the ledger context. invoice.created, payment.received and
// payout.completed are also delivered to supplier webhooks.
const (
	EventInvoiceCreated  = "invoice.created"
	EventInvoicePaid     = "invoice.paid"
	EventInvoiceOverdue  = "invoice.overdue"
	EventPaymentReceived = "payment.received"
	EventPayoutCompleted = "payout.completed"
)

// InvoiceCreatedEvent is emitted when a new invoice enters the ledger
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	BusinessID      uuid.UUID       `json:"business_id"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	Reference       string          `json:"reference"`
}

// NewInvoiceCreatedEvent creates an InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceCreated, "Invoice", inv.ID),
		BusinessID:      inv.BusinessID,
		PrincipalAmount: inv.PrincipalAmount,
		Reference:       inv.Reference,
	}
}

// InvoicePaidEvent is emitted when an invoice reaches paid status
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	BusinessID  uuid.UUID       `json:"business_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
}

// NewInvoicePaidEvent creates an InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoicePaid, "Invoice", inv.ID),
		BusinessID:      inv.BusinessID,
		TotalAmount:     inv.TotalAmount,
		PaidAmount:      inv.PaidAmount,
	}
}

// InvoiceOverdueEvent is emitted when accrual moves an invoice past its
// grace window
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	MonthsOverdue    int             `json:"months_overdue"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// NewInvoiceOverdueEvent creates an InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventInvoiceOverdue, "Invoice", inv.ID),
		MonthsOverdue:    inv.MonthsOverdue,
		RemainingBalance: inv.RemainingBalance,
	}
}

// PaymentReceivedEvent is emitted after a repayment is allocated
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Applied    decimal.Decimal `json:"applied"`
	Excess     decimal.Decimal `json:"excess"`
	InvoiceID  *uuid.UUID      `json:"invoice_id,omitempty"`
}

// NewPaymentReceivedEvent creates a PaymentReceivedEvent
func NewPaymentReceivedEvent(p *Payment) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentReceived, "Payment", p.ID),
		CustomerID:      p.CustomerID,
		Amount:          p.Amount,
		Applied:         p.AppliedAmount,
		Excess:          p.ExcessAmount,
		InvoiceID:       p.InvoiceID,
	}
}

// PayoutCompletedEvent is emitted once a supplier payout is dispatched
type PayoutCompletedEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	BusinessID uuid.UUID       `json:"business_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewPayoutCompletedEvent creates a PayoutCompletedEvent
func NewPayoutCompletedEvent(p *Payout) *PayoutCompletedEvent {
	return &PayoutCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPayoutCompleted, "Payout", p.ID),
		InvoiceID:       p.InvoiceID,
		BusinessID:      p.BusinessID,
		Amount:          p.Amount,
	}
}
