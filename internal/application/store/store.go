// Package store defines the unit-of-work boundary for ledger mutations.
// Every financial operation runs inside one Atomic call: all repository
// writes and the outbox entries for emitted events commit together or not
// at all.
package store

import (
	"context"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
)

// EventSink persists domain events to the outbox within the current unit of work
type EventSink interface {
	SaveEvents(ctx context.Context, events ...shared.DomainEvent) error
}

// Repos bundles the repositories bound to one unit of work
type Repos struct {
	Customers         partner.CustomerRepository
	Businesses        partner.BusinessRepository
	BusinessCustomers partner.BusinessCustomerRepository
	Adjustments       partner.CreditLimitAdjustmentRepository
	Invoices          ledger.InvoiceRepository
	Payments          ledger.PaymentRepository
	Payouts           ledger.PayoutRepository
	Transactions      ledger.TransactionRepository
	Events            EventSink
}

// UnitOfWork executes a function against a transactionally bound repository
// set. If fn returns an error nothing is persisted.
type UnitOfWork interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}

// DrainEvents collects and clears pending domain events from aggregates
func DrainEvents(aggregates ...shared.AggregateRoot) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	return events
}
