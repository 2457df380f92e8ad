package persistence

import (
	"context"

	"github.com/fscredit/backend/internal/application/store"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/fscredit/backend/internal/infrastructure/event"
	"gorm.io/gorm"
)

// GormStore implements store.UnitOfWork on a PostgreSQL database. Repository
// writes and outbox entries for the emitted events share one transaction, so
// a failure anywhere rolls back the whole unit of work.
type GormStore struct {
	db        *Database
	publisher *event.OutboxPublisher
}

// NewGormStore creates a new transactional store
func NewGormStore(db *Database, publisher *event.OutboxPublisher) *GormStore {
	return &GormStore{
		db:        db,
		publisher: publisher,
	}
}

// Atomic executes fn against a transactionally bound repository set
func (s *GormStore) Atomic(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repos := store.Repos{
			Customers:         NewGormCustomerRepository(tx),
			Businesses:        NewGormBusinessRepository(tx),
			BusinessCustomers: NewGormBusinessCustomerRepository(tx),
			Adjustments:       NewGormCreditLimitAdjustmentRepository(tx),
			Invoices:          NewGormInvoiceRepository(tx),
			Payments:          NewGormPaymentRepository(tx),
			Payouts:           NewGormPayoutRepository(tx),
			Transactions:      NewGormTransactionRepository(tx),
			Events:            &txEventSink{tx: tx, publisher: s.publisher},
		}
		return fn(ctx, repos)
	})
}

// txEventSink writes domain events to the outbox using the unit of work's
// transaction
type txEventSink struct {
	tx        *gorm.DB
	publisher *event.OutboxPublisher
}

func (s *txEventSink) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	return s.publisher.PublishWithTx(ctx, s.tx, events...)
}

var _ store.UnitOfWork = (*GormStore)(nil)
