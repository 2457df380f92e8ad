package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fscredit/backend/internal/application/store"
	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/fscredit/backend/internal/infrastructure/event"
	"github.com/fscredit/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.CustomerModel{},
		&models.BusinessModel{},
		&models.BusinessCustomerModel{},
		&models.CreditLimitAdjustmentModel{},
		&models.InvoiceModel{},
		&models.PaymentModel{},
		&models.PayoutModel{},
		&models.TransactionModel{},
		&models.OutboxEntryModel{},
	)
	require.NoError(t, err)

	return db
}

func newTestCustomer(t *testing.T, email string) *partner.Customer {
	t.Helper()
	c, err := partner.NewApprovedCustomer("Ada Obi", email, "+2348012345678", decimal.NewFromInt(10000), 6)
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

func newTestInvoice(t *testing.T, customerID uuid.UUID, principal int64, due *time.Time) *ledger.Invoice {
	t.Helper()
	inv, err := ledger.NewInvoice(ledger.NewInvoiceParams{
		Reference:          "INV-" + uuid.NewString()[:8],
		BusinessID:         uuid.New(),
		CustomerID:         &customerID,
		Principal:          decimal.NewFromInt(principal),
		PurchaseDate:       time.Now().AddDate(0, -1, 0),
		DueDate:            due,
		PlanDurationMonths: 6,
	})
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

func TestGormCustomerRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	customer := newTestCustomer(t, "ada@example.com")
	require.NoError(t, repo.Save(ctx, customer))

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, customer.Email, found.Email)
		assert.True(t, found.CreditLimit.Equal(customer.CreditLimit))
		assert.Equal(t, customer.Version, found.Version)
	})

	t.Run("find by email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, customer.ID, found.ID)
	})

	t.Run("not found maps to domain error", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("update round trips mutations", func(t *testing.T) {
		found, err := repo.FindByID(ctx, customer.ID)
		require.NoError(t, err)
		found.CurrentBalance = decimal.NewFromInt(12345)
		found.IncrementVersion()
		require.NoError(t, repo.Update(ctx, found))

		again, err := repo.FindByID(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, again.CurrentBalance.Equal(decimal.NewFromInt(12345)))
		assert.Equal(t, found.Version, again.Version)
	})

	t.Run("list filters by approval status", func(t *testing.T) {
		pending, err := partner.NewCustomer("Bisi Ade", "bisi@example.com", "", decimal.NewFromInt(5000), 3)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, pending))

		filter := shared.DefaultFilter()
		filter.Filters["approval_status"] = partner.ApprovalStatusPending
		page, err := repo.List(ctx, filter)
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, pending.ID, page.Items[0].ID)
	})
}

func TestGormInvoiceRepository_OpenSetOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	early := time.Now().AddDate(0, 0, 10)
	late := time.Now().AddDate(0, 2, 0)

	undated := newTestInvoice(t, customerID, 10000, nil)
	dueLate := newTestInvoice(t, customerID, 20000, &late)
	dueEarly := newTestInvoice(t, customerID, 30000, &early)

	settled := newTestInvoice(t, customerID, 40000, &early)
	require.NoError(t, settled.MarkPaidDirectly(time.Now()))
	settled.ClearDomainEvents()

	for _, inv := range []*ledger.Invoice{undated, dueLate, dueEarly, settled} {
		require.NoError(t, repo.Save(ctx, inv))
	}

	open, err := repo.FindOpenByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, open, 3, "fully settled invoice is excluded")

	assert.Equal(t, undated.ID, open[0].ID, "invoices without a due date come first")
	assert.Equal(t, dueEarly.ID, open[1].ID)
	assert.Equal(t, dueLate.ID, open[2].ID)
}

func TestGormInvoiceRepository_OpenSetIncludesCreditOverlay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	inv := newTestInvoice(t, customerID, 25000, nil)
	require.NoError(t, inv.ForceInGrace())
	res, err := ledger.AllocatePayment([]*ledger.Invoice{inv}, decimal.NewFromInt(25000), nil, time.Now())
	require.NoError(t, err)
	require.True(t, res.Applied.Equal(decimal.NewFromInt(25000)))
	inv.ClearDomainEvents()
	require.Equal(t, ledger.InvoiceStatusPaid, inv.Status)
	require.Equal(t, ledger.CreditRepaidPending, inv.CreditRepaidStatus)

	require.NoError(t, repo.Save(ctx, inv))

	open, err := repo.FindOpenByCustomer(ctx, customerID)
	require.NoError(t, err)
	require.Len(t, open, 1, "paid invoice with unsettled credit repayment stays in the open set")
	assert.Equal(t, inv.ID, open[0].ID)
}

func TestGormInvoiceRepository_FindOutstanding(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	open := newTestInvoice(t, uuid.New(), 15000, nil)
	require.NoError(t, open.ForceInGrace())
	open.ClearDomainEvents()

	paid := newTestInvoice(t, uuid.New(), 20000, nil)
	require.NoError(t, paid.MarkPaidDirectly(time.Now()))
	paid.ClearDomainEvents()

	require.NoError(t, repo.Save(ctx, open))
	require.NoError(t, repo.Save(ctx, paid))

	outstanding, err := repo.FindOutstanding(ctx)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, open.ID, outstanding[0].ID)
}

func TestGormPaymentRepository_FindByReference(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	payment, err := ledger.NewPayment(customerID, decimal.NewFromInt(5000), "TX-001")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, payment))

	found, err := repo.FindByReference(ctx, customerID, "TX-001")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, found.ID)

	_, err = repo.FindByReference(ctx, uuid.New(), "TX-001")
	assert.True(t, shared.IsNotFound(err), "reference scope is per customer")
}

func TestGormPayoutRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPayoutRepository(db)
	ctx := context.Background()
	invoiceID := uuid.New()

	exists, err := repo.ExistsForInvoice(ctx, invoiceID)
	require.NoError(t, err)
	assert.False(t, exists)

	payout, err := ledger.NewPayout(invoiceID, uuid.New(), decimal.NewFromInt(50000))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, payout))

	exists, err = repo.ExistsForInvoice(ctx, invoiceID)
	require.NoError(t, err)
	assert.True(t, exists)

	second, err := ledger.NewPayout(invoiceID, uuid.New(), decimal.NewFromInt(50000))
	require.NoError(t, err)
	assert.Error(t, repo.Save(ctx, second), "unique index rejects a second payout per invoice")
}

func newTestStore(db *gorm.DB) *GormStore {
	publisher := event.NewOutboxPublisher(event.NewDomainEventSerializer())
	return NewGormStore(&Database{DB: db}, publisher)
}

func TestGormStore_AtomicRollback(t *testing.T) {
	db := setupTestDB(t)
	gs := newTestStore(db)
	ctx := context.Background()

	boom := errors.New("boom")
	customer := newTestCustomer(t, "ada@example.com")

	err := gs.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Customers.Save(ctx, customer); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewGormCustomerRepository(db).FindByID(ctx, customer.ID)
	assert.True(t, shared.IsNotFound(err), "rollback discards the save")
}

func TestGormStore_AtomicSavesEventsWithWrites(t *testing.T) {
	db := setupTestDB(t)
	gs := newTestStore(db)
	ctx := context.Background()

	customer := newTestCustomer(t, "ada@example.com")
	registered := partner.NewCustomerRegisteredEvent(customer)

	err := gs.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Customers.Save(ctx, customer); err != nil {
			return err
		}
		return r.Events.SaveEvents(ctx, registered)
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEntryModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var row models.OutboxEntryModel
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, partner.EventCustomerRegistered, row.EventType)
	assert.Equal(t, customer.ID, row.AggregateID)
	assert.Equal(t, shared.OutboxStatusPending, row.Status)
}
