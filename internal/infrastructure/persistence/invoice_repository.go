package persistence

import (
	"context"
	"errors"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/fscredit/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements ledger.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save creates a new invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *ledger.Invoice) error {
	return r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error
}

// Update persists changes to an existing invoice
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *ledger.Invoice) error {
	return r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(invoice)).Error
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns every invoice owned by the customer
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ledger.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

// FindOpenByCustomer returns the allocation candidate set for a customer:
// unpaid invoices plus paid ones whose credit repayment is still unsettled.
// Invoices without a due date sort first so undated obligations are always
// settled before dated ones.
func (r *GormInvoiceRepository) FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ledger.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where(
			r.db.Where("status <> ?", ledger.InvoiceStatusPaid).
				Or("status = ? AND credit_repaid_status IN ?", ledger.InvoiceStatusPaid, []ledger.CreditRepaidStatus{
					ledger.CreditRepaidPending,
					ledger.CreditRepaidPartiallyPaid,
				}),
		).
		Order("due_date ASC NULLS FIRST").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

// FindOutstanding returns all non-paid invoices for the accrual sweep
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context) ([]*ledger.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []ledger.InvoiceStatus{
			ledger.InvoiceStatusPending,
			ledger.InvoiceStatusInGrace,
			ledger.InvoiceStatusOverdue,
		}).
		Order("due_date ASC NULLS FIRST").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(rows), nil
}

func toDomainInvoices(rows []models.InvoiceModel) []*ledger.Invoice {
	invoices := make([]*ledger.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices
}

var _ ledger.InvoiceRepository = (*GormInvoiceRepository)(nil)
