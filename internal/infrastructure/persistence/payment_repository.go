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

// GormPaymentRepository implements ledger.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Save creates a new payment record
func (r *GormPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference looks up a payment by external transaction reference within
// one customer. Used to detect duplicate webhook deliveries of the same
// payment notification.
func (r *GormPaymentRepository) FindByReference(ctx context.Context, customerID uuid.UUID, reference string) (*ledger.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND transaction_reference = ?", customerID, reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns all payments made by a customer, newest first
func (r *GormPaymentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ledger.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	payments := make([]*ledger.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}

var _ ledger.PaymentRepository = (*GormPaymentRepository)(nil)

// GormPayoutRepository implements ledger.PayoutRepository using GORM
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewGormPayoutRepository creates a new GormPayoutRepository
func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// Save creates a new payout record. The unique index on invoice_id rejects a
// second payout for the same invoice at the database level.
func (r *GormPayoutRepository) Save(ctx context.Context, payout *ledger.Payout) error {
	return r.db.WithContext(ctx).Create(models.PayoutModelFromDomain(payout)).Error
}

// Update persists changes to an existing payout
func (r *GormPayoutRepository) Update(ctx context.Context, payout *ledger.Payout) error {
	return r.db.WithContext(ctx).Save(models.PayoutModelFromDomain(payout)).Error
}

// ExistsForInvoice reports whether a payout has already been created for the invoice
func (r *GormPayoutRepository) ExistsForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PayoutModel{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByInvoice finds the payout for an invoice
func (r *GormPayoutRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) (*ledger.Payout, error) {
	var model models.PayoutModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ ledger.PayoutRepository = (*GormPayoutRepository)(nil)

// GormTransactionRepository implements ledger.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Save appends a transaction to the money movement trail
func (r *GormTransactionRepository) Save(ctx context.Context, transaction *ledger.Transaction) error {
	return r.db.WithContext(ctx).Create(models.TransactionModelFromDomain(transaction)).Error
}

// FindByCustomer returns the customer's transaction history, newest first
func (r *GormTransactionRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ledger.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	transactions := make([]*ledger.Transaction, len(rows))
	for i := range rows {
		transactions[i] = rows[i].ToDomain()
	}
	return transactions, nil
}

var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
