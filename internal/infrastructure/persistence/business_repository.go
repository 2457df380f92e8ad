package persistence

import (
	"context"
	"errors"

	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/fscredit/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBusinessRepository implements partner.BusinessRepository using GORM
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewGormBusinessRepository creates a new GormBusinessRepository
func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// Save creates or updates a business
func (r *GormBusinessRepository) Save(ctx context.Context, business *partner.Business) error {
	return r.db.WithContext(ctx).Save(models.BusinessModelFromDomain(business)).Error
}

// Update persists changes to an existing business
func (r *GormBusinessRepository) Update(ctx context.Context, business *partner.Business) error {
	return r.db.WithContext(ctx).Save(models.BusinessModelFromDomain(business)).Error
}

// FindByID finds a business by its ID
func (r *GormBusinessRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Business, error) {
	var model models.BusinessModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ partner.BusinessRepository = (*GormBusinessRepository)(nil)

// GormBusinessCustomerRepository implements partner.BusinessCustomerRepository using GORM
type GormBusinessCustomerRepository struct {
	db *gorm.DB
}

// NewGormBusinessCustomerRepository creates a new GormBusinessCustomerRepository
func NewGormBusinessCustomerRepository(db *gorm.DB) *GormBusinessCustomerRepository {
	return &GormBusinessCustomerRepository{db: db}
}

// Save creates or updates a business customer record
func (r *GormBusinessCustomerRepository) Save(ctx context.Context, bc *partner.BusinessCustomer) error {
	return r.db.WithContext(ctx).Save(models.BusinessCustomerModelFromDomain(bc)).Error
}

// Update persists changes to an existing business customer record
func (r *GormBusinessCustomerRepository) Update(ctx context.Context, bc *partner.BusinessCustomer) error {
	return r.db.WithContext(ctx).Save(models.BusinessCustomerModelFromDomain(bc)).Error
}

// FindByID finds a business customer record by its ID
func (r *GormBusinessCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.BusinessCustomer, error) {
	var model models.BusinessCustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBusiness returns every buyer record registered under a business
func (r *GormBusinessCustomerRepository) FindByBusiness(ctx context.Context, businessID uuid.UUID) ([]*partner.BusinessCustomer, error) {
	var rows []models.BusinessCustomerModel
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*partner.BusinessCustomer, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}

var _ partner.BusinessCustomerRepository = (*GormBusinessCustomerRepository)(nil)

// GormCreditLimitAdjustmentRepository implements partner.CreditLimitAdjustmentRepository using GORM
type GormCreditLimitAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormCreditLimitAdjustmentRepository creates a new GormCreditLimitAdjustmentRepository
func NewGormCreditLimitAdjustmentRepository(db *gorm.DB) *GormCreditLimitAdjustmentRepository {
	return &GormCreditLimitAdjustmentRepository{db: db}
}

// Save appends an adjustment to the audit trail
func (r *GormCreditLimitAdjustmentRepository) Save(ctx context.Context, adjustment *partner.CreditLimitAdjustment) error {
	return r.db.WithContext(ctx).Create(models.CreditLimitAdjustmentModelFromDomain(adjustment)).Error
}

// FindByCustomer returns all adjustments for a customer, newest first
func (r *GormCreditLimitAdjustmentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*partner.CreditLimitAdjustment, error) {
	var rows []models.CreditLimitAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*partner.CreditLimitAdjustment, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}

var _ partner.CreditLimitAdjustmentRepository = (*GormCreditLimitAdjustmentRepository)(nil)
