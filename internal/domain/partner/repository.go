package partner

import (
	"context"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines persistence for Customer aggregates
type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Customer], error)
}

// BusinessRepository defines persistence for Business aggregates
type BusinessRepository interface {
	Save(ctx context.Context, business *Business) error
	Update(ctx context.Context, business *Business) error
	FindByID(ctx context.Context, id uuid.UUID) (*Business, error)
}

// BusinessCustomerRepository defines persistence for BusinessCustomer records
type BusinessCustomerRepository interface {
	Save(ctx context.Context, bc *BusinessCustomer) error
	Update(ctx context.Context, bc *BusinessCustomer) error
	FindByID(ctx context.Context, id uuid.UUID) (*BusinessCustomer, error)
	FindByBusiness(ctx context.Context, businessID uuid.UUID) ([]*BusinessCustomer, error)
}

// CreditLimitAdjustmentRepository stores the append-only adjustment trail
type CreditLimitAdjustmentRepository interface {
	Save(ctx context.Context, adjustment *CreditLimitAdjustment) error
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CreditLimitAdjustment, error)
}
