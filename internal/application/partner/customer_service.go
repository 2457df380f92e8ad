package partner

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fscredit/backend/internal/application/store"
	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
)

// CustomerService handles customer onboarding and credit-term administration.
// Credit limit changes always leave an adjustment audit row and re-reconcile
// the customer's balances against the invoice set.
type CustomerService struct {
	uow      store.UnitOfWork
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCustomerService creates a CustomerService
func NewCustomerService(uow store.UnitOfWork, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		uow:      uow,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterCustomerRequest carries a self-service registration
type RegisterCustomerRequest struct {
	Name                      string          `validate:"required,max=200"`
	Email                     string          `validate:"required,email"`
	Phone                     string          `validate:"max=50"`
	MinimumPurchaseAmount     decimal.Decimal `validate:"required"`
	PaymentPlanDurationMonths int             `validate:"gte=0,lte=36"`
}

// Register creates a customer awaiting approval
func (s *CustomerService) Register(ctx context.Context, req RegisterCustomerRequest) (*partner.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}

	var customer *partner.Customer
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if existing, err := r.Customers.FindByEmail(ctx, req.Email); err == nil && existing != nil {
			return shared.NewDomainError(shared.CodeValidation, "Email is already registered")
		}

		c, err := partner.NewCustomer(req.Name, req.Email, req.Phone, req.MinimumPurchaseAmount, req.PaymentPlanDurationMonths)
		if err != nil {
			return err
		}
		if err := r.Customers.Save(ctx, c); err != nil {
			return err
		}
		if err := r.Events.SaveEvents(ctx, store.DrainEvents(c)...); err != nil {
			return err
		}

		customer = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer registered", zap.String("customer_id", customer.ID.String()))

	return customer, nil
}

// AdminCreate creates a customer through the admin path: approved, active,
// with the credit limit derived from the declared terms.
func (s *CustomerService) AdminCreate(ctx context.Context, req RegisterCustomerRequest, actor string) (*partner.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}

	var customer *partner.Customer
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if existing, err := r.Customers.FindByEmail(ctx, req.Email); err == nil && existing != nil {
			return shared.NewDomainError(shared.CodeValidation, "Email is already registered")
		}

		c, err := partner.NewApprovedCustomer(req.Name, req.Email, req.Phone, req.MinimumPurchaseAmount, req.PaymentPlanDurationMonths)
		if err != nil {
			return err
		}
		if err := r.Customers.Save(ctx, c); err != nil {
			return err
		}

		adj, err := partner.NewCreditLimitAdjustment(c.ID, decimal.Zero, c.CreditLimit, partner.AdjustmentTypeRecalculation, "admin creation", actor)
		if err != nil {
			return err
		}
		if err := r.Adjustments.Save(ctx, adj); err != nil {
			return err
		}
		if err := r.Events.SaveEvents(ctx, store.DrainEvents(c)...); err != nil {
			return err
		}

		customer = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Approve moves a pending customer through review. A nil overrideLimit
// derives the limit from the customer's credit terms.
func (s *CustomerService) Approve(ctx context.Context, customerID uuid.UUID, overrideLimit *decimal.Decimal, actor string) (*partner.Customer, error) {
	var customer *partner.Customer
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		c, err := r.Customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}

		previous := c.CreditLimit
		if err := c.Approve(overrideLimit); err != nil {
			return err
		}
		if err := r.Customers.Update(ctx, c); err != nil {
			return err
		}

		adjType := partner.AdjustmentTypeRecalculation
		if overrideLimit != nil {
			adjType = partner.AdjustmentTypeOverride
		}
		adj, err := partner.NewCreditLimitAdjustment(c.ID, previous, c.CreditLimit, adjType, "approval", actor)
		if err != nil {
			return err
		}
		if err := r.Adjustments.Save(ctx, adj); err != nil {
			return err
		}
		if err := r.Events.SaveEvents(ctx, store.DrainEvents(c)...); err != nil {
			return err
		}

		customer = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Reject marks a pending customer as rejected
func (s *CustomerService) Reject(ctx context.Context, customerID uuid.UUID) error {
	return s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		c, err := r.Customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		if err := c.Reject(); err != nil {
			return err
		}
		return r.Customers.Update(ctx, c)
	})
}

// SetStatus changes a customer's operational status
func (s *CustomerService) SetStatus(ctx context.Context, customerID uuid.UUID, status partner.CustomerStatus) error {
	return s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		c, err := r.Customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		if err := c.SetStatus(status); err != nil {
			return err
		}
		return r.Customers.Update(ctx, c)
	})
}

// AdjustCreditLimit installs an explicit new limit with an audit row and
// reconciles the customer's balances against the invoice set.
func (s *CustomerService) AdjustCreditLimit(ctx context.Context, customerID uuid.UUID, newLimit decimal.Decimal, reason, actor string) (*partner.CreditLimitAdjustment, error) {
	if newLimit.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Credit limit cannot be negative")
	}
	return s.applyLimitChange(ctx, customerID, partner.AdjustmentTypeOverride, reason, actor, func(c *partner.Customer) decimal.Decimal {
		return newLimit
	})
}

// AddCreditToWallet increases the customer's limit by amount, with an audit
// row, and reconciles.
func (s *CustomerService) AddCreditToWallet(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, reason, actor string) (*partner.CreditLimitAdjustment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Wallet credit must be positive")
	}
	return s.applyLimitChange(ctx, customerID, partner.AdjustmentTypeWalletCredit, reason, actor, func(c *partner.Customer) decimal.Decimal {
		return c.CreditLimit.Add(amount)
	})
}

func (s *CustomerService) applyLimitChange(ctx context.Context, customerID uuid.UUID, adjType partner.AdjustmentType, reason, actor string, newLimit func(*partner.Customer) decimal.Decimal) (*partner.CreditLimitAdjustment, error) {
	var adjustment *partner.CreditLimitAdjustment
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		c, err := r.Customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}

		previous := c.CreditLimit
		limit := newLimit(c)
		c.SetCreditLimit(limit)

		invoices, err := r.Invoices.FindByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		recon := ledger.ReconcileBalances(c, invoices)
		if err := r.Customers.Update(ctx, c); err != nil {
			return err
		}
		for _, inv := range recon.Normalized {
			if err := r.Invoices.Update(ctx, inv); err != nil {
				return err
			}
		}

		adj, err := partner.NewCreditLimitAdjustment(c.ID, previous, limit, adjType, reason, actor)
		if err != nil {
			return err
		}
		if err := r.Adjustments.Save(ctx, adj); err != nil {
			return err
		}
		if err := r.Events.SaveEvents(ctx, partner.NewCreditLimitAdjustedEvent(c.ID, previous, limit, reason, actor)); err != nil {
			return err
		}

		adjustment = adj
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("credit limit adjusted",
		zap.String("customer_id", customerID.String()),
		zap.String("new_limit", adjustment.NewLimit.String()))

	return adjustment, nil
}

// CreateBusiness registers a supplier
func (s *CustomerService) CreateBusiness(ctx context.Context, name, email string) (*partner.Business, error) {
	var business *partner.Business
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		b, err := partner.NewBusiness(name, email)
		if err != nil {
			return err
		}
		if err := r.Businesses.Save(ctx, b); err != nil {
			return err
		}
		business = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return business, nil
}

// ConfigureBusinessWebhook sets a supplier's event delivery endpoint
func (s *CustomerService) ConfigureBusinessWebhook(ctx context.Context, businessID uuid.UUID, url, secret string) error {
	return s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		b, err := r.Businesses.FindByID(ctx, businessID)
		if err != nil {
			return err
		}
		if err := b.ConfigureWebhook(url, secret); err != nil {
			return err
		}
		return r.Businesses.Update(ctx, b)
	})
}

// CreateBusinessCustomer records a buyer under a business
func (s *CustomerService) CreateBusinessCustomer(ctx context.Context, businessID uuid.UUID, name, email, phone string) (*partner.BusinessCustomer, error) {
	var bc *partner.BusinessCustomer
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if _, err := r.Businesses.FindByID(ctx, businessID); err != nil {
			return err
		}
		record, err := partner.NewBusinessCustomer(businessID, name, email, phone)
		if err != nil {
			return err
		}
		if err := r.BusinessCustomers.Save(ctx, record); err != nil {
			return err
		}
		bc = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bc, nil
}

// LinkBusinessCustomer attaches a platform customer to a buyer record
func (s *CustomerService) LinkBusinessCustomer(ctx context.Context, businessCustomerID, customerID uuid.UUID) error {
	return s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		bc, err := r.BusinessCustomers.FindByID(ctx, businessCustomerID)
		if err != nil {
			return err
		}
		if _, err := r.Customers.FindByID(ctx, customerID); err != nil {
			return err
		}
		if err := bc.LinkCustomer(customerID); err != nil {
			return err
		}
		if err := r.BusinessCustomers.Update(ctx, bc); err != nil {
			return err
		}
		return r.Events.SaveEvents(ctx, store.DrainEvents(bc)...)
	})
}

// GetCustomer loads one customer
func (s *CustomerService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*partner.Customer, error) {
	var customer *partner.Customer
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		c, err := r.Customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		customer = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}
