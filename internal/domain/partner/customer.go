package partner

import (
	"regexp"
	"time"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the operational status of a customer
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusInactive  CustomerStatus = "inactive"
	CustomerStatusSuspended CustomerStatus = "suspended" // Suspended due to credit issues
)

// ApprovalStatus represents where a customer sits in the onboarding review
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// Customer is the aggregate root for a credit customer.
//
// CreditLimit, CurrentBalance and AvailableBalance are derived projections:
// they must always be recomputable from the customer's invoice set and are
// refreshed by the balance reconciler on every mutating ledger operation.
type Customer struct {
	shared.BaseAggregateRoot
	Name                      string
	Email                     string
	Phone                     string
	MinimumPurchaseAmount     decimal.Decimal
	PaymentPlanDurationMonths int
	CreditLimit               decimal.Decimal
	CurrentBalance            decimal.Decimal
	AvailableBalance          decimal.Decimal
	Status                    CustomerStatus
	ApprovalStatus            ApprovalStatus
	ApprovedAt                *time.Time
}

// NewCustomer creates a self-registered customer awaiting admin approval.
// The customer cannot transact and carries no credit limit until approved.
func NewCustomer(name, email, phone string, minimumPurchase decimal.Decimal, planDurationMonths int) (*Customer, error) {
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
	}
	if err := validateCreditTerms(minimumPurchase, planDurationMonths); err != nil {
		return nil, err
	}

	customer := &Customer{
		BaseAggregateRoot:         shared.NewBaseAggregateRoot(),
		Name:                      name,
		Email:                     email,
		Phone:                     phone,
		MinimumPurchaseAmount:     minimumPurchase,
		PaymentPlanDurationMonths: planDurationMonths,
		CreditLimit:               decimal.Zero,
		CurrentBalance:            decimal.Zero,
		AvailableBalance:          decimal.Zero,
		Status:                    CustomerStatusInactive,
		ApprovalStatus:            ApprovalStatusPending,
	}

	customer.AddDomainEvent(NewCustomerRegisteredEvent(customer))

	return customer, nil
}

// NewApprovedCustomer creates a customer through the admin path: approved and
// active immediately, with the credit limit computed from the credit terms.
func NewApprovedCustomer(name, email, phone string, minimumPurchase decimal.Decimal, planDurationMonths int) (*Customer, error) {
	customer, err := NewCustomer(name, email, phone, minimumPurchase, planDurationMonths)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	customer.ApprovalStatus = ApprovalStatusApproved
	customer.ApprovedAt = &now
	customer.Status = CustomerStatusActive
	customer.CreditLimit = CalculateCreditLimit(minimumPurchase, planDurationMonths)
	customer.AvailableBalance = customer.CreditLimit
	customer.AddDomainEvent(NewCustomerApprovedEvent(customer))

	return customer, nil
}

// Approve transitions a pending customer to approved and active.
// When overrideLimit is nil the credit limit is derived from the credit terms.
func (c *Customer) Approve(overrideLimit *decimal.Decimal) error {
	if c.ApprovalStatus == ApprovalStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Customer is already approved")
	}

	limit := CalculateCreditLimit(c.MinimumPurchaseAmount, c.PaymentPlanDurationMonths)
	if overrideLimit != nil {
		if overrideLimit.IsNegative() {
			return shared.NewDomainError(shared.CodeValidation, "Credit limit cannot be negative")
		}
		limit = *overrideLimit
	}

	now := time.Now()
	c.ApprovalStatus = ApprovalStatusApproved
	c.ApprovedAt = &now
	c.Status = CustomerStatusActive
	c.CreditLimit = limit
	c.AvailableBalance = limit.Sub(c.CurrentBalance)
	if c.AvailableBalance.IsNegative() {
		c.AvailableBalance = decimal.Zero
	}
	c.UpdatedAt = now
	c.IncrementVersion()
	c.AddDomainEvent(NewCustomerApprovedEvent(c))

	return nil
}

// Reject marks a pending customer as rejected
func (c *Customer) Reject() error {
	if c.ApprovalStatus != ApprovalStatusPending {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Only pending customers can be rejected")
	}

	c.ApprovalStatus = ApprovalStatusRejected
	c.Status = CustomerStatusInactive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetStatus changes the operational status
func (c *Customer) SetStatus(status CustomerStatus) error {
	switch status {
	case CustomerStatusActive, CustomerStatusInactive, CustomerStatusSuspended:
	default:
		return shared.NewDomainError(shared.CodeValidation, "Invalid customer status")
	}
	if status == CustomerStatusActive && c.ApprovalStatus != ApprovalStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Customer must be approved before activation")
	}

	c.Status = status
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// UpdateCreditTerms changes the declared minimum purchase and plan duration
// and recomputes the derived credit limit.
func (c *Customer) UpdateCreditTerms(minimumPurchase decimal.Decimal, planDurationMonths int) error {
	if err := validateCreditTerms(minimumPurchase, planDurationMonths); err != nil {
		return err
	}

	c.MinimumPurchaseAmount = minimumPurchase
	c.PaymentPlanDurationMonths = planDurationMonths
	if c.ApprovalStatus == ApprovalStatusApproved {
		c.SetCreditLimit(CalculateCreditLimit(minimumPurchase, planDurationMonths))
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetCreditLimit overrides the credit limit and refreshes the available balance
func (c *Customer) SetCreditLimit(limit decimal.Decimal) {
	c.CreditLimit = limit
	c.AvailableBalance = limit.Sub(c.CurrentBalance)
	if c.AvailableBalance.IsNegative() {
		c.AvailableBalance = decimal.Zero
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// ApplyBalances installs reconciled balances computed from the invoice set.
// available = max(0, credit_limit - current); the clamp is part of the formula.
func (c *Customer) ApplyBalances(currentBalance decimal.Decimal) {
	if currentBalance.IsNegative() {
		currentBalance = decimal.Zero
	}
	available := c.CreditLimit.Sub(currentBalance)
	if available.IsNegative() {
		available = decimal.Zero
	}

	c.CurrentBalance = currentBalance
	c.AvailableBalance = available
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// CanTransact reports whether the customer may draw on their credit line
func (c *Customer) CanTransact() bool {
	return c.Status == CustomerStatusActive && c.ApprovalStatus == ApprovalStatusApproved
}

// HasAvailableCredit reports whether the available balance covers amount
func (c *Customer) HasAvailableCredit(amount decimal.Decimal) bool {
	return c.AvailableBalance.GreaterThanOrEqual(amount)
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeValidation, "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError(shared.CodeValidation, "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateCreditTerms(minimumPurchase decimal.Decimal, planDurationMonths int) error {
	if minimumPurchase.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Minimum purchase amount cannot be negative")
	}
	if planDurationMonths < 0 || planDurationMonths > 36 {
		return shared.NewDomainError(shared.CodeValidation, "Payment plan duration must be between 0 and 36 months")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError(shared.CodeValidation, "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError(shared.CodeValidation, "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError(shared.CodeValidation, "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError(shared.CodeValidation, "Invalid email format")
	}
	return nil
}
