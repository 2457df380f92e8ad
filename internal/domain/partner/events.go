package partner

import (
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the partner context
const (
	EventCustomerRegistered     = "customer.registered"
	EventCustomerApproved       = "customer.approved"
	EventCreditLimitAdjusted    = "customer.credit_limit_adjusted"
	EventBusinessCustomerLinked = "business_customer.linked"
)

// CustomerRegisteredEvent is emitted when a customer self-registers
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewCustomerRegisteredEvent creates a CustomerRegisteredEvent
func NewCustomerRegisteredEvent(c *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerRegistered, "Customer", c.ID),
		Name:            c.Name,
		Email:           c.Email,
	}
}

// CustomerApprovedEvent is emitted when a customer passes review
type CustomerApprovedEvent struct {
	shared.BaseDomainEvent
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

// NewCustomerApprovedEvent creates a CustomerApprovedEvent
func NewCustomerApprovedEvent(c *Customer) *CustomerApprovedEvent {
	return &CustomerApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerApproved, "Customer", c.ID),
		CreditLimit:     c.CreditLimit,
	}
}

// CreditLimitAdjustedEvent is emitted when a customer's limit changes
type CreditLimitAdjustedEvent struct {
	shared.BaseDomainEvent
	PreviousLimit decimal.Decimal `json:"previous_limit"`
	NewLimit      decimal.Decimal `json:"new_limit"`
	Reason        string          `json:"reason"`
	Actor         string          `json:"actor"`
}

// NewCreditLimitAdjustedEvent creates a CreditLimitAdjustedEvent
func NewCreditLimitAdjustedEvent(customerID uuid.UUID, previous, newLimit decimal.Decimal, reason, actor string) *CreditLimitAdjustedEvent {
	return &CreditLimitAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCreditLimitAdjusted, "Customer", customerID),
		PreviousLimit:   previous,
		NewLimit:        newLimit,
		Reason:          reason,
		Actor:           actor,
	}
}

// BusinessCustomerLinkedEvent is emitted when a buyer record is attached to a
// platform customer
type BusinessCustomerLinkedEvent struct {
	shared.BaseDomainEvent
	BusinessID uuid.UUID `json:"business_id"`
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewBusinessCustomerLinkedEvent creates a BusinessCustomerLinkedEvent
func NewBusinessCustomerLinkedEvent(bc *BusinessCustomer) *BusinessCustomerLinkedEvent {
	return &BusinessCustomerLinkedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventBusinessCustomerLinked, "BusinessCustomer", bc.ID),
		BusinessID:      bc.BusinessID,
		CustomerID:      *bc.CustomerID,
	}
}
