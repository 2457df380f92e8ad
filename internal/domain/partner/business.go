package partner

import (
	"time"

	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Business is a supplier on the platform: it sells on credit and receives
// payouts of invoice principal once an invoice is financed or paid.
type Business struct {
	shared.BaseAggregateRoot
	Name          string
	Email         string
	WebhookURL    string
	WebhookSecret string
}

// NewBusiness creates a new supplier
func NewBusiness(name, email string) (*Business, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Business name cannot be empty")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	return &Business{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
	}, nil
}

// ConfigureWebhook sets the endpoint and signing secret for event delivery
func (b *Business) ConfigureWebhook(url, secret string) error {
	if url == "" {
		return shared.NewDomainError(shared.CodeValidation, "Webhook URL cannot be empty")
	}
	if secret == "" {
		return shared.NewDomainError(shared.CodeValidation, "Webhook secret cannot be empty")
	}

	b.WebhookURL = url
	b.WebhookSecret = secret
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// HasWebhook reports whether the business has a delivery endpoint configured
func (b *Business) HasWebhook() bool {
	return b.WebhookURL != "" && b.WebhookSecret != ""
}

// BusinessCustomer is a buyer record created by a business for someone who is
// not yet a platform customer. Invoices can name it as a deferred payer; the
// record is linked to a real customer the first time that person pays.
type BusinessCustomer struct {
	shared.BaseAggregateRoot
	BusinessID uuid.UUID
	Name       string
	Email      string
	Phone      string
	CustomerID *uuid.UUID
}

// NewBusinessCustomer creates a buyer record under a business
func NewBusinessCustomer(businessID uuid.UUID, name, email, phone string) (*BusinessCustomer, error) {
	if businessID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Business ID is required")
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
	}

	return &BusinessCustomer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BusinessID:        businessID,
		Name:              name,
		Email:             email,
		Phone:             phone,
	}, nil
}

// LinkCustomer attaches the platform customer who pays for this buyer.
// The link is one-time; relinking to a different customer is rejected.
func (bc *BusinessCustomer) LinkCustomer(customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Customer ID is required")
	}
	if bc.CustomerID != nil {
		if *bc.CustomerID == customerID {
			return nil
		}
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Business customer is already linked to a customer")
	}

	bc.CustomerID = &customerID
	bc.UpdatedAt = time.Now()
	bc.IncrementVersion()
	bc.AddDomainEvent(NewBusinessCustomerLinkedEvent(bc))

	return nil
}

// IsLinked reports whether a platform customer has been attached
func (bc *BusinessCustomer) IsLinked() bool {
	return bc.CustomerID != nil
}
