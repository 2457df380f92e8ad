package models

import (
	"time"

	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Name                      string                 `gorm:"type:varchar(200);not null"`
	Email                     string                 `gorm:"type:varchar(200);not null;uniqueIndex"`
	Phone                     string                 `gorm:"type:varchar(50);index"`
	MinimumPurchaseAmount     decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentPlanDurationMonths int                    `gorm:"not null;default:0"`
	CreditLimit               decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	CurrentBalance            decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	AvailableBalance          decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Status                    partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'inactive'"`
	ApprovalStatus            partner.ApprovalStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ApprovedAt                *time.Time
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot:         m.ToDomainAggregateRoot(),
		Name:                      m.Name,
		Email:                     m.Email,
		Phone:                     m.Phone,
		MinimumPurchaseAmount:     m.MinimumPurchaseAmount,
		PaymentPlanDurationMonths: m.PaymentPlanDurationMonths,
		CreditLimit:               m.CreditLimit,
		CurrentBalance:            m.CurrentBalance,
		AvailableBalance:          m.AvailableBalance,
		Status:                    m.Status,
		ApprovalStatus:            m.ApprovalStatus,
		ApprovedAt:                m.ApprovedAt,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.MinimumPurchaseAmount = c.MinimumPurchaseAmount
	m.PaymentPlanDurationMonths = c.PaymentPlanDurationMonths
	m.CreditLimit = c.CreditLimit
	m.CurrentBalance = c.CurrentBalance
	m.AvailableBalance = c.AvailableBalance
	m.Status = c.Status
	m.ApprovalStatus = c.ApprovalStatus
	m.ApprovedAt = c.ApprovedAt
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// BusinessModel is the persistence model for the Business domain entity.
type BusinessModel struct {
	AggregateModel
	Name          string `gorm:"type:varchar(200);not null"`
	Email         string `gorm:"type:varchar(200);not null;uniqueIndex"`
	WebhookURL    string `gorm:"type:varchar(500)"`
	WebhookSecret string `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (BusinessModel) TableName() string {
	return "businesses"
}

// ToDomain converts the persistence model to a domain Business entity.
func (m *BusinessModel) ToDomain() *partner.Business {
	return &partner.Business{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Email:             m.Email,
		WebhookURL:        m.WebhookURL,
		WebhookSecret:     m.WebhookSecret,
	}
}

// FromDomain populates the persistence model from a domain Business entity.
func (m *BusinessModel) FromDomain(b *partner.Business) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Name = b.Name
	m.Email = b.Email
	m.WebhookURL = b.WebhookURL
	m.WebhookSecret = b.WebhookSecret
}

// BusinessModelFromDomain creates a new persistence model from a domain Business entity.
func BusinessModelFromDomain(b *partner.Business) *BusinessModel {
	m := &BusinessModel{}
	m.FromDomain(b)
	return m
}

// BusinessCustomerModel is the persistence model for buyer records under a business.
type BusinessCustomerModel struct {
	AggregateModel
	BusinessID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name       string     `gorm:"type:varchar(200);not null"`
	Email      string     `gorm:"type:varchar(200);index"`
	Phone      string     `gorm:"type:varchar(50)"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (BusinessCustomerModel) TableName() string {
	return "business_customers"
}

// ToDomain converts the persistence model to a domain BusinessCustomer entity.
func (m *BusinessCustomerModel) ToDomain() *partner.BusinessCustomer {
	return &partner.BusinessCustomer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BusinessID:        m.BusinessID,
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		CustomerID:        m.CustomerID,
	}
}

// FromDomain populates the persistence model from a domain BusinessCustomer entity.
func (m *BusinessCustomerModel) FromDomain(bc *partner.BusinessCustomer) {
	m.FromDomainAggregateRoot(bc.BaseAggregateRoot)
	m.BusinessID = bc.BusinessID
	m.Name = bc.Name
	m.Email = bc.Email
	m.Phone = bc.Phone
	m.CustomerID = bc.CustomerID
}

// BusinessCustomerModelFromDomain creates a new persistence model from a domain entity.
func BusinessCustomerModelFromDomain(bc *partner.BusinessCustomer) *BusinessCustomerModel {
	m := &BusinessCustomerModel{}
	m.FromDomain(bc)
	return m
}

// CreditLimitAdjustmentModel is the audit row for every credit limit change.
type CreditLimitAdjustmentModel struct {
	BaseModel
	CustomerID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	PreviousLimit decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	NewLimit      decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Type          partner.AdjustmentType `gorm:"type:varchar(20);not null"`
	Reason        string                 `gorm:"type:text"`
	Actor         string                 `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (CreditLimitAdjustmentModel) TableName() string {
	return "credit_limit_adjustments"
}

// ToDomain converts the persistence model to a domain CreditLimitAdjustment.
func (m *CreditLimitAdjustmentModel) ToDomain() *partner.CreditLimitAdjustment {
	return &partner.CreditLimitAdjustment{
		BaseEntity:    m.BaseModel.ToDomain(),
		CustomerID:    m.CustomerID,
		PreviousLimit: m.PreviousLimit,
		NewLimit:      m.NewLimit,
		Type:          m.Type,
		Reason:        m.Reason,
		Actor:         m.Actor,
	}
}

// FromDomain populates the persistence model from a domain CreditLimitAdjustment.
func (m *CreditLimitAdjustmentModel) FromDomain(a *partner.CreditLimitAdjustment) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.CustomerID = a.CustomerID
	m.PreviousLimit = a.PreviousLimit
	m.NewLimit = a.NewLimit
	m.Type = a.Type
	m.Reason = a.Reason
	m.Actor = a.Actor
}

// CreditLimitAdjustmentModelFromDomain creates a new persistence model from a domain entity.
func CreditLimitAdjustmentModelFromDomain(a *partner.CreditLimitAdjustment) *CreditLimitAdjustmentModel {
	m := &CreditLimitAdjustmentModel{}
	m.FromDomain(a)
	return m
}
