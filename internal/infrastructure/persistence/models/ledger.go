package models

import (
	"time"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	AggregateModel
	Reference                 string                    `gorm:"type:varchar(100);index"`
	BusinessID                uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CustomerID                *uuid.UUID                `gorm:"type:uuid;index:idx_invoices_customer_status,priority:1"`
	BusinessCustomerID        *uuid.UUID                `gorm:"type:uuid;index"`
	PrincipalAmount           decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	InterestAmount            decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount               decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount                decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingBalance          decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	PurchaseDate              time.Time                 `gorm:"not null"`
	DueDate                   *time.Time                `gorm:"index"`
	GracePeriodEndDate        *time.Time
	PaymentPlanDurationMonths int                       `gorm:"not null;default:0"`
	Status                    ledger.InvoiceStatus      `gorm:"type:varchar(20);not null;default:'pending';index:idx_invoices_customer_status,priority:2"`
	MonthsOverdue             int                       `gorm:"not null;default:0"`
	CreditRepaidStatus        ledger.CreditRepaidStatus `gorm:"type:varchar(20);default:''"`
	CreditRepaidAmount        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	CreditRepaidAt            *time.Time
	PaidAt                    *time.Time
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *ledger.Invoice {
	return &ledger.Invoice{
		BaseAggregateRoot:         m.ToDomainAggregateRoot(),
		Reference:                 m.Reference,
		BusinessID:                m.BusinessID,
		CustomerID:                m.CustomerID,
		BusinessCustomerID:        m.BusinessCustomerID,
		PrincipalAmount:           m.PrincipalAmount,
		InterestAmount:            m.InterestAmount,
		TotalAmount:               m.TotalAmount,
		PaidAmount:                m.PaidAmount,
		RemainingBalance:          m.RemainingBalance,
		PurchaseDate:              m.PurchaseDate,
		DueDate:                   m.DueDate,
		GracePeriodEndDate:        m.GracePeriodEndDate,
		PaymentPlanDurationMonths: m.PaymentPlanDurationMonths,
		Status:                    m.Status,
		MonthsOverdue:             m.MonthsOverdue,
		CreditRepaidStatus:        m.CreditRepaidStatus,
		CreditRepaidAmount:        m.CreditRepaidAmount,
		CreditRepaidAt:            m.CreditRepaidAt,
		PaidAt:                    m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(inv *ledger.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.Reference = inv.Reference
	m.BusinessID = inv.BusinessID
	m.CustomerID = inv.CustomerID
	m.BusinessCustomerID = inv.BusinessCustomerID
	m.PrincipalAmount = inv.PrincipalAmount
	m.InterestAmount = inv.InterestAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.RemainingBalance = inv.RemainingBalance
	m.PurchaseDate = inv.PurchaseDate
	m.DueDate = inv.DueDate
	m.GracePeriodEndDate = inv.GracePeriodEndDate
	m.PaymentPlanDurationMonths = inv.PaymentPlanDurationMonths
	m.Status = inv.Status
	m.MonthsOverdue = inv.MonthsOverdue
	m.CreditRepaidStatus = inv.CreditRepaidStatus
	m.CreditRepaidAmount = inv.CreditRepaidAmount
	m.CreditRepaidAt = inv.CreditRepaidAt
	m.PaidAt = inv.PaidAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *ledger.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// PaymentModel is the persistence model for repayment records.
type PaymentModel struct {
	BaseModel
	CustomerID           uuid.UUID            `gorm:"type:uuid;not null;index:idx_payments_customer_reference,priority:1"`
	InvoiceID            *uuid.UUID           `gorm:"type:uuid;index"`
	Amount               decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	AppliedAmount        decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	ExcessAmount         decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Status               ledger.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	TransactionReference string               `gorm:"type:varchar(200);index:idx_payments_customer_reference,priority:2"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *ledger.Payment {
	return &ledger.Payment{
		BaseEntity:           m.BaseModel.ToDomain(),
		CustomerID:           m.CustomerID,
		InvoiceID:            m.InvoiceID,
		Amount:               m.Amount,
		AppliedAmount:        m.AppliedAmount,
		ExcessAmount:         m.ExcessAmount,
		Status:               m.Status,
		TransactionReference: m.TransactionReference,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *ledger.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.CustomerID = p.CustomerID
	m.InvoiceID = p.InvoiceID
	m.Amount = p.Amount
	m.AppliedAmount = p.AppliedAmount
	m.ExcessAmount = p.ExcessAmount
	m.Status = p.Status
	m.TransactionReference = p.TransactionReference
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *ledger.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PayoutModel is the persistence model for supplier disbursements.
type PayoutModel struct {
	BaseModel
	InvoiceID    uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	BusinessID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status       ledger.PayoutStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Reference    string              `gorm:"type:varchar(200)"`
	FailureError string              `gorm:"type:text"`
	DispatchedAt *time.Time
}

// TableName returns the table name for GORM
func (PayoutModel) TableName() string {
	return "payouts"
}

// ToDomain converts the persistence model to a domain Payout.
func (m *PayoutModel) ToDomain() *ledger.Payout {
	return &ledger.Payout{
		BaseEntity:   m.BaseModel.ToDomain(),
		InvoiceID:    m.InvoiceID,
		BusinessID:   m.BusinessID,
		Amount:       m.Amount,
		Status:       m.Status,
		Reference:    m.Reference,
		FailureError: m.FailureError,
		DispatchedAt: m.DispatchedAt,
	}
}

// FromDomain populates the persistence model from a domain Payout.
func (m *PayoutModel) FromDomain(p *ledger.Payout) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.InvoiceID = p.InvoiceID
	m.BusinessID = p.BusinessID
	m.Amount = p.Amount
	m.Status = p.Status
	m.Reference = p.Reference
	m.FailureError = p.FailureError
	m.DispatchedAt = p.DispatchedAt
}

// PayoutModelFromDomain creates a new persistence model from a domain Payout.
func PayoutModelFromDomain(p *ledger.Payout) *PayoutModel {
	m := &PayoutModel{}
	m.FromDomain(p)
	return m
}

// TransactionModel is the persistence model for the append-only money trail.
type TransactionModel struct {
	BaseModel
	CustomerID  *uuid.UUID             `gorm:"type:uuid;index"`
	InvoiceID   *uuid.UUID             `gorm:"type:uuid;index"`
	Type        ledger.TransactionType `gorm:"type:varchar(30);not null"`
	Amount      decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Description string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		BaseEntity:  m.BaseModel.ToDomain(),
		CustomerID:  m.CustomerID,
		InvoiceID:   m.InvoiceID,
		Type:        m.Type,
		Amount:      m.Amount,
		Description: m.Description,
	}
}

// FromDomain populates the persistence model from a domain Transaction.
func (m *TransactionModel) FromDomain(t *ledger.Transaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.CustomerID = t.CustomerID
	m.InvoiceID = t.InvoiceID
	m.Type = t.Type
	m.Amount = t.Amount
	m.Description = t.Description
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
