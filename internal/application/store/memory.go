package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory UnitOfWork for tests and local development.
// Atomic serializes all units of work behind one mutex, which also gives the
// all-or-nothing property a database transaction would: no two units ever
// observe each other's partial writes.
type MemoryStore struct {
	mu sync.Mutex

	customers         map[uuid.UUID]*partner.Customer
	businesses        map[uuid.UUID]*partner.Business
	businessCustomers map[uuid.UUID]*partner.BusinessCustomer
	adjustments       []*partner.CreditLimitAdjustment
	invoices          map[uuid.UUID]*ledger.Invoice
	payments          map[uuid.UUID]*ledger.Payment
	payouts           map[uuid.UUID]*ledger.Payout
	transactions      []*ledger.Transaction
	events            []shared.DomainEvent
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers:         make(map[uuid.UUID]*partner.Customer),
		businesses:        make(map[uuid.UUID]*partner.Business),
		businessCustomers: make(map[uuid.UUID]*partner.BusinessCustomer),
		invoices:          make(map[uuid.UUID]*ledger.Invoice),
		payments:          make(map[uuid.UUID]*ledger.Payment),
		payouts:           make(map[uuid.UUID]*ledger.Payout),
	}
}

// Atomic implements UnitOfWork
func (s *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, s.repos())
}

// Seed runs fn against the repositories outside any service operation,
// for test fixture setup.
func (s *MemoryStore) Seed(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return s.Atomic(ctx, fn)
}

// Events returns every domain event saved so far
func (s *MemoryStore) Events() []shared.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shared.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Transactions returns the recorded money movement trail
func (s *MemoryStore) Transactions() []*ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ledger.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

func (s *MemoryStore) repos() Repos {
	return Repos{
		Customers:         (*memCustomers)(s),
		Businesses:        (*memBusinesses)(s),
		BusinessCustomers: (*memBusinessCustomers)(s),
		Adjustments:       (*memAdjustments)(s),
		Invoices:          (*memInvoices)(s),
		Payments:          (*memPayments)(s),
		Payouts:           (*memPayouts)(s),
		Transactions:      (*memTransactions)(s),
		Events:            (*memEvents)(s),
	}
}

type memCustomers MemoryStore

func (m *memCustomers) Save(_ context.Context, c *partner.Customer) error {
	m.customers[c.ID] = c
	return nil
}

func (m *memCustomers) Update(_ context.Context, c *partner.Customer) error {
	if _, ok := m.customers[c.ID]; !ok {
		return shared.ErrNotFound
	}
	m.customers[c.ID] = c
	return nil
}

func (m *memCustomers) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (m *memCustomers) FindByEmail(_ context.Context, email string) (*partner.Customer, error) {
	for _, c := range m.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memCustomers) List(_ context.Context, filter shared.Filter) (*shared.Paginated[*partner.Customer], error) {
	items := make([]*partner.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		items = append(items, c)
	}
	sort.Slice(items, func(a, b int) bool { return items[a].CreatedAt.Before(items[b].CreatedAt) })
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

type memBusinesses MemoryStore

func (m *memBusinesses) Save(_ context.Context, b *partner.Business) error {
	m.businesses[b.ID] = b
	return nil
}

func (m *memBusinesses) Update(_ context.Context, b *partner.Business) error {
	if _, ok := m.businesses[b.ID]; !ok {
		return shared.ErrNotFound
	}
	m.businesses[b.ID] = b
	return nil
}

func (m *memBusinesses) FindByID(_ context.Context, id uuid.UUID) (*partner.Business, error) {
	b, ok := m.businesses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

type memBusinessCustomers MemoryStore

func (m *memBusinessCustomers) Save(_ context.Context, bc *partner.BusinessCustomer) error {
	m.businessCustomers[bc.ID] = bc
	return nil
}

func (m *memBusinessCustomers) Update(_ context.Context, bc *partner.BusinessCustomer) error {
	if _, ok := m.businessCustomers[bc.ID]; !ok {
		return shared.ErrNotFound
	}
	m.businessCustomers[bc.ID] = bc
	return nil
}

func (m *memBusinessCustomers) FindByID(_ context.Context, id uuid.UUID) (*partner.BusinessCustomer, error) {
	bc, ok := m.businessCustomers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return bc, nil
}

func (m *memBusinessCustomers) FindByBusiness(_ context.Context, businessID uuid.UUID) ([]*partner.BusinessCustomer, error) {
	var out []*partner.BusinessCustomer
	for _, bc := range m.businessCustomers {
		if bc.BusinessID == businessID {
			out = append(out, bc)
		}
	}
	return out, nil
}

type memAdjustments MemoryStore

func (m *memAdjustments) Save(_ context.Context, a *partner.CreditLimitAdjustment) error {
	m.adjustments = append(m.adjustments, a)
	return nil
}

func (m *memAdjustments) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*partner.CreditLimitAdjustment, error) {
	var out []*partner.CreditLimitAdjustment
	for _, a := range m.adjustments {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memInvoices MemoryStore

func (m *memInvoices) Save(_ context.Context, inv *ledger.Invoice) error {
	m.invoices[inv.ID] = inv
	return nil
}

func (m *memInvoices) Update(_ context.Context, inv *ledger.Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return shared.ErrNotFound
	}
	m.invoices[inv.ID] = inv
	return nil
}

func (m *memInvoices) FindByID(_ context.Context, id uuid.UUID) (*ledger.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (m *memInvoices) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*ledger.Invoice, error) {
	out := m.byCustomer(customerID)
	sortInvoicesByDueDate(out)
	return out, nil
}

func (m *memInvoices) FindOpenByCustomer(_ context.Context, customerID uuid.UUID) ([]*ledger.Invoice, error) {
	var out []*ledger.Invoice
	for _, inv := range m.byCustomer(customerID) {
		if inv.Status != ledger.InvoiceStatusPaid || inv.CreditRepaidStatus != ledger.CreditRepaidFullyPaid {
			out = append(out, inv)
		}
	}
	sortInvoicesByDueDate(out)
	return out, nil
}

func (m *memInvoices) FindOutstanding(_ context.Context) ([]*ledger.Invoice, error) {
	var out []*ledger.Invoice
	for _, inv := range m.invoices {
		if inv.Status != ledger.InvoiceStatusPaid {
			out = append(out, inv)
		}
	}
	sortInvoicesByDueDate(out)
	return out, nil
}

func (m *memInvoices) byCustomer(customerID uuid.UUID) []*ledger.Invoice {
	var out []*ledger.Invoice
	for _, inv := range m.invoices {
		if inv.CustomerID != nil && *inv.CustomerID == customerID {
			out = append(out, inv)
		}
	}
	return out
}

// sortInvoicesByDueDate orders due_date ascending, NULL due dates first
func sortInvoicesByDueDate(invoices []*ledger.Invoice) {
	sort.SliceStable(invoices, func(a, b int) bool {
		da, db := invoices[a].DueDate, invoices[b].DueDate
		switch {
		case da == nil && db == nil:
			return invoices[a].CreatedAt.Before(invoices[b].CreatedAt)
		case da == nil:
			return true
		case db == nil:
			return false
		default:
			return da.Before(*db)
		}
	})
}

type memPayments MemoryStore

func (m *memPayments) Save(_ context.Context, p *ledger.Payment) error {
	m.payments[p.ID] = p
	return nil
}

func (m *memPayments) FindByID(_ context.Context, id uuid.UUID) (*ledger.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (m *memPayments) FindByReference(_ context.Context, customerID uuid.UUID, reference string) (*ledger.Payment, error) {
	if reference == "" {
		return nil, shared.ErrNotFound
	}
	for _, p := range m.payments {
		if p.CustomerID == customerID && p.TransactionReference == reference {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memPayments) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*ledger.Payment, error) {
	var out []*ledger.Payment
	for _, p := range m.payments {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memPayouts MemoryStore

func (m *memPayouts) Save(_ context.Context, p *ledger.Payout) error {
	m.payouts[p.ID] = p
	return nil
}

func (m *memPayouts) Update(_ context.Context, p *ledger.Payout) error {
	if _, ok := m.payouts[p.ID]; !ok {
		return shared.ErrNotFound
	}
	m.payouts[p.ID] = p
	return nil
}

func (m *memPayouts) ExistsForInvoice(_ context.Context, invoiceID uuid.UUID) (bool, error) {
	for _, p := range m.payouts {
		if p.InvoiceID == invoiceID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPayouts) FindByInvoice(_ context.Context, invoiceID uuid.UUID) (*ledger.Payout, error) {
	for _, p := range m.payouts {
		if p.InvoiceID == invoiceID {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

type memTransactions MemoryStore

func (m *memTransactions) Save(_ context.Context, t *ledger.Transaction) error {
	m.transactions = append(m.transactions, t)
	return nil
}

func (m *memTransactions) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction
	for _, t := range m.transactions {
		if t.CustomerID != nil && *t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memEvents MemoryStore

func (m *memEvents) SaveEvents(_ context.Context, events ...shared.DomainEvent) error {
	m.events = append(m.events, events...)
	return nil
}
