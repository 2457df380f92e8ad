package notification

import (
	"context"
	"testing"
	"time"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingNotifier struct {
	notices []Notice
}

func (n *capturingNotifier) Notify(_ context.Context, notice Notice) error {
	n.notices = append(n.notices, notice)
	return nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func (r *fakeCustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *partner.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) FindByEmail(_ context.Context, _ string) (*partner.Customer, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeCustomerRepo) List(_ context.Context, _ shared.Filter) (*shared.Paginated[*partner.Customer], error) {
	return nil, nil
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*ledger.Invoice
}

func (r *fakeInvoiceRepo) Save(_ context.Context, inv *ledger.Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, inv *ledger.Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) FindByCustomer(_ context.Context, _ uuid.UUID) ([]*ledger.Invoice, error) {
	return nil, nil
}

func (r *fakeInvoiceRepo) FindOpenByCustomer(_ context.Context, _ uuid.UUID) ([]*ledger.Invoice, error) {
	return nil, nil
}

func (r *fakeInvoiceRepo) FindOutstanding(_ context.Context) ([]*ledger.Invoice, error) {
	return nil, nil
}

func newFixture(t *testing.T) (*Handler, *capturingNotifier, *partner.Customer, *fakeInvoiceRepo) {
	t.Helper()

	customer, err := partner.NewApprovedCustomer("Ada Obi", "ada@example.com", "", decimal.NewFromInt(10000), 6)
	require.NoError(t, err)
	customer.ClearDomainEvents()

	notifier := &capturingNotifier{}
	customers := &fakeCustomerRepo{customers: map[uuid.UUID]*partner.Customer{customer.ID: customer}}
	invoices := &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*ledger.Invoice)}

	return NewHandler(notifier, customers, invoices, zap.NewNop()), notifier, customer, invoices
}

func TestHandler_PaymentReceived(t *testing.T) {
	handler, notifier, customer, _ := newFixture(t)

	payment, err := ledger.NewPayment(customer.ID, decimal.NewFromInt(50000), "TX-1")
	require.NoError(t, err)
	payment.AppliedAmount = decimal.NewFromInt(40000)
	payment.ExcessAmount = decimal.NewFromInt(10000)

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPaymentReceivedEvent(payment)))

	require.Len(t, notifier.notices, 1)
	notice := notifier.notices[0]
	assert.Equal(t, "ada@example.com", notice.Recipient)
	assert.Equal(t, "Payment received", notice.Subject)
	assert.Contains(t, notice.Body, "NGN 50000.00")
	assert.Contains(t, notice.Body, "NGN 10000.00 exceeded your open balance")
}

func TestHandler_InvoiceOverdue(t *testing.T) {
	handler, notifier, customer, invoices := newFixture(t)

	due := time.Now().AddDate(0, -2, 0)
	inv, err := ledger.NewInvoice(ledger.NewInvoiceParams{
		Reference:          "INV-7",
		BusinessID:         uuid.New(),
		CustomerID:         &customer.ID,
		Principal:          decimal.NewFromInt(30000),
		PurchaseDate:       time.Now().AddDate(0, -3, 0),
		DueDate:            &due,
		PlanDurationMonths: 3,
	})
	require.NoError(t, err)
	require.NoError(t, inv.ForceInGrace())
	ledger.AccrueInterest(inv, time.Now())
	inv.ClearDomainEvents()
	require.NoError(t, invoices.Save(context.Background(), inv))

	require.NoError(t, handler.Handle(context.Background(), ledger.NewInvoiceOverdueEvent(inv)))

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, "Invoice overdue", notifier.notices[0].Subject)
	assert.Contains(t, notifier.notices[0].Body, "INV-7")
}

func TestHandler_UnknownCustomerIsSkipped(t *testing.T) {
	handler, notifier, _, _ := newFixture(t)

	payment, err := ledger.NewPayment(uuid.New(), decimal.NewFromInt(1000), "TX-2")
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPaymentReceivedEvent(payment)))
	assert.Empty(t, notifier.notices)
}
