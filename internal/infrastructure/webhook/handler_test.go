package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

type fakeBusinessRepo struct {
	businesses map[uuid.UUID]*partner.Business
}

func (r *fakeBusinessRepo) Save(_ context.Context, b *partner.Business) error {
	r.businesses[b.ID] = b
	return nil
}

func (r *fakeBusinessRepo) Update(_ context.Context, b *partner.Business) error {
	r.businesses[b.ID] = b
	return nil
}

func (r *fakeBusinessRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Business, error) {
	b, ok := r.businesses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
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

func newHandlerFixture(t *testing.T, endpoint string) (*Handler, *partner.Business, *fakeInvoiceRepo) {
	t.Helper()

	business, err := partner.NewBusiness("Lagos Wholesale Ltd", "ops@lagoswholesale.example")
	require.NoError(t, err)
	if endpoint != "" {
		require.NoError(t, business.ConfigureWebhook(endpoint, "whsec_test"))
	}

	businesses := &fakeBusinessRepo{businesses: map[uuid.UUID]*partner.Business{business.ID: business}}
	invoices := &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*ledger.Invoice)}

	sender := NewSender(Config{RequestTimeout: time.Second, MaxAttempts: 1, RetryDelay: time.Millisecond}, zap.NewNop())
	return NewHandler(sender, businesses, invoices, zap.NewNop()), business, invoices
}

func TestHandler_DeliversPayoutEvent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	handler, business, _ := newHandlerFixture(t, srv.URL)

	payout, err := ledger.NewPayout(uuid.New(), business.ID, decimal.NewFromInt(50000))
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPayoutCompletedEvent(payout)))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandler_SkipsBusinessWithoutWebhook(t *testing.T) {
	handler, business, _ := newHandlerFixture(t, "")

	payout, err := ledger.NewPayout(uuid.New(), business.ID, decimal.NewFromInt(50000))
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPayoutCompletedEvent(payout)))
}

func TestHandler_ResolvesSupplierThroughInvoiceForPayments(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	handler, business, invoices := newHandlerFixture(t, srv.URL)

	customerID := uuid.New()
	inv, err := ledger.NewInvoice(ledger.NewInvoiceParams{
		Reference:          "INV-100",
		BusinessID:         business.ID,
		CustomerID:         &customerID,
		Principal:          decimal.NewFromInt(20000),
		PurchaseDate:       time.Now(),
		PlanDurationMonths: 3,
	})
	require.NoError(t, err)
	require.NoError(t, invoices.Save(context.Background(), inv))

	payment, err := ledger.NewPayment(customerID, decimal.NewFromInt(5000), "TX-1")
	require.NoError(t, err)
	payment.InvoiceID = &inv.ID

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPaymentReceivedEvent(payment)))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHandler_IgnoresPaymentWithoutInvoice(t *testing.T) {
	handler, _, _ := newHandlerFixture(t, "http://unreachable.invalid")

	payment, err := ledger.NewPayment(uuid.New(), decimal.NewFromInt(5000), "TX-2")
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPaymentReceivedEvent(payment)))
}
