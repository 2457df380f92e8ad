package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInvoice(t *testing.T, principal int64, planMonths int, dueDate *time.Time) *Invoice {
	t.Helper()
	customerID := uuid.New()
	inv, err := NewInvoice(NewInvoiceParams{
		BusinessID:         uuid.New(),
		CustomerID:         &customerID,
		Principal:          decimal.NewFromInt(principal),
		PurchaseDate:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		DueDate:            dueDate,
		PlanDurationMonths: planMonths,
	})
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestUpfrontInterest(t *testing.T) {
	got := UpfrontInterest(decimal.NewFromInt(100000), 6)
	assert.True(t, decimal.NewFromInt(21000).Equal(got), "got %s", got)

	assert.True(t, UpfrontInterest(decimal.NewFromInt(100000), 0).IsZero())
}

func TestAccrueInterestNoDueDate(t *testing.T) {
	inv := testInvoice(t, 100000, 6, nil)

	res := AccrueInterest(inv, time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC))

	// far in the future, but without a due date the status never moves
	assert.Equal(t, InvoiceStatusPending, res.Status)
	assert.True(t, decimal.NewFromInt(21000).Equal(inv.InterestAmount))
	assert.True(t, decimal.NewFromInt(121000).Equal(inv.TotalAmount))
	assert.True(t, decimal.NewFromInt(121000).Equal(inv.RemainingBalance))
	assert.Equal(t, 0, res.MonthsOverdue)
}

func TestAccrueInterestStatusTransitions(t *testing.T) {
	due := datePtr(2026, 3, 1)

	tests := []struct {
		name       string
		now        time.Time
		wantStatus InvoiceStatus
		wantMonths int
	}{
		{
			name:       "before due date",
			now:        time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
			wantStatus: InvoiceStatusPending,
			wantMonths: 0,
		},
		{
			name:       "on due date",
			now:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantStatus: InvoiceStatusInGrace,
			wantMonths: 1,
		},
		{
			name:       "inside grace window",
			now:        time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC),
			wantStatus: InvoiceStatusInGrace,
			wantMonths: 1,
		},
		{
			name:       "end of grace window",
			now:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			wantStatus: InvoiceStatusInGrace,
			wantMonths: 1,
		},
		{
			name:       "past grace window",
			now:        time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
			wantStatus: InvoiceStatusOverdue,
			wantMonths: 1,
		},
		{
			name:       "three months past due",
			now:        time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
			wantStatus: InvoiceStatusOverdue,
			wantMonths: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testInvoice(t, 100000, 6, due)
			res := AccrueInterest(inv, tt.now)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantMonths, res.MonthsOverdue)
			assert.True(t, decimal.NewFromInt(21000).Equal(inv.InterestAmount))
		})
	}
}

func TestAccrueInterestIdempotent(t *testing.T) {
	inv := testInvoice(t, 100000, 6, datePtr(2026, 3, 1))
	now := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	first := AccrueInterest(inv, now)
	assert.True(t, first.Changed)
	versionAfterFirst := inv.GetVersion()

	second := AccrueInterest(inv, now)
	assert.False(t, second.Changed)
	assert.Equal(t, versionAfterFirst, inv.GetVersion())
	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.InterestAmount.Equal(second.InterestAmount))
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
}

func TestAccrueInterestRespectsPayments(t *testing.T) {
	inv := testInvoice(t, 100000, 6, datePtr(2026, 3, 1))
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	AccrueInterest(inv, now)
	inv.applyFulfillmentPayment(decimal.NewFromInt(21000), now)

	AccrueInterest(inv, now)
	assert.True(t, decimal.NewFromInt(100000).Equal(inv.RemainingBalance))
	assert.True(t, decimal.NewFromInt(121000).Equal(inv.TotalAmount))
}

func TestAccrueInterestPaidInvoiceFrozen(t *testing.T) {
	inv := testInvoice(t, 100000, 6, datePtr(2026, 3, 1))
	payTime := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	AccrueInterest(inv, payTime)
	require.NoError(t, inv.MarkPaidViaCheckout(payTime))

	// long after grace, nothing moves
	res := AccrueInterest(inv, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, res.Changed)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, decimal.NewFromInt(121000).Equal(inv.RemainingBalance))
	assert.True(t, decimal.NewFromInt(21000).Equal(inv.InterestAmount))
}

func TestAccrueInterestBackfillsLegacyPaidRows(t *testing.T) {
	inv := testInvoice(t, 100000, 6, datePtr(2026, 3, 1))
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, inv.MarkPaidViaCheckout(now))

	// simulate a legacy row persisted before interest was recorded
	inv.InterestAmount = decimal.Zero
	inv.TotalAmount = inv.PrincipalAmount
	remainingBefore := inv.RemainingBalance

	res := AccrueInterest(inv, now.AddDate(0, 1, 0))
	assert.True(t, res.Changed)
	assert.True(t, decimal.NewFromInt(21000).Equal(inv.InterestAmount))
	assert.True(t, decimal.NewFromInt(121000).Equal(inv.TotalAmount))
	// remaining balance is never recomputed from dates on a paid row
	assert.True(t, remainingBefore.Equal(inv.RemainingBalance))
}

func TestAccrueInterestCustomGraceEnd(t *testing.T) {
	inv := testInvoice(t, 50000, 3, datePtr(2026, 3, 1))
	custom := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	inv.GracePeriodEndDate = &custom

	res := AccrueInterest(inv, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, InvoiceStatusInGrace, res.Status)

	res = AccrueInterest(inv, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, InvoiceStatusOverdue, res.Status)
}

func TestAccrueInterestEmitsOverdueEventOnce(t *testing.T) {
	inv := testInvoice(t, 100000, 6, datePtr(2026, 3, 1))
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	AccrueInterest(inv, now)
	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventInvoiceOverdue, inv.GetDomainEvents()[0].EventType())

	AccrueInterest(inv, now)
	assert.Len(t, inv.GetDomainEvents(), 1)
}

func TestMonthsOverdueSince(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, monthsOverdueSince(due, due.AddDate(0, 0, -1)))
	assert.Equal(t, 1, monthsOverdueSince(due, due))
	assert.Equal(t, 1, monthsOverdueSince(due, due.AddDate(0, 0, 20)))
	assert.Equal(t, 1, monthsOverdueSince(due, due.AddDate(0, 1, 0)))
	assert.Equal(t, 2, monthsOverdueSince(due, due.AddDate(0, 2, 5)))
	assert.Equal(t, 12, monthsOverdueSince(due, due.AddDate(1, 0, 0)))
}
