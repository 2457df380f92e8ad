package partner

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fscredit/backend/internal/application/store"
	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
)

func newService(t *testing.T) (*CustomerService, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	return NewCustomerService(mem, zap.NewNop()), mem
}

func registerRequest() RegisterCustomerRequest {
	return RegisterCustomerRequest{
		Name:                      "Ada Obi",
		Email:                     "ada@example.com",
		MinimumPurchaseAmount:     decimal.NewFromInt(10000),
		PaymentPlanDurationMonths: 6,
	}
}

func TestRegister(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	t.Run("creates a pending inactive customer", func(t *testing.T) {
		c, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		assert.Equal(t, partner.ApprovalStatusPending, c.ApprovalStatus)
		assert.Equal(t, partner.CustomerStatusInactive, c.Status)
		assert.True(t, c.CreditLimit.IsZero(), "no credit before approval")

		found := false
		for _, e := range mem.Events() {
			if e.EventType() == partner.EventCustomerRegistered {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, registerRequest())
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		req := registerRequest()
		req.Email = "not-an-email"
		_, err := svc.Register(ctx, req)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("derives the limit from credit terms", func(t *testing.T) {
		svc, _ := newService(t)
		c, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		approved, err := svc.Approve(ctx, c.ID, nil, "ops@platform")
		require.NoError(t, err)

		// 10000 * (6 + 1)
		assert.True(t, decimal.NewFromInt(70000).Equal(approved.CreditLimit))
		assert.Equal(t, partner.CustomerStatusActive, approved.Status)
		assert.True(t, approved.CanTransact())
	})

	t.Run("override limit leaves an override audit row", func(t *testing.T) {
		svc, mem := newService(t)
		c, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		override := decimal.NewFromInt(50000)
		approved, err := svc.Approve(ctx, c.ID, &override, "ops@platform")
		require.NoError(t, err)
		assert.True(t, override.Equal(approved.CreditLimit))

		var adjustments []*partner.CreditLimitAdjustment
		require.NoError(t, mem.Seed(ctx, func(ctx context.Context, r store.Repos) error {
			var err error
			adjustments, err = r.Adjustments.FindByCustomer(ctx, c.ID)
			return err
		}))
		require.Len(t, adjustments, 1)
		assert.Equal(t, partner.AdjustmentTypeOverride, adjustments[0].Type)
		assert.Equal(t, "ops@platform", adjustments[0].Actor)
	})

	t.Run("double approval rejected", func(t *testing.T) {
		svc, _ := newService(t)
		c, err := svc.Register(ctx, registerRequest())
		require.NoError(t, err)

		_, err = svc.Approve(ctx, c.ID, nil, "ops@platform")
		require.NoError(t, err)
		_, err = svc.Approve(ctx, c.ID, nil, "ops@platform")
		assert.True(t, shared.IsInvalidStateTransition(err))
	})

	t.Run("unknown customer", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Approve(ctx, uuid.New(), nil, "ops@platform")
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestReject(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, c.ID))
	assert.Equal(t, partner.ApprovalStatusRejected, c.ApprovalStatus)

	// rejected customers cannot come back through approval
	_, err = svc.Approve(ctx, c.ID, nil, "ops@platform")
	assert.Error(t, err)
}

func TestAdminCreate(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	c, err := svc.AdminCreate(ctx, registerRequest(), "ops@platform")
	require.NoError(t, err)

	assert.True(t, c.CanTransact())
	assert.True(t, decimal.NewFromInt(70000).Equal(c.CreditLimit))

	var adjustments []*partner.CreditLimitAdjustment
	require.NoError(t, mem.Seed(ctx, func(ctx context.Context, r store.Repos) error {
		var err error
		adjustments, err = r.Adjustments.FindByCustomer(ctx, c.ID)
		return err
	}))
	require.Len(t, adjustments, 1)
	assert.True(t, adjustments[0].PreviousLimit.IsZero())
	assert.True(t, decimal.NewFromInt(70000).Equal(adjustments[0].NewLimit))
}

func TestSetStatus(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	// unapproved customers cannot be activated
	err = svc.SetStatus(ctx, c.ID, partner.CustomerStatusActive)
	assert.True(t, shared.IsInvalidStateTransition(err))

	_, err = svc.Approve(ctx, c.ID, nil, "ops@platform")
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, c.ID, partner.CustomerStatusSuspended))
	assert.False(t, c.CanTransact())
}

func TestAdjustCreditLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("reconciles available credit against open invoices", func(t *testing.T) {
		svc, mem := newService(t)
		c, err := svc.AdminCreate(ctx, registerRequest(), "ops@platform")
		require.NoError(t, err)

		customerID := c.ID
		due := time.Now().AddDate(0, 1, 0)
		inv, err := ledger.NewInvoice(ledger.NewInvoiceParams{
			BusinessID:         uuid.New(),
			CustomerID:         &customerID,
			Principal:          decimal.NewFromInt(30000),
			PurchaseDate:       time.Now(),
			DueDate:            &due,
			PlanDurationMonths: 0,
		})
		require.NoError(t, err)
		require.NoError(t, inv.ForceInGrace())
		inv.ClearDomainEvents()
		require.NoError(t, mem.Seed(ctx, func(ctx context.Context, r store.Repos) error {
			return r.Invoices.Save(ctx, inv)
		}))

		adj, err := svc.AdjustCreditLimit(ctx, c.ID, decimal.NewFromInt(100000), "limit review", "ops@platform")
		require.NoError(t, err)

		assert.True(t, decimal.NewFromInt(70000).Equal(adj.PreviousLimit))
		assert.True(t, decimal.NewFromInt(100000).Equal(adj.NewLimit))
		assert.True(t, decimal.NewFromInt(30000).Equal(c.CurrentBalance))
		assert.True(t, decimal.NewFromInt(70000).Equal(c.AvailableBalance))
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.AdjustCreditLimit(ctx, uuid.New(), decimal.NewFromInt(-1), "", "ops@platform")
		assert.True(t, shared.IsValidation(err))
	})
}

func TestAddCreditToWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("raises the limit by the credited amount", func(t *testing.T) {
		svc, mem := newService(t)
		c, err := svc.AdminCreate(ctx, registerRequest(), "ops@platform")
		require.NoError(t, err)

		adj, err := svc.AddCreditToWallet(ctx, c.ID, decimal.NewFromInt(25000), "promo credit", "ops@platform")
		require.NoError(t, err)

		assert.Equal(t, partner.AdjustmentTypeWalletCredit, adj.Type)
		assert.True(t, decimal.NewFromInt(95000).Equal(c.CreditLimit))
		assert.True(t, decimal.NewFromInt(95000).Equal(c.AvailableBalance))

		found := false
		for _, e := range mem.Events() {
			if e.EventType() == partner.EventCreditLimitAdjusted {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.AddCreditToWallet(ctx, uuid.New(), decimal.Zero, "", "ops@platform")
		assert.True(t, shared.IsValidation(err))
	})
}

func TestBusinessLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	b, err := svc.CreateBusiness(ctx, "Lagos Wholesale Ltd", "ops@lagoswholesale.ng")
	require.NoError(t, err)
	assert.False(t, b.HasWebhook())

	require.NoError(t, svc.ConfigureBusinessWebhook(ctx, b.ID, "https://erp.lagoswholesale.ng/hooks", "whsec_123"))
	assert.True(t, b.HasWebhook())

	bc, err := svc.CreateBusinessCustomer(ctx, b.ID, "Chidi Okafor", "chidi@example.com", "")
	require.NoError(t, err)
	assert.False(t, bc.IsLinked())

	c, err := svc.AdminCreate(ctx, registerRequest(), "ops@platform")
	require.NoError(t, err)
	require.NoError(t, svc.LinkBusinessCustomer(ctx, bc.ID, c.ID))
	require.NotNil(t, bc.CustomerID)
	assert.Equal(t, c.ID, *bc.CustomerID)

	// relinking to a different customer is rejected
	other, err := svc.AdminCreate(ctx, RegisterCustomerRequest{
		Name:                  "Ngozi Eze",
		Email:                 "ngozi@example.com",
		MinimumPurchaseAmount: decimal.NewFromInt(5000),
	}, "ops@platform")
	require.NoError(t, err)
	err = svc.LinkBusinessCustomer(ctx, bc.ID, other.ID)
	assert.True(t, shared.IsInvalidStateTransition(err))
}

func TestGetCustomer(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	got, err := svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.GetCustomer(ctx, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}
