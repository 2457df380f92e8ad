package cache

import (
	"context"
	"testing"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInvalidationHandler_PaymentDropsCustomerProjection(t *testing.T) {
	invalidator := NewInMemoryProjectionInvalidator()
	handler := NewInvalidationHandler(invalidator, zap.NewNop())

	customerID := uuid.New()
	payment, err := ledger.NewPayment(customerID, decimal.NewFromInt(5000), "TX-9")
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPaymentReceivedEvent(payment)))

	assert.Equal(t, 1, invalidator.CustomerInvalidations(customerID))
	assert.Equal(t, 1, invalidator.DashboardInvalidations())
}

func TestInvalidationHandler_LimitAdjustmentDropsCustomerProjection(t *testing.T) {
	invalidator := NewInMemoryProjectionInvalidator()
	handler := NewInvalidationHandler(invalidator, zap.NewNop())

	customerID := uuid.New()
	event := partner.NewCreditLimitAdjustedEvent(customerID,
		decimal.NewFromInt(10000), decimal.NewFromInt(20000), "growth review", "ops@fscredit")

	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, 1, invalidator.CustomerInvalidations(customerID))
}

func TestInvalidationHandler_PayoutOnlyDirtiesDashboard(t *testing.T) {
	invalidator := NewInMemoryProjectionInvalidator()
	handler := NewInvalidationHandler(invalidator, zap.NewNop())

	payout, err := ledger.NewPayout(uuid.New(), uuid.New(), decimal.NewFromInt(30000))
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), ledger.NewPayoutCompletedEvent(payout)))

	assert.Equal(t, 1, invalidator.DashboardInvalidations())
	assert.Zero(t, invalidator.CustomerInvalidations(payout.BusinessID))
}
