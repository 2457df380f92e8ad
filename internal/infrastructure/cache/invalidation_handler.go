package cache

import (
	"context"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvalidationHandler drops read projections when ledger or partner state
// changes. It runs post-commit on the event bus; a failed invalidation is
// logged and swallowed so it never feeds back into outbox retries.
type InvalidationHandler struct {
	invalidator ProjectionInvalidator
	logger      *zap.Logger
}

// NewInvalidationHandler creates the cache invalidation event handler
func NewInvalidationHandler(invalidator ProjectionInvalidator, logger *zap.Logger) *InvalidationHandler {
	return &InvalidationHandler{
		invalidator: invalidator,
		logger:      logger,
	}
}

// EventTypes returns the event types that dirty a projection
func (h *InvalidationHandler) EventTypes() []string {
	return []string{
		ledger.EventInvoicePaid,
		ledger.EventInvoiceOverdue,
		ledger.EventPaymentReceived,
		ledger.EventPayoutCompleted,
		partner.EventCustomerApproved,
		partner.EventCreditLimitAdjusted,
	}
}

// Handle invalidates the projections the event touched
func (h *InvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *ledger.PaymentReceivedEvent:
		h.invalidateCustomer(ctx, e)

	case *partner.CustomerApprovedEvent:
		h.invalidateCustomer(ctx, e)

	case *partner.CreditLimitAdjustedEvent:
		h.invalidateCustomer(ctx, e)
	}

	if err := h.invalidator.InvalidateDashboard(ctx); err != nil {
		h.logger.Warn("dashboard projection invalidation failed",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
	return nil
}

func (h *InvalidationHandler) invalidateCustomer(ctx context.Context, event shared.DomainEvent) {
	customerID := event.AggregateID()
	if e, ok := event.(*ledger.PaymentReceivedEvent); ok {
		customerID = e.CustomerID
	}

	if err := h.invalidator.InvalidateCustomerProjection(ctx, customerID); err != nil {
		h.logger.Warn("customer projection invalidation failed",
			zap.String("event_type", event.EventType()),
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
	}
}

var _ shared.EventHandler = (*InvalidationHandler)(nil)
