package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler subscribes to supplier-facing ledger events and forwards them to
// the supplier's configured webhook endpoint. Suppliers without a webhook are
// skipped silently.
type Handler struct {
	sender     *Sender
	businesses partner.BusinessRepository
	invoices   ledger.InvoiceRepository
	logger     *zap.Logger
}

// NewHandler creates the webhook event handler
func NewHandler(
	sender *Sender,
	businesses partner.BusinessRepository,
	invoices ledger.InvoiceRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sender:     sender,
		businesses: businesses,
		invoices:   invoices,
		logger:     logger,
	}
}

// EventTypes returns the supplier-facing event types
func (h *Handler) EventTypes() []string {
	return []string{
		ledger.EventInvoiceCreated,
		ledger.EventInvoicePaid,
		ledger.EventPaymentReceived,
		ledger.EventPayoutCompleted,
	}
}

// Handle resolves the supplier for the event and delivers a signed envelope
func (h *Handler) Handle(ctx context.Context, event shared.DomainEvent) error {
	businessID, ok, err := h.resolveBusiness(ctx, event)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	business, err := h.businesses.FindByID(ctx, businessID)
	if err != nil {
		if shared.IsNotFound(err) {
			h.logger.Warn("webhook target business not found",
				zap.String("business_id", businessID.String()),
				zap.String("event_type", event.EventType()),
			)
			return nil
		}
		return err
	}

	if !business.HasWebhook() {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for webhook: %w", err)
	}

	envelope := Envelope{
		EventID:   event.EventID().String(),
		EventType: event.EventType(),
		Timestamp: event.OccurredAt(),
		Data:      data,
	}

	return h.sender.Send(ctx, business.WebhookURL, business.WebhookSecret, envelope)
}

// resolveBusiness extracts the supplier the event belongs to. Payment events
// only carry an invoice reference, so the invoice is loaded to find the
// supplier; payments with no invoice are not supplier-facing.
func (h *Handler) resolveBusiness(ctx context.Context, event shared.DomainEvent) (uuid.UUID, bool, error) {
	switch e := event.(type) {
	case *ledger.InvoiceCreatedEvent:
		return e.BusinessID, true, nil
	case *ledger.InvoicePaidEvent:
		return e.BusinessID, true, nil
	case *ledger.PayoutCompletedEvent:
		return e.BusinessID, true, nil
	case *ledger.PaymentReceivedEvent:
		if e.InvoiceID == nil {
			return uuid.Nil, false, nil
		}
		inv, err := h.invoices.FindByID(ctx, *e.InvoiceID)
		if err != nil {
			if shared.IsNotFound(err) {
				return uuid.Nil, false, nil
			}
			return uuid.Nil, false, err
		}
		return inv.BusinessID, true, nil
	default:
		return uuid.Nil, false, nil
	}
}

var _ shared.EventHandler = (*Handler)(nil)
