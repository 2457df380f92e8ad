package notification

import (
	"context"
	"fmt"

	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
	"github.com/fscredit/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler subscribes to customer-facing ledger events and turns them into
// notices. Delivery runs post-commit from the outbox processor, so a failing
// provider never blocks a ledger write.
type Handler struct {
	notifier  Notifier
	customers partner.CustomerRepository
	invoices  ledger.InvoiceRepository
	logger    *zap.Logger
}

// NewHandler creates the notification event handler
func NewHandler(
	notifier Notifier,
	customers partner.CustomerRepository,
	invoices ledger.InvoiceRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		notifier:  notifier,
		customers: customers,
		invoices:  invoices,
		logger:    logger,
	}
}

// EventTypes returns the customer-facing event types
func (h *Handler) EventTypes() []string {
	return []string{
		partner.EventCustomerApproved,
		ledger.EventPaymentReceived,
		ledger.EventInvoiceOverdue,
	}
}

// Handle builds and dispatches the notice for the event
func (h *Handler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *partner.CustomerApprovedEvent:
		return h.notifyCustomer(ctx, e.AggregateID(),
			"Your credit account is approved",
			fmt.Sprintf("Your account has been approved with a credit limit of %s.", formatAmount(e.CreditLimit)),
		)

	case *ledger.PaymentReceivedEvent:
		body := fmt.Sprintf("We received your payment of %s. %s was applied to your obligations.",
			formatAmount(e.Amount), formatAmount(e.Applied))
		if e.Excess.IsPositive() {
			body += fmt.Sprintf(" %s exceeded your open balance and was not applied.", formatAmount(e.Excess))
		}
		return h.notifyCustomer(ctx, e.CustomerID, "Payment received", body)

	case *ledger.InvoiceOverdueEvent:
		inv, err := h.invoices.FindByID(ctx, e.AggregateID())
		if err != nil {
			if shared.IsNotFound(err) {
				return nil
			}
			return err
		}
		if inv.CustomerID == nil {
			return nil
		}
		return h.notifyCustomer(ctx, *inv.CustomerID,
			"Invoice overdue",
			fmt.Sprintf("Invoice %s is %d month(s) overdue with %s outstanding. Please settle the balance to restore your credit line.",
				inv.Reference, e.MonthsOverdue, formatAmount(e.RemainingBalance)),
		)

	default:
		return nil
	}
}

func (h *Handler) notifyCustomer(ctx context.Context, customerID uuid.UUID, subject, body string) error {
	customer, err := h.customers.FindByID(ctx, customerID)
	if err != nil {
		if shared.IsNotFound(err) {
			h.logger.Warn("notification target customer not found",
				zap.String("customer_id", customerID.String()),
			)
			return nil
		}
		return err
	}

	return h.notifier.Notify(ctx, Notice{
		Recipient: customer.Email,
		Subject:   subject,
		Body:      body,
	})
}

// formatAmount renders a ledger amount in the platform currency
func formatAmount(amount decimal.Decimal) string {
	return valueobject.NewMoneyNGN(amount).String()
}

var _ shared.EventHandler = (*Handler)(nil)
