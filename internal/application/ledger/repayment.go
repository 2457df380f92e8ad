package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fscredit/backend/internal/application/store"
	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/shared"
)

// RecordRepaymentRequest carries an incoming customer repayment
type RecordRepaymentRequest struct {
	CustomerID uuid.UUID       `validate:"required"`
	Amount     decimal.Decimal `validate:"required"`
	// Reference is the external transaction reference. Deliveries carrying a
	// reference already seen for this customer are treated as duplicates.
	Reference string
	// InvoiceID optionally targets one invoice instead of the ordered set
	InvoiceID *uuid.UUID
}

// RecordRepayment applies an incoming repayment across the customer's open
// obligations. Redelivery of an already-processed reference returns the
// existing payment as a no-op success so webhook retries stay safe.
func (s *LedgerService) RecordRepayment(ctx context.Context, req RecordRepaymentRequest) (*ledger.Payment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Repayment amount must be positive")
	}

	unlock := s.locks.Lock(req.CustomerID)
	defer unlock()

	var payment *ledger.Payment
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if req.Reference != "" {
			existing, err := r.Payments.FindByReference(ctx, req.CustomerID, req.Reference)
			if err == nil {
				payment = existing
				return nil
			}
			if !shared.IsNotFound(err) {
				return err
			}
		}

		customer, err := r.Customers.FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		invoices, err := r.Invoices.FindByCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		// The target must be resolved out of the customer's own slice:
		// the allocator mutates it and the reconciler below reads the
		// slice, so both need the same instance. This also rejects
		// invoices owned by another customer.
		var target *ledger.Invoice
		if req.InvoiceID != nil {
			for _, inv := range invoices {
				if inv.ID == *req.InvoiceID {
					target = inv
					break
				}
			}
			if target == nil {
				return shared.NewDomainError(shared.CodeNotFound, "Invoice not found for customer")
			}
		}

		now := s.now()
		alloc, err := ledger.AllocatePayment(invoices, req.Amount, target, now)
		if err != nil {
			return err
		}

		p, err := ledger.NewPayment(req.CustomerID, req.Amount, req.Reference)
		if err != nil {
			return err
		}
		p.Complete(alloc.Applied, alloc.Remainder, alloc.LastInvoiceID)
		if err := r.Payments.Save(ctx, p); err != nil {
			return err
		}

		for _, inv := range alloc.Touched {
			if err := r.Invoices.Update(ctx, inv); err != nil {
				return err
			}
		}

		recon := ledger.ReconcileBalances(customer, invoices)
		if err := s.persistReconciled(ctx, r, customer, recon.Normalized); err != nil {
			return err
		}

		customerID := req.CustomerID
		txn, err := ledger.NewTransaction(ledger.TransactionTypeRepayment, req.Amount, &customerID, alloc.LastInvoiceID, "repayment")
		if err != nil {
			return err
		}
		if err := r.Transactions.Save(ctx, txn); err != nil {
			return err
		}

		events := store.DrainEvents(touchedAggregates(alloc.Touched)...)
		events = append(events, ledger.NewPaymentReceivedEvent(p))
		if err := r.Events.SaveEvents(ctx, events...); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !payment.ExcessAmount.IsZero() {
		s.logger.Warn("repayment exceeded open obligations",
			zap.String("customer_id", req.CustomerID.String()),
			zap.String("excess", payment.ExcessAmount.String()))
	}

	return payment, nil
}

// PayInvoiceViaCheckoutRequest carries a checkout settlement of one invoice
type PayInvoiceViaCheckoutRequest struct {
	InvoiceID uuid.UUID       `validate:"required"`
	PayerID   uuid.UUID       `validate:"required"`
	Amount    decimal.Decimal `validate:"required"`
}

// PayInvoiceViaCheckout settles an invoice through the hosted checkout: the
// paying customer is linked to the invoice (and to its deferred buyer record
// when present), the supplier becomes owed the principal, and the full total
// flips into the customer's credit-repayment obligation. The principal payout
// is dispatched exactly once, after commit.
func (s *LedgerService) PayInvoiceViaCheckout(ctx context.Context, req PayInvoiceViaCheckoutRequest) (*ledger.Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}

	unlock := s.locks.Lock(req.PayerID)
	defer unlock()

	var (
		invoice *ledger.Invoice
		payout  *ledger.Payout
	)
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		inv, err := r.Invoices.FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.IsPaid() {
			return shared.NewDomainError(shared.CodeInvalidStateTransition, "Invoice is already paid")
		}

		customer, err := r.Customers.FindByID(ctx, req.PayerID)
		if err != nil {
			return err
		}
		if err := inv.LinkPayer(customer.ID); err != nil {
			return err
		}
		if inv.BusinessCustomerID != nil {
			if err := s.linkDeferredPayer(ctx, r, *inv.BusinessCustomerID, customer.ID); err != nil {
				return err
			}
		}

		now := s.now()
		ledger.AccrueInterest(inv, now)
		if err := inv.MarkPaidViaCheckout(now); err != nil {
			return err
		}
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}

		invoices, err := r.Invoices.FindByCustomer(ctx, customer.ID)
		if err != nil {
			return err
		}
		recon := ledger.ReconcileBalances(customer, invoices)
		if err := s.persistReconciled(ctx, r, customer, recon.Normalized); err != nil {
			return err
		}

		exists, err := r.Payouts.ExistsForInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeInvalidStateTransition, "Payout already issued for invoice")
		}
		po, err := ledger.NewPayout(inv.ID, inv.BusinessID, inv.PrincipalAmount)
		if err != nil {
			return err
		}
		if err := r.Payouts.Save(ctx, po); err != nil {
			return err
		}

		customerID := customer.ID
		txn, err := ledger.NewTransaction(ledger.TransactionTypePayout, inv.PrincipalAmount, &customerID, &inv.ID, "supplier payout")
		if err != nil {
			return err
		}
		if err := r.Transactions.Save(ctx, txn); err != nil {
			return err
		}

		if err := r.Events.SaveEvents(ctx, store.DrainEvents(inv, customer)...); err != nil {
			return err
		}

		invoice = inv
		payout = po
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchPayout(ctx, payout)

	return invoice, nil
}

// linkDeferredPayer attaches the paying customer to the invoice's buyer
// record the first time that buyer pays
func (s *LedgerService) linkDeferredPayer(ctx context.Context, r store.Repos, businessCustomerID, customerID uuid.UUID) error {
	bc, err := r.BusinessCustomers.FindByID(ctx, businessCustomerID)
	if err != nil {
		return err
	}
	if bc.IsLinked() {
		return nil
	}
	if err := bc.LinkCustomer(customerID); err != nil {
		return err
	}
	if err := r.BusinessCustomers.Update(ctx, bc); err != nil {
		return err
	}
	return r.Events.SaveEvents(ctx, store.DrainEvents(bc)...)
}

func touchedAggregates(invoices []*ledger.Invoice) []shared.AggregateRoot {
	out := make([]shared.AggregateRoot, len(invoices))
	for i, inv := range invoices {
		out[i] = inv
	}
	return out
}
