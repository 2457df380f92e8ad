package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fscredit/backend/internal/application/store"
	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/fscredit/backend/internal/domain/partner"
	"github.com/fscredit/backend/internal/domain/shared"
)

// LedgerService is the external interface to the ledger and accrual engine.
// Every mutating operation runs under the owning customer's lock and inside
// one unit of work; payouts and event delivery happen strictly after commit.
type LedgerService struct {
	uow      store.UnitOfWork
	payouts  PayoutDispatcher
	locks    *customerLocks
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedgerService creates a LedgerService
func NewLedgerService(uow store.UnitOfWork, payouts PayoutDispatcher, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		uow:      uow,
		payouts:  payouts,
		locks:    newCustomerLocks(),
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock, for tests
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// CreateInvoiceRequest carries the inputs for invoice creation
type CreateInvoiceRequest struct {
	Reference    string
	Payer        partner.PayerRef
	BusinessID   uuid.UUID       `validate:"required"`
	Principal    decimal.Decimal `validate:"required"`
	PurchaseDate *time.Time
	DueDate      *time.Time
}

// CreateInvoice records a new invoice in pending status. No customer balance
// moves and no payout is issued; those happen only on payment. The due date
// defaults to the purchase date plus the payer's payment plan duration.
func (s *LedgerService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*ledger.Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}
	if err := req.Payer.Validate(); err != nil {
		return nil, err
	}

	var invoice *ledger.Invoice
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if _, err := r.Businesses.FindByID(ctx, req.BusinessID); err != nil {
			return fmt.Errorf("supplier lookup: %w", err)
		}

		params := ledger.NewInvoiceParams{
			Reference:    req.Reference,
			BusinessID:   req.BusinessID,
			Principal:    req.Principal,
			PurchaseDate: s.now(),
			DueDate:      req.DueDate,
		}
		if req.PurchaseDate != nil {
			params.PurchaseDate = *req.PurchaseDate
		}

		planMonths := partner.DefaultPaymentPlanMonths
		switch req.Payer.Kind {
		case partner.PayerDirect:
			customer, err := r.Customers.FindByID(ctx, req.Payer.ID)
			if err != nil {
				return fmt.Errorf("payer lookup: %w", err)
			}
			planMonths = customer.PaymentPlanDurationMonths
			id := customer.ID
			params.CustomerID = &id
		case partner.PayerDeferred:
			bc, err := r.BusinessCustomers.FindByID(ctx, req.Payer.ID)
			if err != nil {
				return fmt.Errorf("payer lookup: %w", err)
			}
			id := bc.ID
			params.BusinessCustomerID = &id
			if bc.CustomerID != nil {
				customer, err := r.Customers.FindByID(ctx, *bc.CustomerID)
				if err != nil {
					return err
				}
				planMonths = customer.PaymentPlanDurationMonths
				cid := customer.ID
				params.CustomerID = &cid
			}
		}
		params.PlanDurationMonths = planMonths

		if params.DueDate == nil {
			due := ledger.DefaultDueDate(params.PurchaseDate, planMonths)
			params.DueDate = &due
		}

		inv, err := ledger.NewInvoice(params)
		if err != nil {
			return err
		}
		if err := r.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		if err := r.Events.SaveEvents(ctx, store.DrainEvents(inv)...); err != nil {
			return err
		}

		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("principal", invoice.PrincipalAmount.String()))

	return invoice, nil
}

// FinancePurchaseRequest carries the inputs for a pay-with-credit purchase
type FinancePurchaseRequest struct {
	CustomerID uuid.UUID       `validate:"required"`
	BusinessID uuid.UUID       `validate:"required"`
	Principal  decimal.Decimal `validate:"required"`
	Reference  string
}

// FinancePurchase draws on a customer's credit line to buy from a supplier:
// the invoice is created already in its grace window so the exposure counts
// immediately, and the supplier payout of the principal is dispatched after
// commit. Insufficient available credit rejects before any mutation.
func (s *LedgerService) FinancePurchase(ctx context.Context, req FinancePurchaseRequest) (*ledger.Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}
	if !req.Principal.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Purchase amount must be positive")
	}

	unlock := s.locks.Lock(req.CustomerID)
	defer unlock()

	var (
		invoice *ledger.Invoice
		payout  *ledger.Payout
	)
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		customer, err := r.Customers.FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if !customer.CanTransact() {
			return shared.NewDomainError(shared.CodeInvalidStateTransition, "Customer cannot transact")
		}
		if _, err := r.Businesses.FindByID(ctx, req.BusinessID); err != nil {
			return fmt.Errorf("supplier lookup: %w", err)
		}

		invoices, err := r.Invoices.FindByCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		recon := ledger.ReconcileBalances(customer, invoices)
		if recon.AvailableBalance.LessThan(req.Principal) {
			return shared.ErrInsufficientCredit
		}

		now := s.now()
		customerID := customer.ID
		due := ledger.DefaultDueDate(now, customer.PaymentPlanDurationMonths)
		inv, err := ledger.NewInvoice(ledger.NewInvoiceParams{
			Reference:          req.Reference,
			BusinessID:         req.BusinessID,
			CustomerID:         &customerID,
			Principal:          req.Principal,
			PurchaseDate:       now,
			DueDate:            &due,
			PlanDurationMonths: customer.PaymentPlanDurationMonths,
		})
		if err != nil {
			return err
		}
		ledger.AccrueInterest(inv, now)
		if err := inv.ForceInGrace(); err != nil {
			return err
		}
		if err := r.Invoices.Save(ctx, inv); err != nil {
			return err
		}

		recon = ledger.ReconcileBalances(customer, append(invoices, inv))
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
		po, err := ledger.NewPayout(inv.ID, req.BusinessID, req.Principal)
		if err != nil {
			return err
		}
		if err := r.Payouts.Save(ctx, po); err != nil {
			return err
		}

		txn, err := ledger.NewTransaction(ledger.TransactionTypeCreditPurchase, req.Principal, &customerID, &inv.ID, "credit purchase")
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

// CheckAvailableCredit reconciles the customer's balance and reports whether
// the available credit covers amount. Inactive customers never qualify.
func (s *LedgerService) CheckAvailableCredit(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, shared.NewDomainError(shared.CodeValidation, "Amount must be positive")
	}

	unlock := s.locks.Lock(customerID)
	defer unlock()

	ok := false
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		customer, err := r.Customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}
		invoices, err := r.Invoices.FindByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		recon := ledger.ReconcileBalances(customer, invoices)
		if err := s.persistReconciled(ctx, r, customer, recon.Normalized); err != nil {
			return err
		}

		ok = customer.CanTransact() && recon.AvailableBalance.GreaterThanOrEqual(amount)
		return nil
	})
	return ok, err
}

// MarkInvoicePaid is the administrative override: the invoice settles in full
// outside the allocator and the customer's balances are reconciled.
func (s *LedgerService) MarkInvoicePaid(ctx context.Context, invoiceID uuid.UUID) (*ledger.Invoice, error) {
	return s.withInvoiceLock(ctx, invoiceID, func(ctx context.Context, r store.Repos, inv *ledger.Invoice) error {
		if err := inv.MarkPaidDirectly(s.now()); err != nil {
			return err
		}
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		if err := s.reconcileCustomer(ctx, r, inv.CustomerID); err != nil {
			return err
		}
		return r.Events.SaveEvents(ctx, store.DrainEvents(inv)...)
	})
}

// ApproveInvoice promotes a pending invoice into its grace window so that it
// starts counting toward the customer's exposure.
func (s *LedgerService) ApproveInvoice(ctx context.Context, invoiceID uuid.UUID) (*ledger.Invoice, error) {
	return s.withInvoiceLock(ctx, invoiceID, func(ctx context.Context, r store.Repos, inv *ledger.Invoice) error {
		if err := inv.ForceInGrace(); err != nil {
			return err
		}
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		return s.reconcileCustomer(ctx, r, inv.CustomerID)
	})
}

// withInvoiceLock loads an invoice, takes its customer's lock (or the invoice
// ID when no customer is linked yet) and runs fn inside one unit of work.
// The key is re-read under the lock: a checkout can link a payer between the
// initial read and the acquisition, and both writers must serialize on the
// customer key once a link exists.
func (s *LedgerService) withInvoiceLock(ctx context.Context, invoiceID uuid.UUID, fn func(ctx context.Context, r store.Repos, inv *ledger.Invoice) error) (*ledger.Invoice, error) {
	lockKey, err := s.invoiceLockKey(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lockKey)
	for {
		current, err := s.invoiceLockKey(ctx, invoiceID)
		if err != nil {
			unlock()
			return nil, err
		}
		if current == lockKey {
			break
		}
		unlock()
		lockKey = current
		unlock = s.locks.Lock(lockKey)
	}
	defer unlock()

	var invoice *ledger.Invoice
	err = s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		inv, err := r.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := fn(ctx, r, inv); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// invoiceLockKey resolves the lock key an invoice currently serializes on.
func (s *LedgerService) invoiceLockKey(ctx context.Context, invoiceID uuid.UUID) (uuid.UUID, error) {
	key := invoiceID
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		inv, err := r.Invoices.FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.CustomerID != nil {
			key = *inv.CustomerID
		}
		return nil
	})
	return key, err
}

// reconcileCustomer recomputes and persists balances for a linked customer
func (s *LedgerService) reconcileCustomer(ctx context.Context, r store.Repos, customerID *uuid.UUID) error {
	if customerID == nil {
		return nil
	}
	customer, err := r.Customers.FindByID(ctx, *customerID)
	if err != nil {
		return err
	}
	invoices, err := r.Invoices.FindByCustomer(ctx, *customerID)
	if err != nil {
		return err
	}
	recon := ledger.ReconcileBalances(customer, invoices)
	return s.persistReconciled(ctx, r, customer, recon.Normalized)
}

// persistReconciled writes the customer projection and any invoices whose
// remaining balance was normalized
func (s *LedgerService) persistReconciled(ctx context.Context, r store.Repos, customer *partner.Customer, normalized []*ledger.Invoice) error {
	if err := r.Customers.Update(ctx, customer); err != nil {
		return err
	}
	for _, inv := range normalized {
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

// dispatchPayout sends a payout after commit. Failures are logged and the
// payout row is marked failed; they never surface to the financial caller.
func (s *LedgerService) dispatchPayout(ctx context.Context, payout *ledger.Payout) {
	if payout == nil {
		return
	}

	err := s.payouts.Dispatch(ctx, payout)
	if err != nil {
		s.logger.Error("payout dispatch failed",
			zap.String("payout_id", payout.ID.String()),
			zap.String("invoice_id", payout.InvoiceID.String()),
			zap.Error(err))
		payout.MarkFailed(err.Error())
	} else {
		payout.MarkCompleted(payout.Reference)
	}

	updateErr := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Payouts.Update(ctx, payout); err != nil {
			return err
		}
		if payout.Status == ledger.PayoutStatusCompleted {
			return r.Events.SaveEvents(ctx, ledger.NewPayoutCompletedEvent(payout))
		}
		return nil
	})
	if updateErr != nil {
		s.logger.Error("payout status update failed",
			zap.String("payout_id", payout.ID.String()),
			zap.Error(updateErr))
	}
}
