package ledger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fscredit/backend/internal/application/store"
	"github.com/fscredit/backend/internal/domain/ledger"
)

// RefreshInvoiceStatus brings one invoice's interest and status up to date
// for the current clock. Idempotent; a second call with an unchanged clock
// writes nothing.
func (s *LedgerService) RefreshInvoiceStatus(ctx context.Context, invoiceID uuid.UUID) (*ledger.Invoice, error) {
	return s.withInvoiceLock(ctx, invoiceID, func(ctx context.Context, r store.Repos, inv *ledger.Invoice) error {
		res := ledger.AccrueInterest(inv, s.now())
		if !res.Changed {
			return nil
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

// RefreshAllOutstandingInvoices sweeps every non-paid invoice through
// accrual. Each invoice is its own atomic step under its customer's lock, so
// the sweep can run concurrently with customer operations; per-invoice
// failures are logged and the sweep moves on. Returns how many invoices were
// swept successfully.
func (s *LedgerService) RefreshAllOutstandingInvoices(ctx context.Context) (int, error) {
	var ids []uuid.UUID
	err := s.uow.Atomic(ctx, func(ctx context.Context, r store.Repos) error {
		outstanding, err := r.Invoices.FindOutstanding(ctx)
		if err != nil {
			return err
		}
		ids = make([]uuid.UUID, len(outstanding))
		for i, inv := range outstanding {
			ids[i] = inv.ID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		if _, err := s.RefreshInvoiceStatus(ctx, id); err != nil {
			s.logger.Error("accrual sweep step failed",
				zap.String("invoice_id", id.String()),
				zap.Error(err))
			continue
		}
		processed++
	}

	s.logger.Info("accrual sweep finished",
		zap.Int("outstanding", len(ids)),
		zap.Int("processed", processed))

	return processed, nil
}
