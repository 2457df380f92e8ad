// Package payout holds the supplier disbursement integration. The ledger
// calls Dispatch strictly after its transaction commits; a failed dispatch
// marks the payout row failed for operator retry and never touches balances.
package payout

import (
	"context"
	"fmt"

	appledger "github.com/fscredit/backend/internal/application/ledger"
	"github.com/fscredit/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogDispatcher records disbursements in the log instead of calling a payment
// provider. It stands in for the provider client in development and tests and
// assigns the transfer reference the provider would normally return.
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher creates a logging payout dispatcher
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.Named("payout")}
}

// Dispatch logs the disbursement and assigns a transfer reference
func (d *LogDispatcher) Dispatch(_ context.Context, p *ledger.Payout) error {
	p.Reference = fmt.Sprintf("po_%s", uuid.NewString())

	d.logger.Info("payout dispatched",
		zap.String("payout_id", p.ID.String()),
		zap.String("invoice_id", p.InvoiceID.String()),
		zap.String("business_id", p.BusinessID.String()),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("reference", p.Reference),
	)
	return nil
}

var _ appledger.PayoutDispatcher = (*LogDispatcher)(nil)
