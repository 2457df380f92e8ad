package ledger

import (
	"context"

	"github.com/fscredit/backend/internal/domain/ledger"
)

// PayoutDispatcher sends funds to a supplier. Implementations talk to the
// payment provider; the ledger only guarantees at-most-one payout per invoice
// and calls Dispatch strictly after the ledger transaction commits.
type PayoutDispatcher interface {
	Dispatch(ctx context.Context, payout *ledger.Payout) error
}
