package export

import (
	"context"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// Ports for outbound ledger mirrors.
type (
	// LedgerMirror appends transactions to an external copy of the ledger.
	LedgerMirror interface {
		// Append writes the transactions and returns a reference to the
		// appended range.
		Append(ctx context.Context, ts []core.Transaction) (rangeRef string, err error)
	}
)
