package finance

import (
	"context"
	"net/url"

	"github.com/multipos/console/internal/domain/shared"
)

// LedgerGateway reads and posts entries of one party ledger account.
type LedgerGateway interface {
	ListEntries(ctx context.Context, acct Account, params url.Values) (shared.Page[LedgerEntry], error)
	PostEntry(ctx context.Context, acct Account, entry EntryType, in PostingInput) (LedgerEntry, error)
	Balance(ctx context.Context, acct Account) (Balance, error)
}
