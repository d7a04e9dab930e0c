package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/shared"
)

var _ finance.LedgerGateway = (*Client)(nil)

const ledgerEndpoint = "/ledger/:scopeType/:scopeId/:partyType/:partyId"

func (c *Client) ListEntries(ctx context.Context, acct finance.Account, params url.Values) (shared.Page[finance.LedgerEntry], error) {
	page, err := fetchList[finance.LedgerEntry](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     acct.Path() + "/entries",
		Endpoint: ledgerEndpoint + "/entries",
		Query:    params,
	}, "entries", "ledger")
	if err != nil {
		return page, err
	}
	// Entries often omit the account they were fetched for.
	for i := range page.Data {
		if page.Data[i].Account.Scope.IsZero() {
			page.Data[i].Account = acct
		}
	}
	return page, nil
}

// PostEntry records a debit or credit on the account.
func (c *Client) PostEntry(ctx context.Context, acct finance.Account, entry finance.EntryType, in finance.PostingInput) (finance.LedgerEntry, error) {
	if !entry.Valid() {
		return finance.LedgerEntry{}, shared.ErrInvalidInput.WithMessage("entry type must be DEBIT or CREDIT")
	}
	suffix := "/debit"
	if entry == finance.Credit {
		suffix = "/credit"
	}
	e, err := fetchOne[finance.LedgerEntry](ctx, c, Request{
		Method:   http.MethodPost,
		Path:     acct.Path() + suffix,
		Endpoint: ledgerEndpoint + suffix,
		Body:     in,
	}, "entry")
	if err != nil {
		return e, err
	}
	if e.Account.Scope.IsZero() {
		e.Account = acct
	}
	if e.EntryType == "" {
		e.EntryType = entry
	}
	return e, nil
}

func (c *Client) Balance(ctx context.Context, acct finance.Account) (finance.Balance, error) {
	b, err := fetchOne[finance.Balance](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     acct.Path() + "/balance",
		Endpoint: ledgerEndpoint + "/balance",
	}, "balance")
	if err != nil {
		return b, err
	}
	if b.Account.Scope.IsZero() {
		b.Account = acct
	}
	return b, nil
}
