package finance

import (
	"context"
	"net/url"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/application/validation"
	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/shared"
)

// LedgerService owns the entries slice of the account being viewed.
// Switching accounts is a fetch like any other: the older request is
// cancelled and its response discarded.
type LedgerService struct {
	gateway finance.LedgerGateway
	store   *slice.Store[finance.LedgerEntry]
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(gateway finance.LedgerGateway, opts ...slice.Option) *LedgerService {
	return &LedgerService{gateway: gateway, store: slice.New[finance.LedgerEntry]("ledger entries", opts...)}
}

func (s *LedgerService) Store() *slice.Store[finance.LedgerEntry] { return s.store }

// Account returns the account whose entries the slice holds, or the zero
// Account before the first successful fetch. A failed switch to another
// account leaves it unchanged.
func (s *LedgerService) Account() finance.Account {
	acct, _, err := AccountFromParams(s.store.Snapshot().Loaded)
	if err != nil {
		return finance.Account{}
	}
	return acct
}

// Fetcher reads the account from params (scopeType, scopeId, partyType,
// partyId) and passes the remaining params through as filters.
func (s *LedgerService) Fetcher() slice.Fetcher[finance.LedgerEntry] {
	return func(ctx context.Context, params url.Values) (shared.Page[finance.LedgerEntry], error) {
		acct, rest, err := AccountFromParams(params)
		if err != nil {
			return shared.Page[finance.LedgerEntry]{}, err
		}
		return s.gateway.ListEntries(ctx, acct, rest)
	}
}

// Fetch loads the entries of acct.
func (s *LedgerService) Fetch(ctx context.Context, acct finance.Account, filters query.Filters) error {
	params := query.Build(filters)
	for k, v := range AccountParams(acct) {
		params[k] = v
	}
	return s.store.Fetch(ctx, params, s.Fetcher())
}

// Debit posts a debit on acct.
func (s *LedgerService) Debit(ctx context.Context, acct finance.Account, in finance.PostingInput) (finance.LedgerEntry, error) {
	return s.post(ctx, acct, finance.Debit, in)
}

// Credit posts a credit on acct.
func (s *LedgerService) Credit(ctx context.Context, acct finance.Account, in finance.PostingInput) (finance.LedgerEntry, error) {
	return s.post(ctx, acct, finance.Credit, in)
}

func (s *LedgerService) post(ctx context.Context, acct finance.Account, typ finance.EntryType, in finance.PostingInput) (finance.LedgerEntry, error) {
	if err := validation.Struct(in); err != nil {
		return finance.LedgerEntry{}, err
	}
	op := func(ctx context.Context) (finance.LedgerEntry, error) {
		return s.gateway.PostEntry(ctx, acct, typ, in)
	}
	// Entries of another account must not land in the viewed slice.
	if s.Account() != acct {
		return op(ctx)
	}
	return s.store.Create(ctx, op)
}

// Balance asks the server for the account balance.
func (s *LedgerService) Balance(ctx context.Context, acct finance.Account) (finance.Balance, error) {
	return s.gateway.Balance(ctx, acct)
}

// LocalBalance summarizes the loaded entries without a round trip.
func (s *LedgerService) LocalBalance() finance.Balance {
	return finance.Summarize(s.Account(), s.store.Snapshot().Data)
}

// AccountParams is the inverse of AccountFromParams.
func AccountParams(acct finance.Account) url.Values {
	return url.Values{
		"scopeType": {string(acct.Scope.Type)},
		"scopeId":   {acct.Scope.ID},
		"partyType": {string(acct.PartyType)},
		"partyId":   {acct.PartyID},
	}
}

// AccountFromParams splits the account address out of params.
func AccountFromParams(params url.Values) (finance.Account, url.Values, error) {
	st, err := shared.ParseScopeType(params.Get("scopeType"))
	if err != nil {
		return finance.Account{}, nil, err
	}
	pt, err := finance.ParsePartyType(params.Get("partyType"))
	if err != nil {
		return finance.Account{}, nil, err
	}
	acct, err := finance.NewAccount(shared.Scope{Type: st, ID: params.Get("scopeId")}, pt, params.Get("partyId"))
	if err != nil {
		return finance.Account{}, nil, err
	}
	rest := url.Values{}
	for k, v := range params {
		switch k {
		case "scopeType", "scopeId", "partyType", "partyId":
		default:
			rest[k] = v
		}
	}
	return acct, rest, nil
}
