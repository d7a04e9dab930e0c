package finance

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/shared"
)

// MockLedgerGateway is a mock implementation of finance.LedgerGateway
type MockLedgerGateway struct {
	mock.Mock
}

func (m *MockLedgerGateway) ListEntries(ctx context.Context, acct finance.Account, params url.Values) (shared.Page[finance.LedgerEntry], error) {
	args := m.Called(ctx, acct, params)
	return args.Get(0).(shared.Page[finance.LedgerEntry]), args.Error(1)
}

func (m *MockLedgerGateway) PostEntry(ctx context.Context, acct finance.Account, typ finance.EntryType, in finance.PostingInput) (finance.LedgerEntry, error) {
	args := m.Called(ctx, acct, typ, in)
	return args.Get(0).(finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerGateway) Balance(ctx context.Context, acct finance.Account) (finance.Balance, error) {
	args := m.Called(ctx, acct)
	return args.Get(0).(finance.Balance), args.Error(1)
}

func customer(id string) finance.Account {
	return finance.Account{
		Scope:     shared.Scope{Type: shared.ScopeBranch, ID: "b1"},
		PartyType: finance.PartyCustomer,
		PartyID:   id,
	}
}

func TestLedgerService_PostOnViewedAccountAppends(t *testing.T) {
	gw := new(MockLedgerGateway)
	svc := NewLedgerService(gw)
	ctx := context.Background()
	acct := customer("c1")
	in := finance.PostingInput{Amount: decimal.NewFromInt(10), Description: "invoice"}

	gw.On("ListEntries", mock.Anything, acct, mock.Anything).Return(shared.Page[finance.LedgerEntry]{Data: []finance.LedgerEntry{
		{ID: "e1", EntryType: finance.Debit, Amount: decimal.NewFromInt(30)},
	}}, nil)
	gw.On("PostEntry", mock.Anything, acct, finance.Credit, in).
		Return(finance.LedgerEntry{ID: "e2", EntryType: finance.Credit, Amount: decimal.NewFromInt(10)}, nil)

	require.NoError(t, svc.Fetch(ctx, acct, nil))
	_, err := svc.Credit(ctx, acct, in)
	require.NoError(t, err)

	bal := svc.LocalBalance()
	assert.Equal(t, 2, bal.EntryCount)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(20)))
}

func TestLedgerService_PostOnOtherAccountLeavesSlice(t *testing.T) {
	gw := new(MockLedgerGateway)
	svc := NewLedgerService(gw)
	ctx := context.Background()
	in := finance.PostingInput{Amount: decimal.NewFromInt(5), Description: "x"}
	gw.On("ListEntries", mock.Anything, customer("c1"), mock.Anything).Return(shared.Page[finance.LedgerEntry]{}, nil)
	gw.On("PostEntry", mock.Anything, customer("c2"), finance.Debit, in).Return(finance.LedgerEntry{ID: "e9"}, nil)

	require.NoError(t, svc.Fetch(ctx, customer("c1"), nil))
	_, err := svc.Debit(ctx, customer("c2"), in)
	require.NoError(t, err)
	assert.Empty(t, svc.Store().Snapshot().Data)
}

func TestLedgerService_FailedSwitchKeepsLoadedAccount(t *testing.T) {
	gw := new(MockLedgerGateway)
	svc := NewLedgerService(gw)
	ctx := context.Background()
	in := finance.PostingInput{Amount: decimal.NewFromInt(5), Description: "x"}
	gw.On("ListEntries", mock.Anything, customer("c1"), mock.Anything).Return(shared.Page[finance.LedgerEntry]{Data: []finance.LedgerEntry{
		{ID: "e1", EntryType: finance.Debit, Amount: decimal.NewFromInt(30)},
	}}, nil)
	gw.On("ListEntries", mock.Anything, customer("c2"), mock.Anything).
		Return(shared.Page[finance.LedgerEntry]{}, errors.New("ledger service unavailable"))
	gw.On("PostEntry", mock.Anything, customer("c2"), finance.Debit, in).
		Return(finance.LedgerEntry{ID: "e9", EntryType: finance.Debit, Amount: decimal.NewFromInt(5)}, nil)

	assert.Equal(t, finance.Account{}, svc.Account())
	require.NoError(t, svc.Fetch(ctx, customer("c1"), nil))
	require.Error(t, svc.Fetch(ctx, customer("c2"), nil))
	assert.Equal(t, customer("c1"), svc.Account())

	_, err := svc.Debit(ctx, customer("c2"), in)
	require.NoError(t, err)

	data := svc.Store().Snapshot().Data
	require.Len(t, data, 1)
	assert.Equal(t, "e1", data[0].ID)
	bal := svc.LocalBalance()
	assert.Equal(t, customer("c1"), bal.Account)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(30)))
}

func TestLedgerService_RejectsNonPositiveAmount(t *testing.T) {
	gw := new(MockLedgerGateway)
	svc := NewLedgerService(gw)

	_, err := svc.Debit(context.Background(), customer("c1"), finance.PostingInput{Description: "zero"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	gw.AssertNotCalled(t, "PostEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountFromParams(t *testing.T) {
	acct, rest, err := AccountFromParams(url.Values{
		"scopeType": {"branch"},
		"scopeId":   {"b1"},
		"partyType": {"customer"},
		"partyId":   {"c1"},
		"startDate": {"2026-01-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, customer("c1"), acct)
	assert.Equal(t, url.Values{"startDate": {"2026-01-01"}}, rest)

	_, _, err = AccountFromParams(url.Values{"scopeType": {"branch"}, "scopeId": {"b1"}, "partyType": {"alien"}})
	assert.Error(t, err)
}
