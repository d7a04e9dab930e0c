package finance

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/domain/shared"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLedgerEntry_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		typ    EntryType
		amount string
	}{
		{"typed", `{"id":1,"type":"debit","amount":"50.00"}`, Debit, "50"},
		{"entry_type snake", `{"id":2,"entry_type":"CREDIT","amount":20}`, Credit, "20"},
		{"debit column", `{"id":3,"debit":"15.5","credit":0}`, Debit, "15.5"},
		{"credit column", `{"id":4,"debit":0,"credit":"7"}`, Credit, "7"},
		{"signed amount", `{"id":5,"amount":-12}`, Credit, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e LedgerEntry
			require.NoError(t, json.Unmarshal([]byte(tt.json), &e))
			assert.Equal(t, tt.typ, e.EntryType)
			assert.True(t, dec(tt.amount).Equal(e.Amount), "amount %s", e.Amount)
		})
	}
}

func TestLedgerEntry_Account(t *testing.T) {
	var e LedgerEntry
	require.NoError(t, json.Unmarshal([]byte(`{
		"id":9,"scope_type":"BRANCH","scope_id":2,"party_type":"Customer","party_id":77,
		"amount":"10","type":"CREDIT","running_balance":"-10","created_at":"2024-01-01"}`), &e))

	assert.Equal(t, Account{Scope: shared.Scope{Type: shared.ScopeBranch, ID: "2"}, PartyType: PartyCustomer, PartyID: "77"}, e.Account)
	assert.True(t, dec("-10").Equal(e.BalanceAfter))
	assert.True(t, dec("-10").Equal(e.Signed()))
}

func TestAccount(t *testing.T) {
	_, err := NewAccount(shared.Scope{}, PartyCustomer, "1")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewAccount(shared.Scope{Type: shared.ScopeBranch, ID: "1"}, "alien", "1")
	assert.Error(t, err)

	a, err := NewAccount(shared.Scope{Type: shared.ScopeBranch, ID: "1"}, PartyCustomer, "cust 5")
	require.NoError(t, err)
	assert.Equal(t, "/ledger/BRANCH/1/customer/cust%205", a.Path())
}

func TestSummarize(t *testing.T) {
	acct := Account{PartyType: PartyCustomer, PartyID: "1"}
	b := Summarize(acct, []LedgerEntry{
		{EntryType: Debit, Amount: dec("100")},
		{EntryType: Credit, Amount: dec("30")},
		{EntryType: Debit, Amount: dec("5.5")},
	})
	assert.True(t, dec("105.5").Equal(b.TotalDebit))
	assert.True(t, dec("30").Equal(b.TotalCredit))
	assert.True(t, dec("75.5").Equal(b.Balance))
	assert.Equal(t, 3, b.EntryCount)
}

func TestPostingInput_Check(t *testing.T) {
	assert.Error(t, PostingInput{Amount: decimal.Zero}.Check())
	assert.Error(t, PostingInput{Amount: dec("-1")}.Check())
	assert.NoError(t, PostingInput{Amount: dec("1")}.Check())
}
