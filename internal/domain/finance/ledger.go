package finance

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// EntryType is the side of a ledger posting.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

func (t EntryType) Valid() bool { return t == Debit || t == Credit }

// PartyType is who the ledger account belongs to.
type PartyType string

const (
	PartyCustomer PartyType = "customer"
	PartySupplier PartyType = "supplier"
	PartyEmployee PartyType = "employee"
	PartyCash     PartyType = "cash"
)

func ParsePartyType(s string) (PartyType, error) {
	p := PartyType(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PartyCustomer, PartySupplier, PartyEmployee, PartyCash:
		return p, nil
	}
	return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("invalid party type %q", s))
}

// Account addresses one party ledger inside one scope. The four parts map
// onto /ledger/:scopeType/:scopeId/:partyType/:partyId.
type Account struct {
	Scope     shared.Scope `json:"scope"`
	PartyType PartyType    `json:"partyType"`
	PartyID   string       `json:"partyId"`
}

func NewAccount(scope shared.Scope, party PartyType, partyID string) (Account, error) {
	if !scope.Type.Valid() || scope.ID == "" {
		return Account{}, shared.ErrInvalidInput.WithMessage("ledger account needs a valid scope")
	}
	if _, err := ParsePartyType(string(party)); err != nil {
		return Account{}, err
	}
	if strings.TrimSpace(partyID) == "" {
		return Account{}, shared.ErrInvalidInput.WithMessage("party id is required")
	}
	return Account{Scope: scope, PartyType: party, PartyID: partyID}, nil
}

// Path returns the escaped URL prefix for this account.
func (a Account) Path() string {
	return "/ledger/" + strings.Join([]string{
		url.PathEscape(string(a.Scope.Type)),
		url.PathEscape(a.Scope.ID),
		url.PathEscape(string(a.PartyType)),
		url.PathEscape(a.PartyID),
	}, "/")
}

func (a Account) String() string {
	return fmt.Sprintf("%s/%s/%s", a.Scope, a.PartyType, a.PartyID)
}

// LedgerEntry is one posting on a party account.
type LedgerEntry struct {
	ID            string          `json:"id"`
	Account       Account         `json:"account"`
	EntryType     EntryType       `json:"entryType"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Reference     string          `json:"reference,omitempty"`
	Description   string          `json:"description,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	shared.Timestamps
}

func (e LedgerEntry) EntityID() string { return e.ID }

func (e *LedgerEntry) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	pt, _ := ParsePartyType(f.String("partyType"))
	out := LedgerEntry{
		ID: f.ID("id"),
		Account: Account{
			Scope:     shared.ReadScope(f),
			PartyType: pt,
			PartyID:   f.ID("partyId"),
		},
		Reference:     firstString(f, "reference", "referenceNo", "referenceId"),
		Description:   f.String("description"),
		PaymentMethod: f.String("paymentMethod"),
		CreatedBy:     firstString(f, "createdByName", "createdBy"),
		BalanceAfter:  firstDecimal(f, "balanceAfter", "runningBalance", "balance"),
		Timestamps:    shared.ReadTimestamps(f),
	}

	// Entries come either typed ({type, amount}) or as two columns
	// ({debit, credit}) depending on the endpoint.
	typ := EntryType(strings.ToUpper(firstString(f, "entryType", "type", "transactionType")))
	switch {
	case typ.Valid():
		out.EntryType = typ
		out.Amount = f.Decimal("amount")
	case f.Decimal("debit").IsPositive():
		out.EntryType, out.Amount = Debit, f.Decimal("debit")
	case f.Decimal("credit").IsPositive():
		out.EntryType, out.Amount = Credit, f.Decimal("credit")
	default:
		amt := f.Decimal("amount")
		if amt.IsNegative() {
			out.EntryType, out.Amount = Credit, amt.Neg()
		} else {
			out.EntryType, out.Amount = Debit, amt
		}
	}
	*e = out
	return nil
}

// Signed returns the amount with debits positive and credits negative.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.EntryType == Credit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Balance summarizes an account. Positive Balance means the party owes
// the business.
type Balance struct {
	Account     Account         `json:"account"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Balance     decimal.Decimal `json:"balance"`
	EntryCount  int             `json:"entryCount"`
}

// Summarize folds entries into a Balance. It is used when the upstream
// balance endpoint is unavailable and for export footers.
func Summarize(acct Account, entries []LedgerEntry) Balance {
	b := Balance{Account: acct}
	for _, e := range entries {
		switch e.EntryType {
		case Debit:
			b.TotalDebit = b.TotalDebit.Add(e.Amount)
		case Credit:
			b.TotalCredit = b.TotalCredit.Add(e.Amount)
		}
		b.EntryCount++
	}
	b.Balance = b.TotalDebit.Sub(b.TotalCredit)
	return b
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	f, err := shared.ParseFields(data)
	if err != nil {
		return err
	}
	pt, _ := ParsePartyType(f.String("partyType"))
	*b = Balance{
		Account:     Account{Scope: shared.ReadScope(f), PartyType: pt, PartyID: f.ID("partyId")},
		TotalDebit:  firstDecimal(f, "totalDebit", "debit"),
		TotalCredit: firstDecimal(f, "totalCredit", "credit"),
		Balance:     firstDecimal(f, "balance", "outstanding", "currentBalance"),
		EntryCount:  int(f.Int("entryCount")),
	}
	return nil
}

// PostingInput is the body of POST .../debit and .../credit.
type PostingInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference,omitempty" validate:"omitempty,max=64"`
	Description   string          `json:"description" validate:"required,max=255"`
	PaymentMethod string          `json:"paymentMethod,omitempty" validate:"omitempty,oneof=CASH CARD BANK_TRANSFER MOBILE CHEQUE"`
}

// Check rejects non-positive amounts; the side is chosen by the endpoint.
func (in PostingInput) Check() error {
	if !in.Amount.IsPositive() {
		return shared.NewValidationError(map[string]string{"amount": "must be greater than zero"})
	}
	return nil
}

func firstString(f shared.Fields, names ...string) string {
	for _, n := range names {
		if v := f.String(n); v != "" {
			return v
		}
	}
	return ""
}

func firstDecimal(f shared.Fields, names ...string) decimal.Decimal {
	for _, n := range names {
		if f.Has(n) {
			return f.Decimal(n)
		}
	}
	return decimal.Zero
}
