package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/shared"
)

// LedgerHandler serves one party account at a time.
type LedgerHandler struct {
	BaseHandler
}

func NewLedgerHandler() *LedgerHandler { return &LedgerHandler{} }

func (h *LedgerHandler) account(c *gin.Context) (finance.Account, bool) {
	st, err := shared.ParseScopeType(c.Param("scopeType"))
	if err != nil {
		h.HandleError(c, err)
		return finance.Account{}, false
	}
	party, err := finance.ParsePartyType(c.Param("partyType"))
	if err != nil {
		h.HandleError(c, err)
		return finance.Account{}, false
	}
	acct, err := finance.NewAccount(shared.Scope{Type: st, ID: c.Param("scopeId")}, party, c.Param("partyId"))
	if err != nil {
		h.HandleError(c, err)
		return finance.Account{}, false
	}
	return acct, true
}

// Entries handles GET /ledger/:scopeType/:scopeId/:partyType/:partyId.
// It drives the ledger screen, so the snapshot summary is the balance of
// the loaded entries.
func (h *LedgerHandler) Entries(c *gin.Context) {
	p, ws, ok := h.session(c)
	if !ok {
		return
	}
	acct, ok := h.account(c)
	if !ok {
		return
	}
	v, _ := ws.Screen(workspace.ScreenLedger)
	filters := query.FromValues(c.Request.URL.Query())
	filters["scopeType"] = string(acct.Scope.Type)
	filters["scopeId"] = acct.Scope.ID
	filters["partyType"] = string(acct.PartyType)
	filters["partyId"] = acct.PartyID

	ctx := c.Request.Context()
	if err := v.SetFilters(ctx, filters); err != nil && !keepsSnapshot(err) {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v.Snapshot(p, ws.Flags(ctx)))
}

// Balance handles GET .../balance, asking the POS API.
func (h *LedgerHandler) Balance(c *gin.Context) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	acct, ok := h.account(c)
	if !ok {
		return
	}
	bal, err := ws.Ledger.Balance(c.Request.Context(), acct)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bal)
}

// Debit handles POST .../debit.
func (h *LedgerHandler) Debit(c *gin.Context) { h.post(c, finance.Debit) }

// Credit handles POST .../credit.
func (h *LedgerHandler) Credit(c *gin.Context) { h.post(c, finance.Credit) }

func (h *LedgerHandler) post(c *gin.Context, side finance.EntryType) {
	_, ws, ok := h.session(c)
	if !ok {
		return
	}
	acct, ok := h.account(c)
	if !ok {
		return
	}
	var in finance.PostingInput
	if !h.BindJSON(c, &in) {
		return
	}
	post := ws.Ledger.Credit
	if side == finance.Debit {
		post = ws.Ledger.Debit
	}
	entry, err := post(c.Request.Context(), acct, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}
