// Package workspace holds the per-user set of slices and screens the BFF
// and the CLI drive. A Workspace is built once per bearer token and kept
// until it sits idle for too long.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	exportapp "github.com/multipos/console/internal/application/export"
	financeapp "github.com/multipos/console/internal/application/finance"
	inventoryapp "github.com/multipos/console/internal/application/inventory"
	orgapp "github.com/multipos/console/internal/application/organization"
	posapp "github.com/multipos/console/internal/application/pos"
	"github.com/multipos/console/internal/application/query"
	reportapp "github.com/multipos/console/internal/application/report"
	"github.com/multipos/console/internal/application/screen"
	"github.com/multipos/console/internal/application/slice"
	tradeapp "github.com/multipos/console/internal/application/trade"
	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/inventory"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/pos"
	"github.com/multipos/console/internal/domain/report"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/domain/trade"
)

// Screen names.
const (
	ScreenCompanies  = "companies"
	ScreenBranches   = "branches"
	ScreenWarehouses = "warehouses"
	ScreenTerminals  = "terminals"
	ScreenTabs       = "tabs"
	ScreenHeldBills  = "held-bills"
	ScreenSales      = "sales"
	ScreenInventory  = "inventory"
	ScreenLedger     = "ledger"
)

// ReportScreen names the screen of one report kind.
func ReportScreen(kind report.Kind) string { return "reports-" + string(kind) }

// Upstream is every gateway at once; *apiclient.Client satisfies it.
type Upstream interface {
	organization.CompanyGateway
	organization.ScopeGateway
	pos.Gateway
	trade.SaleGateway
	finance.LedgerGateway
	inventory.ItemGateway
	inventory.StockReportGateway
	report.Gateway
}

// Gateways are the upstream collaborators of one workspace. Tests fill
// them with mocks one by one.
type Gateways struct {
	Companies organization.CompanyGateway
	Scopes    organization.ScopeGateway
	POS       pos.Gateway
	Sales     trade.SaleGateway
	Ledger    finance.LedgerGateway
	Items     inventory.ItemGateway
	Stock     inventory.StockReportGateway
	Reports   report.Gateway
}

// GatewaysOf routes every gateway to u.
func GatewaysOf(u Upstream) Gateways {
	return Gateways{
		Companies: u, Scopes: u, POS: u, Sales: u,
		Ledger: u, Items: u, Stock: u, Reports: u,
	}
}

// Workspace is one user's slices and screens.
type Workspace struct {
	Principal identity.Principal

	Companies *orgapp.CompanyService
	Scopes    *orgapp.ScopeService
	POS       *posapp.Service
	Sales     *tradeapp.SaleService
	Ledger    *financeapp.LedgerService
	Inventory *inventoryapp.ItemService
	Reports   *reportapp.Service

	screens  map[string]screen.View
	lastUsed atomic.Int64
}

// New wires services and screens over gw. cache may be nil.
func New(p identity.Principal, gw Gateways, cache orgapp.SettingsCache, opts ...slice.Option) *Workspace {
	w := &Workspace{
		Principal: p,
		Companies: orgapp.NewCompanyService(gw.Companies, opts...),
		Scopes:    orgapp.NewScopeService(gw.Scopes, cache, opts...),
		POS:       posapp.NewService(gw.POS, opts...),
		Sales:     tradeapp.NewSaleService(gw.Sales, opts...),
		Ledger:    financeapp.NewLedgerService(gw.Ledger, opts...),
		Inventory: inventoryapp.NewItemService(gw.Items, gw.Stock, opts...),
		Reports:   reportapp.NewService(gw.Reports, opts...),
	}
	w.screens = w.buildScreens()
	w.Touch(time.Now())
	return w
}

func (w *Workspace) buildScreens() map[string]screen.View {
	scoped := scopeDefaults(w.Principal)
	views := []screen.View{
		screen.New(ScreenCompanies, identity.ResCompanies, w.Companies.Store(), w.Companies.Fetcher()),
		screen.New(ScreenBranches, identity.ResBranches, w.Scopes.Branches(), w.Scopes.BranchFetcher()),
		screen.New(ScreenWarehouses, identity.ResWarehouses, w.Scopes.Warehouses(), w.Scopes.WarehouseFetcher()),
		screen.New(ScreenTerminals, identity.ResPOS, w.POS.Terminals(), w.POS.TerminalFetcher(),
			screen.WithDefaults[pos.Terminal](scoped)),
		screen.New(ScreenTabs, identity.ResTabs, w.POS.Tabs(), w.POS.TabFetcher(),
			screen.WithRequired[pos.Tab]("terminalId")),
		screen.New(ScreenHeldBills, identity.ResHeldBills, w.POS.Held(), w.POS.HeldFetcher(),
			screen.WithDefaults[pos.HeldBill](scoped)),
		screen.New(ScreenSales, identity.ResSales, w.Sales.Store(), w.Sales.Fetcher(),
			screen.WithDefaults[trade.Sale](scoped),
			screen.WithSummary(tradeapp.SummaryOf)),
		screen.New(ScreenInventory, identity.ResInventory, w.Inventory.Store(), w.Inventory.Fetcher(),
			screen.WithDefaults[inventory.Item](scoped),
			screen.WithSummary(func(st slice.State[inventory.Item]) json.RawMessage {
				return marshal(inventory.Summarize(st.Data))
			})),
		screen.New(ScreenLedger, identity.ResLedger, w.Ledger.Store(), w.Ledger.Fetcher(),
			screen.WithDefaults[finance.LedgerEntry](scoped),
			screen.WithRequired[finance.LedgerEntry]("scopeType", "scopeId", "partyType", "partyId"),
			screen.WithSummary(func(slice.State[finance.LedgerEntry]) json.RawMessage {
				return marshal(w.Ledger.LocalBalance())
			})),
	}
	for _, kind := range report.Kinds {
		views = append(views, screen.New(ReportScreen(kind), identity.ResReports, w.Reports.Store(kind), w.Reports.Fetcher(kind),
			screen.WithDefaults[report.Row](scoped)))
	}

	out := make(map[string]screen.View, len(views))
	for _, v := range views {
		out[v.Name()] = v
	}
	return out
}

// scopeDefaults pins branch and warehouse users to their own scope.
// Company-wide roles start unfiltered.
func scopeDefaults(p identity.Principal) query.Filters {
	if p.Scope.IsZero() || p.Role.IsAdmin() || p.Scope.Type == shared.ScopeCompany {
		return nil
	}
	return query.Filters{"scopeType": string(p.Scope.Type), "scopeId": p.Scope.ID}
}

func marshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// Screen looks up a screen by name; "reports/sales" and "reports-sales"
// name the same screen.
func (w *Workspace) Screen(name string) (screen.View, bool) {
	v, ok := w.screens[strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "/", "-")]
	return v, ok
}

// Screens lists screen names in sorted order.
func (w *Workspace) Screens() []string {
	out := make([]string, 0, len(w.screens))
	for name := range w.screens {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Flags reads the scope settings of the principal's scope.
func (w *Workspace) Flags(ctx context.Context) identity.Flags {
	return w.Scopes.Flags(ctx, w.Principal.Scope)
}

// Ensure refreshes the screen when it never loaded.
func (w *Workspace) Ensure(ctx context.Context, v screen.View) error {
	if v.Loaded() {
		return nil
	}
	return v.Refresh(ctx)
}

// Dataset builds the export dataset of a screen from its loaded data.
func (w *Workspace) Dataset(name string) (exportapp.Dataset, error) {
	v, ok := w.Screen(name)
	if !ok {
		return exportapp.Dataset{}, shared.ErrNotFound.WithMessage(fmt.Sprintf("unknown screen %q", name))
	}
	switch v.Name() {
	case ScreenCompanies:
		return exportapp.Companies(w.Companies.Store().Snapshot().Data), nil
	case ScreenBranches:
		return exportapp.Branches(w.Scopes.Branches().Snapshot().Data), nil
	case ScreenWarehouses:
		return exportapp.Warehouses(w.Scopes.Warehouses().Snapshot().Data), nil
	case ScreenTerminals:
		return exportapp.Terminals(w.POS.Terminals().Snapshot().Data), nil
	case ScreenHeldBills:
		return exportapp.HeldBills(w.POS.Held().Snapshot().Data), nil
	case ScreenSales:
		return exportapp.Sales(w.Sales.Store().Snapshot().Data), nil
	case ScreenInventory:
		return exportapp.Inventory(w.Inventory.Store().Snapshot().Data), nil
	case ScreenLedger:
		return exportapp.Ledger(w.Ledger.Account(), w.Ledger.Store().Snapshot().Data), nil
	}
	for _, kind := range report.Kinds {
		if v.Name() == ReportScreen(kind) {
			return exportapp.Report(w.Reports.Report(kind)), nil
		}
	}
	return exportapp.Dataset{}, shared.ErrUnsupported.WithMessage(fmt.Sprintf("screen %q cannot be exported", v.Name()))
}

// Touch records use at t.
func (w *Workspace) Touch(t time.Time) { w.lastUsed.Store(t.UnixNano()) }

// LastUsed is the time of the last Touch.
func (w *Workspace) LastUsed() time.Time { return time.Unix(0, w.lastUsed.Load()) }

// Reset clears every slice.
func (w *Workspace) Reset() {
	w.Companies.Store().Reset()
	w.Scopes.Branches().Reset()
	w.Scopes.Warehouses().Reset()
	w.POS.Terminals().Reset()
	w.POS.Tabs().Reset()
	w.POS.Held().Reset()
	w.Sales.Store().Reset()
	w.Inventory.Store().Reset()
	w.Ledger.Store().Reset()
	for _, kind := range report.Kinds {
		w.Reports.Store(kind).Reset()
	}
}
