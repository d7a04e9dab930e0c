package identity

import (
	"sort"
	"strings"
)

// Resource is something the console can act on.
type Resource string

const (
	ResCompanies  Resource = "companies"
	ResBranches   Resource = "branches"
	ResWarehouses Resource = "warehouses"
	ResSettings   Resource = "settings"
	ResPOS        Resource = "pos"
	ResTabs       Resource = "tabs"
	ResHeldBills  Resource = "held_bills"
	ResSales      Resource = "sales"
	ResLedger     Resource = "ledger"
	ResInventory  Resource = "inventory"
	ResStock      Resource = "stock_reports"
	ResReports    Resource = "reports"
	ResExports    Resource = "exports"
)

// Resources lists every resource in display order.
var Resources = []Resource{
	ResCompanies, ResBranches, ResWarehouses, ResSettings, ResPOS, ResTabs, ResHeldBills,
	ResSales, ResLedger, ResInventory, ResStock, ResReports, ResExports,
}

// Action is a verb on a resource.
type Action string

const (
	ActRead   Action = "read"
	ActCreate Action = "create"
	ActUpdate Action = "update"
	ActDelete Action = "delete"
	ActExport Action = "export"
)

var Actions = []Action{ActRead, ActCreate, ActUpdate, ActDelete, ActExport}

func ParseResource(s string) (Resource, bool) {
	r := Resource(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	for _, known := range Resources {
		if r == known {
			return r, true
		}
	}
	return "", false
}

func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// Flags are the scope settings that widen capabilities for lower roles.
type Flags struct {
	AllowManagerCompanyCrud bool `json:"allowManagerCompanyCrud"`
	AllowCashierPosTabs     bool `json:"allowCashierPosTabs"`
	AllowCreditSales        bool `json:"allowCreditSales"`
}

type grant map[Resource][]Action

var (
	all       = []Action{ActRead, ActCreate, ActUpdate, ActDelete, ActExport}
	readOnly  = []Action{ActRead}
	readWrite = []Action{ActRead, ActCreate, ActUpdate}
	readExp   = []Action{ActRead, ActExport}
)

// baseGrants is the role matrix before scope flags apply.
var baseGrants = map[Role]grant{
	RoleAdmin: {
		ResCompanies: all, ResBranches: all, ResWarehouses: all, ResSettings: readWrite,
		ResPOS: all, ResTabs: all, ResHeldBills: all, ResSales: all, ResLedger: all,
		ResInventory: all, ResStock: readExp, ResReports: readExp, ResExports: readExp,
	},
	RoleManager: {
		ResCompanies: readExp, ResBranches: readOnly, ResWarehouses: readOnly, ResSettings: readOnly,
		ResPOS: readWrite, ResTabs: all, ResHeldBills: all, ResSales: {ActRead, ActCreate, ActExport},
		ResLedger: {ActRead, ActCreate, ActExport}, ResInventory: {ActRead, ActCreate, ActUpdate, ActExport},
		ResStock: readExp, ResReports: readExp, ResExports: readExp,
	},
	RoleCashier: {
		ResPOS: readOnly, ResTabs: readOnly, ResHeldBills: {ActRead, ActCreate, ActDelete},
		ResSales: {ActRead, ActCreate}, ResInventory: readOnly, ResLedger: readOnly,
	},
	RoleWarehouseKeeper: {
		ResWarehouses: readOnly, ResInventory: {ActRead, ActCreate, ActUpdate, ActExport},
		ResStock: readExp, ResReports: readOnly, ResExports: readExp,
	},
	RoleViewer: {
		ResCompanies: readOnly, ResBranches: readOnly, ResWarehouses: readOnly, ResSales: readOnly,
		ResInventory: readOnly, ResStock: readOnly, ResReports: readOnly,
	},
}

// Capability reports whether role may perform action on resource with no
// scope flags set. It is pure and safe for concurrent use.
func Capability(role Role, resource Resource, action Action) bool {
	return CapabilityWithSettings(role, resource, action, Flags{})
}

// CapabilityWithSettings applies scope settings on top of the role matrix:
// managers gain company management with AllowManagerCompanyCrud, and
// cashiers gain tab management with AllowCashierPosTabs. Credit sales by
// cashiers are gated separately by CanSellOnCredit.
func CapabilityWithSettings(role Role, resource Resource, action Action, flags Flags) bool {
	role = ParseRole(string(role))
	if role == "" {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}
	switch {
	case role == RoleManager && resource == ResCompanies && flags.AllowManagerCompanyCrud:
		return true
	case role == RoleCashier && resource == ResTabs && flags.AllowCashierPosTabs &&
		(action == ActCreate || action == ActUpdate || action == ActDelete):
		return true
	}
	for _, a := range baseGrants[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}

// CanSellOnCredit gates sales that leave a balance on the customer account.
func CanSellOnCredit(role Role, flags Flags) bool {
	switch ParseRole(string(role)) {
	case RoleSuperAdmin, RoleAdmin, RoleManager:
		return true
	case RoleCashier:
		return flags.AllowCreditSales
	}
	return false
}

// Matrix is resource -> allowed actions, what the UI uses to toggle controls.
type Matrix map[Resource][]Action

// MatrixFor expands the policy for one role and flag set.
func MatrixFor(role Role, flags Flags) Matrix {
	m := Matrix{}
	for _, res := range Resources {
		var acts []Action
		for _, a := range Actions {
			if CapabilityWithSettings(role, res, a, flags) {
				acts = append(acts, a)
			}
		}
		if len(acts) > 0 {
			sort.Slice(acts, func(i, j int) bool { return acts[i] < acts[j] })
			m[res] = acts
		}
	}
	return m
}

// Allows is a lookup helper on a computed matrix.
func (m Matrix) Allows(res Resource, act Action) bool {
	for _, a := range m[res] {
		if a == act {
			return true
		}
	}
	return false
}
