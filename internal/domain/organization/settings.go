package organization

import (
	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// ScopeSettings are the per-branch/per-warehouse switches that widen what
// lower roles may do in that scope.
type ScopeSettings struct {
	Scope                   shared.Scope    `json:"scope"`
	AllowManagerCompanyCrud bool            `json:"allowManagerCompanyCrud"`
	AllowCashierPosTabs     bool            `json:"allowCashierPosTabs"`
	AllowCreditSales        bool            `json:"allowCreditSales"`
	AllowWarehouseTransfers bool            `json:"allowWarehouseTransfers"`
	OpenAccountLimit        decimal.Decimal `json:"openAccountLimit"`
}

func (s *ScopeSettings) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	// Settings sometimes arrive wrapped as {settings: {...}}.
	if inner := f.Object("settings"); inner != nil {
		f = inner
	}
	*s = ScopeSettings{
		Scope:                   shared.ReadScope(f),
		AllowManagerCompanyCrud: f.Bool("allowManagerCompanyCrud"),
		AllowCashierPosTabs:     f.Bool("allowCashierPosTabs"),
		AllowCreditSales:        f.Bool("allowCreditSales"),
		AllowWarehouseTransfers: f.Bool("allowWarehouseTransfers"),
		OpenAccountLimit:        f.Decimal("openAccountLimit"),
	}
	return nil
}

// SettingsInput is the PUT /branches/:id/settings body.
type SettingsInput struct {
	AllowManagerCompanyCrud *bool            `json:"allowManagerCompanyCrud,omitempty"`
	AllowCashierPosTabs     *bool            `json:"allowCashierPosTabs,omitempty"`
	AllowCreditSales        *bool            `json:"allowCreditSales,omitempty"`
	AllowWarehouseTransfers *bool            `json:"allowWarehouseTransfers,omitempty"`
	OpenAccountLimit        *decimal.Decimal `json:"openAccountLimit,omitempty"`
}

// Apply merges a partial update into s.
func (s ScopeSettings) Apply(in SettingsInput) ScopeSettings {
	if in.AllowManagerCompanyCrud != nil {
		s.AllowManagerCompanyCrud = *in.AllowManagerCompanyCrud
	}
	if in.AllowCashierPosTabs != nil {
		s.AllowCashierPosTabs = *in.AllowCashierPosTabs
	}
	if in.AllowCreditSales != nil {
		s.AllowCreditSales = *in.AllowCreditSales
	}
	if in.AllowWarehouseTransfers != nil {
		s.AllowWarehouseTransfers = *in.AllowWarehouseTransfers
	}
	if in.OpenAccountLimit != nil {
		s.OpenAccountLimit = *in.OpenAccountLimit
	}
	return s
}
