package organization

import (
	"context"
	"net/url"

	"github.com/multipos/console/internal/domain/shared"
)

// CompanyGateway is the remote source of companies. The POS API owns the
// records; implementations only translate calls.
type CompanyGateway interface {
	// ListCompanies returns companies matching params (search, status, page)
	ListCompanies(ctx context.Context, params url.Values) (shared.Page[Company], error)

	// CompanyDetails returns a company with its branches and warehouses
	CompanyDetails(ctx context.Context, id string) (CompanyDetails, error)

	CreateCompany(ctx context.Context, in CompanyInput) (Company, error)
	UpdateCompany(ctx context.Context, id string, in CompanyInput) (Company, error)
	DeleteCompany(ctx context.Context, id string) error

	// ExportCompanies downloads the server-rendered company export as-is
	ExportCompanies(ctx context.Context, params url.Values) (shared.Download, error)
}

// ScopeGateway lists branches and warehouses and reads their settings.
type ScopeGateway interface {
	ListBranches(ctx context.Context, params url.Values) (shared.Page[Branch], error)
	ListWarehouses(ctx context.Context, params url.Values) (shared.Page[Warehouse], error)

	// ScopeSettings reads /branches/:id/settings or /warehouses/:id/settings
	ScopeSettings(ctx context.Context, scope shared.Scope) (ScopeSettings, error)
	UpdateScopeSettings(ctx context.Context, scope shared.Scope, in SettingsInput) (ScopeSettings, error)
}
