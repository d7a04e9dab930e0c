package organization

import (
	"context"

	"go.uber.org/zap"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/logger"
)

// SettingsCache stores scope settings between reads. Implementations
// treat backend failures as misses.
type SettingsCache interface {
	Get(ctx context.Context, scope shared.Scope) (organization.ScopeSettings, bool)
	Set(ctx context.Context, settings organization.ScopeSettings)
	Invalidate(ctx context.Context, scope shared.Scope)
}

// ScopeService owns the branches and warehouses slices and reads scope
// settings.
type ScopeService struct {
	gateway    organization.ScopeGateway
	cache      SettingsCache
	branches   *slice.Store[organization.Branch]
	warehouses *slice.Store[organization.Warehouse]
}

// NewScopeService creates a new ScopeService. cache may be nil.
func NewScopeService(gateway organization.ScopeGateway, cache SettingsCache, opts ...slice.Option) *ScopeService {
	return &ScopeService{
		gateway:    gateway,
		cache:      cache,
		branches:   slice.New[organization.Branch]("branches", opts...),
		warehouses: slice.New[organization.Warehouse]("warehouses", opts...),
	}
}

func (s *ScopeService) Branches() *slice.Store[organization.Branch]     { return s.branches }
func (s *ScopeService) Warehouses() *slice.Store[organization.Warehouse] { return s.warehouses }

func (s *ScopeService) BranchFetcher() slice.Fetcher[organization.Branch] {
	return s.gateway.ListBranches
}

func (s *ScopeService) WarehouseFetcher() slice.Fetcher[organization.Warehouse] {
	return s.gateway.ListWarehouses
}

func (s *ScopeService) FetchBranches(ctx context.Context, filters query.Filters) error {
	return s.branches.Fetch(ctx, query.Build(filters), s.gateway.ListBranches)
}

func (s *ScopeService) FetchWarehouses(ctx context.Context, filters query.Filters) error {
	return s.warehouses.Fetch(ctx, query.Build(filters), s.gateway.ListWarehouses)
}

// Settings returns the scope's settings, from cache when fresh. Company
// scopes have no settings and yield the zero value.
func (s *ScopeService) Settings(ctx context.Context, scope shared.Scope) (organization.ScopeSettings, error) {
	if scope.Type != shared.ScopeBranch && scope.Type != shared.ScopeWarehouse {
		return organization.ScopeSettings{Scope: scope}, nil
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, scope); ok {
			return cached, nil
		}
	}
	settings, err := s.gateway.ScopeSettings(ctx, scope)
	if err != nil {
		return organization.ScopeSettings{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, settings)
	}
	return settings, nil
}

// UpdateSettings writes through and refreshes the cached copy.
func (s *ScopeService) UpdateSettings(ctx context.Context, scope shared.Scope, in organization.SettingsInput) (organization.ScopeSettings, error) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, scope)
	}
	settings, err := s.gateway.UpdateScopeSettings(ctx, scope, in)
	if err != nil {
		return organization.ScopeSettings{}, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, settings)
	}
	logger.L(ctx).Info("scope settings updated", zap.Stringer("scope", scope))
	return settings, nil
}

// Flags converts the principal's scope settings into policy flags. A
// settings read failure yields no extra flags.
func (s *ScopeService) Flags(ctx context.Context, scope shared.Scope) identity.Flags {
	if scope.IsZero() {
		return identity.Flags{}
	}
	settings, err := s.Settings(ctx, scope)
	if err != nil {
		logger.L(ctx).Warn("scope settings unavailable", zap.Stringer("scope", scope), zap.Error(err))
		return identity.Flags{}
	}
	return FlagsOf(settings)
}

// FlagsOf maps settings onto policy flags.
func FlagsOf(s organization.ScopeSettings) identity.Flags {
	return identity.Flags{
		AllowManagerCompanyCrud: s.AllowManagerCompanyCrud,
		AllowCashierPosTabs:     s.AllowCashierPosTabs,
		AllowCreditSales:        s.AllowCreditSales,
	}
}
