// Package organization holds the slices of companies, branches and
// warehouses, plus scope settings reads through a cache.
package organization

import (
	"context"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/application/validation"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
)

// CompanyService owns the companies slice.
type CompanyService struct {
	gateway organization.CompanyGateway
	store   *slice.Store[organization.Company]
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(gateway organization.CompanyGateway, opts ...slice.Option) *CompanyService {
	return &CompanyService{
		gateway: gateway,
		store:   slice.New[organization.Company]("companies", opts...),
	}
}

// Store exposes the slice for subscriptions and screens.
func (s *CompanyService) Store() *slice.Store[organization.Company] { return s.store }

// Fetcher adapts the gateway for slice.Store.Fetch.
func (s *CompanyService) Fetcher() slice.Fetcher[organization.Company] {
	return s.gateway.ListCompanies
}

// Fetch loads companies matching filters (search, status).
func (s *CompanyService) Fetch(ctx context.Context, filters query.Filters) error {
	return s.store.Fetch(ctx, query.Build(filters), s.gateway.ListCompanies)
}

// Details loads one company with its branches and warehouses. The result
// does not touch the slice.
func (s *CompanyService) Details(ctx context.Context, id string) (organization.CompanyDetails, error) {
	if id == "" {
		return organization.CompanyDetails{}, shared.ErrInvalidInput.WithMessage("company id is required")
	}
	return s.gateway.CompanyDetails(ctx, id)
}

// Create validates in, posts it and appends the created company.
func (s *CompanyService) Create(ctx context.Context, in organization.CompanyInput) (organization.Company, error) {
	if err := validation.Struct(in); err != nil {
		return organization.Company{}, err
	}
	return s.store.Create(ctx, func(ctx context.Context) (organization.Company, error) {
		return s.gateway.CreateCompany(ctx, in)
	})
}

// Update replaces the company in place after the server accepted it.
func (s *CompanyService) Update(ctx context.Context, id string, in organization.CompanyInput) (organization.Company, error) {
	if err := validation.Struct(in); err != nil {
		return organization.Company{}, err
	}
	return s.store.Update(ctx, func(ctx context.Context) (organization.Company, error) {
		co, err := s.gateway.UpdateCompany(ctx, id, in)
		if err == nil && co.ID == "" {
			co.ID = id
		}
		return co, err
	})
}

// Delete removes the company from the server and the slice.
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id, func(ctx context.Context) error {
		return s.gateway.DeleteCompany(ctx, id)
	})
}

// Export downloads the server-rendered company export.
func (s *CompanyService) Export(ctx context.Context, filters query.Filters) (shared.Download, error) {
	return s.gateway.ExportCompanies(ctx, query.Build(filters))
}
