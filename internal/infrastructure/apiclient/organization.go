package apiclient

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
)

var (
	_ organization.CompanyGateway = (*Client)(nil)
	_ organization.ScopeGateway   = (*Client)(nil)
)

func (c *Client) ListCompanies(ctx context.Context, params url.Values) (shared.Page[organization.Company], error) {
	return fetchList[organization.Company](ctx, c, Request{Method: http.MethodGet, Path: "/companies", Query: params}, "companies")
}

func (c *Client) CompanyDetails(ctx context.Context, id string) (organization.CompanyDetails, error) {
	return fetchOne[organization.CompanyDetails](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/companies/" + url.PathEscape(id) + "/details",
		Endpoint: "/companies/:id/details",
	})
}

func (c *Client) CreateCompany(ctx context.Context, in organization.CompanyInput) (organization.Company, error) {
	return fetchOne[organization.Company](ctx, c, Request{Method: http.MethodPost, Path: "/companies", Body: in}, "company")
}

func (c *Client) UpdateCompany(ctx context.Context, id string, in organization.CompanyInput) (organization.Company, error) {
	return fetchOne[organization.Company](ctx, c, Request{
		Method:   http.MethodPut,
		Path:     "/companies/" + url.PathEscape(id),
		Endpoint: "/companies/:id",
		Body:     in,
	}, "company")
}

func (c *Client) DeleteCompany(ctx context.Context, id string) error {
	return exec(ctx, c, Request{Method: http.MethodDelete, Path: "/companies/" + url.PathEscape(id), Endpoint: "/companies/:id"})
}

// ExportCompanies downloads the server-side export. The body is returned
// untouched; the file name comes from Content-Disposition when present.
func (c *Client) ExportCompanies(ctx context.Context, params url.Values) (shared.Download, error) {
	resp, err := c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    "/companies/export",
		Query:   params,
		Headers: map[string]string{"Accept": "*/*"},
	})
	if err != nil {
		return shared.Download{}, err
	}
	ct := resp.Headers.Get("Content-Type")
	return shared.Download{
		FileName:    downloadName(resp.Headers.Get("Content-Disposition"), ct, "companies"),
		ContentType: ct,
		Body:        resp.Body,
	}, nil
}

func downloadName(disposition, contentType, base string) string {
	if _, p, err := mime.ParseMediaType(disposition); err == nil && p["filename"] != "" {
		return p["filename"]
	}
	ext := ".csv"
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.Contains(mt, "spreadsheetml"), strings.Contains(mt, "ms-excel"):
			ext = ".xlsx"
		case mt == "application/pdf":
			ext = ".pdf"
		case mt == "application/json":
			ext = ".json"
		}
	}
	return base + ext
}

func (c *Client) ListBranches(ctx context.Context, params url.Values) (shared.Page[organization.Branch], error) {
	return fetchList[organization.Branch](ctx, c, Request{Method: http.MethodGet, Path: "/branches", Query: params}, "branches")
}

func (c *Client) ListWarehouses(ctx context.Context, params url.Values) (shared.Page[organization.Warehouse], error) {
	return fetchList[organization.Warehouse](ctx, c, Request{Method: http.MethodGet, Path: "/warehouses", Query: params}, "warehouses")
}

func (c *Client) ScopeSettings(ctx context.Context, scope shared.Scope) (organization.ScopeSettings, error) {
	req, err := settingsRequest(http.MethodGet, scope, nil)
	if err != nil {
		return organization.ScopeSettings{}, err
	}
	s, err := fetchOne[organization.ScopeSettings](ctx, c, req)
	if err != nil {
		return s, err
	}
	if s.Scope.IsZero() {
		s.Scope = scope
	}
	return s, nil
}

func (c *Client) UpdateScopeSettings(ctx context.Context, scope shared.Scope, in organization.SettingsInput) (organization.ScopeSettings, error) {
	req, err := settingsRequest(http.MethodPut, scope, in)
	if err != nil {
		return organization.ScopeSettings{}, err
	}
	s, err := fetchOne[organization.ScopeSettings](ctx, c, req)
	if err != nil {
		return s, err
	}
	if s.Scope.IsZero() {
		s.Scope = scope
	}
	return s, nil
}

// Only branches and warehouses carry settings.
func settingsRequest(method string, scope shared.Scope, body any) (Request, error) {
	if scope.Type != shared.ScopeBranch && scope.Type != shared.ScopeWarehouse {
		return Request{}, shared.ErrUnsupported.WithMessage(fmt.Sprintf("no settings for scope %q", scope.Type))
	}
	return Request{
		Method:   method,
		Path:     "/" + scope.Type.Path() + "/" + url.PathEscape(scope.ID) + "/settings",
		Endpoint: "/" + scope.Type.Path() + "/:id/settings",
		Body:     body,
	}, nil
}
