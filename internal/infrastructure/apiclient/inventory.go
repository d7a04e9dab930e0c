package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/multipos/console/internal/domain/inventory"
	"github.com/multipos/console/internal/domain/shared"
)

var (
	_ inventory.ItemGateway        = (*Client)(nil)
	_ inventory.StockReportGateway = (*Client)(nil)
)

func (c *Client) ListItems(ctx context.Context, params url.Values) (shared.Page[inventory.Item], error) {
	return fetchList[inventory.Item](ctx, c, Request{Method: http.MethodGet, Path: "/inventory", Query: params}, "inventory", "products")
}

func (c *Client) CreateItem(ctx context.Context, in inventory.ItemInput) (inventory.Item, error) {
	return fetchOne[inventory.Item](ctx, c, Request{Method: http.MethodPost, Path: "/inventory", Body: in}, "item", "product")
}

func (c *Client) UpdateItem(ctx context.Context, id string, in inventory.ItemInput) (inventory.Item, error) {
	return fetchOne[inventory.Item](ctx, c, Request{
		Method:   http.MethodPut,
		Path:     "/inventory/" + url.PathEscape(id),
		Endpoint: "/inventory/:id",
		Body:     in,
	}, "item", "product")
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return exec(ctx, c, Request{Method: http.MethodDelete, Path: "/inventory/" + url.PathEscape(id), Endpoint: "/inventory/:id"})
}

func (c *Client) StockSummary(ctx context.Context, params url.Values) (inventory.StockSummary, error) {
	return fetchOne[inventory.StockSummary](ctx, c, Request{Method: http.MethodGet, Path: "/stock-reports/summary", Query: params}, "summary")
}

func (c *Client) StockStatistics(ctx context.Context, params url.Values) (inventory.StockStatistics, error) {
	return fetchOne[inventory.StockStatistics](ctx, c, Request{Method: http.MethodGet, Path: "/stock-reports/statistics", Query: params}, "statistics")
}

func (c *Client) ProductReport(ctx context.Context, productID string, params url.Values) (inventory.ProductReport, error) {
	return fetchOne[inventory.ProductReport](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/stock-reports/product/" + url.PathEscape(productID),
		Endpoint: "/stock-reports/product/:id",
		Query:    params,
	})
}
