package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/domain/trade"
)

var _ trade.SaleGateway = (*Client)(nil)

func (c *Client) ListSales(ctx context.Context, params url.Values) (shared.Page[trade.Sale], error) {
	return fetchList[trade.Sale](ctx, c, Request{Method: http.MethodGet, Path: "/sales", Query: params}, "sales")
}

func (c *Client) GetSale(ctx context.Context, id string) (trade.Sale, error) {
	return fetchOne[trade.Sale](ctx, c, Request{Method: http.MethodGet, Path: "/sales/" + url.PathEscape(id), Endpoint: "/sales/:id"}, "sale")
}

func (c *Client) CreateSale(ctx context.Context, in trade.SaleInput) (trade.Sale, error) {
	return fetchOne[trade.Sale](ctx, c, Request{Method: http.MethodPost, Path: "/sales", Body: in}, "sale")
}
