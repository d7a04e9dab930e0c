package trade

import (
	"context"
	"net/url"

	"github.com/multipos/console/internal/domain/shared"
)

// SaleGateway is the remote source of sales.
type SaleGateway interface {
	// ListSales accepts scopeType, scopeId, startDate, endDate,
	// paymentStatus and search params
	ListSales(ctx context.Context, params url.Values) (shared.Page[Sale], error)
	GetSale(ctx context.Context, id string) (Sale, error)
	CreateSale(ctx context.Context, in SaleInput) (Sale, error)
}
