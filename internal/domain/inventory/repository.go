package inventory

import (
	"context"
	"net/url"

	"github.com/multipos/console/internal/domain/shared"
)

// ItemGateway is the remote source of inventory items.
type ItemGateway interface {
	ListItems(ctx context.Context, params url.Values) (shared.Page[Item], error)
	CreateItem(ctx context.Context, in ItemInput) (Item, error)
	UpdateItem(ctx context.Context, id string, in ItemInput) (Item, error)
	DeleteItem(ctx context.Context, id string) error
}

// StockReportGateway serves /stock-reports.
type StockReportGateway interface {
	StockSummary(ctx context.Context, params url.Values) (StockSummary, error)
	StockStatistics(ctx context.Context, params url.Values) (StockStatistics, error)
	ProductReport(ctx context.Context, productID string, params url.Values) (ProductReport, error)
}
