package inventory

import (
	"context"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/application/validation"
	"github.com/multipos/console/internal/domain/inventory"
)

// ItemService owns the inventory slice and reads stock reports.
type ItemService struct {
	items   inventory.ItemGateway
	reports inventory.StockReportGateway
	store   *slice.Store[inventory.Item]
}

// NewItemService creates a new ItemService
func NewItemService(items inventory.ItemGateway, reports inventory.StockReportGateway, opts ...slice.Option) *ItemService {
	return &ItemService{
		items:   items,
		reports: reports,
		store:   slice.New[inventory.Item]("inventory", opts...),
	}
}

func (s *ItemService) Store() *slice.Store[inventory.Item] { return s.store }

func (s *ItemService) Fetcher() slice.Fetcher[inventory.Item] { return s.items.ListItems }

// Fetch loads items for filters (scopeType, scopeId, category, search).
func (s *ItemService) Fetch(ctx context.Context, filters query.Filters) error {
	return s.store.Fetch(ctx, query.Build(filters), s.items.ListItems)
}

func (s *ItemService) Create(ctx context.Context, in inventory.ItemInput) (inventory.Item, error) {
	if err := validation.Struct(in); err != nil {
		return inventory.Item{}, err
	}
	return s.store.Create(ctx, func(ctx context.Context) (inventory.Item, error) {
		return s.items.CreateItem(ctx, in)
	})
}

func (s *ItemService) Update(ctx context.Context, id string, in inventory.ItemInput) (inventory.Item, error) {
	if err := validation.Struct(in); err != nil {
		return inventory.Item{}, err
	}
	return s.store.Update(ctx, func(ctx context.Context) (inventory.Item, error) {
		item, err := s.items.UpdateItem(ctx, id, in)
		if err == nil && item.ID == "" {
			item.ID = id
		}
		return item, err
	})
}

func (s *ItemService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id, func(ctx context.Context) error {
		return s.items.DeleteItem(ctx, id)
	})
}

// LowStock returns loaded items at or below their minimum level.
func (s *ItemService) LowStock() []inventory.Item {
	var out []inventory.Item
	for _, it := range s.store.Snapshot().Data {
		if it.StockStatus() != inventory.StatusInStock {
			out = append(out, it)
		}
	}
	return out
}

// Summary asks the server; LocalSummary is used when it fails.
func (s *ItemService) Summary(ctx context.Context, filters query.Filters) (inventory.StockSummary, error) {
	return s.reports.StockSummary(ctx, query.Build(filters))
}

// LocalSummary computes the summary over the loaded items.
func (s *ItemService) LocalSummary() inventory.StockSummary {
	return inventory.Summarize(s.store.Snapshot().Data)
}

func (s *ItemService) Statistics(ctx context.Context, filters query.Filters) (inventory.StockStatistics, error) {
	return s.reports.StockStatistics(ctx, query.Build(filters))
}

func (s *ItemService) ProductReport(ctx context.Context, productID string, filters query.Filters) (inventory.ProductReport, error) {
	return s.reports.ProductReport(ctx, productID, query.Build(filters))
}
