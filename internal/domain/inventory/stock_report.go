package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// StockSummary is GET /stock-reports/summary.
type StockSummary struct {
	TotalItems      int64           `json:"totalItems"`
	TotalQuantity   decimal.Decimal `json:"totalQuantity"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	LowStockCount   int64           `json:"lowStockCount"`
	OutOfStockCount int64           `json:"outOfStockCount"`
}

func (s *StockSummary) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	if inner := f.Object("summary"); inner != nil {
		f = inner
	}
	*s = StockSummary{
		TotalItems:      first64(f, "totalItems", "totalProducts"),
		TotalQuantity:   firstDecimal(f, "totalQuantity", "totalStock"),
		TotalValue:      firstDecimal(f, "totalValue", "totalStockValue"),
		LowStockCount:   first64(f, "lowStockCount", "lowStockItems"),
		OutOfStockCount: first64(f, "outOfStockCount", "outOfStockItems"),
	}
	return nil
}

// Summarize computes a StockSummary from loaded items.
func Summarize(items []Item) StockSummary {
	var s StockSummary
	for _, it := range items {
		s.TotalItems++
		s.TotalQuantity = s.TotalQuantity.Add(it.Quantity)
		s.TotalValue = s.TotalValue.Add(it.StockValue())
		switch it.StockStatus() {
		case StatusLowStock:
			s.LowStockCount++
		case StatusOutOfStock:
			s.OutOfStockCount++
		}
	}
	return s
}

// CategoryStock is one row of the per-category statistics.
type CategoryStock struct {
	Category  string          `json:"category"`
	ItemCount int64           `json:"itemCount"`
	Quantity  decimal.Decimal `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
}

func (c *CategoryStock) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*c = CategoryStock{
		Category:  first(f.String("category"), f.String("categoryName")),
		ItemCount: first64(f, "itemCount", "count", "totalItems"),
		Quantity:  firstDecimal(f, "quantity", "totalQuantity"),
		Value:     firstDecimal(f, "value", "totalValue"),
	}
	return nil
}

// StockStatistics is GET /stock-reports/statistics.
type StockStatistics struct {
	Summary    StockSummary    `json:"summary"`
	ByCategory []CategoryStock `json:"byCategory"`
	TopLow     []Item          `json:"lowStockItems"`
}

func (s *StockStatistics) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	var out StockStatistics
	if err := out.Summary.UnmarshalJSON(b); err != nil {
		return err
	}
	for _, key := range []string{"byCategory", "categoryBreakdown", "categories"} {
		if f.Has(key) {
			if err := f.Decode(key, &out.ByCategory); err != nil {
				return err
			}
			break
		}
	}
	if err := f.Decode("lowStockItems", &out.TopLow); err != nil {
		return err
	}
	*s = out
	return nil
}

// Movement is one stock change for a product.
type Movement struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference,omitempty"`
	Scope     shared.Scope    `json:"scope"`
	At        time.Time       `json:"at"`
}

func (m *Movement) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*m = Movement{
		ID:        f.ID("id"),
		Type:      first(f.String("type"), f.String("movementType"), f.String("transactionType")),
		Quantity:  firstDecimal(f, "quantity", "quantityChange"),
		Reference: first(f.String("reference"), f.String("referenceNo")),
		Scope:     shared.ReadScope(f),
		At:        f.Time("createdAt"),
	}
	return nil
}

// ProductReport is GET /stock-reports/product/:id.
type ProductReport struct {
	Product   Item       `json:"product"`
	Locations []Item     `json:"locations"`
	Movements []Movement `json:"movements"`
}

func (p *ProductReport) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	var out ProductReport
	if raw := f.Raw("product"); raw != nil {
		if err := out.Product.UnmarshalJSON(raw); err != nil {
			return err
		}
	} else if err := out.Product.UnmarshalJSON(b); err != nil {
		return err
	}
	for _, key := range []string{"locations", "stockByLocation"} {
		if f.Has(key) {
			if err := f.Decode(key, &out.Locations); err != nil {
				return err
			}
			break
		}
	}
	for _, key := range []string{"movements", "transactions", "history"} {
		if f.Has(key) {
			if err := f.Decode(key, &out.Movements); err != nil {
				return err
			}
			break
		}
	}
	*p = out
	return nil
}

// TotalQuantity sums stock across locations, falling back to the product row.
func (p ProductReport) TotalQuantity() decimal.Decimal {
	if len(p.Locations) == 0 {
		return p.Product.Quantity
	}
	sum := decimal.Zero
	for _, l := range p.Locations {
		sum = sum.Add(l.Quantity)
	}
	return sum
}

func first64(f shared.Fields, names ...string) int64 {
	for _, n := range names {
		if f.Has(n) {
			return f.Int(n)
		}
	}
	return 0
}
