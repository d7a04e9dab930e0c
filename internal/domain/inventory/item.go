package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// Stock status labels derived from quantity and reorder level.
const (
	StatusInStock    = "IN_STOCK"
	StatusLowStock   = "LOW_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

// Item is a product stocked in one scope.
type Item struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Barcode       string          `json:"barcode,omitempty"`
	Name          string          `json:"name"`
	Category      string          `json:"category,omitempty"`
	Unit          string          `json:"unit,omitempty"`
	Scope         shared.Scope    `json:"scope"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStockLevel decimal.Decimal `json:"minStockLevel"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	shared.Timestamps
}

func (i Item) EntityID() string { return i.ID }

func (i *Item) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*i = Item{
		ID:            f.ID("id"),
		SKU:           f.String("sku"),
		Barcode:       f.String("barcode"),
		Name:          first(f.String("name"), f.String("productName")),
		Category:      first(f.String("category"), f.String("categoryName")),
		Unit:          f.String("unit"),
		Scope:         shared.ReadScope(f),
		Quantity:      firstDecimal(f, "quantity", "currentStock", "stock"),
		MinStockLevel: firstDecimal(f, "minStockLevel", "reorderLevel", "minStock"),
		UnitPrice:     firstDecimal(f, "unitPrice", "sellingPrice", "price"),
		CostPrice:     firstDecimal(f, "costPrice", "cost"),
		Timestamps:    shared.ReadTimestamps(f),
	}
	return nil
}

// StockStatus classifies the item against its reorder level.
func (i Item) StockStatus() string {
	switch {
	case !i.Quantity.IsPositive():
		return StatusOutOfStock
	case i.Quantity.LessThanOrEqual(i.MinStockLevel):
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// StockValue is quantity valued at cost.
func (i Item) StockValue() decimal.Decimal {
	return i.Quantity.Mul(i.CostPrice)
}

// ItemInput is the create/update payload for /inventory.
type ItemInput struct {
	SKU           string           `json:"sku" validate:"required,max=64"`
	Barcode       string           `json:"barcode,omitempty" validate:"omitempty,max=64"`
	Name          string           `json:"name" validate:"required,max=160"`
	Category      string           `json:"category,omitempty" validate:"omitempty,max=80"`
	Unit          string           `json:"unit,omitempty" validate:"omitempty,max=20"`
	ScopeType     shared.ScopeType `json:"scopeType" validate:"required,oneof=BRANCH WAREHOUSE COMPANY"`
	ScopeID       string           `json:"scopeId" validate:"required"`
	Quantity      decimal.Decimal  `json:"quantity"`
	MinStockLevel decimal.Decimal  `json:"minStockLevel"`
	UnitPrice     decimal.Decimal  `json:"unitPrice"`
	CostPrice     decimal.Decimal  `json:"costPrice"`
}

// Check rejects negative quantities and prices, which the validator tags
// cannot express for decimals.
func (in ItemInput) Check() error {
	fields := map[string]string{}
	for name, v := range map[string]decimal.Decimal{
		"quantity": in.Quantity, "minStockLevel": in.MinStockLevel,
		"unitPrice": in.UnitPrice, "costPrice": in.CostPrice,
	} {
		if v.IsNegative() {
			fields[name] = "cannot be negative"
		}
	}
	if len(fields) > 0 {
		return shared.NewValidationError(fields)
	}
	return nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstDecimal(f shared.Fields, names ...string) decimal.Decimal {
	for _, n := range names {
		if f.Has(n) {
			return f.Decimal(n)
		}
	}
	return decimal.Zero
}
