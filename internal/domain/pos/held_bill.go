package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// HeldItem is one cart line of a suspended sale.
type HeldItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
}

// LineTotal is quantity * unit price less the line discount.
func (i HeldItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Sub(i.Discount)
}

func (i *HeldItem) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*i = HeldItem{
		ProductID: firstID(f, "productId", "inventoryItemId", "itemId"),
		Name:      firstString(f, "name", "productName", "itemName"),
		Quantity:  f.Decimal("quantity"),
		UnitPrice: readPrice(f),
		Discount:  f.Decimal("discount"),
	}
	return nil
}

func readPrice(f shared.Fields) decimal.Decimal {
	for _, n := range []string{"unitPrice", "price", "sellingPrice"} {
		if f.Has(n) {
			return f.Decimal(n)
		}
	}
	return decimal.Zero
}

// HeldBill is a POS sale suspended before completion.
type HeldBill struct {
	ID           string          `json:"id"`
	TerminalID   string          `json:"terminalId,omitempty"`
	Scope        shared.Scope    `json:"scope"`
	CustomerName string          `json:"customerName,omitempty"`
	Items        []HeldItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Note         string          `json:"note,omitempty"`
	HeldBy       string          `json:"heldBy,omitempty"`
	HeldAt       time.Time       `json:"heldAt"`
}

func (h HeldBill) EntityID() string { return h.ID }

func (h *HeldBill) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	out := HeldBill{
		ID:           f.ID("id"),
		TerminalID:   firstID(f, "terminalId", "posId"),
		Scope:        shared.ReadScope(f),
		CustomerName: f.String("customerName"),
		Note:         firstString(f, "note", "notes"),
		HeldBy:       firstString(f, "heldBy", "userName", "cashierName"),
		Total:        f.Decimal("total"),
		HeldAt:       f.Time("heldAt"),
	}
	if out.HeldAt.IsZero() {
		out.HeldAt = f.Time("createdAt")
	}
	// Items are stored as a JSON string column on some backends.
	if raw := f.String("items"); strings.HasPrefix(strings.TrimSpace(raw), "[") {
		err = jsonUnmarshalString(raw, &out.Items)
	} else {
		err = f.Decode("items", &out.Items)
	}
	if err != nil {
		return err
	}
	if out.Total.IsZero() {
		out.Total = out.ItemsTotal()
	}
	*h = out
	return nil
}

// ItemsTotal sums the line totals.
func (h HeldBill) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range h.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// HoldInput is the POST /pos/hold body.
type HoldInput struct {
	TerminalID   string           `json:"terminalId,omitempty"`
	ScopeType    shared.ScopeType `json:"scopeType" validate:"required,oneof=BRANCH WAREHOUSE COMPANY"`
	ScopeID      string           `json:"scopeId" validate:"required"`
	CustomerName string           `json:"customerName,omitempty" validate:"omitempty,max=120"`
	Items        []HoldItemInput  `json:"items" validate:"required,min=1,dive"`
	Note         string           `json:"note,omitempty" validate:"omitempty,max=500"`
}

type HoldItemInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Check rejects non-positive quantities and negative prices.
func (in HoldInput) Check() error {
	fields := map[string]string{}
	for i, it := range in.Items {
		if !it.Quantity.IsPositive() {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be greater than zero"
		}
		if it.UnitPrice.IsNegative() {
			fields[fmt.Sprintf("items[%d].unitPrice", i)] = "cannot be negative"
		}
	}
	if len(fields) > 0 {
		return shared.NewValidationError(fields)
	}
	return nil
}
