package trade

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// Payment statuses reported for POS sales.
const (
	PaymentPaid    = "PAID"
	PaymentPartial = "PARTIAL"
	PaymentUnpaid  = "UNPAID"
	PaymentCredit  = "CREDIT"
)

// SaleItem is one line of a completed sale.
type SaleItem struct {
	ProductID string          `json:"productId"`
	SKU       string          `json:"sku,omitempty"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

func (i *SaleItem) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*i = SaleItem{
		ProductID: pickID(f, "productId", "inventoryItemId", "itemId"),
		SKU:       f.String("sku"),
		Name:      pickString(f, "name", "productName", "itemName"),
		Quantity:  f.Decimal("quantity"),
		UnitPrice: pickDecimal(f, "unitPrice", "price", "sellingPrice"),
		Discount:  f.Decimal("discount"),
		Total:     pickDecimal(f, "total", "lineTotal", "totalPrice"),
	}
	if i.Total.IsZero() {
		i.Total = i.Quantity.Mul(i.UnitPrice).Sub(i.Discount)
	}
	return nil
}

// Sale is a completed POS sale.
//
// Total is carried exactly as the backend reports it. Some backends send
// credit sales with a negative total; the console never rewrites it and
// only flags such rows through IsCredit.
type Sale struct {
	ID            string          `json:"id"`
	InvoiceNo     string          `json:"invoiceNo"`
	Scope         shared.Scope    `json:"scope"`
	TerminalID    string          `json:"terminalId,omitempty"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	CashierName   string          `json:"cashierName,omitempty"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	Items         []SaleItem      `json:"items,omitempty"`
	shared.Timestamps
}

func (s Sale) EntityID() string { return s.ID }

func (s *Sale) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	out := Sale{
		ID:            f.ID("id"),
		InvoiceNo:     pickString(f, "invoiceNo", "invoiceNumber", "saleNumber"),
		Scope:         shared.ReadScope(f),
		TerminalID:    pickID(f, "terminalId", "posId"),
		CustomerName:  pickString(f, "customerName", "customer"),
		CustomerPhone: f.String("customerPhone"),
		CashierName:   pickString(f, "cashierName", "userName", "createdByName"),
		PaymentMethod: strings.ToUpper(f.String("paymentMethod")),
		PaymentStatus: strings.ToUpper(f.String("paymentStatus")),
		Subtotal:      f.Decimal("subtotal"),
		Tax:           pickDecimal(f, "tax", "taxAmount"),
		Discount:      pickDecimal(f, "discount", "discountAmount"),
		Total:         pickDecimal(f, "total", "totalAmount", "grandTotal"),
		PaidAmount:    pickDecimal(f, "paidAmount", "amountPaid", "paymentAmount"),
		CreditAmount:  pickDecimal(f, "creditAmount", "outstandingAmount"),
		Timestamps:    shared.ReadTimestamps(f),
	}
	if err := f.Decode("items", &out.Items); err != nil {
		return err
	}
	*s = out
	return nil
}

// IsCredit reports sales that leave a balance on the customer account.
func (s Sale) IsCredit() bool {
	return s.CreditAmount.IsPositive() || s.Total.IsNegative() ||
		s.PaymentStatus == PaymentCredit || s.PaymentMethod == PaymentCredit
}

// Outstanding is what the customer still owes on this sale. An explicit
// credit amount wins; otherwise it is total less paid, floored at zero.
func (s Sale) Outstanding() decimal.Decimal {
	if s.CreditAmount.IsPositive() {
		return s.CreditAmount
	}
	due := s.Total.Sub(s.PaidAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// SaleInput is the POST /sales body.
type SaleInput struct {
	ScopeType     shared.ScopeType `json:"scopeType" validate:"required,oneof=BRANCH WAREHOUSE COMPANY"`
	ScopeID       string           `json:"scopeId" validate:"required"`
	TerminalID    string           `json:"terminalId,omitempty"`
	CustomerName  string           `json:"customerName,omitempty" validate:"omitempty,max=120"`
	CustomerPhone string           `json:"customerPhone,omitempty" validate:"omitempty,max=30"`
	PaymentMethod string           `json:"paymentMethod" validate:"required,oneof=CASH CARD BANK_TRANSFER MOBILE CREDIT MIXED"`
	PaidAmount    decimal.Decimal  `json:"paidAmount"`
	Discount      decimal.Decimal  `json:"discount"`
	Tax           decimal.Decimal  `json:"tax"`
	Items         []SaleItemInput  `json:"items" validate:"required,min=1,dive"`
}

type SaleItemInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
}

// Subtotal sums quantity * unit price less line discounts.
func (in SaleInput) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range in.Items {
		sum = sum.Add(it.Quantity.Mul(it.UnitPrice).Sub(it.Discount))
	}
	return sum
}

// Total is subtotal plus tax less the sale-level discount.
func (in SaleInput) Total() decimal.Decimal {
	return in.Subtotal().Add(in.Tax).Sub(in.Discount)
}

// IsCreditSale reports inputs that leave part of the total unpaid.
func (in SaleInput) IsCreditSale() bool {
	return strings.EqualFold(in.PaymentMethod, PaymentCredit) || in.PaidAmount.LessThan(in.Total())
}

func pickID(f shared.Fields, names ...string) string {
	for _, n := range names {
		if v := f.ID(n); v != "" {
			return v
		}
	}
	return ""
}

func pickString(f shared.Fields, names ...string) string {
	for _, n := range names {
		if v := f.String(n); v != "" {
			return v
		}
	}
	return ""
}

func pickDecimal(f shared.Fields, names ...string) decimal.Decimal {
	for _, n := range names {
		if f.Has(n) {
			return f.Decimal(n)
		}
	}
	return decimal.Zero
}

// Check enforces the numeric rules tags cannot express.
func (in SaleInput) Check() error {
	fields := map[string]string{}
	for i, it := range in.Items {
		if !it.Quantity.IsPositive() {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be greater than zero"
		}
		if it.UnitPrice.IsNegative() {
			fields[fmt.Sprintf("items[%d].unitPrice", i)] = "cannot be negative"
		}
	}
	if in.PaidAmount.IsNegative() {
		fields["paidAmount"] = "cannot be negative"
	}
	if in.Discount.IsNegative() {
		fields["discount"] = "cannot be negative"
	}
	if len(fields) > 0 {
		return shared.NewValidationError(fields)
	}
	return nil
}
