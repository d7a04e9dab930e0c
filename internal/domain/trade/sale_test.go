package trade

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSale_Unmarshal(t *testing.T) {
	var s Sale
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 42, "invoice_number": "INV-0042", "scope_type": "BRANCH", "scope_id": 3,
		"payment_method": "cash", "payment_status": "paid",
		"subtotal": "100.00", "tax_amount": 5, "total_amount": "105.00", "paid_amount": "105",
		"items": [{"inventory_item_id": 9, "product_name": "Soap", "quantity": 2, "price": "50"}],
		"created_at": "2024-07-01 12:00:00"}`), &s))

	assert.Equal(t, "42", s.EntityID())
	assert.Equal(t, "INV-0042", s.InvoiceNo)
	assert.Equal(t, "CASH", s.PaymentMethod)
	assert.True(t, d("105").Equal(s.Total))
	require.Len(t, s.Items, 1)
	assert.Equal(t, "9", s.Items[0].ProductID)
	assert.True(t, d("100").Equal(s.Items[0].Total))
	assert.False(t, s.IsCredit())
	assert.True(t, s.Outstanding().IsZero())
}

func TestSale_CreditInterpretation(t *testing.T) {
	tests := []struct {
		name        string
		sale        Sale
		credit      bool
		outstanding string
	}{
		{"explicit credit amount", Sale{Total: d("100"), PaidAmount: d("40"), CreditAmount: d("60")}, true, "60"},
		{"negative total kept as is", Sale{Total: d("-25")}, true, "0"},
		{"partial payment without credit field", Sale{Total: d("80"), PaidAmount: d("50"), PaymentStatus: PaymentPartial}, false, "30"},
		{"credit method", Sale{Total: d("10"), PaymentMethod: PaymentCredit}, true, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.credit, tt.sale.IsCredit())
			assert.True(t, d(tt.outstanding).Equal(tt.sale.Outstanding()), "got %s", tt.sale.Outstanding())
		})
	}
}

func TestSaleInput_Totals(t *testing.T) {
	in := SaleInput{
		PaymentMethod: "CASH",
		PaidAmount:    d("20"),
		Tax:           d("2"),
		Discount:      d("1"),
		Items: []SaleItemInput{
			{ProductID: "1", Quantity: d("2"), UnitPrice: d("5")},
			{ProductID: "2", Quantity: d("1"), UnitPrice: d("10"), Discount: d("1")},
		},
	}
	assert.True(t, d("19").Equal(in.Subtotal()))
	assert.True(t, d("20").Equal(in.Total()))
	assert.False(t, in.IsCreditSale())

	in.PaidAmount = d("5")
	assert.True(t, in.IsCreditSale())
}
