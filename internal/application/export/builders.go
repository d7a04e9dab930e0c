package export

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/inventory"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/pos"
	"github.com/multipos/console/internal/domain/report"
	"github.com/multipos/console/internal/domain/trade"
)

func newDataset(resource, title string, cols []Column) Dataset {
	return Dataset{Resource: resource, Title: title, Columns: cols, Rows: []Row{}, GeneratedAt: time.Now().UTC()}
}

func Companies(items []organization.Company) Dataset {
	ds := newDataset("companies", "Companies", []Column{
		{Key: "code", Header: "Code", Kind: KindText},
		{Key: "name", Header: "Name", Kind: KindText},
		{Key: "email", Header: "Email", Kind: KindText},
		{Key: "phone", Header: "Phone", Kind: KindText},
		{Key: "status", Header: "Status", Kind: KindText},
		{Key: "createdAt", Header: "Created", Kind: KindDate},
	})
	for _, c := range items {
		ds.Rows = append(ds.Rows, Row{
			"code": c.Code, "name": c.Name, "email": c.Email, "phone": c.Phone,
			"status": c.Status, "createdAt": c.CreatedAt,
		})
	}
	ds.Summary = []SummaryItem{{Label: "Companies", Value: decimal.NewFromInt(int64(len(items))), Kind: KindNumber}}
	return ds
}

func Branches(items []organization.Branch) Dataset {
	ds := newDataset("branches", "Branches", []Column{
		{Key: "code", Header: "Code", Kind: KindText},
		{Key: "name", Header: "Name", Kind: KindText},
		{Key: "companyId", Header: "Company", Kind: KindText},
		{Key: "location", Header: "Location", Kind: KindText},
		{Key: "manager", Header: "Manager", Kind: KindText},
		{Key: "status", Header: "Status", Kind: KindText},
	})
	for _, b := range items {
		ds.Rows = append(ds.Rows, Row{"code": b.Code, "name": b.Name, "companyId": b.CompanyID, "location": b.Location, "manager": b.Manager, "status": b.Status})
	}
	return ds
}

func Warehouses(items []organization.Warehouse) Dataset {
	ds := newDataset("warehouses", "Warehouses", []Column{
		{Key: "code", Header: "Code", Kind: KindText},
		{Key: "name", Header: "Name", Kind: KindText},
		{Key: "companyId", Header: "Company", Kind: KindText},
		{Key: "location", Header: "Location", Kind: KindText},
		{Key: "capacity", Header: "Capacity", Kind: KindNumber},
		{Key: "status", Header: "Status", Kind: KindText},
	})
	for _, w := range items {
		ds.Rows = append(ds.Rows, Row{"code": w.Code, "name": w.Name, "companyId": w.CompanyID, "location": w.Location, "capacity": w.Capacity, "status": w.Status})
	}
	return ds
}

func Terminals(items []pos.Terminal) Dataset {
	ds := newDataset("terminals", "POS Terminals", []Column{
		{Key: "code", Header: "Code", Kind: KindText},
		{Key: "name", Header: "Name", Kind: KindText},
		{Key: "scope", Header: "Scope", Kind: KindText},
		{Key: "status", Header: "Status", Kind: KindText},
	})
	for _, t := range items {
		ds.Rows = append(ds.Rows, Row{"code": t.Code, "name": t.Name, "scope": t.Scope.String(), "status": t.Status})
	}
	return ds
}

func HeldBills(items []pos.HeldBill) Dataset {
	ds := newDataset("held_bills", "Held Bills", []Column{
		{Key: "heldAt", Header: "Held", Kind: KindDateTime},
		{Key: "customerName", Header: "Customer", Kind: KindText},
		{Key: "items", Header: "Items", Kind: KindNumber},
		{Key: "total", Header: "Total", Kind: KindMoney},
		{Key: "note", Header: "Note", Kind: KindText},
	})
	total := decimal.Zero
	for _, h := range items {
		amount := h.Total
		if amount.IsZero() {
			amount = h.ItemsTotal()
		}
		total = total.Add(amount)
		ds.Rows = append(ds.Rows, Row{
			"heldAt": h.HeldAt, "customerName": h.CustomerName,
			"items": decimal.NewFromInt(int64(len(h.Items))), "total": amount, "note": h.Note,
		})
	}
	ds.Summary = []SummaryItem{{Label: "Total held", Value: total, Kind: KindMoney}}
	return ds
}

func Sales(items []trade.Sale) Dataset {
	ds := newDataset("sales", "Sales", []Column{
		{Key: "invoiceNo", Header: "Invoice", Kind: KindText},
		{Key: "createdAt", Header: "Date", Kind: KindDateTime},
		{Key: "customerName", Header: "Customer", Kind: KindText},
		{Key: "paymentMethod", Header: "Payment", Kind: KindText},
		{Key: "total", Header: "Total", Kind: KindMoney},
		{Key: "paidAmount", Header: "Paid", Kind: KindMoney},
		{Key: "outstanding", Header: "Outstanding", Kind: KindMoney},
		{Key: "paymentStatus", Header: "Status", Kind: KindText},
	})
	var total, paid, outstanding decimal.Decimal
	for _, s := range items {
		total = total.Add(s.Total)
		paid = paid.Add(s.PaidAmount)
		outstanding = outstanding.Add(s.Outstanding())
		ds.Rows = append(ds.Rows, Row{
			"invoiceNo": s.InvoiceNo, "createdAt": s.CreatedAt, "customerName": s.CustomerName,
			"paymentMethod": s.PaymentMethod, "total": s.Total, "paidAmount": s.PaidAmount,
			"outstanding": s.Outstanding(), "paymentStatus": s.PaymentStatus,
		})
	}
	ds.Summary = []SummaryItem{
		{Label: "Sales", Value: decimal.NewFromInt(int64(len(items))), Kind: KindNumber},
		{Label: "Total", Value: total, Kind: KindMoney},
		{Label: "Paid", Value: paid, Kind: KindMoney},
		{Label: "Outstanding", Value: outstanding, Kind: KindMoney},
	}
	return ds
}

func Inventory(items []inventory.Item) Dataset {
	ds := newDataset("inventory", "Inventory", []Column{
		{Key: "sku", Header: "SKU", Kind: KindText},
		{Key: "name", Header: "Name", Kind: KindText},
		{Key: "category", Header: "Category", Kind: KindText},
		{Key: "quantity", Header: "Quantity", Kind: KindNumber},
		{Key: "minStockLevel", Header: "Min level", Kind: KindNumber},
		{Key: "unitPrice", Header: "Unit price", Kind: KindMoney},
		{Key: "stockValue", Header: "Stock value", Kind: KindMoney},
		{Key: "status", Header: "Status", Kind: KindText},
	})
	for _, it := range items {
		ds.Rows = append(ds.Rows, Row{
			"sku": it.SKU, "name": it.Name, "category": it.Category, "quantity": it.Quantity,
			"minStockLevel": it.MinStockLevel, "unitPrice": it.UnitPrice,
			"stockValue": it.StockValue(), "status": it.StockStatus(),
		})
	}
	sum := inventory.Summarize(items)
	ds.Summary = []SummaryItem{
		{Label: "Items", Value: decimal.NewFromInt(sum.TotalItems), Kind: KindNumber},
		{Label: "Stock value", Value: sum.TotalValue, Kind: KindMoney},
		{Label: "Low stock", Value: decimal.NewFromInt(sum.LowStockCount), Kind: KindNumber},
		{Label: "Out of stock", Value: decimal.NewFromInt(sum.OutOfStockCount), Kind: KindNumber},
	}
	return ds
}

// Ledger builds the statement of one account.
func Ledger(acct finance.Account, entries []finance.LedgerEntry) Dataset {
	ds := newDataset("ledger", "Ledger", []Column{
		{Key: "createdAt", Header: "Date", Kind: KindDateTime},
		{Key: "reference", Header: "Reference", Kind: KindText},
		{Key: "description", Header: "Description", Kind: KindText},
		{Key: "debit", Header: "Debit", Kind: KindMoney},
		{Key: "credit", Header: "Credit", Kind: KindMoney},
		{Key: "balanceAfter", Header: "Balance", Kind: KindMoney},
	})
	ds.Subtitle = acct.String()
	for _, e := range entries {
		row := Row{
			"createdAt": e.CreatedAt, "reference": e.Reference, "description": e.Description,
			"balanceAfter": e.BalanceAfter,
		}
		if e.EntryType == finance.Debit {
			row["debit"] = e.Amount
		} else {
			row["credit"] = e.Amount
		}
		ds.Rows = append(ds.Rows, row)
	}
	bal := finance.Summarize(acct, entries)
	ds.Summary = []SummaryItem{
		{Label: "Total debit", Value: bal.TotalDebit, Kind: KindMoney},
		{Label: "Total credit", Value: bal.TotalCredit, Kind: KindMoney},
		{Label: "Balance", Value: bal.Balance, Kind: KindMoney},
	}
	return ds
}

var moneyWords = []string{"amount", "total", "price", "value", "balance", "revenue", "cost", "paid", "profit", "sales"}

func kindOf(key string, v any) Kind {
	switch v.(type) {
	case float64, decimal.Decimal, int, int64:
		lower := strings.ToLower(key)
		for _, w := range moneyWords {
			if strings.Contains(lower, w) {
				return KindMoney
			}
		}
		return KindNumber
	case time.Time:
		return KindDateTime
	}
	return KindText
}

func cellOf(v any) any {
	if f, ok := v.(float64); ok {
		return decimal.NewFromFloat(f)
	}
	return v
}

// Report builds a dataset from a server report. Columns come from the
// row keys; the summary block becomes summary items.
func Report(rep report.Report) Dataset {
	keys := rep.Columns()
	cols := make([]Column, 0, len(keys))
	for _, k := range keys {
		var sample any
		for _, r := range rep.Rows {
			if v, ok := r[k]; ok && v != nil {
				sample = v
				break
			}
		}
		cols = append(cols, Column{Key: k, Header: headerOf(k), Kind: kindOf(k, sample)})
	}
	title := headerOf(string(rep.Kind)) + " Report"
	ds := newDataset("reports/"+string(rep.Kind), title, cols)
	if !rep.Scope.IsZero() {
		ds.Subtitle = rep.Scope.String()
	}
	if !rep.GeneratedAt.IsZero() {
		ds.GeneratedAt = rep.GeneratedAt
	}
	for _, r := range rep.Rows {
		row := make(Row, len(r))
		for k, v := range r {
			row[k] = cellOf(v)
		}
		ds.Rows = append(ds.Rows, row)
	}
	sumKeys := make([]string, 0, len(rep.Summary))
	for k := range rep.Summary {
		sumKeys = append(sumKeys, k)
	}
	sort.Strings(sumKeys)
	for _, k := range sumKeys {
		v := rep.Summary[k]
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		ds.Summary = append(ds.Summary, SummaryItem{Label: headerOf(k), Value: cellOf(v), Kind: kindOf(k, v)})
	}
	return ds
}

// headerOf turns camelCase keys into "Camel Case".
func headerOf(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case i == 0:
			b.WriteString(strings.ToUpper(string(r)))
		case r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteRune(r)
		case r == '_' || r == '-':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
