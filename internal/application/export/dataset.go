// Package export turns loaded slice data into tabular datasets and runs
// them through a format renderer, optionally storing the result.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells renderers how to format a cell.
type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindMoney    Kind = "money"
	KindDate     Kind = "date"
	KindDateTime Kind = "datetime"
)

// Column of a dataset.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
	Kind   Kind   `json:"kind"`
}

// Row maps column keys to values. Money and number cells hold
// decimal.Decimal, date cells hold time.Time.
type Row map[string]any

// SummaryItem is one labelled total printed under the table.
type SummaryItem struct {
	Label string `json:"label"`
	Value any    `json:"value"`
	Kind  Kind   `json:"kind"`
}

// Dataset is a titled table ready for rendering.
type Dataset struct {
	Resource    string        `json:"resource"`
	Title       string        `json:"title"`
	Subtitle    string        `json:"subtitle,omitempty"`
	Columns     []Column      `json:"columns"`
	Rows        []Row         `json:"rows"`
	Summary     []SummaryItem `json:"summary,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Headers returns the column headers in order.
func (d Dataset) Headers() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Header
	}
	return out
}

// Text renders a cell as plain text. Renderers with richer types use
// the raw value instead.
func Text(v any, kind Kind) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case decimal.Decimal:
		if kind == KindMoney {
			return val.StringFixed(2)
		}
		return val.String()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		if kind == KindDate {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04")
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64:
		return decimal.NewFromFloat(val).String()
	case int:
		return decimal.NewFromInt(int64(val)).String()
	case int64:
		return decimal.NewFromInt(val).String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
