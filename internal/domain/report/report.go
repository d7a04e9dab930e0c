// Package report models the dashboard reports. Report payloads vary per
// endpoint and per backend version, so rows are kept as normalized
// key/value maps with typed accessors instead of one struct per report.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// Kind names one of the /reports endpoints.
type Kind string

const (
	Sales     Kind = "sales"
	Inventory Kind = "inventory"
	Ledger    Kind = "ledger"
	Financial Kind = "financial"
	Summary   Kind = "summary"
)

// Kinds lists every report in display order.
var Kinds = []Kind{Sales, Inventory, Ledger, Financial, Summary}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown report %q", s))
}

// Row is one report line with camelCase keys. Values keep their JSON
// types (string, float64, bool, nested map/slice).
type Row map[string]any

// NewRow normalizes the keys of a decoded JSON object.
func NewRow(m map[string]any) Row {
	r := make(Row, len(m))
	for k, v := range m {
		r[shared.CamelCase(k)] = v
	}
	return r
}

func (r *Row) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = NewRow(m)
	return nil
}

// EntityID lets report rows live in a slice. Rows without an id are
// never spliced, only replaced by a refetch.
func (r Row) EntityID() string { return r.String("id") }

// Keys returns the row's keys sorted.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return decimal.NewFromFloat(v).String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func (r Row) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

func (r Row) Time(key string) time.Time {
	return shared.ParseTime(r.String(key))
}

// Report is a fetched report: its rows plus the backend's summary block.
type Report struct {
	Kind        Kind         `json:"kind"`
	Rows        []Row        `json:"rows"`
	Summary     Row          `json:"summary,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Scope       shared.Scope `json:"scope,omitzero"`
}

// Decode builds a Report from a response payload. The rows may be a bare
// array, or sit under data/rows/items/<kind>; a summary object, if any,
// sits under summary/totals.
func Decode(kind Kind, payload, summary json.RawMessage) (Report, error) {
	rep := Report{Kind: kind, GeneratedAt: time.Now().UTC()}
	rows, inlineSummary, err := splitRows(kind, payload)
	if err != nil {
		return Report{}, fmt.Errorf("decode %s report: %w", kind, err)
	}
	rep.Rows = rows
	if len(summary) > 0 && string(summary) != "null" {
		if err := json.Unmarshal(summary, &rep.Summary); err != nil {
			return Report{}, fmt.Errorf("decode %s summary: %w", kind, err)
		}
	} else {
		rep.Summary = inlineSummary
	}
	return rep, nil
}

func splitRows(kind Kind, payload json.RawMessage) ([]Row, Row, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return []Row{}, nil, nil
	}
	var rows []Row
	if err := json.Unmarshal(payload, &rows); err == nil {
		return rows, nil, nil
	}
	f, err := shared.ParseFields(payload)
	if err != nil {
		return nil, nil, err
	}
	var summary Row
	for _, key := range []string{"summary", "totals"} {
		if raw := f.Raw(key); raw != nil {
			if err := json.Unmarshal(raw, &summary); err != nil {
				return nil, nil, err
			}
			break
		}
	}
	for _, key := range []string{"rows", "items", "data", string(kind), "transactions", "entries"} {
		raw := f.Raw(key)
		if raw == nil {
			continue
		}
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows, summary, nil
		}
	}
	// A summary-only report (e.g. /reports/summary) is a single object.
	if summary == nil {
		if err := json.Unmarshal(payload, &summary); err != nil {
			return nil, nil, err
		}
	}
	return []Row{}, summary, nil
}

// Total sums a numeric column over all rows.
func (r Report) Total(key string) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range r.Rows {
		sum = sum.Add(row.Decimal(key))
	}
	return sum
}

// Columns returns the union of row keys in first-seen order, which is
// what exports use when no explicit column list is configured.
func (r Report) Columns() []string {
	seen := map[string]bool{}
	var cols []string
	for _, row := range r.Rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}
