// Package query turns screen filters into upstream query strings.
package query

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// All is the sentinel filter value meaning "no constraint".
const All = "all"

// Filters are the user-selected filter values of a screen, keyed by the
// upstream parameter name.
type Filters map[string]string

// Build drops keys whose value is empty or "all" (any casing, surrounding
// whitespace ignored) and keeps every other value verbatim.
func Build(f Filters) url.Values {
	v := url.Values{}
	for k, val := range f {
		if Omit(val) || strings.TrimSpace(k) == "" {
			continue
		}
		v.Set(k, val)
	}
	return v
}

// Omit reports whether a filter value means "no constraint".
func Omit(val string) bool {
	t := strings.TrimSpace(val)
	return t == "" || strings.EqualFold(t, All)
}

// Encode is Build followed by sorted encoding, stable enough to key
// requests and caches on.
func Encode(f Filters) string {
	return Build(f).Encode()
}

// Key joins a screen/resource name with its encoded params.
func Key(name string, params url.Values) string {
	if len(params) == 0 {
		return name
	}
	return name + "?" + params.Encode()
}

// Merge returns a copy of base overlaid with over. Overlay values that
// Omit are treated as deletions.
func Merge(base, over Filters) Filters {
	out := make(Filters, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if Omit(v) {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// FromValues is the inverse of Build for the first value of each key.
func FromValues(v url.Values) Filters {
	f := make(Filters, len(v))
	for k := range v {
		f[k] = v.Get(k)
	}
	return f
}

// SortedKeys returns the filter names in order, for display.
func (f Filters) SortedKeys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DateLayout is the upstream date parameter format.
const DateLayout = "2006-01-02"

// Range is an inclusive date range filter.
type Range struct {
	From time.Time
	To   time.Time
}

// Apply writes startDate/endDate for the non-zero bounds.
func (r Range) Apply(f Filters) Filters {
	out := Merge(f, nil)
	if !r.From.IsZero() {
		out["startDate"] = r.From.Format(DateLayout)
	}
	if !r.To.IsZero() {
		out["endDate"] = r.To.Format(DateLayout)
	}
	return out
}

// Valid reports whether the range is ordered.
func (r Range) Valid() bool {
	return r.From.IsZero() || r.To.IsZero() || !r.To.Before(r.From)
}

// ParseRange reads YYYY-MM-DD bounds; empty strings leave a bound open.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if strings.TrimSpace(from) != "" {
		if r.From, err = time.Parse(DateLayout, strings.TrimSpace(from)); err != nil {
			return Range{}, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if r.To, err = time.Parse(DateLayout, strings.TrimSpace(to)); err != nil {
			return Range{}, err
		}
	}
	return r, nil
}

// LastDays is the range ending today covering n days.
func LastDays(now time.Time, n int) Range {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Range{From: end.AddDate(0, 0, -(n - 1)), To: end}
}
