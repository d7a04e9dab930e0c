package shared

import "encoding/json"

// Filter represents query filter options for locally stored records.
type Filter struct {
	Page     int
	PageSize int
	Search   string
	Filters  map[string]string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 20, Filters: map[string]string{}}
}

// Normalize clamps paging to sane bounds.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 200 {
		f.PageSize = 200
	}
	return f
}

// Offset is the row offset for the current page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Paginated represents a paginated result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if items == nil {
		items = []T{}
	}
	return Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: pages}
}

// Page is one normalized list response from the POS API: the records plus
// the optional summary block sent next to them. Summary is nil when the
// response carried none.
type Page[T any] struct {
	Data    []T
	Summary json.RawMessage
}
