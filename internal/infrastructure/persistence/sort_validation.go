package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting
// to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted and
// defaultField otherwise. The result is safe to interpolate into ORDER BY.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ExportRecordSortFields are the export history columns callers may sort by.
var ExportRecordSortFields = map[string]bool{
	"created_at":  true,
	"resource":    true,
	"format":      true,
	"status":      true,
	"row_count":   true,
	"size_bytes":  true,
	"file_name":   true,
}
