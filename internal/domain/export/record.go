// Package export holds the export history record and its repository.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/multipos/console/internal/domain/shared"
)

// Format is an output document format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatXLSX, FormatHTML, FormatPDF}

// ParseFormat accepts any casing; an empty string means csv.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatCSV, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("unsupported export format %q", s))
}

// Status of an export run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one export run.
type Record struct {
	ID         uuid.UUID `json:"id"`
	CompanyID  string    `json:"companyId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Resource   string    `json:"resource"`
	Format     Format    `json:"format"`
	FileName   string    `json:"fileName"`
	StorageKey string    `json:"storageKey,omitempty"`
	SizeBytes  int64     `json:"sizeBytes"`
	RowCount   int       `json:"rowCount"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewRecord starts a record for a run by userID.
func NewRecord(companyID, userID, resource string, format Format) *Record {
	return &Record{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    userID,
		Resource:  resource,
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}
}

// Complete marks the run as succeeded.
func (r *Record) Complete(fileName, storageKey string, size int64, rows int) {
	r.FileName = fileName
	r.StorageKey = storageKey
	r.SizeBytes = size
	r.RowCount = rows
	r.Status = StatusCompleted
	r.Error = ""
}

// Fail marks the run as failed with err's text.
func (r *Record) Fail(err error) {
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// Filter narrows a history listing.
type Filter struct {
	CompanyID string
	UserID    string
	Resource  string
	Page      int
	PageSize  int
	// SortBy is a column name; unknown columns sort by creation time.
	SortBy    string
	SortOrder string
}

// Normalize clamps paging to 1..100 rows per page.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = 20
	case f.PageSize > 100:
		f.PageSize = 100
	}
	return f
}

// Offset is the row offset of the page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Repository persists export records.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, filter Filter) ([]Record, int64, error)
}
