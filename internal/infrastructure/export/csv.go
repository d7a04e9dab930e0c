// Package export renders datasets as CSV, XLSX, printable HTML and PDF.
package export

import (
	"context"
	"encoding/csv"
	"io"

	exportapp "github.com/multipos/console/internal/application/export"
	exportdomain "github.com/multipos/console/internal/domain/export"
)

// utf8BOM makes spreadsheet apps detect UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVRenderer writes RFC 4180 CSV with a UTF-8 BOM. Summary lines follow
// the table after a blank row.
type CSVRenderer struct{}

func (CSVRenderer) Format() exportdomain.Format { return exportdomain.FormatCSV }
func (CSVRenderer) ContentType() string         { return "text/csv; charset=utf-8" }

func (CSVRenderer) Render(ctx context.Context, w io.Writer, ds exportapp.Dataset) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Headers()); err != nil {
		return err
	}
	record := make([]string, len(ds.Columns))
	for i, row := range ds.Rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		for j, col := range ds.Columns {
			record[j] = exportapp.Text(row[col.Key], col.Kind)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if len(ds.Summary) > 0 {
		if err := cw.Write([]string{}); err != nil {
			return err
		}
		for _, s := range ds.Summary {
			if err := cw.Write([]string{s.Label, exportapp.Text(s.Value, s.Kind)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

var _ exportapp.Renderer = CSVRenderer{}
