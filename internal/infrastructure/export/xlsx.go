package export

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	exportapp "github.com/multipos/console/internal/application/export"
	exportdomain "github.com/multipos/console/internal/domain/export"
)

const (
	dataSheet    = "Data"
	summarySheet = "Summary"
	maxColWidth  = 60.0
	minColWidth  = 8.0
)

// XLSXRenderer writes a workbook with a bold, frozen header row, sized
// columns and a Summary sheet when the dataset has totals.
type XLSXRenderer struct{}

func (XLSXRenderer) Format() exportdomain.Format { return exportdomain.FormatXLSX }
func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type xlsxStyles struct {
	header, money, number, date, datetime int
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8EEF7"}},
	}); err != nil {
		return s, err
	}
	money := "#,##0.00"
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &money}); err != nil {
		return s, err
	}
	number := "#,##0.###"
	if s.number, err = f.NewStyle(&excelize.Style{CustomNumFmt: &number}); err != nil {
		return s, err
	}
	date := "yyyy-mm-dd"
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &date}); err != nil {
		return s, err
	}
	datetime := "yyyy-mm-dd hh:mm"
	s.datetime, err = f.NewStyle(&excelize.Style{CustomNumFmt: &datetime})
	return s, err
}

func (s xlsxStyles) of(kind exportapp.Kind) int {
	switch kind {
	case exportapp.KindMoney:
		return s.money
	case exportapp.KindNumber:
		return s.number
	case exportapp.KindDate:
		return s.date
	case exportapp.KindDateTime:
		return s.datetime
	}
	return 0
}

// cellValue converts to types excelize writes natively.
func cellValue(v any) any {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.InexactFloat64()
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val
	}
	return v
}

func (XLSXRenderer) Render(ctx context.Context, w io.Writer, ds exportapp.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return err
	}
	styles, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("xlsx styles: %w", err)
	}

	widths := make([]float64, len(ds.Columns))
	for j, col := range ds.Columns {
		cell, _ := excelize.CoordinatesToCellName(j+1, 1)
		if err := f.SetCellValue(dataSheet, cell, col.Header); err != nil {
			return err
		}
		widths[j] = float64(utf8.RuneCountInString(col.Header))
	}
	if len(ds.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(ds.Columns), 1)
		if err := f.SetCellStyle(dataSheet, "A1", last, styles.header); err != nil {
			return err
		}
	}

	for i, row := range ds.Rows {
		if i%1000 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		for j, col := range ds.Columns {
			v := cellValue(row[col.Key])
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(dataSheet, cell, v); err != nil {
				return err
			}
			if st := styles.of(col.Kind); st != 0 {
				if err := f.SetCellStyle(dataSheet, cell, cell, st); err != nil {
					return err
				}
			}
			if n := float64(utf8.RuneCountInString(exportapp.Text(row[col.Key], col.Kind))); n > widths[j] {
				widths[j] = n
			}
		}
	}
	for j, wd := range widths {
		name, _ := excelize.ColumnNumberToName(j + 1)
		if err := f.SetColWidth(dataSheet, name, name, clampWidth(wd+2)); err != nil {
			return err
		}
	}
	if err := f.SetPanes(dataSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	if len(ds.Summary) > 0 {
		if err := writeSummary(f, styles, ds); err != nil {
			return fmt.Errorf("xlsx summary: %w", err)
		}
	}
	return f.Write(w)
}

func writeSummary(f *excelize.File, styles xlsxStyles, ds exportapp.Dataset) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{ds.Title, ds.GeneratedAt.Format("2006-01-02 15:04")}); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", styles.header); err != nil {
		return err
	}
	for i, s := range ds.Summary {
		row := i + 2
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(summarySheet, label, s.Label); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, value, cellValue(s.Value)); err != nil {
			return err
		}
		if st := styles.of(s.Kind); st != 0 {
			if err := f.SetCellStyle(summarySheet, value, value, st); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func clampWidth(w float64) float64 {
	switch {
	case w < minColWidth:
		return minColWidth
	case w > maxColWidth:
		return maxColWidth
	}
	return w
}

var _ exportapp.Renderer = XLSXRenderer{}
