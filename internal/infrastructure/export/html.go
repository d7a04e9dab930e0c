package export

import (
	"context"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	exportapp "github.com/multipos/console/internal/application/export"
	exportdomain "github.com/multipos/console/internal/domain/export"
)

// HTMLConfig controls the printable document.
type HTMLConfig struct {
	Locale    string // BCP 47 tag, default en-US
	Currency  string // prefix for money cells, e.g. "LKR"
	Landscape bool
	// AutoPrint opens the print dialog once the page has loaded.
	AutoPrint bool
}

// HTMLRenderer writes a standalone printable HTML document.
type HTMLRenderer struct {
	cfg     HTMLConfig
	printer *message.Printer
	tmpl    *template.Template
}

// NewHTMLRenderer creates a new HTMLRenderer. An unknown locale falls
// back to English.
func NewHTMLRenderer(cfg HTMLConfig) *HTMLRenderer {
	tag, err := language.Parse(cfg.Locale)
	if err != nil || cfg.Locale == "" {
		tag = language.AmericanEnglish
	}
	r := &HTMLRenderer{cfg: cfg, printer: message.NewPrinter(tag)}
	r.tmpl = template.Must(template.New("document").Funcs(template.FuncMap{
		"cell": r.cell,
		"numeric": func(k exportapp.Kind) bool {
			return k == exportapp.KindMoney || k == exportapp.KindNumber
		},
	}).Parse(documentTemplate))
	return r
}

func (r *HTMLRenderer) Format() exportdomain.Format { return exportdomain.FormatHTML }
func (r *HTMLRenderer) ContentType() string         { return "text/html; charset=utf-8" }

// cell formats one value for display with locale digit grouping.
func (r *HTMLRenderer) cell(v any, kind exportapp.Kind) string {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return exportapp.Text(v, kind)
	}
	f := d.InexactFloat64()
	switch kind {
	case exportapp.KindMoney:
		s := r.printer.Sprint(number.Decimal(f, number.Scale(2)))
		if r.cfg.Currency != "" {
			return r.cfg.Currency + " " + s
		}
		return s
	default:
		return r.printer.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
	}
}

type documentData struct {
	exportapp.Dataset
	Landscape bool
	AutoPrint bool
	Generated string
}

func (r *HTMLRenderer) Render(_ context.Context, w io.Writer, ds exportapp.Dataset) error {
	return r.render(w, ds, r.cfg.AutoPrint)
}

func (r *HTMLRenderer) render(w io.Writer, ds exportapp.Dataset, autoPrint bool) error {
	at := ds.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	return r.tmpl.Execute(w, documentData{
		Dataset:   ds,
		Landscape: r.cfg.Landscape,
		AutoPrint: autoPrint,
		Generated: at.Format("2006-01-02 15:04"),
	})
}

var _ exportapp.Renderer = (*HTMLRenderer)(nil)

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
@page { size: A4 {{if .Landscape}}landscape{{else}}portrait{{end}}; margin: 12mm; }
body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; font-size: 11px; color: #1f2937; }
h1 { font-size: 18px; margin: 0 0 4px; }
.meta { color: #6b7280; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #d1d5db; padding: 4px 6px; text-align: left; }
th { background: #e8eef7; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
tr { page-break-inside: avoid; }
.summary { margin-top: 14px; width: auto; }
.summary td:first-child { font-weight: 600; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{if .Subtitle}}{{.Subtitle}} &middot; {{end}}Generated {{.Generated}} &middot; {{len .Rows}} rows</div>
<table>
<thead><tr>{{range .Columns}}<th>{{.Header}}</th>{{end}}</tr></thead>
<tbody>
{{- $cols := .Columns}}
{{- range .Rows}}{{$row := .}}
<tr>{{range $cols}}<td{{if numeric .Kind}} class="num"{{end}}>{{cell (index $row .Key) .Kind}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- if .Summary}}
<table class="summary">
{{- range .Summary}}
<tr><td>{{.Label}}</td><td class="num">{{cell .Value .Kind}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .AutoPrint}}
<script>window.addEventListener("load", function () { window.print(); });</script>
{{- end}}
</body>
</html>
`
