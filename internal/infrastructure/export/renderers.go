package export

import (
	"go.uber.org/zap"

	exportapp "github.com/multipos/console/internal/application/export"
	"github.com/multipos/console/internal/infrastructure/config"
)

// Set is the renderer list handed to the export service plus the PDF
// renderer, which holds a browser and must be closed.
type Set struct {
	Renderers []exportapp.Renderer
	PDF       *PDFRenderer
}

// NewSet builds every renderer from config. A PDF configuration error
// leaves PDF out and is logged; the other formats still work.
func NewSet(cfg config.ExportConfig, log *zap.Logger) Set {
	html := NewHTMLRenderer(HTMLConfig{
		Locale:    cfg.Locale,
		Currency:  cfg.Currency,
		Landscape: cfg.Landscape,
		AutoPrint: true,
	})
	set := Set{Renderers: []exportapp.Renderer{CSVRenderer{}, XLSXRenderer{}, html}}
	pdf, err := NewPDFRenderer(PDFConfig{
		RemoteURL: cfg.ChromeRemoteURL,
		ExecPath:  cfg.ChromePath,
		Timeout:   cfg.RenderTimeout,
		PaperSize: cfg.PaperSize,
		Landscape: cfg.Landscape,
		NoSandbox: true,
		Logger:    log,
	}, NewHTMLRenderer(HTMLConfig{Locale: cfg.Locale, Currency: cfg.Currency, Landscape: cfg.Landscape}))
	if err != nil {
		log.Warn("pdf export disabled", zap.Error(err))
		return set
	}
	set.PDF = pdf
	set.Renderers = append(set.Renderers, pdf)
	return set
}

// Close releases the browser.
func (s Set) Close() error {
	if s.PDF != nil {
		return s.PDF.Close()
	}
	return nil
}
