package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	exportapp "github.com/multipos/console/internal/application/export"
	exportdomain "github.com/multipos/console/internal/domain/export"
)

const defaultRenderTimeout = 30 * time.Second

// paperSizes in millimetres, portrait.
var paperSizes = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// PDFConfig configures headless Chrome.
type PDFConfig struct {
	// RemoteURL is a DevTools websocket URL; empty launches a local browser.
	RemoteURL string
	ExecPath  string
	Timeout   time.Duration
	PaperSize string
	Landscape bool
	NoSandbox bool
	Logger    *zap.Logger
}

// PDFRenderer prints the HTML document through Chrome DevTools.
type PDFRenderer struct {
	cfg  PDFConfig
	html *HTMLRenderer
	log  *zap.Logger

	once        sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewPDFRenderer creates a new PDFRenderer. The browser is started on
// the first render.
func NewPDFRenderer(cfg PDFConfig, html *HTMLRenderer) (*PDFRenderer, error) {
	if html == nil {
		return nil, errors.New("pdf renderer needs an html renderer")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	cfg.PaperSize = strings.ToUpper(strings.TrimSpace(cfg.PaperSize))
	if cfg.PaperSize == "" {
		cfg.PaperSize = "A4"
	}
	if _, ok := paperSizes[cfg.PaperSize]; !ok {
		return nil, fmt.Errorf("unsupported paper size %q", cfg.PaperSize)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &PDFRenderer{cfg: cfg, html: html, log: log}, nil
}

func (r *PDFRenderer) Format() exportdomain.Format { return exportdomain.FormatPDF }
func (r *PDFRenderer) ContentType() string         { return "application/pdf" }

func (r *PDFRenderer) allocator() context.Context {
	r.once.Do(func() {
		if r.cfg.RemoteURL != "" {
			r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.cfg.RemoteURL)
			return
		}
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("font-render-hinting", "none"),
		)
		if r.cfg.NoSandbox {
			opts = append(opts, chromedp.NoSandbox)
		}
		if r.cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
		}
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})
	return r.allocCtx
}

type printParams struct {
	paperWidth, paperHeight float64
	margin                  float64
	landscape               bool
}

func (r *PDFRenderer) printParams() printParams {
	size := paperSizes[r.cfg.PaperSize]
	return printParams{
		paperWidth:  mmToInches(size[0]),
		paperHeight: mmToInches(size[1]),
		margin:      mmToInches(12),
		landscape:   r.cfg.Landscape,
	}
}

func (r *PDFRenderer) Render(ctx context.Context, w io.Writer, ds exportapp.Dataset) error {
	var doc bytes.Buffer
	if err := r.html.render(&doc, ds, false); err != nil {
		return fmt.Errorf("build document: %w", err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocator(),
		chromedp.WithLogf(func(format string, args ...any) {
			r.log.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	// Tie the tab to the caller's deadline.
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	p := r.printParams()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc.String()).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(p.paperWidth).
				WithPaperHeight(p.paperHeight).
				WithMarginTop(p.margin).
				WithMarginBottom(p.margin).
				WithMarginLeft(p.margin).
				WithMarginRight(p.margin).
				WithLandscape(p.landscape).
				WithPreferCSSPageSize(false).
				Do(ctx)
			pdf = data
			return err
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("pdf rendering timed out after %v: %w", r.cfg.Timeout, err)
		}
		return fmt.Errorf("chromedp: %w", err)
	}
	if len(pdf) == 0 {
		return errors.New("generated PDF is empty")
	}
	r.log.Info("pdf rendered",
		zap.String("resource", ds.Resource),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)))
	_, err = w.Write(pdf)
	return err
}

// Close shuts the browser down.
func (r *PDFRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 { return mm / 25.4 }

var _ exportapp.Renderer = (*PDFRenderer)(nil)
