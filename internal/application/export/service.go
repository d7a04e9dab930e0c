package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	exportdomain "github.com/multipos/console/internal/domain/export"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/logger"
)

// Renderer writes a dataset in one format.
type Renderer interface {
	Format() exportdomain.Format
	ContentType() string
	Render(ctx context.Context, w io.Writer, ds Dataset) error
}

// ObjectStorage keeps rendered files and hands out download links.
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// Recorder receives export outcomes; the metrics package implements it.
type Recorder interface {
	ObserveExport(resource, format string, size int, err error)
}

// Request describes one export run.
type Request struct {
	Format    exportdomain.Format
	Principal identity.Principal
	// Store uploads the file and returns a presigned URL instead of the body.
	Store bool
}

// Result of an export. Body is empty when the file was stored.
type Result struct {
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Rows        int       `json:"rows"`
	Size        int       `json:"size"`
	URL         string    `json:"url,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt,omitzero"`
	RecordID    string    `json:"recordId,omitempty"`
	StorageKey  string    `json:"-"`
	Body        []byte    `json:"-"`
}

// Service renders datasets and keeps export history.
type Service struct {
	renderers map[exportdomain.Format]Renderer
	storage   ObjectStorage
	history   exportdomain.Repository
	recorder  Recorder
	prefix    string
	expiry    time.Duration
	maxRows   int
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithStorage(s ObjectStorage, prefix string, expiry time.Duration) Option {
	return func(svc *Service) {
		svc.storage = s
		svc.prefix = strings.Trim(prefix, "/")
		svc.expiry = expiry
	}
}

func WithHistory(r exportdomain.Repository) Option { return func(s *Service) { s.history = r } }
func WithRecorder(r Recorder) Option                { return func(s *Service) { s.recorder = r } }
func WithMaxRows(n int) Option                      { return func(s *Service) { s.maxRows = n } }
func WithLogger(l *zap.Logger) Option               { return func(s *Service) { s.log = l } }

// NewService creates a new Service
func NewService(renderers []Renderer, opts ...Option) *Service {
	s := &Service{
		renderers: make(map[exportdomain.Format]Renderer, len(renderers)),
		expiry:    15 * time.Minute,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, r := range renderers {
		s.renderers[r.Format()] = r
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Formats lists the formats with a renderer.
func (s *Service) Formats() []exportdomain.Format {
	var out []exportdomain.Format
	for _, f := range exportdomain.Formats {
		if _, ok := s.renderers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// CanStore reports whether stored exports are available.
func (s *Service) CanStore() bool { return s.storage != nil }

// Export renders ds. Every run, failed or not, is written to history
// when a repository is configured.
func (s *Service) Export(ctx context.Context, ds Dataset, req Request) (Result, error) {
	rec := exportdomain.NewRecord(req.Principal.CompanyID, req.Principal.UserID, ds.Resource, req.Format)
	res, err := s.export(ctx, ds, req, rec)
	if err != nil {
		rec.Fail(err)
	} else {
		rec.Complete(res.FileName, res.StorageKey, int64(res.Size), res.Rows)
	}
	if s.recorder != nil {
		s.recorder.ObserveExport(ds.Resource, string(req.Format), res.Size, err)
	}
	if s.history != nil {
		if herr := s.history.Save(ctx, rec); herr != nil {
			logger.LOr(ctx, s.log).Warn("export history not saved", zap.String("record_id", rec.ID.String()), zap.Error(herr))
		} else {
			res.RecordID = rec.ID.String()
		}
	}
	return res, err
}

func (s *Service) export(ctx context.Context, ds Dataset, req Request, rec *exportdomain.Record) (Result, error) {
	r, ok := s.renderers[req.Format]
	if !ok {
		return Result{}, shared.ErrUnsupported.WithMessage(fmt.Sprintf("export format %q is not available", req.Format))
	}
	if s.maxRows > 0 && len(ds.Rows) > s.maxRows {
		return Result{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("export is limited to %d rows, narrow the filters", s.maxRows))
	}
	if req.Store && s.storage == nil {
		return Result{}, shared.ErrUnsupported.WithMessage("export storage is not configured")
	}

	var buf bytes.Buffer
	if err := r.Render(ctx, &buf, ds); err != nil {
		return Result{}, fmt.Errorf("render %s %s: %w", ds.Resource, req.Format, err)
	}
	res := Result{
		FileName:    FileName(ds.Resource, req.Format, s.now()),
		ContentType: r.ContentType(),
		Rows:        len(ds.Rows),
		Size:        buf.Len(),
	}
	if !req.Store {
		res.Body = buf.Bytes()
		return res, nil
	}

	key := s.key(rec)
	if err := s.storage.Upload(ctx, key, buf.Bytes(), res.ContentType); err != nil {
		return Result{}, fmt.Errorf("store export: %w", err)
	}
	link, exp, err := s.storage.GenerateDownloadURL(ctx, key, s.expiry)
	if err != nil {
		return Result{}, fmt.Errorf("presign export: %w", err)
	}
	res.URL, res.ExpiresAt, res.StorageKey = link, exp, key
	logger.LOr(ctx, s.log).Info("export stored",
		zap.String("resource", ds.Resource), zap.String("key", key), zap.Int("size", res.Size))
	return res, nil
}

// key is prefix/company/yyyy/mm/dd/<record id>.<ext>
func (s *Service) key(rec *exportdomain.Record) string {
	company := keySegment(rec.CompanyID)
	day := rec.CreatedAt.Format("2006/01/02")
	return path.Join(s.prefix, company, day, rec.ID.String()+"."+string(rec.Format))
}

// keySegment makes a claim value safe as one object-key segment: slashes
// are escaped and dot segments replaced, so it cannot climb out of the
// prefix or into another company's folder.
func keySegment(v string) string {
	v = url.PathEscape(strings.TrimSpace(v))
	switch v {
	case "", ".", "..":
		return "_"
	}
	return v
}

// FileName is <resource>-<yyyymmdd-hhmmss>.<format> with path separators
// replaced.
func FileName(resource string, format exportdomain.Format, at time.Time) string {
	base := strings.NewReplacer("/", "-", " ", "-").Replace(resource)
	return fmt.Sprintf("%s-%s.%s", base, at.UTC().Format("20060102-150405"), format)
}

// History lists past exports.
func (s *Service) History(ctx context.Context, filter exportdomain.Filter) ([]exportdomain.Record, int64, error) {
	if s.history == nil {
		return []exportdomain.Record{}, 0, nil
	}
	return s.history.List(ctx, filter.Normalize())
}
