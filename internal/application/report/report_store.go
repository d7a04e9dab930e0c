package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/domain/report"
	"github.com/multipos/console/internal/domain/shared"
)

// RawSummaryKey holds a summary that is not a JSON object.
const RawSummaryKey = "raw"

// Service keeps one slice of rows per report kind.
type Service struct {
	gateway report.Gateway
	opts    []slice.Option

	mu     sync.Mutex
	stores map[report.Kind]*slice.Store[report.Row]
}

// NewService creates a new Service
func NewService(gateway report.Gateway, opts ...slice.Option) *Service {
	return &Service{gateway: gateway, opts: opts, stores: map[report.Kind]*slice.Store[report.Row]{}}
}

// Store returns the slice of kind, creating it on first use.
func (s *Service) Store(kind report.Kind) *slice.Store[report.Row] {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[kind]
	if !ok {
		st = slice.New[report.Row](string(kind)+" report", s.opts...)
		s.stores[kind] = st
	}
	return st
}

// Fetcher loads kind and keeps the summary block as the slice summary.
func (s *Service) Fetcher(kind report.Kind) slice.Fetcher[report.Row] {
	return func(ctx context.Context, params url.Values) (shared.Page[report.Row], error) {
		rep, err := s.gateway.Report(ctx, kind, params)
		if err != nil {
			return shared.Page[report.Row]{}, err
		}
		page := shared.Page[report.Row]{Data: rep.Rows}
		if len(rep.Summary) > 0 {
			b, err := json.Marshal(rep.Summary)
			if err != nil {
				return shared.Page[report.Row]{}, fmt.Errorf("encode %s summary: %w", kind, err)
			}
			page.Summary = b
		}
		return page, nil
	}
}

// Fetch loads one report for filters and range.
func (s *Service) Fetch(ctx context.Context, kind report.Kind, filters query.Filters, r query.Range) error {
	if _, err := report.ParseKind(string(kind)); err != nil {
		return err
	}
	return s.Store(kind).Fetch(ctx, query.Build(r.Apply(filters)), s.Fetcher(kind))
}

// Report rebuilds a report.Report from the slice of kind.
func (s *Service) Report(kind report.Kind) report.Report {
	state := s.Store(kind).Snapshot()
	rep := report.Report{Kind: kind, Rows: state.Data, GeneratedAt: state.LastFetched}
	if state.HasSummary() {
		if err := json.Unmarshal(state.Summary, &rep.Summary); err != nil {
			// Not an object; keep it verbatim rather than drop it.
			rep.Summary = report.Row{RawSummaryKey: string(state.Summary)}
		}
	}
	if st, err := shared.ParseScopeType(state.Params.Get("scopeType")); err == nil && st != "" {
		rep.Scope = shared.Scope{Type: st, ID: state.Params.Get("scopeId")}
	}
	return rep
}
