// Package screen binds a slice to the filters a dashboard view shows and
// derives the view status from the slice state.
package screen

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
)

// Status of a screen.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusPopulated Status = "populated"
	StatusEmpty     Status = "empty"
	StatusError     Status = "error"
)

// StatusOf derives the screen status from a slice state. Loading wins
// over everything; an error is only reported once the fetch settled.
func StatusOf[T shared.Entity](st slice.State[T]) Status {
	switch {
	case st.Loading:
		return StatusLoading
	case st.Error != "":
		return StatusError
	case st.LastFetched.IsZero():
		return StatusIdle
	case len(st.Data) == 0:
		return StatusEmpty
	default:
		return StatusPopulated
	}
}

// Snapshot is what a client renders.
type Snapshot struct {
	Screen       string            `json:"screen"`
	Status       Status            `json:"status"`
	Filters      query.Filters     `json:"filters"`
	Data         any               `json:"data"`
	Count        int               `json:"count"`
	Summary      json.RawMessage   `json:"summary"`
	Error        string            `json:"error,omitempty"`
	LastFetched  time.Time         `json:"lastFetched,omitzero"`
	Capabilities []identity.Action `json:"capabilities"`
}

// View is the type-erased side of a Screen, used by registries that hold
// screens of different entities.
type View interface {
	Name() string
	Resource() identity.Resource
	Filters() query.Filters
	SetFilters(ctx context.Context, filters query.Filters) error
	Refresh(ctx context.Context) error
	Loaded() bool
	Snapshot(p identity.Principal, flags identity.Flags) Snapshot
}

// Screen is one view over a slice.
type Screen[T shared.Entity] struct {
	name      string
	resource  identity.Resource
	store     *slice.Store[T]
	fetch     slice.Fetcher[T]
	defaults  query.Filters
	required  []string
	summarize func(slice.State[T]) json.RawMessage

	mu      sync.RWMutex
	filters query.Filters
}

// Option configures a Screen.
type Option[T shared.Entity] func(*Screen[T])

// WithDefaults sets filters applied under whatever the caller sets.
func WithDefaults[T shared.Entity](f query.Filters) Option[T] {
	return func(s *Screen[T]) { s.defaults = query.Merge(f, nil) }
}

// WithSummary computes a summary when the server sent none.
func WithSummary[T shared.Entity](fn func(slice.State[T]) json.RawMessage) Option[T] {
	return func(s *Screen[T]) { s.summarize = fn }
}

// WithRequired names filters that must be set before the screen fetches.
func WithRequired[T shared.Entity](keys ...string) Option[T] {
	return func(s *Screen[T]) { s.required = keys }
}

// New creates a Screen over store. fetch is the slice's fetcher.
func New[T shared.Entity](name string, resource identity.Resource, store *slice.Store[T], fetch slice.Fetcher[T], opts ...Option[T]) *Screen[T] {
	s := &Screen[T]{name: name, resource: resource, store: store, fetch: fetch}
	for _, opt := range opts {
		opt(s)
	}
	s.filters = query.Merge(s.defaults, nil)
	return s
}

func (s *Screen[T]) Name() string                { return s.name }
func (s *Screen[T]) Resource() identity.Resource { return s.resource }
func (s *Screen[T]) Store() *slice.Store[T]      { return s.store }

// Filters returns a copy of the active filters.
func (s *Screen[T]) Filters() query.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.Merge(s.filters, nil)
}

// SetFilters replaces the filters and fetches. An in-flight fetch of the
// same slice is cancelled by the store.
func (s *Screen[T]) SetFilters(ctx context.Context, filters query.Filters) error {
	merged := query.Merge(s.defaults, filters)
	s.mu.Lock()
	s.filters = merged
	s.mu.Unlock()
	return s.load(ctx, merged)
}

// Refresh refetches with the current filters.
func (s *Screen[T]) Refresh(ctx context.Context) error {
	return s.load(ctx, s.Filters())
}

func (s *Screen[T]) load(ctx context.Context, filters query.Filters) error {
	var missing map[string]string
	for _, key := range s.required {
		if query.Omit(filters[key]) {
			if missing == nil {
				missing = map[string]string{}
			}
			missing[key] = "This field is required"
		}
	}
	if missing != nil {
		return shared.NewValidationError(missing)
	}
	err := s.store.Fetch(ctx, query.Build(filters), s.fetch)
	if errors.Is(err, slice.ErrSuperseded) {
		// A newer fetch owns the state now.
		return nil
	}
	return err
}

// Loaded reports whether a fetch has completed at least once.
func (s *Screen[T]) Loaded() bool {
	return !s.store.Snapshot().LastFetched.IsZero()
}

// Snapshot renders the screen for p. Capabilities are for UX gating only.
func (s *Screen[T]) Snapshot(p identity.Principal, flags identity.Flags) Snapshot {
	st := s.store.Snapshot()
	data := st.Data
	if data == nil {
		data = []T{}
	}
	summary := st.Summary
	if summary == nil && s.summarize != nil && !st.LastFetched.IsZero() {
		summary = s.summarize(st)
	}
	caps := identity.MatrixFor(p.Role, flags)[s.resource]
	if caps == nil {
		caps = []identity.Action{}
	}
	return Snapshot{
		Screen:       s.name,
		Status:       StatusOf(st),
		Filters:      s.Filters(),
		Data:         data,
		Count:        len(data),
		Summary:      summary,
		Error:        st.Error,
		LastFetched:  st.LastFetched,
		Capabilities: caps,
	}
}
