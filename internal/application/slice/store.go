package slice

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/multipos/console/internal/domain/shared"
)

// ErrSuperseded is returned by Fetch when a newer fetch started before
// this one completed. Its result was discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// Page is one list response after normalization.
type Page[T shared.Entity] = shared.Page[T]

// Fetcher loads a page for the given params.
type Fetcher[T shared.Entity] func(ctx context.Context, params url.Values) (Page[T], error)

// Observer receives fetch outcomes; the metrics package implements it.
type Observer interface {
	ObserveFetch(slice, outcome string, elapsed time.Duration)
}

// Fetch outcomes reported to the Observer.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

// Store is a goroutine-safe slice.
type Store[T shared.Entity] struct {
	name     string
	fallback string
	log      *zap.Logger
	observer Observer
	now      func() time.Time

	mu     sync.RWMutex
	state  State[T]
	tokens uint64
	cancel context.CancelFunc
	subs   map[int]func(State[T])
	nextID int
}

// Option configures a Store.
type Option func(*options)

type options struct {
	log      *zap.Logger
	observer Observer
	now      func() time.Time
	fallback string
}

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

func WithObserver(ob Observer) Option { return func(o *options) { o.observer = ob } }

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithFallbackMessage sets the error text used when a failure carries no
// message of its own.
func WithFallbackMessage(msg string) Option { return func(o *options) { o.fallback = msg } }

// New creates an empty store named after the resource it holds.
func New[T shared.Entity](name string, opts ...Option) *Store[T] {
	o := options{log: zap.NewNop(), now: time.Now, fallback: "Failed to fetch " + name}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		name:     name,
		fallback: o.fallback,
		log:      o.log.Named("slice").With(zap.String("slice", name)),
		observer: o.observer,
		now:      o.now,
		subs:     map[int]func(State[T]){},
	}
}

func (s *Store[T]) Name() string { return s.name }

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn for every applied change and returns the
// unsubscribe func. fn runs on the dispatching goroutine, outside the lock.
func (s *Store[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Dispatch applies an intent and notifies subscribers when it changed
// the state. It reports whether the intent was applied.
func (s *Store[T]) Dispatch(in Intent) bool {
	s.mu.Lock()
	applied, notify := s.applyLocked(in)
	s.mu.Unlock()
	notify()
	return applied
}

// applyLocked reduces under s.mu and returns the subscriber fan-out to
// run once the lock is released.
func (s *Store[T]) applyLocked(in Intent) (bool, func()) {
	next, applied := Reduce(s.state, in)
	if !applied {
		return false, func() {}
	}
	if _, ok := in.(Reset); ok && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = next
	snap := next.clone()
	subs := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return true, func() {
		for _, fn := range subs {
			fn(snap)
		}
	}
}

// begin issues a new token, cancels the previous in-flight fetch and
// marks the slice loading.
func (s *Store[T]) begin(ctx context.Context, params url.Values) (context.Context, uint64) {
	fctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.tokens++
	token := s.tokens
	_, notify := s.applyLocked(FetchStarted{Token: token, Params: params})
	s.mu.Unlock()

	notify()
	return fctx, token
}

func (s *Store[T]) finish(token uint64) {
	s.mu.Lock()
	if s.tokens == token && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// Fetch loads a page and replaces Data and Summary on success. On failure
// Data is kept and Error is set. The returned error is the fetcher's, or
// ErrSuperseded when a newer fetch won.
func (s *Store[T]) Fetch(ctx context.Context, params url.Values, fetch Fetcher[T]) error {
	fctx, token := s.begin(ctx, params)
	defer s.finish(token)
	start := s.now()

	page, err := fetch(fctx, params)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// The caller gave up; that is not a slice error.
		s.Dispatch(FetchAbandoned{Token: token})
		s.observe(OutcomeSuperseded, start)
		return err
	}
	if err != nil {
		if s.Dispatch(FetchFailed{Token: token, Message: ErrorMessage(err, s.fallback)}) {
			s.observe(OutcomeError, start)
			s.log.Warn("fetch failed", zap.String("params", params.Encode()), zap.Error(err))
			return err
		}
		s.observe(OutcomeSuperseded, start)
		return ErrSuperseded
	}

	if !s.Dispatch(FetchSucceeded[T]{Token: token, Data: page.Data, Summary: page.Summary, At: s.now()}) {
		s.observe(OutcomeSuperseded, start)
		s.log.Debug("discarded stale response", zap.Uint64("token", token))
		return ErrSuperseded
	}
	s.observe(OutcomeOK, start)
	s.log.Debug("fetched", zap.Int("rows", len(page.Data)), zap.Bool("summary", page.Summary != nil))
	return nil
}

// Refetch repeats the last fetch with the same params.
func (s *Store[T]) Refetch(ctx context.Context, fetch Fetcher[T]) error {
	return s.Fetch(ctx, s.Snapshot().Params, fetch)
}

func (s *Store[T]) observe(outcome string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveFetch(s.name, outcome, s.now().Sub(start))
	}
}

// Create runs op and splices the returned record into Data. Nothing is
// applied before op succeeds.
func (s *Store[T]) Create(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	return s.mutate(ctx, op, func(item T) Intent { return Created[T]{Item: item} })
}

// Update runs op and replaces the matching record in Data.
func (s *Store[T]) Update(ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	return s.mutate(ctx, op, func(item T) Intent { return Updated[T]{Item: item} })
}

// Delete runs op and removes every record with id.
func (s *Store[T]) Delete(ctx context.Context, id string, op func(context.Context) error) error {
	s.Dispatch(MutationStarted{})
	if err := op(ctx); err != nil {
		s.Dispatch(MutationFailed{Message: ErrorMessage(err, "Failed to delete "+s.name)})
		return err
	}
	s.Dispatch(Deleted{ID: id})
	return nil
}

func (s *Store[T]) mutate(ctx context.Context, op func(context.Context) (T, error), done func(T) Intent) (T, error) {
	s.Dispatch(MutationStarted{})
	item, err := op(ctx)
	if err != nil {
		s.Dispatch(MutationFailed{Message: ErrorMessage(err, "Failed to save "+s.name)})
		var zero T
		return zero, err
	}
	s.Dispatch(done(item))
	return item, nil
}

// Reset clears the slice and cancels any in-flight fetch.
func (s *Store[T]) Reset() {
	s.Dispatch(Reset{})
}
