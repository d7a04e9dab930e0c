package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	orgapp "github.com/multipos/console/internal/application/organization"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/domain/identity"
	"go.uber.org/zap"
)

// Connector builds the gateways one token talks through.
type Connector func(token string) Gateways

// Gauge receives the live workspace count.
type Gauge interface {
	SetWorkspaces(n int)
}

// Registry keeps one Workspace per bearer token and drops the ones left
// idle past the TTL. Tokens are stored hashed.
type Registry struct {
	connect   Connector
	cache     orgapp.SettingsCache
	sliceOpts []slice.Option
	gauge     Gauge
	log       *zap.Logger
	now       func() time.Time
	idleTTL   time.Duration
	interval  time.Duration

	mu      sync.Mutex
	entries map[string]*Workspace

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithSettingsCache(c orgapp.SettingsCache) RegistryOption {
	return func(r *Registry) { r.cache = c }
}

func WithSliceOptions(opts ...slice.Option) RegistryOption {
	return func(r *Registry) { r.sliceOpts = append(r.sliceOpts, opts...) }
}

func WithGauge(g Gauge) RegistryOption { return func(r *Registry) { r.gauge = g } }

func WithLogger(l *zap.Logger) RegistryOption { return func(r *Registry) { r.log = l } }

func WithClock(now func() time.Time) RegistryOption { return func(r *Registry) { r.now = now } }

// WithIdleTTL sets how long an unused workspace survives. Zero keeps
// workspaces until Evict or Close.
func WithIdleTTL(ttl time.Duration) RegistryOption { return func(r *Registry) { r.idleTTL = ttl } }

// WithSweepInterval starts a background sweeper. Zero disables it and
// leaves sweeping to the caller.
func WithSweepInterval(d time.Duration) RegistryOption {
	return func(r *Registry) { r.interval = d }
}

// NewRegistry creates a registry over connect.
func NewRegistry(connect Connector, opts ...RegistryOption) *Registry {
	r := &Registry{
		connect:  connect,
		log:      zap.NewNop(),
		now:      time.Now,
		idleTTL:  30 * time.Minute,
		entries:  make(map[string]*Workspace),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval > 0 && r.idleTTL > 0 {
		r.wg.Add(1)
		go r.sweepLoop()
	}
	return r
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Acquire returns the workspace of token, creating it for p on first use.
// A token whose principal changed role or scope gets a fresh workspace;
// the old one is reset, which cancels its in-flight fetches.
func (r *Registry) Acquire(token string, p identity.Principal) *Workspace {
	k := key(token)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.entries[k]; ok {
		if samePrincipal(w.Principal, p) {
			w.Touch(now)
			return w
		}
		w.Reset()
	}
	opts := append([]slice.Option{slice.WithLogger(r.log)}, r.sliceOpts...)
	w := New(p, r.connect(token), r.cache, opts...)
	w.Touch(now)
	r.entries[k] = w
	r.report()
	r.log.Debug("workspace created",
		zap.String("user_id", p.UserID),
		zap.String("company_id", p.CompanyID),
		zap.String("role", string(p.Role)))
	return w
}

func samePrincipal(a, b identity.Principal) bool {
	return a.UserID == b.UserID && a.CompanyID == b.CompanyID && a.Role == b.Role && a.Scope == b.Scope
}

// Evict drops the workspace of token. It reports whether one existed.
func (r *Registry) Evict(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(token)
	w, ok := r.entries[k]
	if !ok {
		return false
	}
	w.Reset()
	delete(r.entries, k)
	r.report()
	return true
}

// Len is the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops workspaces idle for longer than the TTL and returns how
// many went.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for k, w := range r.entries {
		if w.LastUsed().Before(cutoff) {
			w.Reset()
			delete(r.entries, k)
			removed++
		}
	}
	if removed > 0 {
		r.report()
		r.log.Debug("idle workspaces swept", zap.Int("count", removed))
	}
	return removed
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.stopChan:
			return
		}
	}
}

// report must be called with mu held.
func (r *Registry) report() {
	if r.gauge != nil {
		r.gauge.SetWorkspaces(len(r.entries))
	}
}

// Close stops the sweeper and drops every workspace.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
		r.mu.Lock()
		for k, w := range r.entries {
			w.Reset()
			delete(r.entries, k)
		}
		r.report()
		r.mu.Unlock()
	})
	return nil
}
