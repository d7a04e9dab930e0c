package workspace

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/multipos/console/internal/application/screen"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/report"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream implements the calls these tests make. Anything else hits
// the nil embedded interface and panics.
type fakeUpstream struct {
	Upstream

	mu        sync.Mutex
	companies []organization.Company
	params    []url.Values
	settings  organization.ScopeSettings
}

func (f *fakeUpstream) ListCompanies(_ context.Context, params url.Values) (shared.Page[organization.Company], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, params)
	return shared.Page[organization.Company]{Data: f.companies}, nil
}

func (f *fakeUpstream) ScopeSettings(_ context.Context, scope shared.Scope) (organization.ScopeSettings, error) {
	s := f.settings
	s.Scope = scope
	return s, nil
}

func branchCashier() identity.Principal {
	return identity.Principal{
		UserID:    "u-1",
		CompanyID: "c-1",
		Role:      identity.RoleCashier,
		Scope:     shared.Scope{Type: shared.ScopeBranch, ID: "b-1"},
	}
}

func TestWorkspace_ScreensAreRegistered(t *testing.T) {
	w := New(branchCashier(), GatewaysOf(&fakeUpstream{}), nil)

	names := w.Screens()
	assert.Contains(t, names, ScreenCompanies)
	assert.Contains(t, names, ScreenLedger)
	for _, kind := range report.Kinds {
		assert.Contains(t, names, ReportScreen(kind))
	}
	assert.IsNonDecreasing(t, names)

	v, ok := w.Screen("Reports/Sales")
	require.True(t, ok)
	assert.Equal(t, "reports-sales", v.Name())
	assert.Equal(t, identity.ResReports, v.Resource())

	_, ok = w.Screen("payroll")
	assert.False(t, ok)
}

func TestWorkspace_ScopedUsersGetScopeDefaults(t *testing.T) {
	w := New(branchCashier(), GatewaysOf(&fakeUpstream{}), nil)
	v, ok := w.Screen(ScreenSales)
	require.True(t, ok)
	assert.Equal(t, "BRANCH", v.Filters()["scopeType"])
	assert.Equal(t, "b-1", v.Filters()["scopeId"])

	admin := branchCashier()
	admin.Role = identity.RoleAdmin
	w = New(admin, GatewaysOf(&fakeUpstream{}), nil)
	v, _ = w.Screen(ScreenSales)
	assert.Empty(t, v.Filters()["scopeType"])
}

func TestWorkspace_EnsureLoadsOnce(t *testing.T) {
	up := &fakeUpstream{companies: []organization.Company{{ID: "c-1", Name: "Acme", Code: "AC"}}}
	w := New(branchCashier(), GatewaysOf(up), nil)
	v, _ := w.Screen(ScreenCompanies)

	require.NoError(t, w.Ensure(context.Background(), v))
	require.NoError(t, w.Ensure(context.Background(), v))
	assert.Len(t, up.params, 1)

	snap := v.Snapshot(w.Principal, identity.Flags{})
	assert.Equal(t, screen.StatusPopulated, snap.Status)
	assert.Equal(t, 1, snap.Count)

	ds, err := w.Dataset(ScreenCompanies)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
}

func TestWorkspace_DatasetUnknownScreen(t *testing.T) {
	w := New(branchCashier(), GatewaysOf(&fakeUpstream{}), nil)
	_, err := w.Dataset("payroll")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = w.Dataset(ScreenTabs)
	assert.ErrorIs(t, err, shared.ErrUnsupported)
}

func TestWorkspace_FlagsFromScopeSettings(t *testing.T) {
	up := &fakeUpstream{settings: organization.ScopeSettings{AllowCreditSales: true}}
	w := New(branchCashier(), GatewaysOf(up), nil)
	flags := w.Flags(context.Background())
	assert.True(t, flags.AllowCreditSales)
	assert.False(t, flags.AllowCashierPosTabs)
}

type gauge struct{ last int }

func (g *gauge) SetWorkspaces(n int) { g.last = n }

func TestRegistry_AcquireReusesByToken(t *testing.T) {
	connects := 0
	g := &gauge{}
	r := NewRegistry(func(string) Gateways {
		connects++
		return GatewaysOf(&fakeUpstream{})
	}, WithGauge(g))
	defer r.Close()

	p := branchCashier()
	a := r.Acquire("tok-a", p)
	assert.Same(t, a, r.Acquire("tok-a", p))
	b := r.Acquire("tok-b", p)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, connects)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2, g.last)

	promoted := p
	promoted.Role = identity.RoleManager
	assert.NotSame(t, a, r.Acquire("tok-a", promoted))

	assert.True(t, r.Evict("tok-b"))
	assert.False(t, r.Evict("tok-b"))
	assert.Equal(t, 1, g.last)
}

// stalledUpstream blocks company listings until the fetch is cancelled.
type stalledUpstream struct {
	Upstream
	started chan struct{}
}

func (s *stalledUpstream) ListCompanies(ctx context.Context, _ url.Values) (shared.Page[organization.Company], error) {
	close(s.started)
	<-ctx.Done()
	return shared.Page[organization.Company]{}, ctx.Err()
}

func TestRegistry_PrincipalChangeCancelsOldFetches(t *testing.T) {
	up := &stalledUpstream{started: make(chan struct{})}
	r := NewRegistry(func(string) Gateways { return GatewaysOf(up) })
	defer r.Close()

	p := branchCashier()
	old := r.Acquire("tok", p)
	done := make(chan error, 1)
	go func() { done <- old.Companies.Fetch(context.Background(), nil) }()
	<-up.started

	promoted := p
	promoted.Role = identity.RoleManager
	assert.NotSame(t, old, r.Acquire("tok", promoted))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, slice.ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("old workspace fetch still running")
	}
	assert.False(t, old.Companies.Store().Snapshot().Loading)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SweepDropsIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(func(string) Gateways { return GatewaysOf(&fakeUpstream{}) },
		WithIdleTTL(10*time.Minute),
		WithClock(func() time.Time { return now }))
	defer r.Close()

	r.Acquire("old", branchCashier())
	now = now.Add(8 * time.Minute)
	r.Acquire("fresh", branchCashier())
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_CloseIsIdempotent(t *testing.T) {
	r := NewRegistry(func(string) Gateways { return GatewaysOf(&fakeUpstream{}) },
		WithIdleTTL(time.Minute), WithSweepInterval(time.Millisecond))
	r.Acquire("tok", branchCashier())
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Zero(t, r.Len())
}
