package screen

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
)

type row struct{ ID string }

func (r row) EntityID() string { return r.ID }

type recorder struct {
	mu     sync.Mutex
	params []url.Values
	data   []row
	err    error
}

func (f *recorder) fetch(_ context.Context, p url.Values) (shared.Page[row], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, p)
	return shared.Page[row]{Data: f.data}, f.err
}

func TestStatusOf(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		state slice.State[row]
		want  Status
	}{
		{"idle", slice.State[row]{}, StatusIdle},
		{"loading", slice.State[row]{Loading: true, Data: []row{{"1"}}}, StatusLoading},
		{"error keeps stale data", slice.State[row]{Error: "boom", Data: []row{{"1"}}, LastFetched: now}, StatusError},
		{"empty", slice.State[row]{Data: []row{}, LastFetched: now}, StatusEmpty},
		{"populated", slice.State[row]{Data: []row{{"1"}}, LastFetched: now}, StatusPopulated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.state))
		})
	}
}

func TestScreen_SetFiltersMergesDefaults(t *testing.T) {
	f := &recorder{data: []row{{"1"}}}
	s := New("sales", identity.ResSales, slice.New[row]("sales"), f.fetch,
		WithDefaults[row](query.Filters{"status": "all", "scopeType": "BRANCH"}))

	require.NoError(t, s.SetFilters(context.Background(), query.Filters{"scopeId": "b1", "search": ""}))

	require.Len(t, f.params, 1)
	assert.Equal(t, url.Values{"scopeType": {"BRANCH"}, "scopeId": {"b1"}}, f.params[0])
	assert.Equal(t, "b1", s.Filters()["scopeId"])

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, f.params[0], f.params[1])
}

func TestScreen_RequiredFilters(t *testing.T) {
	f := &recorder{}
	s := New("tabs", identity.ResTabs, slice.New[row]("tabs"), f.fetch, WithRequired[row]("terminalId"))

	err := s.Refresh(context.Background())
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Fields, "terminalId")
	assert.Empty(t, f.params)
}

func TestScreen_SnapshotCapabilitiesAndSummary(t *testing.T) {
	f := &recorder{data: []row{{"1"}, {"2"}}}
	s := New("companies", identity.ResCompanies, slice.New[row]("companies"), f.fetch,
		WithSummary(func(st slice.State[row]) json.RawMessage {
			b, _ := json.Marshal(map[string]int{"count": len(st.Data)})
			return b
		}))

	idle := s.Snapshot(identity.Principal{Role: identity.RoleAdmin}, identity.Flags{})
	assert.Equal(t, StatusIdle, idle.Status)
	assert.Nil(t, idle.Summary)
	assert.Equal(t, []row{}, idle.Data)

	require.NoError(t, s.Refresh(context.Background()))
	snap := s.Snapshot(identity.Principal{Role: identity.RoleAdmin}, identity.Flags{})
	assert.Equal(t, StatusPopulated, snap.Status)
	assert.Equal(t, 2, snap.Count)
	assert.JSONEq(t, `{"count":2}`, string(snap.Summary))
	assert.Contains(t, snap.Capabilities, identity.ActCreate)

	viewer := s.Snapshot(identity.Principal{Role: identity.RoleViewer}, identity.Flags{})
	assert.NotContains(t, viewer.Capabilities, identity.ActCreate)
}

func TestScreen_ErrorKeepsData(t *testing.T) {
	f := &recorder{data: []row{{"1"}}}
	s := New("inventory", identity.ResInventory, slice.New[row]("inventory"), f.fetch)
	require.NoError(t, s.Refresh(context.Background()))

	f.err = errors.New("down")
	f.data = nil
	assert.Error(t, s.Refresh(context.Background()))

	snap := s.Snapshot(identity.Principal{}, identity.Flags{})
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, "down", snap.Error)
}

func TestScreen_SupersededIsNotAnError(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store := slice.New[row]("sales")
	slow := func(ctx context.Context, _ url.Values) (shared.Page[row], error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
			return shared.Page[row]{Data: []row{{"old"}}}, nil
		}
		return shared.Page[row]{Data: []row{{"new"}}}, nil
	}
	s := New("sales", identity.ResSales, store, slow)

	done := make(chan error, 1)
	go func() { done <- s.SetFilters(context.Background(), query.Filters{"search": "a"}) }()
	<-started
	require.NoError(t, s.SetFilters(context.Background(), query.Filters{"search": "b"}))
	close(release)
	require.NoError(t, <-done)

	snap := s.Snapshot(identity.Principal{}, identity.Flags{})
	assert.Equal(t, []row{{"new"}}, snap.Data)
	assert.Equal(t, "b", snap.Filters["search"])
}
