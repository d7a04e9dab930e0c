package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	exportapp "github.com/multipos/console/internal/application/export"
	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/apiclient"
	"github.com/multipos/console/internal/infrastructure/auth"
	"github.com/multipos/console/internal/infrastructure/config"
	infraexport "github.com/multipos/console/internal/infrastructure/export"
	"github.com/multipos/console/internal/infrastructure/metrics"
	"github.com/multipos/console/internal/interfaces/http/handler"
)

const testSecret = "console-test-secret"

type fakePOS struct {
	creates  atomic.Int32
	lists    atomic.Int32
	failList atomic.Bool
}

func (f *fakePOS) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		f.lists.Add(1)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		if f.failList.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"message":"database offline"}`))
			return
		}
		w.Write([]byte(`{"success":true,"data":[{"id":"c-1","name":"Acme","code":"ACME","status":"active"},{"id":"c-2","name":"Globex","code":"GLBX","status":"inactive"}]}`))
	})
	mux.HandleFunc("POST /api/companies", func(w http.ResponseWriter, r *http.Request) {
		f.creates.Add(1)
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "c-9", "name": in["name"], "code": in["code"], "status": "active"},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"not found"}`))
	})
	return mux
}

type consoleFixture struct {
	engine *httptest.Server
	pos    *fakePOS
	tokens *auth.TokenReader
	reg    *workspace.Registry
}

func newConsole(t *testing.T) *consoleFixture {
	t.Helper()
	pos := &fakePOS{}
	upstream := httptest.NewServer(pos.handler(t))
	t.Cleanup(upstream.Close)

	base, err := apiclient.New(apiclient.Config{BaseURL: upstream.URL + "/api", Timeout: 5 * time.Second})
	require.NoError(t, err)

	reg := workspace.NewRegistry(func(token string) workspace.Gateways {
		return workspace.GatewaysOf(base.WithToken(token))
	})
	t.Cleanup(func() { reg.Close() })

	cfg := &config.Config{
		App:  config.AppConfig{Name: "posconsole"},
		Auth: config.AuthConfig{JWTSecret: testSecret},
		HTTP: config.HTTPConfig{
			RequestTimeout:   5 * time.Second,
			MaxBodySize:      1 << 20,
			CORSAllowOrigins: []string{"*"},
		},
	}
	tokens := auth.NewTokenReader(cfg.Auth)
	exports := exportapp.NewService([]exportapp.Renderer{infraexport.CSVRenderer{}})

	engine := NewEngine(Deps{
		Config:     cfg,
		Logger:     zap.NewNop(),
		Tokens:     tokens,
		Workspaces: reg,
		Exports:    exports,
		System:     handler.NewSystemHandler("posconsole", "test"),
		Metrics:    metrics.New(metrics.DefaultConfig()),
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return &consoleFixture{engine: srv, pos: pos, tokens: tokens, reg: reg}
}

func (f *consoleFixture) token(t *testing.T, role identity.Role) string {
	t.Helper()
	tok, err := f.tokens.Sign(identity.Principal{
		UserID:    "u-" + strings.ToLower(string(role)),
		CompanyID: "c-1",
		Role:      role,
		Scope:     shared.Scope{Type: shared.ScopeCompany, ID: "c-1"},
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *consoleFixture) do(t *testing.T, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.engine.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func TestConsole_HealthAndMetrics(t *testing.T) {
	f := newConsole(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.True(t, decode(t, body).Success)

	resp, body = f.do(t, http.MethodGet, "/api/v1/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "# HELP")
}

func TestConsole_RequiresToken(t *testing.T) {
	f := newConsole(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/screens/companies", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decode(t, body)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_UNAUTHORIZED", env.Error.Code)

	resp, body = f.do(t, http.MethodGet, "/api/v1/screens/companies", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "ERR_TOKEN_INVALID", decode(t, body).Error.Code)
	assert.Zero(t, f.pos.lists.Load())
}

func TestConsole_UnknownRoute(t *testing.T) {
	f := newConsole(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ERR_NOT_FOUND", decode(t, body).Error.Code)
}

func TestConsole_ScreenSnapshot(t *testing.T) {
	f := newConsole(t)
	tok := f.token(t, identity.RoleAdmin)

	resp, body := f.do(t, http.MethodGet, "/api/v1/screens/companies", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var snap struct {
		Screen       string           `json:"screen"`
		Status       string           `json:"status"`
		Count        int              `json:"count"`
		Data         []map[string]any `json:"data"`
		Capabilities []string         `json:"capabilities"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &snap))
	assert.Equal(t, "companies", snap.Screen)
	assert.Equal(t, "populated", snap.Status)
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, "Acme", snap.Data[0]["name"])
	assert.Contains(t, snap.Capabilities, "create")

	// A second read without filters is served from the slice.
	f.do(t, http.MethodGet, "/api/v1/screens/companies", tok, "")
	assert.Equal(t, int32(1), f.pos.lists.Load())

	f.do(t, http.MethodGet, "/api/v1/screens/companies?refresh=true", tok, "")
	assert.Equal(t, int32(2), f.pos.lists.Load())
}

func TestConsole_ScreenKeepsDataOnFailure(t *testing.T) {
	f := newConsole(t)
	tok := f.token(t, identity.RoleAdmin)

	f.do(t, http.MethodGet, "/api/v1/screens/companies", tok, "")
	f.pos.failList.Store(true)

	resp, body := f.do(t, http.MethodGet, "/api/v1/screens/companies?refresh=true", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var snap struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &snap))
	assert.Equal(t, "error", snap.Status)
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, "database offline", snap.Error)
}

func TestConsole_ScreenListFollowsRole(t *testing.T) {
	f := newConsole(t)

	_, body := f.do(t, http.MethodGet, "/api/v1/screens", f.token(t, identity.RoleCashier), "")
	var names []string
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &names))
	assert.Contains(t, names, workspace.ScreenHeldBills)
	assert.NotContains(t, names, workspace.ScreenCompanies)

	resp, body := f.do(t, http.MethodGet, "/api/v1/screens/companies", f.token(t, identity.RoleCashier), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "ERR_FORBIDDEN", decode(t, body).Error.Code)
}

func TestConsole_CreateCompany(t *testing.T) {
	f := newConsole(t)
	admin := f.token(t, identity.RoleAdmin)

	t.Run("cashier is refused before the upstream call", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPost, "/api/v1/resources/companies", f.token(t, identity.RoleCashier), `{"name":"Initech","code":"INIT"}`)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Zero(t, f.pos.creates.Load())
	})

	t.Run("invalid body lists the fields", func(t *testing.T) {
		resp, body := f.do(t, http.MethodPost, "/api/v1/resources/companies", admin, `{"name":"","code":"in it"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		env := decode(t, body)
		require.NotNil(t, env.Error)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
		assert.Contains(t, env.Error.Details, "name")
		assert.Contains(t, env.Error.Details, "code")
		assert.Zero(t, f.pos.creates.Load())
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPost, "/api/v1/resources/companies", admin, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("created", func(t *testing.T) {
		resp, body := f.do(t, http.MethodPost, "/api/v1/resources/companies", admin, `{"name":"Initech","code":"INIT"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		var c map[string]any
		require.NoError(t, json.Unmarshal(decode(t, body).Data, &c))
		assert.Equal(t, "c-9", c["id"])
		assert.Equal(t, int32(1), f.pos.creates.Load())
	})
}

func TestConsole_ExportCSV(t *testing.T) {
	f := newConsole(t)
	tok := f.token(t, identity.RoleAdmin)

	resp, body := f.do(t, http.MethodGet, "/api/v1/exports/companies?format=CSV", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment;")
	assert.Equal(t, "2", resp.Header.Get("X-Export-Rows"))
	assert.Contains(t, string(body), "Acme")
	assert.Contains(t, string(body), "Globex")

	resp, body = f.do(t, http.MethodGet, "/api/v1/exports/companies?format=docx", tok, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, _ = f.do(t, http.MethodGet, "/api/v1/exports/companies?format=pdf", tok, "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestConsole_WorkspacePerToken(t *testing.T) {
	f := newConsole(t)

	f.do(t, http.MethodGet, "/api/v1/screens/companies", f.token(t, identity.RoleAdmin), "")
	f.do(t, http.MethodGet, "/api/v1/screens/companies", f.token(t, identity.RoleSuperAdmin), "")
	assert.Equal(t, 2, f.reg.Len())
	assert.Equal(t, int32(2), f.pos.lists.Load())
}
