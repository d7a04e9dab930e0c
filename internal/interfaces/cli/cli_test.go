package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/auth"
	"github.com/multipos/console/internal/infrastructure/config"
)

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		assert.Equal(t, "posctl", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"success":true,"data":[{"id":"c-1","name":"Acme","code":"ACME","status":"active"},{"id":"c-2","name":"Globex","code":"GLBX","status":"inactive"}]}`))
	})
	mux.HandleFunc("POST /api/pos/hold", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "BRANCH", in["scopeType"])
		assert.Equal(t, "b-1", in["scopeId"])
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
			"id": "h-1", "terminalId": in["terminalId"], "items": in["items"], "total": "7.50",
		}})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"not found"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// token signs without a secret; posctl reads tokens unverified by default.
func token(t *testing.T, role identity.Role) string {
	t.Helper()
	p := identity.Principal{UserID: "u-1", Role: role, Scope: shared.Scope{Type: shared.ScopeBranch, ID: "b-1"}}
	tok, err := auth.NewTokenReader(config.AuthConfig{}).Sign(p, time.Hour)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompaniesList(t *testing.T) {
	srv := upstream(t)
	tok := token(t, identity.RoleAdmin)

	t.Run("table", func(t *testing.T) {
		out, err := run(t, "--api", srv.URL+"/api", "--token", tok, "companies", "list")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.GreaterOrEqual(t, len(lines), 3)
		assert.Contains(t, lines[0], "CODE")
		assert.Contains(t, lines[0], "NAME")
		assert.Contains(t, lines[1], "ACME")
		assert.Contains(t, lines[2], "Globex")
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, "--api", srv.URL+"/api", "--token", tok, "-o", "json", "companies", "list")
		require.NoError(t, err)
		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		assert.Len(t, rows, 2)
	})
}

func TestTokenFromEnv(t *testing.T) {
	srv := upstream(t)
	t.Setenv(TokenEnv, token(t, identity.RoleViewer))
	out, err := run(t, "--api", srv.URL+"/api", "companies", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
}

func TestMissingToken(t *testing.T) {
	t.Setenv(TokenEnv, "")
	_, err := run(t, "--api", "http://127.0.0.1:1/api", "companies", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), TokenEnv)
}

func TestGuardRefusesBeforeCallingUpstream(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			called = true
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := run(t, "--api", srv.URL+"/api", "--token", token(t, identity.RoleCashier), "companies", "delete", "c-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot delete companies")
	assert.False(t, called)
}

func TestCompaniesCreate_Validation(t *testing.T) {
	srv := upstream(t)
	_, err := run(t, "--api", srv.URL+"/api", "--token", token(t, identity.RoleAdmin),
		"companies", "create", "--name", "A", "--code", "bad code!")
	require.Error(t, err)
	msg := describe(err)
	assert.Contains(t, msg, "name")
	assert.Contains(t, msg, "code")
}

func TestPOSHold(t *testing.T) {
	srv := upstream(t)
	out, err := run(t, "--api", srv.URL+"/api", "--token", token(t, identity.RoleCashier), "-o", "json",
		"pos", "hold", "--terminal", "t-1", "--item", "p-1:3:2.50")
	require.NoError(t, err)
	var bill map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &bill))
	assert.Equal(t, "h-1", bill["id"])
	assert.Equal(t, "t-1", bill["terminalId"])
}

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"p-1:2:9.99", "p-2:0.5:4"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p-1", items[0].ProductID)
	assert.Equal(t, "9.99", items[0].UnitPrice.String())
	assert.Equal(t, "0.5", items[1].Quantity.String())

	for _, bad := range []string{"p-1", "p-1:x:1", "p-1:1:y"} {
		_, err := parseItems([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestExportCSV(t *testing.T) {
	srv := upstream(t)
	file := filepath.Join(t.TempDir(), "companies.csv")
	out, err := run(t, "--api", srv.URL+"/api", "--token", token(t, identity.RoleAdmin),
		"export", "companies", "--format", "CSV", "--out", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 rows")

	body, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Code,Name")
	assert.Contains(t, string(body), "ACME,Acme")
}

func TestExport_Refusals(t *testing.T) {
	srv := upstream(t)
	tok := token(t, identity.RoleAdmin)

	_, err := run(t, "--api", srv.URL+"/api", "--token", tok, "export", "companies", "--format", "docx")
	assert.Error(t, err)

	_, err = run(t, "--api", srv.URL+"/api", "--token", tok, "export", "payroll")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown screen")
}

func TestCan(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"can", "cashier", "companies", "read"}, "no"},
		{[]string{"can", "admin", "companies", "delete"}, "yes"},
		{[]string{"can", "cashier", "tabs", "create"}, "no"},
		{[]string{"can", "cashier", "tabs", "create", "--allow-cashier-pos-tabs"}, "yes"},
		{[]string{"can", "manager", "companies", "create", "--allow-manager-company-crud"}, "yes"},
		{[]string{"can", "warehouse-keeper", "held-bills", "read"}, "no"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:], " "), func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}

	out, err := run(t, "-o", "json", "can", "viewer", "companies", "export")
	require.NoError(t, err)
	var v verdict
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.False(t, v.Allowed)
	assert.Equal(t, identity.RoleViewer, v.Role)

	_, err = run(t, "can", "janitor", "companies", "read")
	assert.Error(t, err)
}

func TestFilters(t *testing.T) {
	a := &app{opts: &options{
		scopeType: "branch",
		scopeID:   "b-1",
		from:      "2026-01-01",
		to:        "2026-01-31",
		filters:   []string{"status=open", "scopeId=b-2"},
	}}
	f, err := a.filters()
	require.NoError(t, err)
	assert.Equal(t, "BRANCH", f["scopeType"])
	assert.Equal(t, "b-2", f["scopeId"])
	assert.Equal(t, "open", f["status"])
	assert.Equal(t, "2026-01-01", f["startDate"])
	assert.Equal(t, "2026-01-31", f["endDate"])

	a.opts.from, a.opts.to = "2026-02-01", "2026-01-01"
	_, err = a.filters()
	assert.Error(t, err)

	a.opts.from, a.opts.to = "", ""
	a.opts.filters = []string{"novalue"}
	_, err = a.filters()
	assert.Error(t, err)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run(t, "-o", "xml", "can", "admin", "companies", "read")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
