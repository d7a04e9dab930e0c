package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/multipos/console/internal/application/workspace"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/auth"
	"github.com/multipos/console/internal/infrastructure/config"
	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type settingsUpstream struct {
	workspace.Upstream
	settings organization.ScopeSettings
}

func (u settingsUpstream) ScopeSettings(_ context.Context, scope shared.Scope) (organization.ScopeSettings, error) {
	s := u.settings
	s.Scope = scope
	return s, nil
}

type fakePrincipals map[string]identity.Principal

func (f fakePrincipals) Principal(token string) (identity.Principal, error) {
	if token == "expired" {
		return identity.Principal{}, auth.ErrExpiredToken
	}
	p, ok := f[token]
	if !ok {
		return identity.Principal{}, errors.New("bad signature")
	}
	return p, nil
}

type fakeWorkspaces struct {
	settings organization.ScopeSettings
	tokens   []string
}

func (f *fakeWorkspaces) Acquire(token string, p identity.Principal) *workspace.Workspace {
	f.tokens = append(f.tokens, token)
	return workspace.New(p, workspace.GatewaysOf(settingsUpstream{settings: f.settings}), nil)
}

func principal(role identity.Role) identity.Principal {
	return identity.Principal{
		UserID:    "u-1",
		CompanyID: "c-1",
		Role:      role,
		Scope:     shared.Scope{Type: shared.ScopeBranch, ID: "b-1"},
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func get(engine *gin.Engine, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := get(engine, "/", map[string]string{RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = get(engine, "/", nil)
	assert.Len(t, w.Body.String(), 36)

	w = get(engine, "/", map[string]string{RequestIDHeader: strings.Repeat("x", MaxRequestIDLength+1)})
	assert.Len(t, w.Body.String(), 36)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		allowed string
	}{
		{"wildcard", []string{"*"}, "https://pos.example.com", "*"},
		{"listed origin", []string{"https://pos.example.com"}, "https://pos.example.com", "https://pos.example.com"},
		{"unlisted origin", []string{"https://pos.example.com"}, "https://evil.example.com", ""},
		{"no origins configured", nil, "https://pos.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.Use(CORS(config.HTTPConfig{CORSAllowOrigins: tt.origins}))
			engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := get(engine, "/", map[string]string{"Origin": tt.origin})
			assert.Equal(t, tt.allowed, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSecureAndTimeout(t *testing.T) {
	engine := gin.New()
	engine.Use(Secure(), Timeout(time.Second))
	engine.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	w := get(engine, "/", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(BodyLimit(16))
	engine.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"far too long for the limit"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeTooLarge, errorCode(t, w))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate(t *testing.T) {
	tokens := fakePrincipals{"good": principal(identity.RoleManager)}
	workspaces := &fakeWorkspaces{}

	engine := gin.New()
	engine.Use(RequestID(), Authenticate(tokens, workspaces))
	engine.GET("/", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		require.NotNil(t, GetWorkspace(c))
		assert.Equal(t, "good", GetToken(c))
		c.String(http.StatusOK, p.UserID)
	})

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"expired", "Bearer expired", http.StatusUnauthorized, dto.ErrCodeTokenExpired},
		{"forged", "Bearer forged", http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"valid", "Bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(engine, "/", map[string]string{AuthHeader: tt.header})
			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, w))
			} else {
				assert.Equal(t, "u-1", w.Body.String())
			}
		})
	}
	assert.Equal(t, []string{"good"}, workspaces.tokens)
}

func authedEngine(role identity.Role, settings organization.ScopeSettings, log *zap.Logger, routes func(*gin.Engine)) *gin.Engine {
	engine := gin.New()
	if log != nil {
		engine.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))
			c.Next()
		})
	}
	engine.Use(Authenticate(fakePrincipals{"tok": principal(role)}, &fakeWorkspaces{settings: settings}))
	routes(engine)
	return engine
}

func TestRequireCapability(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	routes := func(e *gin.Engine) {
		e.GET("/tabs", RequireCapability(identity.ResTabs, identity.ActCreate), ok)
		e.GET("/held", RequireCapability(identity.ResHeldBills, identity.ActCreate), ok)
	}
	bearer := map[string]string{AuthHeader: "Bearer tok"}

	t.Run("granted by role", func(t *testing.T) {
		engine := authedEngine(identity.RoleCashier, organization.ScopeSettings{}, nil, routes)
		assert.Equal(t, http.StatusNoContent, get(engine, "/held", bearer).Code)
	})

	t.Run("denied and logged", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		engine := authedEngine(identity.RoleCashier, organization.ScopeSettings{}, zap.New(core), routes)
		w := get(engine, "/tabs", bearer)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))

		entries := logs.FilterMessage("capability denied").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "tabs", entries[0].ContextMap()["resource"])
	})

	t.Run("granted by scope settings", func(t *testing.T) {
		engine := authedEngine(identity.RoleCashier, organization.ScopeSettings{AllowCashierPosTabs: true}, nil, routes)
		assert.Equal(t, http.StatusNoContent, get(engine, "/tabs", bearer).Code)
	})

	t.Run("without authentication", func(t *testing.T) {
		engine := gin.New()
		routes(engine)
		assert.Equal(t, http.StatusUnauthorized, get(engine, "/held", nil).Code)
	})
}

func TestRequireParamCapability(t *testing.T) {
	engine := authedEngine(identity.RoleWarehouseKeeper, organization.ScopeSettings{}, nil, func(e *gin.Engine) {
		e.GET("/resources/:resource", RequireParamCapability("resource", identity.ActRead), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	})
	bearer := map[string]string{AuthHeader: "Bearer tok"}

	assert.Equal(t, http.StatusNoContent, get(engine, "/resources/inventory", bearer).Code)
	assert.Equal(t, http.StatusForbidden, get(engine, "/resources/held-bills", bearer).Code)

	w := get(engine, "/resources/payroll", bearer)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
}

func TestRateLimit(t *testing.T) {
	l, err := NewLimiter("2-M")
	require.NoError(t, err)

	engine := authedEngine(identity.RoleManager, organization.ScopeSettings{}, nil, func(e *gin.Engine) {
		e.GET("/", RateLimit(l), func(c *gin.Context) { c.Status(http.StatusOK) })
	})
	bearer := map[string]string{AuthHeader: "Bearer tok"}

	w := get(engine, "/", bearer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, get(engine, "/", bearer).Code)

	w = get(engine, "/", bearer)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, w))

	_, err = NewLimiter("lots")
	assert.Error(t, err)
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeObserver struct{ seen []recordedRequest }

func (f *fakeObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	f.seen = append(f.seen, recordedRequest{method, route, status})
}

func TestMetrics(t *testing.T) {
	obs := &fakeObserver{}
	engine := gin.New()
	engine.Use(Metrics(obs))
	engine.GET("/screens/:screen", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(engine, "/screens/sales", nil)
	get(engine, "/nope", nil)

	assert.Equal(t, []recordedRequest{
		{http.MethodGet, "/screens/:screen", http.StatusOK},
		{http.MethodGet, "unmatched", http.StatusNotFound},
	}, obs.seen)
}
