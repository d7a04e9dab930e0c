package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/logger"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	codes []int
}

func (r *recordingObserver) ObserveRequest(method, endpoint string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method+" "+endpoint)
	r.codes = append(r.codes, status)
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second}, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "/api"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "http://localhost:5000/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", c.BaseURL())
}

func TestDo_HeadersAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/companies", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "req-9", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "BRANCH", r.URL.Query().Get("scopeType"))
		w.Write([]byte(`[]`))
	})

	ctx := logger.WithRequestID(context.Background(), "req-9")
	resp, err := c.WithToken("tok-1").Get(ctx, "/companies", map[string][]string{"scopeType": {"BRANCH"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWithToken_DoesNotLeakIntoRoot(t *testing.T) {
	var seen atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	})

	_ = c.WithToken("user-a")
	_, err := c.Get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())
}

func TestDo_PostEncodesJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["name"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"id":7}}`))
	})

	resp, err := c.Post(context.Background(), "/companies", map[string]string{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDo_ErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode string
		sentinel error
	}{
		{"message field", 404, `{"success":false,"message":"Company not found"}`, "Company not found", "", shared.ErrNotFound},
		{"error string", 401, `{"error":"Token expired"}`, "Token expired", "", shared.ErrUnauthorized},
		{"nested error", 403, `{"error":{"code":"NO_SCOPE","message":"Not your branch"}}`, "Not your branch", "NO_SCOPE", shared.ErrForbidden},
		{"validator array", 422, `{"errors":[{"param":"name","msg":"Name is required"}]}`, "Name is required", "", shared.ErrInvalidInput},
		{"no body", 500, ``, "Request failed with status 500", "", nil},
		{"html body", 502, `<html>bad gateway</html>`, "Request failed with status 502", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Request-ID", "up-1")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Get(context.Background(), "/companies/1", nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.UserMessage())
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, "up-1", apiErr.RequestID)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestDo_ValidatorFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Validation failed","errors":[{"path":"code","msg":"Code taken"},{"param":"email","message":"Bad email"}]}`))
	})

	_, err := c.Post(context.Background(), "/companies", map[string]string{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, map[string]string{"code": "Code taken", "email": "Bad email"}, apiErr.Fields)
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/companies", nil)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, err.Error(), "network error")
}

func TestDo_ContextCancelIsVisible(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Get(ctx, "/slow", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_SingleAttempt(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Get(context.Background(), "/companies", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDo_ObserverUsesEndpointTemplate(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}, WithObserver(obs))

	require.NoError(t, c.DeleteCompany(context.Background(), "42"))
	assert.Equal(t, []string{"DELETE /companies/:id"}, obs.calls)
	assert.Equal(t, []int{200}, obs.codes)
}

func TestDo_RateLimiterRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/a", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, "/b", nil)
	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestDo_SuccessFalseEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Branch is closed"}`))
	})

	_, err := c.ListBranches(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Branch is closed", apiErr.UserMessage())
}
