package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	cfg := DefaultConfig()
	cfg.WithRuntime = false
	return New(cfg)
}

func TestObserveRequest(t *testing.T) {
	r := newTestRegistry()

	r.ObserveRequest("GET", "/companies", 200, 20*time.Millisecond)
	r.ObserveRequest("GET", "/companies", 200, 30*time.Millisecond)
	r.ObserveRequest("GET", "/companies", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.upstreamRequests.WithLabelValues("GET", "/companies", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstreamRequests.WithLabelValues("GET", "/companies", "none")))
}

func TestObserveFetchAndExport(t *testing.T) {
	r := newTestRegistry()

	r.ObserveFetch("companies", "ok", time.Millisecond)
	r.ObserveFetch("companies", "superseded", time.Millisecond)
	r.ObserveExport("sales", "csv", 512, nil)
	r.ObserveExport("sales", "pdf", 0, errors.New("chrome unavailable"))
	r.SetWorkspaces(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.sliceFetches.WithLabelValues("companies", "superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exports.WithLabelValues("sales", "pdf", "error")))
	assert.Equal(t, 512.0, testutil.ToFloat64(r.exportBytes.WithLabelValues("csv")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.workspaces))
}

func TestHandler(t *testing.T) {
	r := newTestRegistry()
	r.ObserveHTTP("GET", "", 404, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `posconsole_http_requests_total{method="GET",route="unmatched",status="404"} 1`))
}
