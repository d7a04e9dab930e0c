// Package apiclient is the HTTP client of the POS API. It injects the
// bearer token, encodes JSON bodies, unwraps response envelopes and turns
// non-2xx answers into *APIError values carrying the server's message.
//
// Requests are attempted exactly once. Callers that want a retry issue
// a new fetch.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/multipos/console/internal/infrastructure/logger"
	"github.com/multipos/console/internal/infrastructure/telemetry"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "posconsole/1.0"

// Config describes the upstream API.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
	UserAgent string
}

// RequestObserver receives one call per completed request. The metrics
// registry implements it.
type RequestObserver interface {
	ObserveRequest(method, endpoint string, status int, elapsed time.Duration)
}

// Client talks to the POS API. A Client is safe for concurrent use; use
// WithToken to derive per-user clients that share the connection pool and
// the rate limiter.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   RequestObserver
	log        *zap.Logger
	userAgent  string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports every request to o.
func WithObserver(o RequestObserver) Option { return func(c *Client) { c.observer = o } }

// WithLogger sets the base logger; request-scoped fields come from the context.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithHTTPClient replaces the pooled default client, mainly for tests.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithBearer sets the token of the root client.
func WithBearer(token string) Option { return func(c *Client) { c.token = token } }

// New validates cfg and builds a client with a pooled transport.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		log:        zap.NewNop(),
		userAgent:  cfg.UserAgent,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.RateLimit))
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithToken returns a client that authenticates as token. The copy shares
// the transport, limiter and observer of c.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Request is one API call.
type Request struct {
	Method string
	Path   string
	// Endpoint is the route template used as the metrics label, e.g.
	// "/companies/:id". Path is used when empty.
	Endpoint string
	Query    url.Values
	Headers  map[string]string
	Body     any
	Timeout  time.Duration
}

// Response is a successful (2xx) answer.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Do sends req once. Transport failures return *NetworkError, non-2xx
// responses return *APIError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
		}
	}

	ctx, span := telemetry.StartSpan(ctx, "upstream "+req.Method+" "+endpoint,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("http.request.method", req.Method),
		telemetry.WithAttribute("url.template", endpoint),
	)
	defer span.End()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	log := logger.LOr(ctx, c.log).With(zap.String("method", req.Method), zap.String("path", req.Path))
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		elapsed := time.Since(start)
		c.observe(req.Method, endpoint, 0, elapsed)
		log.Debug("upstream request failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.observe(req.Method, endpoint, resp.StatusCode, elapsed)
	telemetry.SetAttributes(span, "http.response.status_code", resp.StatusCode)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("read body: %w", err)}
	}
	log.Debug("upstream request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
		zap.Int("bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(req.Method, req.Path, resp.StatusCode, resp.Header, body)
		telemetry.RecordError(span, apiErr)
		return nil, apiErr
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body, Duration: elapsed}, nil
}

// Get sends a GET with query params.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post sends a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put sends a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete sends a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(ctx, httpReq, req.Headers, req.Body != nil)
	return httpReq, nil
}

// buildURL joins the base URL and an already-escaped path and appends the
// query in sorted key order.
func (c *Client) buildURL(path string, query url.Values) string {
	u := strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, extra map[string]string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	telemetry.InjectHeaders(ctx, req.Header)
	for k, v := range extra {
		req.Header.Set(k, v)
	}
}

func (c *Client) observe(method, endpoint string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, endpoint, status, elapsed)
	}
}
