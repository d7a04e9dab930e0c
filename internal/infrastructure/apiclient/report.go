package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/multipos/console/internal/domain/report"
	"github.com/multipos/console/internal/domain/shared"
)

var _ report.Gateway = (*Client)(nil)

// Report fetches /reports/:kind and hands rows and summary to report.Decode,
// which knows the per-kind shapes.
func (c *Client) Report(ctx context.Context, kind report.Kind, params url.Values) (report.Report, error) {
	if _, err := report.ParseKind(string(kind)); err != nil {
		return report.Report{}, err
	}
	req := Request{Method: http.MethodGet, Path: "/reports/" + string(kind), Endpoint: "/reports/:kind", Query: params}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return report.Report{}, err
	}
	env, err := decodeEnvelope(req, resp.Body)
	if err != nil {
		return report.Report{}, err
	}
	rep, err := report.Decode(kind, env.Data, env.Summary)
	if err != nil {
		return rep, err
	}
	if st, err := shared.ParseScopeType(params.Get("scopeType")); err == nil && st != "" {
		rep.Scope = shared.Scope{Type: st, ID: params.Get("scopeId")}
	}
	return rep, nil
}
