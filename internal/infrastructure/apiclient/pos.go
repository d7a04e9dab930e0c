package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/multipos/console/internal/domain/pos"
	"github.com/multipos/console/internal/domain/shared"
)

var _ pos.Gateway = (*Client)(nil)

func (c *Client) ListTerminals(ctx context.Context, params url.Values) (shared.Page[pos.Terminal], error) {
	return fetchList[pos.Terminal](ctx, c, Request{Method: http.MethodGet, Path: "/pos", Query: params}, "terminals", "pos")
}

func (c *Client) CreateTerminal(ctx context.Context, in pos.TerminalInput) (pos.Terminal, error) {
	return fetchOne[pos.Terminal](ctx, c, Request{Method: http.MethodPost, Path: "/pos", Body: in}, "terminal", "pos")
}

func (c *Client) UpdateTerminal(ctx context.Context, id string, in pos.TerminalInput) (pos.Terminal, error) {
	return fetchOne[pos.Terminal](ctx, c, Request{
		Method:   http.MethodPut,
		Path:     "/pos/" + url.PathEscape(id),
		Endpoint: "/pos/:id",
		Body:     in,
	}, "terminal", "pos")
}

func (c *Client) DeleteTerminal(ctx context.Context, id string) error {
	return exec(ctx, c, Request{Method: http.MethodDelete, Path: "/pos/" + url.PathEscape(id), Endpoint: "/pos/:id"})
}

func (c *Client) ListTabs(ctx context.Context, terminalID string) (shared.Page[pos.Tab], error) {
	return fetchList[pos.Tab](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/pos/" + url.PathEscape(terminalID) + "/tabs",
		Endpoint: "/pos/:id/tabs",
	}, "tabs")
}

func (c *Client) CreateTab(ctx context.Context, terminalID string, in pos.TabInput) (pos.Tab, error) {
	tab, err := fetchOne[pos.Tab](ctx, c, Request{
		Method:   http.MethodPost,
		Path:     "/pos/" + url.PathEscape(terminalID) + "/tabs",
		Endpoint: "/pos/:id/tabs",
		Body:     in,
	}, "tab")
	if err == nil && tab.TerminalID == "" {
		tab.TerminalID = terminalID
	}
	return tab, err
}

func (c *Client) ListHeld(ctx context.Context, params url.Values) (shared.Page[pos.HeldBill], error) {
	return fetchList[pos.HeldBill](ctx, c, Request{Method: http.MethodGet, Path: "/pos/hold", Query: params}, "held", "heldBills", "bills")
}

func (c *Client) Hold(ctx context.Context, in pos.HoldInput) (pos.HeldBill, error) {
	return fetchOne[pos.HeldBill](ctx, c, Request{Method: http.MethodPost, Path: "/pos/hold", Body: in}, "held", "heldBill", "bill")
}

// Resume removes a held bill. When the server answers without the bill
// body only the id is known.
func (c *Client) Resume(ctx context.Context, id string) (pos.HeldBill, error) {
	req := Request{Method: http.MethodDelete, Path: "/pos/hold/" + url.PathEscape(id), Endpoint: "/pos/hold/:id"}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return pos.HeldBill{}, err
	}
	env, err := decodeEnvelope(req, resp.Body)
	if err != nil {
		return pos.HeldBill{}, err
	}
	bill := pos.HeldBill{ID: id}
	if !isEmptyJSON(env.Data) && startsWith(env.Data, '{') {
		if err := bill.UnmarshalJSON(env.Data); err != nil {
			return pos.HeldBill{}, err
		}
		if bill.ID == "" {
			bill.ID = id
		}
	}
	return bill, nil
}
