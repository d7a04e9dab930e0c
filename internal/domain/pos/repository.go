package pos

import (
	"context"
	"net/url"

	"github.com/multipos/console/internal/domain/shared"
)

// Gateway is the remote source of terminals, tabs and held bills.
type Gateway interface {
	ListTerminals(ctx context.Context, params url.Values) (shared.Page[Terminal], error)
	CreateTerminal(ctx context.Context, in TerminalInput) (Terminal, error)
	UpdateTerminal(ctx context.Context, id string, in TerminalInput) (Terminal, error)
	DeleteTerminal(ctx context.Context, id string) error

	ListTabs(ctx context.Context, terminalID string) (shared.Page[Tab], error)
	CreateTab(ctx context.Context, terminalID string, in TabInput) (Tab, error)

	ListHeld(ctx context.Context, params url.Values) (shared.Page[HeldBill], error)
	Hold(ctx context.Context, in HoldInput) (HeldBill, error)

	// Resume deletes the held bill server-side and returns it so the
	// caller can load it back into a cart.
	Resume(ctx context.Context, id string) (HeldBill, error)
}
