// Package pos holds the terminal, tab and held-bill slices.
package pos

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/application/validation"
	"github.com/multipos/console/internal/domain/pos"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/logger"
)

// Service owns the POS slices.
type Service struct {
	gateway   pos.Gateway
	terminals *slice.Store[pos.Terminal]
	tabs      *slice.Store[pos.Tab]
	held      *slice.Store[pos.HeldBill]
}

// NewService creates a new Service
func NewService(gateway pos.Gateway, opts ...slice.Option) *Service {
	return &Service{
		gateway:   gateway,
		terminals: slice.New[pos.Terminal]("terminals", opts...),
		tabs:      slice.New[pos.Tab]("tabs", opts...),
		held:      slice.New[pos.HeldBill]("held bills", opts...),
	}
}

func (s *Service) Terminals() *slice.Store[pos.Terminal] { return s.terminals }
func (s *Service) Tabs() *slice.Store[pos.Tab]           { return s.tabs }
func (s *Service) Held() *slice.Store[pos.HeldBill]      { return s.held }

func (s *Service) TerminalFetcher() slice.Fetcher[pos.Terminal] { return s.gateway.ListTerminals }
func (s *Service) HeldFetcher() slice.Fetcher[pos.HeldBill]     { return s.gateway.ListHeld }

// TabFetcher lists the tabs of the terminal named by the terminalId param.
func (s *Service) TabFetcher() slice.Fetcher[pos.Tab] {
	return func(ctx context.Context, params url.Values) (shared.Page[pos.Tab], error) {
		id := params.Get("terminalId")
		if id == "" {
			return shared.Page[pos.Tab]{}, shared.ErrInvalidInput.WithMessage("terminalId is required")
		}
		return s.gateway.ListTabs(ctx, id)
	}
}

func (s *Service) FetchTerminals(ctx context.Context, filters query.Filters) error {
	return s.terminals.Fetch(ctx, query.Build(filters), s.gateway.ListTerminals)
}

func (s *Service) CreateTerminal(ctx context.Context, in pos.TerminalInput) (pos.Terminal, error) {
	if err := validation.Struct(in); err != nil {
		return pos.Terminal{}, err
	}
	return s.terminals.Create(ctx, func(ctx context.Context) (pos.Terminal, error) {
		return s.gateway.CreateTerminal(ctx, in)
	})
}

func (s *Service) UpdateTerminal(ctx context.Context, id string, in pos.TerminalInput) (pos.Terminal, error) {
	if err := validation.Struct(in); err != nil {
		return pos.Terminal{}, err
	}
	return s.terminals.Update(ctx, func(ctx context.Context) (pos.Terminal, error) {
		t, err := s.gateway.UpdateTerminal(ctx, id, in)
		if err == nil && t.ID == "" {
			t.ID = id
		}
		return t, err
	})
}

func (s *Service) DeleteTerminal(ctx context.Context, id string) error {
	return s.terminals.Delete(ctx, id, func(ctx context.Context) error {
		return s.gateway.DeleteTerminal(ctx, id)
	})
}

// FetchTabs loads the tabs of one terminal.
func (s *Service) FetchTabs(ctx context.Context, terminalID string) error {
	return s.tabs.Fetch(ctx, url.Values{"terminalId": {terminalID}}, s.TabFetcher())
}

// OpenTab creates a tab on a terminal. It joins the tabs slice only when
// that terminal's tabs are the ones loaded.
func (s *Service) OpenTab(ctx context.Context, terminalID string, in pos.TabInput) (pos.Tab, error) {
	if terminalID == "" {
		return pos.Tab{}, shared.NewValidationError(map[string]string{"terminalId": "This field is required"})
	}
	if err := validation.Struct(in); err != nil {
		return pos.Tab{}, err
	}
	op := func(ctx context.Context) (pos.Tab, error) {
		return s.gateway.CreateTab(ctx, terminalID, in)
	}
	// The tabs slice holds one terminal; tabs opened elsewhere stay out.
	if s.tabs.Snapshot().Loaded.Get("terminalId") != terminalID {
		return op(ctx)
	}
	return s.tabs.Create(ctx, op)
}

func (s *Service) FetchHeld(ctx context.Context, filters query.Filters) error {
	return s.held.Fetch(ctx, query.Build(filters), s.gateway.ListHeld)
}

// Hold suspends a cart. The held bill is appended once the server has
// stored it, unless the slice holds another scope's bills.
func (s *Service) Hold(ctx context.Context, in pos.HoldInput) (pos.HeldBill, error) {
	if err := validation.Struct(in); err != nil {
		return pos.HeldBill{}, err
	}
	op := func(ctx context.Context) (pos.HeldBill, error) {
		return s.gateway.Hold(ctx, in)
	}
	var bill pos.HeldBill
	var err error
	if id := s.held.Snapshot().Loaded.Get("scopeId"); id != "" && id != in.ScopeID {
		bill, err = op(ctx)
	} else {
		bill, err = s.held.Create(ctx, op)
	}
	if err == nil {
		logger.L(ctx).Info("bill held", zap.String("held_id", bill.ID), zap.Int("items", len(bill.Items)))
	}
	return bill, err
}

// Resume takes a held bill back out. The server deletes it; the slice
// drops it and the caller gets the bill to reload into a cart.
func (s *Service) Resume(ctx context.Context, id string) (pos.HeldBill, error) {
	var bill pos.HeldBill
	if cached, ok := s.held.Snapshot().Find(id); ok {
		bill = cached
	}
	err := s.held.Delete(ctx, id, func(ctx context.Context) error {
		resumed, err := s.gateway.Resume(ctx, id)
		if err != nil {
			return err
		}
		if len(resumed.Items) > 0 || bill.ID == "" {
			bill = resumed
		}
		return nil
	})
	if err != nil {
		return pos.HeldBill{}, err
	}
	return bill, nil
}
