package trade

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/application/query"
	"github.com/multipos/console/internal/application/slice"
	"github.com/multipos/console/internal/application/validation"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/domain/trade"
)

// ErrCreditNotAllowed is returned when a credit sale is attempted by a
// principal the scope settings do not allow.
var ErrCreditNotAllowed = shared.ErrForbidden.WithMessage("Credit sales are not enabled for this scope")

// SaleService owns the sales slice.
type SaleService struct {
	gateway trade.SaleGateway
	store   *slice.Store[trade.Sale]
}

// NewSaleService creates a new SaleService
func NewSaleService(gateway trade.SaleGateway, opts ...slice.Option) *SaleService {
	return &SaleService{gateway: gateway, store: slice.New[trade.Sale]("sales", opts...)}
}

func (s *SaleService) Store() *slice.Store[trade.Sale] { return s.store }

func (s *SaleService) Fetcher() slice.Fetcher[trade.Sale] { return s.gateway.ListSales }

// Fetch loads sales for filters. A date range, when given, is applied as
// startDate/endDate.
func (s *SaleService) Fetch(ctx context.Context, filters query.Filters, r query.Range) error {
	return s.store.Fetch(ctx, query.Build(r.Apply(filters)), s.gateway.ListSales)
}

// Get returns one sale with its items. A cached copy with items is
// served without a round trip.
func (s *SaleService) Get(ctx context.Context, id string) (trade.Sale, error) {
	if sale, ok := s.store.Snapshot().Find(id); ok && len(sale.Items) > 0 {
		return sale, nil
	}
	return s.gateway.GetSale(ctx, id)
}

// Create posts a sale on behalf of p. Credit sales require the
// allowCreditSales flag for roles below manager.
func (s *SaleService) Create(ctx context.Context, p identity.Principal, flags identity.Flags, in trade.SaleInput) (trade.Sale, error) {
	if err := validation.Struct(in); err != nil {
		return trade.Sale{}, err
	}
	if in.IsCreditSale() && !identity.CanSellOnCredit(p.Role, flags) {
		return trade.Sale{}, ErrCreditNotAllowed
	}
	return s.store.Create(ctx, func(ctx context.Context) (trade.Sale, error) {
		return s.gateway.CreateSale(ctx, in)
	})
}

// Totals summarizes sales for display.
type Totals struct {
	Count       int             `json:"count"`
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	CreditCount int             `json:"creditCount"`
}

// Summarize computes Totals over sales.
func Summarize(sales []trade.Sale) Totals {
	var t Totals
	for _, sale := range sales {
		t.Count++
		t.Total = t.Total.Add(sale.Total)
		t.Paid = t.Paid.Add(sale.PaidAmount)
		t.Outstanding = t.Outstanding.Add(sale.Outstanding())
		if sale.IsCredit() {
			t.CreditCount++
		}
	}
	return t
}

// SummaryOf returns the server summary when the last fetch carried one
// and a locally computed one otherwise.
func SummaryOf(state slice.State[trade.Sale]) json.RawMessage {
	if state.HasSummary() {
		return state.Summary
	}
	b, err := json.Marshal(Summarize(state.Data))
	if err != nil {
		return nil
	}
	return b
}
