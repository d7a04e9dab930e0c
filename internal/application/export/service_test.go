package export

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	exportdomain "github.com/multipos/console/internal/domain/export"
	"github.com/multipos/console/internal/domain/finance"
	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/report"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/domain/trade"
)

type textRenderer struct{ err error }

func (textRenderer) Format() exportdomain.Format { return exportdomain.FormatCSV }
func (textRenderer) ContentType() string         { return "text/csv" }
func (r textRenderer) Render(_ context.Context, w io.Writer, ds Dataset) error {
	if r.err != nil {
		return r.err
	}
	_, err := io.WriteString(w, ds.Title)
	return err
}

// MockStorage is a mock implementation of ObjectStorage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// MockHistory is a mock implementation of exportdomain.Repository
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Save(ctx context.Context, r *exportdomain.Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockHistory) FindByID(ctx context.Context, id uuid.UUID) (*exportdomain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exportdomain.Record), args.Error(1)
}

func (m *MockHistory) List(ctx context.Context, f exportdomain.Filter) ([]exportdomain.Record, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]exportdomain.Record), args.Get(1).(int64), args.Error(2)
}

var admin = identity.Principal{UserID: "u1", CompanyID: "c1", Role: identity.RoleAdmin}

func TestService_ExportDownload(t *testing.T) {
	hist := new(MockHistory)
	hist.On("Save", mock.Anything, mock.MatchedBy(func(r *exportdomain.Record) bool {
		return r.Status == exportdomain.StatusCompleted && r.Resource == "sales" && r.RowCount == 1 && r.StorageKey == ""
	})).Return(nil)
	svc := NewService([]Renderer{textRenderer{}}, WithHistory(hist))

	ds := Sales([]trade.Sale{{ID: "s1", Total: decimal.NewFromInt(10)}})
	res, err := svc.Export(context.Background(), ds, Request{Format: exportdomain.FormatCSV, Principal: admin})
	require.NoError(t, err)
	assert.Equal(t, "Sales", string(res.Body))
	assert.Regexp(t, `^sales-\d{8}-\d{6}\.csv$`, res.FileName)
	assert.NotEmpty(t, res.RecordID)
	hist.AssertExpectations(t)
}

func TestService_ExportStored(t *testing.T) {
	store := new(MockStorage)
	exp := time.Now().Add(time.Hour)
	store.On("Upload", mock.Anything, mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "exports/c1/") && strings.HasSuffix(k, ".csv")
	}), []byte("Sales"), "text/csv").Return(nil)
	store.On("GenerateDownloadURL", mock.Anything, mock.Anything, 10*time.Minute).Return("https://s3/x", exp, nil)
	svc := NewService([]Renderer{textRenderer{}}, WithStorage(store, "/exports/", 10*time.Minute))

	res, err := svc.Export(context.Background(), Sales(nil), Request{Format: exportdomain.FormatCSV, Principal: admin, Store: true})
	require.NoError(t, err)
	assert.Equal(t, "https://s3/x", res.URL)
	assert.Empty(t, res.Body)
	assert.NotEmpty(t, res.StorageKey)
	store.AssertExpectations(t)
}

func TestService_StorageKeyStaysUnderCompany(t *testing.T) {
	tests := []struct {
		company string
		want    string
	}{
		{"c1", "exports/c1/"},
		{"../c2", "exports/..%2Fc2/"},
		{"..", "exports/_/"},
		{"a/b", "exports/a%2Fb/"},
		{"", "exports/_/"},
	}
	for _, tt := range tests {
		t.Run(tt.company, func(t *testing.T) {
			store := new(MockStorage)
			store.On("Upload", mock.Anything, mock.MatchedBy(func(k string) bool {
				return strings.HasPrefix(k, tt.want) && strings.Count(k, "/") == 5
			}), mock.Anything, mock.Anything).Return(nil)
			store.On("GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything).Return("https://s3/x", time.Now(), nil)
			svc := NewService([]Renderer{textRenderer{}}, WithStorage(store, "exports", time.Minute))

			p := admin
			p.CompanyID = tt.company
			res, err := svc.Export(context.Background(), Sales(nil), Request{Format: exportdomain.FormatCSV, Principal: p, Store: true})
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(res.StorageKey, tt.want), res.StorageKey)
			store.AssertExpectations(t)
		})
	}
}

func TestService_ExportFailuresAreRecorded(t *testing.T) {
	hist := new(MockHistory)
	hist.On("Save", mock.Anything, mock.MatchedBy(func(r *exportdomain.Record) bool {
		return r.Status == exportdomain.StatusFailed && r.Error != ""
	})).Return(nil)
	svc := NewService([]Renderer{textRenderer{err: errors.New("disk full")}}, WithHistory(hist))

	_, err := svc.Export(context.Background(), Sales(nil), Request{Format: exportdomain.FormatCSV})
	assert.ErrorContains(t, err, "disk full")

	_, err = svc.Export(context.Background(), Sales(nil), Request{Format: exportdomain.FormatPDF})
	assert.ErrorIs(t, err, shared.ErrUnsupported)
	hist.AssertNumberOfCalls(t, "Save", 2)
}

func TestService_MaxRowsAndStorageGuard(t *testing.T) {
	svc := NewService([]Renderer{textRenderer{}}, WithMaxRows(1))
	two := Sales([]trade.Sale{{ID: "1"}, {ID: "2"}})

	_, err := svc.Export(context.Background(), two, Request{Format: exportdomain.FormatCSV})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Export(context.Background(), Sales(nil), Request{Format: exportdomain.FormatCSV, Store: true})
	assert.ErrorIs(t, err, shared.ErrUnsupported)
	assert.False(t, svc.CanStore())
	assert.Equal(t, []exportdomain.Format{exportdomain.FormatCSV}, svc.Formats())
}

func TestService_HistoryNormalizes(t *testing.T) {
	hist := new(MockHistory)
	hist.On("List", mock.Anything, exportdomain.Filter{UserID: "u1", Page: 1, PageSize: 20}).
		Return([]exportdomain.Record{{Resource: "sales"}}, int64(1), nil)
	svc := NewService(nil, WithHistory(hist))

	recs, total, err := svc.History(context.Background(), exportdomain.Filter{UserID: "u1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, recs, 1)

	recs, _, err = NewService(nil).History(context.Background(), exportdomain.Filter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLedgerDataset(t *testing.T) {
	acct := finance.Account{Scope: shared.Scope{Type: shared.ScopeBranch, ID: "b1"}, PartyType: finance.PartyCustomer, PartyID: "c9"}
	ds := Ledger(acct, []finance.LedgerEntry{
		{EntryType: finance.Debit, Amount: decimal.NewFromInt(50)},
		{EntryType: finance.Credit, Amount: decimal.NewFromInt(20)},
	})
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, decimal.NewFromInt(50), ds.Rows[0]["debit"])
	assert.Nil(t, ds.Rows[0]["credit"])
	assert.Equal(t, "Balance", ds.Summary[2].Label)
	assert.True(t, ds.Summary[2].Value.(decimal.Decimal).Equal(decimal.NewFromInt(30)))
}

func TestReportDataset(t *testing.T) {
	rep := report.Report{
		Kind:    report.Sales,
		Rows:    []report.Row{{"invoiceNo": "INV-1", "totalAmount": 12.5, "quantity": 3.0}},
		Summary: report.Row{"totalSales": 12.5, "byMethod": map[string]any{"cash": 1.0}},
	}
	ds := Report(rep)
	assert.Equal(t, "reports/sales", ds.Resource)
	assert.Equal(t, "Sales Report", ds.Title)

	kinds := map[string]Kind{}
	for _, c := range ds.Columns {
		kinds[c.Key] = c.Kind
	}
	assert.Equal(t, KindMoney, kinds["totalAmount"])
	assert.Equal(t, KindNumber, kinds["quantity"])
	assert.Equal(t, KindText, kinds["invoiceNo"])
	require.Len(t, ds.Summary, 1)
	assert.Equal(t, "Total Sales", ds.Summary[0].Label)
}

func TestText(t *testing.T) {
	assert.Equal(t, "12.50", Text(decimal.NewFromFloat(12.5), KindMoney))
	assert.Equal(t, "3", Text(decimal.NewFromInt(3), KindNumber))
	assert.Equal(t, "2026-03-04", Text(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), KindDate))
	assert.Equal(t, "", Text(time.Time{}, KindDate))
	assert.Equal(t, "Yes", Text(true, KindText))
	assert.Equal(t, "", Text(nil, KindText))
}
