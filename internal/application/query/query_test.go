package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_OmitsAllAndEmpty(t *testing.T) {
	qs := Encode(Filters{"scopeType": "BRANCH", "transactionType": "all"})

	assert.Contains(t, qs, "scopeType=BRANCH")
	assert.NotContains(t, qs, "transactionType")
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		in   Filters
		want url.Values
	}{
		{"empty", Filters{}, url.Values{}},
		{"blank and ALL", Filters{"a": "", "b": "  ", "c": "ALL", "d": " all "}, url.Values{}},
		{"keeps values verbatim", Filters{"search": " milk ", "status": "active"}, url.Values{"search": {" milk "}, "status": {"active"}}},
		{"all as substring kept", Filters{"category": "allspice"}, url.Values{"category": {"allspice"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(tt.in))
		})
	}
}

func TestEncode_Deterministic(t *testing.T) {
	f := Filters{"z": "1", "a": "2", "m": "3"}
	assert.Equal(t, "a=2&m=3&z=1", Encode(f))
	assert.Equal(t, Encode(f), Encode(f))
	assert.Equal(t, "sales?a=2&m=3&z=1", Key("sales", Build(f)))
	assert.Equal(t, "sales", Key("sales", nil))
}

func TestMerge(t *testing.T) {
	base := Filters{"scopeType": "BRANCH", "scopeId": "1"}
	out := Merge(base, Filters{"scopeId": "2", "scopeType": "all", "search": "x"})

	assert.Equal(t, Filters{"scopeId": "2", "search": "x"}, out)
	assert.Equal(t, "BRANCH", base["scopeType"], "base must not be modified")
}

func TestRange(t *testing.T) {
	r, err := ParseRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.True(t, r.Valid())

	f := r.Apply(Filters{"scopeType": "BRANCH"})
	assert.Equal(t, "2024-01-01", f["startDate"])
	assert.Equal(t, "2024-01-31", f["endDate"])

	_, err = ParseRange("01/01/2024", "")
	assert.Error(t, err)

	open, err := ParseRange("", "2024-02-01")
	require.NoError(t, err)
	assert.NotContains(t, open.Apply(nil), "startDate")

	assert.False(t, Range{From: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}.Valid())

	week := LastDays(time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), 7)
	assert.Equal(t, "2024-03-04", week.From.Format(DateLayout))
	assert.Equal(t, "2024-03-10", week.To.Format(DateLayout))
}

func TestFromValues(t *testing.T) {
	f := FromValues(url.Values{"a": {"1", "2"}, "b": {"x"}})
	assert.Equal(t, Filters{"a": "1", "b": "x"}, f)
	assert.Equal(t, []string{"a", "b"}, f.SortedKeys())
}
