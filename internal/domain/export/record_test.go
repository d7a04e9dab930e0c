package export

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/domain/shared"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRecord_Lifecycle(t *testing.T) {
	r := NewRecord("c1", "u1", "sales", FormatPDF)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	r.Fail(errors.New("chrome unavailable"))
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "chrome unavailable", r.Error)

	r.Complete("sales.pdf", "exports/c1/x.pdf", 2048, 12)
	assert.Equal(t, StatusCompleted, r.Status)
	assert.Empty(t, r.Error)
	assert.EqualValues(t, 2048, r.SizeBytes)
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3}.Normalize()
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, 40, f.Offset())
}
