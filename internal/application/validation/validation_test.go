package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/domain/organization"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/domain/trade"
)

func TestStruct_TagErrorsUseJSONNames(t *testing.T) {
	err := Struct(organization.CompanyInput{Code: "has space", Email: "nope"})
	require.Error(t, err)

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, "This field is required", de.Fields["name"])
	assert.Equal(t, "Must be alphanumeric", de.Fields["code"])
	assert.Equal(t, "Invalid email format", de.Fields["email"])
}

func TestStruct_NestedAndCheck(t *testing.T) {
	in := trade.SaleInput{
		ScopeType:     shared.ScopeBranch,
		ScopeID:       "1",
		PaymentMethod: "CASH",
		Items:         []trade.SaleItemInput{{ProductID: ""}},
	}
	err := Struct(in)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Fields, "items[0].productId")

	in.Items[0].ProductID = "p1"
	err = Struct(in)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "must be greater than zero", de.Fields["items[0].quantity"])

	in.Items[0].Quantity = decimal.NewFromInt(2)
	assert.NoError(t, Struct(in))
}

func TestStruct_EmptyItems(t *testing.T) {
	err := Struct(trade.SaleInput{ScopeType: shared.ScopeBranch, ScopeID: "1", PaymentMethod: "CASH", Items: []trade.SaleItemInput{}})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Must contain at least 1 item(s)", de.Fields["items"])
}
