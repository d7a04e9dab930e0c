package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multipos/console/internal/domain/identity"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/config"
)

func cashier() identity.Principal {
	return identity.Principal{
		UserID:    "42",
		CompanyID: "7",
		Name:      "Nimali",
		Role:      identity.RoleCashier,
		Scope:     shared.Scope{Type: shared.ScopeBranch, ID: "3"},
	}
}

func TestTokenReader_VerifiedRoundTrip(t *testing.T) {
	r := NewTokenReader(config.AuthConfig{JWTSecret: "test-secret-key-at-least-32-chars", Issuer: "pos"})
	require.True(t, r.Verifies())

	token, err := r.Sign(cashier(), time.Hour)
	require.NoError(t, err)

	p, err := r.Principal(token)
	require.NoError(t, err)
	assert.Equal(t, cashier(), p)
}

func TestTokenReader_WrongSecret(t *testing.T) {
	signer := NewTokenReader(config.AuthConfig{JWTSecret: "one"})
	token, err := signer.Sign(cashier(), time.Hour)
	require.NoError(t, err)

	_, err = NewTokenReader(config.AuthConfig{JWTSecret: "two"}).Principal(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenReader_Expired(t *testing.T) {
	r := NewTokenReader(config.AuthConfig{JWTSecret: "secret"})
	token, err := r.Sign(cashier(), -time.Minute)
	require.NoError(t, err)
	_, err = r.Principal(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	unverified := NewTokenReader(config.AuthConfig{})
	_, err = unverified.Principal(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenReader_UnverifiedAcceptsAnySignature(t *testing.T) {
	signer := NewTokenReader(config.AuthConfig{JWTSecret: "upstream-only"})
	token, err := signer.Sign(cashier(), time.Hour)
	require.NoError(t, err)

	r := NewTokenReader(config.AuthConfig{})
	assert.False(t, r.Verifies())
	p, err := r.Principal(token)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleCashier, p.Role)
}

func TestTokenReader_Errors(t *testing.T) {
	r := NewTokenReader(config.AuthConfig{})
	_, err := r.Principal("  ")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = r.Principal("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err := r.Sign(identity.Principal{Role: identity.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	_, err = r.Principal(token)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestPrincipalFromClaims_Casings(t *testing.T) {
	p := PrincipalFromClaims(jwt.MapClaims{
		"user_id":    float64(15),
		"company_id": "9",
		"username":   "ravi",
		"role":       "warehouse_keeper",
		"scope_type": "warehouse",
		"scope_id":   "4",
	})
	assert.Equal(t, "15", p.UserID)
	assert.Equal(t, "9", p.CompanyID)
	assert.Equal(t, "ravi", p.Name)
	assert.Equal(t, identity.RoleWarehouseKeeper, p.Role)
	assert.Equal(t, shared.Scope{Type: shared.ScopeWarehouse, ID: "4"}, p.Scope)

	nested := PrincipalFromClaims(jwt.MapClaims{
		"sub":  "abc",
		"user": map[string]any{"id": "u1", "role": "MANAGER", "email": "m@example.com"},
	})
	assert.Equal(t, "u1", nested.UserID)
	assert.Equal(t, identity.RoleManager, nested.Role)
	assert.Equal(t, "m@example.com", nested.Email)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	tok, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}
