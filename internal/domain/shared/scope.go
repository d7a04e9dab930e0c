package shared

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ScopeType names the organizational unit a record belongs to.
type ScopeType string

const (
	ScopeBranch    ScopeType = "BRANCH"
	ScopeWarehouse ScopeType = "WAREHOUSE"
	ScopeCompany   ScopeType = "COMPANY"
)

// ParseScopeType accepts any casing. The empty string parses to "".
func ParseScopeType(s string) (ScopeType, error) {
	st := ScopeType(strings.ToUpper(strings.TrimSpace(s)))
	if st == "" || st.Valid() {
		return st, nil
	}
	return "", ErrInvalidInput.WithMessage(fmt.Sprintf("invalid scope type %q", s))
}

func (s ScopeType) Valid() bool {
	switch s {
	case ScopeBranch, ScopeWarehouse, ScopeCompany:
		return true
	}
	return false
}

// Path is the lowercase form used in URL segments, e.g. /branches/:id/settings.
func (s ScopeType) Path() string {
	switch s {
	case ScopeBranch:
		return "branches"
	case ScopeWarehouse:
		return "warehouses"
	case ScopeCompany:
		return "companies"
	}
	return ""
}

func (s *ScopeType) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseScopeType(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Scope pins a record to exactly one organizational unit. Type decides
// which id namespace ID resolves into.
type Scope struct {
	Type ScopeType `json:"scopeType"`
	ID   string    `json:"scopeId"`
}

func NewScope(t ScopeType, id string) (Scope, error) {
	if !t.Valid() {
		return Scope{}, ErrInvalidInput.WithMessage(fmt.Sprintf("invalid scope type %q", t))
	}
	if strings.TrimSpace(id) == "" {
		return Scope{}, ErrInvalidInput.WithMessage("scope id is required")
	}
	return Scope{Type: t, ID: id}, nil
}

func (s Scope) IsZero() bool {
	return s.Type == "" && s.ID == ""
}

func (s Scope) String() string {
	if s.IsZero() {
		return ""
	}
	return string(s.Type) + ":" + s.ID
}

// ReadScope pulls scopeType/scopeId out of a record in either casing,
// falling back to a nested scope object.
func ReadScope(f Fields) Scope {
	if f.String("scopeType") == "" {
		if inner := f.Object("scope"); inner != nil {
			f = inner
		}
	}
	st, _ := ParseScopeType(f.String("scopeType"))
	return Scope{Type: st, ID: f.ID("scopeId")}
}
