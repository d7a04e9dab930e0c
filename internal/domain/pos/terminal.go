// Package pos models point-of-sale terminals, their open tabs and held bills.
package pos

import (
	"github.com/multipos/console/internal/domain/shared"
)

const (
	TerminalActive      = "ACTIVE"
	TerminalInactive    = "INACTIVE"
	TerminalMaintenance = "MAINTENANCE"
)

// Terminal is a POS register installed in a branch or warehouse.
type Terminal struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Code       string       `json:"code,omitempty"`
	Scope      shared.Scope `json:"scope"`
	Status     string       `json:"status"`
	AssignedTo string       `json:"assignedTo,omitempty"`
	shared.Timestamps
}

func (t Terminal) EntityID() string { return t.ID }

func (t *Terminal) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*t = Terminal{
		ID:         f.ID("id"),
		Name:       f.String("name"),
		Code:       f.String("code"),
		Scope:      shared.ReadScope(f),
		Status:     normalizeStatus(f.String("status")),
		AssignedTo: f.String("assignedTo"),
		Timestamps: shared.ReadTimestamps(f),
	}
	return nil
}

// TerminalInput is the create/update payload for /pos.
type TerminalInput struct {
	Name      string           `json:"name" validate:"required,max=80"`
	Code      string           `json:"code,omitempty" validate:"omitempty,max=20"`
	ScopeType shared.ScopeType `json:"scopeType" validate:"required,oneof=BRANCH WAREHOUSE COMPANY"`
	ScopeID   string           `json:"scopeId" validate:"required"`
	Status    string           `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE MAINTENANCE"`
}

// Tab is a named open order on a terminal.
type Tab struct {
	ID         string `json:"id"`
	TerminalID string `json:"terminalId"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	shared.Timestamps
}

func (t Tab) EntityID() string { return t.ID }

func (t *Tab) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*t = Tab{
		ID:         f.ID("id"),
		TerminalID: firstID(f, "terminalId", "posId"),
		Name:       firstString(f, "name", "tabName"),
		Status:     normalizeStatus(f.String("status")),
		Timestamps: shared.ReadTimestamps(f),
	}
	return nil
}

type TabInput struct {
	Name string `json:"name" validate:"required,max=60"`
}

func firstID(f shared.Fields, names ...string) string {
	for _, n := range names {
		if v := f.ID(n); v != "" {
			return v
		}
	}
	return ""
}

func firstString(f shared.Fields, names ...string) string {
	for _, n := range names {
		if v := f.String(n); v != "" {
			return v
		}
	}
	return ""
}
