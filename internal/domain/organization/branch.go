package organization

import (
	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

type Branch struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	Location  string `json:"location,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Manager   string `json:"manager,omitempty"`
	Status    string `json:"status"`
	shared.Timestamps
}

func (b Branch) EntityID() string { return b.ID }

func (b *Branch) UnmarshalJSON(data []byte) error {
	f, err := shared.ParseFields(data)
	if err != nil {
		return err
	}
	*b = Branch{
		ID:         f.ID("id"),
		CompanyID:  f.ID("companyId"),
		Name:       f.String("name"),
		Code:       f.String("code"),
		Location:   firstNonEmpty(f.String("location"), f.String("address")),
		Phone:      f.String("phone"),
		Manager:    firstNonEmpty(f.String("managerName"), f.String("manager")),
		Status:     readStatus(f),
		Timestamps: shared.ReadTimestamps(f),
	}
	return nil
}

// Scope returns the branch as a scope reference.
func (b Branch) Scope() shared.Scope {
	return shared.Scope{Type: shared.ScopeBranch, ID: b.ID}
}

type Warehouse struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"companyId"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Location  string          `json:"location,omitempty"`
	Capacity  decimal.Decimal `json:"capacity"`
	Status    string          `json:"status"`
	shared.Timestamps
}

func (w Warehouse) EntityID() string { return w.ID }

func (w *Warehouse) UnmarshalJSON(data []byte) error {
	f, err := shared.ParseFields(data)
	if err != nil {
		return err
	}
	*w = Warehouse{
		ID:         f.ID("id"),
		CompanyID:  f.ID("companyId"),
		Name:       f.String("name"),
		Code:       f.String("code"),
		Location:   firstNonEmpty(f.String("location"), f.String("address")),
		Capacity:   f.Decimal("capacity"),
		Status:     readStatus(f),
		Timestamps: shared.ReadTimestamps(f),
	}
	return nil
}

func (w Warehouse) Scope() shared.Scope {
	return shared.Scope{Type: shared.ScopeWarehouse, ID: w.ID}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
