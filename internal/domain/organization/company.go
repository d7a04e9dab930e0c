// Package organization holds the tenant structure the console browses:
// companies and the branches and warehouses under them.
package organization

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/multipos/console/internal/domain/shared"
)

// Status values the upstream API uses for organizational units.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// CompanyMetrics is derived by the backend and never sent back.
type CompanyMetrics struct {
	BranchCount        int64           `json:"branchCount"`
	WarehouseCount     int64           `json:"warehouseCount"`
	UserCount          int64           `json:"userCount"`
	PurchaseOrderCount int64           `json:"purchaseOrderCount"`
	SalesCount         int64           `json:"salesCount"`
	TotalSales         decimal.Decimal `json:"totalSales"`
}

type Company struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Address       string          `json:"address,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	Status        string          `json:"status"`
	Metrics       *CompanyMetrics `json:"metrics,omitempty"`
	shared.Timestamps
}

func (c Company) EntityID() string { return c.ID }

func (c *Company) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	*c = Company{
		ID:            f.ID("id"),
		Name:          f.String("name"),
		Code:          f.String("code"),
		Email:         f.String("email"),
		Phone:         f.String("phone"),
		Address:       f.String("address"),
		TransactionID: f.String("transactionId"),
		Status:        readStatus(f),
		Timestamps:    shared.ReadTimestamps(f),
	}
	if m := f.Object("metrics"); m != nil {
		c.Metrics = readMetrics(m)
	} else if f.Has("branchCount") || f.Has("purchaseOrderCount") {
		// Some list endpoints flatten the counters onto the row.
		c.Metrics = readMetrics(f)
	}
	return nil
}

func readMetrics(f shared.Fields) *CompanyMetrics {
	return &CompanyMetrics{
		BranchCount:        f.Int("branchCount"),
		WarehouseCount:     f.Int("warehouseCount"),
		UserCount:          f.Int("userCount"),
		PurchaseOrderCount: f.Int("purchaseOrderCount"),
		SalesCount:         f.Int("salesCount"),
		TotalSales:         f.Decimal("totalSales"),
	}
}

// readStatus covers both the status string and the older isActive flag.
func readStatus(f shared.Fields) string {
	if s := f.String("status"); s != "" {
		return s
	}
	if f.Has("isActive") {
		if f.Bool("isActive") {
			return StatusActive
		}
		return StatusInactive
	}
	return ""
}

// CompanyDetails is the drill-down view from GET /companies/:id/details.
type CompanyDetails struct {
	Company    Company     `json:"company"`
	Branches   []Branch    `json:"branches"`
	Warehouses []Warehouse `json:"warehouses"`
}

func (d *CompanyDetails) UnmarshalJSON(b []byte) error {
	f, err := shared.ParseFields(b)
	if err != nil {
		return err
	}
	var out CompanyDetails
	// Either {company, branches, warehouses} or the company object itself
	// with the children nested.
	if raw := f.Raw("company"); raw != nil {
		if err := json.Unmarshal(raw, &out.Company); err != nil {
			return err
		}
	} else if err := json.Unmarshal(b, &out.Company); err != nil {
		return err
	}
	if err := f.Decode("branches", &out.Branches); err != nil {
		return err
	}
	if err := f.Decode("warehouses", &out.Warehouses); err != nil {
		return err
	}
	*d = out
	return nil
}

// CompanyInput is the create/update payload.
type CompanyInput struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	Code          string `json:"code" validate:"required,alphanum,max=20"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address       string `json:"address,omitempty" validate:"omitempty,max=255"`
	TransactionID string `json:"transactionId,omitempty" validate:"omitempty,max=64"`
	Status        string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}
