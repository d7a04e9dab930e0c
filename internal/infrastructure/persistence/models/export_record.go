package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/multipos/console/internal/domain/export"
)

// ExportRecordModel is the persistence model of export.Record.
type ExportRecordModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID  string    `gorm:"type:varchar(64);not null;default:'';index:idx_export_records_company_created,priority:1"`
	UserID     string    `gorm:"type:varchar(64);not null;default:'';index"`
	Resource   string    `gorm:"type:varchar(64);not null"`
	Format     string    `gorm:"type:varchar(8);not null"`
	FileName   string    `gorm:"type:varchar(255);not null;default:''"`
	StorageKey string    `gorm:"type:varchar(512);not null;default:''"`
	SizeBytes  int64     `gorm:"not null;default:0"`
	RowCount   int       `gorm:"not null;default:0"`
	Status     string    `gorm:"type:varchar(16);not null"`
	Error      string    `gorm:"type:text;not null;default:''"`
	CreatedAt  time.Time `gorm:"not null;index:idx_export_records_company_created,priority:2"`
}

// TableName returns the table name for GORM
func (ExportRecordModel) TableName() string {
	return "export_records"
}

// ToDomain converts the persistence model to a domain record.
func (m *ExportRecordModel) ToDomain() *export.Record {
	return &export.Record{
		ID:         m.ID,
		CompanyID:  m.CompanyID,
		UserID:     m.UserID,
		Resource:   m.Resource,
		Format:     export.Format(m.Format),
		FileName:   m.FileName,
		StorageKey: m.StorageKey,
		SizeBytes:  m.SizeBytes,
		RowCount:   m.RowCount,
		Status:     export.Status(m.Status),
		Error:      m.Error,
		CreatedAt:  m.CreatedAt,
	}
}

// FromDomain populates the model from r.
func (m *ExportRecordModel) FromDomain(r *export.Record) {
	m.ID = r.ID
	m.CompanyID = r.CompanyID
	m.UserID = r.UserID
	m.Resource = r.Resource
	m.Format = string(r.Format)
	m.FileName = r.FileName
	m.StorageKey = r.StorageKey
	m.SizeBytes = r.SizeBytes
	m.RowCount = r.RowCount
	m.Status = string(r.Status)
	m.Error = r.Error
	m.CreatedAt = r.CreatedAt
}

// ExportRecordModelFromDomain creates a model from r.
func ExportRecordModelFromDomain(r *export.Record) *ExportRecordModel {
	m := &ExportRecordModel{}
	m.FromDomain(r)
	return m
}
