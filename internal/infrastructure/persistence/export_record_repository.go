package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/multipos/console/internal/domain/export"
	"github.com/multipos/console/internal/domain/shared"
	"github.com/multipos/console/internal/infrastructure/persistence/models"
)

var _ export.Repository = (*GormExportRecordRepository)(nil)

// GormExportRecordRepository implements export.Repository using GORM
type GormExportRecordRepository struct {
	db *gorm.DB
}

// NewGormExportRecordRepository creates a new GormExportRecordRepository
func NewGormExportRecordRepository(db *gorm.DB) *GormExportRecordRepository {
	return &GormExportRecordRepository{db: db}
}

// Save inserts r, or updates it when the id exists.
func (r *GormExportRecordRepository) Save(ctx context.Context, rec *export.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	model := models.ExportRecordModelFromDomain(rec)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// FindByID finds a record by ID
func (r *GormExportRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*export.Record, error) {
	var model models.ExportRecordModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns one page of records with the total count. It sorts newest
// first unless the filter names a whitelisted column.
func (r *GormExportRecordRepository) List(ctx context.Context, filter export.Filter) ([]export.Record, int64, error) {
	filter = filter.Normalize()

	query := r.db.WithContext(ctx).Model(&models.ExportRecordModel{})
	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Resource != "" {
		query = query.Where("resource = ?", filter.Resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ExportRecordModel
	order := ValidateSortField(filter.SortBy, ExportRecordSortFields, "created_at") + " " +
		ValidateSortOrder(filter.SortOrder)
	if err := query.Order(order).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]export.Record, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}
