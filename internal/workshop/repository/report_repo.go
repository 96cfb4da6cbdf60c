package repository

import (
	"context"
	"errors"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"gorm.io/gorm"
)

// ReportRepository generated report metadata storage.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindAll lists report records, newest first.
func (r *ReportRepository) FindAll(ctx context.Context, page, pageSize int) ([]entity.Report, int64, error) {
	var items []entity.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Report{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID loads one report record.
func (r *ReportRepository) FindByID(ctx context.Context, id uint) (*entity.Report, error) {
	var rep entity.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// Create inserts a report record.
func (r *ReportRepository) Create(ctx context.Context, rep *entity.Report) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

// Update persists all fields of the report record.
func (r *ReportRepository) Update(ctx context.Context, rep *entity.Report) error {
	return r.db.WithContext(ctx).Save(rep).Error
}
