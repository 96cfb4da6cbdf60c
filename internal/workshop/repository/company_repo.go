package repository

import (
	"context"
	"errors"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"gorm.io/gorm"
)

// CompanyRepository customer company storage.
type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindAll lists companies with an optional name search.
func (r *CompanyRepository) FindAll(ctx context.Context, page, pageSize int, search string) ([]entity.Company, int64, error) {
	var items []entity.Company
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Company{})
	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("name ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID loads one company.
func (r *CompanyRepository) FindByID(ctx context.Context, id uint) (*entity.Company, error) {
	var c entity.Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a company.
func (r *CompanyRepository) Create(ctx context.Context, c *entity.Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update persists all fields of the company.
func (r *CompanyRepository) Update(ctx context.Context, c *entity.Company) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// SoftDelete marks the company deleted.
func (r *CompanyRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Company{}).Error
}
