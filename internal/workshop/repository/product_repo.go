package repository

import (
	"context"
	"errors"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"gorm.io/gorm"
)

// ProductRepository product and material storage.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindAll lists products with optional type filter and name search.
func (r *ProductRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Product, int64, error) {
	var items []entity.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Product{})
	if ptype := filters["type"]; ptype != "" {
		query = query.Where("type = ?", ptype)
	}
	if search := filters["search"]; search != "" {
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

// FindByID loads one product.
func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*entity.Product, error) {
	var p entity.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByName loads a product by exact name, used for import dedupe.
func (r *ProductRepository) FindByName(ctx context.Context, tx *gorm.DB, name string) (*entity.Product, error) {
	var p entity.Product
	err := tx.WithContext(ctx).Where("name = ?", name).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// CreateTx inserts a product on the given transaction.
func (r *ProductRepository) CreateTx(ctx context.Context, tx *gorm.DB, p *entity.Product) error {
	return tx.WithContext(ctx).Create(p).Error
}

// UpdateTx persists all fields of the product on the given transaction.
func (r *ProductRepository) UpdateTx(ctx context.Context, tx *gorm.DB, p *entity.Product) error {
	return tx.WithContext(ctx).Save(p).Error
}

// Update persists all fields of the product.
func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// SoftDelete marks the product deleted.
func (r *ProductRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Product{}).Error
}
