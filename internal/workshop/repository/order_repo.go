package repository

import (
	"context"
	"errors"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository production order storage.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll lists orders with optional filters, newest first.
func (r *OrderRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Order, int64, error) {
	var items []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if companyID := filters["company_id"]; companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if productID := filters["product_id"]; productID != "" {
		query = query.Where("product_id = ?", productID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Company").
		Preload("Product").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID loads an order with its tasks and components.
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("Product").
		Preload("Tasks").
		Preload("Tasks.Components").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// LockForUpdate reads the order row under SELECT ... FOR UPDATE on the
// given transaction. No associations are loaded; the caller holds the
// lock until the transaction ends.
func (r *OrderRepository) LockForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*entity.Order, error) {
	var order entity.Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, translateLockError(err)
	}
	return &order, nil
}

// Create inserts an order.
func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, order *entity.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

// Update persists all fields of the order.
func (r *OrderRepository) Update(ctx context.Context, tx *gorm.DB, order *entity.Order) error {
	return tx.WithContext(ctx).Save(order).Error
}

// SoftDelete marks the order deleted.
func (r *OrderRepository) SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entity.Order{}).Error
}

// CountByStatus aggregates active orders per status.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[entity.OrderStatus]int64, error) {
	type row struct {
		Status entity.OrderStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[entity.OrderStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
