package repository

import (
	"context"
	"errors"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"gorm.io/gorm"
)

// ComponentRepository task component storage.
type ComponentRepository struct {
	db *gorm.DB
}

func NewComponentRepository(db *gorm.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

// FindByID loads one component.
func (r *ComponentRepository) FindByID(ctx context.Context, id uint) (*entity.TaskComponent, error) {
	var c entity.TaskComponent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByTaskID lists the components of a task.
func (r *ComponentRepository) FindByTaskID(ctx context.Context, tx *gorm.DB, taskID uint) ([]entity.TaskComponent, error) {
	var items []entity.TaskComponent
	err := tx.WithContext(ctx).
		Where("production_task_id = ?", taskID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// Create inserts a component.
func (r *ComponentRepository) Create(ctx context.Context, tx *gorm.DB, c *entity.TaskComponent) error {
	return tx.WithContext(ctx).Create(c).Error
}

// CreateBatch inserts components in one statement.
func (r *ComponentRepository) CreateBatch(ctx context.Context, tx *gorm.DB, cs []entity.TaskComponent) error {
	if len(cs) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&cs).Error
}

// Update persists all fields of the component.
func (r *ComponentRepository) Update(ctx context.Context, tx *gorm.DB, c *entity.TaskComponent) error {
	return tx.WithContext(ctx).Save(c).Error
}

// Delete removes a component.
func (r *ComponentRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entity.TaskComponent{}).Error
}

// DeleteByTaskID removes all components of a task.
func (r *ComponentRepository) DeleteByTaskID(ctx context.Context, tx *gorm.DB, taskID uint) error {
	return tx.WithContext(ctx).Where("production_task_id = ?", taskID).Delete(&entity.TaskComponent{}).Error
}
