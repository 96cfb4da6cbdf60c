package repository

import (
	"context"
	"errors"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository production task storage.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindAll lists tasks with optional filters, newest first.
func (r *TaskRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ProductionTask, int64, error) {
	var items []entity.ProductionTask
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ProductionTask{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if orderID := filters["order_id"]; orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	if userID := filters["user_id"]; userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Components").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID loads a task with its components.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*entity.ProductionTask, error) {
	var task entity.ProductionTask
	err := r.db.WithContext(ctx).
		Preload("Components").
		Preload("User").
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// LockForUpdate reads the task row under SELECT ... FOR UPDATE on the
// given transaction. Lock ordering is always task first, then its
// parent order.
func (r *TaskRepository) LockForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*entity.ProductionTask, error) {
	var task entity.ProductionTask
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, translateLockError(err)
	}
	return &task, nil
}

// Create inserts a task.
func (r *TaskRepository) Create(ctx context.Context, tx *gorm.DB, task *entity.ProductionTask) error {
	return tx.WithContext(ctx).Create(task).Error
}

// Update persists all fields of the task.
func (r *TaskRepository) Update(ctx context.Context, tx *gorm.DB, task *entity.ProductionTask) error {
	return tx.WithContext(ctx).Save(task).Error
}

// SoftDelete marks the task deleted.
func (r *TaskRepository) SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entity.ProductionTask{}).Error
}

// FindByOrderID returns the active tasks of an order.
func (r *TaskRepository) FindByOrderID(ctx context.Context, tx *gorm.DB, orderID uint) ([]entity.ProductionTask, error) {
	var tasks []entity.ProductionTask
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// CountIncompleteByOrderID counts active tasks of the order that are
// not yet completed. Soft-deleted tasks never block completion.
func (r *TaskRepository) CountIncompleteByOrderID(ctx context.Context, tx *gorm.DB, orderID uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&entity.ProductionTask{}).
		Where("order_id = ? AND status <> ?", orderID, entity.TaskStatusCompleted).
		Count(&count).Error
	return count, err
}

// CreateInspection records inspection metadata for a task.
func (r *TaskRepository) CreateInspection(ctx context.Context, tx *gorm.DB, insp *entity.TaskInspection) error {
	return tx.WithContext(ctx).Create(insp).Error
}

// FindLatestInspection loads the newest inspection record of a task on
// the given transaction.
func (r *TaskRepository) FindLatestInspection(ctx context.Context, tx *gorm.DB, taskID uint) (*entity.TaskInspection, error) {
	var insp entity.TaskInspection
	err := tx.WithContext(ctx).
		Where("production_task_id = ?", taskID).
		Order("created_at DESC").
		First(&insp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &insp, nil
}

// UpdateInspection persists all fields of the inspection record.
func (r *TaskRepository) UpdateInspection(ctx context.Context, tx *gorm.DB, insp *entity.TaskInspection) error {
	return tx.WithContext(ctx).Save(insp).Error
}

// FindInspections lists inspection records of a task, newest first.
func (r *TaskRepository) FindInspections(ctx context.Context, taskID uint) ([]entity.TaskInspection, error) {
	var items []entity.TaskInspection
	err := r.db.WithContext(ctx).
		Where("production_task_id = ?", taskID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
