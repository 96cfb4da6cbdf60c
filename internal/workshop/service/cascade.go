package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// cascade runs the multi-entity consequences of a transition. Every
// method operates on the caller's transaction so the whole cascade
// commits or rolls back as one unit.
type cascade struct {
	tasks *repository.TaskRepository
}

// allTasksCompleted reports whether every active task of the order is
// completed. Soft-deleted tasks are ignored.
func (c *cascade) allTasksCompleted(ctx context.Context, tx *gorm.DB, orderID uint) (bool, error) {
	incomplete, err := c.tasks.CountIncompleteByOrderID(ctx, tx, orderID)
	if err != nil {
		return false, fmt.Errorf("count incomplete tasks: %w", err)
	}
	return incomplete == 0, nil
}

// rejectTasks moves every non-terminal task of the order to rejected
// and returns the affected task ids. Completed and already rejected
// tasks are left alone.
func (c *cascade) rejectTasks(ctx context.Context, tx *gorm.DB, orderID uint) ([]uint, error) {
	tasks, err := c.tasks.FindByOrderID(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order tasks: %w", err)
	}

	var affected []uint
	for i := range tasks {
		task := &tasks[i]
		if !task.Status.CanTransitionTo(entity.TaskStatusRejected) {
			continue
		}
		task.Status = entity.TaskStatusRejected
		if err := c.tasks.Update(ctx, tx, task); err != nil {
			return nil, fmt.Errorf("reject task %d: %w", task.ID, err)
		}
		affected = append(affected, task.ID)
	}
	return affected, nil
}
