package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// Component writes are only allowed while the task is waiting or in
// process; once it goes to inspection the material list is frozen.

type UpdateComponentInput struct {
	Quantity     *int `json:"quantity"`
	UsedQuantity *int `json:"used_quantity"`
}

// AddComponent reserves one more material for a task.
func (s *TaskService) AddComponent(ctx context.Context, taskID uint, input ComponentInput) (*entity.TaskComponent, error) {
	if input.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	var component *entity.TaskComponent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := s.lockComponentWindow(ctx, tx, taskID)
		if err != nil {
			return err
		}
		component = &entity.TaskComponent{
			ProductionTaskID: task.ID,
			ProductID:        input.ProductID,
			Quantity:         input.Quantity,
		}
		return s.repos.Component.Create(ctx, tx, component)
	})
	if err != nil {
		return nil, err
	}

	s.effects.Flush(ctx, cache.TagTasks)
	return component, nil
}

// AddComponents reserves several materials in one transaction.
func (s *TaskService) AddComponents(ctx context.Context, taskID uint, inputs []ComponentInput) ([]entity.TaskComponent, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Field: "components", Reason: "required"}
	}
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, &ValidationError{Field: "components", Reason: "component quantity must be positive"}
		}
	}

	var components []entity.TaskComponent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := s.lockComponentWindow(ctx, tx, taskID)
		if err != nil {
			return err
		}
		components = make([]entity.TaskComponent, len(inputs))
		for i, in := range inputs {
			components[i] = entity.TaskComponent{
				ProductionTaskID: task.ID,
				ProductID:        in.ProductID,
				Quantity:         in.Quantity,
			}
		}
		return s.repos.Component.CreateBatch(ctx, tx, components)
	})
	if err != nil {
		return nil, err
	}

	s.effects.Flush(ctx, cache.TagTasks)
	return components, nil
}

// UpdateComponent changes reserved or used quantity of one component.
func (s *TaskService) UpdateComponent(ctx context.Context, taskID, componentID uint, input UpdateComponentInput) (*entity.TaskComponent, error) {
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if input.UsedQuantity != nil && *input.UsedQuantity < 0 {
		return nil, &ValidationError{Field: "used_quantity", Reason: "cannot be negative"}
	}

	var component *entity.TaskComponent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockComponentWindow(ctx, tx, taskID); err != nil {
			return err
		}
		var err error
		component, err = s.findTaskComponent(ctx, taskID, componentID)
		if err != nil {
			return err
		}
		if input.Quantity != nil {
			component.Quantity = *input.Quantity
		}
		if input.UsedQuantity != nil {
			component.UsedQuantity = *input.UsedQuantity
		}
		if component.UsedQuantity > component.Quantity {
			return &ValidationError{Field: "used_quantity", Reason: "cannot exceed reserved quantity"}
		}
		return s.repos.Component.Update(ctx, tx, component)
	})
	if err != nil {
		return nil, err
	}

	s.effects.Flush(ctx, cache.TagTasks)
	return component, nil
}

// RemoveComponent drops a component from the task.
func (s *TaskService) RemoveComponent(ctx context.Context, taskID, componentID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockComponentWindow(ctx, tx, taskID); err != nil {
			return err
		}
		if _, err := s.findTaskComponent(ctx, taskID, componentID); err != nil {
			return err
		}
		return s.repos.Component.Delete(ctx, tx, componentID)
	})
	if err != nil {
		return err
	}

	s.effects.Flush(ctx, cache.TagTasks)
	return nil
}

// ReportUsageAndSendForInspection records final material usage for the
// whole task and moves it to checking in one transaction.
func (s *TaskService) ReportUsageAndSendForInspection(ctx context.Context, taskID uint, usages []ComponentUsageInput) (*entity.ProductionTask, error) {
	var task *entity.ProductionTask
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = s.repos.Task.LockForUpdate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := s.rules.ValidateTaskTransition(task, entity.TaskStatusChecking); err != nil {
			return err
		}

		components, err := s.repos.Component.FindByTaskID(ctx, tx, taskID)
		if err != nil {
			return fmt.Errorf("load components: %w", err)
		}
		byID := make(map[uint]*entity.TaskComponent, len(components))
		for i := range components {
			byID[components[i].ID] = &components[i]
		}

		for _, u := range usages {
			component, ok := byID[u.ComponentID]
			if !ok {
				return &ValidationError{Field: "components", Reason: fmt.Sprintf("component %d does not belong to task", u.ComponentID)}
			}
			if u.UsedQuantity < 0 {
				return &ValidationError{Field: "used_quantity", Reason: "cannot be negative"}
			}
			if u.UsedQuantity > component.Quantity {
				return &ValidationError{Field: "used_quantity", Reason: "cannot exceed reserved quantity"}
			}
			component.UsedQuantity = u.UsedQuantity
			if err := s.repos.Component.Update(ctx, tx, component); err != nil {
				return err
			}
		}

		task.Status = entity.TaskStatusChecking
		return s.repos.Task.Update(ctx, tx, task)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, task, string(entity.TaskStatusInProcess))
	s.effects.Flush(ctx, cache.TagTasks, cache.TagStatistics)
	return task, nil
}

// lockComponentWindow locks the task and checks it is still open for
// component changes.
func (s *TaskService) lockComponentWindow(ctx context.Context, tx *gorm.DB, taskID uint) (*entity.ProductionTask, error) {
	task, err := s.repos.Task.LockForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != entity.TaskStatusWait && task.Status != entity.TaskStatusInProcess {
		return nil, &PreconditionError{Reason: "components can only be changed while the task is waiting or in process"}
	}
	return task, nil
}

func (s *TaskService) findTaskComponent(ctx context.Context, taskID, componentID uint) (*entity.TaskComponent, error) {
	component, err := s.repos.Component.FindByID(ctx, componentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if component.ProductionTaskID != taskID {
		return nil, repository.ErrNotFound
	}
	return component, nil
}
