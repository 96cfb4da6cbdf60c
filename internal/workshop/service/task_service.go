package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/shared/queue"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// TaskService orchestrates production task transitions and component
// bookkeeping. Lock ordering is always task row first, then the parent
// order row; acceptByOTK with order completion relies on it.
type TaskService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	rules   *StatusRuleValidator
	cascade *cascade
	effects *SideEffects
	logger  *zap.Logger
}

func NewTaskService(db *gorm.DB, repos *repository.Repositories, rules *StatusRuleValidator, effects *SideEffects, logger *zap.Logger) *TaskService {
	return &TaskService{
		db:      db,
		repos:   repos,
		rules:   rules,
		cascade: &cascade{tasks: repos.Task},
		effects: effects,
		logger:  logger,
	}
}

type ComponentInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateTaskInput struct {
	OrderID    uint             `json:"order_id"`
	Quantity   int              `json:"quantity"`
	UserID     *uint            `json:"user_id"`
	Components []ComponentInput `json:"components"`
}

type InspectionInput struct {
	Notes                 string     `json:"notes"`
	CompletionPercentage  int        `json:"completion_percentage"`
	QualitySelfAssessment int        `json:"quality_self_assessment"`
	Issues                string     `json:"issues"`
	EstimatedCompletion   *time.Time `json:"estimated_completion"`
}

type ComponentUsageInput struct {
	ComponentID  uint `json:"component_id"`
	UsedQuantity int  `json:"used_quantity"`
}

// AcceptResult outcome of an OTK acceptance that also checks the order.
type AcceptResult struct {
	Task           *entity.ProductionTask `json:"task"`
	Order          *entity.Order          `json:"order"`
	OrderCompleted bool                   `json:"order_completed"`
}

// Create adds a task to an order, optionally pre-assigned to a master.
// A waiting order moves into production when its first task arrives.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*entity.ProductionTask, error) {
	if input.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	for _, c := range input.Components {
		if c.Quantity <= 0 {
			return nil, &ValidationError{Field: "components", Reason: "component quantity must be positive"}
		}
	}
	if input.UserID != nil {
		user, err := s.repos.User.FindByID(ctx, *input.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &ValidationError{Field: "user_id", Reason: "user does not exist"}
			}
			return nil, fmt.Errorf("check user: %w", err)
		}
		if user.Role != entity.RoleMaster {
			return nil, &ValidationError{Field: "user_id", Reason: "assignee must be a master"}
		}
	}

	var task *entity.ProductionTask
	var orderStarted bool
	var orderID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repos.Order.LockForUpdate(ctx, tx, input.OrderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &ValidationError{Field: "order_id", Reason: "order does not exist"}
			}
			return err
		}
		if order.Status != entity.OrderStatusWait && order.Status != entity.OrderStatusInProcess {
			return &PreconditionError{Reason: "tasks can only be added to waiting or in-process orders"}
		}
		orderID = order.ID

		task = &entity.ProductionTask{
			OrderID:  order.ID,
			UserID:   input.UserID,
			Quantity: input.Quantity,
			Status:   entity.TaskStatusWait,
		}
		if err := s.repos.Task.Create(ctx, tx, task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		if len(input.Components) > 0 {
			components := make([]entity.TaskComponent, len(input.Components))
			for i, c := range input.Components {
				components[i] = entity.TaskComponent{
					ProductionTaskID: task.ID,
					ProductID:        c.ProductID,
					Quantity:         c.Quantity,
				}
			}
			if err := s.repos.Component.CreateBatch(ctx, tx, components); err != nil {
				return fmt.Errorf("create components: %w", err)
			}
			task.Components = components
		}

		if order.Status == entity.OrderStatusWait {
			if err := s.rules.ValidateOrderTransition(order, entity.OrderStatusInProcess); err != nil {
				return err
			}
			order.Status = entity.OrderStatusInProcess
			if err := s.repos.Order.Update(ctx, tx, order); err != nil {
				return fmt.Errorf("start order: %w", err)
			}
			orderStarted = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		zap.Uint("task_id", task.ID),
		zap.Uint("order_id", orderID),
		zap.Bool("order_started", orderStarted),
	)
	s.effects.Flush(ctx, cache.TagTasks, cache.TagOrders, cache.TagStatistics)
	return task, nil
}

// Take assigns the task to a worker and starts it. Under concurrent
// takes the row lock serializes callers; the loser sees in_process and
// gets an invalid transition.
func (s *TaskService) Take(ctx context.Context, taskID, userID uint) (*entity.ProductionTask, error) {
	if _, err := s.repos.User.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Field: "user_id", Reason: "user does not exist"}
		}
		return nil, fmt.Errorf("check user: %w", err)
	}

	return s.transition(ctx, taskID, entity.TaskStatusInProcess, func(task *entity.ProductionTask) error {
		task.UserID = &userID
		return nil
	}, nil)
}

// clampPercent keeps reported percentages inside [0,100].
func clampPercent(v int) int {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}

// SendForInspection moves a task to checking and records the
// inspection metadata. Percentages are clamped to [0,100].
func (s *TaskService) SendForInspection(ctx context.Context, taskID uint, input InspectionInput) (*entity.ProductionTask, error) {
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

		task.Status = entity.TaskStatusChecking
		if err := s.repos.Task.Update(ctx, tx, task); err != nil {
			return err
		}

		return s.repos.Task.CreateInspection(ctx, tx, &entity.TaskInspection{
			ProductionTaskID:      task.ID,
			Notes:                 input.Notes,
			CompletionPercentage:  clampPercent(input.CompletionPercentage),
			QualitySelfAssessment: clampPercent(input.QualitySelfAssessment),
			Issues:                input.Issues,
			EstimatedCompletion:   input.EstimatedCompletion,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, task, string(entity.TaskStatusInProcess))
	s.effects.Flush(ctx, cache.TagTasks, cache.TagStatistics)
	return task, nil
}

// recordVerdict stamps the inspector's ruling on the newest inspection
// record of the task. Tasks sent to checking without an inspection
// record are left as they are.
func (s *TaskService) recordVerdict(ctx context.Context, tx *gorm.DB, taskID uint, verdict string, inspectorID uint, reason string) error {
	insp, err := s.repos.Task.FindLatestInspection(ctx, tx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load inspection: %w", err)
	}
	insp.InspectorID = &inspectorID
	insp.Verdict = verdict
	insp.RejectionReason = reason
	return s.repos.Task.UpdateInspection(ctx, tx, insp)
}

// AcceptByOTK passes inspection and completes the task. The parent
// order is not touched; use AcceptByOTKWithOrderCompletion to close
// the order in the same transaction.
func (s *TaskService) AcceptByOTK(ctx context.Context, taskID, inspectorID uint) (*entity.ProductionTask, error) {
	return s.transition(ctx, taskID, entity.TaskStatusCompleted, nil, func(tx *gorm.DB, task *entity.ProductionTask) error {
		return s.recordVerdict(ctx, tx, task.ID, entity.VerdictAccepted, inspectorID, "")
	})
}

// AcceptByOTKWithOrderCompletion completes the task and, when it was
// the last one, completes the order in the same transaction. Locks the
// task row first, then the order row.
func (s *TaskService) AcceptByOTKWithOrderCompletion(ctx context.Context, taskID, inspectorID uint) (*AcceptResult, error) {
	var result AcceptResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := s.repos.Task.LockForUpdate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := s.rules.ValidateTaskTransition(task, entity.TaskStatusCompleted); err != nil {
			return err
		}

		order, err := s.repos.Order.LockForUpdate(ctx, tx, task.OrderID)
		if err != nil {
			return fmt.Errorf("lock order %d: %w", task.OrderID, err)
		}

		task.Status = entity.TaskStatusCompleted
		if err := s.repos.Task.Update(ctx, tx, task); err != nil {
			return err
		}
		if err := s.recordVerdict(ctx, tx, task.ID, entity.VerdictAccepted, inspectorID, ""); err != nil {
			return err
		}

		if order.Status == entity.OrderStatusInProcess {
			done, err := s.cascade.allTasksCompleted(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			if done {
				if err := s.rules.ValidateOrderTransition(order, entity.OrderStatusCompleted); err != nil {
					return err
				}
				order.Status = entity.OrderStatusCompleted
				if err := s.repos.Order.Update(ctx, tx, order); err != nil {
					return err
				}
				result.OrderCompleted = true
			}
		}

		result.Task = task
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, result.Task, string(entity.TaskStatusChecking))
	if result.OrderCompleted {
		s.logger.Info("order completed by last task",
			zap.Uint("order_id", result.Order.ID),
			zap.Uint("task_id", result.Task.ID),
		)
		s.effects.Enqueue(ctx, queue.JobOrderCompleted, OrderEventPayload{OrderID: result.Order.ID})
	}
	s.effects.Flush(ctx, cache.TagTasks, cache.TagOrders, cache.TagStatistics)
	return &result, nil
}

// RejectByOTK fails inspection and rejects the task, recording who
// rejected it and why.
func (s *TaskService) RejectByOTK(ctx context.Context, taskID, inspectorID uint, reason string) (*entity.ProductionTask, error) {
	return s.transition(ctx, taskID, entity.TaskStatusRejected, nil, func(tx *gorm.DB, task *entity.ProductionTask) error {
		return s.recordVerdict(ctx, tx, task.ID, entity.VerdictRejected, inspectorID, reason)
	})
}

// ReturnForRework sends a task under inspection back to the worker.
func (s *TaskService) ReturnForRework(ctx context.Context, taskID, inspectorID uint, reason string) (*entity.ProductionTask, error) {
	return s.transition(ctx, taskID, entity.TaskStatusInProcess, nil, func(tx *gorm.DB, task *entity.ProductionTask) error {
		return s.recordVerdict(ctx, tx, task.ID, entity.VerdictRework, inspectorID, reason)
	})
}

// Reopen puts a rejected task back in the wait queue, unassigned.
func (s *TaskService) Reopen(ctx context.Context, taskID uint) (*entity.ProductionTask, error) {
	return s.transition(ctx, taskID, entity.TaskStatusWait, func(task *entity.ProductionTask) error {
		task.UserID = nil
		return nil
	}, nil)
}

// Delete soft-deletes a task that has not entered production.
func (s *TaskService) Delete(ctx context.Context, taskID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		task, err := s.repos.Task.LockForUpdate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if task.Status != entity.TaskStatusWait && task.Status != entity.TaskStatusRejected {
			return &PreconditionError{Reason: "only waiting or rejected tasks can be deleted"}
		}
		return s.repos.Task.SoftDelete(ctx, tx, task.ID)
	})
	if err != nil {
		return err
	}

	s.effects.Flush(ctx, cache.TagTasks, cache.TagStatistics)
	return nil
}

// Get loads one task with components.
func (s *TaskService) Get(ctx context.Context, id uint) (*entity.ProductionTask, error) {
	return s.repos.Task.FindByID(ctx, id)
}

// List pages tasks with filters.
func (s *TaskService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.ProductionTask, int64, error) {
	return s.repos.Task.FindAll(ctx, page, pageSize, filters)
}

// ListInspections returns the inspection history of a task.
func (s *TaskService) ListInspections(ctx context.Context, taskID uint) ([]entity.TaskInspection, error) {
	if _, err := s.repos.Task.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.repos.Task.FindInspections(ctx, taskID)
}

// transition locks the task, applies the optional mutation, validates
// the move, saves, and runs the optional follow-up on the same
// transaction.
func (s *TaskService) transition(ctx context.Context, taskID uint, target entity.TaskStatus, mutate func(task *entity.ProductionTask) error, after func(tx *gorm.DB, task *entity.ProductionTask) error) (*entity.ProductionTask, error) {
	var task *entity.ProductionTask
	var from entity.TaskStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = s.repos.Task.LockForUpdate(ctx, tx, taskID)
		if err != nil {
			return err
		}
		from = task.Status
		if mutate != nil {
			if err := mutate(task); err != nil {
				return err
			}
		}
		if err := s.rules.ValidateTaskTransition(task, target); err != nil {
			return err
		}
		task.Status = target
		if err := s.repos.Task.Update(ctx, tx, task); err != nil {
			return err
		}
		if after != nil {
			return after(tx, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, task, string(from))
	s.effects.Flush(ctx, cache.TagTasks, cache.TagStatistics)
	return task, nil
}

func (s *TaskService) notifyStatusChange(ctx context.Context, task *entity.ProductionTask, from string) {
	s.logger.Info("task status changed",
		zap.Uint("task_id", task.ID),
		zap.String("from", from),
		zap.String("to", string(task.Status)),
	)
	s.effects.Enqueue(ctx, queue.JobTaskStatusChanged, TaskStatusChangedPayload{
		TaskID:  task.ID,
		OrderID: task.OrderID,
		From:    from,
		To:      string(task.Status),
		UserID:  task.UserID,
	})
}
