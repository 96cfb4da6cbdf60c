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

// OrderService orchestrates order lifecycle transitions. Every
// mutation runs in one transaction with the order row locked; side
// effects fire only after commit.
type OrderService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	rules   *StatusRuleValidator
	cascade *cascade
	effects *SideEffects
	cache   *cache.Cache
	logger  *zap.Logger
}

func NewOrderService(db *gorm.DB, repos *repository.Repositories, rules *StatusRuleValidator, effects *SideEffects, c *cache.Cache, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:      db,
		repos:   repos,
		rules:   rules,
		cascade: &cascade{tasks: repos.Task},
		effects: effects,
		cache:   c,
		logger:  logger,
	}
}

type CreateOrderInput struct {
	CompanyID uint      `json:"company_id"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Deadline  time.Time `json:"deadline"`
}

type UpdateOrderInput struct {
	Quantity *int       `json:"quantity"`
	Deadline *time.Time `json:"deadline"`
}

// OrderStatistics active order counts per status.
type OrderStatistics struct {
	Total    int64                        `json:"total"`
	ByStatus map[entity.OrderStatus]int64 `json:"by_status"`
}

// validateDeadline requires a deadline strictly in the future and no
// more than two years out.
func validateDeadline(deadline time.Time) error {
	now := time.Now()
	if !deadline.After(now) {
		return &ValidationError{Field: "deadline", Reason: "must be in the future"}
	}
	if deadline.After(now.AddDate(2, 0, 0)) {
		return &ValidationError{Field: "deadline", Reason: "must be within two years"}
	}
	return nil
}

// Create inserts a new order in wait status.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*entity.Order, error) {
	if input.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if input.Deadline.IsZero() {
		return nil, &ValidationError{Field: "deadline", Reason: "required"}
	}
	if err := validateDeadline(input.Deadline); err != nil {
		return nil, err
	}
	if _, err := s.repos.Company.FindByID(ctx, input.CompanyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Field: "company_id", Reason: "company does not exist"}
		}
		return nil, fmt.Errorf("check company: %w", err)
	}
	product, err := s.repos.Product.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Field: "product_id", Reason: "product does not exist"}
		}
		return nil, fmt.Errorf("check product: %w", err)
	}
	if product.Type != entity.ProductTypeProduct {
		return nil, &ValidationError{Field: "product_id", Reason: "orders can only be placed for products"}
	}

	order := &entity.Order{
		CompanyID: input.CompanyID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Deadline:  input.Deadline,
		Status:    entity.OrderStatusWait,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.repos.Order.Create(ctx, tx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created", zap.Uint("order_id", order.ID))
	s.effects.Enqueue(ctx, queue.JobOrderCreated, OrderEventPayload{OrderID: order.ID})
	s.effects.Flush(ctx, cache.TagOrders, cache.TagStatistics)
	return order, nil
}

// Update changes quantity/deadline. Only waiting or in-process orders
// can be changed.
func (s *OrderService) Update(ctx context.Context, id uint, input UpdateOrderInput) (*entity.Order, error) {
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if input.Deadline != nil {
		if err := validateDeadline(*input.Deadline); err != nil {
			return nil, err
		}
	}

	var order *entity.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.repos.Order.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusWait && order.Status != entity.OrderStatusInProcess {
			return &PreconditionError{Reason: "only waiting or in-process orders can be changed"}
		}
		if input.Quantity != nil {
			order.Quantity = *input.Quantity
		}
		if input.Deadline != nil {
			order.Deadline = *input.Deadline
		}
		return s.repos.Order.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.effects.Flush(ctx, cache.TagOrders, cache.TagStatistics)
	return order, nil
}

// Get loads one order with tasks and components.
func (s *OrderService) Get(ctx context.Context, id uint) (*entity.Order, error) {
	return s.repos.Order.FindByID(ctx, id)
}

// List pages orders with filters.
func (s *OrderService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Order, int64, error) {
	return s.repos.Order.FindAll(ctx, page, pageSize, filters)
}

// Start moves a waiting order into production.
func (s *OrderService) Start(ctx context.Context, id uint) (*entity.Order, error) {
	return s.transition(ctx, id, entity.OrderStatusInProcess, nil)
}

// Complete finishes an order. Requires every active task completed.
func (s *OrderService) Complete(ctx context.Context, id uint) (*entity.Order, error) {
	order, err := s.transition(ctx, id, entity.OrderStatusCompleted, func(tx *gorm.DB, order *entity.Order) error {
		done, err := s.cascade.allTasksCompleted(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !done {
			return &PreconditionError{Reason: "order has incomplete tasks"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.effects.Enqueue(ctx, queue.JobOrderCompleted, OrderEventPayload{OrderID: order.ID})
	return order, nil
}

// Reject cancels an order and cascades rejection to every non-terminal
// task. Returns the number of tasks affected.
func (s *OrderService) Reject(ctx context.Context, id uint) (*entity.Order, int, error) {
	var order *entity.Order
	var affected []uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.repos.Order.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.rules.ValidateOrderTransition(order, entity.OrderStatusRejected); err != nil {
			return err
		}

		affected, err = s.cascade.rejectTasks(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		order.Status = entity.OrderStatusRejected
		return s.repos.Order.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("order rejected",
		zap.Uint("order_id", order.ID),
		zap.Int("tasks_rejected", len(affected)),
	)
	for _, taskID := range affected {
		s.effects.Enqueue(ctx, queue.JobTaskStatusChanged, TaskStatusChangedPayload{
			TaskID:  taskID,
			OrderID: order.ID,
			To:      string(entity.TaskStatusRejected),
		})
	}
	s.effects.Enqueue(ctx, queue.JobNotificationWrite, NotificationWritePayload{
		Type:    entity.NoticeOrderRejected,
		OrderID: &order.ID,
		Message: fmt.Sprintf("Order #%d rejected, %d tasks cancelled", order.ID, len(affected)),
	})
	s.effects.Flush(ctx, cache.TagOrders, cache.TagTasks, cache.TagStatistics)
	return order, len(affected), nil
}

// Reopen returns a rejected order to the wait queue.
func (s *OrderService) Reopen(ctx context.Context, id uint) (*entity.Order, error) {
	return s.transition(ctx, id, entity.OrderStatusWait, nil)
}

// transition locks the order, validates the move, runs the optional
// guard inside the same transaction, and saves.
func (s *OrderService) transition(ctx context.Context, id uint, target entity.OrderStatus, guard func(tx *gorm.DB, order *entity.Order) error) (*entity.Order, error) {
	var order *entity.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.repos.Order.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.rules.ValidateOrderTransition(order, target); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(tx, order); err != nil {
				return err
			}
		}
		order.Status = target
		return s.repos.Order.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	s.effects.Flush(ctx, cache.TagOrders, cache.TagStatistics)
	return order, nil
}

// Archive snapshots a terminal order and its tasks into the archive
// tables and removes them from the active set.
func (s *OrderService) Archive(ctx context.Context, id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.repos.Order.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusCompleted && order.Status != entity.OrderStatusRejected {
			return &PreconditionError{Reason: "only completed or rejected orders can be archived"}
		}

		now := time.Now()
		snapshot := &entity.ArchivedOrder{
			OriginalID: order.ID,
			CompanyID:  order.CompanyID,
			ProductID:  order.ProductID,
			Quantity:   order.Quantity,
			Deadline:   order.Deadline,
			Status:     order.Status,
			ArchivedAt: now,
		}
		if err := s.repos.Archive.CreateOrder(ctx, tx, snapshot); err != nil {
			return fmt.Errorf("archive order: %w", err)
		}

		tasks, err := s.repos.Task.FindByOrderID(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		snapshots := make([]entity.ArchivedProductionTask, 0, len(tasks))
		var componentSnapshots []entity.ArchivedTaskComponent
		for _, t := range tasks {
			snapshots = append(snapshots, entity.ArchivedProductionTask{
				OriginalID:      t.ID,
				OriginalOrderID: order.ID,
				UserID:          t.UserID,
				Quantity:        t.Quantity,
				Status:          t.Status,
				ArchivedAt:      now,
			})
			components, err := s.repos.Component.FindByTaskID(ctx, tx, t.ID)
			if err != nil {
				return fmt.Errorf("load components of task %d: %w", t.ID, err)
			}
			for _, c := range components {
				componentSnapshots = append(componentSnapshots, entity.ArchivedTaskComponent{
					OriginalID:      c.ID,
					OriginalTaskID:  t.ID,
					OriginalOrderID: order.ID,
					ProductID:       c.ProductID,
					Quantity:        c.Quantity,
					UsedQuantity:    c.UsedQuantity,
					ArchivedAt:      now,
				})
			}
			if err := s.repos.Component.DeleteByTaskID(ctx, tx, t.ID); err != nil {
				return fmt.Errorf("remove components of task %d: %w", t.ID, err)
			}
			if err := s.repos.Task.SoftDelete(ctx, tx, t.ID); err != nil {
				return fmt.Errorf("remove task %d: %w", t.ID, err)
			}
		}
		if err := s.repos.Archive.CreateTasks(ctx, tx, snapshots); err != nil {
			return fmt.Errorf("archive tasks: %w", err)
		}
		if err := s.repos.Archive.CreateComponents(ctx, tx, componentSnapshots); err != nil {
			return fmt.Errorf("archive components: %w", err)
		}

		return s.repos.Order.SoftDelete(ctx, tx, order.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order archived", zap.Uint("order_id", id))
	s.effects.Flush(ctx, cache.TagOrders, cache.TagTasks, cache.TagStatistics)
	return nil
}

// Restore recreates an archived order and its tasks under fresh ids
// and drops the snapshots.
func (s *OrderService) Restore(ctx context.Context, originalID uint) (*entity.Order, error) {
	var order *entity.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		snapshot, err := s.repos.Archive.FindOrderByOriginalID(ctx, tx, originalID)
		if err != nil {
			return err
		}

		order = &entity.Order{
			CompanyID: snapshot.CompanyID,
			ProductID: snapshot.ProductID,
			Quantity:  snapshot.Quantity,
			Deadline:  snapshot.Deadline,
			Status:    snapshot.Status,
		}
		if err := s.repos.Order.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("restore order: %w", err)
		}

		taskSnapshots, err := s.repos.Archive.FindTasksByOriginalOrderID(ctx, tx, originalID)
		if err != nil {
			return fmt.Errorf("load task snapshots: %w", err)
		}
		componentSnapshots, err := s.repos.Archive.FindComponentsByOriginalOrderID(ctx, tx, originalID)
		if err != nil {
			return fmt.Errorf("load component snapshots: %w", err)
		}
		componentsByTask := make(map[uint][]entity.ArchivedTaskComponent)
		for _, cs := range componentSnapshots {
			componentsByTask[cs.OriginalTaskID] = append(componentsByTask[cs.OriginalTaskID], cs)
		}

		for _, ts := range taskSnapshots {
			task := &entity.ProductionTask{
				OrderID:  order.ID,
				UserID:   ts.UserID,
				Quantity: ts.Quantity,
				Status:   ts.Status,
			}
			if err := s.repos.Task.Create(ctx, tx, task); err != nil {
				return fmt.Errorf("restore task: %w", err)
			}
			if snapshots := componentsByTask[ts.OriginalID]; len(snapshots) > 0 {
				components := make([]entity.TaskComponent, len(snapshots))
				for i, cs := range snapshots {
					components[i] = entity.TaskComponent{
						ProductionTaskID: task.ID,
						ProductID:        cs.ProductID,
						Quantity:         cs.Quantity,
						UsedQuantity:     cs.UsedQuantity,
					}
				}
				if err := s.repos.Component.CreateBatch(ctx, tx, components); err != nil {
					return fmt.Errorf("restore components: %w", err)
				}
			}
		}

		return s.repos.Archive.DeleteOrderSnapshot(ctx, tx, originalID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order restored",
		zap.Uint("original_id", originalID),
		zap.Uint("order_id", order.ID),
	)
	s.effects.Flush(ctx, cache.TagOrders, cache.TagTasks, cache.TagStatistics)
	return order, nil
}

// ListArchived pages archived order snapshots.
func (s *OrderService) ListArchived(ctx context.Context, page, pageSize int) ([]entity.ArchivedOrder, int64, error) {
	return s.repos.Archive.FindOrders(ctx, page, pageSize)
}

// Statistics returns cached order counts per status.
func (s *OrderService) Statistics(ctx context.Context) (*OrderStatistics, error) {
	var stats OrderStatistics
	compute := func() (any, error) {
		counts, err := s.repos.Order.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		out := OrderStatistics{ByStatus: counts}
		for _, n := range counts {
			out.Total += n
		}
		return out, nil
	}

	if s.cache == nil {
		v, err := compute()
		if err != nil {
			return nil, err
		}
		got := v.(OrderStatistics)
		return &got, nil
	}

	err := s.cache.Remember(ctx, "orders:statistics",
		[]string{cache.TagOrders, cache.TagStatistics},
		5*time.Minute, &stats, compute)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
