package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// NotificationService writes and serves manager-facing notifications.
// Writes normally arrive through the queue worker.
type NotificationService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewNotificationService(repos *repository.Repositories, logger *zap.Logger) *NotificationService {
	return &NotificationService{repos: repos, logger: logger}
}

// List pages notifications.
func (s *NotificationService) List(ctx context.Context, page, pageSize int, unreadOnly bool) ([]entity.Notification, int64, error) {
	return s.repos.Notification.FindAll(ctx, page, pageSize, unreadOnly)
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, id uint) error {
	return s.repos.Notification.MarkRead(ctx, id)
}

// MarkAllRead marks every unread notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.repos.Notification.MarkAllRead(ctx)
}

// Write stores a notification row.
func (s *NotificationService) Write(ctx context.Context, p NotificationWritePayload) error {
	n := &entity.Notification{
		Type:    p.Type,
		OrderID: p.OrderID,
		TaskID:  p.TaskID,
		Message: p.Message,
	}
	if err := s.repos.Notification.Create(ctx, n); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

// WriteTaskStatusChanged records a task transition for managers.
func (s *NotificationService) WriteTaskStatusChanged(ctx context.Context, p TaskStatusChangedPayload) error {
	msg := fmt.Sprintf("Task #%d of order #%d moved to %s", p.TaskID, p.OrderID, p.To)
	if p.From != "" {
		msg = fmt.Sprintf("Task #%d of order #%d moved from %s to %s", p.TaskID, p.OrderID, p.From, p.To)
	}
	return s.Write(ctx, NotificationWritePayload{
		Type:    entity.NoticeTaskStatusChanged,
		OrderID: &p.OrderID,
		TaskID:  &p.TaskID,
		Message: msg,
	})
}

// WriteOrderCreated records a new order for managers.
func (s *NotificationService) WriteOrderCreated(ctx context.Context, p OrderEventPayload) error {
	return s.Write(ctx, NotificationWritePayload{
		Type:    entity.NoticeOrderCreated,
		OrderID: &p.OrderID,
		Message: fmt.Sprintf("Order #%d created and waiting for production", p.OrderID),
	})
}

// WriteOrderCompleted records a finished order for managers.
func (s *NotificationService) WriteOrderCompleted(ctx context.Context, p OrderEventPayload) error {
	return s.Write(ctx, NotificationWritePayload{
		Type:    entity.NoticeOrderCompleted,
		OrderID: &p.OrderID,
		Message: fmt.Sprintf("Order #%d completed", p.OrderID),
	})
}
