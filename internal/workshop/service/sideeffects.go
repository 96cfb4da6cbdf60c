package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/shared/queue"
)

// Job payloads published after a committed transition.
type TaskStatusChangedPayload struct {
	TaskID  uint   `json:"task_id"`
	OrderID uint   `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	UserID  *uint  `json:"user_id,omitempty"`
}

type OrderEventPayload struct {
	OrderID uint `json:"order_id"`
}

type NotificationWritePayload struct {
	Type    string `json:"type"`
	OrderID *uint  `json:"order_id,omitempty"`
	TaskID  *uint  `json:"task_id,omitempty"`
	Message string `json:"message"`
}

type ReportGeneratePayload struct {
	Kind string `json:"kind"`
	Date string `json:"date"` // YYYY-MM-DD
}

type ImportExcelPayload struct {
	ObjectKey string `json:"object_key"`
	Overwrite bool   `json:"overwrite"`
}

// SideEffects dispatches post-commit work: job publishing and cache
// invalidation. Every call is fire and forget; failures are logged and
// never surface to the caller. All fields are optional so tests can
// run services without a broker or redis.
type SideEffects struct {
	queue  *queue.Client
	cache  *cache.Cache
	logger *zap.Logger
}

func NewSideEffects(q *queue.Client, c *cache.Cache, logger *zap.Logger) *SideEffects {
	return &SideEffects{queue: q, cache: c, logger: logger}
}

// Enqueue publishes a job, swallowing failures.
func (s *SideEffects) Enqueue(ctx context.Context, jobType string, payload any) {
	if s == nil || s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, jobType, payload); err != nil {
		s.logger.Warn("enqueue failed",
			zap.String("job_type", jobType),
			zap.Error(err),
		)
	}
}

// Flush invalidates cache tags, swallowing failures.
func (s *SideEffects) Flush(ctx context.Context, tags ...string) {
	if s == nil || s.cache == nil {
		return
	}
	s.cache.FlushByTags(ctx, tags...)
}
