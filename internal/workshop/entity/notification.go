package entity

import "time"

// Notification event types
const (
	NoticeOrderCreated      = "order.created"
	NoticeOrderCompleted    = "order.completed"
	NoticeOrderRejected     = "order.rejected"
	NoticeTaskStatusChanged = "task.status_changed"
)

// Notification manager-facing event record written by the queue worker.
type Notification struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Type      string     `json:"type" gorm:"size:50;not null;index"`
	OrderID   *uint      `json:"order_id" gorm:"index"`
	TaskID    *uint      `json:"task_id" gorm:"index"`
	Message   string     `json:"message" gorm:"type:text;not null"`
	ReadAt    *time.Time `json:"read_at" gorm:"index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
