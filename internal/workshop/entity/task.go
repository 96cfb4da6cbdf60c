package entity

import (
	"time"

	"gorm.io/gorm"
)

// ProductionTask unit of work on an order, executed by a single worker.
// UserID stays nil until a worker takes the task.
type ProductionTask struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	OrderID   uint           `json:"order_id" gorm:"not null;index"`
	UserID    *uint          `json:"user_id" gorm:"index"`
	Quantity  int            `json:"quantity" gorm:"not null"`
	Status    TaskStatus     `json:"status" gorm:"size:20;not null;default:wait;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Order      *Order          `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	User       *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Components []TaskComponent `json:"components,omitempty" gorm:"foreignKey:ProductionTaskID"`
}

func (ProductionTask) TableName() string {
	return "production_tasks"
}

// TaskComponent material reserved for a task. UsedQuantity is reported
// back during execution and may not exceed Quantity.
type TaskComponent struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	ProductionTaskID uint      `json:"production_task_id" gorm:"not null;index"`
	ProductID        uint      `json:"product_id" gorm:"not null;index"`
	Quantity         int       `json:"quantity" gorm:"not null"`
	UsedQuantity     int       `json:"used_quantity" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (TaskComponent) TableName() string {
	return "task_components"
}

// ArchivedProductionTask snapshot of a task stored alongside its
// archived order. OriginalOrderID links back to the archived order's
// original id.
type ArchivedProductionTask struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	OriginalID      uint       `json:"original_id" gorm:"not null;index"`
	OriginalOrderID uint       `json:"original_order_id" gorm:"not null;index"`
	UserID          *uint      `json:"user_id"`
	Quantity        int        `json:"quantity" gorm:"not null"`
	Status          TaskStatus `json:"status" gorm:"size:20;not null"`
	ArchivedAt      time.Time  `json:"archived_at" gorm:"not null"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ArchivedProductionTask) TableName() string {
	return "archived_production_tasks"
}

// ArchivedTaskComponent snapshot of a task component stored alongside
// its archived task. OriginalTaskID links back to the task snapshot.
type ArchivedTaskComponent struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	OriginalID      uint      `json:"original_id" gorm:"not null;index"`
	OriginalTaskID  uint      `json:"original_task_id" gorm:"not null;index"`
	OriginalOrderID uint      `json:"original_order_id" gorm:"not null;index"`
	ProductID       uint      `json:"product_id" gorm:"not null"`
	Quantity        int       `json:"quantity" gorm:"not null"`
	UsedQuantity    int       `json:"used_quantity" gorm:"not null;default:0"`
	ArchivedAt      time.Time `json:"archived_at" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
}

func (ArchivedTaskComponent) TableName() string {
	return "archived_task_components"
}
