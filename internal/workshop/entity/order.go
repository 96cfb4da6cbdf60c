package entity

import (
	"time"

	"gorm.io/gorm"
)

// Order production order placed by a company for a product.
type Order struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID uint           `json:"company_id" gorm:"not null;index"`
	ProductID uint           `json:"product_id" gorm:"not null;index"`
	Quantity  int            `json:"quantity" gorm:"not null"`
	Deadline  time.Time      `json:"deadline" gorm:"type:date;not null"`
	Status    OrderStatus    `json:"status" gorm:"size:20;not null;default:wait;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Company *Company         `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Product *Product         `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Tasks   []ProductionTask `json:"tasks,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

// ArchivedOrder snapshot of an order moved out of the active tables.
// OriginalID keeps the id the order had before archiving; restore
// creates a fresh row and drops the snapshot.
type ArchivedOrder struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OriginalID uint        `json:"original_id" gorm:"not null;index"`
	CompanyID  uint        `json:"company_id" gorm:"not null"`
	ProductID  uint        `json:"product_id" gorm:"not null"`
	Quantity   int         `json:"quantity" gorm:"not null"`
	Deadline   time.Time   `json:"deadline" gorm:"type:date;not null"`
	Status     OrderStatus `json:"status" gorm:"size:20;not null"`
	ArchivedAt time.Time   `json:"archived_at" gorm:"not null"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (ArchivedOrder) TableName() string {
	return "archived_orders"
}
