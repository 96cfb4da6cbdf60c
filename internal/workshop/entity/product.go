package entity

import (
	"time"

	"gorm.io/gorm"
)

// Product type
const (
	ProductTypeProduct  = "product"
	ProductTypeMaterial = "material"
)

// Product manufactured item or raw material consumed as a component.
type Product struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"size:200;not null"`
	Type        string         `json:"type" gorm:"size:20;not null;default:product"` // product/material
	Unit        string         `json:"unit" gorm:"size:20;not null;default:pcs"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"type:decimal(12,2);default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (Product) TableName() string {
	return "products"
}
