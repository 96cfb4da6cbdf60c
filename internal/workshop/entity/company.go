package entity

import (
	"time"

	"gorm.io/gorm"
)

// Company customer placing production orders.
type Company struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"size:200;not null"`
	ContactPerson string         `json:"contact_person" gorm:"size:100"`
	Phone         string         `json:"phone" gorm:"size:30"`
	Email         string         `json:"email" gorm:"size:100"`
	Address       string         `json:"address" gorm:"size:300"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (Company) TableName() string {
	return "companies"
}
