package entity

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleDispatcher = "dispatcher"
	RoleMaster     = "master"
	RoleOTK        = "otk"
)

// User workshop account. Role gates route access; services additionally
// check state preconditions on every transition.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Login     string         `json:"login" gorm:"size:100;not null;uniqueIndex"`
	Name      string         `json:"name" gorm:"size:100"`
	Password  string         `json:"-" gorm:"size:255;not null"`
	Role      string         `json:"role" gorm:"size:20;not null;default:master"` // admin/manager/dispatcher/master/otk
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
