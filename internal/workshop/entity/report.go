package entity

import "time"

// Report statuses
const (
	ReportStatusPending = "pending"
	ReportStatusReady   = "ready"
	ReportStatusFailed  = "failed"
)

// Report generated production report stored in object storage.
type Report struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Kind       string    `json:"kind" gorm:"size:30;not null"` // by_company/by_product/statistics
	Date       time.Time `json:"date" gorm:"type:date;not null;index"`
	ObjectKey  string    `json:"object_key" gorm:"size:255"`
	Status     string    `json:"status" gorm:"size:20;not null;default:pending"`
	Error      string    `json:"error,omitempty" gorm:"type:text"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}
