package entity

import "time"

// Inspection verdicts recorded by quality control.
const (
	VerdictAccepted = "accepted"
	VerdictRejected = "rejected"
	VerdictRework   = "rework"
)

// TaskInspection metadata recorded when a task is sent for inspection.
// Percentages are clamped to 100 on write. Verdict, InspectorID and
// RejectionReason are stamped when quality control rules on the task.
type TaskInspection struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`
	ProductionTaskID      uint       `json:"production_task_id" gorm:"not null;index"`
	Notes                 string     `json:"notes" gorm:"type:text"`
	CompletionPercentage  int        `json:"completion_percentage" gorm:"not null;default:0"`
	QualitySelfAssessment int        `json:"quality_self_assessment" gorm:"not null;default:0"`
	Issues                string     `json:"issues" gorm:"type:text"`
	EstimatedCompletion   *time.Time `json:"estimated_completion"`
	InspectorID           *uint      `json:"inspector_id"`
	Verdict               string     `json:"verdict" gorm:"size:20"`
	RejectionReason       string     `json:"rejection_reason" gorm:"type:text"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (TaskInspection) TableName() string {
	return "task_inspections"
}
