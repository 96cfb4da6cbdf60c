package queue

import (
	"encoding/json"
	"time"
)

// Job types routed by the worker.
const (
	JobTaskStatusChanged = "task.status_changed"
	JobOrderCompleted    = "order.completed"
	JobOrderCreated      = "order.created"
	JobNotificationWrite = "notification.write"
	JobReportGenerate    = "report.generate"
	JobImportExcel       = "import.excel"
)

// Job queued unit of work. Attempt counts deliveries, starting at 1.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// backoffSchedules per job type, seconds between redeliveries. The last
// entry repeats until maxAttempts is reached.
var backoffSchedules = map[string][]int{
	JobTaskStatusChanged: {15, 30, 60, 120},
	JobOrderCompleted:    {15, 30, 60, 120},
	JobOrderCreated:      {15, 30, 60, 120},
	JobNotificationWrite: {15, 30, 60, 120},
	JobReportGenerate:    {30, 60, 120},
	JobImportExcel:       {60, 120},
}

var defaultBackoff = []int{10, 30, 60}

// backoffDelay returns the delay before redelivering attempt n (1-based
// count of failed deliveries so far).
func backoffDelay(jobType string, attempt int) time.Duration {
	schedule, ok := backoffSchedules[jobType]
	if !ok {
		schedule = defaultBackoff
	}
	idx := attempt - 1
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	return time.Duration(schedule[idx]) * time.Second
}
