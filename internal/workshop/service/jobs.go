package service

import (
	"context"
	"encoding/json"

	"github.com/Terml/ERP-system/internal/shared/queue"
)

// RegisterJobHandlers binds the queue worker to the services that
// execute each background job.
func RegisterJobHandlers(w *queue.Worker, s *Services) {
	w.Handle(queue.JobTaskStatusChanged, func(ctx context.Context, payload json.RawMessage) error {
		var p TaskStatusChangedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		return s.Notification.WriteTaskStatusChanged(ctx, p)
	})

	w.Handle(queue.JobOrderCreated, func(ctx context.Context, payload json.RawMessage) error {
		var p OrderEventPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		return s.Notification.WriteOrderCreated(ctx, p)
	})

	w.Handle(queue.JobOrderCompleted, func(ctx context.Context, payload json.RawMessage) error {
		var p OrderEventPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		return s.Notification.WriteOrderCompleted(ctx, p)
	})

	w.Handle(queue.JobNotificationWrite, func(ctx context.Context, payload json.RawMessage) error {
		var p NotificationWritePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		return s.Notification.Write(ctx, p)
	})

	w.Handle(queue.JobReportGenerate, func(ctx context.Context, payload json.RawMessage) error {
		var p ReportGeneratePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		return s.Report.Generate(ctx, p)
	})

	w.Handle(queue.JobImportExcel, func(ctx context.Context, payload json.RawMessage) error {
		var p ImportExcelPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		return s.Import.ImportFromStorage(ctx, p)
	})
}
