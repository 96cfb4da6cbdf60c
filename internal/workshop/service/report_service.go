package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/shared/queue"
	"github.com/Terml/ERP-system/internal/shared/storage"
	"github.com/Terml/ERP-system/internal/workshop/entity"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// Report kinds.
const (
	ReportByCompany  = "by_company"
	ReportByProduct  = "by_product"
	ReportStatistics = "statistics"
)

var reportKinds = map[string]bool{
	ReportByCompany:  true,
	ReportByProduct:  true,
	ReportStatistics: true,
}

// ReportService renders production reports to xlsx and stores them in
// object storage. Generation normally runs on the queue worker; the
// Request path only records a pending row and enqueues.
type ReportService struct {
	db      *gorm.DB
	repos   *repository.Repositories
	store   *storage.Storage
	effects *SideEffects
	logger  *zap.Logger
}

func NewReportService(db *gorm.DB, repos *repository.Repositories, store *storage.Storage, effects *SideEffects, logger *zap.Logger) *ReportService {
	return &ReportService{db: db, repos: repos, store: store, effects: effects, logger: logger}
}

// Request records a pending report and schedules generation.
func (s *ReportService) Request(ctx context.Context, kind string, date time.Time) (*entity.Report, error) {
	if !reportKinds[kind] {
		return nil, &ValidationError{Field: "kind", Reason: "unknown report kind " + kind}
	}
	if date.IsZero() {
		date = time.Now()
	}

	report := &entity.Report{
		Kind:   kind,
		Date:   date,
		Status: entity.ReportStatusPending,
	}
	if err := s.repos.Report.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report record: %w", err)
	}

	s.effects.Enqueue(ctx, queue.JobReportGenerate, ReportGeneratePayload{
		Kind: kind,
		Date: date.Format("2006-01-02"),
	})
	return report, nil
}

// List pages report records.
func (s *ReportService) List(ctx context.Context, page, pageSize int) ([]entity.Report, int64, error) {
	return s.repos.Report.FindAll(ctx, page, pageSize)
}

// Download streams a generated report file.
func (s *ReportService) Download(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	report, err := s.repos.Report.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if report.Status != entity.ReportStatusReady {
		return nil, "", &PreconditionError{Reason: "report is not ready"}
	}
	rc, err := s.store.Get(ctx, report.ObjectKey)
	if err != nil {
		return nil, "", err
	}
	name := fmt.Sprintf("%s-%s.xlsx", report.Kind, report.Date.Format("2006-01-02"))
	return rc, name, nil
}

// Generate builds the workbook for the pending report of the given
// kind and date, uploads it, and marks the record ready. Called by the
// queue worker.
func (s *ReportService) Generate(ctx context.Context, p ReportGeneratePayload) error {
	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return fmt.Errorf("parse report date: %w", err)
	}

	var report entity.Report
	err = s.db.WithContext(ctx).
		Where("kind = ? AND date = ? AND status = ?", p.Kind, date, entity.ReportStatusPending).
		Order("id DESC").
		First(&report).Error
	if err != nil {
		return fmt.Errorf("find pending report: %w", err)
	}

	data, err := s.render(ctx, p.Kind)
	if err != nil {
		report.Status = entity.ReportStatusFailed
		report.Error = err.Error()
		if uerr := s.repos.Report.Update(ctx, &report); uerr != nil {
			return uerr
		}
		return err
	}

	key := fmt.Sprintf("reports/%s/%s-%s.xlsx", p.Kind, p.Date, uuid.NewString())
	if err := s.store.Put(ctx, key, data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return err
	}

	now := time.Now()
	report.ObjectKey = key
	report.Status = entity.ReportStatusReady
	report.FinishedAt = &now
	if err := s.repos.Report.Update(ctx, &report); err != nil {
		return err
	}

	s.logger.Info("report generated",
		zap.Uint("report_id", report.ID),
		zap.String("kind", p.Kind),
		zap.String("object_key", key),
	)
	return nil
}

type reportRow struct {
	Name      string
	Wait      int64
	InProcess int64
	Completed int64
	Rejected  int64
	Total     int64
}

func (s *ReportService) render(ctx context.Context, kind string) ([]byte, error) {
	var rows []reportRow
	var groupLabel string

	switch kind {
	case ReportByCompany:
		groupLabel = "Company"
		if err := s.groupOrders(ctx, "companies", "orders.company_id = companies.id", &rows); err != nil {
			return nil, err
		}
	case ReportByProduct:
		groupLabel = "Product"
		if err := s.groupOrders(ctx, "products", "orders.product_id = products.id", &rows); err != nil {
			return nil, err
		}
	case ReportStatistics:
		groupLabel = "Entity"
		orderCounts, err := s.repos.Order.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		row := reportRow{Name: "Orders"}
		row.Wait = orderCounts[entity.OrderStatusWait]
		row.InProcess = orderCounts[entity.OrderStatusInProcess]
		row.Completed = orderCounts[entity.OrderStatusCompleted]
		row.Rejected = orderCounts[entity.OrderStatusRejected]
		row.Total = row.Wait + row.InProcess + row.Completed + row.Rejected
		rows = append(rows, row)
	default:
		return nil, &ValidationError{Field: "kind", Reason: "unknown report kind " + kind}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{groupLabel, "Wait", "In process", "Completed", "Rejected", "Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, r := range rows {
		values := []any{r.Name, r.Wait, r.InProcess, r.Completed, r.Rejected, r.Total}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// groupOrders aggregates order statuses per joined reference row.
func (s *ReportService) groupOrders(ctx context.Context, table, joinOn string, out *[]reportRow) error {
	type agg struct {
		Name   string
		Status entity.OrderStatus
		Count  int64
	}
	var aggs []agg
	err := s.db.WithContext(ctx).
		Table("orders").
		Select(table+".name AS name, orders.status AS status, COUNT(*) AS count").
		Joins("JOIN "+table+" ON "+joinOn).
		Where("orders.deleted_at IS NULL").
		Group(table + ".name, orders.status").
		Order(table + ".name ASC").
		Scan(&aggs).Error
	if err != nil {
		return fmt.Errorf("aggregate orders by %s: %w", table, err)
	}

	index := make(map[string]int)
	for _, a := range aggs {
		i, ok := index[a.Name]
		if !ok {
			*out = append(*out, reportRow{Name: a.Name})
			i = len(*out) - 1
			index[a.Name] = i
		}
		row := &(*out)[i]
		switch a.Status {
		case entity.OrderStatusWait:
			row.Wait += a.Count
		case entity.OrderStatusInProcess:
			row.InProcess += a.Count
		case entity.OrderStatusCompleted:
			row.Completed += a.Count
		case entity.OrderStatusRejected:
			row.Rejected += a.Count
		}
		row.Total += a.Count
	}
	return nil
}
