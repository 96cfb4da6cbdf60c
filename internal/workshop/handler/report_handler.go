package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Terml/ERP-system/internal/workshop/service"
)

// ReportHandler report generation and spreadsheet import endpoints.
type ReportHandler struct {
	reports *service.ReportService
	imports *service.ImportService
}

func NewReportHandler(reports *service.ReportService, imports *service.ImportService) *ReportHandler {
	return &ReportHandler{reports: reports, imports: imports}
}

type requestReportRequest struct {
	Kind string `json:"kind" binding:"required"`
	Date string `json:"date"` // YYYY-MM-DD, defaults to today
}

// Request POST /reports — schedules generation on the worker.
func (h *ReportHandler) Request(c *gin.Context) {
	var req requestReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
	}

	report, err := h.reports.Request(c.Request.Context(), req.Kind, date)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, report)
}

// List GET /reports
func (h *ReportHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.reports.List(c.Request.Context(), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, paginate(items, page, pageSize, total))
}

// Download GET /reports/:id/download
func (h *ReportHandler) Download(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	rc, name, err := h.reports.Download(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	io.Copy(c.Writer, rc)
}

// ImportProducts POST /imports/products — synchronous import of an
// uploaded spreadsheet.
func (h *ReportHandler) ImportProducts(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer src.Close()

	overwrite := c.Query("overwrite") == "true"
	result, err := h.imports.ImportProducts(c.Request.Context(), src, overwrite)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}
