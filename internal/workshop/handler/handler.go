package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Terml/ERP-system/internal/workshop/repository"
	"github.com/Terml/ERP-system/internal/workshop/service"
)

// Handlers workshop handler set.
type Handlers struct {
	Order        *OrderHandler
	Task         *TaskHandler
	Company      *CompanyHandler
	Product      *ProductHandler
	User         *UserHandler
	Notification *NotificationHandler
	Report       *ReportHandler
}

// NewHandlers creates the workshop handler set.
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Order:        NewOrderHandler(services.Order),
		Task:         NewTaskHandler(services.Task),
		Company:      NewCompanyHandler(services.Company),
		Product:      NewProductHandler(services.Product),
		User:         NewUserHandler(services.User),
		Notification: NewNotificationHandler(services.Notification),
		Report:       NewReportHandler(services.Report, services.Import),
	}
}

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps service layer errors onto the response envelope:
// 40400 not found, 40900 invalid transition or conflict, 42200 failed
// precondition, 40000 validation, 50000 everything else.
func ServiceError(c *gin.Context, err error) {
	var invalidTransition *service.InvalidTransitionError
	var precondition *service.PreconditionError
	var validation *service.ValidationError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "record not found")
	case errors.As(err, &invalidTransition):
		Error(c, 40900, invalidTransition.Error())
	case errors.Is(err, service.ErrConflict):
		Error(c, 40900, err.Error())
	case errors.As(err, &precondition):
		Error(c, 42200, precondition.Error())
	case errors.As(err, &validation):
		BadRequest(c, validation.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID returns the authenticated user id, 0 when unauthenticated.
func GetUserID(c *gin.Context) uint {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(uint); ok {
		return id
	}
	return 0
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// ParseID parses a :id style path param.
func ParseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func paginate(items interface{}, page, pageSize int, total int64) *ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}
