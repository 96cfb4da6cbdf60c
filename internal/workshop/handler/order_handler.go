package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Terml/ERP-system/internal/workshop/service"
)

// OrderHandler order endpoints.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	CompanyID uint   `json:"company_id" binding:"required"`
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Deadline  string `json:"deadline" binding:"required"` // YYYY-MM-DD
}

type updateOrderRequest struct {
	Quantity *int    `json:"quantity"`
	Deadline *string `json:"deadline"`
}

// List GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":     c.Query("status"),
		"company_id": c.Query("company_id"),
		"product_id": c.Query("product_id"),
	}

	items, total, err := h.orders.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, paginate(items, page, pageSize, total))
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, order)
}

// Create POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		BadRequest(c, "deadline must be YYYY-MM-DD")
		return
	}

	order, err := h.orders.Create(c.Request.Context(), service.CreateOrderInput{
		CompanyID: req.CompanyID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Deadline:  deadline,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, order)
}

// Update PUT /orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	input := service.UpdateOrderInput{Quantity: req.Quantity}
	if req.Deadline != nil {
		deadline, err := time.Parse("2006-01-02", *req.Deadline)
		if err != nil {
			BadRequest(c, "deadline must be YYYY-MM-DD")
			return
		}
		input.Deadline = &deadline
	}

	order, err := h.orders.Update(c.Request.Context(), id, input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, order)
}

// Complete POST /orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Complete(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, order)
}

// Reject POST /orders/:id/reject
func (h *OrderHandler) Reject(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	order, affected, err := h.orders.Reject(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"order":          order,
		"tasks_rejected": affected,
	})
}

// Reopen POST /orders/:id/reopen
func (h *OrderHandler) Reopen(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Reopen(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, order)
}

// Archive POST /orders/:id/archive
func (h *OrderHandler) Archive(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Archive(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"archived": true})
}

// ListArchived GET /orders/archived
func (h *OrderHandler) ListArchived(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.orders.ListArchived(c.Request.Context(), page, pageSize)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, paginate(items, page, pageSize, total))
}

// Restore POST /orders/archived/:original_id/restore
func (h *OrderHandler) Restore(c *gin.Context) {
	originalID, ok := ParseID(c, "original_id")
	if !ok {
		return
	}
	order, err := h.orders.Restore(c.Request.Context(), originalID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, order)
}

// Statistics GET /orders/statistics
func (h *OrderHandler) Statistics(c *gin.Context) {
	stats, err := h.orders.Statistics(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, stats)
}
