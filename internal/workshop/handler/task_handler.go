package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Terml/ERP-system/internal/workshop/service"
)

// TaskHandler production task endpoints.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	OrderID    uint                     `json:"order_id" binding:"required"`
	Quantity   int                      `json:"quantity" binding:"required"`
	UserID     *uint                    `json:"user_id"`
	Components []service.ComponentInput `json:"components"`
}

type inspectionRequest struct {
	Notes                 string `json:"notes"`
	CompletionPercentage  int    `json:"completion_percentage"`
	QualitySelfAssessment int    `json:"quality_self_assessment"`
	Issues                string `json:"issues"`
	EstimatedCompletion   string `json:"estimated_completion"` // RFC3339, optional
}

type verdictRequest struct {
	Reason string `json:"reason"`
}

type componentRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type updateComponentRequest struct {
	Quantity     *int `json:"quantity"`
	UsedQuantity *int `json:"used_quantity"`
}

type componentUsageRequest struct {
	Components []service.ComponentUsageInput `json:"components" binding:"required"`
}

// List GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":   c.Query("status"),
		"order_id": c.Query("order_id"),
		"user_id":  c.Query("user_id"),
	}

	items, total, err := h.tasks.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, paginate(items, page, pageSize, total))
}

// Get GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, task)
}

// Create POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), service.CreateTaskInput{
		OrderID:    req.OrderID,
		Quantity:   req.Quantity,
		UserID:     req.UserID,
		Components: req.Components,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, task)
}

// Take POST /tasks/:id/take — assigns the task to the caller.
func (h *TaskHandler) Take(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)
	if userID == 0 {
		Forbidden(c, "authentication required")
		return
	}
	task, err := h.tasks.Take(c.Request.Context(), id, userID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, task)
}

// SendForInspection POST /tasks/:id/send-for-inspection
func (h *TaskHandler) SendForInspection(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req inspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	input := service.InspectionInput{
		Notes:                 req.Notes,
		CompletionPercentage:  req.CompletionPercentage,
		QualitySelfAssessment: req.QualitySelfAssessment,
		Issues:                req.Issues,
	}
	if req.EstimatedCompletion != "" {
		est, err := time.Parse(time.RFC3339, req.EstimatedCompletion)
		if err != nil {
			BadRequest(c, "estimated_completion must be RFC3339")
			return
		}
		input.EstimatedCompletion = &est
	}

	task, err := h.tasks.SendForInspection(c.Request.Context(), id, input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, task)
}

// Accept POST /tasks/:id/accept — OTK acceptance that also closes the
// order when this was the last task.
func (h *TaskHandler) Accept(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	result, err := h.tasks.AcceptByOTKWithOrderCompletion(c.Request.Context(), id, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// Reject POST /tasks/:id/reject — OTK rejection with an optional reason.
func (h *TaskHandler) Reject(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req verdictRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	task, err := h.tasks.RejectByOTK(c.Request.Context(), id, GetUserID(c), req.Reason)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, task)
}

// Rework POST /tasks/:id/rework — OTK returns the task to the worker.
func (h *TaskHandler) Rework(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req verdictRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	task, err := h.tasks.ReturnForRework(c.Request.Context(), id, GetUserID(c), req.Reason)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, task)
}

// Reopen POST /tasks/:id/reopen
func (h *TaskHandler) Reopen(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.Reopen(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, task)
}

// Delete DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ListInspections GET /tasks/:id/inspections
func (h *TaskHandler) ListInspections(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	items, err := h.tasks.ListInspections(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, items)
}

// AddComponent POST /tasks/:id/components
func (h *TaskHandler) AddComponent(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req componentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	component, err := h.tasks.AddComponent(c.Request.Context(), id, service.ComponentInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, component)
}

// AddComponents POST /tasks/:id/components/batch
func (h *TaskHandler) AddComponents(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Components []service.ComponentInput `json:"components" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	components, err := h.tasks.AddComponents(c.Request.Context(), id, req.Components)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, components)
}

// UpdateComponent PUT /tasks/:id/components/:component_id
func (h *TaskHandler) UpdateComponent(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	componentID, ok := ParseID(c, "component_id")
	if !ok {
		return
	}
	var req updateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	component, err := h.tasks.UpdateComponent(c.Request.Context(), id, componentID, service.UpdateComponentInput{
		Quantity:     req.Quantity,
		UsedQuantity: req.UsedQuantity,
	})
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, component)
}

// RemoveComponent DELETE /tasks/:id/components/:component_id
func (h *TaskHandler) RemoveComponent(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	componentID, ok := ParseID(c, "component_id")
	if !ok {
		return
	}
	if err := h.tasks.RemoveComponent(c.Request.Context(), id, componentID); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}

// ReportUsage POST /tasks/:id/components/usage — records final
// material usage and sends the task to inspection.
func (h *TaskHandler) ReportUsage(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req componentUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	task, err := h.tasks.ReportUsageAndSendForInspection(c.Request.Context(), id, req.Components)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"task":    task,
		"message": "task sent for inspection",
	})
}
