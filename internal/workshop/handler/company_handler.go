package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Terml/ERP-system/internal/workshop/service"
)

// CompanyHandler customer company endpoints.
type CompanyHandler struct {
	companies *service.CompanyService
}

func NewCompanyHandler(companies *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// List GET /companies
func (h *CompanyHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.companies.List(c.Request.Context(), page, pageSize, c.Query("search"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, paginate(items, page, pageSize, total))
}

// Get GET /companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	company, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, company)
}

// Create POST /companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req service.CompanyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	company, err := h.companies.Create(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, company)
}

// Update PUT /companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	var req service.CompanyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	company, err := h.companies.Update(c.Request.Context(), id, req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, company)
}

// Delete DELETE /companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.companies.Delete(c.Request.Context(), id); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"deleted": true})
}
