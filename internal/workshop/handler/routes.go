package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Terml/ERP-system/internal/middleware"
	"github.com/Terml/ERP-system/internal/workshop/entity"
)

// RegisterRoutes mounts the API under /api/v1. Role middleware gates
// routes by who may call them; the services enforce state
// preconditions regardless.
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret string) {
	api := r.Group("/api/v1")

	api.POST("/auth/login", h.User.Login)

	auth := api.Group("")
	auth.Use(middleware.JWTAuth(jwtSecret))

	manage := middleware.RequireRoles(entity.RoleManager, entity.RoleDispatcher)
	managerOnly := middleware.RequireRoles(entity.RoleManager)
	master := middleware.RequireRoles(entity.RoleMaster)
	otk := middleware.RequireRoles(entity.RoleOTK)

	orders := auth.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.GET("/statistics", h.Order.Statistics)
		orders.GET("/archived", h.Order.ListArchived)
		orders.POST("/archived/:original_id/restore", managerOnly, h.Order.Restore)
		orders.GET("/:id", h.Order.Get)
		orders.POST("", manage, h.Order.Create)
		orders.PUT("/:id", manage, h.Order.Update)
		orders.POST("/:id/complete", managerOnly, h.Order.Complete)
		orders.POST("/:id/reject", managerOnly, h.Order.Reject)
		orders.POST("/:id/reopen", managerOnly, h.Order.Reopen)
		orders.POST("/:id/archive", managerOnly, h.Order.Archive)
	}

	tasks := auth.Group("/tasks")
	{
		tasks.GET("", h.Task.List)
		tasks.GET("/:id", h.Task.Get)
		tasks.POST("", manage, h.Task.Create)
		tasks.DELETE("/:id", manage, h.Task.Delete)
		tasks.POST("/:id/take", master, h.Task.Take)
		tasks.POST("/:id/send-for-inspection", master, h.Task.SendForInspection)
		tasks.POST("/:id/accept", otk, h.Task.Accept)
		tasks.POST("/:id/reject", otk, h.Task.Reject)
		tasks.POST("/:id/rework", otk, h.Task.Rework)
		tasks.POST("/:id/reopen", manage, h.Task.Reopen)
		tasks.GET("/:id/inspections", h.Task.ListInspections)

		tasks.POST("/:id/components", manage, h.Task.AddComponent)
		tasks.POST("/:id/components/batch", manage, h.Task.AddComponents)
		tasks.PUT("/:id/components/:component_id", h.Task.UpdateComponent)
		tasks.DELETE("/:id/components/:component_id", manage, h.Task.RemoveComponent)
		tasks.POST("/:id/components/usage", master, h.Task.ReportUsage)
	}

	companies := auth.Group("/companies")
	{
		companies.GET("", h.Company.List)
		companies.GET("/:id", h.Company.Get)
		companies.POST("", managerOnly, h.Company.Create)
		companies.PUT("/:id", managerOnly, h.Company.Update)
		companies.DELETE("/:id", managerOnly, h.Company.Delete)
	}

	products := auth.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.Get)
		products.POST("", managerOnly, h.Product.Create)
		products.PUT("/:id", managerOnly, h.Product.Update)
		products.DELETE("/:id", managerOnly, h.Product.Delete)
	}

	users := auth.Group("/users")
	users.Use(middleware.RequireRoles(entity.RoleAdmin))
	{
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.POST("", h.User.Create)
		users.PUT("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Delete)
	}

	notifications := auth.Group("/notifications")
	notifications.Use(middleware.RequireRoles(entity.RoleManager, entity.RoleDispatcher))
	{
		notifications.GET("", h.Notification.List)
		notifications.POST("/:id/read", h.Notification.MarkRead)
		notifications.POST("/read-all", h.Notification.MarkAllRead)
	}

	reports := auth.Group("/reports")
	reports.Use(managerOnly)
	{
		reports.GET("", h.Report.List)
		reports.POST("", h.Report.Request)
		reports.GET("/:id/download", h.Report.Download)
	}

	auth.POST("/imports/products", managerOnly, h.Report.ImportProducts)
}
