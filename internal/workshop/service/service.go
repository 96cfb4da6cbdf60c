package service

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Terml/ERP-system/internal/config"
	"github.com/Terml/ERP-system/internal/shared/cache"
	"github.com/Terml/ERP-system/internal/shared/queue"
	"github.com/Terml/ERP-system/internal/shared/storage"
	"github.com/Terml/ERP-system/internal/workshop/repository"
)

// Services workshop service set.
type Services struct {
	Order        *OrderService
	Task         *TaskService
	Company      *CompanyService
	Product      *ProductService
	User         *UserService
	Notification *NotificationService
	Report       *ReportService
	Import       *ImportService
}

// Deps external infrastructure handed to the services. Queue, cache,
// and store may be nil in tests; side effects degrade to no-ops.
type Deps struct {
	DB     *gorm.DB
	Queue  *queue.Client
	Cache  *cache.Cache
	Store  *storage.Storage
	JWT    config.JWTConfig
	Logger *zap.Logger
}

// NewServices wires the workshop service set.
func NewServices(repos *repository.Repositories, deps Deps) *Services {
	rules := NewStatusRuleValidator()
	effects := NewSideEffects(deps.Queue, deps.Cache, deps.Logger)

	return &Services{
		Order:        NewOrderService(deps.DB, repos, rules, effects, deps.Cache, deps.Logger),
		Task:         NewTaskService(deps.DB, repos, rules, effects, deps.Logger),
		Company:      NewCompanyService(repos, effects),
		Product:      NewProductService(repos, effects),
		User:         NewUserService(repos, effects, deps.JWT),
		Notification: NewNotificationService(repos, deps.Logger),
		Report:       NewReportService(deps.DB, repos, deps.Store, effects, deps.Logger),
		Import:       NewImportService(deps.DB, repos, deps.Store, effects, deps.Logger),
	}
}
