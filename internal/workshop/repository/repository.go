package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrConflict the row is held by a concurrent writer and the caller
	// may retry.
	ErrConflict = errors.New("concurrent modification conflict")
)

// translateLockError maps postgres lock and serialization failures to
// ErrConflict. Everything else passes through unchanged.
func translateLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
			return ErrConflict
		}
	}
	return err
}

// Repositories workshop repository set.
type Repositories struct {
	Order        *OrderRepository
	Task         *TaskRepository
	Component    *ComponentRepository
	Archive      *ArchiveRepository
	Company      *CompanyRepository
	Product      *ProductRepository
	User         *UserRepository
	Notification *NotificationRepository
	Report       *ReportRepository
}

// NewRepositories creates the workshop repository set.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Order:        NewOrderRepository(db),
		Task:         NewTaskRepository(db),
		Component:    NewComponentRepository(db),
		Archive:      NewArchiveRepository(db),
		Company:      NewCompanyRepository(db),
		Product:      NewProductRepository(db),
		User:         NewUserRepository(db),
		Notification: NewNotificationRepository(db),
		Report:       NewReportRepository(db),
	}
}
