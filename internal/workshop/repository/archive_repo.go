package repository

import (
	"context"
	"errors"

	"github.com/Terml/ERP-system/internal/workshop/entity"
	"gorm.io/gorm"
)

// ArchiveRepository archived order/task snapshot storage.
type ArchiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// FindOrders lists archived orders, newest snapshot first.
func (r *ArchiveRepository) FindOrders(ctx context.Context, page, pageSize int) ([]entity.ArchivedOrder, int64, error) {
	var items []entity.ArchivedOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ArchivedOrder{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("archived_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindOrderByOriginalID loads the snapshot of an order by the id it had
// before archiving.
func (r *ArchiveRepository) FindOrderByOriginalID(ctx context.Context, tx *gorm.DB, originalID uint) (*entity.ArchivedOrder, error) {
	var ao entity.ArchivedOrder
	err := tx.WithContext(ctx).Where("original_id = ?", originalID).First(&ao).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ao, nil
}

// FindTasksByOriginalOrderID loads the task snapshots of an archived order.
func (r *ArchiveRepository) FindTasksByOriginalOrderID(ctx context.Context, tx *gorm.DB, originalOrderID uint) ([]entity.ArchivedProductionTask, error) {
	var items []entity.ArchivedProductionTask
	err := tx.WithContext(ctx).
		Where("original_order_id = ?", originalOrderID).
		Order("original_id ASC").
		Find(&items).Error
	return items, err
}

// CreateOrder inserts an order snapshot.
func (r *ArchiveRepository) CreateOrder(ctx context.Context, tx *gorm.DB, ao *entity.ArchivedOrder) error {
	return tx.WithContext(ctx).Create(ao).Error
}

// CreateTasks inserts task snapshots in one statement.
func (r *ArchiveRepository) CreateTasks(ctx context.Context, tx *gorm.DB, ats []entity.ArchivedProductionTask) error {
	if len(ats) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&ats).Error
}

// FindComponentsByOriginalOrderID loads the component snapshots of an
// archived order across all its tasks.
func (r *ArchiveRepository) FindComponentsByOriginalOrderID(ctx context.Context, tx *gorm.DB, originalOrderID uint) ([]entity.ArchivedTaskComponent, error) {
	var items []entity.ArchivedTaskComponent
	err := tx.WithContext(ctx).
		Where("original_order_id = ?", originalOrderID).
		Order("original_id ASC").
		Find(&items).Error
	return items, err
}

// CreateComponents inserts component snapshots in one statement.
func (r *ArchiveRepository) CreateComponents(ctx context.Context, tx *gorm.DB, acs []entity.ArchivedTaskComponent) error {
	if len(acs) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&acs).Error
}

// DeleteOrderSnapshot removes an order snapshot together with its task
// and component snapshots.
func (r *ArchiveRepository) DeleteOrderSnapshot(ctx context.Context, tx *gorm.DB, originalOrderID uint) error {
	if err := tx.WithContext(ctx).
		Where("original_order_id = ?", originalOrderID).
		Delete(&entity.ArchivedTaskComponent{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).
		Where("original_order_id = ?", originalOrderID).
		Delete(&entity.ArchivedProductionTask{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).
		Where("original_id = ?", originalOrderID).
		Delete(&entity.ArchivedOrder{}).Error
}
