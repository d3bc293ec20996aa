package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
)

// WorkOrderUpdate is a sparse update: nil fields are left unchanged.
// ResourceID distinguishes "not provided" (nil) from "detach from resource"
// (pointer to nil); DueDate works the same way.
type WorkOrderUpdate struct {
	Title      *string
	ResourceID **int64
	Status     *string
	Priority   *string
	Assignee   *string
	DueDate    **time.Time
	Notes      *string
}

// WorkOrderRepository defines persistence operations for work orders.
type WorkOrderRepository interface {
	List() ([]models.WorkOrder, error)
	Get(id int64) (*models.WorkOrder, error)
	Create(order *models.WorkOrder) error
	Update(id int64, update WorkOrderUpdate) (*models.WorkOrder, error)
	Delete(id int64) error
}

// WorkOrderRepositoryImpl provides methods to interact with the WorkOrder
// model in the database.
type WorkOrderRepositoryImpl struct {
	db *gorm.DB
}

// NewWorkOrderRepository creates a new WorkOrderRepositoryImpl instance
// with the provided GORM database connection.
func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepositoryImpl {
	return &WorkOrderRepositoryImpl{db: db}
}

// List retrieves all work orders, newest first. Scoping to a selected
// resource is a client-side concern.
func (r *WorkOrderRepositoryImpl) List() ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	err := r.db.Order("created_at desc").Find(&orders).Error
	return orders, err
}

// Get retrieves a WorkOrder by its ID from the database.
func (r *WorkOrderRepositoryImpl) Get(id int64) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.db.First(&order, "id = ?", id).Error
	return &order, err
}

// Create inserts a new work order.
func (r *WorkOrderRepositoryImpl) Create(order *models.WorkOrder) error {
	return r.db.Create(order).Error
}

// Update applies a sparse update to a work order.
func (r *WorkOrderRepositoryImpl) Update(id int64, update WorkOrderUpdate) (*models.WorkOrder, error) {
	changes := map[string]any{}
	if update.Title != nil {
		changes["title"] = *update.Title
	}
	if update.ResourceID != nil {
		changes["resource_id"] = *update.ResourceID
	}
	if update.Status != nil {
		changes["status"] = *update.Status
	}
	if update.Priority != nil {
		changes["priority"] = *update.Priority
	}
	if update.Assignee != nil {
		changes["assignee"] = *update.Assignee
	}
	if update.DueDate != nil {
		changes["due_date"] = *update.DueDate
	}
	if update.Notes != nil {
		changes["notes"] = *update.Notes
	}
	var updated models.WorkOrder
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(&models.WorkOrder{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a work order by its ID.
func (r *WorkOrderRepositoryImpl) Delete(id int64) error {
	return r.db.Delete(&models.WorkOrder{}, "id = ?", id).Error
}
