package repository

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
)

// ResourceFilter narrows resource listings with server-side equality
// filters. Empty fields match everything.
type ResourceFilter struct {
	Type   string
	Status string
}

// ResourceUpdate is a sparse update: nil fields are left unchanged.
// Properties distinguishes "not provided" (nil) from "explicitly cleared"
// (the literal JSON null).
type ResourceUpdate struct {
	Name       *string
	Type       *string
	Status     *string
	Properties json.RawMessage
	Geometry   *geo.Geometry
}

// ResourceRepository defines persistence operations for resources. Every
// mutation mirrors into an append-only activity record in the same
// transaction.
type ResourceRepository interface {
	List(filter ResourceFilter) ([]models.Resource, error)
	Get(id int64) (*models.Resource, error)
	Create(resource *models.Resource) error
	Update(id int64, update ResourceUpdate) (*models.Resource, error)
	Delete(id int64) error
}

// ResourceRepositoryImpl provides methods to interact with the Resource
// model in the database.
type ResourceRepositoryImpl struct {
	db *gorm.DB
}

// NewResourceRepository creates a new ResourceRepositoryImpl instance with
// the provided GORM database connection.
func NewResourceRepository(db *gorm.DB) *ResourceRepositoryImpl {
	return &ResourceRepositoryImpl{db: db}
}

// List retrieves resources matching the filter, oldest first so ids are
// stable across refreshes.
func (r *ResourceRepositoryImpl) List(filter ResourceFilter) ([]models.Resource, error) {
	var resources []models.Resource
	q := r.db.Order("id")
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	err := q.Find(&resources).Error
	return resources, err
}

// Get retrieves a Resource by its ID from the database.
func (r *ResourceRepositoryImpl) Get(id int64) (*models.Resource, error) {
	var resource models.Resource
	err := r.db.First(&resource, "id = ?", id).Error
	return &resource, err
}

// Create inserts a new resource and its "create" activity record.
func (r *ResourceRepositoryImpl) Create(resource *models.Resource) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(resource).Error; err != nil {
			return err
		}
		return appendActivity(tx, resource.ID, models.ActionCreate, nil, resource)
	})
}

// Update applies a sparse update: only the provided fields change, the rest
// are untouched. Appends an "update" activity record with before/after
// snapshots.
func (r *ResourceRepositoryImpl) Update(id int64, update ResourceUpdate) (*models.Resource, error) {
	var updated models.Resource
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Resource
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		changes := map[string]any{}
		if update.Name != nil {
			changes["name"] = *update.Name
		}
		if update.Type != nil {
			changes["type"] = *update.Type
		}
		if update.Status != nil {
			changes["status"] = *update.Status
		}
		if update.Properties != nil {
			changes["properties"] = string(update.Properties)
		}
		if update.Geometry != nil {
			changes["geometry"] = *update.Geometry
		}
		if len(changes) > 0 {
			if err := tx.Model(&models.Resource{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				return err
			}
		}
		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return err
		}
		return appendActivity(tx, id, models.ActionUpdate, &existing, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a resource, cascades deletion of its work orders and
// appends a "delete" activity record carrying the old value.
func (r *ResourceRepositoryImpl) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Resource
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.WorkOrder{}, "resource_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Resource{}, "id = ?", id).Error; err != nil {
			return err
		}
		return appendActivity(tx, id, models.ActionDelete, &existing, nil)
	})
}

func appendActivity(tx *gorm.DB, resourceID int64, action string, oldValue, newValue *models.Resource) error {
	record := models.ActivityRecord{ResourceID: resourceID, Action: action}
	if oldValue != nil {
		b, err := json.Marshal(oldValue)
		if err != nil {
			return err
		}
		record.OldValue = b
	}
	if newValue != nil {
		b, err := json.Marshal(newValue)
		if err != nil {
			return err
		}
		record.NewValue = b
	}
	return tx.Create(&record).Error
}
