package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
)

// AttachmentRepository defines persistence operations for attachment
// metadata records.
type AttachmentRepository interface {
	ListByResource(resourceID int64) ([]models.Attachment, error)
	Get(id uuid.UUID) (*models.Attachment, error)
	Create(attachment *models.Attachment) error
	Delete(id uuid.UUID) error
}

// AttachmentRepositoryImpl provides methods to interact with the Attachment
// model in the database.
type AttachmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepositoryImpl instance
// with the provided GORM database connection.
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepositoryImpl {
	return &AttachmentRepositoryImpl{db: db}
}

// ListByResource retrieves all attachments for a resource, newest first.
func (r *AttachmentRepositoryImpl) ListByResource(resourceID int64) ([]models.Attachment, error) {
	var attachments []models.Attachment
	err := r.db.Where("resource_id = ?", resourceID).Order("uploaded_at desc").Find(&attachments).Error
	return attachments, err
}

// Get retrieves an Attachment by its ID from the database.
func (r *AttachmentRepositoryImpl) Get(id uuid.UUID) (*models.Attachment, error) {
	var attachment models.Attachment
	err := r.db.First(&attachment, "id = ?", id).Error
	return &attachment, err
}

// Create inserts a new attachment metadata record.
func (r *AttachmentRepositoryImpl) Create(attachment *models.Attachment) error {
	return r.db.Create(attachment).Error
}

// Delete removes an attachment metadata record by its ID.
func (r *AttachmentRepositoryImpl) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Attachment{}, "id = ?", id).Error
}
