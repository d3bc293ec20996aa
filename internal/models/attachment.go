package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is the metadata of an uploaded photo, scoped strictly to one
// resource. The file itself lives in the object bucket under StorageKey.
type Attachment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResourceID       int64     `gorm:"index" json:"resource_id"`
	Bucket           string    `json:"bucket"`
	StorageKey       string    `json:"storage_key"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	UploadedAt       time.Time `json:"uploaded_at"`
}
