package models

import (
	"encoding/json"
	"time"
)

// Activity actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ActivityRecord is the append-only audit trail. Every resource mutation
// appends exactly one record with before/after snapshots; nothing in the
// session layer ever reads it back.
type ActivityRecord struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ResourceID int64           `gorm:"index" json:"resource_id"`
	Action     string          `json:"action"`
	OldValue   json.RawMessage `gorm:"type:jsonb" json:"old_value,omitempty"`
	NewValue   json.RawMessage `gorm:"type:jsonb" json:"new_value,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
