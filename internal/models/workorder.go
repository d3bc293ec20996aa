package models

import "time"

// Work order statuses. "blocked" doubles as cancelled.
const (
	WorkOrderOpen       = "open"
	WorkOrderInProgress = "in_progress"
	WorkOrderBlocked    = "blocked"
	WorkOrderDone       = "done"
)

// Work order priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var validWorkOrderStatuses = map[string]bool{
	WorkOrderOpen: true, WorkOrderInProgress: true, WorkOrderBlocked: true, WorkOrderDone: true,
}

var validPriorities = map[string]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityUrgent: true,
}

// ValidWorkOrderStatus reports whether s is a recognized work order status.
func ValidWorkOrderStatus(s string) bool { return validWorkOrderStatuses[s] }

// ValidPriority reports whether p is a recognized priority.
func ValidPriority(p string) bool { return validPriorities[p] }

// PriorityRank orders priorities for display, urgent first. Unknown values
// sort last.
func PriorityRank(p string) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// WorkOrder tracks work against a resource. ResourceID is nullable; the
// store deletes dependent work orders when their resource is deleted.
type WorkOrder struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string     `json:"title"`
	ResourceID *int64     `gorm:"index" json:"resource_id,omitempty"`
	Status     string     `gorm:"index" json:"status"`
	Priority   string     `gorm:"default:medium" json:"priority"`
	Assignee   string     `json:"assignee,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
