package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
)

// CreateWorkOrderInput carries the fields of a work order insert. Status
// defaults to open, priority to medium.
type CreateWorkOrderInput struct {
	Title      string     `json:"title"`
	ResourceID *int64     `json:"resource_id"`
	Status     string     `json:"status"`
	Priority   string     `json:"priority"`
	Assignee   string     `json:"assignee"`
	DueDate    *time.Time `json:"due_date"`
	Notes      string     `json:"notes"`
}

// WorkOrderService validates and persists work order mutations.
type WorkOrderService struct {
	Repo repository.WorkOrderRepository
}

// NewWorkOrderService creates a new WorkOrderService with the given
// repository.
func NewWorkOrderService(repo repository.WorkOrderRepository) *WorkOrderService {
	return &WorkOrderService{Repo: repo}
}

// List returns all work orders sorted by priority (urgent first), then
// newest first within a priority.
func (s *WorkOrderService) List() ([]models.WorkOrder, error) {
	orders, err := s.Repo.List()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list work orders")
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return models.PriorityRank(orders[i].Priority) < models.PriorityRank(orders[j].Priority)
	})
	return orders, nil
}

// Create validates and inserts a new work order.
func (s *WorkOrderService) Create(input CreateWorkOrderInput) (*models.WorkOrder, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	status := input.Status
	if status == "" {
		status = models.WorkOrderOpen
	}
	if !models.ValidWorkOrderStatus(status) {
		return nil, fmt.Errorf("unknown work order status %q", status)
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, fmt.Errorf("unknown priority %q", priority)
	}
	order := &models.WorkOrder{
		Title:      input.Title,
		ResourceID: input.ResourceID,
		Status:     status,
		Priority:   priority,
		Assignee:   input.Assignee,
		DueDate:    input.DueDate,
		Notes:      input.Notes,
	}
	if err := s.Repo.Create(order); err != nil {
		return nil, errors.Wrap(err, "failed to create work order")
	}
	return order, nil
}

// Update validates and applies a sparse update to a work order.
func (s *WorkOrderService) Update(id int64, update repository.WorkOrderUpdate) (*models.WorkOrder, error) {
	if update.Title != nil && *update.Title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if update.Status != nil && !models.ValidWorkOrderStatus(*update.Status) {
		return nil, fmt.Errorf("unknown work order status %q", *update.Status)
	}
	if update.Priority != nil && !models.ValidPriority(*update.Priority) {
		return nil, fmt.Errorf("unknown priority %q", *update.Priority)
	}
	order, err := s.Repo.Update(id, update)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update work order")
	}
	return order, nil
}

// Delete removes a work order.
func (s *WorkOrderService) Delete(id int64) error {
	if err := s.Repo.Delete(id); err != nil {
		return errors.Wrap(err, "failed to delete work order")
	}
	return nil
}
