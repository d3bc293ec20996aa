package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
)

const WorkOrderNotFoundError = "work order not found"

// WorkOrderHandler defines handlers for managing work orders.
type WorkOrderHandler struct {
	Service *services.WorkOrderService
}

// NewWorkOrderHandler creates a new WorkOrderHandler with the given
// WorkOrderService.
func NewWorkOrderHandler(service *services.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{Service: service}
}

// ListWorkOrders handles GET /workorders, ordered urgent first.
// @Summary List work orders
// @Tags workorders
// @Accept json
// @Produce json
// @Success 200 {array} models.WorkOrder "Work orders, highest priority first"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /workorders [get]
func (h *WorkOrderHandler) ListWorkOrders(c *fiber.Ctx) error {
	orders, err := h.Service.List()
	if err != nil {
		log.Printf("Error listing work orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return c.JSON(orders)
}

// CreateWorkOrder handles POST /workorders.
// @Summary Create a work order
// @Description Creates a work order; status defaults to open, priority to medium
// @Tags workorders
// @Accept json
// @Produce json
// @Param workorder body services.CreateWorkOrderInput true "Work order fields"
// @Success 201 {object} models.WorkOrder "Created work order"
// @Failure 400 {object} map[string]interface{} "Validation failure"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /workorders [post]
func (h *WorkOrderHandler) CreateWorkOrder(c *fiber.Ctx) error {
	var input services.CreateWorkOrderInput
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body: " + err.Error(),
		})
	}
	order, err := h.Service.Create(input)
	if err != nil {
		log.Printf("Work order creation failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully created work order: ID=%d, Title=%s", order.ID, order.Title)
	return c.Status(fiber.StatusCreated).JSON(order)
}

// updateWorkOrderRequest distinguishes omitted fields from explicit nulls:
// resource_id and due_date stay raw so an absent key leaves the column
// untouched while a literal null detaches or clears it.
type updateWorkOrderRequest struct {
	Title      *string         `json:"title"`
	ResourceID json.RawMessage `json:"resource_id"`
	Status     *string         `json:"status"`
	Priority   *string         `json:"priority"`
	Assignee   *string         `json:"assignee"`
	DueDate    json.RawMessage `json:"due_date"`
	Notes      *string         `json:"notes"`
}

func (r updateWorkOrderRequest) toUpdate() (repository.WorkOrderUpdate, error) {
	update := repository.WorkOrderUpdate{
		Title:    r.Title,
		Status:   r.Status,
		Priority: r.Priority,
		Assignee: r.Assignee,
		Notes:    r.Notes,
	}
	if len(r.ResourceID) > 0 {
		var id *int64
		if err := json.Unmarshal(r.ResourceID, &id); err != nil {
			return update, errors.New("resource_id must be a number or null")
		}
		update.ResourceID = &id
	}
	if len(r.DueDate) > 0 {
		var due *time.Time
		if err := json.Unmarshal(r.DueDate, &due); err != nil {
			return update, errors.New("due_date must be an RFC 3339 timestamp or null")
		}
		update.DueDate = &due
	}
	return update, nil
}

// UpdateWorkOrder handles PATCH /workorders/:id with sparse update
// semantics.
// @Summary Update a work order
// @Description Applies a partial update; omitted fields stay unchanged, null resource_id detaches the work order
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path int true "Work order ID"
// @Param update body object true "Fields to change"
// @Success 200 {object} models.WorkOrder "Updated work order"
// @Failure 400 {object} map[string]interface{} "Invalid ID or validation failure"
// @Failure 404 {object} map[string]interface{} "Work order not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /workorders/{id} [patch]
func (h *WorkOrderHandler) UpdateWorkOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid work order id",
		})
	}
	var req updateWorkOrderRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body: " + err.Error(),
		})
	}
	update, err := req.toUpdate()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	order, err := h.Service.Update(id, update)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": WorkOrderNotFoundError,
			})
		}
		log.Printf("Error updating work order: ID=%d, Error=%v", id, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully updated work order: ID=%d", id)
	return c.JSON(order)
}

// DeleteWorkOrder handles DELETE /workorders/:id.
// @Summary Delete a work order
// @Tags workorders
// @Accept json
// @Produce json
// @Param id path int true "Work order ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 404 {object} map[string]interface{} "Work order not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /workorders/{id} [delete]
func (h *WorkOrderHandler) DeleteWorkOrder(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid work order id",
		})
	}
	if err := h.Service.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": WorkOrderNotFoundError,
			})
		}
		log.Printf("Error deleting work order: ID=%d, Error=%v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully deleted work order: ID=%d", id)
	return c.SendStatus(fiber.StatusNoContent)
}
