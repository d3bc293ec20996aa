package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/export"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/session"
)

const InvalidIDError = "invalid resource id"
const ResourceNotFoundError = "resource not found"

// ResourceHandler defines handlers for managing geographic resources.
type ResourceHandler struct {
	Service *services.ResourceService
}

// NewResourceHandler creates a new ResourceHandler with the given
// ResourceService.
func NewResourceHandler(service *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{Service: service}
}

// ListResources handles GET /resources to retrieve resources under the
// active filters.
// @Summary List resources
// @Description Lists resources matching the type/status filters, narrowed by free-text search
// @Tags resources
// @Accept json
// @Produce json
// @Param type query string false "Resource type filter"
// @Param status query string false "Resource status filter"
// @Param q query string false "Free-text search over name, type, status and properties"
// @Success 200 {array} models.Resource "Matching resources"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources [get]
func (h *ResourceHandler) ListResources(c *fiber.Ctx) error {
	filter := repository.ResourceFilter{Type: c.Query("type"), Status: c.Query("status")}
	resources, err := h.Service.List(filter)
	if err != nil {
		log.Printf("Error listing resources: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	resources = session.FilterBySearch(resources, c.Query("q"))
	log.Printf("Successfully listed %d resources", len(resources))
	return c.JSON(resources)
}

// GetResource handles GET /resources/:id to retrieve a single resource.
// @Summary Get a resource by ID
// @Tags resources
// @Accept json
// @Produce json
// @Param id path int true "Resource ID"
// @Success 200 {object} models.Resource "Resource found"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 404 {object} map[string]interface{} "Resource not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources/{id} [get]
func (h *ResourceHandler) GetResource(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidIDError,
		})
	}
	resource, err := h.Service.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": ResourceNotFoundError,
			})
		}
		log.Printf("Error fetching resource: ID=%d, Error=%v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return c.JSON(resource)
}

// CreateResource handles POST /resources to insert a new resource.
// @Summary Create a resource
// @Description Creates a resource; status defaults to active, geometry is required
// @Tags resources
// @Accept json
// @Produce json
// @Param resource body services.CreateResourceInput true "Resource fields"
// @Success 201 {object} models.Resource "Created resource"
// @Failure 400 {object} map[string]interface{} "Validation failure"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources [post]
func (h *ResourceHandler) CreateResource(c *fiber.Ctx) error {
	var input services.CreateResourceInput
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body: " + err.Error(),
		})
	}
	resource, err := h.Service.Create(input)
	if err != nil {
		log.Printf("Resource creation failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully created resource: ID=%d, Name=%s", resource.ID, resource.Name)
	return c.Status(fiber.StatusCreated).JSON(resource)
}

type updateResourceRequest struct {
	Name       *string         `json:"name"`
	Type       *string         `json:"type"`
	Status     *string         `json:"status"`
	Properties json.RawMessage `json:"properties"`
	Geometry   *geo.Geometry   `json:"geometry"`
}

// UpdateResource handles PATCH /resources/:id with sparse update
// semantics: omitted fields stay untouched, an explicit null property bag
// clears it.
// @Summary Update a resource
// @Description Applies a partial update; omitted fields are left unchanged
// @Tags resources
// @Accept json
// @Produce json
// @Param id path int true "Resource ID"
// @Param update body object true "Fields to change"
// @Success 200 {object} models.Resource "Updated resource"
// @Failure 400 {object} map[string]interface{} "Invalid ID or validation failure"
// @Failure 404 {object} map[string]interface{} "Resource not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources/{id} [patch]
func (h *ResourceHandler) UpdateResource(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidIDError,
		})
	}
	var req updateResourceRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body: " + err.Error(),
		})
	}
	resource, err := h.Service.Update(id, repository.ResourceUpdate{
		Name:       req.Name,
		Type:       req.Type,
		Status:     req.Status,
		Properties: req.Properties,
		Geometry:   req.Geometry,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": ResourceNotFoundError,
			})
		}
		log.Printf("Error updating resource: ID=%d, Error=%v", id, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully updated resource: ID=%d", id)
	return c.JSON(resource)
}

// DeleteResource handles DELETE /resources/:id. Work orders cascade.
// @Summary Delete a resource
// @Description Deletes a resource and cascades deletion of its work orders
// @Tags resources
// @Accept json
// @Produce json
// @Param id path int true "Resource ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 404 {object} map[string]interface{} "Resource not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources/{id} [delete]
func (h *ResourceHandler) DeleteResource(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidIDError,
		})
	}
	if err := h.Service.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": ResourceNotFoundError,
			})
		}
		log.Printf("Error deleting resource: ID=%d, Error=%v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully deleted resource: ID=%d", id)
	return c.SendStatus(fiber.StatusNoContent)
}

// ExportCSV handles GET /resources/export to download the current feature
// set as CSV.
// @Summary Export resources as CSV
// @Description One row per feature with fixed columns plus one column per distinct property key
// @Tags resources
// @Accept json
// @Produce text/csv
// @Param type query string false "Resource type filter"
// @Param status query string false "Resource status filter"
// @Param q query string false "Free-text search"
// @Success 200 {file} file "CSV export"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources/export [get]
func (h *ResourceHandler) ExportCSV(c *fiber.Ctx) error {
	filter := repository.ResourceFilter{Type: c.Query("type"), Status: c.Query("status")}
	resources, err := h.Service.List(filter)
	if err != nil {
		log.Printf("Error listing resources for export: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	resources = session.FilterBySearch(resources, c.Query("q"))

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="resources.csv"`)
	if err := export.WriteCSV(c.Response().BodyWriter(), resources); err != nil {
		log.Printf("CSV export failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return nil
}
