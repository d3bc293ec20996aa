package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
)

const InvalidUUIDError = "invalid UUID format"
const AttachmentNotFoundError = "attachment not found"

// AttachmentHandler defines handlers for resource photo attachments.
type AttachmentHandler struct {
	Service *services.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler with the given
// AttachmentService.
func NewAttachmentHandler(service *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{Service: service}
}

// ListAttachments handles GET /resources/:id/attachments, newest first.
// @Summary List attachments for a resource
// @Tags attachments
// @Accept json
// @Produce json
// @Param id path int true "Resource ID"
// @Success 200 {array} services.AttachmentView "Attachments with public URLs"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources/{id}/attachments [get]
func (h *AttachmentHandler) ListAttachments(c *fiber.Ctx) error {
	resourceID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidIDError,
		})
	}
	views, err := h.Service.List(resourceID)
	if err != nil {
		log.Printf("Error listing attachments: ResourceID=%d, Error=%v", resourceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return c.JSON(views)
}

// UploadAttachments handles POST /resources/:id/attachments with a
// multipart batch under the "files" field. Files are stored one at a time;
// a failure stops the batch but keeps what already landed.
// @Summary Upload attachments
// @Description Accepts image files and zip archives of images; a failure partway through keeps earlier files
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Resource ID"
// @Param files formData file true "Image files or zip archives"
// @Success 201 {array} services.AttachmentView "Stored attachments"
// @Failure 400 {object} map[string]interface{} "Invalid ID or no files"
// @Failure 207 {object} map[string]interface{} "Partial success"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resources/{id}/attachments [post]
func (h *AttachmentHandler) UploadAttachments(c *fiber.Ctx) error {
	resourceID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidIDError,
		})
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid multipart form: " + err.Error(),
		})
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "no files provided",
		})
	}

	files := make([]services.IncomingFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			log.Printf("Error opening uploaded file %s: %v", header.Filename, err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": true, "message": "failed to read file " + header.Filename,
			})
		}
		defer f.Close()
		files = append(files, services.IncomingFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      f,
		})
	}

	saved, err := h.Service.UploadBatch(c.Context(), resourceID, files)
	if err != nil {
		log.Printf("Attachment upload stopped: ResourceID=%d, Saved=%d/%d, Error=%v",
			resourceID, len(saved), len(files), err)
		return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
			"error":    true,
			"message":  err.Error(),
			"uploaded": saved,
		})
	}
	log.Printf("Successfully uploaded %d attachments for resource %d", len(saved), resourceID)
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// DeleteAttachment handles DELETE /attachments/:id. The stored object is
// removed before the record; if object removal fails the record stays.
// @Summary Delete an attachment
// @Tags attachments
// @Accept json
// @Produce json
// @Param id path string true "Attachment UUID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Attachment not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) DeleteAttachment(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUUIDError,
		})
	}
	if err := h.Service.Delete(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": AttachmentNotFoundError,
			})
		}
		log.Printf("Error deleting attachment: ID=%s, Error=%v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully deleted attachment: ID=%s", id)
	return c.SendStatus(fiber.StatusNoContent)
}
