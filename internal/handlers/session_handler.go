package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/session"
)

// SessionHandler exposes the server-held interaction session: the current
// snapshot split into point and shape layers, the observable session state
// and the active filter.
type SessionHandler struct {
	Session *session.Session
}

// NewSessionHandler creates a new SessionHandler around the given session.
func NewSessionHandler(s *session.Session) *SessionHandler {
	return &SessionHandler{Session: s}
}

// GetSnapshot handles GET /snapshot, returning the current feature
// snapshot as two GeoJSON collections.
// @Summary Current feature snapshot
// @Description Point features and non-point features of the latest completed refresh
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "points and shapes feature collections"
// @Router /snapshot [get]
func (h *SessionHandler) GetSnapshot(c *fiber.Ctx) error {
	snap := h.Session.Snapshot()
	return c.JSON(fiber.Map{
		"taken_at": snap.TakenAt,
		"points":   snap.Points,
		"shapes":   snap.Others,
	})
}

// GetState handles GET /state, returning the observable session state.
// @Summary Current session state
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} session.View "Mode, selection, staged coordinates and filter"
// @Router /state [get]
func (h *SessionHandler) GetState(c *fiber.Ctx) error {
	return c.JSON(h.Session.View())
}

// SetFilter handles PUT /state/filter, replacing the active filter and
// refreshing under it.
// @Summary Replace the active filter
// @Description Sets type/status/search filters and triggers a refresh
// @Tags session
// @Accept json
// @Produce json
// @Param filter body session.Filter true "New filter"
// @Success 200 {object} session.View "Session state after the refresh"
// @Failure 400 {object} map[string]interface{} "Invalid request body"
// @Failure 502 {object} map[string]interface{} "Refresh failed"
// @Router /state/filter [put]
func (h *SessionHandler) SetFilter(c *fiber.Ctx) error {
	var f session.Filter
	if err := json.Unmarshal(c.Body(), &f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body: " + err.Error(),
		})
	}
	if err := h.Session.SetFilter(c.Context(), f); err != nil {
		log.Printf("Filtered refresh failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return c.JSON(h.Session.View())
}

// Refresh handles POST /refresh, forcing a re-sync against the store.
// @Summary Force a refresh
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} session.View "Session state after the refresh"
// @Failure 502 {object} map[string]interface{} "Refresh failed"
// @Router /refresh [post]
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	if err := h.Session.Refresh(c.Context()); err != nil {
		log.Printf("Manual refresh failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return c.JSON(h.Session.View())
}
