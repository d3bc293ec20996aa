package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
)

// CommitMove sends a geometry-only update for the selected point resource
// using the staged coordinates, then re-syncs. Staged strings that fail
// numeric parsing reject the commit before any network call.
func (s *Session) CommitMove(ctx context.Context) error {
	s.mu.Lock()
	if !s.mode.IsMove() {
		s.mu.Unlock()
		return fmt.Errorf("no move in progress")
	}
	if s.selection == nil || s.selection.Kind != geo.KindPoint {
		s.mu.Unlock()
		return fmt.Errorf("no point resource selected")
	}
	id := s.selection.ID
	lonStr, latStr := s.staged.Lon, s.staged.Lat
	s.mu.Unlock()

	lon, err := geo.ParseCoord(lonStr)
	if err != nil {
		return err
	}
	lat, err := geo.ParseCoord(latStr)
	if err != nil {
		return err
	}

	if _, err := s.resources.UpdateGeometry(id, geo.NewPoint(lon, lat)); err != nil {
		return err
	}
	s.Cancel()
	return s.Refresh(ctx)
}

// CommitVertexEdit reads the edited geometry back from the overlay, sends
// a geometry-only update for the selected resource and re-syncs.
func (s *Session) CommitVertexEdit(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != ModeEditVertices {
		s.mu.Unlock()
		return fmt.Errorf("no vertex edit in progress")
	}
	if s.selection == nil {
		s.mu.Unlock()
		return fmt.Errorf("no resource selected")
	}
	id := s.selection.ID
	edited, ok := s.surface.canvas.OverlayGeometry()
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("edit overlay is empty")
	}
	if err := edited.Validate(); err != nil {
		return fmt.Errorf("invalid geometry: %v", err)
	}

	if _, err := s.resources.UpdateGeometry(id, edited); err != nil {
		return err
	}
	s.Cancel()
	return s.Refresh(ctx)
}

// CreatePointResource inserts a new point resource from the staged
// coordinates and the current draft, uploads any staged files against the
// new id, then re-syncs.
func (s *Session) CreatePointResource(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != ModeCreatePoint {
		s.mu.Unlock()
		return fmt.Errorf("not in point creation mode")
	}
	if !s.staged.Set {
		s.mu.Unlock()
		return fmt.Errorf("no location picked")
	}
	lonStr, latStr := s.staged.Lon, s.staged.Lat
	draft := s.draft
	s.mu.Unlock()

	lon, err := geo.ParseCoord(lonStr)
	if err != nil {
		return err
	}
	lat, err := geo.ParseCoord(latStr)
	if err != nil {
		return err
	}
	resourceType := draft.Type
	if resourceType == "" {
		resourceType = models.TypeSite
	}
	return s.finishCreate(ctx, draft, resourceType, geo.NewPoint(lon, lat))
}

// FinishDraw completes a create-by-draw session with the geometry the
// draw toolbar produced: the resource is inserted with the drawn geometry
// and the draft's fields, staged files are uploaded against the new id,
// and the view re-syncs.
func (s *Session) FinishDraw(ctx context.Context, drawn geo.Geometry) error {
	s.mu.Lock()
	mode := s.mode
	draft := s.draft
	s.mu.Unlock()

	var resourceType string
	switch mode {
	case ModeCreateGeofenceDraw:
		resourceType = models.TypeGeofence
	case ModeCreateRouteDraw:
		resourceType = models.TypeRoute
	default:
		return fmt.Errorf("no draw in progress")
	}
	if draft.Type != "" {
		resourceType = draft.Type
	}
	if err := drawn.Validate(); err != nil {
		return fmt.Errorf("invalid geometry: %v", err)
	}
	return s.finishCreate(ctx, draft, resourceType, drawn)
}

func (s *Session) finishCreate(ctx context.Context, draft Draft, resourceType string, g geo.Geometry) error {
	name := draft.Name
	if name == "" {
		name = defaultName(resourceType)
	}
	created, err := s.resources.Create(services.CreateResourceInput{
		Name:       name,
		Type:       resourceType,
		Status:     draft.Status,
		Properties: draft.Properties,
		Geometry:   g,
	})
	if err != nil {
		return err
	}

	var uploadErr error
	if len(draft.Files) > 0 {
		saved, err := s.attachments.UploadBatch(ctx, created.ID, draft.Files)
		if err != nil {
			// Partial success is surfaced, not hidden: the resource exists
			// and earlier files are committed.
			uploadErr = fmt.Errorf("resource created, %d of %d files uploaded: %v",
				len(saved), len(draft.Files), err)
			s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		} else {
			s.metrics.UploadsTotal.WithLabelValues("ok").Add(float64(len(saved)))
		}
	}

	s.Cancel()
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	return uploadErr
}

func defaultName(resourceType string) string {
	label := strings.ToUpper(resourceType[:1]) + resourceType[1:]
	return fmt.Sprintf("%s %s", label, time.Now().Format("2006-01-02 15:04"))
}
