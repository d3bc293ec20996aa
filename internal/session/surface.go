package session

import (
	"bytes"
	"encoding/json"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
)

// Surface adapts snapshots and selection state onto the canvas. It owns
// the two geometry sources and the three kind-specific highlight filters.
type Surface struct {
	canvas     Canvas
	lastPoints []byte
	lastShapes []byte
}

// NewSurface wraps a canvas.
func NewSurface(canvas Canvas) *Surface {
	return &Surface{canvas: canvas}
}

var highlightKinds = []geo.GeometryKind{geo.KindPoint, geo.KindLineString, geo.KindPolygon}

// ApplySnapshot pushes the snapshot's two partitions into their sources.
// Idempotent: a partition identical to the last applied one is not pushed
// again.
func (s *Surface) ApplySnapshot(snap *Snapshot) {
	if encoded, err := json.Marshal(snap.Points); err == nil && !bytes.Equal(encoded, s.lastPoints) {
		s.canvas.SetSourceData(SourcePoints, snap.Points)
		s.lastPoints = encoded
	}
	if encoded, err := json.Marshal(snap.Others); err == nil && !bytes.Equal(encoded, s.lastShapes) {
		s.canvas.SetSourceData(SourceShapes, snap.Others)
		s.lastShapes = encoded
	}
}

// SetHighlight rewrites the three highlight filters so that exactly the
// layer matching kind filters for id and the other two filter for the
// sentinel.
func (s *Surface) SetHighlight(kind geo.GeometryKind, id int64) {
	for _, k := range highlightKinds {
		if k == kind {
			s.canvas.SetHighlightFilter(k, id)
		} else {
			s.canvas.SetHighlightFilter(k, NoSelectionID)
		}
	}
}

// ClearHighlight resets all three highlight filters to the sentinel.
func (s *Surface) ClearHighlight() {
	for _, k := range highlightKinds {
		s.canvas.SetHighlightFilter(k, NoSelectionID)
	}
}

// ZoomToFeature pans the viewport to a geometry's extent with a margin.
func (s *Surface) ZoomToFeature(g geo.Geometry) {
	s.canvas.ZoomTo(geo.PadBounds(geo.GeometryBounds(g), 50))
}
