package session

import (
	"sync"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
)

// NoSelectionID is the sentinel highlight filter value. Resource ids are
// positive, so the sentinel never matches a real feature.
const NoSelectionID int64 = -1

// Renderable geometry sources. Points are clustered; lines and polygons
// render unclustered.
const (
	SourcePoints = "resource-points"
	SourceShapes = "resource-shapes"
)

// Canvas is the live map surface the adapter drives: two geometry sources,
// three kind-specific highlight filters, a draggable handle marker, an
// editable overlay and viewport control. Implementations are the actual
// renderer; the session only issues commands.
type Canvas interface {
	SetSourceData(source string, fc geo.FeatureCollection)
	SetHighlightFilter(kind geo.GeometryKind, id int64)
	ShowHandle(lon, lat float64)
	RemoveHandle()
	SeedOverlay(g geo.Geometry)
	OverlayGeometry() (geo.Geometry, bool)
	ClearOverlay()
	ZoomTo(b geo.Bounds)
	ExpandCluster(clusterID int64)
}

// HeadlessCanvas is a Canvas with no attached renderer. It retains the
// last state pushed into it, which serves server-side sessions and tests.
type HeadlessCanvas struct {
	mu       sync.Mutex
	sources  map[string]geo.FeatureCollection
	filters  map[geo.GeometryKind]int64
	handle   *[2]float64
	overlay  *geo.Geometry
	viewport geo.Bounds
}

// NewHeadlessCanvas creates an empty headless canvas with all highlight
// filters at the sentinel.
func NewHeadlessCanvas() *HeadlessCanvas {
	return &HeadlessCanvas{
		sources: map[string]geo.FeatureCollection{},
		filters: map[geo.GeometryKind]int64{
			geo.KindPoint:      NoSelectionID,
			geo.KindLineString: NoSelectionID,
			geo.KindPolygon:    NoSelectionID,
		},
	}
}

func (c *HeadlessCanvas) SetSourceData(source string, fc geo.FeatureCollection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[source] = fc
}

func (c *HeadlessCanvas) SetHighlightFilter(kind geo.GeometryKind, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters[kind] = id
}

func (c *HeadlessCanvas) ShowHandle(lon, lat float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handle = &[2]float64{lon, lat}
}

func (c *HeadlessCanvas) RemoveHandle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handle = nil
}

func (c *HeadlessCanvas) SeedOverlay(g geo.Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = &g
}

func (c *HeadlessCanvas) OverlayGeometry() (geo.Geometry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay == nil {
		return geo.Geometry{}, false
	}
	return *c.overlay, true
}

func (c *HeadlessCanvas) ClearOverlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = nil
}

func (c *HeadlessCanvas) ZoomTo(b geo.Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = b
}

func (c *HeadlessCanvas) ExpandCluster(clusterID int64) {}

// EditOverlay replaces the overlay content the way a draw toolbar edit
// would, so vertex-edit commits have something to read back.
func (c *HeadlessCanvas) EditOverlay(g geo.Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay = &g
}

// Source returns the last feature collection applied to a source.
func (c *HeadlessCanvas) Source(source string) geo.FeatureCollection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sources[source]
}

// HighlightFilter returns the current filter id for a geometry kind.
func (c *HeadlessCanvas) HighlightFilter(kind geo.GeometryKind) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters[kind]
}

// HandlePosition returns the drag handle position, if shown.
func (c *HeadlessCanvas) HandlePosition() (lon, lat float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return 0, 0, false
	}
	return c.handle[0], c.handle[1], true
}

// Viewport returns the last bounds the canvas was zoomed to.
func (c *HeadlessCanvas) Viewport() geo.Bounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}
