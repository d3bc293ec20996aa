package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/metrics"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
)

// ResourceAPI is the persistence boundary the session consumes for
// resources.
type ResourceAPI interface {
	List(filter repository.ResourceFilter) ([]models.Resource, error)
	Create(input services.CreateResourceInput) (*models.Resource, error)
	UpdateGeometry(id int64, g geo.Geometry) (*models.Resource, error)
	Delete(id int64) error
}

// AttachmentAPI is the boundary for the per-selection attachment panel.
type AttachmentAPI interface {
	List(resourceID int64) ([]services.AttachmentView, error)
	UploadBatch(ctx context.Context, resourceID int64, files []services.IncomingFile) ([]models.Attachment, error)
}

// WorkOrderAPI is the boundary for the work order panel.
type WorkOrderAPI interface {
	List() ([]models.WorkOrder, error)
}

// Config wires a session's collaborators.
type Config struct {
	Resources   ResourceAPI
	Attachments AttachmentAPI
	WorkOrders  WorkOrderAPI
	Canvas      Canvas
	Metrics     *metrics.Set
}

// stagedCoords is the transient lon/lat a CreatePoint or Move mode holds,
// as display strings so unparseable manual input can invalidate a commit.
type stagedCoords struct {
	Lon, Lat string
	Set      bool
}

// Draft is the staged create-form data: the fields the next created
// resource will carry, plus files queued for upload against it.
type Draft struct {
	Name       string
	Type       string
	Status     string
	Properties []byte
	Files      []services.IncomingFile
}

// Session is the single owner of all interactive state: mode, selection,
// snapshot, staged edits and the side panels. All mutation goes through
// its methods; rendering reads projections.
type Session struct {
	mu        sync.Mutex
	mode      Mode
	selection *Selection
	filter    Filter
	staged    stagedCoords
	draft     Draft

	registry *Registry
	surface  *Surface

	resources   ResourceAPI
	attachments AttachmentAPI
	workorders  WorkOrderAPI
	metrics     *metrics.Set

	attachmentList []services.AttachmentView
	workOrderList  []models.WorkOrder
}

// New creates an idle session over the given collaborators.
func New(cfg Config) *Session {
	m := cfg.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	canvas := cfg.Canvas
	if canvas == nil {
		canvas = NewHeadlessCanvas()
	}
	return &Session{
		mode:        ModeIdle,
		registry:    NewRegistry(),
		surface:     NewSurface(canvas),
		resources:   cfg.Resources,
		attachments: cfg.Attachments,
		workorders:  cfg.WorkOrders,
		metrics:     m,
	}
}

// Registry exposes the snapshot registry for read-only consumers.
func (s *Session) Registry() *Registry { return s.registry }

// Enter transitions into a non-idle mode, implicitly cancelling whatever
// mode was active. Move modes require a Point selection, EditVertices a
// non-Point selection; a refused entry leaves the current mode untouched.
func (s *Session) Enter(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q", mode)
	}
	if mode == ModeIdle {
		s.cancelLocked()
		return nil
	}

	// Requirements are checked against the selection before the implicit
	// cancel so a refused entry does not tear down the active mode.
	var seed geo.Geometry
	switch {
	case mode.IsMove():
		if s.selection == nil || s.selection.Kind != geo.KindPoint {
			return fmt.Errorf("move requires a selected point resource")
		}
		res, ok := s.registry.Current().Find(s.selection.ID)
		if !ok {
			return fmt.Errorf("selected resource %d is not in the current view", s.selection.ID)
		}
		seed = res.Geometry
	case mode == ModeEditVertices:
		if s.selection == nil || s.selection.Kind == geo.KindPoint {
			return fmt.Errorf("vertex editing requires a selected line or polygon resource")
		}
		res, ok := s.registry.Current().Find(s.selection.ID)
		if !ok {
			return fmt.Errorf("selected resource %d is not in the current view", s.selection.ID)
		}
		seed = res.Geometry
	}

	s.cancelLocked()

	switch {
	case mode.IsCreate():
		s.clearSelectionLocked()
	case mode.IsMove():
		s.staged = stagedCoords{
			Lon: geo.FormatCoord(seed.Point[0]),
			Lat: geo.FormatCoord(seed.Point[1]),
			Set: true,
		}
		if mode == ModeMoveDrag {
			s.surface.canvas.ShowHandle(seed.Point[0], seed.Point[1])
		}
	case mode == ModeEditVertices:
		s.surface.canvas.ClearOverlay()
		s.surface.canvas.SeedOverlay(seed)
	}

	s.mode = mode
	s.metrics.ModeTransitions.WithLabelValues(string(mode)).Inc()
	return nil
}

// Cancel returns unconditionally to Idle, discarding all staged data and
// reverting visual affordances.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Abort is the global cancellation trigger: keyboard escape, panel close
// and the other abort sources all funnel here.
func (s *Session) Abort() { s.Cancel() }

func (s *Session) cancelLocked() {
	if s.mode.IsCreate() {
		s.draft = Draft{}
	}
	s.staged = stagedCoords{}
	// Staged coordinates revert to the selected resource's persisted
	// geometry so the coordinate fields show the last-synced position.
	if s.selection != nil && s.selection.Kind == geo.KindPoint {
		if res, ok := s.registry.Current().Find(s.selection.ID); ok {
			s.staged = stagedCoords{
				Lon: geo.FormatCoord(res.Geometry.Point[0]),
				Lat: geo.FormatCoord(res.Geometry.Point[1]),
			}
		}
	}
	s.surface.canvas.RemoveHandle()
	s.surface.canvas.ClearOverlay()
	if s.mode != ModeIdle {
		s.mode = ModeIdle
		s.metrics.ModeTransitions.WithLabelValues(string(ModeIdle)).Inc()
	}
}

// Select applies a new selection, force-cancelling any active move or edit
// mode first so no staged state points at the wrong resource, then loads
// the attachment panel for the new selection.
func (s *Session) Select(ctx context.Context, id int64, kind geo.GeometryKind) error {
	s.mu.Lock()
	if s.mode != ModeIdle {
		s.cancelLocked()
	}
	s.selection = &Selection{ID: id, Kind: kind}
	s.surface.SetHighlight(kind, id)
	if res, ok := s.registry.Current().Find(id); ok {
		s.surface.ZoomToFeature(res.Geometry)
		if kind == geo.KindPoint {
			s.staged = stagedCoords{
				Lon: geo.FormatCoord(res.Geometry.Point[0]),
				Lat: geo.FormatCoord(res.Geometry.Point[1]),
			}
		}
	}
	s.mu.Unlock()
	return s.LoadAttachments(ctx)
}

// ClearSelection drops the selection and closes the side panel.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelectionLocked()
}

func (s *Session) clearSelectionLocked() {
	s.selection = nil
	s.attachmentList = nil
	s.surface.ClearHighlight()
}

// Selection returns the current selection, or nil.
func (s *Session) Selection() *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil
	}
	sel := *s.selection
	return &sel
}

// Mode returns the active interaction mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// BackgroundClick interprets a click on empty map background. In
// CreatePoint and MovePick it stages the clicked coordinates; in every
// other mode it is a no-op.
func (s *Session) BackgroundClick(lon, lat float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.mode {
	case ModeCreatePoint:
		s.staged = stagedCoords{Lon: geo.FormatCoord(lon), Lat: geo.FormatCoord(lat), Set: true}
	case ModeMovePick:
		s.staged = stagedCoords{Lon: geo.FormatCoord(lon), Lat: geo.FormatCoord(lat), Set: true}
		s.surface.canvas.ShowHandle(geo.RoundCoord(lon), geo.RoundCoord(lat))
	}
}

// FeatureClick interprets a click on a rendered feature. Clicks resolve to
// a selection change only in Idle or MovePick; they are suppressed while
// create or drag modes are active.
func (s *Session) FeatureClick(ctx context.Context, id int64, kind geo.GeometryKind) error {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()
	if mode != ModeIdle && mode != ModeMovePick {
		return nil
	}
	return s.Select(ctx, id, kind)
}

// ClusterClick zooms to the cluster's expansion level rather than
// selecting.
func (s *Session) ClusterClick(clusterID int64) {
	s.surface.canvas.ExpandCluster(clusterID)
}

// HandleDragged stages the handle's new position while a move is in
// progress, promoting MovePick to MoveDrag.
func (s *Session) HandleDragged(lon, lat float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mode.IsMove() {
		return
	}
	if s.mode == ModeMovePick {
		s.mode = ModeMoveDrag
		s.metrics.ModeTransitions.WithLabelValues(string(ModeMoveDrag)).Inc()
	}
	s.staged = stagedCoords{Lon: geo.FormatCoord(lon), Lat: geo.FormatCoord(lat), Set: true}
	s.surface.canvas.ShowHandle(geo.RoundCoord(lon), geo.RoundCoord(lat))
}

// SetStagedCoordinates overrides the staged lon/lat with manually entered
// strings. Parsing happens at commit; malformed input rejects the commit
// instead of submitting malformed data.
func (s *Session) SetStagedCoordinates(lon, lat string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeCreatePoint && !s.mode.IsMove() {
		return
	}
	s.staged = stagedCoords{Lon: lon, Lat: lat, Set: true}
}

// SetDraft replaces the staged create-form fields.
func (s *Session) SetDraft(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
}

// StageFiles queues files for upload against the next created resource.
func (s *Session) StageFiles(files []services.IncomingFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Files = append(s.draft.Files, files...)
}

// Snapshot returns the latest completed snapshot. Safe to read without
// further locking; snapshots are never mutated after installation.
func (s *Session) Snapshot() *Snapshot {
	return s.registry.Current()
}

// View is the read-only projection rendering consumes.
type View struct {
	Mode       Mode       `json:"mode"`
	Selection  *Selection `json:"selection,omitempty"`
	StagedLon  string     `json:"staged_lon,omitempty"`
	StagedLat  string     `json:"staged_lat,omitempty"`
	Filter     Filter     `json:"filter"`
	PointCount int        `json:"point_count"`
	ShapeCount int        `json:"shape_count"`
}

// View returns a copy of the session's observable state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.registry.Current()
	v := View{
		Mode:       s.mode,
		StagedLon:  s.staged.Lon,
		StagedLat:  s.staged.Lat,
		Filter:     s.filter,
		PointCount: len(snap.Points.Features),
		ShapeCount: len(snap.Others.Features),
	}
	if s.selection != nil {
		sel := *s.selection
		v.Selection = &sel
	}
	return v
}
