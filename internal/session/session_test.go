package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/services"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/session"
)

type geometryCall struct {
	ID       int64
	Geometry geo.Geometry
}

type fakeResources struct {
	mu        sync.Mutex
	resources []models.Resource
	listFn    func(repository.ResourceFilter) ([]models.Resource, error)
	geomCalls []geometryCall
	creates   []services.CreateResourceInput
	deletes   []int64
	nextID    int64
}

func (f *fakeResources) List(filter repository.ResourceFilter) ([]models.Resource, error) {
	if f.listFn != nil {
		return f.listFn(filter)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Resource, len(f.resources))
	copy(out, f.resources)
	return out, nil
}

func (f *fakeResources) Create(input services.CreateResourceInput) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, input)
	f.nextID++
	r := models.Resource{
		ID: f.nextID, Name: input.Name, Type: input.Type,
		Status: input.Status, Geometry: input.Geometry,
	}
	f.resources = append(f.resources, r)
	return &r, nil
}

func (f *fakeResources) UpdateGeometry(id int64, g geo.Geometry) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.resources {
		if f.resources[i].ID == id {
			f.resources[i].Geometry = g
			f.geomCalls = append(f.geomCalls, geometryCall{ID: id, Geometry: g})
			r := f.resources[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("resource %d not found", id)
}

func (f *fakeResources) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	kept := f.resources[:0]
	for _, r := range f.resources {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.resources = kept
	return nil
}

type uploadCall struct {
	ResourceID int64
	Count      int
}

type fakeAttachments struct {
	mu      sync.Mutex
	views   map[int64][]services.AttachmentView
	uploads []uploadCall
	err     error
}

func (f *fakeAttachments) List(resourceID int64) ([]services.AttachmentView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[resourceID], nil
}

func (f *fakeAttachments) UploadBatch(ctx context.Context, resourceID int64, files []services.IncomingFile) ([]models.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadCall{ResourceID: resourceID, Count: len(files)})
	if f.err != nil {
		return nil, f.err
	}
	saved := make([]models.Attachment, len(files))
	return saved, nil
}

type fakeWorkOrders struct {
	mu     sync.Mutex
	orders []models.WorkOrder
}

func (f *fakeWorkOrders) List() ([]models.WorkOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WorkOrder, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func pointResource(id int64, name string, lon, lat float64) models.Resource {
	return models.Resource{
		ID: id, Name: name, Type: models.TypeVehicle,
		Status: models.StatusActive, Geometry: geo.NewPoint(lon, lat),
	}
}

func polygonResource(id int64, name string) models.Resource {
	return models.Resource{
		ID: id, Name: name, Type: models.TypeGeofence, Status: models.StatusActive,
		Geometry: geo.Geometry{
			Type:    geo.KindPolygon,
			Polygon: [][][]float64{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}},
		},
	}
}

func newTestSession(t *testing.T, resources ...models.Resource) (*session.Session, *fakeResources, *session.HeadlessCanvas) {
	t.Helper()
	res := &fakeResources{resources: resources, nextID: 100}
	canvas := session.NewHeadlessCanvas()
	s := session.New(session.Config{
		Resources:   res,
		Attachments: &fakeAttachments{},
		WorkOrders:  &fakeWorkOrders{},
		Canvas:      canvas,
	})
	require.NoError(t, s.Refresh(context.Background()))
	return s, res, canvas
}

func TestModesAreMutuallyExclusive(t *testing.T) {
	s, _, _ := newTestSession(t)

	require.NoError(t, s.Enter(session.ModeCreatePoint))
	s.BackgroundClick(10, 20)
	assert.Equal(t, "10.000000", s.View().StagedLon)

	// Entering another create mode tears the first one down, staged
	// location included.
	require.NoError(t, s.Enter(session.ModeCreateGeofenceDraw))
	assert.Equal(t, session.ModeCreateGeofenceDraw, s.Mode())
	assert.Empty(t, s.View().StagedLon)
}

func TestEnterRejectsUnknownMode(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.Error(t, s.Enter(session.Mode("warp")))
	assert.Equal(t, session.ModeIdle, s.Mode())
}

func TestMoveRequiresSelectedPoint(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t, pointResource(1, "truck", 5, 5), polygonResource(2, "yard"))

	assert.Error(t, s.Enter(session.ModeMovePick), "no selection")

	require.NoError(t, s.Select(ctx, 2, geo.KindPolygon))
	assert.Error(t, s.Enter(session.ModeMovePick), "polygon selection")

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	assert.NoError(t, s.Enter(session.ModeMovePick))
}

func TestRefusedEntryKeepsCurrentMode(t *testing.T) {
	s, _, _ := newTestSession(t)
	require.NoError(t, s.Enter(session.ModeCreatePoint))
	s.BackgroundClick(10, 20)

	require.Error(t, s.Enter(session.ModeMovePick))
	assert.Equal(t, session.ModeCreatePoint, s.Mode())
	assert.Equal(t, "10.000000", s.View().StagedLon)
}

func TestEditVerticesRequiresShape(t *testing.T) {
	ctx := context.Background()
	s, _, canvas := newTestSession(t, pointResource(1, "truck", 5, 5), polygonResource(2, "yard"))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	assert.Error(t, s.Enter(session.ModeEditVertices))

	require.NoError(t, s.Select(ctx, 2, geo.KindPolygon))
	require.NoError(t, s.Enter(session.ModeEditVertices))
	overlay, ok := canvas.OverlayGeometry()
	require.True(t, ok)
	assert.Equal(t, geo.KindPolygon, overlay.Type)
}

func TestSelectionHighlightIsExclusive(t *testing.T) {
	ctx := context.Background()
	s, _, canvas := newTestSession(t, pointResource(1, "truck", 5, 5), polygonResource(2, "yard"))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	assert.Equal(t, int64(1), canvas.HighlightFilter(geo.KindPoint))
	assert.Equal(t, session.NoSelectionID, canvas.HighlightFilter(geo.KindLineString))
	assert.Equal(t, session.NoSelectionID, canvas.HighlightFilter(geo.KindPolygon))

	require.NoError(t, s.Select(ctx, 2, geo.KindPolygon))
	assert.Equal(t, session.NoSelectionID, canvas.HighlightFilter(geo.KindPoint))
	assert.Equal(t, int64(2), canvas.HighlightFilter(geo.KindPolygon))
}

func TestSelectForceCancelsActiveMode(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t, pointResource(1, "truck", 5, 5), polygonResource(2, "yard"))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	require.NoError(t, s.Enter(session.ModeMoveDrag))

	require.NoError(t, s.Select(ctx, 2, geo.KindPolygon))
	assert.Equal(t, session.ModeIdle, s.Mode())
}

func TestBackgroundClickOnlyStagesInPickModes(t *testing.T) {
	s, _, canvas := newTestSession(t)

	s.BackgroundClick(10, 20)
	assert.Empty(t, s.View().StagedLon, "idle clicks stage nothing")

	require.NoError(t, s.Enter(session.ModeCreatePoint))
	s.BackgroundClick(10.1234567, 20.7654321)
	v := s.View()
	assert.Equal(t, "10.123457", v.StagedLon)
	assert.Equal(t, "20.765432", v.StagedLat)
	_, _, shown := canvas.HandlePosition()
	assert.False(t, shown, "create mode has no drag handle")
}

func TestFeatureClickSuppressedDuringCreateAndDrag(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t, pointResource(1, "truck", 5, 5))

	require.NoError(t, s.Enter(session.ModeCreatePoint))
	require.NoError(t, s.FeatureClick(ctx, 1, geo.KindPoint))
	assert.Nil(t, s.Selection())
	assert.Equal(t, session.ModeCreatePoint, s.Mode())

	s.Cancel()
	require.NoError(t, s.FeatureClick(ctx, 1, geo.KindPoint))
	require.NotNil(t, s.Selection())
	assert.Equal(t, int64(1), s.Selection().ID)
}

func TestHandleDragPromotesPickToDrag(t *testing.T) {
	ctx := context.Background()
	s, _, canvas := newTestSession(t, pointResource(1, "truck", 5, 5))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	require.NoError(t, s.Enter(session.ModeMovePick))

	s.HandleDragged(6.5, 7.5)
	assert.Equal(t, session.ModeMoveDrag, s.Mode())
	lon, lat, shown := canvas.HandlePosition()
	require.True(t, shown)
	assert.Equal(t, 6.5, lon)
	assert.Equal(t, 7.5, lat)
}

func TestCancelRestoresPersistedCoordinates(t *testing.T) {
	ctx := context.Background()
	s, _, canvas := newTestSession(t, pointResource(1, "truck", 5.25, 6.75))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	require.NoError(t, s.Enter(session.ModeMoveDrag))
	s.SetStagedCoordinates("99", "99")

	s.Cancel()
	v := s.View()
	assert.Equal(t, session.ModeIdle, v.Mode)
	assert.Equal(t, "5.250000", v.StagedLon)
	assert.Equal(t, "6.750000", v.StagedLat)
	_, _, shown := canvas.HandlePosition()
	assert.False(t, shown)
}

func TestCommitMoveSendsGeometryOnly(t *testing.T) {
	ctx := context.Background()
	s, res, _ := newTestSession(t, pointResource(1, "truck", 5, 5))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	require.NoError(t, s.Enter(session.ModeMovePick))
	s.BackgroundClick(30.5, 10.25)

	require.NoError(t, s.CommitMove(ctx))
	require.Len(t, res.geomCalls, 1)
	assert.Equal(t, int64(1), res.geomCalls[0].ID)
	assert.Equal(t, geo.NewPoint(30.5, 10.25), res.geomCalls[0].Geometry)
	assert.Equal(t, session.ModeIdle, s.Mode())
}

func TestCommitMoveRejectsUnparseableInput(t *testing.T) {
	ctx := context.Background()
	s, res, _ := newTestSession(t, pointResource(1, "truck", 5, 5))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	require.NoError(t, s.Enter(session.ModeMovePick))
	s.SetStagedCoordinates("not-a-number", "10")

	assert.Error(t, s.CommitMove(ctx))
	assert.Empty(t, res.geomCalls, "nothing submitted on parse failure")
	assert.Equal(t, session.ModeMovePick, s.Mode(), "session stays open for correction")
}

func TestCommitVertexEditReadsOverlay(t *testing.T) {
	ctx := context.Background()
	s, res, canvas := newTestSession(t, polygonResource(2, "yard"))

	require.NoError(t, s.Select(ctx, 2, geo.KindPolygon))
	require.NoError(t, s.Enter(session.ModeEditVertices))

	edited := geo.Geometry{
		Type:    geo.KindPolygon,
		Polygon: [][][]float64{{{0, 0}, {0, 2}, {2, 2}, {0, 0}}},
	}
	canvas.EditOverlay(edited)

	require.NoError(t, s.CommitVertexEdit(ctx))
	require.Len(t, res.geomCalls, 1)
	assert.Equal(t, edited, res.geomCalls[0].Geometry)
	assert.Equal(t, session.ModeIdle, s.Mode())
	_, ok := canvas.OverlayGeometry()
	assert.False(t, ok, "overlay cleared after commit")
}

func TestCreatePointResourceDefaults(t *testing.T) {
	ctx := context.Background()
	s, res, _ := newTestSession(t)

	require.NoError(t, s.Enter(session.ModeCreatePoint))
	s.BackgroundClick(12.5, -3.25)
	require.NoError(t, s.CreatePointResource(ctx))

	require.Len(t, res.creates, 1)
	created := res.creates[0]
	assert.Equal(t, models.TypeSite, created.Type)
	assert.Contains(t, created.Name, "Site ")
	assert.Equal(t, geo.NewPoint(12.5, -3.25), created.Geometry)
	assert.Equal(t, session.ModeIdle, s.Mode())
}

func TestCreatePointRequiresPickedLocation(t *testing.T) {
	ctx := context.Background()
	s, res, _ := newTestSession(t)

	require.NoError(t, s.Enter(session.ModeCreatePoint))
	assert.Error(t, s.CreatePointResource(ctx))
	assert.Empty(t, res.creates)
}

func TestFinishDrawUsesModeType(t *testing.T) {
	ctx := context.Background()
	s, res, _ := newTestSession(t)

	require.NoError(t, s.Enter(session.ModeCreateRouteDraw))
	drawn := geo.Geometry{Type: geo.KindLineString, Line: [][]float64{{0, 0}, {1, 1}, {2, 0}}}
	require.NoError(t, s.FinishDraw(ctx, drawn))

	require.Len(t, res.creates, 1)
	assert.Equal(t, models.TypeRoute, res.creates[0].Type)
	assert.Equal(t, drawn, res.creates[0].Geometry)
}

func TestFinishDrawSurfacesPartialUploadFailure(t *testing.T) {
	ctx := context.Background()
	res := &fakeResources{nextID: 100}
	att := &fakeAttachments{err: fmt.Errorf("object store unavailable")}
	s := session.New(session.Config{
		Resources:   res,
		Attachments: att,
		WorkOrders:  &fakeWorkOrders{},
	})
	require.NoError(t, s.Refresh(ctx))

	require.NoError(t, s.Enter(session.ModeCreateGeofenceDraw))
	s.StageFiles([]services.IncomingFile{{Filename: "fence.jpg"}})
	drawn := geo.Geometry{
		Type:    geo.KindPolygon,
		Polygon: [][][]float64{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}},
	}

	err := s.FinishDraw(ctx, drawn)
	require.Error(t, err, "resource creation succeeds but the upload failure is reported")
	assert.Len(t, res.creates, 1)
	assert.Len(t, att.uploads, 1)
}

func TestRefreshPartitionsSources(t *testing.T) {
	s, _, canvas := newTestSession(t, pointResource(1, "truck", 5, 5), polygonResource(2, "yard"))

	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, canvas.Source(session.SourcePoints).Features, 1)
	assert.Len(t, canvas.Source(session.SourceShapes).Features, 1)
	v := s.View()
	assert.Equal(t, 1, v.PointCount)
	assert.Equal(t, 1, v.ShapeCount)
}

func TestOverlappingRefreshesLastResponseWins(t *testing.T) {
	ctx := context.Background()
	calls := make(chan chan []models.Resource, 2)
	res := &fakeResources{
		listFn: func(repository.ResourceFilter) ([]models.Resource, error) {
			ch := make(chan []models.Resource)
			calls <- ch
			return <-ch, nil
		},
	}
	s := session.New(session.Config{
		Resources:   res,
		Attachments: &fakeAttachments{},
		WorkOrders:  &fakeWorkOrders{},
	})

	first := make(chan error, 1)
	second := make(chan error, 1)
	go func() { first <- s.Refresh(ctx) }()
	firstCall := <-calls
	go func() { second <- s.Refresh(ctx) }()
	secondCall := <-calls

	// The refresh issued second completes first with fresh data; the stale
	// response lands afterwards and overwrites it.
	secondCall <- []models.Resource{pointResource(1, "fresh", 1, 1), pointResource(2, "fresh", 2, 2)}
	require.NoError(t, <-second)
	assert.Len(t, s.Snapshot().Resources, 2)

	firstCall <- []models.Resource{pointResource(1, "stale", 1, 1)}
	require.NoError(t, <-first)
	assert.Len(t, s.Snapshot().Resources, 1, "stale response replaced the fresh snapshot")
}

func TestSetFilterNarrowsByTextSearch(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t,
		pointResource(1, "North Depot", 5, 5),
		pointResource(2, "South Depot", 6, 6),
		polygonResource(3, "Yard"),
	)

	require.NoError(t, s.SetFilter(ctx, session.Filter{Search: "north"}))
	snap := s.Snapshot()
	require.Len(t, snap.Resources, 1)
	assert.Equal(t, "North Depot", snap.Resources[0].Name)

	require.NoError(t, s.SetFilter(ctx, session.Filter{}))
	assert.Len(t, s.Snapshot().Resources, 3)
}

func TestDeleteSelectedClearsSelectionAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s, res, canvas := newTestSession(t, pointResource(1, "truck", 5, 5))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	require.NoError(t, s.DeleteSelected(ctx))

	assert.Equal(t, []int64{1}, res.deletes)
	assert.Nil(t, s.Selection())
	assert.Empty(t, s.Snapshot().Resources)
	assert.Equal(t, session.NoSelectionID, canvas.HighlightFilter(geo.KindPoint))
}

func TestSelectZoomsToFeature(t *testing.T) {
	ctx := context.Background()
	s, _, canvas := newTestSession(t, pointResource(1, "truck", 10, 20))

	require.NoError(t, s.Select(ctx, 1, geo.KindPoint))
	vp := canvas.Viewport()
	assert.Less(t, vp.MinLon, 10.0)
	assert.Greater(t, vp.MaxLon, 10.0)
	assert.Less(t, vp.MinLat, 20.0)
	assert.Greater(t, vp.MaxLat, 20.0)
}

func TestMatchesSearch(t *testing.T) {
	r := models.Resource{
		Name: "North Depot", Type: models.TypeSite, Status: models.StatusActive,
		Properties: []byte(`{"region":"alpine"}`),
	}
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"empty query matches", "", true},
		{"name substring", "depot", true},
		{"type", "site", true},
		{"status", "ACTIVE", true},
		{"property bag value", "alpine", true},
		{"no match", "harbor", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.MatchesSearch(r, tt.query))
		})
	}
}
