package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
)

type fakeResourceRepo struct {
	resources map[int64]models.Resource
	updates   []repository.ResourceUpdate
	nextID    int64
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: map[int64]models.Resource{}}
}

func (f *fakeResourceRepo) List(filter repository.ResourceFilter) ([]models.Resource, error) {
	var out []models.Resource
	for _, r := range f.resources {
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeResourceRepo) Get(id int64) (*models.Resource, error) {
	r, ok := f.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %d not found", id)
	}
	return &r, nil
}

func (f *fakeResourceRepo) Create(resource *models.Resource) error {
	f.nextID++
	resource.ID = f.nextID
	f.resources[resource.ID] = *resource
	return nil
}

func (f *fakeResourceRepo) Update(id int64, update repository.ResourceUpdate) (*models.Resource, error) {
	r, ok := f.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %d not found", id)
	}
	f.updates = append(f.updates, update)
	if update.Name != nil {
		r.Name = *update.Name
	}
	if update.Type != nil {
		r.Type = *update.Type
	}
	if update.Status != nil {
		r.Status = *update.Status
	}
	if update.Properties != nil {
		r.Properties = update.Properties
	}
	if update.Geometry != nil {
		r.Geometry = *update.Geometry
	}
	f.resources[id] = r
	return &r, nil
}

func (f *fakeResourceRepo) Delete(id int64) error {
	delete(f.resources, id)
	return nil
}

func TestCreateResourceValidation(t *testing.T) {
	svc := NewResourceService(newFakeResourceRepo())
	valid := CreateResourceInput{
		Name: "Depot", Type: models.TypeSite, Geometry: geo.NewPoint(10, 20),
	}

	tests := []struct {
		name    string
		mutate  func(*CreateResourceInput)
		wantErr string
	}{
		{"missing name", func(in *CreateResourceInput) { in.Name = "" }, "name is required"},
		{"unknown type", func(in *CreateResourceInput) { in.Type = "castle" }, "unknown resource type"},
		{"unknown status", func(in *CreateResourceInput) { in.Status = "sleeping" }, "unknown status"},
		{"invalid properties", func(in *CreateResourceInput) { in.Properties = []byte("{not json") }, "valid JSON"},
		{"invalid geometry", func(in *CreateResourceInput) { in.Geometry = geo.Geometry{Type: geo.KindPoint} }, "invalid geometry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Create(in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateResourceDefaultsAndRounds(t *testing.T) {
	repo := newFakeResourceRepo()
	svc := NewResourceService(repo)

	created, err := svc.Create(CreateResourceInput{
		Name: "Depot", Type: models.TypeSite,
		Geometry: geo.Geometry{Type: geo.KindPoint, Point: []float64{10.12345678, 20.98765432}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, created.Status)
	assert.Equal(t, []float64{10.123457, 20.987654}, created.Geometry.Point)
}

func TestUpdateResourceSparseValidation(t *testing.T) {
	repo := newFakeResourceRepo()
	repo.resources[1] = models.Resource{ID: 1, Name: "Depot", Type: models.TypeSite, Status: models.StatusActive}
	svc := NewResourceService(repo)

	empty := ""
	_, err := svc.Update(1, repository.ResourceUpdate{Name: &empty})
	require.Error(t, err)

	status := models.StatusOffline
	updated, err := svc.Update(1, repository.ResourceUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffline, updated.Status)
	assert.Equal(t, "Depot", updated.Name, "omitted fields untouched")
}

func TestUpdateGeometrySendsGeometryOnly(t *testing.T) {
	repo := newFakeResourceRepo()
	repo.resources[1] = models.Resource{ID: 1, Name: "Depot", Type: models.TypeSite, Status: models.StatusActive}
	svc := NewResourceService(repo)

	_, err := svc.UpdateGeometry(1, geo.NewPoint(30, 40))
	require.NoError(t, err)
	require.Len(t, repo.updates, 1)
	u := repo.updates[0]
	assert.Nil(t, u.Name)
	assert.Nil(t, u.Type)
	assert.Nil(t, u.Status)
	assert.Nil(t, u.Properties)
	require.NotNil(t, u.Geometry)
	assert.Equal(t, geo.NewPoint(30, 40), *u.Geometry)
}

func TestUpdateGeometryRejectsInvalid(t *testing.T) {
	repo := newFakeResourceRepo()
	repo.resources[1] = models.Resource{ID: 1, Name: "Depot"}
	svc := NewResourceService(repo)

	_, err := svc.UpdateGeometry(1, geo.Geometry{Type: geo.KindPoint, Point: []float64{200, 0}})
	require.Error(t, err)
	assert.Empty(t, repo.updates)
}
