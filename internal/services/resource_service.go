package services

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
)

// CreateResourceInput carries the fields of a resource insert. Status
// defaults to active when omitted; geometry is required.
type CreateResourceInput struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Properties json.RawMessage `json:"properties"`
	Geometry   geo.Geometry    `json:"geometry"`
}

// ResourceService validates and persists resource mutations. Validation
// failures are caught before any database call.
type ResourceService struct {
	Repo repository.ResourceRepository
}

// NewResourceService creates a new ResourceService with the given repository.
func NewResourceService(repo repository.ResourceRepository) *ResourceService {
	return &ResourceService{Repo: repo}
}

// List returns resources matching the server-side type/status filters.
func (s *ResourceService) List(filter repository.ResourceFilter) ([]models.Resource, error) {
	resources, err := s.Repo.List(filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list resources")
	}
	return resources, nil
}

// Get retrieves one resource by id.
func (s *ResourceService) Get(id int64) (*models.Resource, error) {
	return s.Repo.Get(id)
}

// Create validates and inserts a new resource. Coordinates are rounded to
// display precision before they are persisted.
func (s *ResourceService) Create(input CreateResourceInput) (*models.Resource, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if !models.ValidResourceType(input.Type) {
		return nil, fmt.Errorf("unknown resource type %q", input.Type)
	}
	status := input.Status
	if status == "" {
		status = models.StatusActive
	}
	if !models.ValidResourceStatus(status) {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	if len(input.Properties) > 0 && !json.Valid(input.Properties) {
		return nil, fmt.Errorf("properties must be valid JSON")
	}
	if err := input.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %v", err)
	}
	resource := &models.Resource{
		Name:       input.Name,
		Type:       input.Type,
		Status:     status,
		Properties: input.Properties,
		Geometry:   input.Geometry.Rounded(),
	}
	if err := s.Repo.Create(resource); err != nil {
		return nil, errors.Wrap(err, "failed to create resource")
	}
	return resource, nil
}

// Update validates and applies a sparse update; omitted fields stay
// untouched.
func (s *ResourceService) Update(id int64, update repository.ResourceUpdate) (*models.Resource, error) {
	if update.Name != nil && *update.Name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if update.Type != nil && !models.ValidResourceType(*update.Type) {
		return nil, fmt.Errorf("unknown resource type %q", *update.Type)
	}
	if update.Status != nil && !models.ValidResourceStatus(*update.Status) {
		return nil, fmt.Errorf("unknown status %q", *update.Status)
	}
	if update.Properties != nil && !json.Valid(update.Properties) {
		return nil, fmt.Errorf("properties must be valid JSON")
	}
	if update.Geometry != nil {
		if err := update.Geometry.Validate(); err != nil {
			return nil, fmt.Errorf("invalid geometry: %v", err)
		}
		rounded := update.Geometry.Rounded()
		update.Geometry = &rounded
	}
	resource, err := s.Repo.Update(id, update)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update resource")
	}
	return resource, nil
}

// UpdateGeometry sends a geometry-only sparse update, the commit path of
// move and vertex-edit sessions.
func (s *ResourceService) UpdateGeometry(id int64, g geo.Geometry) (*models.Resource, error) {
	return s.Update(id, repository.ResourceUpdate{Geometry: &g})
}

// Delete removes a resource; the store cascades its work orders.
func (s *ResourceService) Delete(id int64) error {
	if err := s.Repo.Delete(id); err != nil {
		return errors.Wrap(err, "failed to delete resource")
	}
	return nil
}
