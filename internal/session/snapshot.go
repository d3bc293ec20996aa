package session

import (
	"sync"
	"time"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
)

// Snapshot is the client's full in-memory copy of currently-visible
// resources, partitioned into the two renderable sources. A snapshot is
// immutable once built; refreshes build a new one and swap the pointer.
type Snapshot struct {
	Resources []models.Resource
	Points    geo.FeatureCollection
	Others    geo.FeatureCollection
	TakenAt   time.Time
}

// Find looks a resource up by id in the snapshot.
func (s *Snapshot) Find(id int64) (models.Resource, bool) {
	for _, r := range s.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return models.Resource{}, false
}

// Registry holds the current authoritative snapshot. Replacement is atomic:
// readers see either the old or the new complete snapshot, never a mix.
type Registry struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewRegistry creates a registry holding an empty snapshot.
func NewRegistry() *Registry {
	return &Registry{current: &Snapshot{TakenAt: time.Now()}}
}

// Replace discards the previous snapshot wholesale and installs one built
// from the given resources. Returns the new snapshot.
func (r *Registry) Replace(resources []models.Resource) *Snapshot {
	features := make([]geo.Feature, 0, len(resources))
	for _, res := range resources {
		features = append(features, res.Feature())
	}
	points, others := geo.Partition(features)
	snap := &Snapshot{
		Resources: resources,
		Points:    points,
		Others:    others,
		TakenAt:   time.Now(),
	}
	r.mu.Lock()
	r.current = snap
	r.mu.Unlock()
	return snap
}

// Current returns the current snapshot.
func (r *Registry) Current() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
