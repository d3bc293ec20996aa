package session

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
)

// Filter is the active listing predicate: server-side type/status equality
// filters plus a client-side free-text search.
type Filter struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

// SetFilter replaces the active filter and refreshes under it.
func (s *Session) SetFilter(ctx context.Context, f Filter) error {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh fetches the authoritative resource set under the active filter,
// narrows it with the free-text search, replaces the snapshot atomically
// and re-derives the selection highlight. Invoked on demand and on every
// change notification regardless of the current mode. When two refreshes
// overlap, the last response to arrive wins, even if it was sent first.
func (s *Session) Refresh(ctx context.Context) error {
	start := time.Now()
	s.mu.Lock()
	f := s.filter
	s.mu.Unlock()

	resources, err := s.resources.List(repository.ResourceFilter{Type: f.Type, Status: f.Status})
	if err != nil {
		s.metrics.RefreshTotal.WithLabelValues("error").Inc()
		return errors.Wrap(err, "refresh failed")
	}
	resources = FilterBySearch(resources, f.Search)

	s.mu.Lock()
	snap := s.registry.Replace(resources)
	s.surface.ApplySnapshot(snap)
	if s.selection != nil {
		// Recomputed by kind and id; if the id vanished from the snapshot
		// the filter simply matches nothing. The selection itself survives.
		s.surface.SetHighlight(s.selection.Kind, s.selection.ID)
	}
	s.mu.Unlock()

	s.metrics.RefreshTotal.WithLabelValues("ok").Inc()
	s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	s.metrics.SnapshotFeatures.Set(float64(len(resources)))
	return nil
}

// FilterBySearch narrows resources to those matching the free-text search.
func FilterBySearch(resources []models.Resource, query string) []models.Resource {
	if query == "" {
		return resources
	}
	matched := make([]models.Resource, 0, len(resources))
	for _, r := range resources {
		if MatchesSearch(r, query) {
			matched = append(matched, r)
		}
	}
	return matched
}

// MatchesSearch reports whether the query is a case-insensitive substring
// of the resource's name, type, status or serialized property bag.
func MatchesSearch(r models.Resource, query string) bool {
	if query == "" {
		return true
	}
	haystack := strings.ToLower(r.Name + " " + r.Type + " " + r.Status + " " + string(r.Properties))
	return strings.Contains(haystack, strings.ToLower(query))
}
