package models

import (
	"encoding/json"
	"time"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
)

// Resource types. The conventional geometry kind per type (point types carry
// Point, geofence carries Polygon, route carries LineString) is a creation
// convention, not a schema constraint.
const (
	TypeSite      = "site"
	TypeVehicle   = "vehicle"
	TypeEquipment = "equipment"
	TypeCrew      = "crew"
	TypeGeofence  = "geofence"
	TypeRoute     = "route"
)

// Resource statuses.
const (
	StatusActive      = "active"
	StatusMaintenance = "maintenance"
	StatusOffline     = "offline"
)

var validResourceTypes = map[string]bool{
	TypeSite: true, TypeVehicle: true, TypeEquipment: true,
	TypeCrew: true, TypeGeofence: true, TypeRoute: true,
}

var validResourceStatuses = map[string]bool{
	StatusActive: true, StatusMaintenance: true, StatusOffline: true,
}

// ValidResourceType reports whether t is a recognized resource type.
func ValidResourceType(t string) bool { return validResourceTypes[t] }

// ValidResourceStatus reports whether s is a recognized resource status.
func ValidResourceStatus(s string) bool { return validResourceStatuses[s] }

// ConventionalKind returns the geometry kind the creation paths use for a
// resource type.
func ConventionalKind(resourceType string) geo.GeometryKind {
	switch resourceType {
	case TypeGeofence:
		return geo.KindPolygon
	case TypeRoute:
		return geo.KindLineString
	default:
		return geo.KindPoint
	}
}

// Resource is a tracked asset: identity, type, status, a free-form property
// bag and exactly one geometry.
type Resource struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string          `json:"name"`
	Type       string          `gorm:"index" json:"type"`
	Status     string          `gorm:"index" json:"status"`
	Properties json.RawMessage `gorm:"type:jsonb" json:"properties,omitempty"`
	Geometry   geo.Geometry    `gorm:"type:jsonb" json:"geometry"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Feature projects the resource into its GeoJSON feature for the map
// sources. The property bag, if present, rides under "properties".
func (r Resource) Feature() geo.Feature {
	props := map[string]any{
		"name":   r.Name,
		"type":   r.Type,
		"status": r.Status,
	}
	if len(r.Properties) > 0 {
		var bag any
		if err := json.Unmarshal(r.Properties, &bag); err == nil && bag != nil {
			props["properties"] = bag
		}
	}
	return geo.Feature{ID: r.ID, Geometry: r.Geometry, Properties: props}
}

// PropertyBag decodes the property bag into a map. Absent or null bags
// decode to an empty map.
func (r Resource) PropertyBag() map[string]any {
	bag := map[string]any{}
	if len(r.Properties) > 0 {
		_ = json.Unmarshal(r.Properties, &bag)
	}
	return bag
}
