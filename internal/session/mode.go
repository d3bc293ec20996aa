package session

import "github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"

// Mode is the single active interaction state governing how map gestures
// are interpreted. Exactly one mode is active at a time.
type Mode string

const (
	ModeIdle               Mode = "idle"
	ModeCreatePoint        Mode = "create_point"
	ModeCreateGeofenceDraw Mode = "create_geofence_draw"
	ModeCreateRouteDraw    Mode = "create_route_draw"
	ModeMovePick           Mode = "move_pick"
	ModeMoveDrag           Mode = "move_drag"
	ModeEditVertices       Mode = "edit_vertices"
)

var validModes = map[Mode]bool{
	ModeIdle: true, ModeCreatePoint: true, ModeCreateGeofenceDraw: true,
	ModeCreateRouteDraw: true, ModeMovePick: true, ModeMoveDrag: true,
	ModeEditVertices: true,
}

// Valid reports whether m is a recognized interaction mode.
func (m Mode) Valid() bool { return validModes[m] }

// IsCreate reports whether m is one of the three creation modes, which
// clear the selection on entry.
func (m Mode) IsCreate() bool {
	return m == ModeCreatePoint || m == ModeCreateGeofenceDraw || m == ModeCreateRouteDraw
}

// IsMove reports whether m is one of the two move modes, which require a
// Point selection.
func (m Mode) IsMove() bool {
	return m == ModeMovePick || m == ModeMoveDrag
}

// Selection is the at-most-one selected feature: resource id plus its
// geometry kind.
type Selection struct {
	ID   int64            `json:"id"`
	Kind geo.GeometryKind `json:"kind"`
}
