package geo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GeometryKind identifies the GeoJSON geometry type of a feature.
type GeometryKind string

const (
	KindPoint      GeometryKind = "Point"
	KindLineString GeometryKind = "LineString"
	KindPolygon    GeometryKind = "Polygon"
)

// CoordPrecision is the number of decimal digits coordinates are displayed
// and round-tripped at (~0.11 m at the equator).
const CoordPrecision = 6

// Geometry is a GeoJSON geometry restricted to the three kinds the system
// tracks. Coordinates are lon-lat order, WGS84. Exactly one of the
// coordinate fields is populated, matching Type.
type Geometry struct {
	Type    GeometryKind
	Point   []float64     // [lon, lat]
	Line    [][]float64   // [[lon, lat], ...]
	Polygon [][][]float64 // [ring, ...], first ring is the outer boundary
}

type geometryWire struct {
	Type        GeometryKind    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPoint builds a Point geometry rounded to CoordPrecision.
func NewPoint(lon, lat float64) Geometry {
	return Geometry{Type: KindPoint, Point: []float64{RoundCoord(lon), RoundCoord(lat)}}
}

// RoundCoord rounds a coordinate to CoordPrecision decimal digits.
func RoundCoord(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// ParseCoord parses a staged coordinate string. Anything that does not parse
// as a finite number is rejected so malformed input never reaches a commit.
func ParseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	return v, nil
}

// FormatCoord renders a coordinate at display precision.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(RoundCoord(v), 'f', CoordPrecision, 64)
}

// MarshalJSON encodes the geometry in standard GeoJSON form.
func (g Geometry) MarshalJSON() ([]byte, error) {
	var coords any
	switch g.Type {
	case KindPoint:
		coords = g.Point
	case KindLineString:
		coords = g.Line
	case KindPolygon:
		coords = g.Polygon
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, err
	}
	return json.Marshal(geometryWire{Type: g.Type, Coordinates: raw})
}

// UnmarshalJSON decodes standard GeoJSON into the geometry.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var wire geometryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := Geometry{Type: wire.Type}
	switch wire.Type {
	case KindPoint:
		if err := json.Unmarshal(wire.Coordinates, &out.Point); err != nil {
			return err
		}
	case KindLineString:
		if err := json.Unmarshal(wire.Coordinates, &out.Line); err != nil {
			return err
		}
	case KindPolygon:
		if err := json.Unmarshal(wire.Coordinates, &out.Polygon); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported geometry type %q", wire.Type)
	}
	*g = out
	return nil
}

// Value implements driver.Valuer so geometries persist as JSON columns.
func (g Geometry) Value() (driver.Value, error) {
	b, err := g.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for reading JSON geometry columns.
func (g *Geometry) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*g = Geometry{}
		return nil
	case []byte:
		return g.UnmarshalJSON(v)
	case string:
		return g.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Geometry", src)
	}
}

// Validate checks that the geometry's coordinates are present, well formed
// and within WGS84 bounds.
func (g Geometry) Validate() error {
	check := func(c []float64) error {
		if len(c) != 2 {
			return fmt.Errorf("coordinate must be [lon, lat], got %d values", len(c))
		}
		if c[0] < -180 || c[0] > 180 {
			return fmt.Errorf("longitude %v out of range", c[0])
		}
		if c[1] < -90 || c[1] > 90 {
			return fmt.Errorf("latitude %v out of range", c[1])
		}
		return nil
	}
	switch g.Type {
	case KindPoint:
		return check(g.Point)
	case KindLineString:
		if len(g.Line) < 2 {
			return fmt.Errorf("linestring needs at least 2 positions, got %d", len(g.Line))
		}
		for _, c := range g.Line {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	case KindPolygon:
		if len(g.Polygon) == 0 {
			return fmt.Errorf("polygon has no rings")
		}
		for _, ring := range g.Polygon {
			if len(ring) < 4 {
				return fmt.Errorf("polygon ring needs at least 4 positions, got %d", len(ring))
			}
			for _, c := range ring {
				if err := check(c); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

// Rounded returns a copy with every coordinate rounded to CoordPrecision.
func (g Geometry) Rounded() Geometry {
	out := Geometry{Type: g.Type}
	switch g.Type {
	case KindPoint:
		out.Point = roundPosition(g.Point)
	case KindLineString:
		out.Line = make([][]float64, len(g.Line))
		for i, c := range g.Line {
			out.Line[i] = roundPosition(c)
		}
	case KindPolygon:
		out.Polygon = make([][][]float64, len(g.Polygon))
		for i, ring := range g.Polygon {
			out.Polygon[i] = make([][]float64, len(ring))
			for j, c := range ring {
				out.Polygon[i][j] = roundPosition(c)
			}
		}
	}
	return out
}

func roundPosition(c []float64) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = RoundCoord(v)
	}
	return out
}

func (g Geometry) positions() [][]float64 {
	switch g.Type {
	case KindPoint:
		return [][]float64{g.Point}
	case KindLineString:
		return g.Line
	case KindPolygon:
		var all [][]float64
		for _, ring := range g.Polygon {
			all = append(all, ring...)
		}
		return all
	}
	return nil
}

// Feature is a GeoJSON feature carrying a resource's identity and display
// properties alongside its geometry.
type Feature struct {
	ID         int64          `json:"id"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type featureWire struct {
	Type       string         `json:"type"`
	ID         int64          `json:"id"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// MarshalJSON tags the feature with its GeoJSON type.
func (f Feature) MarshalJSON() ([]byte, error) {
	return json.Marshal(featureWire{Type: "Feature", ID: f.ID, Geometry: f.Geometry, Properties: f.Properties})
}

// UnmarshalJSON decodes a GeoJSON feature.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var wire featureWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*f = Feature{ID: wire.ID, Geometry: wire.Geometry, Properties: wire.Properties}
	return nil
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Features []Feature
}

type collectionWire struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// MarshalJSON encodes the collection in standard GeoJSON form. An empty
// collection still carries a features array rather than null.
func (fc FeatureCollection) MarshalJSON() ([]byte, error) {
	features := fc.Features
	if features == nil {
		features = []Feature{}
	}
	return json.Marshal(collectionWire{Type: "FeatureCollection", Features: features})
}

// UnmarshalJSON decodes a GeoJSON feature collection.
func (fc *FeatureCollection) UnmarshalJSON(data []byte) error {
	var wire collectionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	fc.Features = wire.Features
	return nil
}

// Partition splits features into the two renderable sources: Point features
// and everything else. The two partitions are disjoint and together cover
// the input.
func Partition(features []Feature) (points, others FeatureCollection) {
	for _, f := range features {
		if f.Geometry.Type == KindPoint {
			points.Features = append(points.Features, f)
		} else {
			others.Features = append(others.Features, f)
		}
	}
	return points, others
}
