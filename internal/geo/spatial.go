package geo

import "math"

// Bounds is a lon/lat bounding box.
type Bounds struct {
	MinLon, MinLat, MaxLon, MaxLat float64
}

// HaversineDistance calculates the distance in meters between two points
// using the Haversine formula.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000
}

// PadBounds grows a bounding box by roughly the given number of meters on
// every side, using approximate degrees-per-meter at the box's latitude.
func PadBounds(b Bounds, meters float64) Bounds {
	midLat := (b.MinLat + b.MaxLat) / 2
	latDegreePerMeter := 1.0 / 111320.0
	lngDegreePerMeter := 1.0 / (111320.0 * math.Cos(midLat*math.Pi/180.0))

	deltaLat := meters * latDegreePerMeter
	deltaLng := meters * lngDegreePerMeter

	return Bounds{
		MinLon: b.MinLon - deltaLng,
		MinLat: b.MinLat - deltaLat,
		MaxLon: b.MaxLon + deltaLng,
		MaxLat: b.MaxLat + deltaLat,
	}
}

// GeometryBounds computes the bounding box of a geometry's coordinates.
// Used for zoom-to-feature extents.
func GeometryBounds(g Geometry) Bounds {
	b := Bounds{MinLon: 180, MinLat: 90, MaxLon: -180, MaxLat: -90}
	for _, c := range g.positions() {
		if len(c) != 2 {
			continue
		}
		b.MinLon = math.Min(b.MinLon, c[0])
		b.MaxLon = math.Max(b.MaxLon, c[0])
		b.MinLat = math.Min(b.MinLat, c[1])
		b.MaxLat = math.Max(b.MaxLat, c[1])
	}
	return b
}
