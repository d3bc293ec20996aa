package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	// Berlin to Hamburg, roughly 255 km.
	d := HaversineDistance(52.5200, 13.4050, 53.5511, 9.9937)
	assert.InDelta(t, 255000, d, 5000)

	assert.Zero(t, HaversineDistance(10, 10, 10, 10))
}

func TestGeometryBounds(t *testing.T) {
	g := Geometry{Type: KindLineString, Line: [][]float64{{-5, 2}, {3, -1}, {1, 7}}}
	b := GeometryBounds(g)
	assert.Equal(t, Bounds{MinLon: -5, MinLat: -1, MaxLon: 3, MaxLat: 7}, b)
}

func TestPadBoundsGrowsEverySide(t *testing.T) {
	b := Bounds{MinLon: 10, MinLat: 50, MaxLon: 11, MaxLat: 51}
	padded := PadBounds(b, 100)
	assert.Less(t, padded.MinLon, b.MinLon)
	assert.Less(t, padded.MinLat, b.MinLat)
	assert.Greater(t, padded.MaxLon, b.MaxLon)
	assert.Greater(t, padded.MaxLat, b.MaxLat)
	// 100 m is on the order of 1e-3 degrees of latitude.
	assert.InDelta(t, b.MinLat-100.0/111320.0, padded.MinLat, 1e-9)
}
