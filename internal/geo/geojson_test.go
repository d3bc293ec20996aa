package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundCoord(t *testing.T) {
	assert.Equal(t, 10.123457, RoundCoord(10.12345678))
	assert.Equal(t, -0.000001, RoundCoord(-0.0000009))
	assert.Equal(t, 42.0, RoundCoord(42))
}

func TestParseCoord(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"plain number", "12.5", 12.5, false},
		{"negative", "-73.98", -73.98, false},
		{"surrounding whitespace", "  8.1 ", 8.1, false},
		{"empty", "", 0, true},
		{"garbage", "12.5.6", 0, true},
		{"words", "north", 0, true},
		{"nan", "NaN", 0, true},
		{"infinity", "Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoord(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCoordRoundTrip(t *testing.T) {
	formatted := FormatCoord(10.12345678)
	assert.Equal(t, "10.123457", formatted)
	parsed, err := ParseCoord(formatted)
	require.NoError(t, err)
	assert.Equal(t, RoundCoord(10.12345678), parsed)
}

func TestGeometryJSONRoundTrip(t *testing.T) {
	g := Geometry{
		Type:    KindPolygon,
		Polygon: [][][]float64{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}},
	}
	raw, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[0,0]]]}`, string(raw))

	var back Geometry
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, g, back)
}

func TestGeometryUnmarshalRejectsUnknownType(t *testing.T) {
	var g Geometry
	err := json.Unmarshal([]byte(`{"type":"MultiPoint","coordinates":[[0,0]]}`), &g)
	assert.Error(t, err)
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Geometry
		wantErr bool
	}{
		{"valid point", NewPoint(10, 20), false},
		{"longitude out of range", Geometry{Type: KindPoint, Point: []float64{200, 0}}, true},
		{"latitude out of range", Geometry{Type: KindPoint, Point: []float64{0, 91}}, true},
		{"missing coordinates", Geometry{Type: KindPoint}, true},
		{"valid line", Geometry{Type: KindLineString, Line: [][]float64{{0, 0}, {1, 1}}}, false},
		{"line too short", Geometry{Type: KindLineString, Line: [][]float64{{0, 0}}}, true},
		{"valid polygon", Geometry{Type: KindPolygon, Polygon: [][][]float64{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}}}, false},
		{"ring too short", Geometry{Type: KindPolygon, Polygon: [][][]float64{{{0, 0}, {0, 1}, {0, 0}}}}, true},
		{"no rings", Geometry{Type: KindPolygon}, true},
		{"unknown type", Geometry{Type: "Circle"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRounded(t *testing.T) {
	g := Geometry{Type: KindLineString, Line: [][]float64{{0.12345678, 1}, {2, 3.98765432}}}
	rounded := g.Rounded()
	assert.Equal(t, [][]float64{{0.123457, 1}, {2, 3.987654}}, rounded.Line)
	assert.Equal(t, [][]float64{{0.12345678, 1}, {2, 3.98765432}}, g.Line, "input untouched")
}

func TestPartitionIsDisjointAndCovering(t *testing.T) {
	features := []Feature{
		{ID: 1, Geometry: NewPoint(0, 0)},
		{ID: 2, Geometry: Geometry{Type: KindPolygon, Polygon: [][][]float64{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}}}},
		{ID: 3, Geometry: NewPoint(1, 1)},
		{ID: 4, Geometry: Geometry{Type: KindLineString, Line: [][]float64{{0, 0}, {1, 1}}}},
	}
	points, others := Partition(features)
	require.Len(t, points.Features, 2)
	require.Len(t, others.Features, 2)
	assert.Equal(t, int64(1), points.Features[0].ID)
	assert.Equal(t, int64(3), points.Features[1].ID)
	assert.Equal(t, int64(2), others.Features[0].ID)
	assert.Equal(t, int64(4), others.Features[1].ID)
}

func TestEmptyFeatureCollectionMarshalsWithArray(t *testing.T) {
	raw, err := json.Marshal(FeatureCollection{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(raw))
}
