package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/geo"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
)

// PropertyColumnPrefix namespaces property-bag columns away from the fixed
// columns.
const PropertyColumnPrefix = "prop_"

var fixedColumns = []string{"id", "name", "type", "status", "geometry_kind", "longitude", "latitude"}

// WriteCSV renders one row per resource: the fixed columns, flattened
// lon/lat for point features, and one column per distinct property-bag key
// across the whole set.
func WriteCSV(w io.Writer, resources []models.Resource) error {
	keySet := map[string]bool{}
	bags := make([]map[string]any, len(resources))
	for i, r := range resources {
		bags[i] = r.PropertyBag()
		for k := range bags[i] {
			keySet[k] = true
		}
	}
	propKeys := make([]string, 0, len(keySet))
	for k := range keySet {
		propKeys = append(propKeys, k)
	}
	sort.Strings(propKeys)

	cw := csv.NewWriter(w)
	header := append([]string{}, fixedColumns...)
	for _, k := range propKeys {
		header = append(header, PropertyColumnPrefix+k)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, r := range resources {
		var lon, lat string
		if r.Geometry.Type == geo.KindPoint && len(r.Geometry.Point) == 2 {
			lon = geo.FormatCoord(r.Geometry.Point[0])
			lat = geo.FormatCoord(r.Geometry.Point[1])
		}
		row := []string{
			fmt.Sprintf("%d", r.ID),
			r.Name,
			r.Type,
			r.Status,
			string(r.Geometry.Type),
			lon,
			lat,
		}
		for _, k := range propKeys {
			row = append(row, stringify(bags[i][k]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
