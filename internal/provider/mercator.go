package provider

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// SRIDs understood by the providers.
const (
	LonLatSRID      = 4326
	WebMercatorSRID = 3857
)

const (
	earthRadius = 6378137.0
	// maxLatitude is where the Web Mercator square ends.
	maxLatitude = 85.05112878
)

// ToWebMercator returns a copy of g with lon/lat degrees projected to
// EPSG:3857 metres. Latitudes beyond the projection limit are clamped.
func ToWebMercator(g geom.T) (geom.T, error) {
	var out geom.T
	switch t := g.(type) {
	case *geom.Point:
		out = t.Clone()
	case *geom.MultiPoint:
		out = t.Clone()
	case *geom.LineString:
		out = t.Clone()
	case *geom.MultiLineString:
		out = t.Clone()
	case *geom.Polygon:
		out = t.Clone()
	case *geom.MultiPolygon:
		out = t.Clone()
	default:
		return nil, eris.Errorf("provider: cannot project %T", g)
	}

	flat, stride := out.FlatCoords(), out.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		flat[i], flat[i+1] = projectLonLat(flat[i], flat[i+1])
	}
	return out, nil
}

func projectLonLat(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	x := earthRadius * lon * math.Pi / 180
	y := earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}
