package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/site-select/internal/geometry"
)

// GeoJSON reads each layer from a GeoJSON FeatureCollection file.
type GeoJSON struct {
	Layers  Layers
	Options Options
}

// NewGeoJSON creates a GeoJSON provider.
func NewGeoJSON(layers Layers, opts Options) *GeoJSON {
	return &GeoJSON{Layers: layers, Options: opts}
}

// Load implements Provider.
func (p *GeoJSON) Load(ctx context.Context) (*Dataset, error) {
	return loadLayers(ctx, "geojson", p.Layers, p.Options, readGeoJSON)
}

// readGeoJSON parses a FeatureCollection. Coordinates are lon/lat (EPSG:4326)
// unless the file carries a legacy named "crs" member.
func readGeoJSON(_ context.Context, path string) ([]geometry.Feature, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "geojson: read %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "geojson: parse %s", path)
	}

	feats := make([]geometry.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		g := fromOrb(f.Geometry)
		if g == nil {
			continue
		}
		feat := geometry.Feature{Geom: g, Attrs: map[string]any(f.Properties)}
		if f.ID != nil {
			feat.ID = fmt.Sprint(f.ID)
		}
		if feat.ID == "" {
			feat.ID = f.Properties.MustString("id", "")
		}
		feat.Name = f.Properties.MustString("name", "")
		feats = append(feats, feat)
	}
	return feats, crsSRID(fc.ExtraMembers["crs"]), nil
}

// crsSRID reads the EPSG code of a legacy named crs member such as
// {"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::3857"}}.
// No member means EPSG:4326; an unrecognised one means unknown (0).
func crsSRID(member any) int {
	if member == nil {
		return LonLatSRID
	}
	crs, _ := member.(map[string]any)
	props, _ := crs["properties"].(map[string]any)
	name, _ := props["name"].(string)
	name = strings.ToUpper(name)

	if strings.HasSuffix(name, "CRS84") {
		return LonLatSRID
	}
	if !strings.Contains(name, "EPSG") {
		return 0
	}
	code, err := strconv.Atoi(name[strings.LastIndex(name, ":")+1:])
	if err != nil || code <= 0 {
		return 0
	}
	return code
}

// fromOrb converts an orb geometry to go-geom. Unsupported types return nil.
func fromOrb(g orb.Geometry) geom.T {
	switch t := g.(type) {
	case orb.Point:
		return geom.NewPointFlat(geom.XY, []float64{t[0], t[1]})
	case orb.MultiPoint:
		return geom.NewMultiPointFlat(geom.XY, pointsFlat(t))
	case orb.LineString:
		return geom.NewLineStringFlat(geom.XY, pointsFlat(t))
	case orb.MultiLineString:
		var flat []float64
		ends := make([]int, 0, len(t))
		for _, ls := range t {
			flat = append(flat, pointsFlat(ls)...)
			ends = append(ends, len(flat))
		}
		return geom.NewMultiLineStringFlat(geom.XY, flat, ends)
	case orb.Polygon:
		flat, ends := polygonFlat(t, nil)
		return geom.NewPolygonFlat(geom.XY, flat, ends)
	case orb.MultiPolygon:
		var flat []float64
		endss := make([][]int, 0, len(t))
		for _, p := range t {
			var ends []int
			flat, ends = polygonFlat(p, flat)
			endss = append(endss, ends)
		}
		return geom.NewMultiPolygonFlat(geom.XY, flat, endss)
	default:
		return nil
	}
}

func pointsFlat(pts []orb.Point) []float64 {
	flat := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		flat = append(flat, p[0], p[1])
	}
	return flat
}

// polygonFlat appends the rings of p to flat and returns the ring ends.
func polygonFlat(p orb.Polygon, flat []float64) ([]float64, []int) {
	ends := make([]int, 0, len(p))
	for _, ring := range p {
		flat = append(flat, pointsFlat(ring)...)
		ends = append(ends, len(flat))
	}
	return flat, ends
}
