package provider

import (
	"context"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/site-select/internal/geometry"
)

// Shapefile reads each layer from an ESRI shapefile (.shp with its .dbf).
type Shapefile struct {
	Layers  Layers
	Options Options
}

// NewShapefile creates a Shapefile provider.
func NewShapefile(layers Layers, opts Options) *Shapefile {
	return &Shapefile{Layers: layers, Options: opts}
}

// Load implements Provider.
func (p *Shapefile) Load(ctx context.Context) (*Dataset, error) {
	return loadLayers(ctx, "shapefile", p.Layers, p.Options, readShapefile)
}

// readShapefile converts every record of a shapefile. The .prj is not read,
// so the SRID comes from Options.
func readShapefile(ctx context.Context, path string) ([]geometry.Feature, int, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}

	var feats []geometry.Feature
	var skipped int
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, 0, eris.Wrap(err, "shapefile: read")
		}

		idx, shape := reader.Shape()
		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				attrs[name] = val
			}
		}

		feat := geometry.Feature{ID: strconv.Itoa(idx), Geom: g, Attrs: attrs}
		if id, ok := attrs["id"].(string); ok {
			feat.ID = id
		}
		if name, ok := attrs["name"].(string); ok {
			feat.Name = name
		}
		feats = append(feats, feat)
	}
	if err := reader.Err(); err != nil {
		return nil, 0, eris.Wrapf(err, "shapefile: read %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("shapefile: skipped records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return feats, 0, nil
}

// shapeToGeom converts a go-shp shape to go-geom. Returns nil for null,
// empty or unsupported shapes.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.MultiPoint:
		if len(s.Points) == 0 {
			return nil
		}
		return geom.NewMultiPointFlat(geom.XY, shpFlat(s.Points))
	case *shp.PolyLine:
		return lineGeom(splitParts(s.Parts, s.Points))
	case *shp.PolyLineZ:
		return lineGeom(splitParts(s.Parts, s.Points))
	case *shp.Polygon:
		return polygonGeom(splitParts(s.Parts, s.Points))
	case *shp.PolygonZ:
		return polygonGeom(splitParts(s.Parts, s.Points))
	default:
		return nil
	}
}

// splitParts cuts the shared point array into per-part flat coordinates.
func splitParts(parts []int32, points []shp.Point) [][]float64 {
	out := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(points)) {
			continue
		}
		out = append(out, shpFlat(points[start:end]))
	}
	return out
}

func lineGeom(parts [][]float64) geom.T {
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return geom.NewLineStringFlat(geom.XY, parts[0])
	}
	var flat []float64
	ends := make([]int, 0, len(parts))
	for _, p := range parts {
		flat = append(flat, p...)
		ends = append(ends, len(flat))
	}
	return geom.NewMultiLineStringFlat(geom.XY, flat, ends)
}

// polygonGeom groups rings into polygons. Shapefile outer rings are
// clockwise; counter-clockwise rings are holes of the preceding outer ring.
func polygonGeom(rings [][]float64) geom.T {
	var polys [][][]float64
	for _, r := range rings {
		if len(r) < 8 {
			continue
		}
		if signedArea(r) <= 0 || len(polys) == 0 {
			polys = append(polys, [][]float64{r})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], r)
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		flat, ends := ringsFlat(polys[0], nil)
		return geom.NewPolygonFlat(geom.XY, flat, ends)
	}
	var flat []float64
	endss := make([][]int, 0, len(polys))
	for _, p := range polys {
		var ends []int
		flat, ends = ringsFlat(p, flat)
		endss = append(endss, ends)
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, endss)
}

func ringsFlat(rings [][]float64, flat []float64) ([]float64, []int) {
	ends := make([]int, 0, len(rings))
	for _, r := range rings {
		flat = append(flat, r...)
		ends = append(ends, len(flat))
	}
	return flat, ends
}

// signedArea is the shoelace area of a flat XY ring: negative when clockwise.
func signedArea(flat []float64) float64 {
	var sum float64
	for i := 0; i+3 < len(flat); i += 2 {
		sum += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return sum / 2
}

func shpFlat(points []shp.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
