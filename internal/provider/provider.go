// Package provider loads the critical, candidate, road and boundary layers
// from GeoJSON, Shapefile, GeoPackage or PostGIS sources.
package provider

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/site-select/internal/geometry"
)

// Layer names used for collections and log fields.
const (
	LayerCritical   = "critical"
	LayerCandidates = "candidates"
	LayerRoads      = "roads"
	LayerBoundary   = "boundary"
)

// Dataset is the pre-fetched input of one analysis run.
type Dataset struct {
	Source     string
	Critical   geometry.Collection
	Candidates geometry.Collection
	Roads      geometry.Collection
	Boundary   *geometry.Feature
}

// Provider loads a Dataset. Implementations own their I/O and honour ctx.
type Provider interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Layers names where each layer lives: file paths for file sources, layer or
// table names for database sources. An empty entry means the layer is absent.
type Layers struct {
	Critical   string `mapstructure:"critical"`
	Candidates string `mapstructure:"candidates"`
	Roads      string `mapstructure:"roads"`
	Boundary   string `mapstructure:"boundary"`
}

// Options controls how raw features become collections.
type Options struct {
	// SRID is recorded on collections whose source carries no SRID.
	SRID int
	// ProjectLonLat declares sources without an SRID to be lon/lat (EPSG:4326).
	// Layers in EPSG:4326 are always projected to Web Mercator (EPSG:3857).
	ProjectLonLat bool
}

// layerKinds is the geometry kind each layer keeps.
var layerKinds = map[string]geometry.Kind{
	LayerCritical:   geometry.KindPoint,
	LayerCandidates: geometry.KindPolygon,
	LayerRoads:      geometry.KindLine,
	LayerBoundary:   geometry.KindPolygon,
}

// resolveSRID returns the SRID a layer is stored under and whether its
// features must be projected from lon/lat first. srid is the source SRID, 0
// if unknown. A source already in another SRID is never re-projected.
func resolveSRID(layer string, srid int, opts Options) (int, bool, error) {
	switch {
	case srid == 0 && opts.ProjectLonLat:
		srid = LonLatSRID
	case srid == 0:
		srid = opts.SRID
	case opts.ProjectLonLat && srid != LonLatSRID:
		return 0, false, eris.Errorf("provider: %s layer is in SRID %d, not lon/lat", layer, srid)
	}
	if srid == LonLatSRID {
		return WebMercatorSRID, true, nil
	}
	return srid, false, nil
}

// collect filters raw features to the layer's kind, projects lon/lat layers
// and fills in missing identifiers. srid is the source SRID, 0 if unknown.
func collect(layer string, srid int, raw []geometry.Feature, opts Options) (geometry.Collection, error) {
	srid, project, err := resolveSRID(layer, srid, opts)
	if err != nil {
		return geometry.Collection{}, err
	}

	want := layerKinds[layer]
	out := geometry.Collection{Name: layer, SRID: srid}
	var skipped int
	for i, f := range raw {
		kind, err := geometry.KindOf(f.Geom)
		if err != nil || kind != want {
			skipped++
			continue
		}

		if project {
			g, err := ToWebMercator(f.Geom)
			if err != nil {
				return geometry.Collection{}, eris.Wrapf(err, "provider: project %s feature %d", layer, i)
			}
			f.Geom = g
		}

		if f.ID == "" {
			f.ID = strconv.Itoa(i)
		}
		if f.Name == "" {
			f.Name = nameAttr(f.Attrs)
		}
		if f.Name == "" {
			f.Name = "Site_" + strconv.Itoa(i)
		}
		out.Features = append(out.Features, f)
	}

	if skipped > 0 {
		zap.L().Debug("provider: skipped features of unexpected kind",
			zap.String("layer", layer),
			zap.String("want", want.String()),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

// firstFeature returns the first feature of c, or nil when c is empty.
func firstFeature(c geometry.Collection) *geometry.Feature {
	if c.IsEmpty() {
		return nil
	}
	f := c.Features[0]
	return &f
}

func nameAttr(attrs map[string]any) string {
	for _, key := range []string{"name", "NAME", "Name"} {
		if v, ok := attrs[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// readFunc reads the raw features of one layer and reports the source SRID,
// or 0 when the source does not record one.
type readFunc func(ctx context.Context, src string) ([]geometry.Feature, int, error)

// loadLayers reads every configured layer with read and assembles the Dataset.
func loadLayers(ctx context.Context, source string, layers Layers, opts Options, read readFunc) (*Dataset, error) {
	ds := &Dataset{Source: source}
	targets := []struct {
		layer string
		src   string
		dst   *geometry.Collection
	}{
		{LayerCritical, layers.Critical, &ds.Critical},
		{LayerCandidates, layers.Candidates, &ds.Candidates},
		{LayerRoads, layers.Roads, &ds.Roads},
	}

	for _, t := range targets {
		c, err := loadLayer(ctx, t.layer, t.src, opts, read)
		if err != nil {
			return nil, err
		}
		*t.dst = c
	}

	if layers.Boundary != "" {
		c, err := loadLayer(ctx, LayerBoundary, layers.Boundary, opts, read)
		if err != nil {
			return nil, err
		}
		ds.Boundary = firstFeature(c)
	}

	zap.L().Info("provider: dataset loaded",
		zap.String("source", source),
		zap.Int("critical", ds.Critical.Len()),
		zap.Int("candidates", ds.Candidates.Len()),
		zap.Int("roads", ds.Roads.Len()),
		zap.Bool("boundary", ds.Boundary != nil),
	)
	return ds, nil
}

func loadLayer(ctx context.Context, layer, src string, opts Options, read readFunc) (geometry.Collection, error) {
	if err := ctx.Err(); err != nil {
		return geometry.Collection{}, eris.Wrap(err, "provider: load")
	}
	if src == "" {
		return collect(layer, 0, nil, opts)
	}

	raw, srid, err := read(ctx, src)
	if err != nil {
		return geometry.Collection{}, eris.Wrapf(err, "provider: read %s layer", layer)
	}
	return collect(layer, srid, raw, opts)
}
