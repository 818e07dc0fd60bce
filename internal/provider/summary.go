package provider

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/site-select/internal/geometry"
)

// LayerSummary describes one loaded layer.
type LayerSummary struct {
	Name          string
	Count         int
	SRID          int
	GeometryTypes []string
}

// Summary describes a loaded dataset.
type Summary struct {
	Source              string
	Layers              []LayerSummary
	HasBoundary         bool
	CandidateAreaKM2    float64
	MeanCandidateAreaM2 float64
}

// Summarize reports per-layer counts and the planar candidate area.
func Summarize(ds *Dataset) Summary {
	if ds == nil {
		return Summary{}
	}
	s := Summary{Source: ds.Source, HasBoundary: ds.Boundary != nil}
	for _, c := range []geometry.Collection{ds.Critical, ds.Candidates, ds.Roads} {
		s.Layers = append(s.Layers, LayerSummary{
			Name:          c.Name,
			Count:         c.Len(),
			SRID:          c.SRID,
			GeometryTypes: c.GeometryTypes(),
		})
	}

	var total float64
	for _, f := range ds.Candidates.Features {
		total += planarArea(f.Geom)
	}
	s.CandidateAreaKM2 = total / 1e6
	if n := ds.Candidates.Len(); n > 0 {
		s.MeanCandidateAreaM2 = total / float64(n)
	}
	return s
}

func planarArea(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return t.Area()
	case *geom.MultiPolygon:
		return t.Area()
	default:
		return 0
	}
}
