// Package zone builds the unified demand and exclusion regions by buffering
// source features and unioning the buffers.
package zone

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/site-select/internal/fault"
	"github.com/sells-group/site-select/internal/geometry"
)

// Type names the role a zone plays in the analysis.
type Type string

// Zone types.
const (
	Demand    Type = "demand"
	Exclusion Type = "exclusion"
)

// sqMetersPerSqKM converts region areas to the reporting unit.
const sqMetersPerSqKM = 1e6

// Buffer is the buffered geometry of one source feature.
type Buffer struct {
	FeatureID string
	Shape     geometry.Shape
}

// Result is the immutable output of one builder invocation.
type Result struct {
	Type        Type
	Distance    float64
	Buffers     []Buffer
	Region      geometry.Shape
	AreaKM2     float64
	SourceCount int

	// Sources are the converted source geometries in input order, including
	// those whose buffer failed.
	Sources []geometry.Shape

	// Faults lists features skipped because GEOS could not process them.
	Faults []*fault.GeometryFault
}

// IsEmpty reports whether the result has no usable region.
func (r *Result) IsEmpty() bool {
	return r == nil || r.Region.IsEmpty()
}

// Area returns the region area in square metres.
func (r *Result) Area() float64 {
	if r == nil {
		return 0
	}
	return r.Region.Area()
}

// BuildDemand buffers every critical point by radius and unions the disks
// into the demand region.
func BuildDemand(eng *geometry.Engine, points geometry.Collection, radius float64) (*Result, error) {
	return build(eng, Demand, geometry.KindPoint, points, radius, "service_radius")
}

// BuildExclusion buffers every road line by the safety distance and unions the
// capsules into the exclusion region.
func BuildExclusion(eng *geometry.Engine, roads geometry.Collection, safety float64) (*Result, error) {
	return build(eng, Exclusion, geometry.KindLine, roads, safety, "safety_buffer")
}

func build(eng *geometry.Engine, typ Type, want geometry.Kind, src geometry.Collection, distance float64, param string) (*Result, error) {
	if err := fault.CheckPositive(param, distance); err != nil {
		return nil, eris.Wrapf(err, "zone: %s", typ)
	}

	log := zap.L().With(zap.String("stage", "zone"), zap.String("zone", string(typ)))
	stage := "zone." + string(typ)

	res := &Result{
		Type:        typ,
		Distance:    distance,
		Region:      eng.Empty(),
		SourceCount: src.Len(),
	}
	if src.IsEmpty() {
		log.Info("no source features, returning empty zone")
		return res, nil
	}

	shapes := make([]geometry.Shape, 0, src.Len())
	for _, f := range src.Features {
		s, err := eng.Shape(f)
		if err == nil && s.Kind() != want {
			err = eris.Errorf("zone: expected %s geometry, got %s", want, s.Kind())
		}
		if err != nil {
			res.addFault(log, fault.NewGeometryFault(stage, f.ID, err))
			continue
		}
		res.Sources = append(res.Sources, s)

		buf, err := s.Buffer(distance)
		if err != nil {
			res.addFault(log, fault.NewGeometryFault(stage, f.ID, err))
			continue
		}
		res.Buffers = append(res.Buffers, Buffer{FeatureID: f.ID, Shape: buf})
		shapes = append(shapes, buf)
	}

	region, err := eng.UnionAll(shapes)
	if err != nil {
		return nil, fault.NewGeometryFault(stage+".union", "", err)
	}
	res.Region = region
	res.AreaKM2 = res.Area() / sqMetersPerSqKM

	log.Info("zone built",
		zap.Int("sources", res.SourceCount),
		zap.Int("buffered", len(res.Buffers)),
		zap.Int("faults", len(res.Faults)),
		zap.Float64("distance_m", distance),
		zap.Float64("area_km2", res.AreaKM2),
	)
	return res, nil
}

func (r *Result) addFault(log *zap.Logger, gf *fault.GeometryFault) {
	log.Warn("skipping feature", zap.String("feature_id", gf.FeatureID), zap.Error(gf.Err))
	r.Faults = append(r.Faults, gf)
}
