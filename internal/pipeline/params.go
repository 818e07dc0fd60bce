package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/site-select/internal/config"
	"github.com/sells-group/site-select/internal/fault"
	"github.com/sells-group/site-select/internal/geometry"
	"github.com/sells-group/site-select/internal/mcda"
)

// Params are the analysis parameters of one run. Distances and areas are in
// metres of the dataset CRS.
type Params struct {
	ServiceRadius   float64
	RoadBuffer      float64
	MinSiteArea     float64
	TopN            int
	Weights         mcda.Weights
	QuadSegs        int
	ConcurrentZones bool
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		ServiceRadius:   500,
		RoadBuffer:      30,
		MinSiteArea:     100,
		TopN:            5,
		Weights:         mcda.DefaultWeights(),
		QuadSegs:        geometry.DefaultQuadSegs,
		ConcurrentZones: true,
	}
}

// ParamsFromConfig builds run parameters from the analysis config and the
// resolved weights.
func ParamsFromConfig(cfg config.AnalysisConfig, w mcda.Weights) Params {
	return Params{
		ServiceRadius:   cfg.ServiceRadius,
		RoadBuffer:      cfg.RoadBuffer,
		MinSiteArea:     cfg.MinSiteArea,
		TopN:            cfg.TopN,
		Weights:         w,
		QuadSegs:        cfg.QuadSegs,
		ConcurrentZones: cfg.ConcurrentZones,
	}
}

// Validate fails fast on the first invalid parameter.
func (p Params) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"service_radius", p.ServiceRadius},
		{"safety_buffer", p.RoadBuffer},
		{"min_area", p.MinSiteArea},
	} {
		if err := fault.CheckPositive(c.name, c.v); err != nil {
			return eris.Wrap(err, "pipeline: params")
		}
	}
	if p.TopN < 1 {
		return eris.Wrap(fault.NewInvalidParameter("top_n", float64(p.TopN)), "pipeline: params")
	}
	return eris.Wrap(p.Weights.Validate(), "pipeline: params")
}
