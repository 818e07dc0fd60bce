package pipeline

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/site-select/internal/geometry"
	"github.com/sells-group/site-select/internal/provider"
)

// minCandidates is the candidate count below which a run is flagged as thin.
const minCandidates = 3

// Report collects dataset validation findings. Warnings never block a run.
type Report struct {
	Warnings []string
	Errors   []string
}

// OK reports whether the dataset has no blocking errors.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the blocking errors as one error, or nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return eris.Errorf("pipeline: invalid dataset: %s", strings.Join(r.Errors, "; "))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate checks a dataset before analysis: empty layers and a thin
// candidate set are warnings; missing, geographic or mismatched SRIDs and
// geometry of the wrong kind are errors.
func Validate(ds *provider.Dataset) Report {
	var r Report
	if ds == nil {
		r.errorf("dataset is missing")
		return r
	}

	layers := []struct {
		c    geometry.Collection
		name string
		want geometry.Kind
	}{
		{ds.Critical, provider.LayerCritical, geometry.KindPoint},
		{ds.Candidates, provider.LayerCandidates, geometry.KindPolygon},
		{ds.Roads, provider.LayerRoads, geometry.KindLine},
	}

	srid := 0
	for _, l := range layers {
		if l.c.IsEmpty() {
			r.warnf("%s layer is empty", l.name)
			continue
		}
		switch {
		case l.c.SRID == 0:
			r.errorf("%s layer has no SRID", l.name)
		case l.c.SRID == provider.LonLatSRID:
			r.errorf("%s layer SRID %d is geographic; distances need a projected SRID", l.name, l.c.SRID)
		case srid == 0:
			srid = l.c.SRID
		case l.c.SRID != srid:
			r.errorf("%s layer SRID %d does not match %d", l.name, l.c.SRID, srid)
		}
		checkKinds(&r, l.name, l.c.Features, l.want)
	}

	if n := ds.Candidates.Len(); n > 0 && n < minCandidates {
		r.warnf("only %d candidate sites; results may be limited", n)
	}
	if ds.Boundary != nil {
		checkKinds(&r, provider.LayerBoundary, []geometry.Feature{*ds.Boundary}, geometry.KindPolygon)
	}
	return r
}

// checkKinds records one error per distinct offending geometry type.
func checkKinds(r *Report, layer string, feats []geometry.Feature, want geometry.Kind) {
	seen := make(map[string]bool)
	for _, f := range feats {
		k, err := geometry.KindOf(f.Geom)
		if err == nil && k == want {
			continue
		}
		name := geometry.TypeName(f.Geom)
		if f.Geom == nil {
			name = "missing"
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		r.errorf("%s layer contains %s geometry, expected %s", layer, name, want)
	}
}
