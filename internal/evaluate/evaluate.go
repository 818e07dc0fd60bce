// Package evaluate filters candidate sites through the demand, safety and
// area gates and derives the attributes used for scoring.
package evaluate

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/site-select/internal/fault"
	"github.com/sells-group/site-select/internal/geometry"
	"github.com/sells-group/site-select/internal/zone"
)

const (
	stage           = "evaluate"
	sqMetersPerSqKM = 1e6
)

// Gate identifies the feasibility test that rejected a candidate.
type Gate string

// Feasibility gates, applied in this order.
const (
	GateDemand Gate = "demand"
	GateSafety Gate = "safety"
	GateArea   Gate = "area"
)

// Record is a feasible candidate with its derived attributes. Safe is the
// designated geometry handed to export collaborators.
type Record struct {
	SiteID             string
	Name               string
	Source             geometry.Shape
	Safe               geometry.Shape
	OriginalArea       float64
	SafeArea           float64
	CoveragePct        float64
	DistanceToCritical float64
}

// Summary holds aggregate counts for one evaluation.
type Summary struct {
	Total            int
	Feasible         int
	SuccessRate      float64
	TotalSafeAreaKM2 float64
	Rejected         map[Gate]int
	Faults           []*fault.GeometryFault
}

// Evaluation is the feasible set plus its summary.
type Evaluation struct {
	Records []Record
	Summary Summary
}

// Empty returns an evaluation with no candidates.
func Empty() *Evaluation {
	return &Evaluation{Summary: Summary{Rejected: make(map[Gate]int)}}
}

// Candidates applies the demand, safety and area gates to every candidate
// polygon. When either zone has no usable region the evaluation is empty: the
// feasible set cannot be assessed without both.
func Candidates(eng *geometry.Engine, candidates geometry.Collection, demand, exclusion *zone.Result, minArea float64) (*Evaluation, error) {
	if err := fault.CheckPositive("min_area", minArea); err != nil {
		return nil, eris.Wrap(err, "evaluate: candidates")
	}

	log := zap.L().With(zap.String("stage", stage))
	ev := Empty()

	if demand.IsEmpty() || exclusion.IsEmpty() {
		log.Info("demand or exclusion region missing, skipping evaluation",
			zap.Bool("demand_empty", demand.IsEmpty()),
			zap.Bool("exclusion_empty", exclusion.IsEmpty()),
		)
		return ev, nil
	}

	for i, f := range candidates.Features {
		ev.Summary.Total++

		rec, gate, err := evaluateOne(eng, i, f, demand, exclusion, minArea)
		if err != nil {
			gf := fault.NewGeometryFault(stage, rec.SiteID, err)
			log.Warn("skipping candidate", zap.String("site_id", rec.SiteID), zap.Error(err))
			ev.Summary.Faults = append(ev.Summary.Faults, gf)
			continue
		}
		if gate != "" {
			log.Debug("candidate rejected", zap.String("site_id", rec.SiteID), zap.String("gate", string(gate)))
			ev.Summary.Rejected[gate]++
			continue
		}

		ev.Records = append(ev.Records, rec)
		ev.Summary.TotalSafeAreaKM2 += rec.SafeArea / sqMetersPerSqKM
	}

	ev.Summary.Feasible = len(ev.Records)
	if ev.Summary.Total > 0 {
		ev.Summary.SuccessRate = float64(ev.Summary.Feasible) / float64(ev.Summary.Total) * 100
	}

	log.Info("candidates evaluated",
		zap.Int("total", ev.Summary.Total),
		zap.Int("feasible", ev.Summary.Feasible),
		zap.Int("faults", len(ev.Summary.Faults)),
		zap.Float64("success_rate", ev.Summary.SuccessRate),
	)
	return ev, nil
}

// evaluateOne returns the record for a feasible candidate, or the gate that
// rejected it. A non-nil error means the candidate geometry could not be processed.
func evaluateOne(eng *geometry.Engine, idx int, f geometry.Feature, demand, exclusion *zone.Result, minArea float64) (Record, Gate, error) {
	rec := Record{SiteID: f.ID, Name: f.Name}
	if rec.SiteID == "" {
		rec.SiteID = strconv.Itoa(idx)
	}
	if rec.Name == "" {
		rec.Name = "Site_" + rec.SiteID
	}

	site, err := eng.Shape(f)
	if err != nil {
		return rec, "", err
	}
	if site.Kind() != geometry.KindPolygon {
		return rec, "", eris.Errorf("evaluate: expected polygon candidate, got %s", site.Kind())
	}
	if ok, reason := site.IsValid(); !ok {
		return rec, "", eris.Errorf("evaluate: invalid candidate geometry: %s", reason)
	}

	hit, err := site.Intersects(demand.Region)
	if err != nil {
		return rec, "", err
	}
	if !hit {
		return rec, GateDemand, nil
	}

	safe, err := site.Difference(exclusion.Region)
	if err != nil {
		return rec, "", err
	}
	if safe.IsEmpty() {
		return rec, GateSafety, nil
	}

	safeArea := safe.Area()
	if safeArea < minArea {
		return rec, GateArea, nil
	}

	rec.Source = site
	rec.Safe = safe
	rec.OriginalArea = site.Area()
	// Overlay noise must not push the safe part above the whole.
	rec.SafeArea = math.Min(safeArea, rec.OriginalArea)
	if rec.OriginalArea > 0 {
		rec.CoveragePct = rec.SafeArea / rec.OriginalArea * 100
	}

	rec.DistanceToCritical, err = nearestDistance(safe, demand.Sources)
	if err != nil {
		return rec, "", err
	}
	return rec, "", nil
}

// nearestDistance returns the minimum distance from s to any of targets, or
// +Inf when there are none.
func nearestDistance(s geometry.Shape, targets []geometry.Shape) (float64, error) {
	best := math.Inf(1)
	for _, t := range targets {
		d, err := s.Distance(t)
		if err != nil {
			return 0, err
		}
		if d < best {
			best = d
		}
	}
	return best, nil
}
