// Package mcda scores, ranks and categorizes feasible candidate sites with a
// weighted linear multi-criteria model.
package mcda

import (
	"cmp"
	"math"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/site-select/internal/evaluate"
	"github.com/sells-group/site-select/internal/fault"
)

// neutralScore is assigned to every record when the composite has no spread.
const neutralScore = 50.0

// Scored is a feasible candidate with its criterion scores, rescaled composite,
// dense rank and band.
type Scored struct {
	evaluate.Record

	AreaScore      float64 // [0,1], benefit
	CoverageScore  float64 // [0,1], benefit
	ProximityScore float64 // [0,1], cost-inverted distance

	// RawComposite is the weighted sum including the safety bonus, before
	// rescaling.
	RawComposite float64
	Composite    float64 // [0,100]
	Rank         int
	Category     Category
}

// Stats aggregates one ranking.
type Stats struct {
	Analyzed    int
	Recommended int
	MeanScore   float64
	MaxScore    float64
	Categories  map[Category]int
}

// Ranking is the scorer output. Scored keeps the input order; Top holds the
// recommendations by descending composite.
type Ranking struct {
	Scored []Scored
	Top    []Scored
	Stats  Stats
}

// IsEmpty reports whether no site was scored.
func (r *Ranking) IsEmpty() bool {
	return r == nil || len(r.Scored) == 0
}

// ScoreAndRank normalizes each criterion over the given records, combines them
// with w, rescales to [0,100], dense-ranks and categorizes, then selects the
// topN recommendations. An empty record set yields an empty ranking.
func ScoreAndRank(records []evaluate.Record, w Weights, topN int) (*Ranking, error) {
	if topN < 1 {
		return nil, eris.Wrap(fault.NewInvalidParameter("top_n", float64(topN)), "mcda: score")
	}
	if err := w.Validate(); err != nil {
		return nil, eris.Wrap(err, "mcda: score")
	}

	log := zap.L().With(zap.String("stage", "mcda"))
	if msg := w.Warning(); msg != "" {
		log.Warn(msg, zap.Float64("weight_sum", w.Sum()))
	}

	rk := EmptyRanking()
	if len(records) == 0 {
		log.Info("no feasible sites to score")
		return rk, nil
	}

	n := len(records)
	areas := make([]float64, n)
	coverages := make([]float64, n)
	distances := make([]float64, n)
	for i, r := range records {
		areas[i] = r.SafeArea
		coverages[i] = r.CoveragePct
		distances[i] = r.DistanceToCritical
	}
	areaScores := Normalize(areas, Benefit)
	coverageScores := Normalize(coverages, Benefit)
	proximityScores := Normalize(distances, Cost)

	raw := make([]float64, n)
	for i := range records {
		// Every feasible site already passed the safety gate, so the safety
		// weight is a flat bonus rather than a scored criterion.
		raw[i] = w.SiteArea*areaScores[i] +
			w.ServiceCoverage*coverageScores[i] +
			w.Accessibility*proximityScores[i] +
			w.SafetyDistance
	}
	composite := Rescale(raw)
	ranks := DenseRank(composite)

	rk.Scored = make([]Scored, n)
	for i, r := range records {
		rk.Scored[i] = Scored{
			Record:         r,
			AreaScore:      areaScores[i],
			CoverageScore:  coverageScores[i],
			ProximityScore: proximityScores[i],
			RawComposite:   raw[i],
			Composite:      composite[i],
			Rank:           ranks[i],
			Category:       Categorize(composite[i]),
		}
	}

	rk.Top = TopN(rk.Scored, topN)
	rk.Stats = computeStats(rk.Scored, len(rk.Top))

	log.Info("sites scored",
		zap.Int("analyzed", rk.Stats.Analyzed),
		zap.Int("recommended", rk.Stats.Recommended),
		zap.Float64("mean_score", rk.Stats.MeanScore),
		zap.Float64("max_score", rk.Stats.MaxScore),
	)
	return rk, nil
}

// Direction says whether higher raw values are preferred.
type Direction int

// Criterion directions.
const (
	Benefit Direction = iota
	Cost
)

// Normalize min-max scales values to [0,1] across the set. Benefit maps the
// maximum to 1, Cost maps the minimum to 1. When all finite values are equal
// they all score 1. +Inf counts as the best benefit and the worst cost and is
// excluded from the min/max.
func Normalize(values []float64, dir Direction) []float64 {
	out := make([]float64, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	for i, v := range values {
		switch {
		case math.IsInf(v, 1):
			out[i] = boolScore(dir == Benefit)
		case math.IsInf(v, -1):
			out[i] = boolScore(dir == Cost)
		case math.IsNaN(v):
			out[i] = 0
		case hi == lo:
			out[i] = 1
		case dir == Benefit:
			out[i] = (v - lo) / (hi - lo)
		default:
			out[i] = (hi - v) / (hi - lo)
		}
	}
	return out
}

func boolScore(best bool) float64 {
	if best {
		return 1
	}
	return 0
}

// Rescale maps values onto [0,100] by min-max. All-equal input maps to 50.
func Rescale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := slices.Min(values), slices.Max(values)
	for i, v := range values {
		if hi == lo {
			out[i] = neutralScore
			continue
		}
		out[i] = (v - lo) / (hi - lo) * 100
	}
	return out
}

// DenseRank ranks scores descending. Equal scores share a rank and the next
// distinct score gets the following rank with no gaps.
func DenseRank(scores []float64) []int {
	distinct := slices.Clone(scores)
	slices.SortFunc(distinct, func(a, b float64) int { return cmp.Compare(b, a) })
	distinct = slices.Compact(distinct)

	rankOf := make(map[float64]int, len(distinct))
	for i, s := range distinct {
		rankOf[s] = i + 1
	}

	ranks := make([]int, len(scores))
	for i, s := range scores {
		ranks[i] = rankOf[s]
	}
	return ranks
}

// TopN returns up to n records by descending composite. Ties keep input order.
func TopN(scored []Scored, n int) []Scored {
	sorted := slices.Clone(scored)
	slices.SortStableFunc(sorted, func(a, b Scored) int {
		return cmp.Compare(b.Composite, a.Composite)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func computeStats(scored []Scored, recommended int) Stats {
	st := Stats{
		Analyzed:    len(scored),
		Recommended: recommended,
		Categories:  emptyHistogram(),
	}
	if len(scored) == 0 {
		return st
	}

	var sum float64
	st.MaxScore = math.Inf(-1)
	for _, s := range scored {
		sum += s.Composite
		st.MaxScore = math.Max(st.MaxScore, s.Composite)
		st.Categories[s.Category]++
	}
	st.MeanScore = sum / float64(len(scored))
	return st
}

// EmptyRanking returns a ranking with no sites and a zeroed category histogram.
func EmptyRanking() *Ranking {
	return &Ranking{Stats: Stats{Categories: emptyHistogram()}}
}

func emptyHistogram() map[Category]int {
	h := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		h[c] = 0
	}
	return h
}
