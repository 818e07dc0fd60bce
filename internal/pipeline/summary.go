package pipeline

import (
	"github.com/sells-group/site-select/internal/evaluate"
	"github.com/sells-group/site-select/internal/mcda"
	"github.com/sells-group/site-select/internal/zone"
)

// ZoneSummary describes one built zone.
type ZoneSummary struct {
	Sources  int     `json:"sources"`
	Buffers  int     `json:"buffers"`
	Faults   int     `json:"faults"`
	Distance float64 `json:"distance_m"`
	AreaKM2  float64 `json:"area_km2"`
}

// CandidateSummary describes the feasibility filter.
type CandidateSummary struct {
	Total            int                   `json:"total"`
	Feasible         int                   `json:"feasible"`
	SuccessRate      float64               `json:"success_rate_pct"`
	TotalSafeAreaKM2 float64               `json:"total_safe_area_km2"`
	Rejected         map[evaluate.Gate]int `json:"rejected"`
	Faults           int                   `json:"faults"`
}

// Summary is the flat report of a run.
type Summary struct {
	RunID      string           `json:"run_id"`
	Source     string           `json:"source"`
	Demand     ZoneSummary      `json:"demand"`
	Exclusion  ZoneSummary      `json:"exclusion"`
	Candidates CandidateSummary `json:"candidates"`
	Scores     mcda.Stats       `json:"scores"`
}

// Summary aggregates the zone, evaluation and ranking statistics of r.
func (r *Result) Summary() Summary {
	if r == nil {
		return Summary{}
	}
	s := Summary{
		RunID:     r.RunID,
		Source:    r.Source,
		Demand:    summarizeZone(r.Demand),
		Exclusion: summarizeZone(r.Exclusion),
	}
	if r.Evaluation != nil {
		es := r.Evaluation.Summary
		s.Candidates = CandidateSummary{
			Total:            es.Total,
			Feasible:         es.Feasible,
			SuccessRate:      es.SuccessRate,
			TotalSafeAreaKM2: es.TotalSafeAreaKM2,
			Rejected:         es.Rejected,
			Faults:           len(es.Faults),
		}
	}
	if r.Ranking != nil {
		s.Scores = r.Ranking.Stats
	}
	return s
}

func summarizeZone(z *zone.Result) ZoneSummary {
	if z == nil {
		return ZoneSummary{}
	}
	return ZoneSummary{
		Sources:  z.SourceCount,
		Buffers:  len(z.Buffers),
		Faults:   len(z.Faults),
		Distance: z.Distance,
		AreaKM2:  z.AreaKM2,
	}
}
