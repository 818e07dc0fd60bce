package mcda

import "math"

// Detail is the display form of a scored site, rounded to two decimals.
type Detail struct {
	Rank        int
	SiteID      string
	Name        string
	Score       float64
	Category    Category
	SafeAreaM2  float64
	CoveragePct float64
	DistanceM   float64
}

// Detail returns the rounded display record.
func (s Scored) Detail() Detail {
	return Detail{
		Rank:        s.Rank,
		SiteID:      s.SiteID,
		Name:        s.Name,
		Score:       round2(s.Composite),
		Category:    s.Category,
		SafeAreaM2:  round2(s.SafeArea),
		CoveragePct: round2(s.CoveragePct),
		DistanceM:   round2(s.DistanceToCritical),
	}
}

// Flat returns the attribute map handed to export collaborators. Geometry is
// not included: Safe is the record's geometry handle.
func (s Scored) Flat() map[string]any {
	return map[string]any{
		"site_id":                s.SiteID,
		"name":                   s.Name,
		"original_area_m2":       s.OriginalArea,
		"safe_area_m2":           s.SafeArea,
		"coverage_pct":           s.CoveragePct,
		"distance_to_critical_m": s.DistanceToCritical,
		"area_score":             s.AreaScore,
		"coverage_score":         s.CoverageScore,
		"proximity_score":        s.ProximityScore,
		"composite_score":        s.Composite,
		"rank":                   s.Rank,
		"category":               string(s.Category),
	}
}

func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
