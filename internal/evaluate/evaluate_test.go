package evaluate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/site-select/internal/fault"
	"github.com/sells-group/site-select/internal/geometry"
	"github.com/sells-group/site-select/internal/zone"
)

// rect returns an axis-aligned rectangle polygon feature.
func rect(id, name string, x0, y0, x1, y1 float64) geometry.Feature {
	return geometry.Feature{
		ID:   id,
		Name: name,
		Geom: geom.NewPolygonFlat(geom.XY, []float64{x0, y0, x1, y0, x1, y1, x0, y1, x0, y0}, []int{10}),
	}
}

type fixture struct {
	eng       *geometry.Engine
	demand    *zone.Result
	exclusion *zone.Result
}

// newFixture builds demand disks of radius 500 around (0,0), (600,0) and
// (300,500), and a 30 m exclusion capsule around the road y=950, which cuts
// through the top of the clinic disk.
func newFixture(t *testing.T) fixture {
	t.Helper()
	eng := geometry.NewEngine()
	pts := geometry.Collection{Features: []geometry.Feature{
		{ID: "school", Geom: geom.NewPointFlat(geom.XY, []float64{0, 0})},
		{ID: "hospital", Geom: geom.NewPointFlat(geom.XY, []float64{600, 0})},
		{ID: "clinic", Geom: geom.NewPointFlat(geom.XY, []float64{300, 500})},
	}}
	roads := geometry.Collection{Features: []geometry.Feature{
		{ID: "primary", Geom: geom.NewLineStringFlat(geom.XY, []float64{-1000, 950, 1000, 950})},
	}}
	demand, err := zone.BuildDemand(eng, pts, 500)
	require.NoError(t, err)
	exclusion, err := zone.BuildExclusion(eng, roads, 30)
	require.NoError(t, err)
	return fixture{eng: eng, demand: demand, exclusion: exclusion}
}

func TestCandidates_FeasibleInsideDemand(t *testing.T) {
	fx := newFixture(t)
	cands := geometry.Collection{Features: []geometry.Feature{
		rect("park-1", "Laleh Park", 295, 0, 305, 30),
	}}

	ev, err := Candidates(fx.eng, cands, fx.demand, fx.exclusion, 100)
	require.NoError(t, err)
	require.Len(t, ev.Records, 1)

	rec := ev.Records[0]
	assert.Equal(t, "park-1", rec.SiteID)
	assert.Equal(t, "Laleh Park", rec.Name)
	assert.InDelta(t, 300.0, rec.OriginalArea, 1e-9)
	assert.InDelta(t, 300.0, rec.SafeArea, 1e-9)
	assert.InDelta(t, 100.0, rec.CoveragePct, 1e-9)
	assert.InDelta(t, 295.0, rec.DistanceToCritical, 1e-9)
	assert.False(t, rec.Safe.IsEmpty())

	assert.Equal(t, Summary{
		Total:            1,
		Feasible:         1,
		SuccessRate:      100,
		TotalSafeAreaKM2: rec.SafeArea / 1e6,
		Rejected:         map[Gate]int{},
	}, ev.Summary)
}

func TestCandidates_EmptyCandidates(t *testing.T) {
	fx := newFixture(t)
	ev, err := Candidates(fx.eng, geometry.Collection{}, fx.demand, fx.exclusion, 100)
	require.NoError(t, err)
	assert.Empty(t, ev.Records)
	assert.Equal(t, 0, ev.Summary.Total)
	assert.Equal(t, 0, ev.Summary.Feasible)
	assert.Equal(t, 0.0, ev.Summary.SuccessRate)
}

func TestCandidates_MissingZoneShortCircuits(t *testing.T) {
	fx := newFixture(t)
	cands := geometry.Collection{Features: []geometry.Feature{rect("a", "", 295, 0, 305, 30)}}
	empty, err := zone.BuildExclusion(fx.eng, geometry.Collection{}, 30)
	require.NoError(t, err)

	tests := []struct {
		name      string
		demand    *zone.Result
		exclusion *zone.Result
	}{
		{"nil demand", nil, fx.exclusion},
		{"nil exclusion", fx.demand, nil},
		{"empty exclusion", fx.demand, empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Candidates(fx.eng, cands, tt.demand, tt.exclusion, 100)
			require.NoError(t, err)
			assert.Empty(t, ev.Records)
			assert.Equal(t, 0, ev.Summary.Total)
		})
	}
}

func TestCandidates_InvalidMinArea(t *testing.T) {
	fx := newFixture(t)
	_, err := Candidates(fx.eng, geometry.Collection{}, fx.demand, fx.exclusion, 0)
	require.Error(t, err)
	assert.True(t, fault.IsInvalidParameter(err))
}

func TestCandidates_Gates(t *testing.T) {
	fx := newFixture(t)
	cands := geometry.Collection{Features: []geometry.Feature{
		rect("far", "Far Field", 5000, 5000, 5100, 5100), // no demand overlap
		rect("on-road", "Verge", 290, 930, 310, 970),     // inside the road buffer
		rect("tiny", "Pocket", 100, 100, 105, 105),       // 25 m2 < 100
		rect("split", "Strip", 200, 400, 220, 2100),      // crosses the road buffer
		rect("good", "Meadow", 250, 100, 350, 200),       // clean
	}}

	ev, err := Candidates(fx.eng, cands, fx.demand, fx.exclusion, 100)
	require.NoError(t, err)

	assert.Equal(t, 5, ev.Summary.Total)
	assert.Equal(t, 2, ev.Summary.Feasible)
	assert.InDelta(t, 40.0, ev.Summary.SuccessRate, 1e-9)
	assert.Equal(t, map[Gate]int{GateDemand: 1, GateSafety: 1, GateArea: 1}, ev.Summary.Rejected)

	byID := map[string]Record{}
	for _, r := range ev.Records {
		byID[r.SiteID] = r
	}
	require.Contains(t, byID, "split")
	require.Contains(t, byID, "good")

	split := byID["split"]
	assert.InDelta(t, 20*1700.0, split.OriginalArea, 1e-6)
	assert.InDelta(t, 20*1700.0-20*60, split.SafeArea, 1e-6)
	assert.Less(t, split.CoveragePct, 100.0)
	assert.InDelta(t, 100.0, byID["good"].CoveragePct, 1e-9)
}

func TestCandidates_SafeAreaBounds(t *testing.T) {
	fx := newFixture(t)
	const minArea = 150.0
	var feats []geometry.Feature
	for i := 0; i < 12; i++ {
		x := float64(i*90 - 200)
		feats = append(feats, rect(string(rune('a'+i)), "", x, float64(i*170), x+40, float64(i*170)+60))
	}

	ev, err := Candidates(fx.eng, geometry.Collection{Features: feats}, fx.demand, fx.exclusion, minArea)
	require.NoError(t, err)
	require.NotEmpty(t, ev.Records)
	for _, r := range ev.Records {
		assert.LessOrEqual(t, r.SafeArea, r.OriginalArea)
		assert.GreaterOrEqual(t, r.SafeArea, minArea)
		assert.GreaterOrEqual(t, r.CoveragePct, 0.0)
		assert.LessOrEqual(t, r.CoveragePct, 100.0)
	}
}

func TestCandidates_GeometryFaultsAreIsolated(t *testing.T) {
	fx := newFixture(t)
	bowtie := geometry.Feature{
		ID:   "bowtie",
		Geom: geom.NewPolygonFlat(geom.XY, []float64{250, 100, 350, 200, 350, 100, 250, 200, 250, 100}, []int{10}),
	}
	point := geometry.Feature{ID: "pin", Geom: geom.NewPointFlat(geom.XY, []float64{300, 100})}
	cands := geometry.Collection{Features: []geometry.Feature{bowtie, point, rect("good", "", 250, 100, 350, 200)}}

	ev, err := Candidates(fx.eng, cands, fx.demand, fx.exclusion, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, ev.Summary.Total)
	assert.Equal(t, 1, ev.Summary.Feasible)
	require.Len(t, ev.Summary.Faults, 2)
	assert.Equal(t, "bowtie", ev.Summary.Faults[0].FeatureID)
	assert.Contains(t, ev.Summary.Faults[0].Error(), "invalid candidate geometry")
	assert.Equal(t, "pin", ev.Summary.Faults[1].FeatureID)
}

func TestCandidates_DefaultIdentifiers(t *testing.T) {
	fx := newFixture(t)
	f := rect("", "", 250, 100, 350, 200)

	ev, err := Candidates(fx.eng, geometry.Collection{Features: []geometry.Feature{f}}, fx.demand, fx.exclusion, 100)
	require.NoError(t, err)
	require.Len(t, ev.Records, 1)
	assert.Equal(t, "0", ev.Records[0].SiteID)
	assert.Equal(t, "Site_0", ev.Records[0].Name)
}

// A critical point whose buffer failed still counts for proximity.
func TestCandidates_DistanceCoversUnbufferedSources(t *testing.T) {
	fx := newFixture(t)
	stray, err := fx.eng.FromWKT("POINT (300 40)")
	require.NoError(t, err)
	demand := *fx.demand
	demand.Sources = append(append([]geometry.Shape{}, fx.demand.Sources...), stray)

	cands := geometry.Collection{Features: []geometry.Feature{rect("lot", "", 295, 0, 305, 30)}}
	ev, err := Candidates(fx.eng, cands, &demand, fx.exclusion, 100)
	require.NoError(t, err)
	require.Len(t, ev.Records, 1)
	assert.InDelta(t, 10.0, ev.Records[0].DistanceToCritical, 1e-9)
}

func TestNearestDistance_NoTargets(t *testing.T) {
	eng := geometry.NewEngine()
	s, err := eng.FromWKT("POLYGON((0 0, 1 0, 1 1, 0 1, 0 0))")
	require.NoError(t, err)
	d, err := nearestDistance(s, nil)
	require.NoError(t, err)
	assert.True(t, math.IsInf(d, 1))
}
