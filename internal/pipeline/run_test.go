package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/site-select/internal/evaluate"
	"github.com/sells-group/site-select/internal/fault"
	"github.com/sells-group/site-select/internal/geometry"
	"github.com/sells-group/site-select/internal/mcda"
	"github.com/sells-group/site-select/internal/provider"
	"github.com/sells-group/site-select/internal/zone"
)

const srid = provider.WebMercatorSRID

func point(id string, x, y float64) geometry.Feature {
	return geometry.Feature{ID: id, Name: id, Geom: geom.NewPointFlat(geom.XY, []float64{x, y})}
}

func rect(id string, x0, y0, x1, y1 float64) geometry.Feature {
	return geometry.Feature{
		ID:   id,
		Name: id,
		Geom: geom.NewPolygonFlat(geom.XY, []float64{x0, y0, x1, y0, x1, y1, x0, y1, x0, y0}, []int{10}),
	}
}

func line(id string, coords ...float64) geometry.Feature {
	return geometry.Feature{ID: id, Geom: geom.NewLineStringFlat(geom.XY, coords)}
}

// testDataset has three demand points with a road along y=950, one large and
// one small candidate inside the demand region and one far outside it.
func testDataset() *provider.Dataset {
	return &provider.Dataset{
		Source: "test",
		Critical: geometry.NewCollection(provider.LayerCritical, srid,
			point("school", 0, 0),
			point("hospital", 600, 0),
			point("clinic", 300, 500),
		),
		Candidates: geometry.NewCollection(provider.LayerCandidates, srid,
			rect("plaza", 250, 100, 350, 200),
			rect("lot", 295, 0, 305, 30),
			rect("farm", 5000, 5000, 5100, 5100),
		),
		Roads: geometry.NewCollection(provider.LayerRoads, srid,
			line("primary", -1000, 950, 1000, 950),
		),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		p := DefaultParams()
		p.ConcurrentZones = concurrent

		res, err := Run(context.Background(), testDataset(), p)
		require.NoError(t, err)

		assert.NotEmpty(t, res.RunID)
		assert.Equal(t, "test", res.Source)
		assert.Empty(t, res.Validation.Warnings)
		require.NoError(t, res.Outcome())

		require.NotNil(t, res.Demand)
		assert.Equal(t, 3, res.Demand.SourceCount)
		require.NotNil(t, res.Exclusion)
		assert.Equal(t, 1, res.Exclusion.SourceCount)

		sum := res.Evaluation.Summary
		assert.Equal(t, 3, sum.Total)
		assert.Equal(t, 2, sum.Feasible)
		assert.Equal(t, 1, sum.Rejected[evaluate.GateDemand])

		require.Len(t, res.Ranking.Top, 2)
		assert.Equal(t, "plaza", res.Ranking.Top[0].SiteID)
		assert.Equal(t, 1, res.Ranking.Top[0].Rank)
		assert.InDelta(t, 100.0, res.Ranking.Top[0].Composite, 1e-9)
		assert.Equal(t, "lot", res.Ranking.Top[1].SiteID)
		assert.InDelta(t, 0.0, res.Ranking.Top[1].Composite, 1e-9)

		require.Len(t, res.Phases, 4)
		names := make([]string, 0, len(res.Phases))
		for _, ph := range res.Phases {
			names = append(names, ph.Name)
			assert.Equal(t, PhaseStatusComplete, ph.Status, ph.Name)
		}
		assert.Equal(t, []string{PhaseDemand, PhaseExclusion, PhaseEvaluate, PhaseScore}, names)
	}
}

func TestRun_EmptyRoadsIsInsufficient(t *testing.T) {
	ds := testDataset()
	ds.Roads = geometry.NewCollection(provider.LayerRoads, srid)

	res, err := Run(context.Background(), ds, DefaultParams())
	require.NoError(t, err)
	assert.Contains(t, res.Validation.Warnings, "roads layer is empty")
	assert.Zero(t, res.Evaluation.Summary.Total)
	assert.True(t, res.Ranking.IsEmpty())
	assert.Len(t, res.Ranking.Stats.Categories, len(mcda.Categories))

	require.Len(t, res.Phases, 4)
	for _, ph := range res.Phases[:2] {
		assert.Equal(t, PhaseStatusComplete, ph.Status, ph.Name)
	}
	for _, ph := range res.Phases[2:] {
		assert.Equal(t, PhaseStatusSkipped, ph.Status, ph.Name)
		assert.Equal(t, "exclusion zone is empty", ph.Metadata["reason"])
	}
	assert.Equal(t, PhaseEvaluate, res.Phases[2].Name)
	assert.Equal(t, PhaseScore, res.Phases[3].Name)

	err = res.Outcome()
	require.Error(t, err)
	assert.True(t, eris.Is(err, fault.ErrInsufficientInput))
}

func TestRun_InvalidParams(t *testing.T) {
	p := DefaultParams()
	p.ServiceRadius = 0

	_, err := Run(context.Background(), testDataset(), p)
	require.Error(t, err)
	assert.True(t, fault.IsInvalidParameter(err))
}

func TestRun_InvalidDataset(t *testing.T) {
	ds := testDataset()
	ds.Roads.SRID = 32639

	_, err := Run(context.Background(), ds, DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roads layer SRID 32639 does not match 3857")
}

func TestRun_LonLatDatasetRefused(t *testing.T) {
	ds := testDataset()
	for _, c := range []*geometry.Collection{&ds.Critical, &ds.Candidates, &ds.Roads} {
		c.SRID = provider.LonLatSRID
	}

	_, err := Run(context.Background(), ds, DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical layer SRID 4326 is geographic")
}

func TestMissingZone(t *testing.T) {
	region, err := geometry.NewEngine().FromWKT("POLYGON ((0 0, 10 0, 10 10, 0 0))")
	require.NoError(t, err)
	full := &zone.Result{Region: region}

	assert.Equal(t, "", missingZone(&Result{Demand: full, Exclusion: full}))
	assert.Equal(t, "demand and exclusion zones are empty", missingZone(&Result{}))
	assert.Equal(t, "demand zone is empty", missingZone(&Result{Exclusion: full}))
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testDataset(), DefaultParams())
	require.Error(t, err)
	assert.True(t, eris.Is(err, context.Canceled))
}

func TestRun_CoverageOnlyWeightsTie(t *testing.T) {
	// Both feasible sites are fully covered, so coverage alone cannot separate them.
	p := DefaultParams()
	p.Weights = mcda.Weights{ServiceCoverage: 1}

	res, err := Run(context.Background(), testDataset(), p)
	require.NoError(t, err)
	require.Len(t, res.Ranking.Scored, 2)
	for _, s := range res.Ranking.Scored {
		assert.Equal(t, 1, s.Rank)
		assert.InDelta(t, 50.0, s.Composite, 1e-9)
	}
}

func TestResult_Summary(t *testing.T) {
	res, err := Run(context.Background(), testDataset(), DefaultParams())
	require.NoError(t, err)

	s := res.Summary()
	assert.Equal(t, res.RunID, s.RunID)
	assert.Equal(t, 3, s.Demand.Sources)
	assert.Equal(t, 500.0, s.Demand.Distance)
	assert.Greater(t, s.Demand.AreaKM2, 0.0)
	assert.Equal(t, 30.0, s.Exclusion.Distance)
	assert.Equal(t, 3, s.Candidates.Total)
	assert.Equal(t, 2, s.Candidates.Feasible)
	assert.InDelta(t, 200.0/3, s.Candidates.SuccessRate, 1e-9)
	assert.Equal(t, 2, s.Scores.Analyzed)
	assert.Equal(t, 2, s.Scores.Recommended)
	assert.Len(t, s.Scores.Categories, 4)
}

func TestResult_NilSafe(t *testing.T) {
	var r *Result
	assert.Equal(t, Summary{}, r.Summary())
	assert.True(t, eris.Is(r.Outcome(), fault.ErrInsufficientInput))
}
