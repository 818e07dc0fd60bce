// Package pipeline orchestrates one siting run: dataset validation, demand
// and exclusion zones, candidate evaluation and MCDA ranking.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/site-select/internal/evaluate"
	"github.com/sells-group/site-select/internal/fault"
	"github.com/sells-group/site-select/internal/geometry"
	"github.com/sells-group/site-select/internal/mcda"
	"github.com/sells-group/site-select/internal/provider"
	"github.com/sells-group/site-select/internal/zone"
)

// Result is everything one run produced.
type Result struct {
	RunID      string
	Source     string
	StartedAt  time.Time
	Params     Params
	Validation Report
	Demand     *zone.Result
	Exclusion  *zone.Result
	Evaluation *evaluate.Evaluation
	Ranking    *mcda.Ranking
	Phases     []Phase
}

// Outcome returns a wrapped fault.ErrInsufficientInput when the run produced
// no feasible site, and nil otherwise.
func (r *Result) Outcome() error {
	if r == nil || r.Ranking.IsEmpty() {
		return eris.Wrap(fault.ErrInsufficientInput, "pipeline: no feasible sites")
	}
	return nil
}

// Run executes the full analysis over ds. Invalid parameters and blocking
// dataset errors fail the run before any geometry work; empty inputs produce
// an empty result. The demand and exclusion zones are built concurrently
// unless p.ConcurrentZones is false.
func Run(ctx context.Context, ds *provider.Dataset, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:      uuid.New().String(),
		StartedAt:  time.Now().UTC(),
		Params:     p,
		Validation: Validate(ds),
	}
	log := zap.L().With(zap.String("run_id", res.RunID))

	for _, w := range res.Validation.Warnings {
		log.Warn("pipeline: dataset warning", zap.String("warning", w))
	}
	if err := res.Validation.Err(); err != nil {
		return nil, err
	}
	res.Source = ds.Source

	log.Info("pipeline: starting analysis",
		zap.String("source", ds.Source),
		zap.Int("critical", ds.Critical.Len()),
		zap.Int("candidates", ds.Candidates.Len()),
		zap.Int("roads", ds.Roads.Len()),
	)

	eng := geometry.NewEngine(geometry.WithQuadSegs(p.QuadSegs))
	tr := &phaseTracker{log: log}
	defer func() { res.Phases = tr.sorted() }()

	if err := buildZones(ctx, eng, ds, p, res, tr); err != nil {
		return nil, err
	}

	if reason := missingZone(res); reason != "" {
		tr.skip(PhaseEvaluate, reason)
		tr.skip(PhaseScore, reason)
		res.Evaluation = evaluate.Empty()
		res.Ranking = mcda.EmptyRanking()
		log.Info("pipeline: analysis complete, no feasible sites", zap.String("reason", reason))
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: evaluate")
	}
	err := tr.track(PhaseEvaluate, func() (map[string]any, error) {
		ev, evErr := evaluate.Candidates(eng, ds.Candidates, res.Demand, res.Exclusion, p.MinSiteArea)
		if evErr != nil {
			return nil, evErr
		}
		res.Evaluation = ev
		return map[string]any{
			"total":    ev.Summary.Total,
			"feasible": ev.Summary.Feasible,
			"faults":   len(ev.Summary.Faults),
		}, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: evaluate")
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: score")
	}
	err = tr.track(PhaseScore, func() (map[string]any, error) {
		rk, rkErr := mcda.ScoreAndRank(res.Evaluation.Records, p.Weights, p.TopN)
		if rkErr != nil {
			return nil, rkErr
		}
		res.Ranking = rk
		return map[string]any{
			"analyzed":    rk.Stats.Analyzed,
			"recommended": rk.Stats.Recommended,
		}, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: score")
	}

	log.Info("pipeline: analysis complete",
		zap.Int("feasible", res.Evaluation.Summary.Feasible),
		zap.Int("recommended", res.Ranking.Stats.Recommended),
		zap.Duration("elapsed", time.Since(res.StartedAt)),
	)
	return res, nil
}

// buildZones builds the demand and exclusion regions into res. The GEOS
// context serializes its own calls, so both builders share eng.
func buildZones(ctx context.Context, eng *geometry.Engine, ds *provider.Dataset, p Params, res *Result, tr *phaseTracker) error {
	demand := func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return tr.track(PhaseDemand, func() (map[string]any, error) {
			z, err := zone.BuildDemand(eng, ds.Critical, p.ServiceRadius)
			if err != nil {
				return nil, err
			}
			res.Demand = z
			return zoneMeta(z), nil
		})
	}
	exclusion := func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return tr.track(PhaseExclusion, func() (map[string]any, error) {
			z, err := zone.BuildExclusion(eng, ds.Roads, p.RoadBuffer)
			if err != nil {
				return nil, err
			}
			res.Exclusion = z
			return zoneMeta(z), nil
		})
	}

	if !p.ConcurrentZones {
		if err := demand(ctx); err != nil {
			return eris.Wrap(err, "pipeline: demand zone")
		}
		if err := exclusion(ctx); err != nil {
			return eris.Wrap(err, "pipeline: exclusion zone")
		}
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eris.Wrap(demand(gCtx), "pipeline: demand zone")
	})
	g.Go(func() error {
		return eris.Wrap(exclusion(gCtx), "pipeline: exclusion zone")
	})
	return g.Wait()
}

// missingZone explains why candidates cannot be evaluated, or returns "".
func missingZone(res *Result) string {
	switch {
	case res.Demand.IsEmpty() && res.Exclusion.IsEmpty():
		return "demand and exclusion zones are empty"
	case res.Demand.IsEmpty():
		return "demand zone is empty"
	case res.Exclusion.IsEmpty():
		return "exclusion zone is empty"
	default:
		return ""
	}
}

func zoneMeta(z *zone.Result) map[string]any {
	return map[string]any{
		"sources":  z.SourceCount,
		"buffers":  len(z.Buffers),
		"faults":   len(z.Faults),
		"area_km2": z.AreaKM2,
	}
}
