package pipeline

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PhaseStatus represents the outcome of a pipeline phase.
type PhaseStatus string

// Phase statuses.
const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// Phase names, in execution order.
const (
	PhaseDemand    = "1a_demand"
	PhaseExclusion = "1b_exclusion"
	PhaseEvaluate  = "2_evaluate"
	PhaseScore     = "3_score"
)

// Phase records the timing and outcome of one stage of a run.
type Phase struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration time.Duration  `json:"duration"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// phaseTracker appends phases from concurrent stages.
type phaseTracker struct {
	log    *zap.Logger
	mu     sync.Mutex
	phases []Phase
}

// track runs fn as the named phase and records its outcome. fn returns the
// phase metadata.
func (t *phaseTracker) track(name string, fn func() (map[string]any, error)) error {
	start := time.Now()
	meta, err := fn()
	ph := Phase{
		Name:     name,
		Status:   PhaseStatusComplete,
		Duration: time.Since(start),
		Metadata: meta,
	}
	if err != nil {
		ph.Status = PhaseStatusFailed
		ph.Error = err.Error()
		t.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Duration("duration", ph.Duration),
			zap.Error(err),
		)
	} else {
		t.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Duration("duration", ph.Duration),
		)
	}
	t.add(ph)
	return err
}

// skip records a phase that did not run.
func (t *phaseTracker) skip(name, reason string) {
	t.log.Info("pipeline: phase skipped", zap.String("phase", name), zap.String("reason", reason))
	t.add(Phase{Name: name, Status: PhaseStatusSkipped, Metadata: map[string]any{"reason": reason}})
}

func (t *phaseTracker) add(ph Phase) {
	t.mu.Lock()
	t.phases = append(t.phases, ph)
	t.mu.Unlock()
}

// sorted returns the phases in name order, which is execution order.
func (t *phaseTracker) sorted() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	slices.SortStableFunc(out, func(a, b Phase) int { return strings.Compare(a.Name, b.Name) })
	return out
}
