package server

import (
	"math"
	"sync/atomic"

	"gridplan/atomic_float"
	"gridplan/grid_world"
	"gridplan/reinforcement"
	"gridplan/render"
	"gridplan/server/cell_views"
)

// Tracker records solver progress. The solver goroutine writes it through Observe
// and Finish while http handlers read it concurrently.
type Tracker struct {
	world     *grid_world.GridWorld
	sweeps    atomic.Int64
	delta     *atomic_float.AtomicFloat64
	converged atomic.Bool
	done      atomic.Bool
	latest    atomic.Pointer[cell_views.Snapshot]
	policy    atomic.Pointer[[][]string]
	failure   atomic.Pointer[string]
}

// Status is the json body served at /status. Delta is null until the first sweep.
type Status struct {
	Sweeps    int      `json:"sweeps"`
	Delta     *float64 `json:"delta"`
	Converged bool     `json:"converged"`
	Done      bool     `json:"done"`
	Error     string   `json:"error,omitempty"`
}

// NewTracker returns a tracker whose latest snapshot is the zero table.
func NewTracker(gw *grid_world.GridWorld) *Tracker {
	tracker := &Tracker{
		world: gw,
		delta: atomic_float.NewAtomicFloat64(math.Inf(1)),
	}
	values := reinforcement.NewValueTable(gw.Size())
	tracker.latest.Store(&cell_views.Snapshot{
		World:  gw,
		Delta:  math.Inf(1),
		Values: values,
		Policy: reinforcement.ExtractPolicy(gw, values),
	})
	return tracker
}

// Observe records a sweep report and returns the snapshot derived from it.
func (tr *Tracker) Observe(report reinforcement.SweepReport) cell_views.Snapshot {
	snap := cell_views.Snapshot{
		World:  tr.world,
		Sweep:  report.Sweep,
		Delta:  report.Delta,
		Values: report.Values,
		Policy: reinforcement.ExtractPolicy(tr.world, report.Values),
	}
	tr.delta.AtomicSet(report.Delta)
	tr.sweeps.Store(int64(report.Sweep))
	tr.latest.Store(&snap)
	return snap
}

// Finish records the solve's outcome and returns the final snapshot.
// The rendered policy is published only for a converged solution.
func (tr *Tracker) Finish(solution *reinforcement.Solution, err error) cell_views.Snapshot {
	snap := *tr.latest.Load()
	snap.Done = true

	if solution != nil {
		snap.Sweep = solution.Sweeps
		snap.Delta = solution.LastDelta()
		snap.Values = solution.Values
		snap.Policy = reinforcement.ExtractPolicy(tr.world, solution.Values)
		snap.Converged = solution.Converged

		tr.sweeps.Store(int64(solution.Sweeps))
		tr.delta.AtomicSet(snap.Delta)
		tr.converged.Store(solution.Converged)
		if solution.Converged {
			rendered := render.Policy(tr.world, snap.Policy, render.TextSymbols)
			tr.policy.Store(&rendered)
		}
	}
	if err != nil {
		msg := err.Error()
		tr.failure.Store(&msg)
	}

	tr.latest.Store(&snap)
	tr.done.Store(true)
	return snap
}

// Latest returns the most recent snapshot.
func (tr *Tracker) Latest() cell_views.Snapshot {
	return *tr.latest.Load()
}

// Status returns the current progress.
func (tr *Tracker) Status() Status {
	status := Status{
		Sweeps:    int(tr.sweeps.Load()),
		Converged: tr.converged.Load(),
		Done:      tr.done.Load(),
	}
	if delta := tr.delta.AtomicRead(); !math.IsInf(delta, 0) && !math.IsNaN(delta) {
		status.Delta = &delta
	}
	if msg := tr.failure.Load(); msg != nil {
		status.Error = *msg
	}
	return status
}

// Policy returns the rendered policy, and false until the solve has converged.
func (tr *Tracker) Policy() ([][]string, bool) {
	rendered := tr.policy.Load()
	if rendered == nil {
		return nil, false
	}
	return *rendered, true
}
