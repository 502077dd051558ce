package reinforcement

import (
	"context"
	"errors"
	"fmt"
	"math"

	. "gridplan/grid_world"

	"gonum.org/v1/gonum/floats"
)

// Params holds the value iteration hyper-parameters.
type Params struct {
	// Gamma is the discount factor, in [0, 1).
	Gamma float64
	// Theta is the convergence threshold: iteration halts once a sweep's max change is strictly below it.
	Theta float64
	// MaxSweeps bounds the number of sweeps. The fixed point is guaranteed for gamma < 1,
	// so this only trips on misconfiguration or an unreasonably small theta.
	MaxSweeps int
}

// Default hyper-parameters.
const (
	DefaultGamma     = 0.9
	DefaultTheta     = 1e-4
	DefaultMaxSweeps = 10000
)

// DefaultParams returns gamma=0.9, theta=1e-4 and a 10000 sweep bound.
func DefaultParams() Params {
	return Params{
		Gamma:     DefaultGamma,
		Theta:     DefaultTheta,
		MaxSweeps: DefaultMaxSweeps,
	}
}

var (
	// ErrInvalidParams is wrapped by Validate errors.
	ErrInvalidParams = errors.New("invalid value iteration params")
	// ErrNotConverged is returned when MaxSweeps is reached before delta falls below theta.
	ErrNotConverged = errors.New("value iteration did not converge")
)

// Validate checks the preconditions under which Solve is guaranteed to terminate.
func (p Params) Validate() error {
	if math.IsNaN(p.Gamma) || p.Gamma < 0 || p.Gamma >= 1 {
		return fmt.Errorf("%w: gamma must be in [0,1), got %v", ErrInvalidParams, p.Gamma)
	}
	if math.IsNaN(p.Theta) || p.Theta <= 0 {
		return fmt.Errorf("%w: theta must be positive, got %v", ErrInvalidParams, p.Theta)
	}
	if p.MaxSweeps <= 0 {
		return fmt.Errorf("%w: maxSweeps must be positive, got %d", ErrInvalidParams, p.MaxSweeps)
	}
	return nil
}

// SweepReport describes a single completed sweep. Values is a copy owned by the receiver.
type SweepReport struct {
	Sweep  int
	Delta  float64
	Values *ValueTable
}

// ProgressFunc is a callback by which Solve lends progress details after every sweep.
// Like the training hook it is synchronous and should complete quickly; it may block
// on ctx to apply backpressure.
type ProgressFunc func(context.Context, SweepReport)

// Solution is the outcome of Solve.
type Solution struct {
	// Values is the final value table.
	Values *ValueTable
	// Sweeps is the number of sweeps performed.
	Sweeps int
	// Deltas holds the max absolute change of every sweep, in order.
	Deltas []float64
	// Converged is false when Solve gave up at MaxSweeps or was cancelled.
	Converged bool
}

// Sweep performs one synchronous (Jacobi) Bellman optimality update over every valid,
// non-terminal cell and returns the new table and the max absolute change.
// Every candidate reads prev, never a value updated earlier in the same sweep.
// A move onto an obstacle or off the grid leaves the agent in place: it still earns the
// current cell's reward and is valued at the current cell's value.
// Terminal and obstacle cells are copied through unchanged.
func Sweep(gw *GridWorld, gamma float64, prev *ValueTable) (next *ValueTable, delta float64) {
	next = prev.Clone()
	actions := gw.Actions()

	gw.Visit(func(cell Cell) {
		if !gw.IsValid(cell) || gw.IsTerminal(cell) {
			return
		}

		reward := gw.Reward(cell)
		best := math.Inf(-1)
		for _, action := range actions {
			successor := gw.Transition(cell, action)
			if !gw.IsValid(successor) {
				successor = cell
			}
			candidate := reward + gamma*prev.At(successor)
			if candidate > best {
				best = candidate
			}
		}
		next.set(cell, best)
	})

	// Cells that were not updated are identical in both tables, so the max-norm of the
	// difference is the max change over updated cells.
	delta = floats.Distance(prev.values, next.values, math.Inf(1))
	return
}

// Solve runs value iteration from a zero-initialized table until a sweep changes no
// value by theta or more. The progress function, if not nil, is called after every sweep.
//
// Solve returns ErrNotConverged (wrapped) with the partial solution if MaxSweeps is
// reached, and the wrapped context error with the partial solution if ctx is done
// before convergence. Invalid params are reported before any sweep is performed.
func Solve(
	ctx context.Context,
	gw *GridWorld,
	params Params,
	progressFn ProgressFunc,
) (*Solution, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	solution := &Solution{
		Values: NewValueTable(gw.Size()),
	}

	for solution.Sweeps < params.MaxSweeps {
		// done-guard
		select {
		case <-ctx.Done():
			return solution, fmt.Errorf("solve cancelled after %d sweeps: %w", solution.Sweeps, ctx.Err())
		default:
		}

		var delta float64
		solution.Values, delta = Sweep(gw, params.Gamma, solution.Values)
		solution.Sweeps++
		solution.Deltas = append(solution.Deltas, delta)

		if progressFn != nil {
			progressFn(ctx, SweepReport{
				Sweep:  solution.Sweeps,
				Delta:  delta,
				Values: solution.Values.Clone(),
			})
		}

		if delta < params.Theta {
			solution.Converged = true
			return solution, nil
		}
	}

	return solution, fmt.Errorf("%w: %d sweeps, last delta %g, theta %g",
		ErrNotConverged, solution.Sweeps, solution.LastDelta(), params.Theta)
}

// LastDelta returns the final sweep's delta, or +Inf if no sweep was performed.
func (s *Solution) LastDelta() float64 {
	if len(s.Deltas) == 0 {
		return math.Inf(1)
	}
	return s.Deltas[len(s.Deltas)-1]
}
