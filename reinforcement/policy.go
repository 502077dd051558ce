package reinforcement

import (
	"math"

	. "gridplan/grid_world"
)

// DecisionKind classifies a cell's entry in a policy.
type DecisionKind int

const (
	// Move means the cell has a best action.
	Move DecisionKind = iota
	// Goal marks the terminal cell.
	Goal
	// Blocked marks an obstacle.
	Blocked
	// NoAction marks a cell with no valid destination at all, e.g. one fenced in by obstacles.
	NoAction
)

func (k DecisionKind) String() string {
	switch k {
	case Move:
		return "move"
	case Goal:
		return "goal"
	case Blocked:
		return "blocked"
	case NoAction:
		return "none"
	}
	return "unknown"
}

// Decision is the policy's entry for one cell. Action is only meaningful when Kind is Move.
type Decision struct {
	Kind   DecisionKind
	Action Action
}

// Policy maps every grid cell to a Decision. It is built once by ExtractPolicy and is read-only.
type Policy struct {
	size      int
	decisions []Decision
}

// At returns the decision for the cell. The cell must be on the grid.
func (p *Policy) At(c Cell) Decision {
	return p.decisions[c.Row*p.size+c.Col]
}

// Size returns the grid dimension N.
func (p *Policy) Size() int { return p.size }

// Equal reports whether two policies make the same decision everywhere.
func (p *Policy) Equal(other *Policy) bool {
	if p.size != other.size {
		return false
	}
	for i := range p.decisions {
		if p.decisions[i] != other.decisions[i] {
			return false
		}
	}
	return true
}

// ExtractPolicy derives the greedy policy from a converged value table.
//
// Unlike Sweep, the comparison is on the destination's value alone (no reward or discount),
// and invalid destinations are excluded rather than treated as staying in place.
// Ties keep the earliest action in enumeration order, so the choice among equally valued
// moves depends on the configured action order.
func ExtractPolicy(gw *GridWorld, values *ValueTable) *Policy {
	policy := &Policy{
		size:      gw.Size(),
		decisions: make([]Decision, gw.NumCells()),
	}
	actions := gw.Actions()

	gw.Visit(func(cell Cell) {
		idx := gw.Index(cell)
		switch {
		case gw.IsObstacle(cell):
			policy.decisions[idx] = Decision{Kind: Blocked}
			return
		case gw.IsTerminal(cell):
			policy.decisions[idx] = Decision{Kind: Goal}
			return
		}

		decision := Decision{Kind: NoAction}
		maxVal := math.Inf(-1)
		for _, action := range actions {
			successor := gw.Transition(cell, action)
			if !gw.IsValid(successor) {
				continue
			}
			if val := values.At(successor); val > maxVal || decision.Kind == NoAction {
				maxVal = val
				decision = Decision{Kind: Move, Action: action}
			}
		}
		policy.decisions[idx] = decision
	})

	return policy
}
