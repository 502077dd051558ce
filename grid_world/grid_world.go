package grid_world

import (
	"errors"
	"fmt"
)

// Cell is a grid position. Row 0 is the top row when printed in a console,
// and Col 0 is the left column. Unlike the racetrack states there is no velocity
// component; the agent's state is purely its position.
type Cell struct {
	Row, Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Action is a named, deterministic displacement. The set of actions is closed
// and ordered; the order matters for policy tie-breaking.
type Action struct {
	Name       string
	DRow, DCol int
}

// Canonical action names.
const (
	Up    = "up"
	Down  = "down"
	Left  = "left"
	Right = "right"
)

// DefaultActions returns the four compass moves in canonical enumeration order.
func DefaultActions() []Action {
	return []Action{
		{Name: Up, DRow: -1, DCol: 0},
		{Name: Down, DRow: 1, DCol: 0},
		{Name: Left, DRow: 0, DCol: -1},
		{Name: Right, DRow: 0, DCol: 1},
	}
}

// Config describes a square grid world. Everything that was a constant in the
// racetrack (track layout, rewards) is an input here.
type Config struct {
	// Size is the grid dimension N of an N x N grid.
	Size          int
	Start         Cell
	Goal          Cell
	Obstacles     []Cell
	DefaultReward float64
	// RewardOverrides replaces DefaultReward for specific cells.
	RewardOverrides map[Cell]float64
	// Actions is the ordered action set, usually DefaultActions(). It may not be empty.
	Actions []Action
}

// ErrInvalidConfig is wrapped by every configuration error returned by NewGridWorld.
var ErrInvalidConfig = errors.New("invalid grid world config")

// GridWorld is the environment model: state space, action set, transition and reward
// functions. It is immutable once built.
type GridWorld struct {
	size          int
	start, goal   Cell
	obstacles     map[Cell]struct{}
	defaultReward float64
	overrides     map[Cell]float64
	actions       []Action
}

// NewGridWorld validates the config and builds the environment. All configuration
// errors are detected here, before any values are computed.
func NewGridWorld(cfg Config) (*GridWorld, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: grid size must be positive, got %d", ErrInvalidConfig, cfg.Size)
	}

	gw := &GridWorld{
		size:          cfg.Size,
		start:         cfg.Start,
		goal:          cfg.Goal,
		obstacles:     make(map[Cell]struct{}, len(cfg.Obstacles)),
		defaultReward: cfg.DefaultReward,
		overrides:     make(map[Cell]float64, len(cfg.RewardOverrides)),
	}

	if !gw.InBounds(cfg.Start) {
		return nil, fmt.Errorf("%w: start %v outside %dx%d grid", ErrInvalidConfig, cfg.Start, cfg.Size, cfg.Size)
	}
	if !gw.InBounds(cfg.Goal) {
		return nil, fmt.Errorf("%w: goal %v outside %dx%d grid", ErrInvalidConfig, cfg.Goal, cfg.Size, cfg.Size)
	}
	for _, obstacle := range cfg.Obstacles {
		if !gw.InBounds(obstacle) {
			return nil, fmt.Errorf("%w: obstacle %v outside %dx%d grid", ErrInvalidConfig, obstacle, cfg.Size, cfg.Size)
		}
		gw.obstacles[obstacle] = struct{}{}
	}
	if gw.IsObstacle(cfg.Goal) {
		return nil, fmt.Errorf("%w: goal %v is an obstacle", ErrInvalidConfig, cfg.Goal)
	}
	if gw.IsObstacle(cfg.Start) {
		return nil, fmt.Errorf("%w: start %v is an obstacle", ErrInvalidConfig, cfg.Start)
	}
	for cell, reward := range cfg.RewardOverrides {
		if !gw.InBounds(cell) {
			return nil, fmt.Errorf("%w: reward override %v outside %dx%d grid", ErrInvalidConfig, cell, cfg.Size, cfg.Size)
		}
		gw.overrides[cell] = reward
	}

	if len(cfg.Actions) == 0 {
		return nil, fmt.Errorf("%w: action set is empty", ErrInvalidConfig)
	}
	seen := map[string]bool{}
	for _, action := range cfg.Actions {
		if action.Name == "" {
			return nil, fmt.Errorf("%w: action with delta (%d,%d) has no name", ErrInvalidConfig, action.DRow, action.DCol)
		}
		if seen[action.Name] {
			return nil, fmt.Errorf("%w: duplicate action %q", ErrInvalidConfig, action.Name)
		}
		if action.DRow == 0 && action.DCol == 0 {
			return nil, fmt.Errorf("%w: action %q does not move", ErrInvalidConfig, action.Name)
		}
		seen[action.Name] = true
	}
	gw.actions = append([]Action(nil), cfg.Actions...)

	return gw, nil
}

// Size returns the grid dimension N.
func (gw *GridWorld) Size() int { return gw.size }

// Start returns the agent's start cell. It only matters for rendering.
func (gw *GridWorld) Start() Cell { return gw.start }

// Goal returns the single terminal cell.
func (gw *GridWorld) Goal() Cell { return gw.goal }

// DefaultReward returns the per-step reward of cells without an override.
func (gw *GridWorld) DefaultReward() float64 { return gw.defaultReward }

// Actions returns a copy of the ordered action set.
func (gw *GridWorld) Actions() []Action {
	return append([]Action(nil), gw.actions...)
}

// NumCells is N*N, the length of a value table over this world.
func (gw *GridWorld) NumCells() int { return gw.size * gw.size }

// InBounds reports whether the cell lies on the grid, regardless of obstacles.
func (gw *GridWorld) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < gw.size && c.Col >= 0 && c.Col < gw.size
}

// IsObstacle reports whether the cell is impassable.
func (gw *GridWorld) IsObstacle(c Cell) bool {
	_, ok := gw.obstacles[c]
	return ok
}

// IsValid reports whether the agent may occupy the cell: on the grid and not an obstacle.
func (gw *GridWorld) IsValid(c Cell) bool {
	return gw.InBounds(c) && !gw.IsObstacle(c)
}

// IsTerminal reports whether the cell is the goal. Obstacles are not terminal.
func (gw *GridWorld) IsTerminal(c Cell) bool {
	return c == gw.goal
}

// Reward returns the reward for taking a step while occupying the cell.
// Note this is keyed on the current cell, not the destination.
func (gw *GridWorld) Reward(c Cell) float64 {
	if r, ok := gw.overrides[c]; ok {
		return r
	}
	return gw.defaultReward
}

// HasRewardOverride reports whether the cell's reward differs by configuration from the default.
func (gw *GridWorld) HasRewardOverride(c Cell) bool {
	_, ok := gw.overrides[c]
	return ok
}

// Transition applies the action's displacement. The result is not validated;
// callers check IsValid.
func (gw *GridWorld) Transition(c Cell, a Action) Cell {
	return Cell{Row: c.Row + a.DRow, Col: c.Col + a.DCol}
}

// Index returns the row-major offset of the cell, for flat value tables.
func (gw *GridWorld) Index(c Cell) int {
	return c.Row*gw.size + c.Col
}

// Cells returns every grid cell in row-major order, top to bottom.
func (gw *GridWorld) Cells() []Cell {
	cells := make([]Cell, 0, gw.NumCells())
	for row := 0; row < gw.size; row++ {
		for col := 0; col < gw.size; col++ {
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells
}

// Visit calls fn for every cell in row-major order.
func (gw *GridWorld) Visit(fn func(c Cell)) {
	for _, c := range gw.Cells() {
		fn(c)
	}
}
