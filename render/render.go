// Package render turns a policy into something a person can read: a grid of
// symbols for the console, and a convergence chart.
package render

import (
	"fmt"
	"strings"

	. "gridplan/grid_world"
	"gridplan/reinforcement"
)

// Symbols is a set of markers for each kind of cell.
type Symbols struct {
	Start, Goal, Blocked, Penalty, Bonus, NoAction string
	// Actions maps action names to symbols; unmapped actions render as their name.
	Actions map[string]string
}

// TextSymbols renders markers as words and actions by name.
var TextSymbols = Symbols{
	Start:    "START",
	Goal:     "GOAL",
	Blocked:  "BLOCK",
	Penalty:  "PENALTY",
	Bonus:    "BONUS",
	NoAction: "NONE",
}

// EmojiSymbols renders markers and compass moves as pictographs.
var EmojiSymbols = Symbols{
	Start:    "🚩",
	Goal:     "🏁",
	Blocked:  "🧱",
	Penalty:  "⚠️",
	Bonus:    "💎",
	NoAction: "⛔",
	Actions: map[string]string{
		Up:    "⬆️",
		Down:  "⬇️",
		Left:  "⬅️",
		Right: "➡️",
	},
}

func (s Symbols) action(a Action) string {
	if sym, ok := s.Actions[a.Name]; ok {
		return sym
	}
	return a.Name
}

// Policy returns one symbol per cell, row-major from the top row. Markers take
// precedence over the policy's move: start, then goal, obstacle, reward overrides.
// Overrides below the default reward are penalties and those above are bonuses.
func Policy(gw *GridWorld, policy *reinforcement.Policy, symbols Symbols) [][]string {
	grid := make([][]string, gw.Size())
	gw.Visit(func(cell Cell) {
		grid[cell.Row] = append(grid[cell.Row], symbolAt(gw, policy, symbols, cell))
	})
	return grid
}

func symbolAt(gw *GridWorld, policy *reinforcement.Policy, symbols Symbols, cell Cell) string {
	switch {
	case cell == gw.Start():
		return symbols.Start
	case gw.IsTerminal(cell):
		return symbols.Goal
	case gw.IsObstacle(cell):
		return symbols.Blocked
	case gw.HasRewardOverride(cell) && gw.Reward(cell) < gw.DefaultReward():
		return symbols.Penalty
	case gw.HasRewardOverride(cell) && gw.Reward(cell) > gw.DefaultReward():
		return symbols.Bonus
	}

	decision := policy.At(cell)
	switch decision.Kind {
	case reinforcement.Move:
		return symbols.action(decision.Action)
	case reinforcement.Goal:
		return symbols.Goal
	case reinforcement.Blocked:
		return symbols.Blocked
	}
	return symbols.NoAction
}

// PolicyString joins the symbols of each row with single spaces, one row per line.
func PolicyString(gw *GridWorld, policy *reinforcement.Policy, symbols Symbols) string {
	return joinGrid(Policy(gw, policy, symbols))
}

func joinGrid(grid [][]string) string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = strings.Join(row, " ")
	}
	return strings.Join(lines, "\n")
}

// Values formats the value table with two decimals; obstacles show as '-'.
func Values(gw *GridWorld, values *reinforcement.ValueTable) string {
	grid := make([][]string, gw.Size())
	gw.Visit(func(cell Cell) {
		s := fmt.Sprintf("%7s", "-")
		if !gw.IsObstacle(cell) {
			s = fmt.Sprintf("%7.2f", values.At(cell))
		}
		grid[cell.Row] = append(grid[cell.Row], s)
	})
	return joinGrid(grid)
}
