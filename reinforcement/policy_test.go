package reinforcement

import (
	"context"
	"testing"

	. "gridplan/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

func actionNames(gw *GridWorld, policy *Policy) [][]string {
	names := make([][]string, gw.Size())
	for _, cell := range gw.Cells() {
		decision := policy.At(cell)
		name := decision.Kind.String()
		if decision.Kind == Move {
			name = decision.Action.Name
		}
		names[cell.Row] = append(names[cell.Row], name)
	}
	return names
}

func TestExtractPolicy(t *testing.T) {
	Convey("Given the converged reference values", t, func() {
		gw := mustWorld(ReferenceConfig())
		solution, err := Solve(context.Background(), gw, DefaultParams(), nil)
		So(err, ShouldBeNil)

		Convey("When the policy is extracted", func() {
			policy := ExtractPolicy(gw, solution.Values)

			So(actionNames(gw, policy), ShouldResemble, [][]string{
				{Down, Right, Down, Down},
				{Down, "blocked", Right, Down},
				{Down, Down, Down, Down},
				{Right, Right, Right, "goal"},
			})

			Convey("The penalty cell is an ordinary state with its own move", func() {
				decision := policy.At(Cell{Row: 2, Col: 2})
				So(decision.Kind, ShouldEqual, Move)
				So(decision.Action.Name, ShouldEqual, Down)
			})

			Convey("No move targets the obstacle", func() {
				for _, cell := range gw.Cells() {
					if decision := policy.At(cell); decision.Kind == Move {
						So(gw.Transition(cell, decision.Action), ShouldNotResemble, Cell{Row: 1, Col: 1})
					}
				}
			})

			Convey("Extraction is idempotent", func() {
				So(ExtractPolicy(gw, solution.Values).Equal(policy), ShouldBeTrue)
			})
		})
	})

	Convey("Given equally valued destinations", t, func() {
		cfg := Config{
			Size:          3,
			Start:         Cell{Row: 0, Col: 0},
			Goal:          Cell{Row: 2, Col: 2},
			DefaultReward: -1,
			Actions:       DefaultActions(),
		}

		Convey("The first action in enumeration order wins", func() {
			gw := mustWorld(cfg)
			solution, err := Solve(context.Background(), gw, DefaultParams(), nil)
			So(err, ShouldBeNil)
			So(solution.Values.At(Cell{Row: 2, Col: 1}), ShouldEqual, solution.Values.At(Cell{Row: 1, Col: 2}))
			So(ExtractPolicy(gw, solution.Values).At(Cell{Row: 1, Col: 1}).Action.Name, ShouldEqual, Down)
		})

		Convey("Reordering the action set changes the choice", func() {
			defaults := DefaultActions()
			cfg.Actions = []Action{defaults[3], defaults[2], defaults[1], defaults[0]}
			gw := mustWorld(cfg)
			solution, err := Solve(context.Background(), gw, DefaultParams(), nil)
			So(err, ShouldBeNil)
			So(ExtractPolicy(gw, solution.Values).At(Cell{Row: 1, Col: 1}).Action.Name, ShouldEqual, Right)
		})
	})

	Convey("Given a cell fenced in by obstacles and the grid edge", t, func() {
		gw := mustWorld(Config{
			Size:          3,
			Start:         Cell{Row: 2, Col: 0},
			Goal:          Cell{Row: 2, Col: 2},
			Obstacles:     []Cell{{Row: 0, Col: 1}, {Row: 1, Col: 0}},
			DefaultReward: -1,
			Actions:       DefaultActions(),
		})
		solution, err := Solve(context.Background(), gw, DefaultParams(), nil)
		So(err, ShouldBeNil)

		Convey("It gets the no-action sentinel", func() {
			policy := ExtractPolicy(gw, solution.Values)
			So(policy.At(Cell{Row: 0, Col: 0}).Kind, ShouldEqual, NoAction)
			So(policy.At(Cell{Row: 0, Col: 0}).Kind, ShouldNotEqual, Blocked)
		})

		Convey("Its value approaches the discounted sum of staying forever", func() {
			So(solution.Values.At(Cell{Row: 0, Col: 0}), ShouldAlmostEqual, -10, 1e-3)
		})
	})
}
