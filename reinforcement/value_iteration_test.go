package reinforcement

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	. "gridplan/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

func mustWorld(cfg Config) *GridWorld {
	gw, err := NewGridWorld(cfg)
	if err != nil {
		panic(err)
	}
	return gw
}

func TestSweep(t *testing.T) {
	Convey("When a single sweep is performed", t, func() {
		Convey("When starting from a zero table", func() {
			gw := mustWorld(ReferenceConfig())
			next, delta := Sweep(gw, 0.9, NewValueTable(gw.Size()))

			Convey("Every update reads the previous table, so each cell earns only its own reward", func() {
				for _, cell := range gw.Cells() {
					if gw.IsObstacle(cell) || gw.IsTerminal(cell) {
						So(next.At(cell), ShouldEqual, 0)
						continue
					}
					So(next.At(cell), ShouldEqual, gw.Reward(cell))
				}
				So(delta, ShouldEqual, 3.0)
			})
		})

		Convey("When a move would leave the grid, the agent stays in place", func() {
			gw := mustWorld(Config{
				Size:          2,
				Start:         Cell{Row: 0, Col: 0},
				Goal:          Cell{Row: 1, Col: 1},
				DefaultReward: -1,
				Actions:       DefaultActions(),
			})
			prev := NewValueTable(2)
			prev.set(Cell{Row: 0, Col: 0}, 10)

			next, delta := Sweep(gw, 0.5, prev)
			// up and left from (0,0) are off-grid: -1 + 0.5*V(0,0)
			So(next.At(Cell{Row: 0, Col: 0}), ShouldEqual, 4.0)
			// (0,1) moves left into (0,0): -1 + 0.5*10
			So(next.At(Cell{Row: 0, Col: 1}), ShouldEqual, 4.0)
			So(next.At(Cell{Row: 1, Col: 0}), ShouldEqual, 4.0)
			So(next.At(Cell{Row: 1, Col: 1}), ShouldEqual, 0)
			So(delta, ShouldEqual, 6.0)

			Convey("The previous table is not mutated", func() {
				So(prev.At(Cell{Row: 0, Col: 0}), ShouldEqual, 10)
				So(prev.At(Cell{Row: 0, Col: 1}), ShouldEqual, 0)
			})
		})

		Convey("When a move would enter an obstacle, the agent stays in place", func() {
			gw := mustWorld(Config{
				Size:          2,
				Start:         Cell{Row: 0, Col: 0},
				Goal:          Cell{Row: 1, Col: 1},
				Obstacles:     []Cell{{Row: 0, Col: 1}},
				DefaultReward: -1,
				Actions:       DefaultActions(),
			})
			prev := NewValueTable(2)
			prev.set(Cell{Row: 0, Col: 1}, 100)
			prev.set(Cell{Row: 0, Col: 0}, -2)

			next, _ := Sweep(gw, 0.5, prev)
			// the obstacle's value is never read: best is down to (1,0) at 0
			So(next.At(Cell{Row: 0, Col: 0}), ShouldEqual, -1.0)
			So(next.At(Cell{Row: 0, Col: 1}), ShouldEqual, 100)
		})
	})
}

func TestSolve(t *testing.T) {
	Convey("Given the reference grid world", t, func() {
		gw := mustWorld(ReferenceConfig())
		params := DefaultParams()

		Convey("When solved", func() {
			solution, err := Solve(context.Background(), gw, params, nil)
			So(err, ShouldBeNil)
			So(solution.Converged, ShouldBeTrue)
			So(solution.Sweeps, ShouldEqual, 7)
			So(solution.Deltas, ShouldHaveLength, 7)
			So(solution.LastDelta(), ShouldBeLessThan, params.Theta)

			Convey("The values match the hand-computed fixed point", func() {
				expected := map[Cell]float64{
					{Row: 0, Col: 0}: -4.68559, {Row: 0, Col: 1}: -4.0951, {Row: 0, Col: 2}: -3.439, {Row: 0, Col: 3}: -2.71,
					{Row: 1, Col: 0}: -4.0951, {Row: 1, Col: 1}: 0, {Row: 1, Col: 2}: -2.71, {Row: 1, Col: 3}: -1.9,
					{Row: 2, Col: 0}: -3.439, {Row: 2, Col: 1}: -2.71, {Row: 2, Col: 2}: -3.9, {Row: 2, Col: 3}: -1,
					{Row: 3, Col: 0}: -2.71, {Row: 3, Col: 1}: -1.9, {Row: 3, Col: 2}: -1, {Row: 3, Col: 3}: 0,
				}
				for cell, val := range expected {
					So(solution.Values.At(cell), ShouldAlmostEqual, val, 1e-9)
				}
			})

			Convey("The goal keeps its initial value despite its reward override", func() {
				So(solution.Values.At(gw.Goal()), ShouldEqual, 0)
			})
		})

		Convey("When a progress function is supplied", func() {
			reports := []SweepReport{}
			solution, err := Solve(context.Background(), gw, params, func(_ context.Context, report SweepReport) {
				reports = append(reports, report)
			})
			So(err, ShouldBeNil)
			So(reports, ShouldHaveLength, solution.Sweeps)

			for i, report := range reports {
				So(report.Sweep, ShouldEqual, i+1)
				So(report.Delta, ShouldEqual, solution.Deltas[i])
				// Terminal invariance: the goal never moves from zero across any sweep.
				So(report.Values.At(gw.Goal()), ShouldEqual, 0)
				// Obstacle exclusion: obstacles are never updated.
				So(report.Values.At(Cell{Row: 1, Col: 1}), ShouldEqual, 0)
			}

			Convey("Reported tables are copies", func() {
				last := reports[len(reports)-1].Values
				So(last.Equal(solution.Values), ShouldBeTrue)
				last.set(Cell{Row: 0, Col: 0}, 1000)
				So(solution.Values.At(Cell{Row: 0, Col: 0}), ShouldNotEqual, 1000)
			})
		})

		Convey("When the sweep bound is reached first", func() {
			params.MaxSweeps = 3
			solution, err := Solve(context.Background(), gw, params, nil)
			So(errors.Is(err, ErrNotConverged), ShouldBeTrue)
			So(solution, ShouldNotBeNil)
			So(solution.Converged, ShouldBeFalse)
			So(solution.Sweeps, ShouldEqual, 3)
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			solution, err := Solve(ctx, gw, params, nil)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(solution.Sweeps, ShouldEqual, 0)
			So(solution.Converged, ShouldBeFalse)
		})

		Convey("When the params are invalid, nothing is computed", func() {
			for _, bad := range []Params{
				{Gamma: 1, Theta: 1e-4, MaxSweeps: 10},
				{Gamma: -0.1, Theta: 1e-4, MaxSweeps: 10},
				{Gamma: 0.9, Theta: 0, MaxSweeps: 10},
				{Gamma: 0.9, Theta: 1e-4, MaxSweeps: 0},
			} {
				solution, err := Solve(context.Background(), gw, bad, nil)
				So(solution, ShouldBeNil)
				So(errors.Is(err, ErrInvalidParams), ShouldBeTrue)
			}
		})

		Convey("When solved twice, the results are bit-identical", func() {
			first, err := Solve(context.Background(), gw, params, nil)
			So(err, ShouldBeNil)
			second, err := Solve(context.Background(), mustWorld(ReferenceConfig()), params, nil)
			So(err, ShouldBeNil)
			So(first.Values.Equal(second.Values), ShouldBeTrue)
			So(first.Deltas, ShouldResemble, second.Deltas)
			So(ExtractPolicy(gw, first.Values).Equal(ExtractPolicy(gw, second.Values)), ShouldBeTrue)
		})
	})

	Convey("Given a grid world without reward overrides", t, func() {
		gw := mustWorld(Config{
			Size:          6,
			Start:         Cell{Row: 0, Col: 0},
			Goal:          Cell{Row: 5, Col: 5},
			Obstacles:     []Cell{{Row: 1, Col: 1}, {Row: 2, Col: 3}, {Row: 4, Col: 2}},
			DefaultReward: -1,
			Actions:       DefaultActions(),
		})

		Convey("The per-sweep delta never increases", func() {
			solution, err := Solve(context.Background(), gw, Params{Gamma: 0.95, Theta: 1e-6, MaxSweeps: 1000}, nil)
			So(err, ShouldBeNil)
			for i := 1; i < len(solution.Deltas); i++ {
				So(solution.Deltas[i], ShouldBeLessThanOrEqualTo, solution.Deltas[i-1])
			}
		})
	})

	Convey("Given a single cell world", t, func() {
		gw := mustWorld(Config{Size: 1, DefaultReward: -1, Actions: DefaultActions()})

		Convey("One sweep with no change converges", func() {
			solution, err := Solve(context.Background(), gw, DefaultParams(), nil)
			So(err, ShouldBeNil)
			So(solution.Sweeps, ShouldEqual, 1)
			So(solution.Deltas[0], ShouldEqual, 0)
		})
	})
}

// randomWorld builds a valid random grid world; obstacles never cover the goal or start.
func randomWorld(rng *rand.Rand) *GridWorld {
	size := 1 + rng.Intn(7)
	cfg := Config{
		Size:            size,
		Start:           Cell{Row: rng.Intn(size), Col: rng.Intn(size)},
		Goal:            Cell{Row: rng.Intn(size), Col: rng.Intn(size)},
		DefaultReward:   -rng.Float64() * 2,
		RewardOverrides: map[Cell]float64{},
		Actions:         DefaultActions(),
	}
	for i := 0; i < size; i++ {
		c := Cell{Row: rng.Intn(size), Col: rng.Intn(size)}
		if c != cfg.Goal && c != cfg.Start {
			cfg.Obstacles = append(cfg.Obstacles, c)
		}
		cfg.RewardOverrides[Cell{Row: rng.Intn(size), Col: rng.Intn(size)}] = rng.Float64()*20 - 10
	}
	return mustWorld(cfg)
}

func TestSolveRandomWorlds(t *testing.T) {
	Convey("When solving randomized grid worlds", t, func() {
		rng := rand.New(rand.NewSource(7375))
		for i := 0; i < 50; i++ {
			gw := randomWorld(rng)
			params := Params{Gamma: rng.Float64() * 0.95, Theta: 1e-4, MaxSweeps: DefaultMaxSweeps}

			solution, err := Solve(context.Background(), gw, params, nil)
			So(err, ShouldBeNil)
			So(solution.Converged, ShouldBeTrue)
			So(solution.LastDelta(), ShouldBeLessThan, params.Theta)
			So(solution.Values.At(gw.Goal()), ShouldEqual, 0)

			policy := ExtractPolicy(gw, solution.Values)
			So(policy.Equal(ExtractPolicy(gw, solution.Values)), ShouldBeTrue)
			for _, cell := range gw.Cells() {
				decision := policy.At(cell)
				switch {
				case gw.IsObstacle(cell):
					So(solution.Values.At(cell), ShouldEqual, 0)
					So(decision.Kind, ShouldEqual, Blocked)
				case gw.IsTerminal(cell):
					So(decision.Kind, ShouldEqual, Goal)
				case decision.Kind == Move:
					So(gw.IsValid(gw.Transition(cell, decision.Action)), ShouldBeTrue)
				default:
					So(decision.Kind, ShouldEqual, NoAction)
				}
			}
		}
	})
}
