package reinforcement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	. "gridplan/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the versioned envelope around every config document: a kind
// selecting the algorithm, and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// ValueIterationKind is the only supported config kind.
const ValueIterationKind = "valueIteration"

// ErrUnsupportedKind is returned for config documents of any other kind.
var ErrUnsupportedKind = errors.New("unsupported config kind")

// PlannerConfig encodes the grid world and the algorithm parameters outside of code.
// Yaml tags are lower case because viper folds all keys to lower case before the
// definition is re-marshalled.
type PlannerConfig struct {
	Grid    GridSpec     `yaml:"grid"`
	Rewards RewardSpec   `yaml:"rewards"`
	Actions []ActionSpec `yaml:"actions"`
	// HyperParams is a key-val list of param names and their values: gamma, theta, maxSweeps.
	HyperParams []HyperParameter `yaml:"hyperparams"`
	// SolveDeadline optionally bounds the solve, e.g. {duration: 5s}.
	SolveDeadline map[string]string `yaml:"solvedeadline"`
}

// GridSpec describes the grid; cells are [row, col] pairs.
type GridSpec struct {
	Size      int     `yaml:"size"`
	Start     []int   `yaml:"start"`
	Goal      []int   `yaml:"goal"`
	Obstacles [][]int `yaml:"obstacles"`
}

type RewardSpec struct {
	// Default is the step reward; -1 when omitted.
	Default   *float64         `yaml:"default"`
	Overrides []RewardOverride `yaml:"overrides"`
}

type RewardOverride struct {
	Cell   []int   `yaml:"cell"`
	Reward float64 `yaml:"reward"`
}

type ActionSpec struct {
	Name  string `yaml:"name"`
	Delta []int  `yaml:"delta"`
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// GetHyperParamOrDefault returns the named param's value, or defaultVal if it is absent.
func (cfg *PlannerConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// Params builds and validates the value iteration params.
func (cfg *PlannerConfig) Params() (Params, error) {
	params := Params{
		Gamma:     cfg.GetHyperParamOrDefault("gamma", DefaultGamma),
		Theta:     cfg.GetHyperParamOrDefault("theta", DefaultTheta),
		MaxSweeps: int(cfg.GetHyperParamOrDefault("maxSweeps", DefaultMaxSweeps)),
	}
	return params, params.Validate()
}

// GridConfig converts the grid, reward and action sections into a grid world config.
// The result still needs to pass NewGridWorld's validation; only malformed
// coordinates are rejected here.
func (cfg *PlannerConfig) GridConfig() (gc Config, err error) {
	gc.Size = cfg.Grid.Size
	gc.DefaultReward = -1
	if cfg.Rewards.Default != nil {
		gc.DefaultReward = *cfg.Rewards.Default
	}

	if gc.Start, err = toCell("start", cfg.Grid.Start); err != nil {
		return
	}
	if gc.Goal, err = toCell("goal", cfg.Grid.Goal); err != nil {
		return
	}
	for _, coords := range cfg.Grid.Obstacles {
		var obstacle Cell
		if obstacle, err = toCell("obstacle", coords); err != nil {
			return
		}
		gc.Obstacles = append(gc.Obstacles, obstacle)
	}

	gc.RewardOverrides = make(map[Cell]float64, len(cfg.Rewards.Overrides))
	for _, override := range cfg.Rewards.Overrides {
		var cell Cell
		if cell, err = toCell("reward override", override.Cell); err != nil {
			return
		}
		gc.RewardOverrides[cell] = override.Reward
	}

	if len(cfg.Actions) == 0 {
		gc.Actions = DefaultActions()
		return
	}
	for _, spec := range cfg.Actions {
		if len(spec.Delta) != 2 {
			err = fmt.Errorf("%w: action %q delta must be [drow, dcol], got %v", ErrInvalidConfig, spec.Name, spec.Delta)
			return
		}
		gc.Actions = append(gc.Actions, Action{Name: spec.Name, DRow: spec.Delta[0], DCol: spec.Delta[1]})
	}
	return
}

// World builds the validated grid world described by the config.
func (cfg *PlannerConfig) World() (*GridWorld, error) {
	gc, err := cfg.GridConfig()
	if err != nil {
		return nil, err
	}
	return NewGridWorld(gc)
}

func toCell(what string, coords []int) (Cell, error) {
	if len(coords) != 2 {
		return Cell{}, fmt.Errorf("%w: %s must be [row, col], got %v", ErrInvalidConfig, what, coords)
	}
	return Cell{Row: coords[0], Col: coords[1]}, nil
}

// WithSolveDeadline returns a context extended by the solve deadline, if one is specified.
func (cfg *PlannerConfig) WithSolveDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.SolveDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("solve deadline: %w", err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// DefaultConfig returns the reference 4x4 scenario with gamma=0.9 and theta=1e-4.
func DefaultConfig() *PlannerConfig {
	stepReward := -1.0
	return &PlannerConfig{
		Grid: GridSpec{
			Size:      4,
			Start:     []int{0, 0},
			Goal:      []int{3, 3},
			Obstacles: [][]int{{1, 1}},
		},
		Rewards: RewardSpec{
			Default: &stepReward,
			Overrides: []RewardOverride{
				{Cell: []int{2, 2}, Reward: -3},
				{Cell: []int{3, 3}, Reward: 10},
			},
		},
		HyperParams: []HyperParameter{
			{Key: "gamma", Val: DefaultGamma},
			{Key: "theta", Val: DefaultTheta},
		},
	}
}

// FromYaml reads a config document from a yaml file.
func FromYaml(path string) (*PlannerConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return fromViper(vp)
}

// FromBytes reads a config document from yaml bytes.
func FromBytes(doc []byte) (*PlannerConfig, error) {
	vp := viper.New()
	vp.SetConfigType("yaml")
	if err := vp.ReadConfig(bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return fromViper(vp)
}

// The definition is decoded in two steps: viper unmarshals the envelope, and the
// definition is round-tripped through yaml into the typed config.
func fromViper(vp *viper.Viper) (*PlannerConfig, error) {
	outerConfig := &OuterConfig{}
	if err := vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != ValueIterationKind {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, outerConfig.Kind)
	}

	spec, err := yaml.Marshal(outerConfig.Def)
	if err != nil {
		return nil, err
	}

	innerConfig := &PlannerConfig{}
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}

	return innerConfig, nil
}
