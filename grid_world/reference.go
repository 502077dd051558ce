package grid_world

// ReferenceConfig is the classic 4x4 world: an obstacle at (1,1), a penalty cell
// at (2,2) and the goal in the bottom right corner. Analogous to DebugTrack, it is
// small enough to reason about by hand.
func ReferenceConfig() Config {
	return Config{
		Size:          4,
		Start:         Cell{0, 0},
		Goal:          Cell{3, 3},
		Obstacles:     []Cell{{1, 1}},
		DefaultReward: -1,
		RewardOverrides: map[Cell]float64{
			{2, 2}: -3,
			{3, 3}: 10,
		},
		Actions: DefaultActions(),
	}
}
