// cell_views contains views derived from the Frame view-model: a flat,
// template-friendly rendition of a solver snapshot.
package cell_views

import (
	"fmt"
	"math"

	"gridplan/grid_world"
	"gridplan/reinforcement"
	"gridplan/render"
)

// Snapshot is the solver state published to views after each sweep.
type Snapshot struct {
	World     *grid_world.GridWorld
	Sweep     int
	Delta     float64
	Values    *reinforcement.ValueTable
	Policy    *reinforcement.Policy
	Converged bool
	// Done is set on the final snapshot, whether or not the solve converged.
	Done bool
}

// Frame is the view-model for one snapshot.
type Frame struct {
	Sweep     int
	Delta     float64
	Converged bool
	Done      bool
	Cells     [][]Cell
}

// Cell is a single grid cell oriented in svg coordinates: X is the column and Y the row,
// such that [0][0] is the top-left cell as printed in the console.
// As a rule of thumb, Cell fields should be immediately usable as view parameters.
type Cell struct {
	X, Y   int
	Value  float64
	Label  string
	Symbol string
	Fill   string
}

const (
	obstacleFill = "dimgray"
	goalFill     = "lightyellow"
	startFill    = "lightblue"
)

// Convert maps a snapshot to its frame.
func Convert(snap Snapshot) Frame {
	frame := Frame{
		Sweep:     snap.Sweep,
		Delta:     snap.Delta,
		Converged: snap.Converged,
		Done:      snap.Done,
	}

	gw := snap.World
	var symbols [][]string
	if snap.Policy != nil {
		symbols = render.Policy(gw, snap.Policy, render.EmojiSymbols)
	}
	minVal, maxVal := snap.Values.Range()

	frame.Cells = make([][]Cell, gw.Size())
	for row := range frame.Cells {
		frame.Cells[row] = make([]Cell, gw.Size())
		for col := range frame.Cells[row] {
			pos := grid_world.Cell{Row: row, Col: col}
			cell := Cell{
				X:     col,
				Y:     row,
				Value: snap.Values.At(pos),
			}
			if symbols != nil {
				cell.Symbol = symbols[row][col]
			}

			switch {
			case gw.IsObstacle(pos):
				cell.Label = "-"
				cell.Fill = obstacleFill
			case gw.IsTerminal(pos):
				cell.Label = fmt.Sprintf("%.2f", cell.Value)
				cell.Fill = goalFill
			case pos == gw.Start():
				cell.Label = fmt.Sprintf("%.2f", cell.Value)
				cell.Fill = startFill
			default:
				cell.Label = fmt.Sprintf("%.2f", cell.Value)
				cell.Fill = getRGBFill(cell.Value, minVal, maxVal)
			}
			frame.Cells[row][col] = cell
		}
	}
	return frame
}

// Returns an RGB value defined by where val lies along the number line between minVal and maxVal:
// red at the minimum, blue at the maximum.
func getRGBFill(val, minVal, maxVal float64) string {
	redPct := 0
	if span := maxVal - minVal; span > 0 && !math.IsInf(span, 0) {
		redPct = int(math.Round(100.0 * (maxVal - val) / span))
	}
	return fmt.Sprintf("rgb(%d%%,0%%,%d%%)", redPct, 100-redPct)
}
