package render

import (
	"fmt"
	"io"

	"gridplan/reinforcement"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ConvergenceChart writes an html page plotting each sweep's max value change
// against the convergence threshold.
func ConvergenceChart(w io.Writer, solution *reinforcement.Solution, theta float64) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Value iteration convergence",
			Subtitle: fmt.Sprintf("%d sweeps, converged: %t", solution.Sweeps, solution.Converged),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sweep"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "delta"}),
	)

	sweeps := make([]string, 0, len(solution.Deltas))
	deltas := make([]opts.LineData, 0, len(solution.Deltas))
	thresholds := make([]opts.LineData, 0, len(solution.Deltas))
	for i, delta := range solution.Deltas {
		sweeps = append(sweeps, fmt.Sprintf("%d", i+1))
		deltas = append(deltas, opts.LineData{Value: delta})
		thresholds = append(thresholds, opts.LineData{Value: theta})
	}

	line.SetXAxis(sweeps).
		AddSeries("delta", deltas).
		AddSeries("theta", thresholds)

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render convergence chart: %w", err)
	}
	return nil
}
