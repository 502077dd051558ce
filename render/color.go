package render

import (
	"strings"
	"unicode/utf8"

	. "gridplan/grid_world"
	"gridplan/reinforcement"

	"github.com/logrusorgru/aurora"
)

// Colorize renders the policy like PolicyString, but with columns aligned and
// markers coloured for a console: start and goal green, obstacles gray,
// penalties red, bonuses cyan and unreachable cells magenta. With colors disabled
// the output is plain, aligned text.
func Colorize(gw *GridWorld, policy *reinforcement.Policy, symbols Symbols, colors bool) string {
	au := aurora.NewAurora(colors)
	grid := Policy(gw, policy, symbols)

	width := 0
	for _, row := range grid {
		for _, sym := range row {
			if n := utf8.RuneCountInString(sym); n > width {
				width = n
			}
		}
	}

	var sb strings.Builder
	for r, row := range grid {
		for c, sym := range row {
			if c > 0 {
				sb.WriteString(" ")
			}
			padded := sym
			if c < len(row)-1 {
				padded += strings.Repeat(" ", width-utf8.RuneCountInString(sym))
			}

			var styled aurora.Value
			switch sym {
			case symbols.Start:
				styled = au.Green(padded).Bold()
			case symbols.Goal:
				styled = au.Green(padded)
			case symbols.Blocked:
				styled = au.Gray(12, padded)
			case symbols.Penalty:
				styled = au.Red(padded)
			case symbols.Bonus:
				styled = au.Cyan(padded)
			case symbols.NoAction:
				styled = au.Magenta(padded)
			default:
				styled = au.Reset(padded)
			}
			sb.WriteString(styled.String())
		}
		if r < len(grid)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
