/*
Gridplan plans shortest paths on a square grid world by value iteration: it solves the
Bellman optimality equation for every free cell, extracts the greedy policy, and renders
it to the console. The same solve can be watched sweep by sweep in the browser, or its
convergence plotted to an html chart.
*/

package main

import (
	"fmt"
	"os"
)

func main() {
	rootCommand := GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
