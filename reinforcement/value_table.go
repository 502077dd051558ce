package reinforcement

import (
	. "gridplan/grid_world"

	"gonum.org/v1/gonum/floats"
)

// ValueTable is a flat, row-major table of state values over an N x N grid.
// A table is never shared between sweeps: Sweep always builds a new one, and
// callers outside the engine only ever see copies.
type ValueTable struct {
	size   int
	values []float64
}

// NewValueTable returns a zero-initialized table for an N x N grid.
func NewValueTable(size int) *ValueTable {
	return &ValueTable{
		size:   size,
		values: make([]float64, size*size),
	}
}

// Size returns the grid dimension N.
func (vt *ValueTable) Size() int { return vt.size }

// At returns the value of the cell. The cell must be on the grid.
func (vt *ValueTable) At(c Cell) float64 {
	return vt.values[c.Row*vt.size+c.Col]
}

func (vt *ValueTable) set(c Cell, val float64) {
	vt.values[c.Row*vt.size+c.Col] = val
}

// Clone returns an independent copy.
func (vt *ValueTable) Clone() *ValueTable {
	return &ValueTable{
		size:   vt.size,
		values: append([]float64(nil), vt.values...),
	}
}

// Values returns a copy of the row-major values.
func (vt *ValueTable) Values() []float64 {
	return append([]float64(nil), vt.values...)
}

// Rows returns the values as a [row][col] matrix, for views.
func (vt *ValueTable) Rows() [][]float64 {
	rows := make([][]float64, vt.size)
	for r := range rows {
		rows[r] = append([]float64(nil), vt.values[r*vt.size:(r+1)*vt.size]...)
	}
	return rows
}

// Range returns the min and max values in the table.
func (vt *ValueTable) Range() (min, max float64) {
	return floats.Min(vt.values), floats.Max(vt.values)
}

// Equal reports whether the two tables are bit-identical.
func (vt *ValueTable) Equal(other *ValueTable) bool {
	return vt.size == other.size && floats.Equal(vt.values, other.values)
}
