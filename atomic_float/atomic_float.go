package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 that one goroutine may write while others read,
// without locks. The solver publishes its latest sweep delta through one, and
// http handlers read it mid-solve.
// The float is stored as its IEEE-754 bits, so NaN and infinities round-trip.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 encapsulates a float64 for atomic operations.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.AtomicSet(val)
	return af
}

// AtomicRead atomically reads the float64.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicSet atomically overwrites the float64.
func (af *AtomicFloat64) AtomicSet(val float64) {
	af.bits.Store(math.Float64bits(val))
}

// AtomicAdd adds to the float64 once, and reports whether the add succeeded.
// If the value changed between read and write the add is dropped and the caller
// decides whether to retry, rather than looping here.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.bits.Load()
	newVal = math.Float64frombits(old) + addend
	succeeded = af.bits.CompareAndSwap(old, math.Float64bits(newVal))
	return
}
