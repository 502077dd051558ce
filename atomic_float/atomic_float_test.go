package atomic_float

import (
	"math"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicFloat64(t *testing.T) {
	Convey("When reading and setting", t, func() {
		af := NewAtomicFloat64(1.5)
		So(af.AtomicRead(), ShouldEqual, 1.5)

		af.AtomicSet(math.Inf(1))
		So(math.IsInf(af.AtomicRead(), 1), ShouldBeTrue)

		af.AtomicSet(math.NaN())
		So(math.IsNaN(af.AtomicRead()), ShouldBeTrue)

		var zero AtomicFloat64
		So(zero.AtomicRead(), ShouldEqual, 0)
	})

	Convey("When one writer publishes while many readers observe", t, func() {
		af := NewAtomicFloat64(0)
		numWrites := 3000
		numReaders := 50

		start := make(chan struct{})
		wg := sync.WaitGroup{}
		wg.Add(numReaders)
		torn := make(chan float64, numReaders)
		reader := func() {
			defer wg.Done()
			<-start
			for i := 0; i < numWrites; i++ {
				// Every published value is a whole number; anything else is a torn read.
				if val := af.AtomicRead(); val != math.Trunc(val) {
					torn <- val
					return
				}
			}
		}

		for i := 0; i < numReaders; i++ {
			go reader()
		}

		// Wait for goroutines to begin
		time.Sleep(time.Millisecond * 10)
		close(start)
		for i := 1; i <= numWrites; i++ {
			af.AtomicSet(float64(i))
		}
		wg.Wait()
		close(torn)

		So(len(torn), ShouldEqual, 0)
		So(af.AtomicRead(), ShouldEqual, float64(numWrites))
	})

	Convey("When multiple writers add to the float value concurrently", t, func() {
		af := NewAtomicFloat64(0)
		numOps := 3000
		numWriters := 200

		start := make(chan struct{})
		wg := sync.WaitGroup{}
		wg.Add(numWriters)
		adder := func() {
			<-start
			for i := 0; i < numOps; i++ {
				for _, succeeded := af.AtomicAdd(1.0); !succeeded; _, succeeded = af.AtomicAdd(1.0) {
				}
			}
			wg.Done()
		}

		for i := 0; i < numWriters; i++ {
			go adder()
		}

		time.Sleep(time.Millisecond * 10)
		close(start)
		wg.Wait()
		So(af.AtomicRead(), ShouldEqual, float64(numOps*numWriters))
	})
}
