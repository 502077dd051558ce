package root_view

import (
	"context"
	"html/template"
	"testing"
	"time"

	"gridplan/server/cell_views"
	"gridplan/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func textUpdate(id, value string) fastview.EleUpdate {
	return fastview.EleUpdate{EleId: id, Ops: []fastview.Op{{Key: fastview.TextContent, Value: value}}}
}

func TestBatchify(t *testing.T) {
	Convey("When updates arrive within one period", t, func() {
		done := make(chan struct{})
		defer close(done)

		source := make(chan []fastview.EleUpdate, 2)
		source <- []fastview.EleUpdate{textUpdate("a", "1"), textUpdate("b", "1")}
		source <- []fastview.EleUpdate{textUpdate("a", "2")}
		batches := batchify(done, source, time.Millisecond*50)

		Convey("Only the latest update per element is sent, in first-seen order", func() {
			select {
			case batch := <-batches:
				So(batch, ShouldResemble, []fastview.EleUpdate{textUpdate("a", "2"), textUpdate("b", "1")})
			case <-time.After(time.Second):
				So("timed out", ShouldBeEmpty)
			}
		})
	})

	Convey("When the source closes with a pending batch", t, func() {
		done := make(chan struct{})
		defer close(done)

		source := make(chan []fastview.EleUpdate, 1)
		source <- []fastview.EleUpdate{textUpdate("a", "final")}
		close(source)
		batches := batchify(done, source, time.Hour)

		batch, ok := <-batches
		So(ok, ShouldBeTrue)
		So(batch, ShouldResemble, []fastview.EleUpdate{textUpdate("a", "final")})

		_, ok = <-batches
		So(ok, ShouldBeFalse)
	})
}

func TestRootView(t *testing.T) {
	Convey("When the root view is parsed", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rv, err := NewRootView(ctx, 4, make(chan cell_views.Snapshot))
		So(err, ShouldBeNil)

		name, err := rv.Parse(template.New("index.html"))
		So(err, ShouldBeNil)
		So(name, ShouldEqual, "mainpage")
		So(rv.Updates(), ShouldNotBeNil)
	})
}
