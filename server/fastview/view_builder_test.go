package fastview

import (
	"context"
	"html/template"
	"strconv"
	"testing"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

// labelView publishes a single text update per view-model.
type labelView struct {
	id      string
	updates <-chan []EleUpdate
}

func newLabelView(id string, done <-chan struct{}, labels <-chan string) *labelView {
	lv := &labelView{id: id}
	lv.updates = channerics.Convert(done, labels, func(label string) []EleUpdate {
		return []EleUpdate{{EleId: lv.id, Ops: []Op{{Key: TextContent, Value: label}}}}
	})
	return lv
}

func (lv *labelView) Updates() <-chan []EleUpdate { return lv.updates }

func (lv *labelView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + lv.id + `" }}<span id="` + lv.id + `">{{ . }}</span>{{ end }}`)
	return lv.id, err
}

func TestViewBuilder(t *testing.T) {
	Convey("When building views", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("When no view was added", func() {
			_, err := NewViewBuilder[int, string]().
				WithModel(make(chan int), strconv.Itoa).
				Build()
			So(err, ShouldEqual, ErrNoViews)
		})

		Convey("When no model was set", func() {
			_, err := NewViewBuilder[int, string]().
				WithView(func(done <-chan struct{}, labels <-chan string) ViewComponent {
					return newLabelView("a", done, labels)
				}).
				Build()
			So(err, ShouldEqual, ErrNoModel)
		})

		Convey("When the builder succeeds, every view receives every view-model", func() {
			input := make(chan int)
			views, err := NewViewBuilder[int, string]().
				WithContext(ctx).
				WithModel(input, strconv.Itoa).
				WithView(func(done <-chan struct{}, labels <-chan string) ViewComponent {
					return newLabelView("first", done, labels)
				}).
				WithView(func(done <-chan struct{}, labels <-chan string) ViewComponent {
					return newLabelView("second", done, labels)
				}).
				Build()
			So(err, ShouldBeNil)
			So(views, ShouldHaveLength, 2)

			go func() {
				select {
				case input <- 42:
				case <-ctx.Done():
				}
			}()

			for i, id := range []string{"first", "second"} {
				select {
				case updates := <-views[i].Updates():
					So(updates, ShouldResemble, []EleUpdate{{EleId: id, Ops: []Op{{Key: TextContent, Value: "42"}}}})
				case <-time.After(time.Second):
					So("timed out waiting for "+id, ShouldBeEmpty)
				}
			}
		})
	})
}
