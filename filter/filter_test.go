package filter

import (
	"errors"
	"testing"

	"github.com/avsync-cli/avsync/decode"
	. "github.com/smartystreets/goconvey/convey"
)

type double struct{ closed bool }

func (d *double) Name() string { return "double" }
func (d *double) Filter(f *decode.Frame) ([]*decode.Frame, error) {
	second := f.Clone()
	second.Pts += 0.02
	return []*decode.Frame{f, second}, nil
}
func (d *double) Close() error { d.closed = true; return nil }

type broken struct{}

func (broken) Name() string                                  { return "broken" }
func (broken) Filter(*decode.Frame) ([]*decode.Frame, error) { return nil, errors.New("boom") }
func (broken) Close() error                                  { return errors.New("close failed") }

func TestChain(t *testing.T) {
	Convey("Given a chain that doubles frames", t, func() {
		var got []float64
		sink := func(f *decode.Frame) error {
			got = append(got, f.Pts)
			return nil
		}
		d := &double{}
		chain := NewChain(sink, nil, d)

		Convey("Put delivers one frame and queues the other", func() {
			So(chain.Put(&decode.Frame{Pts: 1}), ShouldBeNil)
			So(got, ShouldResemble, []float64{1})
			So(chain.Queued(), ShouldEqual, 1)

			ok, err := chain.OutputQueued()
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(got, ShouldResemble, []float64{1, 1.02})

			ok, _ = chain.OutputQueued()
			So(ok, ShouldBeFalse)
		})

		Convey("Flush drops queued frames", func() {
			So(chain.Put(&decode.Frame{Pts: 1}), ShouldBeNil)
			chain.Flush()
			So(chain.Queued(), ShouldEqual, 0)
		})

		Convey("Close closes every filter", func() {
			So(chain.Close(), ShouldBeNil)
			So(d.closed, ShouldBeTrue)
		})
	})

	Convey("A failing filter passes its input through", t, func() {
		var got []*decode.Frame
		chain := NewChain(func(f *decode.Frame) error {
			got = append(got, f)
			return nil
		}, nil, broken{})

		frame := &decode.Frame{Pts: 3}
		So(chain.Put(frame), ShouldBeNil)
		So(got, ShouldHaveLength, 1)
		So(got[0], ShouldEqual, frame)
		So(chain.Close(), ShouldNotBeNil)
	})

	Convey("An empty chain forwards frames as is", t, func() {
		n := 0
		chain := NewChain(func(*decode.Frame) error { n++; return nil }, nil)
		So(chain.Len(), ShouldEqual, 0)
		So(chain.Put(&decode.Frame{}), ShouldBeNil)
		So(n, ShouldEqual, 1)
	})
}
