package clock

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTimer(t *testing.T) {
	Convey("Given a manual clock and a timer", t, func() {
		c := &Manual{}
		timer := NewTimer(c)

		Convey("Relative reports the time since the last call", func() {
			c.Advance(250 * time.Millisecond)
			So(timer.Relative(), ShouldAlmostEqual, 0.25)
			So(timer.Relative(), ShouldEqual, 0)
		})

		Convey("Sleep advances the clock", func() {
			c.Sleep(40 * time.Millisecond)
			So(timer.Relative(), ShouldAlmostEqual, 0.04)
		})

		Convey("Reset drops elapsed time", func() {
			c.Advance(time.Second)
			timer.Reset()
			So(timer.Relative(), ShouldEqual, 0)
		})

		Convey("Negative advances are ignored", func() {
			c.Advance(-time.Second)
			So(c.Now(), ShouldEqual, 0)
		})
	})
}

func TestSystem(t *testing.T) {
	Convey("The system clock moves forward", t, func() {
		c := NewSystem()
		before := c.Now()
		c.Sleep(time.Millisecond)
		So(c.Now(), ShouldBeGreaterThan, before)
	})
}
