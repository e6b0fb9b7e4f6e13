package pts

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValid(t *testing.T) {
	Convey("Given timestamps", t, func() {
		So(Valid(0), ShouldBeTrue)
		So(Valid(-3.5), ShouldBeTrue)
		So(Valid(None), ShouldBeFalse)
		So(Valid(math.NaN()), ShouldBeFalse)
		So(Or(None, 7), ShouldEqual, 7)
		So(Or(2, 7), ShouldEqual, 2)
	})
}

func TestFormat(t *testing.T) {
	Convey("Given a position of one hour, one minute and 1.25 seconds", t, func() {
		p := 3661.25

		Convey("Whole seconds are shown by default", func() {
			So(Format(p, false), ShouldEqual, "01:01:01")
		})

		Convey("Hundredths are shown on request", func() {
			So(Format(p, true), ShouldEqual, "01:01:01.25")
		})
	})

	Convey("Unknown positions are masked", t, func() {
		So(Format(None, true), ShouldEqual, "??:??:??")
	})

	Convey("Negative positions keep their sign", t, func() {
		So(Format(-61, false), ShouldEqual, "-00:01:01")
	})
}
