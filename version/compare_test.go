package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Given two versions", t, func() {
		Convey("Ordering follows major, minor then patch", func() {
			for _, c := range []struct {
				a, b string
				want int
			}{
				{"1.0.0", "0.9.9", 1},
				{"0.3.0", "0.3.1", -1},
				{"v0.3.0", "0.3.0", 0},
				{"0.10.0", "0.9.0", 1},
				{"1", "1.0.0", 0},
				{"0.4", "0.3.9", 1},
			} {
				got, err := Compare(c.a, c.b)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("Garbage is an error", func() {
			_, err := Compare("latest", "0.1.0")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSupports(t *testing.T) {
	Convey("Given the running version 0.3.0", t, func() {
		ok, err := Supports("0.3.0", "")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)

		ok, _ = Supports("0.3.0", "0.2.5")
		So(ok, ShouldBeTrue)

		ok, _ = Supports("0.3.0", "0.4.0")
		So(ok, ShouldBeFalse)

		_, err = Supports("0.3.0", "x")
		So(err, ShouldNotBeNil)
	})
}
