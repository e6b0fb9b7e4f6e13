package history

import (
	"testing"
	"time"

	"github.com/avsync-cli/avsync/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given an entry stopped halfway", t, func() {
		So(Clear(), ShouldBeNil)
		record := Record{Path: "/media/clip.mkv", Title: "Clip", Position: 30, Length: 60}

		Convey("When saving it", func() {
			err := Save(record)
			Convey("Then the error should be nil", func() {
				So(err, ShouldBeNil)

				Convey("And the position can be resumed", func() {
					So(Resume("/media/clip.mkv").OrEmpty(), ShouldEqual, 30)

					saved, err := Get()
					So(err, ShouldBeNil)
					So(saved["/media/clip.mkv"].Title, ShouldEqual, "Clip")
					So(saved["/media/clip.mkv"].Percent(), ShouldEqual, 50)
				})

				Convey("And stopping near the end forgets it", func() {
					record.Position = 58
					So(Save(record), ShouldBeNil)
					So(Resume("/media/clip.mkv").IsAbsent(), ShouldBeTrue)
				})

				Convey("And removing it forgets it", func() {
					So(Remove(&record), ShouldBeNil)
					So(Resume("/media/clip.mkv").IsAbsent(), ShouldBeTrue)
				})
			})
		})

		Convey("Unknown entries have no position", func() {
			So(Resume("/media/other.mkv").IsAbsent(), ShouldBeTrue)
		})

		Convey("Records are listed newest first", func() {
			old := Record{Path: "/media/a.mkv", Position: 10, Updated: time.Now().Add(-time.Hour)}
			recent := Record{Path: "/media/b.mkv", Position: 20, Updated: time.Now()}
			So(Save(old), ShouldBeNil)
			So(Save(recent), ShouldBeNil)

			records, err := List()
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
			So(records[0].Path, ShouldEqual, "/media/b.mkv")
			So(records[1].String(), ShouldEqual, "a.mkv : 00:00:10")
		})
	})
}
