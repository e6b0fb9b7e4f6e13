package pcm

import (
	"testing"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestDriver(t *testing.T) {
	Convey("Given a pcm driver", t, func() {
		d := New("/out/audio.pcm")
		So(filesystem.API().MkdirAll("/out", 0o755), ShouldBeNil)
		So(d.Init(decode.S16(48000, 2)), ShouldBeNil)

		Convey("It is untimed and always has room", func() {
			So(d.Untimed(), ShouldBeTrue)
			So(d.Space(), ShouldEqual, 19200)
			So(d.Delay(), ShouldEqual, 0)
		})

		Convey("Written audio ends up in the file", func() {
			So(d.Play([]byte{1, 2, 3, 4}, 0), ShouldEqual, 4)
			So(d.Close(true), ShouldBeNil)
			data := lo.Must(afero.ReadFile(filesystem.API(), "/out/audio.pcm"))
			So(data, ShouldResemble, []byte{1, 2, 3, 4})
			So(d.Written(), ShouldEqual, 4)
		})

		Convey("Init truncates earlier output", func() {
			d.Play([]byte{9, 9, 9, 9}, 0)
			So(d.Init(decode.S16(48000, 2)), ShouldBeNil)
			So(d.Close(false), ShouldBeNil)
			data := lo.Must(afero.ReadFile(filesystem.API(), "/out/audio.pcm"))
			So(data, ShouldBeEmpty)
		})
	})
}
