package device

import (
	"testing"
	"time"

	"github.com/avsync-cli/avsync/clock"
	"github.com/avsync-cli/avsync/decode"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNullAudio(t *testing.T) {
	Convey("Given a timed null device with half a second of buffer", t, func() {
		c := &clock.Manual{}
		ao := NewNullAudio(c, 0.5)
		So(ao.Init(decode.S16(48000, 2)), ShouldBeNil)

		Convey("The whole buffer is free initially", func() {
			So(ao.Space(), ShouldEqual, 96000)
			So(ao.Delay(), ShouldEqual, 0)
		})

		Convey("Writes beyond the free space are cut short", func() {
			So(ao.Play(make([]byte, 100000), 0), ShouldEqual, 96000)
			So(ao.Delay(), ShouldAlmostEqual, 0.5)
		})

		Convey("Audio drains as the clock advances", func() {
			ao.Play(make([]byte, 96000), 0)
			c.Advance(200 * time.Millisecond)
			So(ao.Delay(), ShouldAlmostEqual, 0.3)
			So(ao.Space(), ShouldEqual, 38400)
		})

		Convey("Paused devices hold their data", func() {
			ao.Play(make([]byte, 96000), 0)
			ao.Pause()
			c.Advance(time.Second)
			So(ao.Delay(), ShouldAlmostEqual, 0.5)
			ao.Resume()
			c.Advance(100 * time.Millisecond)
			So(ao.Delay(), ShouldAlmostEqual, 0.4)
		})

		Convey("Reset drops buffered data", func() {
			ao.Play(make([]byte, 4000), 0)
			ao.Reset()
			So(ao.Delay(), ShouldEqual, 0)
		})

		Convey("Final chunks are remembered", func() {
			ao.Play(make([]byte, 4), FinalChunk)
			So(ao.Final, ShouldBeTrue)
		})

		Convey("Draining close waits for the buffer on the clock", func() {
			ao.Play(make([]byte, 96000), 0)
			So(ao.Close(true), ShouldBeNil)
			So(c.Now(), ShouldEqual, 500*time.Millisecond)
		})
	})

	Convey("An untimed device takes everything", t, func() {
		ao := NewUntimedNullAudio()
		So(ao.Init(decode.S16(48000, 2)), ShouldBeNil)
		So(ao.Untimed(), ShouldBeTrue)
		So(ao.Play(make([]byte, 1<<20), 0), ShouldEqual, 1<<20)
		So(ao.Delay(), ShouldEqual, 0)
	})
}

func TestNullVideo(t *testing.T) {
	Convey("Flips record the drawn frame", t, func() {
		vo := &NullVideo{}
		So(vo.Draw(&decode.Frame{Pts: 1.5}), ShouldBeNil)
		vo.FlipPage(10, -1)
		So(vo.Flips, ShouldHaveLength, 1)
		So(vo.Flips[0].Pts, ShouldEqual, 1.5)
	})
}
