package synth

import (
	"errors"
	"testing"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/pts"
	. "github.com/smartystreets/goconvey/convey"
)

func drainVideo(d *Demuxer) []float64 {
	var out []float64
	v := d.Video()
	dec := v.Decoder()
	for {
		pkt, err := v.Next()
		if errors.Is(err, decode.ErrEOF) {
			pkt = nil
		}
		f, err := dec.Decode(pkt, decode.DropNone)
		if errors.Is(err, decode.ErrEOF) {
			return out
		}
		if f != nil {
			out = append(out, f.Pts)
		}
	}
}

func TestVideo(t *testing.T) {
	Convey("Given a one second clip at 10 fps", t, func() {
		opts := Defaults()
		opts.Duration = 1
		opts.FPS = 10

		Convey("Frames come out in presentation order", func() {
			got := drainVideo(New("plain", opts))
			So(len(got), ShouldEqual, 10)
			So(got[9], ShouldAlmostEqual, 0.9)
		})

		Convey("Reordered packets still decode in presentation order", func() {
			opts.Reorder = true
			d := New("ipb", opts)
			first, _ := d.Video().Next()
			second, _ := d.Video().Next()
			third, _ := d.Video().Next()
			So(first.Pts, ShouldEqual, 0)
			So(second.Pts, ShouldAlmostEqual, 0.2)
			So(third.Pts, ShouldAlmostEqual, 0.1)

			got := drainVideo(New("ipb", opts))
			So(len(got), ShouldEqual, 10)
			for i := 1; i < len(got); i++ {
				So(got[i], ShouldBeGreaterThan, got[i-1])
			}
		})

		Convey("Dropped frames are decoded but not returned", func() {
			d := New("drop", opts)
			pkt, _ := d.Video().Next()
			f, err := d.Video().Decoder().Decode(pkt, decode.DropDisplay)
			So(err, ShouldBeNil)
			So(f, ShouldBeNil)
		})
	})
}

func TestAudio(t *testing.T) {
	Convey("Given a stereo s16 tone starting at 12 seconds", t, func() {
		opts := Defaults()
		opts.Duration = 20
		opts.AudioStart = 12
		d := New("tone", opts)
		dec := d.Audio().Decoder()

		Convey("One decode call produces a packet and its timestamp", func() {
			buf, err := dec.Decode(nil, 1)
			So(err, ShouldBeNil)
			So(len(buf), ShouldEqual, 960*4)
			So(dec.Pts(), ShouldEqual, 12.0)
			So(dec.PtsBytes(), ShouldEqual, len(buf))
		})

		Convey("The stream ends with ErrEOF", func() {
			_, err := dec.Decode(nil, 9*48000*4)
			So(err, ShouldEqual, decode.ErrEOF)
		})

		Convey("Reset forgets the timestamp", func() {
			_, _ = dec.Decode(nil, 1)
			dec.Reset()
			So(pts.Valid(dec.Pts()), ShouldBeFalse)
		})
	})

	Convey("Unsigned audio is silent at 0x80", t, func() {
		opts := Defaults()
		opts.Unsigned = true
		So(New("u8", opts).Audio().Decoder().Format().FillByte(), ShouldEqual, byte(0x80))
	})
}

func TestSeek(t *testing.T) {
	Convey("Given a clip with keyframes every 5 frames", t, func() {
		opts := Defaults()
		opts.KeyInterval = 5
		d := New("gop", opts)

		Convey("Backward seeks land on the preceding keyframe", func() {
			So(d.Seek(1.1, 0, decode.SeekAbsolute|decode.SeekBackward), ShouldBeNil)
			pkt, _ := d.Video().Next()
			So(pkt.Pts, ShouldAlmostEqual, 1.0)
		})

		Convey("Forward seeks land on the following keyframe", func() {
			So(d.Seek(1.1, 0, decode.SeekAbsolute|decode.SeekForward), ShouldBeNil)
			pkt, _ := d.Video().Next()
			So(pkt.Pts, ShouldAlmostEqual, 1.2)
		})

		Convey("Factor seeks scale by the duration", func() {
			So(d.Seek(0.5, 0, decode.SeekAbsolute|decode.SeekFactor|decode.SeekBackward), ShouldBeNil)
			pkt, _ := d.Video().Next()
			So(pkt.Pts, ShouldAlmostEqual, 5.0)
		})

		Convey("Seeking past the end fails", func() {
			So(d.Seek(11, 0, decode.SeekAbsolute), ShouldNotBeNil)
		})
	})

	Convey("Unseekable sources refuse to seek", t, func() {
		opts := Defaults()
		opts.Unseekable = true
		So(New("live", opts).Seek(1, 0, decode.SeekAbsolute), ShouldNotBeNil)
	})
}
