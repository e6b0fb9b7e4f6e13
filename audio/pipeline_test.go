package audio

import (
	"errors"
	"testing"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/decode/synth"
	"github.com/avsync-cli/avsync/device"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/state"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

// recorder is a device with fixed free space that keeps everything written to it.
type recorder struct {
	format decode.Format
	space  int
	delay  float64
	data   []byte
	flags  []device.PlayFlags
	resets int
}

func (r *recorder) Init(f decode.Format) error { r.format = f; return nil }
func (r *recorder) Format() decode.Format      { return r.format }
func (r *recorder) Space() int                 { return r.space }
func (r *recorder) Play(data []byte, flags device.PlayFlags) int {
	r.data = append(r.data, data...)
	r.flags = append(r.flags, flags)
	return len(data)
}
func (r *recorder) Delay() float64         { return r.delay }
func (r *recorder) Reset()                 { r.resets++ }
func (r *recorder) Pause()                 {}
func (r *recorder) Resume()                {}
func (r *recorder) Untimed() bool          { return false }
func (r *recorder) Close(drain bool) error { return nil }

func toneFrom(start, duration float64) *synth.Demuxer {
	opts := synth.Defaults()
	opts.FPS = 0
	opts.Duration = duration
	opts.AudioStart = start
	return synth.New("tone", opts)
}

func pipeline(d *synth.Demuxer, space int) (*Pipeline, *recorder) {
	rec := &recorder{space: space}
	p := lo.Must(NewPipeline(d.Audio().Decoder(), rec, 1, nil))
	return p, rec
}

func allEqual(b []byte, v byte) bool {
	for _, x := range b {
		if x != v {
			return false
		}
	}
	return true
}

var withVideo = Params{Speed: 1, InitialSync: true, HasVideo: true}

func TestStartSync(t *testing.T) {
	Convey("Given 48kHz stereo s16 audio decoded from 12.0s", t, func() {
		const space = 1000000
		p, rec := pipeline(toneFrom(12, 30), space)
		st := state.New()
		st.SyncingAudio = true

		Convey("With the video at 10.0s, 2s of silence (384000 bytes) are inserted", func() {
			st.FramePts = 10
			status, err := p.Fill(st, pts.None, withVideo)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Full)
			So(p.LastStartSync(), ShouldEqual, 384000)
			So(st.SyncingAudio, ShouldBeFalse)
			So(len(rec.data), ShouldEqual, space)
			So(allEqual(rec.data[:384000], 0), ShouldBeTrue)
			So(allEqual(rec.data[384000:384400], 0), ShouldBeFalse)
			So(st.Delay, ShouldAlmostEqual, float64(space)/192000)
		})

		Convey("With the video at 14.0s, 2s of audio (384000 bytes) are discarded", func() {
			st.FramePts = 14
			status, err := p.Fill(st, pts.None, withVideo)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Full)
			So(p.LastStartSync(), ShouldEqual, -384000)
			So(st.AudioWrittenPts, ShouldAlmostEqual, 14+float64(space)/192000, 1e-9)
		})

		Convey("Offsets beyond 300s are ignored", func() {
			st.FramePts = 400
			_, err := p.Fill(st, pts.None, withVideo)
			So(err, ShouldBeNil)
			So(p.LastStartSync(), ShouldEqual, 0)
			So(st.AudioWrittenPts, ShouldAlmostEqual, 12+float64(space)/192000, 1e-9)
		})

		Convey("The desired audio delay shifts the target", func() {
			st.FramePts = 10
			delayed := withVideo
			delayed.AudioDelay = 1
			_, err := p.Fill(st, pts.None, delayed)
			So(err, ShouldBeNil)
			So(p.LastStartSync(), ShouldEqual, 192000)
		})

		Convey("Without initial sync audio starts right away", func() {
			st.FramePts = 10
			off := withVideo
			off.InitialSync = false
			_, err := p.Fill(st, pts.None, off)
			So(err, ShouldBeNil)
			So(st.SyncingAudio, ShouldBeFalse)
			So(allEqual(rec.data[:4000], 0), ShouldBeFalse)
		})
	})

	Convey("Given a device with less room than the needed silence", t, func() {
		p, rec := pipeline(toneFrom(12, 30), 96000)
		st := state.New()
		st.SyncingAudio = true
		st.FramePts = 10

		Convey("A full chunk of silence is written and syncing continues", func() {
			status, err := p.Fill(st, pts.None, withVideo)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Full)
			So(len(rec.data), ShouldEqual, 96000)
			So(allEqual(rec.data, 0), ShouldBeTrue)
			So(st.SyncingAudio, ShouldBeTrue)
			So(st.Delay, ShouldAlmostEqual, 0.5)
		})
	})

	Convey("Given unsigned 8 bit audio", t, func() {
		opts := synth.Defaults()
		opts.FPS = 0
		opts.Duration = 30
		opts.AudioStart = 12
		opts.Unsigned = true
		p, rec := pipeline(synth.New("u8", opts), 500000)
		st := state.New()
		st.SyncingAudio = true
		st.FramePts = 10

		Convey("Silence is 0x80", func() {
			_, err := p.Fill(st, pts.None, withVideo)
			So(err, ShouldBeNil)
			So(p.LastStartSync(), ShouldEqual, 192000)
			So(allEqual(rec.data[:192000], 0x80), ShouldBeTrue)
		})
	})

	Convey("Given an audio-only precise seek to 13.0s", t, func() {
		p, rec := pipeline(toneFrom(12, 30), 500000)
		st := state.New()
		st.HRSeekActive = true
		st.HRSeekPts = 13

		Convey("Leading audio is cut and the flag is consumed", func() {
			_, err := p.Fill(st, pts.None, Params{Speed: 1, InitialSync: true})
			So(err, ShouldBeNil)
			So(p.LastStartSync(), ShouldEqual, -192000)
			So(st.HRSeekActive, ShouldBeFalse)
			So(len(rec.data), ShouldEqual, 500000)
		})

		Convey("Landing late never pads with silence", func() {
			st.HRSeekPts = 11
			_, err := p.Fill(st, pts.None, Params{Speed: 1, InitialSync: true})
			So(err, ShouldBeNil)
			So(len(rec.data), ShouldEqual, 3840)
			So(allEqual(rec.data[4:400], 0), ShouldBeFalse)
		})
	})
}

func TestFill(t *testing.T) {
	Convey("Given audio from 0s", t, func() {
		p, rec := pipeline(toneFrom(0, 0.1), 1000000)
		st := state.New()
		plain := Params{Speed: 1, InitialSync: true, HasVideo: true}

		Convey("An end position truncates the write and flags the final chunk", func() {
			long, rec := pipeline(toneFrom(0, 30), 1000000)
			status, err := long.Fill(st, 0.5, plain)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Partial)
			So(float64(len(rec.data)), ShouldAlmostEqual, 96000, 4)
			So(rec.flags[0]&device.FinalChunk, ShouldNotEqual, 0)

			status, err = long.Fill(st, 0.5, plain)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Exhausted)
		})

		Convey("The stream tail is written as a final chunk, then the stream is exhausted", func() {
			status, err := p.Fill(st, pts.None, plain)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Partial)
			So(len(rec.data), ShouldEqual, 19200)
			So(rec.flags[0]&device.FinalChunk, ShouldNotEqual, 0)
			So(p.EOF(), ShouldBeTrue)

			status, err = p.Fill(st, pts.None, plain)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Exhausted)
		})

		Convey("Paused playback decodes but writes nothing", func() {
			st.Paused = true
			status, err := p.Fill(st, pts.None, plain)
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Full)
			So(rec.data, ShouldBeEmpty)
			So(p.Buffered(), ShouldBeGreaterThan, 0)
		})

		Convey("The written position accounts for device and buffer", func() {
			long, rec := pipeline(toneFrom(0, 30), 19200)
			_, _ = long.Fill(st, pts.None, plain)
			rec.delay = 0.05
			So(long.WrittenPts(st, 1), ShouldAlmostEqual, 0.1)
			So(long.PlayingPts(st, 1), ShouldAlmostEqual, 0.05)

			st.VideoOffset = 5
			So(long.WrittenPts(st, 1), ShouldAlmostEqual, 5.1)
		})

		Convey("Reset drops decoded audio and optionally the device", func() {
			st.Paused = true
			_, _ = p.Fill(st, pts.None, plain)
			p.Reset(true)
			So(p.Buffered(), ShouldEqual, 0)
			So(rec.resets, ShouldEqual, 1)
			So(pts.Valid(p.WrittenPts(st, 1)), ShouldBeFalse)
		})
	})

	Convey("Given a decoder that switches formats", t, func() {
		rec := &recorder{space: 1000}
		p := lo.Must(NewPipeline(&switching{}, rec, 1, nil))

		Convey("Fill asks for the chain to be rebuilt", func() {
			_, err := p.Fill(state.New(), pts.None, withVideo)
			So(err, ShouldEqual, decode.ErrFormatChanged)
		})
	})
}

type switching struct{}

func (switching) Format() decode.Format { return decode.S16(48000, 2) }
func (switching) Decode(buf []byte, minLen int) ([]byte, error) {
	return buf, decode.ErrFormatChanged
}
func (switching) Pts() float64  { return pts.None }
func (switching) PtsBytes() int { return 0 }
func (switching) Reset()        {}

// failing decodes nothing and reports a damaged packet every time.
type failing struct {
	decode.AudioDecoder
}

func (failing) Decode(buf []byte, minLen int) ([]byte, error) {
	return buf, errors.New("damaged packet")
}

func TestDecodeFailure(t *testing.T) {
	Convey("Given a decoder that fails on every packet", t, func() {
		rec := &recorder{space: 4096}
		p := lo.Must(NewPipeline(failing{toneFrom(0, 1).Audio().Decoder()}, rec, 1, nil))

		Convey("The failure is marked recoverable", func() {
			err := p.decode(4)
			So(errors.Is(err, decode.ErrRecoverable), ShouldBeTrue)
			So(errors.Is(err, decode.ErrEOF), ShouldBeFalse)
		})

		Convey("Filling logs it and carries on", func() {
			status, err := p.Fill(state.New(), pts.None, Params{Speed: 1})
			So(err, ShouldBeNil)
			So(status, ShouldEqual, Partial)
			So(rec.data, ShouldBeEmpty)
		})
	})
}

func TestStretcher(t *testing.T) {
	Convey("Doubling speed keeps every other sample frame", t, func() {
		s := stretcher{speed: 2}
		out := s.apply(nil, []byte{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, 2)
		So(out, ShouldResemble, []byte{1, 1, 3, 3, 5, 5})
		out = s.apply(nil, []byte{6, 6, 7, 7}, 2)
		So(out, ShouldResemble, []byte{7, 7})
	})

	Convey("Normal speed is a plain copy", t, func() {
		s := stretcher{speed: 1}
		So(s.apply([]byte{9}, []byte{1, 2}, 2), ShouldResemble, []byte{9, 1, 2})
	})

	Convey("StartSyncBytes rounds to whole sample frames", t, func() {
		So(StartSyncBytes(2.0, 192000, 4), ShouldEqual, 384000)
		So(StartSyncBytes(-2.0, 192000, 4), ShouldEqual, -384000)
		So(StartSyncBytes(0.0000101, 192000, 4), ShouldEqual, 0)
		So(StartSyncBytes(301, 192000, 4), ShouldEqual, 0)
	})
}
