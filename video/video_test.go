package video

import (
	"errors"
	"testing"

	"github.com/avsync-cli/avsync/avsync"
	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/decode/synth"
	"github.com/avsync-cli/avsync/device"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/state"
	. "github.com/smartystreets/goconvey/convey"
)

// scripted replays fixed packets through a decoder without delay.
type scripted struct {
	pkts []*decode.Packet
	next int
}

func (s *scripted) Next() (*decode.Packet, error) {
	if s.next >= len(s.pkts) {
		return nil, decode.ErrEOF
	}
	s.next++
	return s.pkts[s.next-1], nil
}

func (s *scripted) Decoder() decode.VideoDecoder { return passthrough{} }
func (s *scripted) FPS() float64                 { return 25 }
func (s *scripted) Pts() float64                 { return pts.None }

type passthrough struct{}

func (passthrough) Decode(pkt *decode.Packet, drop decode.Drop) (*decode.Frame, error) {
	if pkt == nil {
		return nil, decode.ErrEOF
	}
	if drop != decode.DropNone {
		return nil, nil
	}
	return &decode.Frame{Pts: pkt.Pts, Width: 4, Height: 4}, nil
}
func (passthrough) Lag() int { return 0 }
func (passthrough) Reset()   {}

// damaged hands out packets whose frames cannot be decoded.
type damaged struct {
	scripted
}

func (d *damaged) Decoder() decode.VideoDecoder { return garbled{} }

type garbled struct{}

func (garbled) Decode(pkt *decode.Packet, drop decode.Drop) (*decode.Frame, error) {
	if pkt == nil {
		return nil, decode.ErrEOF
	}
	return nil, errors.New("corrupt slice")
}
func (garbled) Lag() int { return 0 }
func (garbled) Reset()   {}

type undrawable struct {
	device.NullVideo
}

func (*undrawable) Draw(*decode.Frame) error { return errors.New("no surface") }

func packets(stamps ...float64) []*decode.Packet {
	var out []*decode.Packet
	for _, p := range stamps {
		out = append(out, &decode.Packet{Data: []byte{1}, Pts: p})
	}
	return out
}

var correct = Inputs{CorrectPts: true, Sync: avsync.Params{Speed: 1, MaxPtsCorrection: -1}}

func clip(opts synth.Options) (*Pipeline, *device.NullVideo) {
	d := synth.New("clip", opts)
	vo := &device.NullVideo{}
	return NewPipeline(d.Video(), d.TimestampType(), NewOutput(vo), nil), vo
}

func videoOnly() synth.Options {
	opts := synth.Defaults()
	opts.SampleRate = 0
	return opts
}

// show runs Update until a frame is loaded and flips it.
func show(p *Pipeline, st *state.Playback, in Inputs) float64 {
	for i := 0; i < 100; i++ {
		t := p.Update(st, in)
		if t == Ended {
			return t
		}
		if p.Output().Loaded() {
			p.Output().Flip(0, -1)
			return t
		}
	}
	return Ended
}

func TestUpdate(t *testing.T) {
	Convey("Given a 25fps stream on an untimed output", t, func() {
		p, vo := clip(videoOnly())
		st := state.New()

		Convey("Frames are loaded in order with their durations", func() {
			So(p.Update(st, correct), ShouldEqual, 0)
			So(p.Output().Loaded(), ShouldBeTrue)
			So(p.Output().NextPts(), ShouldEqual, 0)
			So(st.FramePts, ShouldEqual, 0)

			Convey("A loaded frame is not replaced before it is shown", func() {
				So(p.Update(st, correct), ShouldEqual, NoFrame)
				So(p.Output().NextPts(), ShouldEqual, 0)
			})

			So(p.Output().Flip(0, -1), ShouldBeNil)
			So(p.Update(st, correct), ShouldAlmostEqual, 0.04)
			So(st.FramePts, ShouldAlmostEqual, 0.04)
			So(vo.Flips, ShouldHaveLength, 1)
			So(vo.Width, ShouldEqual, 64)
		})

		Convey("The skew accumulator loses each frame time when audio is present", func() {
			in := correct
			in.HasAudio = true
			show(p, st, in)
			show(p, st, in)
			show(p, st, in)
			So(st.Delay, ShouldAlmostEqual, -0.08)
		})

		Convey("The video offset shifts timestamps", func() {
			st.VideoOffset = 10
			show(p, st, correct)
			So(st.FramePts, ShouldEqual, 10)
		})
	})

	Convey("Given a timed output", t, func() {
		d := synth.New("clip", videoOnly())
		vo := &device.NullVideo{Timed: true}
		p := NewPipeline(d.Video(), d.TimestampType(), NewOutput(vo), nil)
		st := state.New()

		Convey("The first frame waits for the second so its duration is known", func() {
			So(p.Update(st, correct), ShouldEqual, NoFrame)
			So(p.Output().Loaded(), ShouldBeFalse)

			p.Update(st, correct)
			So(p.Output().Loaded(), ShouldBeTrue)
			So(p.Output().NextPts(), ShouldEqual, 0)
			So(p.Output().NextPts2(), ShouldAlmostEqual, 0.04)
		})
	})

	Convey("Given a stream with B frames", t, func() {
		opts := videoOnly()
		opts.Reorder = true
		p, _ := clip(opts)
		st := state.New()

		Convey("Frames come out in presentation order", func() {
			var got []float64
			for i := 0; i < 6; i++ {
				show(p, st, correct)
				got = append(got, st.FramePts)
			}
			So(got, ShouldResemble, []float64{0, 0.04, 0.08, 0.12, 0.16, 0.2})
			So(st.PtsAssoc.Mode, ShouldEqual, state.AssocDecoder)
		})

		Convey("A decoder reporting input timestamps is replaced by sorted timestamps", func() {
			opts.BrokenDecoderPts = true
			p, _ := clip(opts)
			var got []float64
			for i := 0; i < 12; i++ {
				show(p, st, correct)
				got = append(got, st.FramePts)
			}
			So(st.PtsAssoc.Mode, ShouldEqual, state.AssocSorted)
			So(got[8:], ShouldResemble, []float64{0.32, 0.36, 0.4, 0.44})
		})

		Convey("A forced mode is kept", func() {
			opts.BrokenDecoderPts = true
			p, _ := clip(opts)
			in := correct
			in.PtsAssocMode = state.AssocDecoder
			for i := 0; i < 12; i++ {
				show(p, st, in)
			}
			So(st.PtsAssoc.Mode, ShouldEqual, state.AssocDecoder)
		})
	})

	Convey("Given a precise seek to 0.2s", t, func() {
		p, vo := clip(videoOnly())
		st := state.New()
		st.HRSeekActive = true
		st.HRSeekPts = 0.2

		Convey("Earlier frames are dropped at decode when allowed", func() {
			st.HRSeekFramedrop = true
			show(p, st, correct)
			So(st.FramePts, ShouldAlmostEqual, 0.2)
			So(st.HRSeekActive, ShouldBeFalse)
			So(st.HRSeekFramedrop, ShouldBeFalse)
			So(vo.Flips, ShouldHaveLength, 1)
		})

		Convey("Earlier frames are skipped on the output otherwise", func() {
			show(p, st, correct)
			So(st.FramePts, ShouldAlmostEqual, 0.2)
			So(vo.Flips, ShouldHaveLength, 1)
			So(vo.Flips[0].Pts, ShouldAlmostEqual, 0.2)
		})
	})

	Convey("Given timestamps that go backwards", t, func() {
		stream := &scripted{pkts: packets(1.0, 0.9, 0.2, 0.24)}
		p := NewPipeline(stream, decode.TimestampPTS, NewOutput(&device.NullVideo{}), nil)
		st := state.New()

		Convey("Small steps back are jitter and large ones are resets", func() {
			show(p, st, correct)
			So(st.FramePts, ShouldEqual, 1.0)

			So(show(p, st, correct), ShouldEqual, 0)
			So(st.FramePts, ShouldEqual, 1.0)

			So(show(p, st, correct), ShouldEqual, 0)
			So(st.FramePts, ShouldEqual, 0.2)

			So(show(p, st, correct), ShouldAlmostEqual, 0.04)
		})
	})

	Convey("Given a stream with empty packets", t, func() {
		pkts := []*decode.Packet{
			{Data: []byte{1}, Pts: 0},
			{Pts: 0.02},
			{Data: []byte{1}, Pts: 0.04},
		}
		p := NewPipeline(&scripted{pkts: pkts}, decode.TimestampPTS, NewOutput(&device.NullVideo{}), nil)
		st := state.New()

		Convey("They are skipped", func() {
			show(p, st, correct)
			So(show(p, st, correct), ShouldAlmostEqual, 0.04)
		})

		Convey("The end of the stream is reported once every frame was shown", func() {
			show(p, st, correct)
			show(p, st, correct)
			So(p.Update(st, correct), ShouldEqual, Ended)
		})
	})

	Convey("Given a frame far behind the audio", t, func() {
		p, _ := clip(videoOnly())
		st := state.New()
		st.RestartPlayback = false
		st.Delay = 0.5
		in := correct
		in.HasAudio = true
		in.Drop = avsync.DropInputs{HasAudio: true}
		in.Sync.Framedrop = decode.DropDisplay

		Convey("It is dropped", func() {
			So(p.Update(st, in), ShouldEqual, NoFrame)
			So(p.Output().Loaded(), ShouldBeFalse)
			So(st.DropFrameCount, ShouldEqual, 1)
		})
	})

	Convey("Given fixed rate timing", t, func() {
		p, _ := clip(videoOnly())
		st := state.New()
		fixed := Inputs{Sync: avsync.Params{Speed: 1}}

		Convey("Frames advance by the nominal frame time after a restart", func() {
			So(p.Update(st, fixed), ShouldEqual, 0)
			So(p.Output().Loaded(), ShouldBeTrue)
			So(p.Output().Flip(0, -1), ShouldBeNil)
			st.RestartPlayback = false

			So(p.Update(st, fixed), ShouldAlmostEqual, 0.04)
			So(st.FramePts, ShouldAlmostEqual, 0.04)
		})

		Convey("Reset forgets buffered frames", func() {
			p.Update(st, fixed)
			p.Reset()
			So(p.Output().Loaded(), ShouldBeFalse)
			So(pts.Valid(p.DecoderPts()), ShouldBeFalse)
		})
	})
}

func TestDecodeFailure(t *testing.T) {
	Convey("Given a stream whose frames cannot be decoded", t, func() {
		stream := &damaged{scripted{pkts: packets(0, 0.04, 0.08)}}
		p := NewPipeline(stream, decode.TimestampPTS, NewOutput(&device.NullVideo{}), nil)
		st := state.New()

		Convey("Each failure is recoverable", func() {
			frame, err := p.decode(st, &decode.Packet{Data: []byte{1}, Pts: 0}, decode.DropNone, 0)
			So(frame, ShouldBeNil)
			So(errors.Is(err, decode.ErrRecoverable), ShouldBeTrue)
		})

		Convey("The end of the stream is not", func() {
			_, err := p.decode(st, nil, decode.DropNone, 0)
			So(errors.Is(err, decode.ErrEOF), ShouldBeTrue)
			So(errors.Is(err, decode.ErrRecoverable), ShouldBeFalse)
		})

		Convey("Playback moves past the broken frames to the end", func() {
			ended := false
			for i := 0; i < 20 && !ended; i++ {
				ended = p.Update(st, correct) == Ended
			}
			So(ended, ShouldBeTrue)
			So(p.Output().Loaded(), ShouldBeFalse)
		})
	})
}

func TestOutput(t *testing.T) {
	Convey("Given an untimed output", t, func() {
		vo := &device.NullVideo{}
		o := NewOutput(vo)

		Convey("Put loads the frame right away", func() {
			So(o.Put(&decode.Frame{Pts: 1, Width: 2, Height: 2}), ShouldBeNil)
			So(o.Loaded(), ShouldBeTrue)
			So(o.NextPts(), ShouldEqual, 1)
			So(o.NewFrameImminent(), ShouldBeNil)
			So(o.Flip(1000000, -1), ShouldBeNil)
			So(o.Loaded(), ShouldBeFalse)
			So(vo.Flips, ShouldResemble, []device.Flip{{Pts: 1, PtsUs: 1000000, DurationUs: -1}})
		})

		Convey("SkipFrame drops the loaded frame unseen", func() {
			So(o.Put(&decode.Frame{Pts: 1}), ShouldBeNil)
			o.SkipFrame()
			So(o.Loaded(), ShouldBeFalse)
			So(o.Flip(0, -1), ShouldBeNil)
			So(vo.Flips, ShouldBeEmpty)
		})
	})

	Convey("Given a driver that cannot draw", t, func() {
		vo := &undrawable{}
		o := NewOutput(vo)
		So(o.Put(&decode.Frame{Pts: 1, Width: 2, Height: 2}), ShouldBeNil)

		Convey("The frame is flipped and the error returned", func() {
			err := o.Flip(0, -1)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no surface")
			So(vo.Flips, ShouldHaveLength, 1)
			So(o.Loaded(), ShouldBeFalse)
		})
	})

	Convey("Given a timed output", t, func() {
		o := NewOutput(&device.NullVideo{Timed: true})
		So(o.Put(&decode.Frame{Pts: 1}), ShouldBeNil)

		Convey("A lone frame is held until the stream ends", func() {
			So(o.HasBufferedFrame(false), ShouldBeFalse)
			So(o.HasBufferedFrame(true), ShouldBeTrue)
			So(pts.Valid(o.NextPts2()), ShouldBeFalse)
		})
	})
}
