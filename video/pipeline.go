// Package video decodes, times and filters video frames for the playback loop.
package video

import (
	"errors"
	"fmt"

	"github.com/avsync-cli/avsync/avsync"
	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/filter"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/state"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Update results other than a frame time.
const (
	// NoFrame means nothing new is ready to be shown yet.
	NoFrame = 0
	// Ended means the stream is exhausted or broken.
	Ended = -1
)

// jitterLimit separates timestamp jitter from timestamp resets.
const jitterLimit = 0.5

// seekTolerance is how far before a precise seek target a frame may start.
const seekTolerance = .005

// defaultFPS is assumed when the stream does not tell.
const defaultFPS = 25

// Inputs are the per tick values the pipeline needs from the rest of the session.
type Inputs struct {
	HasAudio bool
	Drop     avsync.DropInputs
	Sync     avsync.Params
	// CorrectPts uses timestamps instead of a fixed frame rate.
	CorrectPts bool
	// PtsAssocMode forces a timestamp association mode when not state.AssocAuto.
	PtsAssocMode int
}

// Pipeline turns packets of one video stream into timed frames on an Output.
type Pipeline struct {
	stream     decode.VideoStream
	dec        decode.VideoDecoder
	out        *Output
	chain      *filter.Chain
	demuxerPts bool
	frameTime  float64
	log        *logrus.Entry

	// buffered holds packet timestamps not yet matched to a frame, ascending.
	buffered []float64
	// decoderPts is the timestamp chosen for the latest decoded frame.
	decoderPts    float64
	nextFrameTime float64
}

// NewPipeline connects stream through filters to out.
func NewPipeline(stream decode.VideoStream, ts decode.TimestampType, out *Output, log *logrus.Entry, filters ...filter.Filter) *Pipeline {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	fps := stream.FPS()
	if fps <= 0 {
		fps = defaultFPS
	}
	return &Pipeline{
		stream:     stream,
		dec:        stream.Decoder(),
		out:        out,
		chain:      filter.NewChain(out.Put, log, filters...),
		demuxerPts: ts == decode.TimestampPTS,
		frameTime:  1 / fps,
		log:        log,
		decoderPts: pts.None,
	}
}

// Output returns the frame output.
func (p *Pipeline) Output() *Output { return p.out }

// FrameTime is the nominal duration of one frame.
func (p *Pipeline) FrameTime() float64 { return p.frameTime }

// DecoderPts is the timestamp of the latest decoded frame before filtering.
func (p *Pipeline) DecoderPts() float64 { return p.decoderPts }

// Reset drops everything buffered after a seek.
func (p *Pipeline) Reset() {
	p.dec.Reset()
	p.buffered = p.buffered[:0]
	p.chain.Flush()
	p.out.Reset()
	p.decoderPts = pts.None
	p.nextFrameTime = 0
}

// Close releases the filters. The output outlives the pipeline.
func (p *Pipeline) Close() error {
	p.chain.Flush()
	return p.chain.Close()
}

// nextPacket returns the next packet carrying a frame, or nil at the end of the stream.
func (p *Pipeline) nextPacket() (*decode.Packet, error) {
	for {
		pkt, err := p.stream.Next()
		if err != nil {
			if errors.Is(err, decode.ErrEOF) {
				return nil, nil
			}
			return nil, err
		}
		// Empty packets keep a fixed packet rate in some containers and hold no frame.
		if pkt.Len() > 0 {
			return pkt, nil
		}
	}
}

// Update makes sure a frame is loaded on the output when possible and returns the
// time since the previous frame, NoFrame, or Ended.
func (p *Pipeline) Update(st *state.Playback, in Inputs) float64 {
	if !in.CorrectPts {
		return p.updateFixedRate(st, in)
	}

	if !p.out.HasBufferedFrame(false) {
		if queued, err := p.chain.OutputQueued(); err != nil {
			p.log.WithError(err).Warn("video output rejected a frame")
		} else if !queued {
			if ended := p.decodeOne(st, in); ended {
				return Ended
			}
		}
	}

	if !p.out.Loaded() {
		return NoFrame
	}

	framePts := p.out.NextPts()
	if !pts.Valid(framePts) {
		p.log.Error("video pts after filters missing")
		framePts = pts.Or(p.decoderPts, st.LastVideoPts)
	}
	if st.HRSeekActive && framePts < st.HRSeekPts-seekTolerance {
		p.out.SkipFrame()
		return NoFrame
	}
	st.HRSeekActive = false

	st.FramePts = framePts
	if !pts.Valid(st.LastVideoPts) {
		st.LastVideoPts = framePts
	} else if st.LastVideoPts > framePts {
		p.log.Infof("decreasing video pts: %f < %f", framePts, st.LastVideoPts)
		if st.LastVideoPts-framePts > jitterLimit {
			st.LastVideoPts = framePts
		} else {
			st.FramePts = st.LastVideoPts
		}
	}

	frameTime := st.FramePts - st.LastVideoPts
	st.LastVideoPts = st.FramePts
	if in.HasAudio {
		st.Delay -= frameTime
	}
	return frameTime
}

// decodeOne feeds one packet to the decoder and filters the result. It reports true
// when the stream has nothing more to show.
func (p *Pipeline) decodeOne(st *state.Playback, in Inputs) (ended bool) {
	pkt, err := p.nextPacket()
	if err != nil {
		p.log.WithError(err).Warn("reading video packet failed")
		pkt = nil
	}

	packetPts := pts.None
	if pkt != nil {
		packetPts = pkt.Pts
		if pts.Valid(packetPts) {
			packetPts += st.VideoOffset
		}
		pkt = &decode.Packet{Data: pkt.Data, Pts: packetPts}
	}

	if packetPts >= st.HRSeekPts-seekTolerance {
		st.HRSeekFramedrop = false
	}
	drop := decode.DropDecode
	if !st.HRSeekFramedrop {
		drop = avsync.CheckFramedrop(st, in.Drop, p.frameTime, in.Sync)
	}

	frame, err := p.decode(st, pkt, drop, in.PtsAssocMode)
	switch {
	case err != nil && !errors.Is(err, decode.ErrEOF):
		p.log.WithError(err).Warn("video decoding failed")
		if pkt == nil {
			return !p.out.HasBufferedFrame(true)
		}
	case frame != nil:
		if err := p.chain.Put(frame); err != nil {
			p.log.WithError(err).Warn("video output rejected a frame")
		}
		p.out.HasBufferedFrame(false)
	case pkt == nil:
		return !p.out.HasBufferedFrame(true)
	}
	return false
}

// decode runs the decoder and assigns the frame its timestamp according to the
// association mode of the stream.
func (p *Pipeline) decode(st *state.Playback, pkt *decode.Packet, drop decode.Drop, forcedMode int) (*decode.Frame, error) {
	if pkt != nil && pts.Valid(pkt.Pts) {
		// Timestamps beyond the decoder delay belong to frames that were never output.
		if lag := p.dec.Lag(); lag >= 0 {
			if lag > len(p.buffered) {
				p.log.Debugf("not enough buffered pts: %d < %d", len(p.buffered), lag)
			} else {
				p.buffered = p.buffered[len(p.buffered)-lag:]
			}
		}
		i, _ := slices.BinarySearch(p.buffered, pkt.Pts)
		p.buffered = slices.Insert(p.buffered, i, pkt.Pts)
	}

	frame, err := p.dec.Decode(pkt, drop)
	if err != nil && !errors.Is(err, decode.ErrEOF) {
		err = fmt.Errorf("%w: %v", decode.ErrRecoverable, err)
	}
	if frame == nil {
		return nil, err
	}

	sorted := pts.None
	if len(p.buffered) > 0 {
		sorted = p.buffered[0]
		p.buffered = p.buffered[1:]
	} else {
		p.log.Debug("no pts value from demuxer to use for frame")
	}

	st.PtsAssoc.Observe(frame.Pts, sorted)
	chosen, switched := st.PtsAssoc.Determine(forcedMode, p.demuxerPts, frame.Pts, sorted)
	if switched {
		p.log.Infof("switching to pts association mode %d", st.PtsAssoc.Mode)
	}
	p.decoderPts = chosen
	frame.Pts = chosen
	return frame, err
}

// updateFixedRate times frames by the nominal frame rate, ignoring timestamps
// other than for display.
func (p *Pipeline) updateFixedRate(st *state.Playback, in Inputs) float64 {
	if p.out.HasBufferedFrame(false) {
		return NoFrame
	}
	if queued, _ := p.chain.OutputQueued(); queued {
		return NoFrame
	}

	frameTime := p.nextFrameTime
	if st.RestartPlayback {
		frameTime = 0
	}
	pkt, err := p.nextPacket()
	if err != nil {
		p.log.WithError(err).Warn("reading video packet failed")
	}
	if pkt == nil {
		return Ended
	}
	p.nextFrameTime = p.frameTime

	if pts.Valid(pkt.Pts) {
		p.decoderPts = pkt.Pts + st.VideoOffset
	} else if pts.Valid(p.decoderPts) {
		p.decoderPts += frameTime
	}
	st.FramePts = p.decoderPts
	if in.HasAudio {
		st.Delay -= frameTime
	}

	drop := avsync.CheckFramedrop(st, in.Drop, frameTime, in.Sync)
	frame, err := p.dec.Decode(&decode.Packet{Data: pkt.Data, Pts: p.decoderPts}, drop)
	if err != nil {
		p.log.WithError(fmt.Errorf("%w: %v", decode.ErrRecoverable, err)).Warn("video decoding failed")
	}
	if frame != nil {
		frame.Pts = p.decoderPts
		if err := p.chain.Put(frame); err != nil {
			p.log.WithError(err).Warn("video output rejected a frame")
		}
	}
	return frameTime
}
