// Package synth provides a generated media source: a sine tone and a moving gradient.
// It backs "synth" timeline sources and the playback tests.
package synth

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/pts"
)

// Options describe the generated streams.
type Options struct {
	Duration float64
	// FPS of the video stream; zero disables video.
	FPS           float64
	Width, Height int
	// Reorder emits packets in IPB decode order through a decoder with one frame of lag.
	Reorder bool
	// BrokenDecoderPts makes the decoder report input packet timestamps instead of reordered ones.
	BrokenDecoderPts bool
	// KeyInterval is the distance between seekable frames; zero makes every frame a keyframe.
	KeyInterval int

	// SampleRate of the audio stream; zero disables audio.
	SampleRate int
	Channels   int
	Unsigned   bool
	Tone       float64
	// AudioStart shifts the first audio sample relative to the first video frame.
	AudioStart float64
	// NoAudioPts strips audio timestamps.
	NoAudioPts bool

	Unseekable   bool
	AccurateSeek bool
	Timestamps   decode.TimestampType
}

// Defaults returns a short clip with both streams.
func Defaults() Options {
	return Options{
		Duration:     10,
		FPS:          25,
		Width:        64,
		Height:       36,
		SampleRate:   48000,
		Channels:     2,
		Tone:         440,
		AccurateSeek: true,
	}
}

// packetSeconds is the length of one generated audio packet.
const packetSeconds = 0.02

// Demuxer implements decode.Demuxer over generated data.
type Demuxer struct {
	name  string
	opts  Options
	video *videoStream
	audio *audioStream
}

// New creates a generated source.
func New(name string, opts Options) *Demuxer {
	d := &Demuxer{name: name, opts: opts}
	if opts.FPS > 0 {
		d.video = newVideoStream(opts)
	}
	if opts.SampleRate > 0 {
		d.audio = newAudioStream(opts)
	}
	return d
}

func (d *Demuxer) Name() string { return d.name }

func (d *Demuxer) Video() decode.VideoStream {
	if d.video == nil {
		return nil
	}
	return d.video
}

func (d *Demuxer) Audio() decode.AudioStream {
	if d.audio == nil {
		return nil
	}
	return d.audio
}

func (d *Demuxer) Seekable() bool                      { return !d.opts.Unseekable }
func (d *Demuxer) AccurateSeek() bool                  { return d.opts.AccurateSeek }
func (d *Demuxer) Duration() float64                   { return d.opts.Duration }
func (d *Demuxer) StreamPts() float64                  { return pts.None }
func (d *Demuxer) TimestampType() decode.TimestampType { return d.opts.Timestamps }
func (d *Demuxer) Close() error                        { return nil }

// Seek lands on the closest keyframe in the requested direction.
func (d *Demuxer) Seek(amount, audioDelay float64, flags decode.SeekFlags) error {
	if d.opts.Unseekable {
		return fmt.Errorf("%s: stream is not seekable", d.name)
	}

	target := amount
	switch {
	case flags.Has(decode.SeekFactor):
		target = amount * d.opts.Duration
	case !flags.Has(decode.SeekAbsolute):
		target = d.position() + amount
	}
	if target < 0 {
		target = 0
	}
	if target > d.opts.Duration {
		return fmt.Errorf("%s: seek target %.3f beyond end %.3f", d.name, target, d.opts.Duration)
	}

	landed := target
	if d.video != nil {
		landed = d.video.seek(target, flags)
	}
	if d.audio != nil {
		d.audio.seek(landed + audioDelay)
	}
	return nil
}

func (d *Demuxer) position() float64 {
	if d.video != nil && pts.Valid(d.video.last) {
		return d.video.last
	}
	if d.audio != nil {
		return d.audio.position()
	}
	return 0
}

// videoStream hands out packets in decode order.
type videoStream struct {
	opts    Options
	count   int
	order   []int
	next    int
	last    float64
	decoder *videoDecoder
}

func newVideoStream(opts Options) *videoStream {
	count := int(math.Ceil(opts.Duration * opts.FPS))
	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	if opts.Reorder {
		// I P B P B ...: each B frame is sent after the following P frame.
		for i := 1; i+1 < count; i += 2 {
			order[i], order[i+1] = order[i+1], order[i]
		}
	}
	v := &videoStream{opts: opts, count: count, order: order, last: pts.None}
	v.decoder = &videoDecoder{stream: v, lastIn: pts.None}
	return v
}

func (v *videoStream) frameDuration() float64 { return 1 / v.opts.FPS }

func (v *videoStream) framePts(i int) float64 { return float64(i) * v.frameDuration() }

func (v *videoStream) Next() (*decode.Packet, error) {
	if v.next >= len(v.order) {
		return nil, decode.ErrEOF
	}
	idx := v.order[v.next]
	v.next++
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(idx))
	v.last = v.framePts(idx)
	return &decode.Packet{Data: data, Pts: v.last}, nil
}

func (v *videoStream) Decoder() decode.VideoDecoder { return v.decoder }
func (v *videoStream) FPS() float64                 { return v.opts.FPS }
func (v *videoStream) Pts() float64                 { return v.last }

func (v *videoStream) seek(target float64, flags decode.SeekFlags) float64 {
	frame := target * v.opts.FPS
	interval := v.opts.KeyInterval
	if interval <= 0 {
		interval = 1
	}
	var key int
	switch {
	case flags.Has(decode.SeekBackward):
		key = int(math.Floor(frame/float64(interval)+1e-9)) * interval
	case flags.Has(decode.SeekForward):
		key = int(math.Ceil(frame/float64(interval)-1e-9)) * interval
	default:
		key = int(math.Round(frame/float64(interval))) * interval
	}
	if key >= v.count {
		key = (v.count - 1) / interval * interval
	}
	if key < 0 {
		key = 0
	}

	v.next = 0
	for i, idx := range v.order {
		if idx == key {
			v.next = i
			break
		}
	}
	v.last = v.framePts(key)
	v.decoder.Reset()
	return v.last
}

// videoDecoder emits frames in presentation order.
type videoDecoder struct {
	stream *videoStream
	held   []int
	lastIn float64
}

func (d *videoDecoder) Lag() int {
	if d.stream.opts.Reorder {
		return 1
	}
	return 0
}

func (d *videoDecoder) Reset() {
	d.held = d.held[:0]
	d.lastIn = pts.None
}

func (d *videoDecoder) Decode(pkt *decode.Packet, drop decode.Drop) (*decode.Frame, error) {
	if pkt != nil {
		if len(pkt.Data) < 4 {
			return nil, fmt.Errorf("synth: short video packet of %d bytes", len(pkt.Data))
		}
		d.held = append(d.held, int(binary.LittleEndian.Uint32(pkt.Data)))
		d.lastIn = pkt.Pts
		sort.Ints(d.held)
		if len(d.held) <= d.Lag() {
			return nil, nil
		}
	} else if len(d.held) == 0 {
		return nil, decode.ErrEOF
	}

	idx := d.held[0]
	d.held = d.held[1:]
	if drop != decode.DropNone {
		return nil, nil
	}

	framePts := d.stream.framePts(idx)
	if d.stream.opts.BrokenDecoderPts && pkt != nil {
		framePts = d.lastIn
	}
	return d.picture(idx, framePts), nil
}

func (d *videoDecoder) picture(idx int, p float64) *decode.Frame {
	w, h := d.stream.opts.Width, d.stream.opts.Height
	if w <= 0 || h <= 0 {
		w, h = 16, 16
	}
	f := &decode.Frame{Pts: p, Width: w, Height: h}
	for i := 0; i < 3; i++ {
		pw, ph := f.PlaneSize(i)
		plane := make([]byte, pw*ph)
		for y := 0; y < ph; y++ {
			for x := 0; x < pw; x++ {
				plane[y*pw+x] = byte(x + y + idx)
			}
		}
		f.Planes = append(f.Planes, plane)
		f.Stride = append(f.Stride, pw)
	}
	return f
}

// audioStream generates a tone split into fixed-size packets.
type audioStream struct {
	opts     Options
	format   decode.Format
	sample   int
	total    int
	start    float64
	decPts   float64
	ptsBytes int
	phase    float64
}

func newAudioStream(opts Options) *audioStream {
	channels := opts.Channels
	if channels <= 0 {
		channels = 2
	}
	format := decode.S16(opts.SampleRate, channels)
	if opts.Unsigned {
		format = decode.Format{Rate: opts.SampleRate, Channels: channels, Bits: 8}
	}
	a := &audioStream{
		opts:   opts,
		format: format,
		start:  opts.AudioStart,
		decPts: pts.None,
	}
	a.total = int((opts.Duration - opts.AudioStart) * float64(opts.SampleRate))
	return a
}

func (a *audioStream) Decoder() decode.AudioDecoder { return a }

func (a *audioStream) position() float64 {
	return a.start + float64(a.sample)/float64(a.format.Rate)
}

func (a *audioStream) seek(target float64) {
	s := int((target - a.start) * float64(a.format.Rate))
	if s < 0 {
		s = 0
	}
	if s > a.total {
		s = a.total
	}
	a.sample = s
	a.Reset()
}

func (a *audioStream) Format() decode.Format { return a.format }
func (a *audioStream) Pts() float64          { return a.decPts }
func (a *audioStream) PtsBytes() int         { return a.ptsBytes }

func (a *audioStream) Reset() {
	a.decPts = pts.None
	a.ptsBytes = 0
}

func (a *audioStream) Decode(buf []byte, minLen int) ([]byte, error) {
	perPacket := int(packetSeconds * float64(a.format.Rate))
	unit := a.format.UnitSize()
	for len(buf) < minLen {
		if a.sample >= a.total {
			return buf, decode.ErrEOF
		}
		n := perPacket
		if a.sample+n > a.total {
			n = a.total - a.sample
		}
		if !a.opts.NoAudioPts {
			a.decPts = a.position()
			a.ptsBytes = 0
		}
		for i := 0; i < n; i++ {
			v := math.Sin(a.phase)
			a.phase += 2 * math.Pi * a.opts.Tone / float64(a.format.Rate)
			for c := 0; c < a.format.Channels; c++ {
				buf = appendSample(buf, a.format, v*0.2)
			}
		}
		a.sample += n
		if pts.Valid(a.decPts) {
			a.ptsBytes += n * unit
		}
	}
	return buf, nil
}

func appendSample(buf []byte, f decode.Format, v float64) []byte {
	if f.Bits == 8 {
		return append(buf, byte(int(v*127)+128))
	}
	s := int16(v * math.MaxInt16)
	return binary.LittleEndian.AppendUint16(buf, uint16(s))
}
