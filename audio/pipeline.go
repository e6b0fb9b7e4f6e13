// Package audio moves decoded audio into the output device and keeps the written
// position and the skew accumulator up to date.
package audio

import (
	"errors"
	"fmt"
	"math"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/device"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/state"
	"github.com/sirupsen/logrus"
)

// Status summarizes one Fill call.
type Status int

const (
	// Full means the device took everything it asked for.
	Full Status = iota
	// Partial means less than the device could take was available.
	Partial
	// Exhausted means the stream has ended and its tail was handed over.
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Full:
		return "full"
	case Partial:
		return "partial"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// maxStartSyncOffset is the largest offset trusted at start sync. Anything larger is a
// broken or reset timestamp, not a real offset.
const maxStartSyncOffset = 300

// minDiscard is the least amount decoded per attempt when skipping leading audio.
const minDiscard = 20000

// errStartSyncDone means start sync filled the device with silence and nothing else
// should be written this time.
var errStartSyncDone = errors.New("start sync wrote silence")

// Params are the per call settings of the pipeline.
type Params struct {
	Speed       float64
	AudioDelay  float64
	InitialSync bool
	HasVideo    bool
}

func (p Params) speed() float64 {
	if p.Speed <= 0 {
		return 1
	}
	return p.Speed
}

// Pipeline owns the decoded but unplayed audio of one stream.
type Pipeline struct {
	dec    decode.AudioDecoder
	ao     device.AudioDriver
	format decode.Format
	log    *logrus.Entry

	buf     []byte
	scratch []byte
	stretch stretcher
	eof     bool

	// lastSync is the byte offset chosen by the most recent start sync:
	// positive for inserted silence, negative for discarded audio.
	lastSync int
}

// NewPipeline opens ao in the decoder's format. A device already open in that
// format is kept as is, so that audio queued by a previous stream keeps playing.
func NewPipeline(dec decode.AudioDecoder, ao device.AudioDriver, speed float64, log *logrus.Entry) (*Pipeline, error) {
	format := dec.Format()
	if ao.Format() != format {
		if err := ao.Init(format); err != nil {
			return nil, err
		}
	}
	if speed <= 0 {
		speed = 1
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{
		dec:     dec,
		ao:      ao,
		format:  format,
		log:     log,
		stretch: stretcher{speed: speed},
	}, nil
}

// Device returns the output device.
func (p *Pipeline) Device() device.AudioDriver { return p.ao }

// Format returns the sample format shared by decoder and device.
func (p *Pipeline) Format() decode.Format { return p.format }

// EOF reports whether the decoder has run dry.
func (p *Pipeline) EOF() bool { return p.eof }

// Buffered returns the number of decoded bytes waiting for the device.
func (p *Pipeline) Buffered() int { return len(p.buf) }

// LastStartSync returns the offset applied by the latest start sync.
func (p *Pipeline) LastStartSync() int { return p.lastSync }

// bps is the device byte rate scaled to source time.
func (p *Pipeline) bps(speed float64) float64 {
	return float64(p.format.BytesPerSecond()) / speed
}

// WrittenPts is the timestamp just past the last byte handed to the device.
func (p *Pipeline) WrittenPts(st *state.Playback, speed float64) float64 {
	decPts := p.dec.Pts()
	if !pts.Valid(decPts) {
		return pts.None
	}
	rate := float64(p.format.BytesPerSecond())
	written := decPts + float64(p.dec.PtsBytes())/rate
	written -= float64(len(p.buf)) * speed / rate
	return written + st.VideoOffset
}

// PlayingPts is the timestamp currently audible.
func (p *Pipeline) PlayingPts(st *state.Playback, speed float64) float64 {
	written := p.WrittenPts(st, speed)
	if !pts.Valid(written) {
		return written
	}
	return written - speed*p.ao.Delay()
}

// Reset forgets decoded audio after a seek, optionally flushing the device too.
func (p *Pipeline) Reset(flush bool) {
	p.dec.Reset()
	if flush {
		p.ao.Reset()
	}
	p.buf = p.buf[:0]
	p.stretch.reset()
	p.eof = false
}

// Close releases the device.
func (p *Pipeline) Close(drain bool) error {
	return p.ao.Close(drain)
}

// decode tops the buffer up to at least minLen bytes.
func (p *Pipeline) decode(minLen int) error {
	unit := p.format.UnitSize()
	for len(p.buf) < minLen {
		want := int(math.Ceil(float64(minLen-len(p.buf)) * p.stretch.speed))
		want += (unit - want%unit) % unit
		raw, err := p.dec.Decode(p.scratch[:0], want)
		p.scratch = raw
		p.buf = p.stretch.apply(p.buf, raw, unit)
		switch {
		case errors.Is(err, decode.ErrEOF):
			p.eof = true
			return err
		case errors.Is(err, decode.ErrFormatChanged):
			return err
		case err != nil:
			return fmt.Errorf("%w: %v", decode.ErrRecoverable, err)
		case len(raw) == 0:
			return fmt.Errorf("%w: audio decoder returned no data for %d bytes", decode.ErrRecoverable, want)
		}
	}
	return nil
}

// write hands data to the device and advances the skew accumulator by what it took.
func (p *Pipeline) write(st *state.Playback, data []byte, flags device.PlayFlags, speed float64) int {
	if st.Paused {
		return 0
	}
	played := p.ao.Play(data, flags)
	if played > 0 {
		st.Delay += float64(played) / p.bps(speed)
	}
	return played
}

// StartSyncBytes converts a start offset into whole sample frames at bps.
// Offsets beyond 300 seconds are treated as zero.
func StartSyncBytes(ptsdiff, bps float64, unit int) int {
	if math.Abs(ptsdiff) > maxStartSyncOffset {
		return 0
	}
	bytes := int(ptsdiff * bps)
	if unit > 0 {
		bytes -= bytes % unit
	}
	return bytes
}

// startSync aligns the first audible sample with the frame on screen, or with the
// precise seek target when there is no video. Audio that starts late is preceded by
// silence and audio that starts early loses its head.
func (p *Pipeline) startSync(st *state.Playback, playsize int, o Params) error {
	if err := p.decode(1); err != nil {
		return err
	}

	speed := o.speed()
	bps := p.bps(speed)
	unit := p.format.UnitSize()
	hrseek := st.HRSeekActive
	st.HRSeekActive = false

	var (
		bytes   int
		written float64
		retried bool
	)
	for {
		written = p.WrittenPts(st, speed)
		var ptsdiff float64
		if hrseek {
			ptsdiff = written - st.HRSeekPts
		} else {
			ptsdiff = written - st.FramePts - st.Delay - o.AudioDelay
		}
		bytes = StartSyncBytes(ptsdiff, bps, unit)

		// Some containers only stamp later packets.
		if written <= 1 && !pts.Valid(p.dec.Pts()) {
			if !retried {
				if err := p.decode(p.format.BytesPerSecond()); err != nil {
					return err
				}
				retried = true
				continue
			}
			bytes = 0
		}
		p.lastSync = bytes

		if bytes > 0 {
			break
		}

		st.SyncingAudio = false
		skip := min(-bytes, max(playsize, minDiscard))
		err := p.decode(skip)
		bytes += len(p.buf)
		if bytes >= 0 {
			p.buf = p.buf[:copy(p.buf, p.buf[len(p.buf)-bytes:])]
			if err != nil {
				return err
			}
			return p.decode(playsize)
		}
		p.buf = p.buf[:0]
		if err != nil {
			return err
		}
	}

	// Audio-only precise seeks never pad, even when landing late.
	if hrseek {
		return nil
	}

	fill := p.format.FillByte()
	if bytes >= playsize {
		silence := make([]byte, playsize)
		for i := range silence {
			silence[i] = fill
		}
		p.write(st, silence, 0, speed)
		return errStartSyncDone
	}

	st.SyncingAudio = false
	silence := make([]byte, bytes, bytes+len(p.buf))
	for i := range silence {
		silence[i] = fill
	}
	p.buf = append(silence, p.buf...)
	return p.decode(playsize)
}

// Fill decodes and writes as much audio as the device accepts, stopping at endPts
// when it is valid. ErrFormatChanged is returned when the audio chain must be rebuilt.
func (p *Pipeline) Fill(st *state.Playback, endPts float64, o Params) (Status, error) {
	speed := o.speed()
	unit := p.format.UnitSize()
	modifiable := p.format.Modifiable()

	playsize := 1
	if !st.Paused {
		playsize = p.ao.Space()
	}

	if !o.HasVideo {
		st.SyncingAudio = false
	}
	if !o.InitialSync || !modifiable {
		st.SyncingAudio = false
		st.HRSeekActive = false
	}

	var err error
	if st.SyncingAudio || st.HRSeekActive {
		err = p.startSync(st, playsize, o)
	} else {
		err = p.decode(playsize)
	}

	audioEOF := false
	switch {
	case err == nil:
	case errors.Is(err, decode.ErrFormatChanged):
		return Partial, err
	case errors.Is(err, errStartSyncDone):
		st.AudioWrittenPts = p.WrittenPts(st, speed)
		return Full, nil
	case errors.Is(err, decode.ErrEOF):
		audioEOF = true
	default:
		p.log.WithError(err).Warn("audio decoding failed, playing what was decoded")
	}

	var flags device.PlayFlags
	partial := false
	if pts.Valid(endPts) && modifiable {
		bytes := (endPts - p.WrittenPts(st, speed) + o.AudioDelay) * p.bps(speed)
		if float64(playsize) > bytes {
			playsize = max(int(bytes), 0)
			flags |= device.FinalChunk
			audioEOF = true
			partial = true
		}
	}

	if playsize > len(p.buf) {
		partial = true
		playsize = len(p.buf)
		if audioEOF {
			flags |= device.FinalChunk
		}
	}
	playsize -= playsize % unit
	if playsize == 0 {
		return status(partial, audioEOF), nil
	}

	played := p.write(st, p.buf[:playsize], flags, speed)
	if played > 0 {
		p.buf = p.buf[:copy(p.buf, p.buf[played:])]
	} else if !st.Paused && audioEOF && p.ao.Delay() < .04 {
		// The device will never take a partial unit; do not wait for it forever.
		return Exhausted, nil
	}
	st.AudioWrittenPts = p.WrittenPts(st, speed)

	if partial {
		return Partial, nil
	}
	return Full, nil
}

func status(partial, eof bool) Status {
	switch {
	case partial && eof:
		return Exhausted
	case partial:
		return Partial
	default:
		return Full
	}
}
