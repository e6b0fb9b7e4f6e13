// Package otoaudio plays PCM through the system sound card using oto.
package otoaudio

import (
	"fmt"
	"sync"
	"time"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/device"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	shared     *oto.Context
	sharedOpts oto.NewContextOptions
	sharedMu   sync.Mutex
)

func sharedContext(opts oto.NewContextOptions) (*oto.Context, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		if sharedOpts.SampleRate != opts.SampleRate ||
			sharedOpts.ChannelCount != opts.ChannelCount ||
			sharedOpts.Format != opts.Format {
			return nil, fmt.Errorf("%w: sound card already opened as %dHz/%dch", device.ErrUnavailable, sharedOpts.SampleRate, sharedOpts.ChannelCount)
		}
		return shared, nil
	}

	ctx, ready, err := oto.NewContext(&opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrUnavailable, err)
	}
	<-ready
	shared, sharedOpts = ctx, opts
	return ctx, nil
}

// Driver feeds oto from a bounded ring so that Space and Delay mean what the playback core expects.
type Driver struct {
	bufSec float64

	format decode.Format
	player *oto.Player
	ring   *ring
}

// New creates a driver that keeps up to bufSec seconds queued.
func New(bufSec float64) *Driver {
	return &Driver{bufSec: bufSec}
}

func otoFormat(f decode.Format) (oto.Format, error) {
	switch {
	case f.Bits == 16 && f.Signed:
		return oto.FormatSignedInt16LE, nil
	case f.Bits == 8 && !f.Signed:
		return oto.FormatUnsignedInt8, nil
	default:
		return 0, fmt.Errorf("%w: unsupported sample format %s", device.ErrUnavailable, f)
	}
}

func (d *Driver) Init(format decode.Format) error {
	of, err := otoFormat(format)
	if err != nil {
		return err
	}

	ctx, err := sharedContext(oto.NewContextOptions{
		SampleRate:   format.Rate,
		ChannelCount: format.Channels,
		Format:       of,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	size := int(d.bufSec*float64(format.BytesPerSecond())) / format.UnitSize() * format.UnitSize()
	d.format = format
	d.ring = newRing(size, format.FillByte())
	d.player = ctx.NewPlayer(d.ring)
	d.player.Play()
	return nil
}

func (d *Driver) Format() decode.Format { return d.format }

func (d *Driver) Space() int {
	return d.ring.space()
}

func (d *Driver) Play(data []byte, flags device.PlayFlags) int {
	n := d.ring.write(data, d.format.UnitSize())
	if !d.player.IsPlaying() && !d.ring.isPaused() {
		d.player.Play()
	}
	return n
}

func (d *Driver) Delay() float64 {
	bps := d.format.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return float64(d.ring.len()+d.ring.audible(d.player.BufferedSize())) / float64(bps)
}

func (d *Driver) Reset() {
	d.ring.clear()
}

func (d *Driver) Pause() {
	d.ring.setPaused(true)
	d.player.Pause()
}

func (d *Driver) Resume() {
	d.ring.setPaused(false)
	d.player.Play()
}

func (d *Driver) Untimed() bool { return false }

func (d *Driver) Close(drain bool) error {
	if d.player == nil {
		return nil
	}
	if drain {
		for d.Delay() > 0.01 && d.player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
	}
	d.player.Pause()
	d.ring.clear()
	err := d.player.Close()
	d.player = nil
	return err
}

// historyLen bounds how many reads the ring remembers.
const historyLen = 64

// read is one hand-out to oto: audio followed by silence padding.
type read struct {
	audio, silence int
}

// ring is the io.Reader oto pulls from.
type ring struct {
	mu      sync.Mutex
	buf     []byte
	cap     int
	fill    byte
	paused  bool
	history []read
}

func newRing(capacity int, fill byte) *ring {
	return &ring{buf: make([]byte, 0, capacity), cap: capacity, fill: fill}
}

// Read never blocks. Underruns are padded with silence to keep the device clock running.
func (r *ring) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := copy(p, r.buf)
	r.buf = r.buf[:copy(r.buf, r.buf[n:])]
	for i := n; i < len(p); i++ {
		p[i] = r.fill
	}
	r.history = append(r.history, read{audio: n, silence: len(p) - n})
	if len(r.history) > historyLen {
		r.history = r.history[len(r.history)-historyLen:]
	}
	return len(p), nil
}

// audible counts the audio bytes among the last n bytes handed out, leaving out padding.
func (r *ring) audible(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for i := len(r.history) - 1; i >= 0 && n > 0; i-- {
		h := r.history[i]
		n -= min(n, h.silence)
		a := min(n, h.audio)
		n -= a
		count += a
	}
	return count
}

func (r *ring) write(data []byte, unit int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(len(data), r.cap-len(r.buf))
	if unit > 0 {
		n -= n % unit
	}
	r.buf = append(r.buf, data[:n]...)
	return n
}

func (r *ring) space() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cap - len(r.buf)
}

func (r *ring) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

func (r *ring) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = r.buf[:0]
}

func (r *ring) setPaused(p bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = p
}

func (r *ring) isPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}
