package device

import (
	"sync"

	"github.com/avsync-cli/avsync/clock"
	"github.com/avsync-cli/avsync/decode"
)

// NullAudio discards audio. When timed it drains its buffer in real time against
// the supplied clock so that it behaves like a sound card.
type NullAudio struct {
	clock   clock.Clock
	untimed bool
	bufSec  float64

	mu       sync.Mutex
	format   decode.Format
	buffered int
	capacity int
	paused   bool
	last     float64
	// Written counts every accepted byte.
	Written int
	// Final is set once a FinalChunk write arrives.
	Final bool
}

// NewNullAudio creates a timed null device buffering bufSec seconds.
func NewNullAudio(c clock.Clock, bufSec float64) *NullAudio {
	return &NullAudio{clock: c, bufSec: bufSec}
}

// NewUntimedNullAudio creates a device that accepts everything instantly.
func NewUntimedNullAudio() *NullAudio {
	return &NullAudio{untimed: true}
}

func (a *NullAudio) Init(format decode.Format) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.format = format
	a.capacity = int(a.bufSec*float64(format.BytesPerSecond())) / format.UnitSize() * format.UnitSize()
	a.buffered = 0
	a.sync()
	return nil
}

func (a *NullAudio) Format() decode.Format {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.format
}

// sync drains the buffer by the time elapsed since the last call.
func (a *NullAudio) sync() {
	if a.untimed || a.clock == nil {
		return
	}
	now := a.clock.Now().Seconds()
	elapsed := now - a.last
	a.last = now
	if a.paused || elapsed <= 0 {
		return
	}
	drained := int(elapsed * float64(a.format.BytesPerSecond()))
	a.buffered -= drained
	if a.buffered < 0 {
		a.buffered = 0
	}
}

func (a *NullAudio) Space() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.untimed {
		return a.format.BytesPerSecond() / 10
	}
	a.sync()
	return a.capacity - a.buffered
}

func (a *NullAudio) Play(data []byte, flags PlayFlags) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if flags&FinalChunk != 0 {
		a.Final = true
	}
	n := len(data)
	if !a.untimed {
		a.sync()
		if space := a.capacity - a.buffered; n > space {
			n = space
		}
		if unit := a.format.UnitSize(); unit > 0 {
			n -= n % unit
		}
		a.buffered += n
	}
	a.Written += n
	return n
}

func (a *NullAudio) Delay() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.untimed || a.format.BytesPerSecond() == 0 {
		return 0
	}
	a.sync()
	return float64(a.buffered) / float64(a.format.BytesPerSecond())
}

func (a *NullAudio) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffered = 0
}

func (a *NullAudio) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sync()
	a.paused = true
}

func (a *NullAudio) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sync()
	a.paused = false
}

func (a *NullAudio) Untimed() bool { return a.untimed }

func (a *NullAudio) Close(drain bool) error {
	a.mu.Lock()
	var wait float64
	if drain && !a.untimed && a.clock != nil && a.format.BytesPerSecond() > 0 {
		wait = float64(a.buffered) / float64(a.format.BytesPerSecond())
	}
	a.mu.Unlock()

	if wait > 0 {
		a.clock.Sleep(secondsToDuration(wait))
	}

	a.mu.Lock()
	a.buffered = 0
	a.mu.Unlock()
	return nil
}

// Flip records one FlipPage call.
type Flip struct {
	Pts        float64
	PtsUs      int64
	DurationUs int
}

// NullVideo records what would have been displayed.
type NullVideo struct {
	Timed  bool
	Offset float64

	Width, Height int
	drawn         *decode.Frame
	Flips         []Flip
	Paused        bool
	Closed        bool
}

func (v *NullVideo) Config(width, height int) error {
	v.Width, v.Height = width, height
	return nil
}

func (v *NullVideo) Draw(frame *decode.Frame) error {
	v.drawn = frame
	return nil
}

func (v *NullVideo) FlipPage(ptsUs int64, durationUs int) {
	f := Flip{PtsUs: ptsUs, DurationUs: durationUs}
	if v.drawn != nil {
		f.Pts = v.drawn.Pts
	}
	v.Flips = append(v.Flips, f)
}

func (v *NullVideo) TimedFlip() bool          { return v.Timed }
func (v *NullVideo) FlipQueueOffset() float64 { return v.Offset }
func (v *NullVideo) Pause()                   { v.Paused = true }
func (v *NullVideo) Resume()                  { v.Paused = false }

func (v *NullVideo) Close() error {
	v.Closed = true
	return nil
}

// NullOverlay tracks the last position it was asked to render.
type NullOverlay struct {
	Pts    float64
	Resets int
}

func (o *NullOverlay) UpdateSubtitles(pts float64, reset bool) {
	o.Pts = pts
	if reset {
		o.Resets++
	}
}

func (o *NullOverlay) DrawOverlay(pts float64) {
	o.Pts = pts
}
