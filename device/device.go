// Package device declares the output device contracts and the built-in null devices.
package device

import (
	"errors"

	"github.com/avsync-cli/avsync/decode"
)

// ErrUnavailable is returned when an output device cannot be opened.
var ErrUnavailable = errors.New("output device unavailable")

// PlayFlags modify an audio write.
type PlayFlags int

const (
	// FinalChunk marks the last write of a stream so the device may flush a partial unit.
	FinalChunk PlayFlags = 1 << iota
)

// AudioDriver is an audio sink with its own clock.
type AudioDriver interface {
	// Init opens the device for the given format.
	Init(format decode.Format) error
	Format() decode.Format
	// Space returns how many bytes Play would accept right now.
	Space() int
	// Play writes as much of data as fits and returns the number of bytes accepted.
	// A short write is backpressure, not an error.
	Play(data []byte, flags PlayFlags) int
	// Delay returns the seconds of audio written but not yet audible.
	Delay() float64
	// Reset drops buffered audio.
	Reset()
	Pause()
	Resume()
	// Untimed devices have no real-time pacing.
	Untimed() bool
	// Close releases the device, optionally waiting for buffered audio to play out.
	Close(drain bool) error
}

// VideoDriver displays frames.
type VideoDriver interface {
	Config(width, height int) error
	// Draw uploads the frame that the next FlipPage shows.
	Draw(frame *decode.Frame) error
	// FlipPage shows the drawn frame. ptsUs is a wall-clock target in microseconds when the
	// driver flips on its own schedule; durationUs is -1 when unknown.
	FlipPage(ptsUs int64, durationUs int)
	// TimedFlip reports whether FlipPage waits for ptsUs itself.
	TimedFlip() bool
	// FlipQueueOffset is how far ahead of display time frames must be flipped.
	FlipQueueOffset() float64
	Pause()
	Resume()
	Close() error
}

// Overlay renders subtitles and OSD on top of video.
type Overlay interface {
	UpdateSubtitles(pts float64, reset bool)
	DrawOverlay(pts float64)
}
