package video

import (
	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/device"
	"github.com/avsync-cli/avsync/pts"
)

// Output sits between the filter chain and a video driver.
//
// A frame is "loaded" once it is the next one to be flipped. Drivers that flip on their
// own schedule keep one frame of look-ahead so the duration of the loaded frame is
// known; their frames are only loaded once a second one has arrived or the stream
// has ended.
type Output struct {
	driver device.VideoDriver
	timed  bool

	queue    []*decode.Frame
	loaded   bool
	drawn    bool
	nextPts  float64
	nextPts2 float64

	width, height int
}

// NewOutput wraps driver.
func NewOutput(driver device.VideoDriver) *Output {
	return &Output{
		driver:   driver,
		timed:    driver.TimedFlip(),
		nextPts:  pts.None,
		nextPts2: pts.None,
	}
}

// Driver returns the wrapped driver.
func (o *Output) Driver() device.VideoDriver { return o.driver }

// Timed reports whether the driver flips on its own schedule.
func (o *Output) Timed() bool { return o.timed }

// Put accepts a filtered frame. It is the sink of the filter chain.
func (o *Output) Put(frame *decode.Frame) error {
	if frame.Width != o.width || frame.Height != o.height {
		if err := o.driver.Config(frame.Width, frame.Height); err != nil {
			return err
		}
		o.width, o.height = frame.Width, frame.Height
	}

	o.queue = append(o.queue, frame)
	if !o.timed {
		o.load()
	}
	return nil
}

func (o *Output) load() {
	o.loaded = true
	o.drawn = false
	o.nextPts = o.queue[0].Pts
	o.nextPts2 = pts.None
	if len(o.queue) > 1 {
		o.nextPts2 = o.queue[1].Pts
	}
}

// HasBufferedFrame loads a queued frame if possible and reports whether one is loaded.
// At eof a single queued frame is enough.
func (o *Output) HasBufferedFrame(eof bool) bool {
	if o.loaded {
		return true
	}
	if len(o.queue) == 0 || (o.timed && len(o.queue) < 2 && !eof) {
		return false
	}
	o.load()
	return true
}

// Loaded reports whether a frame is waiting to be flipped.
func (o *Output) Loaded() bool { return o.loaded }

// NextPts is the timestamp of the loaded frame.
func (o *Output) NextPts() float64 { return o.nextPts }

// NextPts2 is the timestamp of the frame after the loaded one, or pts.None.
func (o *Output) NextPts2() float64 { return o.nextPts2 }

// SkipFrame discards the loaded frame without showing it.
func (o *Output) SkipFrame() {
	if !o.loaded {
		return
	}
	o.queue = o.queue[1:]
	o.loaded = false
}

// NewFrameImminent uploads the loaded frame ahead of the flip.
func (o *Output) NewFrameImminent() error {
	if !o.loaded || o.drawn {
		return nil
	}
	o.drawn = true
	return o.driver.Draw(o.queue[0])
}

// Flip shows the loaded frame. A frame that could not be drawn is still flipped and
// the draw error returned.
func (o *Output) Flip(ptsUs int64, durationUs int) error {
	if !o.loaded {
		return nil
	}
	var err error
	if !o.drawn {
		err = o.NewFrameImminent()
	}
	o.driver.FlipPage(ptsUs, durationUs)
	o.queue = o.queue[1:]
	o.loaded = false
	o.drawn = false
	return err
}

// Reset forgets queued frames.
func (o *Output) Reset() {
	o.queue = nil
	o.loaded = false
	o.drawn = false
	o.nextPts = pts.None
	o.nextPts2 = pts.None
}

func (o *Output) Pause()  { o.driver.Pause() }
func (o *Output) Resume() { o.driver.Resume() }

// Close resets the output and closes the driver.
func (o *Output) Close() error {
	o.Reset()
	return o.driver.Close()
}
