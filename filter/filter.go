// Package filter runs decoded video frames through a chain of filters before they
// reach the video output.
package filter

import (
	"errors"

	"github.com/avsync-cli/avsync/decode"
	"github.com/sirupsen/logrus"
)

// Filter transforms one frame into zero or more frames.
type Filter interface {
	Name() string
	Filter(frame *decode.Frame) ([]*decode.Frame, error)
	Close() error
}

// Sink receives filtered frames, usually video.Output.Draw.
type Sink func(frame *decode.Frame) error

// Chain applies filters in order and hands the results to a sink one at a time.
type Chain struct {
	filters []Filter
	sink    Sink
	queue   []*decode.Frame
	log     *logrus.Entry
}

// NewChain builds a chain ending in sink.
func NewChain(sink Sink, log *logrus.Entry, filters ...Filter) *Chain {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Chain{filters: filters, sink: sink, log: log}
}

// Len returns the number of filters.
func (c *Chain) Len() int { return len(c.filters) }

// Put filters frame and delivers the first result. Further results stay queued
// until OutputQueued is called. A failing filter is logged and its input passed on.
func (c *Chain) Put(frame *decode.Frame) error {
	frames := []*decode.Frame{frame}
	for _, f := range c.filters {
		var next []*decode.Frame
		for _, in := range frames {
			out, err := f.Filter(in)
			if err != nil {
				c.log.WithError(err).WithField("filter", f.Name()).Warn("filter failed, passing frame through")
				out = []*decode.Frame{in}
			}
			next = append(next, out...)
		}
		frames = next
	}

	c.queue = append(c.queue, frames...)
	if _, err := c.OutputQueued(); err != nil {
		return err
	}
	return nil
}

// Queued returns the number of frames waiting for the sink.
func (c *Chain) Queued() int { return len(c.queue) }

// OutputQueued delivers one queued frame and reports whether there was one.
func (c *Chain) OutputQueued() (bool, error) {
	if len(c.queue) == 0 {
		return false, nil
	}
	frame := c.queue[0]
	c.queue = c.queue[1:]
	return true, c.sink(frame)
}

// Flush drops queued frames.
func (c *Chain) Flush() {
	c.queue = nil
}

// Close releases every filter.
func (c *Chain) Close() error {
	c.queue = nil
	var errs []error
	for _, f := range c.filters {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
