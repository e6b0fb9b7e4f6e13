// Package state holds the mutable record of one playback session.
package state

import (
	"fmt"
	"time"

	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/seek"
	"github.com/avsync-cli/avsync/timeline"
)

// StopReason tells the loop whether and why to leave the current entry.
type StopReason int

const (
	KeepPlaying StopReason = iota
	AtEndOfFile
	NextEntry
	PrevEntry
	Quit
)

func (r StopReason) String() string {
	switch r {
	case KeepPlaying:
		return "keep playing"
	case AtEndOfFile:
		return "end of file"
	case NextEntry:
		return "next entry"
	case PrevEntry:
		return "previous entry"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Playback is owned by a single goroutine: the playback loop.
type Playback struct {
	Paused   bool
	StopPlay StopReason

	// RestartPlayback is set after a seek or stream (re)initialization and cleared once
	// the first frame has been shown and audio has been synced to it.
	RestartPlayback bool
	// SyncingAudio asks the audio pipeline to align its start to the video.
	SyncingAudio bool

	// VideoPts is the timestamp of the frame on screen.
	VideoPts float64
	// FramePts is the timestamp of the latest frame out of the decoder and filters.
	FramePts float64
	// LastVideoPts is the previous FramePts, used to derive frame durations.
	LastVideoPts float64
	// AudioWrittenPts is the timestamp just past the last audio byte handed to the device.
	AudioWrittenPts float64

	// Delay is the accumulated audio minus video skew in seconds.
	Delay float64
	// TimeFrame is the wall-clock time left until the next flip.
	TimeFrame         float64
	TotalAVSyncChange float64
	LastFlipDuration  float64
	LastAVDifference  float64

	HRSeekActive    bool
	HRSeekPts       float64
	HRSeekFramedrop bool

	Timeline     *timeline.Timeline
	TimelinePart int
	VideoOffset  float64

	Seek           seek.Request
	LastSeekPts    float64
	StartTimestamp time.Duration

	LastChapterSeek int
	LastChapterPts  float64

	StepFrames       int
	FramesLeft       int
	LoopTimes        int
	DropFrameCount   int
	DroppedInARow    int
	DropMessageShown bool

	PtsAssoc PtsAssociation
}

// New returns the state of a freshly opened entry.
func New() *Playback {
	return &Playback{
		RestartPlayback:  true,
		VideoPts:         pts.None,
		FramePts:         pts.None,
		LastVideoPts:     pts.None,
		AudioWrittenPts:  pts.None,
		LastAVDifference: pts.None,
		HRSeekPts:        pts.None,
		LastSeekPts:      pts.None,
		LastChapterSeek:  -2,
		LastChapterPts:   pts.None,
		FramesLeft:       -1,
		LoopTimes:        -1,
	}
}

// ResetTiming discards every timing accumulator. Stale timing must never survive a discontinuity.
func (p *Playback) ResetTiming() {
	p.Delay = 0
	p.TimeFrame = 0
}

// Restart marks a discontinuity: timing is reset and corrections are suspended until
// the next frame has been displayed.
func (p *Playback) Restart() {
	p.ResetTiming()
	p.RestartPlayback = true
	p.HRSeekActive = false
	p.HRSeekFramedrop = false
	p.TotalAVSyncChange = 0
	p.DropFrameCount = 0
	p.DroppedInARow = 0
}

// Stopping reports whether the loop should leave the entry.
func (p *Playback) Stopping() bool {
	return p.StopPlay != KeepPlaying
}

// HasTimeline reports whether playback runs over an ordered timeline.
func (p *Playback) HasTimeline() bool {
	return p.Timeline != nil && p.Timeline.Len() > 0
}
