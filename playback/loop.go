package playback

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/avsync-cli/avsync/audio"
	"github.com/avsync-cli/avsync/avsync"
	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/seek"
	"github.com/avsync-cli/avsync/state"
	"github.com/avsync-cli/avsync/util"
)

const (
	// wakeupPeriod bounds the idle wait of one tick, in seconds.
	wakeupPeriod = 0.5
	// pollInterval is the longest sleep between two looks at the command queue.
	pollInterval = 10 * time.Millisecond
	// softsleepMargin is left to busy waiting before a flip, in seconds.
	softsleepMargin = 0.011
	// spinStep paces the busy wait.
	spinStep = 200 * time.Microsecond
	// seekDebounce holds new seeks until a frame of the previous one was shown.
	seekDebounce = 300 * time.Millisecond
	// maxFlipDuration caps the frame duration handed to timed outputs, in seconds.
	maxFlipDuration = 10.0
	// lateFrame is how far behind the loop may fall before it stops catching up.
	lateFrame = -0.2
)

// Run ticks until the entry stops or ctx is done.
func (s *Session) Run(ctx context.Context) state.StopReason {
	for !s.st.Stopping() {
		if ctx.Err() != nil {
			s.st.StopPlay = state.Quit
			break
		}
		s.Tick()
	}
	return s.st.StopPlay
}

// Tick runs one iteration of the playback loop: audio is topped up, at most one
// frame is decoded and flipped, then queued commands and the pending seek are applied.
func (s *Session) Tick() {
	st := s.st
	if s.pollCommand() && s.held.Kind == CmdQuit {
		s.runCommand(s.take())
	}
	if st.Stopping() {
		return
	}

	var fullAudio, audioLeft, videoLeft bool
	endPts := s.endAt
	endIsChapter := false
	sleep := wakeupPeriod
	wasRestart := st.RestartPlayback

	if st.HasTimeline() {
		if end := st.Timeline.End(st.TimelinePart); !pts.Valid(endPts) || end < endPts {
			endPts, endIsChapter = end, true
		}
	}

	if s.opts.ChapterEnd > 0 {
		if cur := s.CurrentChapter(); cur != -1 && cur+1 > s.opts.ChapterEnd {
			st.StopPlay = state.NextEntry
			return
		}
	}

	if s.audio == nil && !s.audioDead && s.demuxer.Audio() != nil {
		s.reinitAudioChain()
	}

	if st.StepFrames > 0 && s.video == nil {
		st.StepFrames = 0
		s.pause()
	}

	if s.audio != nil && !st.RestartPlayback && !s.ao.Untimed() {
		status := s.fillAudio(endPts)
		fullAudio = status == audio.Full
		audioLeft = status != audio.Exhausted
	}

	bufferedAudio := -1.0
	if s.video != nil {
		videoLeft, bufferedAudio, sleep = s.videoStep(endPts, fullAudio, sleep)
		if st.StopPlay == state.Quit {
			return
		}
	}

	if s.audio != nil {
		refill := s.ao.Untimed() && (st.Delay <= 0 || !videoLeft)
		if st.RestartPlayback {
			refill = !videoLeft
		}
		if refill {
			status := s.fillAudio(endPts)
			fullAudio = status == audio.Full && !s.ao.Untimed()
			audioLeft = status != audio.Exhausted
		}
	}
	if !videoLeft {
		st.RestartPlayback = false
	}
	if s.audio != nil && bufferedAudio == -1 {
		bufferedAudio = 0
		if !st.Paused {
			bufferedAudio = s.ao.Delay()
		}
	}

	if !videoLeft && (!st.Paused || wasRestart) {
		aPos := 0.0
		if s.audio != nil {
			aPos = s.writtenAudioPts() - s.speed()*bufferedAudio
		}
		s.printStatus(aPos, false)
		if s.video == nil {
			s.overlay.UpdateSubtitles(aPos, false)
		}
	}

	ended := (s.audio != nil || s.video != nil) && !audioLeft && !videoLeft &&
		(s.opts.Gapless || bufferedAudio < 0.05) && (!st.Paused || wasRestart)
	switch {
	case ended && endIsChapter:
		next := seek.Request{Type: seek.Absolute, Amount: st.Timeline.End(st.TimelinePart)}
		if err := s.seek(next, true); err != nil {
			s.log.WithError(err).Debug("timeline ended")
		}
	case ended:
		st.StopPlay = state.AtEndOfFile
	case !st.Stopping():
		sleep = min(sleep, s.audioSleep(videoLeft, fullAudio, bufferedAudio))
		if sleep > 0 {
			s.wait(sleep)
		}
	}

	s.runCommands()

	if s.opts.StepSec > 0 && !st.Paused && !st.RestartPlayback {
		st.Seek.Queue(seek.Relative, s.opts.StepSec, seek.Default)
	}

	if st.LoopTimes >= 0 && (st.StopPlay == state.AtEndOfFile || st.StopPlay == state.NextEntry) {
		s.log.Debugf("loop times %d", st.LoopTimes)
		if st.LoopTimes > 1 {
			st.LoopTimes--
		} else if st.LoopTimes == 1 {
			st.LoopTimes = -1
		}
		st.FramesLeft = s.opts.Frames
		st.StopPlay = state.KeepPlaying
		st.Seek.Queue(seek.Absolute, s.opts.Start, seek.Default)
	}

	if st.Seek.Pending() {
		if err := s.seek(st.Seek, false); err != nil {
			s.log.WithError(err).Warn("seek")
		}
		st.Seek.Clear()
	}
}

// audioSleep is how long the audio device can go without being topped up.
func (s *Session) audioSleep(videoLeft, fullAudio bool, bufferedAudio float64) float64 {
	if s.audio == nil || s.st.Paused {
		return 9
	}
	switch {
	case s.ao.Untimed():
		if !videoLeft {
			return 0
		}
		return 9
	case fullAudio:
		d := bufferedAudio - 0.050
		if d > 0.100 {
			return max(d-0.200, 0.100)
		}
		return max(d, 0.020)
	default:
		return 0.020
	}
}

// fillAudio tops up the audio device and rebuilds the audio chain on a format change.
func (s *Session) fillAudio(endPts float64) audio.Status {
	status, err := s.audio.Fill(s.st, endPts, s.audioParams())
	switch {
	case errors.Is(err, decode.ErrFormatChanged):
		s.log.Info("audio format changed, reinitializing audio")
		s.reinitAudioChain()
		return audio.Partial
	case err != nil:
		s.log.WithError(err).Warn("audio output")
	}
	return status
}

// videoStep decodes a frame when none is waiting and flips it once it is due.
func (s *Session) videoStep(endPts float64, fullAudio bool, sleep float64) (videoLeft bool, bufferedAudio, sleepOut float64) {
	st, out := s.st, s.out
	bufferedAudio, sleepOut = -1, sleep

	videoLeft = s.hasFrame || out.Loaded()
	if !out.Loaded() && (!st.Paused || st.RestartPlayback) {
		frameTime := s.video.Update(st, s.videoInputs())
		videoLeft = frameTime >= 0
		if videoLeft && !st.RestartPlayback {
			st.TimeFrame += frameTime / s.speed()
			avsync.AdjustSync(st, s.audio != nil, s.writtenAudioPts(), frameTime, s.syncParams())
		}
	}
	if pts.Valid(endPts) {
		videoLeft = videoLeft && st.FramePts < endPts
	}

	if !videoLeft || st.Paused && !st.RestartPlayback {
		return
	}
	if !out.Loaded() {
		sleepOut = 0
		return
	}

	st.TimeFrame -= s.timer.Relative()
	if fullAudio && !st.RestartPlayback {
		bufferedAudio = s.ao.Delay()
		st.TimeFrame = avsync.TimeFrame(st, bufferedAudio, s.syncParams())
	} else if st.TimeFrame < lateFrame || s.opts.Untimed {
		st.TimeFrame = 0
	}

	if vsleep := st.TimeFrame - s.vo.FlipQueueOffset(); vsleep > 0.050 {
		sleepOut = min(sleepOut, vsleep-0.040)
		return
	}
	sleepOut = 0
	s.flip(endPts)
	return
}

// flip shows the loaded frame at its due time.
func (s *Session) flip(endPts float64) {
	st, out := s.st, s.out

	if err := out.NewFrameImminent(); err != nil {
		s.log.WithError(err).Warn("drawing frame")
	}
	st.VideoPts = st.FramePts
	s.overlay.UpdateSubtitles(st.VideoPts, false)
	s.overlay.DrawOverlay(st.VideoPts)

	offset := s.vo.FlipQueueOffset()
	st.TimeFrame -= s.timer.Relative()
	st.TimeFrame -= offset
	if st.TimeFrame > 0.001 {
		st.TimeFrame = s.timingSleep(st.TimeFrame)
	}
	st.TimeFrame += offset
	if st.StopPlay == state.Quit {
		return
	}

	before := s.clock.Now()
	timeFrame := max(st.TimeFrame, -1)
	ptsUs := int64((s.timer.Seconds() + timeFrame) * 1e6)
	duration := -1
	if next := out.NextPts2(); pts.Valid(next) && s.opts.CorrectPts && !st.RestartPlayback {
		diff := (next - st.VideoPts) / s.speed()
		if st.TimeFrame < 0 {
			diff += st.TimeFrame
		}
		duration = int(util.Clamp(diff, 0, maxFlipDuration) * 1e6)
	}
	if err := out.Flip(ptsUs|1, duration); err != nil {
		s.log.WithError(err).Warn("drawing frame")
	}
	s.hasFrame = true

	st.LastFlipDuration = (s.clock.Now() - before).Seconds()
	if s.vo.TimedFlip() {
		st.LastFlipDuration = 0
		st.TimeFrame -= s.timer.Relative()
	}
	if st.RestartPlayback {
		st.SyncingAudio = true
		if s.audio != nil {
			s.fillAudio(endPts)
		}
		st.RestartPlayback = false
		st.TimeFrame = 0
		s.timer.Reset()
	}
	s.printStatus(pts.None, true)

	if st.FramesLeft >= 0 {
		st.FramesLeft--
		if st.FramesLeft <= 0 {
			st.StopPlay = state.NextEntry
		}
	}
	if st.StepFrames > 0 {
		st.StepFrames--
		if st.StepFrames == 0 {
			s.pause()
		}
	}
}

// timingSleep waits until timeFrame seconds have passed in short slices, watching the
// command queue in between, and returns how late the wait ended.
func (s *Session) timingSleep(timeFrame float64) float64 {
	margin := 0.0
	if s.opts.Softsleep {
		margin = softsleepMargin
	}
	for timeFrame > margin {
		d := min(secondsToDuration(timeFrame-margin), pollInterval)
		if d <= 0 {
			break
		}
		s.clock.Sleep(d)
		timeFrame -= s.timer.Relative()
		if s.pollCommand() && s.held.Kind == CmdQuit {
			s.runCommand(s.take())
			return timeFrame
		}
	}
	if s.opts.Softsleep {
		if timeFrame < 0 {
			s.log.Warn("softsleep underflow")
		}
		for timeFrame > 0 {
			s.clock.Sleep(spinStep)
			timeFrame -= s.timer.Relative()
		}
	}
	return timeFrame
}

// wait idles for up to d seconds and returns early when a command arrives.
func (s *Session) wait(d float64) {
	deadline := s.clock.Now() + secondsToDuration(d)
	for {
		if s.pollCommand() {
			return
		}
		left := deadline - s.clock.Now()
		if left <= 0 {
			return
		}
		s.clock.Sleep(min(left, pollInterval))
	}
}

// pollCommand moves one queued command into the held slot unless one is held already.
func (s *Session) pollCommand() bool {
	if s.held != nil {
		return true
	}
	select {
	case cmd := <-s.commands:
		s.held = &cmd
		return true
	default:
		return false
	}
}

func (s *Session) take() Command {
	cmd := *s.held
	s.held = nil
	return cmd
}

// runCommands applies queued commands. Consecutive seeks merge into the pending
// request, but any other command waits until that seek has run. While a seek is
// restarting playback, further seeks wait briefly so that a frame from the new
// position is shown.
func (s *Session) runCommands() {
	st := s.st
	for s.pollCommand() {
		isSeek := s.held.Kind == CmdSeek
		if st.Seek.Pending() && !isSeek {
			return
		}
		if st.RestartPlayback && isSeek && s.clock.Now()-st.StartTimestamp < seekDebounce {
			return
		}
		s.runCommand(s.take())
		if st.Stopping() {
			return
		}
	}
}

func (s *Session) runCommand(cmd Command) {
	st := s.st
	s.log.Debugf("command: %s", cmd)
	switch cmd.Kind {
	case CmdSeek:
		st.Seek.Queue(cmd.SeekType, cmd.Amount, cmd.Exact)
	case CmdPause:
		if st.Paused {
			s.unpause()
		} else {
			s.pause()
		}
	case CmdFrameStep:
		s.addStepFrame()
	case CmdChapter:
		s.stepChapter(cmd.Chapter)
	case CmdChapterName:
		s.chapterByName(cmd.Name)
	case CmdAudioDelay:
		s.opts.AudioDelay += cmd.Amount
		s.log.Infof("audio delay %+.3f", s.opts.AudioDelay)
	case CmdNext:
		st.StopPlay = state.NextEntry
	case CmdPrev:
		st.StopPlay = state.PrevEntry
	case CmdQuit:
		st.StopPlay = state.Quit
	}
}

// pause freezes playback and keeps the time already elapsed towards the next frame.
func (s *Session) pause() {
	st := s.st
	if st.Paused {
		return
	}
	st.Paused = true
	st.StepFrames = 0
	st.TimeFrame -= s.timer.Relative()
	if s.video != nil {
		s.out.Pause()
	}
	if s.audio != nil {
		s.ao.Pause()
	}
	s.printStatus(pts.None, false)
}

// unpause resumes playback, ignoring the time spent paused.
func (s *Session) unpause() {
	st := s.st
	if !st.Paused {
		return
	}
	st.Paused = false
	if s.audio != nil {
		s.ao.Resume()
	}
	if s.video != nil && st.StepFrames == 0 {
		s.out.Resume()
	}
	s.timer.Reset()
}

// addStepFrame plays one more frame and pauses again.
func (s *Session) addStepFrame() {
	s.st.StepFrames++
	if s.video != nil {
		s.out.Pause()
	}
	s.unpause()
}

// secondsToDuration rounds up so that a positive remainder never becomes a zero sleep.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Ceil(s * float64(time.Second)))
}
