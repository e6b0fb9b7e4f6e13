package playback

import (
	"fmt"

	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/seek"
	"github.com/avsync-cli/avsync/state"
	"github.com/avsync-cli/avsync/util"
	"github.com/samber/mo"
)

// seek applies a coalesced request. A fallthrough seek continues a timeline into its
// next part and leaves audio already queued on the device alone.
func (s *Session) seek(r seek.Request, intoNextPart bool) error {
	st := s.st
	if s.demuxer == nil {
		return ErrSeekFailed
	}
	if st.StopPlay == state.AtEndOfFile {
		st.StopPlay = state.KeepPlaying
	}

	precise := seek.Precise(r, s.demuxer.AccurateSeek(), s.opts.CorrectPts, s.opts.HRSeek)
	if r.Type == seek.Factor || r.Type == seek.Absolute && r.Amount < st.LastChapterPts || r.Amount < 0 {
		st.LastChapterSeek = -2
	}
	if st.HasTimeline() && r.Type == seek.Factor {
		r.Amount *= st.Timeline.Duration()
		r.Type = seek.Absolute
	}
	if (s.demuxer.AccurateSeek() || st.HasTimeline()) && r.Type == seek.Relative {
		r.Type = seek.Absolute
		r.Direction = 1
		if r.Amount <= 0 {
			r.Direction = -1
		}
		r.Amount += s.CurrentTime()
	}

	needReset := false
	demuxerAmount := r.Amount
	if st.HasTimeline() {
		part, pos, err := st.Timeline.Resolve(r.Amount)
		if err != nil {
			st.StopPlay = state.AtEndOfFile
			if s.audio != nil && !intoNextPart {
				s.audio.Reset(true)
			}
			return fmt.Errorf("%w: %.3f: %v", ErrSeekFailed, r.Amount, err)
		}
		needReset = s.setPart(part)
		demuxerAmount = pos
	}
	if needReset {
		s.reinitVideoChain()
	}

	flags := seek.DemuxerFlags(r, precise)
	if precise {
		demuxerAmount -= s.opts.HRSeekDemuxerOffset
	}
	if err := s.demuxer.Seek(demuxerAmount, s.opts.AudioDelay, flags); err != nil {
		if needReset {
			s.reinitAudioChain()
			s.seekReset(!intoNextPart, false)
		}
		return fmt.Errorf("%w: %v", ErrSeekFailed, err)
	}

	if needReset {
		s.reinitAudioChain()
	}
	// A freshly built audio chain has nothing stale to drop.
	s.seekReset(!intoNextPart, !needReset)

	// The target stands in for the current position until a frame is decoded.
	if r.Type == seek.Absolute {
		st.VideoPts = r.Amount
		st.LastSeekPts = r.Amount
	} else {
		st.LastSeekPts = pts.None
	}

	if precise {
		st.HRSeekActive = true
		st.HRSeekFramedrop = true
		st.HRSeekPts = r.Amount
	}
	st.StartTimestamp = s.clock.Now()
	s.log.WithField("precise", precise).Debugf("seek %s", r)
	return nil
}

// seekReset drops everything decoded before a discontinuity and restarts playback.
func (s *Session) seekReset(resetAO, resetAC bool) {
	st := s.st
	if s.video != nil {
		s.video.Reset()
		s.hasFrame = false
		st.LastVideoPts = pts.None
		st.VideoPts = pts.Or(s.demuxer.Video().Pts(), 0) + st.VideoOffset
		s.overlay.UpdateSubtitles(st.VideoPts, true)
	}

	if s.audio != nil && resetAC {
		s.audio.Reset(resetAO)
		if s.video == nil {
			s.overlay.UpdateSubtitles(s.writtenAudioPts(), true)
		}
	}

	st.Restart()
}

// setPart switches to timeline part i and reports whether its source differs from
// the current one, in which case the decoders must be rebuilt.
func (s *Session) setPart(i int) bool {
	st := s.st
	current := st.Timeline.Part(st.TimelinePart)
	next := st.Timeline.Part(i)
	st.TimelinePart = i
	st.VideoOffset = st.Timeline.Offset(i)
	if next.Source == current.Source {
		return false
	}

	mask := initVCodec | initACodec | initSub
	if !s.opts.FixedVO {
		mask |= initVO
	}
	if !s.opts.Gapless {
		mask |= initAO
	}
	stop := st.StopPlay
	if s.video == nil && st.StopPlay == state.KeepPlaying {
		// Without video the device may drain what it holds.
		st.StopPlay = state.AtEndOfFile
	}
	if err := s.uninit(mask); err != nil {
		s.log.WithError(err).Warn("closing previous part")
	}
	st.StopPlay = stop
	s.initialized |= initSub

	s.demuxer = next.Source.Demuxer
	s.audioDead = false
	s.log.Debugf("timeline part %d from %s", i, s.demuxer.Name())
	return true
}

// CurrentTime is the best known playback position: the stream position if the
// demuxer reports one, the frame on screen, the audible audio, or the last seek target.
func (s *Session) CurrentTime() float64 {
	if s.demuxer == nil {
		return 0
	}
	if p := s.demuxer.StreamPts(); pts.Valid(p) {
		return p
	}
	if s.video != nil && pts.Valid(s.st.VideoPts) {
		return s.st.VideoPts
	}
	if p := s.playingAudioPts(); pts.Valid(p) {
		return p
	}
	return pts.Or(s.st.LastSeekPts, 0)
}

// Length is the total duration of the entry, or zero when unknown.
func (s *Session) Length() float64 {
	if s.st.HasTimeline() {
		return s.st.Timeline.Duration()
	}
	if s.demuxer == nil {
		return 0
	}
	return max(s.demuxer.Duration(), 0)
}

// PercentPos is the position as a whole percentage of the length.
func (s *Session) PercentPos() int {
	length := s.Length()
	if length <= 0 {
		return 0
	}
	return util.Clamp(int(s.CurrentTime()*100/length), 0, 100)
}

// CurrentChapter returns the chapter being played, -1 before the first chapter and
// -2 without chapters. A chapter just sought to counts as current even when the
// position has not caught up yet.
func (s *Session) CurrentChapter() int {
	if !s.st.HasTimeline() || len(s.st.Timeline.Chapters) == 0 {
		return -2
	}
	return max(s.st.LastChapterSeek, s.st.Timeline.CurrentChapter(s.CurrentTime()))
}

// ChapterName renders chapter i for display.
func (s *Session) ChapterName(i int) string {
	if !s.st.HasTimeline() {
		return ""
	}
	return s.st.Timeline.ChapterName(i)
}

// SeekChapter queues a seek to the start of chapter i. Indexes before the first
// chapter clamp to it.
func (s *Session) SeekChapter(i int) mo.Option[float64] {
	st := s.st
	st.LastChapterSeek = -2
	if !st.HasTimeline() {
		return mo.None[float64]()
	}
	start, ok := st.Timeline.ChapterStart(i).Get()
	if !ok {
		return mo.None[float64]()
	}
	st.LastChapterSeek = max(i, 0)
	st.LastChapterPts = start
	st.Seek.Queue(seek.Absolute, start, seek.Default)
	return mo.Some(start)
}

func (s *Session) stepChapter(step int) {
	cur := s.CurrentChapter()
	if cur == -2 {
		s.log.Info("no chapters")
		return
	}
	target := cur + step
	if s.SeekChapter(target).IsAbsent() {
		// Past the last chapter means the next entry.
		if step > 0 {
			s.st.StopPlay = state.NextEntry
		}
		return
	}
	s.log.Infof("chapter %s", s.ChapterName(max(target, 0)))
}

func (s *Session) chapterByName(name string) {
	if !s.st.HasTimeline() {
		return
	}
	i, ok := s.st.Timeline.FindChapter(name).Get()
	if !ok {
		s.log.Infof("no chapter matches %q", name)
		return
	}
	s.SeekChapter(i)
	s.log.Infof("chapter %s", s.ChapterName(i))
}
