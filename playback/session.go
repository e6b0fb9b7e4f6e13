// Package playback runs one playlist entry: it owns the decoders, the output devices
// and the loop that keeps audio and video in step.
package playback

import (
	"errors"
	"fmt"

	"github.com/avsync-cli/avsync/audio"
	"github.com/avsync-cli/avsync/avsync"
	"github.com/avsync-cli/avsync/clock"
	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/device"
	"github.com/avsync-cli/avsync/filter"
	"github.com/avsync-cli/avsync/log"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/seek"
	"github.com/avsync-cli/avsync/state"
	"github.com/avsync-cli/avsync/timeline"
	"github.com/avsync-cli/avsync/video"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// commandBuffer is how many commands may wait for the loop.
const commandBuffer = 32

// component is a bit set of initialized parts of a session.
type component int

const (
	initVCodec component = 1 << iota
	initVO
	initACodec
	initAO
	initSub
	initDemuxer

	initAll = initVCodec | initVO | initACodec | initAO | initSub | initDemuxer
)

// Entry is something playable: a single demuxer or an ordered timeline.
type Entry struct {
	// Path identifies the entry for resume positions.
	Path     string
	Title    string
	Demuxer  decode.Demuxer
	Timeline *timeline.Timeline
}

// Name returns the best display name of the entry.
func (e Entry) Name() string {
	switch {
	case e.Title != "":
		return e.Title
	case e.Timeline != nil && e.Timeline.Title != "":
		return e.Timeline.Title
	case e.Demuxer != nil:
		return e.Demuxer.Name()
	default:
		return e.Path
	}
}

// Devices are outputs that may outlive a session.
type Devices struct {
	Audio device.AudioDriver
	Video device.VideoDriver
}

// Session plays one entry. All methods except Send must be called from the
// goroutine running the loop.
type Session struct {
	ID string

	entry    Entry
	opts     config.Options
	clock    clock.Clock
	timer    *clock.Timer
	log      *logrus.Entry
	st       *state.Playback
	commands chan Command
	held     *Command

	demuxer decode.Demuxer
	audio   *audio.Pipeline
	video   *video.Pipeline
	out     *video.Output
	ao      device.AudioDriver
	vo      device.VideoDriver
	overlay device.Overlay
	filters []filter.Filter
	scripts *filter.Scripts

	initialized component
	// audioDead is set once the audio chain failed so that it is not retried every tick.
	audioDead bool
	// hasFrame is set once a frame was shown since the last seek.
	hasFrame bool
	endAt    float64
	status   func(Status)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithDevices hands over outputs kept open by a previous session.
func WithDevices(d Devices) Option {
	return func(s *Session) {
		if d.Audio != nil {
			s.ao = d.Audio
		}
		if d.Video != nil {
			s.vo = d.Video
		}
	}
}

// WithAudioDriver uses ao instead of the configured audio driver.
func WithAudioDriver(ao device.AudioDriver) Option {
	return func(s *Session) { s.ao = ao }
}

// WithVideoDriver uses vo instead of the configured video driver.
func WithVideoDriver(vo device.VideoDriver) Option {
	return func(s *Session) { s.vo = vo }
}

// WithOverlay renders subtitles and on screen display through o.
func WithOverlay(o device.Overlay) Option {
	return func(s *Session) { s.overlay = o }
}

// WithFilters appends video filters. The session closes them.
func WithFilters(filters ...filter.Filter) Option {
	return func(s *Session) { s.filters = append(s.filters, filters...) }
}

// WithScripts loads filter scripts through a shared cache.
func WithScripts(sc *filter.Scripts) Option {
	return func(s *Session) { s.scripts = sc }
}

// WithStatus receives a status report after every status line update.
func WithStatus(fn func(Status)) Option {
	return func(s *Session) { s.status = fn }
}

// Open prepares entry for playback and performs the initial seek.
func Open(entry Entry, opts config.Options, options ...Option) (*Session, error) {
	id := uuid.NewString()
	s := &Session{
		ID:       id,
		entry:    entry,
		opts:     opts,
		commands: make(chan Command, commandBuffer),
		overlay:  &device.NullOverlay{},
		log:      log.Session(id).WithField("entry", entry.Name()),
		st:       state.New(),
	}
	for _, o := range options {
		o(s)
	}
	if s.ao != nil {
		s.initialized |= initAO
	}
	if s.vo != nil {
		s.initialized |= initVO
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	s.timer = clock.NewTimer(s.clock)
	if s.opts.Speed <= 0 {
		s.opts.Speed = 1
	}

	switch {
	case entry.Timeline != nil:
		if entry.Timeline.Len() == 0 {
			return nil, fmt.Errorf("%w: empty timeline", ErrFatal)
		}
		s.st.Timeline = entry.Timeline
		s.st.TimelinePart = 0
		s.st.VideoOffset = entry.Timeline.Offset(0)
		s.demuxer = entry.Timeline.Part(0).Source.Demuxer
	case entry.Demuxer != nil:
		s.demuxer = entry.Demuxer
	default:
		return nil, fmt.Errorf("%w: entry has no source", ErrFatal)
	}
	s.initialized |= initDemuxer | initSub

	if path := s.opts.FilterLua; path != "" {
		if s.scripts == nil {
			s.scripts = filter.NewScripts()
		}
		if f, err := s.scripts.Load(path); err != nil {
			s.log.WithError(err).Warn("lua filter disabled")
		} else {
			s.filters = append(s.filters, f)
		}
	}

	s.reinitVideoChain()
	s.reinitAudioChain()
	if s.video == nil && s.audio == nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: no audio or video stream could be opened", ErrFatal)
	}

	s.log.WithFields(logrus.Fields{
		"video":    s.video != nil,
		"audio":    s.audio != nil,
		"timeline": s.st.HasTimeline(),
	}).Info("playing")
	s.start()
	return s, nil
}

// start resets the per entry counters and performs the initial seek.
func (s *Session) start() {
	st := s.st
	st.LoopTimes = s.opts.Loop
	if st.LoopTimes > 1 {
		st.LoopTimes--
	} else if st.LoopTimes == 1 {
		st.LoopTimes = -1
	}
	st.FramesLeft = s.opts.Frames
	if st.FramesLeft == 0 {
		st.StopPlay = state.NextEntry
		return
	}

	st.TimeFrame = 0
	st.DropMessageShown = false
	st.StepFrames = 0
	st.RestartPlayback = true
	st.VideoPts = 0
	st.LastSeekPts = 0
	st.LastChapterSeek = -2

	s.endAt = pts.None
	if s.opts.EndAt >= 0 {
		s.endAt = s.opts.EndAt
	}
	if s.opts.Start != 0 || st.HasTimeline() {
		st.Seek.Queue(seek.Absolute, s.opts.Start, seek.Default)
		if err := s.seek(st.Seek, false); err != nil {
			s.log.WithError(err).Warn("initial seek")
		}
		if pts.Valid(s.endAt) {
			s.endAt += s.opts.Start
		}
	}
	st.Seek.Clear()
	s.timer.Reset()
}

// reinitVideoChain builds the video pipeline of the current demuxer.
func (s *Session) reinitVideoChain() {
	s.uninit(initVCodec)
	stream := s.demuxer.Video()
	if stream == nil {
		s.uninit(initVO)
		return
	}

	if s.out == nil {
		if s.vo == nil {
			vo, err := NewVideoDriver(s.opts)
			if err != nil {
				s.log.WithError(err).Error("video output unavailable, playing audio only")
				return
			}
			s.vo = vo
		}
		s.out = video.NewOutput(s.vo)
		s.initialized |= initVO
	}

	s.video = video.NewPipeline(stream, s.demuxer.TimestampType(), s.out, s.log, s.filters...)
	s.initialized |= initVCodec
	s.st.PtsAssoc = state.PtsAssociation{}
	s.st.LastVideoPts = pts.None
	s.st.RestartPlayback = true
	s.st.Delay = 0
}

// reinitAudioChain builds the audio pipeline of the current demuxer. A failure only
// loses the audio stream.
func (s *Session) reinitAudioChain() {
	stream := s.demuxer.Audio()
	if stream == nil {
		s.uninit(initAO)
		return
	}
	s.uninit(initACodec)

	if s.ao == nil {
		ao, err := NewAudioDriver(s.opts, s.clock)
		if err != nil {
			s.audioFailed(err)
			return
		}
		s.ao = ao
	}
	s.initialized |= initAO

	p, err := audio.NewPipeline(stream.Decoder(), s.ao, s.opts.Speed, s.log)
	if err != nil {
		s.audioFailed(fmt.Errorf("%w: %v", ErrDeviceUnavailable, err))
		return
	}
	s.audio = p
	s.initialized |= initACodec
	s.st.SyncingAudio = true
	s.log.Infof("audio: %s", p.Format())
}

func (s *Session) audioFailed(err error) {
	s.log.WithError(err).Error("could not open audio, playing without sound")
	s.uninit(initACodec | initAO)
	s.audioDead = true
}

// uninit releases the parts in mask that are initialized.
func (s *Session) uninit(mask component) error {
	mask &= s.initialized
	var errs []error

	if mask&initACodec != 0 {
		s.initialized &^= initACodec
		s.audio = nil
	}
	if mask&initVCodec != 0 {
		s.initialized &^= initVCodec
		if s.video != nil {
			s.video.Reset()
		}
		s.video = nil
	}
	if mask&initDemuxer != 0 {
		s.initialized &^= initDemuxer
		errs = append(errs, s.closeDemuxers())
	}
	if mask&initVO != 0 {
		s.initialized &^= initVO
		if s.out != nil {
			errs = append(errs, s.out.Close())
		} else if s.vo != nil {
			errs = append(errs, s.vo.Close())
		}
		s.out, s.vo = nil, nil
	}
	if mask&initSub != 0 {
		s.initialized &^= initSub
		s.overlay.UpdateSubtitles(pts.None, true)
	}
	if mask&initAO != 0 {
		s.initialized &^= initAO
		if s.ao != nil {
			errs = append(errs, s.ao.Close(s.st.StopPlay == state.AtEndOfFile))
		}
		s.ao = nil
	}
	return errors.Join(errs...)
}

func (s *Session) closeDemuxers() error {
	if !s.st.HasTimeline() {
		return s.demuxer.Close()
	}
	return errors.Join(lo.Map(s.st.Timeline.Sources(), func(src *timeline.Source, _ int) error {
		return src.Demuxer.Close()
	})...)
}

// Close ends the session. Outputs that should persist into the next entry are left
// open and can be taken with Handoff.
func (s *Session) Close() error {
	var errs []error
	if s.video != nil {
		errs = append(errs, s.video.Close())
	} else {
		errs = append(errs, errors.Join(lo.Map(s.filters, func(f filter.Filter, _ int) error {
			return f.Close()
		})...))
	}

	mask := initAll
	if s.opts.FixedVO {
		mask &^= initVO
	}
	if s.opts.Gapless && s.st.StopPlay == state.AtEndOfFile {
		mask &^= initAO
	}
	errs = append(errs, s.uninit(mask))
	s.log.WithField("reason", s.st.StopPlay).Info("stopped")
	return errors.Join(errs...)
}

// Handoff returns the outputs a closed session left open.
func (s *Session) Handoff() Devices {
	var d Devices
	if s.initialized&initAO != 0 {
		d.Audio = s.ao
	}
	if s.initialized&initVO != 0 {
		d.Video = s.vo
	}
	return d
}

// Send queues a command for the loop. It reports false when the queue is full.
// Send is safe for concurrent use.
func (s *Session) Send(cmd Command) bool {
	select {
	case s.commands <- cmd:
		return true
	default:
		return false
	}
}

// State exposes the playback state.
func (s *Session) State() *state.Playback { return s.st }

// Entry returns the entry being played.
func (s *Session) Entry() Entry { return s.entry }

// StopReason tells why the session stopped, or state.KeepPlaying while it runs.
func (s *Session) StopReason() state.StopReason { return s.st.StopPlay }

// HasAudio reports whether an audio stream is playing.
func (s *Session) HasAudio() bool { return s.audio != nil }

// HasVideo reports whether a video stream is playing.
func (s *Session) HasVideo() bool { return s.video != nil }

func (s *Session) speed() float64 { return s.opts.Speed }

func (s *Session) syncParams() avsync.Params {
	return avsync.Params{
		AudioDelay:       s.opts.AudioDelay,
		MaxPtsCorrection: s.opts.MaxPtsCorrection,
		Autosync:         s.opts.Autosync,
		Framedrop:        decode.Drop(s.opts.Framedrop),
		Speed:            s.opts.Speed,
	}
}

func (s *Session) audioParams() audio.Params {
	return audio.Params{
		Speed:       s.opts.Speed,
		AudioDelay:  s.opts.AudioDelay,
		InitialSync: s.opts.InitialAudio,
		HasVideo:    s.video != nil,
	}
}

func (s *Session) videoInputs() video.Inputs {
	in := video.Inputs{
		HasAudio:     s.audio != nil,
		Sync:         s.syncParams(),
		CorrectPts:   s.opts.CorrectPts,
		PtsAssocMode: s.opts.PtsAssocMode,
	}
	if s.audio != nil {
		in.Drop = avsync.DropInputs{
			HasAudio:    true,
			Untimed:     s.ao.Untimed(),
			AudioEOF:    s.audio.EOF(),
			DeviceDelay: s.ao.Delay(),
		}
	}
	return in
}

// writtenAudioPts is the timestamp just past the audio handed to the device.
func (s *Session) writtenAudioPts() float64 {
	if s.audio == nil {
		return pts.None
	}
	return s.audio.WrittenPts(s.st, s.speed())
}

// playingAudioPts is the timestamp currently audible.
func (s *Session) playingAudioPts() float64 {
	if s.audio == nil {
		return pts.None
	}
	return s.audio.PlayingPts(s.st, s.speed())
}
