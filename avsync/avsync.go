// Package avsync keeps video presentation converging on the audio clock.
//
// The audio device is the reference whenever audio is present. Each displayed frame
// nudges the skew accumulator by a tenth of the measured difference, bounded so that
// a single correction is never visible as a stutter.
package avsync

import (
	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/state"
	"github.com/avsync-cli/avsync/util"
)

// Gain is the share of the measured drift corrected per frame.
const Gain = 0.1

// dropSlack is the lateness tolerated before the first frame is dropped.
const dropSlack = 0.100

// Params are the user tunables of the controller.
type Params struct {
	// AudioDelay is the desired audio minus video offset.
	AudioDelay float64
	// MaxPtsCorrection caps one correction. Negative means a tenth of the frame time.
	MaxPtsCorrection float64
	// Autosync smooths reported device delay; zero disables.
	Autosync int
	// Framedrop is returned as the drop type when a frame is late.
	Framedrop decode.Drop
	Speed     float64
}

// MaxChange is the bound of a single correction.
func (p Params) MaxChange(frameTime float64) float64 {
	if p.MaxPtsCorrection >= 0 {
		return p.MaxPtsCorrection
	}
	return frameTime * Gain
}

// AVDelay measures how far written audio is ahead of the current frame, net of the
// desired offset and of the time the last flip took.
func AVDelay(st *state.Playback, writtenAudioPts float64, p Params) float64 {
	return writtenAudioPts - st.Delay - st.FramePts + st.LastFlipDuration - p.AudioDelay
}

// AdjustSync applies one bounded correction to the skew accumulator and returns it.
// Nothing happens without audio or while playback restarts and audio is being synced.
func AdjustSync(st *state.Playback, hasAudio bool, writtenAudioPts, frameTime float64, p Params) float64 {
	if !hasAudio || st.RestartPlayback || st.SyncingAudio {
		return 0
	}
	if !pts.Valid(writtenAudioPts) || !pts.Valid(st.FramePts) {
		return 0
	}

	limit := p.MaxChange(frameTime)
	change := util.Clamp(AVDelay(st, writtenAudioPts, p)*Gain, -limit, limit)
	st.Delay += change
	st.TotalAVSyncChange += change
	return change
}

// DropInputs describe the audio side when deciding whether to drop a frame.
type DropInputs struct {
	HasAudio bool
	Untimed  bool
	AudioEOF bool
	// DeviceDelay is the audio device buffer in seconds.
	DeviceDelay float64
}

// CheckFramedrop decides whether the next frame is too late to show.
//
// A frame is dropped once video lags audio by more than 100ms plus one frame time per
// frame already dropped in a row, so a stall is caught up without dropping runs of
// frames on a merely slow system. Any frame that is not dropped resets the run.
func CheckFramedrop(st *state.Playback, in DropInputs, frameTime float64, p Params) decode.Drop {
	if !in.HasAudio || in.Untimed || in.AudioEOF {
		return decode.DropNone
	}

	d := p.Speed*in.DeviceDelay - st.Delay - frameTime
	if d < -float64(st.DroppedInARow)*frameTime-dropSlack && !st.Paused && !st.RestartPlayback {
		st.DropFrameCount++
		st.DroppedInARow++
		return p.Framedrop
	}
	st.DroppedInARow = 0
	return decode.DropNone
}

// TimeFrame converts buffered audio into the time left until the next flip, optionally
// averaging the device report with the value predicted from the previous frame.
func TimeFrame(st *state.Playback, bufferedAudio float64, p Params) float64 {
	speed := p.Speed
	if speed <= 0 {
		speed = 1
	}
	if p.Autosync > 0 {
		predicted := st.Delay/speed + st.TimeFrame
		bufferedAudio = predicted + (bufferedAudio-predicted)/float64(p.Autosync)
	}
	return bufferedAudio - st.Delay/speed
}

// DesyncThreshold is the audio ahead of video, in seconds, that counts as lost sync.
const DesyncThreshold = 0.5

// desyncDrops is how many drops must accompany the difference before warning.
const desyncDrops = 50

// UpdateAVDifference records the audible offset after a flip. It reports true exactly
// once per session when the system is clearly too slow to keep up.
func UpdateAVDifference(st *state.Playback, playingAudioPts float64, p Params) (warn bool) {
	if !pts.Valid(playingAudioPts) || !pts.Valid(st.VideoPts) {
		st.LastAVDifference = pts.None
		return false
	}

	diff := playingAudioPts - st.VideoPts - p.AudioDelay
	if st.TimeFrame > 0 {
		diff += st.TimeFrame * p.Speed
	}
	st.LastAVDifference = diff

	if diff > DesyncThreshold && st.DropFrameCount > desyncDrops && !st.DropMessageShown {
		st.DropMessageShown = true
		return true
	}
	return false
}
