package config

import (
	"github.com/avsync-cli/avsync/key"
	"github.com/spf13/viper"
)

// Options is a plain snapshot of every setting the playback core consumes.
// Sessions receive a copy so that the core never reaches into viper.
type Options struct {
	Speed      float64
	Loop       int
	Start      float64
	EndAt      float64
	Frames     int
	ChapterEnd int

	// SkipChapters names chapters the playlist skips on its own.
	SkipChapters []string

	AudioDelay       float64
	MaxPtsCorrection float64
	Autosync         int
	InitialAudio     bool

	AudioDriver  string
	Gapless      bool
	AudioFile    string
	VideoDriver  string
	Framedrop    int
	FixedVO      bool
	Untimed      bool
	Softsleep    bool
	CorrectPts   bool
	PtsAssocMode int
	FilterLua    string

	HRSeek              int
	HRSeekDemuxerOffset float64
	StepSec             float64

	SaveOnStop   bool
	Quiet        bool
	OsdFractions bool
}

// Load snapshots the current viper state.
func Load() Options {
	return fromViper(viper.GetViper())
}

// Defaults returns the options produced by the registered defaults alone.
func Defaults() Options {
	v := viper.New()
	for name, field := range Default {
		v.SetDefault(name, field.Value)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) Options {
	return Options{
		Speed:               v.GetFloat64(key.PlaybackSpeed),
		Loop:                v.GetInt(key.PlaybackLoop),
		Start:               v.GetFloat64(key.PlaybackStart),
		EndAt:               v.GetFloat64(key.PlaybackEndAt),
		Frames:              v.GetInt(key.PlaybackFrames),
		ChapterEnd:          v.GetInt(key.PlaybackChapterEnd),
		SkipChapters:        v.GetStringSlice(key.PlaybackSkipChapters),
		AudioDelay:          v.GetFloat64(key.SyncAudioDelay),
		MaxPtsCorrection:    v.GetFloat64(key.SyncMaxPtsCorrection),
		Autosync:            v.GetInt(key.SyncAutosync),
		InitialAudio:        v.GetBool(key.SyncInitialAudio),
		AudioDriver:         v.GetString(key.AudioDriver),
		Gapless:             v.GetBool(key.AudioGapless),
		AudioFile:           v.GetString(key.AudioFile),
		VideoDriver:         v.GetString(key.VideoDriver),
		Framedrop:           v.GetInt(key.VideoFramedrop),
		FixedVO:             v.GetBool(key.VideoFixedVO),
		Untimed:             v.GetBool(key.VideoUntimed),
		Softsleep:           v.GetBool(key.VideoSoftsleep),
		CorrectPts:          v.GetBool(key.VideoCorrectPts),
		PtsAssocMode:        v.GetInt(key.VideoPtsAssocMode),
		FilterLua:           v.GetString(key.VideoFilterLua),
		HRSeek:              v.GetInt(key.SeekHRSeek),
		HRSeekDemuxerOffset: v.GetFloat64(key.SeekHRSeekDemuxerOffset),
		StepSec:             v.GetFloat64(key.SeekStepSec),
		SaveOnStop:          v.GetBool(key.HistorySaveOnStop),
		Quiet:               v.GetBool(key.CliQuiet),
		OsdFractions:        v.GetBool(key.CliOsdFractions),
	}
}
