// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 33

// Playback Control - these keys govern speed, looping and the playable range of an entry.
const (
	PlaybackSpeed        = "playback.speed"
	PlaybackLoop         = "playback.loop"
	PlaybackStart        = "playback.start"
	PlaybackEndAt        = "playback.end_at"
	PlaybackFrames       = "playback.frames"
	PlaybackChapterEnd   = "playback.chapter_end"
	PlaybackSkipChapters = "playback.skip_chapters"
)

// Synchronization - these keys tune the audio/video drift correction.
const (
	SyncAudioDelay       = "sync.audio_delay"
	SyncMaxPtsCorrection = "sync.max_pts_correction"
	SyncAutosync         = "sync.autosync"
	SyncInitialAudio     = "sync.initial_audio"
)

// Audio Output - these keys select and configure the audio device.
const (
	AudioDriver  = "audio.driver"
	AudioGapless = "audio.gapless"
	AudioFile    = "audio.file"
)

// Video Output - these keys select the video device and the frame timing policy.
const (
	VideoDriver       = "video.driver"
	VideoFramedrop    = "video.framedrop"
	VideoFixedVO      = "video.fixed_vo"
	VideoUntimed      = "video.untimed"
	VideoSoftsleep    = "video.softsleep"
	VideoCorrectPts   = "video.correct_pts"
	VideoPtsAssocMode = "video.pts_assoc_mode"
	VideoFilterLua    = "video.filter_lua"
)

// Seeking - these keys configure precise seeking and stepping.
const (
	SeekHRSeek              = "seek.hr_seek"
	SeekHRSeekDemuxerOffset = "seek.hr_seek_demuxer_offset"
	SeekStepSec             = "seek.step_sec"
)

// History Tracking - these keys configure resume positions.
const (
	HistorySaveOnStop = "history.save_on_stop"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the terminal output.
const (
	CliColored      = "cli.colored"
	CliQuiet        = "cli.quiet"
	CliOsdFractions = "cli.osd_fractions"
	CliIcons        = "cli.icons"
)
