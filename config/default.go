package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/avsync-cli/avsync/color"
	"github.com/avsync-cli/avsync/constant"
	"github.com/avsync-cli/avsync/key"
	"github.com/avsync-cli/avsync/style"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is a single registered configuration entry.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored, wrapped description of the field for terminal display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable bound to this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Avsync + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON includes both current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.TypeName(),
	})
}

// TypeName names the underlying value type of the field.
func (f *Field) TypeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Parse converts a raw command line value into the type of the field.
func (f *Field) Parse(raw string) (any, error) {
	switch f.Value.(type) {
	case string:
		return raw, nil
	case int:
		return strconv.Atoi(raw)
	case float64:
		return strconv.ParseFloat(raw, 64)
	case bool:
		return strconv.ParseBool(raw)
	case []string:
		return strings.Split(raw, ","), nil
	default:
		return nil, fmt.Errorf("unsupported type %s for key %s", f.TypeName(), f.Key)
	}
}

// Default holds every registered field by key.
var Default = make(map[string]Field)

// EnvExposed holds keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlaybackSpeed, 1.0, "Playback speed multiplier.\nAudio is resampled, video timing is scaled")
	register(key.PlaybackLoop, -1, "Loop count. -1 disables looping, 0 loops forever, N plays the entry N times")
	register(key.PlaybackStart, 0.0, "Initial seek position in seconds")
	register(key.PlaybackEndAt, -1.0, "Stop after playing this many seconds from the start position. Negative disables")
	register(key.PlaybackFrames, -1, "Stop after this many video frames. Negative disables")
	register(key.PlaybackChapterEnd, 0, "Stop at the end of this chapter (1-based). 0 disables")
	register(key.PlaybackSkipChapters, []string{}, "Chapters skipped automatically when reached.\nNames match fuzzily, e.g. opening, ending")
	register(key.SyncAudioDelay, 0.0, "Audio delay in seconds. Positive values play audio later")
	register(key.SyncMaxPtsCorrection, -1.0, "Maximum A-V correction per frame in seconds.\nNegative uses a tenth of the frame duration")
	register(key.SyncAutosync, 0, "Gradually adapt correction to the measured audio device delay.\n0 disables, larger values converge more slowly")
	register(key.SyncInitialAudio, true, "Align audio to the first video frame after a restart by padding or trimming")
	register(key.AudioDriver, "oto", "Audio output driver.\nAvailable options are: oto, pcm, null")
	register(key.AudioGapless, false, "Keep the audio device open across entries")
	register(key.AudioFile, "audiodump.pcm", "Output file of the pcm audio driver")
	register(key.VideoDriver, "null", "Video output driver.\nAvailable options are: null")
	register(key.VideoFramedrop, 0, "Frame drop policy.\n0 never drops, 1 skips displaying late frames, 2 also hints the decoder")
	register(key.VideoFixedVO, false, "Keep the video output open across entries")
	register(key.VideoUntimed, false, "Display video frames as fast as possible")
	register(key.VideoSoftsleep, false, "Busy-wait the last few milliseconds before each flip")
	register(key.VideoCorrectPts, true, "Reorder and validate presentation timestamps")
	register(key.VideoPtsAssocMode, 0, "Timestamp association mode.\n0 picks automatically, 1 uses decoder timestamps, 2 uses sorted packet timestamps")
	register(key.VideoFilterLua, "", "Path to a Lua script run as a per-pixel video filter")
	register(key.SeekHRSeek, 0, "Precise seeking.\n-1 never, 0 only absolute seeks, 1 always")
	register(key.SeekHRSeekDemuxerOffset, 0.0, "Seek the demuxer this many seconds earlier on precise seeks")
	register(key.SeekStepSec, 0.0, "Continuously skip forward by this many seconds while playing. 0 disables")
	register(key.HistorySaveOnStop, true, "Remember the playback position of an entry on stop")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliQuiet, false, "Suppress the status line")
	register(key.CliOsdFractions, false, "Show fractional seconds in the status line")
	register(key.CliIcons, "plain", "Icon variant of CLI messages.\nAvailable options are: emoji, nerd, plain, squares")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"wrap":     func(s string) string { return wordwrap.String(s, 60) },
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint (wrap .Description) }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
