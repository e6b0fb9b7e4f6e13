package playback

import (
	"fmt"
	"strings"

	"github.com/avsync-cli/avsync/clock"
	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/device"
	"github.com/avsync-cli/avsync/device/otoaudio"
	"github.com/avsync-cli/avsync/device/pcm"
	"github.com/samber/lo"
)

// Audio driver names.
const (
	AudioOto  = "oto"
	AudioPCM  = "pcm"
	AudioNull = "null"
)

// VideoNull is the only built-in video driver.
const VideoNull = "null"

// audioBuffer is how much audio the real drivers keep queued, in seconds.
const audioBuffer = 0.4

// AudioDrivers lists the available audio drivers in order of preference.
var AudioDrivers = []string{AudioOto, AudioPCM, AudioNull}

// VideoDrivers lists the available video drivers.
var VideoDrivers = []string{VideoNull}

// NewAudioDriver creates the audio driver named by opts.
func NewAudioDriver(opts config.Options, c clock.Clock) (device.AudioDriver, error) {
	switch strings.ToLower(opts.AudioDriver) {
	case AudioOto:
		return otoaudio.New(audioBuffer), nil
	case AudioPCM:
		return pcm.New(opts.AudioFile), nil
	case AudioNull, "":
		return device.NewNullAudio(c, audioBuffer), nil
	default:
		return nil, fmt.Errorf("%w: unknown audio driver %q, available: %s",
			ErrDeviceUnavailable, opts.AudioDriver, strings.Join(AudioDrivers, ", "))
	}
}

// NewVideoDriver creates the video driver named by opts.
func NewVideoDriver(opts config.Options) (device.VideoDriver, error) {
	if name := strings.ToLower(opts.VideoDriver); name != "" && !lo.Contains(VideoDrivers, name) {
		return nil, fmt.Errorf("%w: unknown video driver %q, available: %s",
			ErrDeviceUnavailable, opts.VideoDriver, strings.Join(VideoDrivers, ", "))
	}
	return &device.NullVideo{}, nil
}
