package playback

import (
	"errors"

	"github.com/avsync-cli/avsync/decode"
	"github.com/avsync-cli/avsync/device"
)

var (
	// ErrRecoverable marks a failure limited to one frame or packet. Playback logs it and moves on.
	ErrRecoverable = decode.ErrRecoverable
	// ErrDeviceUnavailable means an output device could not be opened. Only its stream is lost.
	ErrDeviceUnavailable = device.ErrUnavailable
	// ErrSeekFailed is reported when a seek cannot be served. Playback carries on.
	ErrSeekFailed = errors.New("seek failed")
	// ErrFatal means no stream of the entry can be played.
	ErrFatal = errors.New("entry is not playable")
)
