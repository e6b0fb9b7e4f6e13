package player

import (
	"fmt"

	"github.com/avsync-cli/avsync/playback"
	"github.com/avsync-cli/avsync/state"
)

// EventKind tells what happened to the playlist.
type EventKind int

const (
	EntryStarted EventKind = iota
	// StatusChanged carries the status line of the running entry.
	StatusChanged
	EntryStopped
	// EntryFailed is sent when an entry could not be loaded or opened. The playlist moves on.
	EntryFailed
	PlaylistFinished
)

func (k EventKind) String() string {
	switch k {
	case EntryStarted:
		return "started"
	case StatusChanged:
		return "status"
	case EntryStopped:
		return "stopped"
	case EntryFailed:
		return "failed"
	case PlaylistFinished:
		return "finished"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a notification about the playlist.
type Event struct {
	Kind  EventKind
	Index int
	Path  string
	Title string
	// Status is set for StatusChanged.
	Status playback.Status
	// Reason is set for EntryStopped.
	Reason state.StopReason
	// Err is set for EntryFailed, and for EntryStopped when closing the entry failed.
	Err error
}

func (e Event) String() string {
	switch e.Kind {
	case StatusChanged:
		return e.Status.Line
	case EntryStopped:
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Title, e.Reason)
	case EntryFailed:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Title)
	}
}

// Listener receives playlist events. Status events arrive on the playback goroutine,
// so a listener must not block.
type Listener func(Event)
