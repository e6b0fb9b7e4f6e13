package tui

import (
	"github.com/avsync-cli/avsync/playback"
	"github.com/charmbracelet/bubbles/key"
)

// statefulKeymap holds the bindings of every screen.
type statefulKeymap struct {
	state state

	quit, forceQuit,
	playPause, frameStep,
	seekForward, seekBackward, seekForwardLong, seekBackwardLong,
	nextChapter, prevChapter,
	next, prev,
	delayUp, delayDown,
	playlist, selectEntry, back,
	up, down,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause"),
		),
		frameStep: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "step frame"),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "+5s"),
		),
		seekBackward: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "-5s"),
		),
		seekForwardLong: key.NewBinding(
			key.WithKeys("shift+right", "L"),
			key.WithHelp("L", "+60s"),
		),
		seekBackwardLong: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("H", "-60s"),
		),
		nextChapter: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next chapter"),
		),
		prevChapter: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev chapter"),
		),
		next: key.NewBinding(
			key.WithKeys(">", "n"),
			key.WithHelp(">", "next entry"),
		),
		prev: key.NewBinding(
			key.WithKeys("<", "b"),
			key.WithHelp("<", "prev entry"),
		),
		delayUp: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "audio delay +100ms"),
		),
		delayDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "audio delay -100ms"),
		),
		playlist: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "playlist"),
		),
		selectEntry: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play"),
		),
		back: key.NewBinding(
			key.WithKeys("esc", "tab"),
			key.WithHelp("esc", "back"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// bound pairs a key binding with the playback command it sends.
type bound struct {
	binding key.Binding
	command playback.Command
}

// commands lists the bindings that drive the entry being played.
func (k *statefulKeymap) commands() []bound {
	return []bound{
		{k.playPause, playback.TogglePause()},
		{k.frameStep, playback.FrameStep()},
		{k.seekForward, playback.SeekRelative(5)},
		{k.seekBackward, playback.SeekRelative(-5)},
		{k.seekForwardLong, playback.SeekRelative(60)},
		{k.seekBackwardLong, playback.SeekRelative(-60)},
		{k.nextChapter, playback.ChapterStep(1)},
		{k.prevChapter, playback.ChapterStep(-1)},
		{k.next, playback.Next()},
		{k.prev, playback.Prev()},
		{k.delayUp, playback.AudioDelay(0.1)},
		{k.delayDown, playback.AudioDelay(-0.1)},
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	switch k.state {
	case playingState:
		return []key.Binding{k.playPause, k.seekForward, k.seekBackward, k.playlist, k.showHelp, k.quit}
	case playlistState:
		return []key.Binding{k.up, k.down, k.selectEntry, k.back, k.quit}
	case errorState:
		return []key.Binding{k.quit}
	default:
		return []key.Binding{k.forceQuit}
	}
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	switch k.state {
	case playingState:
		return [][]key.Binding{
			{k.playPause, k.frameStep, k.quit},
			{k.seekForward, k.seekBackward, k.seekForwardLong, k.seekBackwardLong},
			{k.nextChapter, k.prevChapter, k.next, k.prev},
			{k.delayUp, k.delayDown, k.playlist},
		}
	default:
		return [][]key.Binding{k.ShortHelp()}
	}
}
