package tui

import (
	"context"
	"errors"

	"github.com/avsync-cli/avsync/player"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notifyMsg, clearNotificationMsg:
		return b, b.notifier.Update(msg)
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case eventMsg:
		return b, tea.Batch(b.handleEvent(player.Event(msg)), b.waitForEvent())
	case finishedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			b.raiseError(msg.err)
			return b, nil
		}
		return b, tea.Quit
	case tea.KeyMsg:
		switch {
		case bubblesKey.Matches(msg, b.keymap.forceQuit):
			b.cancel()
			return b, tea.Quit
		case bubblesKey.Matches(msg, b.keymap.showHelp) && b.state != playlistState:
			b.helpC.ShowAll = !b.helpC.ShowAll
			return b, nil
		}
	}

	switch b.state {
	case loadingState:
		return b.updateLoading(msg)
	case playingState:
		return b.updatePlaying(msg)
	case playlistState:
		return b.updatePlaylist(msg)
	case errorState:
		return b.updateError(msg)
	}

	return b, nil
}

func (b *statefulBubble) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && bubblesKey.Matches(msg, b.keymap.quit) {
		return b, b.quit()
	}
	return b, nil
}

func (b *statefulBubble) updatePlaying(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		return b, b.quit()
	case bubblesKey.Matches(keyMsg, b.keymap.playlist):
		if b.current >= 0 {
			b.playlistC.Select(b.current)
		}
		b.setState(playlistState)
		return b, nil
	}

	for _, c := range b.keymap.commands() {
		if bubblesKey.Matches(keyMsg, c.binding) {
			b.player.Send(c.command)
			break
		}
	}
	return b, nil
}

func (b *statefulBubble) updatePlaylist(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && b.playlistC.FilterState() != list.Filtering {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return b, b.quit()
		case bubblesKey.Matches(msg, b.keymap.back):
			if b.playlistC.FilterState() == list.Unfiltered {
				b.setState(playingState)
				return b, nil
			}
		case bubblesKey.Matches(msg, b.keymap.selectEntry):
			if item, ok := b.playlistC.SelectedItem().(*listItem); ok {
				if !b.player.Jump(item.index) {
					return b, notify("nothing is playing")
				}
				b.playlistC.ResetFilter()
				b.setState(playingState)
			}
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.playlistC, cmd = b.playlistC.Update(msg)
	return b, cmd
}

func (b *statefulBubble) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && bubblesKey.Matches(msg, b.keymap.quit) {
		return b, tea.Quit
	}
	return b, nil
}
