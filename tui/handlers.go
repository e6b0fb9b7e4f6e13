package tui

import (
	"fmt"

	"github.com/avsync-cli/avsync/icon"
	"github.com/avsync-cli/avsync/log"
	"github.com/avsync-cli/avsync/player"
	tea "github.com/charmbracelet/bubbletea"
)

type (
	eventMsg    player.Event
	finishedMsg struct{ err error }
)

// listen forwards player events to the interface. Status updates are dropped when the
// interface falls behind, other events wait until it catches up or quits.
func (b *statefulBubble) listen(e player.Event) {
	if e.Kind == player.StatusChanged {
		select {
		case b.events <- e:
		default:
		}
		return
	}

	select {
	case b.events <- e:
	case <-b.ctx.Done():
	}
}

func (b *statefulBubble) startPlayer() tea.Cmd {
	b.started = true
	go func() {
		defer close(b.stopped)
		err := b.player.Run(b.ctx)
		if err != nil {
			log.Infof("playlist stopped: %v", err)
		}
		b.done <- err
	}()
	return nil
}

func (b *statefulBubble) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-b.events:
			return eventMsg(e)
		case <-b.ctx.Done():
			return nil
		}
	}
}

func (b *statefulBubble) waitForFinish() tea.Cmd {
	return func() tea.Msg {
		return finishedMsg{err: <-b.done}
	}
}

// handleEvent applies a player event to the model.
func (b *statefulBubble) handleEvent(e player.Event) tea.Cmd {
	switch e.Kind {
	case player.EntryStarted:
		b.current = e.Index
		b.title = e.Title
		b.items[e.Index].title = e.Title
		b.items[e.Index].stopped = ""
		if b.state == loadingState {
			b.setState(playingState)
		}
	case player.StatusChanged:
		b.status = e.Status
		if e.Status.Desync {
			return notify(fmt.Sprintf("%s audio and video drifted apart", icon.Get(icon.Drop)))
		}
	case player.EntryStopped:
		b.items[e.Index].stopped = e.Reason.String()
		if e.Err != nil {
			return notify(e.Err.Error())
		}
	case player.EntryFailed:
		b.items[e.Index].stopped = "failed"
		return notify(fmt.Sprintf("%s %s: %v", icon.Get(icon.Fail), e.Path, e.Err))
	}
	return nil
}

// quit stops the playlist. The program exits once the player returns.
func (b *statefulBubble) quit() tea.Cmd {
	b.quitting = true
	b.cancel()
	return nil
}
