// Package tui is the interactive terminal interface of the player.
package tui

import (
	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/player"
	tea "github.com/charmbracelet/bubbletea"
)

// Run plays items under a full screen interface until the playlist ends or the user quits.
func Run(items []player.Item, opts config.Options, resume bool) error {
	bubble := newBubble(items, opts, resume)
	defer bubble.stop()

	if _, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return bubble.lastError
}
