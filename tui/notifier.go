package tui

import (
	"strings"
	"time"

	"github.com/avsync-cli/avsync/style"
	tea "github.com/charmbracelet/bubbletea"
)

const notificationLifetime = 3 * time.Second

type (
	notifyMsg string
	// clearNotificationMsg carries the notification it clears so a newer one survives.
	clearNotificationMsg struct{ id int }
)

// notifier shows a short message after the last line of any screen.
type notifier struct {
	text string
	id   int
}

func notify(text string) tea.Cmd {
	return func() tea.Msg { return notifyMsg(text) }
}

func (n *notifier) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case notifyMsg:
		n.id++
		n.text = string(msg)
		id := n.id
		return tea.Tick(notificationLifetime, func(time.Time) tea.Msg {
			return clearNotificationMsg{id: id}
		})
	case clearNotificationMsg:
		if msg.id == n.id {
			n.text = ""
		}
	}
	return nil
}

func (n *notifier) View(content string) string {
	if n.text == "" {
		return content
	}
	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + style.Faint(n.text)
	return strings.Join(lines, "\n")
}
