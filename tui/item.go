package tui

import (
	"fmt"
	"strings"

	"github.com/avsync-cli/avsync/icon"
	"github.com/avsync-cli/avsync/style"
	"github.com/avsync-cli/avsync/util"
)

// listItem is a playlist entry in the list.
type listItem struct {
	index   int
	path    string
	title   string
	stopped string
	current *int
}

func (t *listItem) playing() bool {
	return t.current != nil && *t.current == t.index
}

func (t *listItem) Title() string {
	title := t.FilterValue()
	if t.playing() {
		title = fmt.Sprintf("%s %s", style.Fg(style.AccentColor)(icon.Get(icon.Play)), title)
	}
	return title
}

func (t *listItem) Description() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d. ", t.index+1))
	sb.WriteString(t.path)
	if t.stopped != "" {
		sb.WriteString(" ")
		sb.WriteString(style.Faint("(" + t.stopped + ")"))
	}
	return sb.String()
}

func (t *listItem) FilterValue() string {
	if t.title != "" {
		return t.title
	}
	return util.FileStem(t.path)
}
