package tui

import (
	"context"
	"math"

	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/playback"
	"github.com/avsync-cli/avsync/player"
	"github.com/avsync-cli/avsync/style"
	"github.com/avsync-cli/avsync/util"
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// statefulBubble is the interface model. The player runs on its own goroutine and
// reaches the model through events.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	playlistC list.Model
	notifier  notifier

	player  *player.Player
	items   []*listItem
	events  chan player.Event
	done    chan error
	stopped chan struct{}
	started bool

	ctx    context.Context
	cancel context.CancelFunc

	current  int
	title    string
	status   playback.Status
	quitting bool

	lastError     error
	width, height int
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.setState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	b.playlistC.SetSize(listWidth, height-yy)
	b.playlistC.Help.Width = listWidth

	b.progressC.Width = width - x
	b.helpC.Width = listWidth

	b.width = width - x
	b.height = height - y
}

// stop cancels the player and waits for it to release the outputs.
func (b *statefulBubble) stop() {
	b.cancel()
	if b.started {
		<-b.stopped
	}
}

func newBubble(items []player.Item, opts config.Options, resume bool) *statefulBubble {
	ctx, cancel := context.WithCancel(context.Background())
	bubble := &statefulBubble{
		keymap:  newStatefulKeymap(),
		events:  make(chan player.Event, 16),
		done:    make(chan error, 1),
		stopped: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		current: -1,
		status:  playback.Status{Position: math.NaN(), AVDifference: math.NaN()},
	}

	// the status line is redrawn by the interface
	opts.Quiet = true
	bubble.player = player.New(items, opts,
		player.WithResume(resume),
		player.WithListener(bubble.listen),
	)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.AccentColor).
		Foreground(style.AccentColor).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	listItems := make([]list.Item, len(items))
	bubble.items = make([]*listItem, len(items))
	for i, item := range items {
		bubble.items[i] = &listItem{index: i, path: item.Path, current: &bubble.current}
		listItems[i] = bubble.items[i]
	}

	bubble.playlistC = list.New(listItems, delegate, 0, 0)
	bubble.playlistC.Title = "Playlist"
	bubble.playlistC.Styles.Title = lipgloss.NewStyle().Foreground(style.BorderColor).Background(style.AccentColor).Padding(0, 1)
	bubble.playlistC.Styles.NoItems = paddingStyle
	bubble.playlistC.SetStatusBarItemName("entry", "entries")
	bubble.playlistC.SetShowPagination(false)
	bubble.playlistC.DisableQuitKeybindings()
	bubble.playlistC.AdditionalShortHelpKeys = func() []bubblesKey.Binding {
		return []bubblesKey.Binding{bubble.keymap.selectEntry, bubble.keymap.back}
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return bubble
}
