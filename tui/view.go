package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/avsync-cli/avsync/icon"
	"github.com/avsync-cli/avsync/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case playingState:
		output = b.viewPlaying()
	case playlistState:
		output = listExtraPaddingStyle.Render(b.playlistC.View())
	case errorState:
		output = b.viewError()
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(true, []string{
		style.Title("Loading"),
		"",
		b.spinnerC.View() + " opening the first entry",
	})
}

func (b *statefulBubble) viewPlaying() string {
	st := b.status
	fit := func(s string) string {
		if b.width <= 0 {
			return s
		}
		return truncate.String(s, uint(b.width))
	}

	header := icon.Get(icon.Play)
	if st.Paused {
		header = icon.Get(icon.Pause)
	}
	if b.quitting {
		header = b.spinnerC.View()
	}

	lines := []string{
		style.Title("Now Playing"),
		"",
		fit(fmt.Sprintf("%s %s", header, style.Fg(style.AccentColor)(b.title))),
		fit(style.Faint(fmt.Sprintf("entry %d of %d", b.current+1, b.player.Len()))),
		"",
		b.progressC.ViewAs(b.percent()),
		fit(b.streams()),
	}
	if st.Chapter != "" {
		lines = append(lines, fit(style.Fg(style.WarningColor)(icon.Get(icon.Chapter)+" "+st.Chapter)))
	}
	if st.Drops > 0 {
		lines = append(lines, fit(style.Faint(fmt.Sprintf("%s %d dropped", icon.Get(icon.Drop), st.Drops))))
	}
	if st.Line != "" {
		lines = append(lines, "", fit(style.Faint(st.Line)))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) percent() float64 {
	st := b.status
	if st.Length <= 0 || math.IsNaN(st.Position) {
		return 0
	}
	return min(max(st.Position/st.Length, 0), 1)
}

// streams renders which streams play and their offset.
func (b *statefulBubble) streams() string {
	st := b.status
	var tags []string
	if st.HasAudio {
		tags = append(tags, style.Tag(style.BorderColor, style.AudioColor)("audio"))
	}
	if st.HasVideo {
		tags = append(tags, style.Tag(style.BorderColor, style.VideoColor)("video"))
	}
	if !math.IsNaN(st.AVDifference) && st.HasAudio && st.HasVideo {
		diff := fmt.Sprintf("A-V %+.3f", st.AVDifference)
		if st.Desync {
			diff = style.Fg(style.ErrorColor)(diff)
		}
		tags = append(tags, diff)
	}
	if st.Speed > 0 && st.Speed != 1 {
		tags = append(tags, fmt.Sprintf("x%.2f", st.Speed))
	}
	return strings.Join(tags, " ")
}

func (b *statefulBubble) viewError() string {
	errorBody := style.Fg(style.ErrorColor)(fmt.Sprintf("%v", b.lastError))
	if b.width > 0 {
		errorBody = wrap.String(errorBody, b.width)
	}
	return b.renderLines(true, []string{
		style.ErrorTitle("Error"),
		"",
		icon.Get(icon.Fail) + " Playback stopped:",
		"",
		errorBody,
	})
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
