package tui

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/playback"
	"github.com/avsync-cli/avsync/player"
	"github.com/avsync-cli/avsync/state"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testBubble() *statefulBubble {
	items := []player.Item{
		{Path: "/media/first.toml"},
		{Path: "/media/second.toml"},
	}
	b := newBubble(items, config.Defaults(), false)
	b.resize(100, 30)
	b.setState(loadingState)
	return b
}

func TestKeymap(t *testing.T) {
	Convey("Given the playing keymap", t, func() {
		k := newStatefulKeymap()
		k.setState(playingState)

		lookup := func(msg tea.KeyMsg) (playback.Command, bool) {
			for _, b := range k.commands() {
				if bubblesKey.Matches(msg, b.binding) {
					return b.command, true
				}
			}
			return playback.Command{}, false
		}

		Convey("Keys map to playback commands", func() {
			cases := map[string]struct {
				msg  tea.KeyMsg
				want playback.Command
			}{
				"space": {tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, playback.TogglePause()},
				"p":     {runes("p"), playback.TogglePause()},
				".":     {runes("."), playback.FrameStep()},
				"right": {tea.KeyMsg{Type: tea.KeyRight}, playback.SeekRelative(5)},
				"left":  {tea.KeyMsg{Type: tea.KeyLeft}, playback.SeekRelative(-5)},
				"L":     {runes("L"), playback.SeekRelative(60)},
				"]":     {runes("]"), playback.ChapterStep(1)},
				"[":     {runes("["), playback.ChapterStep(-1)},
				">":     {runes(">"), playback.Next()},
				"<":     {runes("<"), playback.Prev()},
				"+":     {runes("+"), playback.AudioDelay(0.1)},
				"-":     {runes("-"), playback.AudioDelay(-0.1)},
			}
			for name, c := range cases {
				Convey("key="+name, func() {
					cmd, ok := lookup(c.msg)
					So(ok, ShouldBeTrue)
					So(cmd, ShouldResemble, c.want)
				})
			}
		})

		Convey("Other keys send nothing", func() {
			_, ok := lookup(runes("z"))
			So(ok, ShouldBeFalse)
		})

		Convey("Help depends on the state", func() {
			So(k.ShortHelp(), ShouldContain, k.playPause)
			So(k.FullHelp(), ShouldHaveLength, 4)

			k.setState(playlistState)
			So(k.ShortHelp(), ShouldContain, k.selectEntry)
			So(k.ShortHelp(), ShouldNotContain, k.playPause)
		})
	})
}

func TestEvents(t *testing.T) {
	Convey("Given a new interface", t, func() {
		b := testBubble()
		defer b.cancel()

		So(b.state, ShouldEqual, loadingState)
		So(b.percent(), ShouldEqual, 0)

		Convey("Starting an entry shows it as playing", func() {
			b.Update(eventMsg(player.Event{Kind: player.EntryStarted, Index: 1, Title: "Second"}))
			So(b.state, ShouldEqual, playingState)
			So(b.current, ShouldEqual, 1)
			So(b.items[1].playing(), ShouldBeTrue)
			So(b.items[0].playing(), ShouldBeFalse)
			So(b.items[1].FilterValue(), ShouldEqual, "Second")
			So(b.items[0].FilterValue(), ShouldEqual, "first")
			So(b.View(), ShouldContainSubstring, "Second")

			Convey("Status updates move the progress", func() {
				b.Update(eventMsg(player.Event{Kind: player.StatusChanged, Status: playback.Status{
					Position:     5,
					Length:       20,
					HasAudio:     true,
					HasVideo:     true,
					AVDifference: 0.012,
					Chapter:      "(2) Episode",
				}}))
				So(b.percent(), ShouldAlmostEqual, 0.25)
				So(b.streams(), ShouldContainSubstring, "A-V +0.012")
				So(b.View(), ShouldContainSubstring, "(2) Episode")
			})

			Convey("Unknown positions render as empty progress", func() {
				b.status = playback.Status{Position: math.NaN(), Length: 20}
				So(b.percent(), ShouldEqual, 0)
			})

			Convey("A desync raises a notification", func() {
				_, cmd := b.Update(eventMsg(player.Event{Kind: player.StatusChanged, Status: playback.Status{Desync: true}}))
				So(cmd, ShouldNotBeNil)

				b.Update(notifyMsg("drifted"))
				So(b.View(), ShouldContainSubstring, "drifted")

				b.Update(clearNotificationMsg{id: b.notifier.id - 1})
				So(b.View(), ShouldContainSubstring, "drifted")
				b.Update(clearNotificationMsg{id: b.notifier.id})
				So(b.View(), ShouldNotContainSubstring, "drifted")
			})

			Convey("Stopped entries keep their reason", func() {
				b.Update(eventMsg(player.Event{Kind: player.EntryStopped, Index: 1, Reason: state.AtEndOfFile}))
				So(b.items[1].Description(), ShouldContainSubstring, "end of file")
			})
		})

		Convey("Failed entries are marked", func() {
			b.Update(eventMsg(player.Event{Kind: player.EntryFailed, Index: 0, Err: errors.New("broken")}))
			So(b.items[0].Description(), ShouldContainSubstring, "failed")
			So(b.state, ShouldEqual, loadingState)
		})

		Convey("A failing playlist shows the error", func() {
			_, cmd := b.Update(finishedMsg{err: errors.New("no audio device")})
			So(cmd, ShouldBeNil)
			So(b.state, ShouldEqual, errorState)
			So(b.View(), ShouldContainSubstring, "no audio device")

			_, cmd = b.Update(runes("q"))
			So(cmd, ShouldNotBeNil)
		})

		Convey("A cancelled playlist quits", func() {
			_, cmd := b.Update(finishedMsg{err: context.Canceled})
			So(cmd, ShouldNotBeNil)
			So(b.state, ShouldEqual, loadingState)
		})

		Convey("Quitting cancels the player", func() {
			b.Update(runes("q"))
			So(b.quitting, ShouldBeTrue)
			So(b.ctx.Err(), ShouldNotBeNil)
		})

		Convey("Force quit exits at once", func() {
			_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
			So(cmd, ShouldNotBeNil)
			So(b.ctx.Err(), ShouldNotBeNil)
		})
	})
}

func TestPlaylistScreen(t *testing.T) {
	Convey("Given an interface playing the first entry", t, func() {
		b := testBubble()
		defer b.cancel()
		b.Update(eventMsg(player.Event{Kind: player.EntryStarted, Index: 0, Title: "First"}))

		Convey("Tab opens the playlist on the current entry", func() {
			b.Update(tea.KeyMsg{Type: tea.KeyTab})
			So(b.state, ShouldEqual, playlistState)
			So(b.playlistC.Index(), ShouldEqual, 0)

			Convey("Esc goes back", func() {
				b.Update(tea.KeyMsg{Type: tea.KeyEsc})
				So(b.state, ShouldEqual, playingState)
			})

			Convey("Selecting without a running entry reports it", func() {
				_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
				So(cmd, ShouldNotBeNil)
				So(b.state, ShouldEqual, playlistState)
			})
		})
	})
}

func TestListen(t *testing.T) {
	Convey("Given a listener nobody reads", t, func() {
		b := testBubble()
		defer b.cancel()

		Convey("Status updates are dropped when the queue is full", func() {
			for range cap(b.events) + 4 {
				b.listen(player.Event{Kind: player.StatusChanged})
			}
			So(len(b.events), ShouldEqual, cap(b.events))
		})

		Convey("Other events give up once the interface quits", func() {
			for range cap(b.events) {
				b.listen(player.Event{Kind: player.EntryStarted})
			}
			b.cancel()
			b.listen(player.Event{Kind: player.EntryStopped})
			So(len(b.events), ShouldEqual, cap(b.events))
		})

		Convey("Waiting for events stops with the interface", func() {
			b.cancel()
			So(b.waitForEvent()(), ShouldBeNil)
		})
	})
}
