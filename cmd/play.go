package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/avsync-cli/avsync/color"
	"github.com/avsync-cli/avsync/config"
	"github.com/avsync-cli/avsync/decode/synth"
	"github.com/avsync-cli/avsync/icon"
	"github.com/avsync-cli/avsync/key"
	"github.com/avsync-cli/avsync/playback"
	"github.com/avsync-cli/avsync/player"
	"github.com/avsync-cli/avsync/style"
	"github.com/avsync-cli/avsync/timeline"
	"github.com/avsync-cli/avsync/tui"
	"github.com/avsync-cli/avsync/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// synthPrefix marks a generated source on the command line, e.g. synth:30.
const synthPrefix = "synth:"

func init() {
	rootCmd.AddCommand(playCmd)

	bind := func(name, k string) {
		lo.Must0(viper.BindPFlag(k, playCmd.Flags().Lookup(name)))
	}

	playCmd.Flags().Float64("speed", 1, "Playback speed multiplier")
	bind("speed", key.PlaybackSpeed)
	playCmd.Flags().Float64P("start", "s", 0, "Initial seek position in seconds")
	bind("start", key.PlaybackStart)
	playCmd.Flags().Float64P("end-at", "e", -1, "Stop after this many seconds from the start position")
	bind("end-at", key.PlaybackEndAt)
	playCmd.Flags().IntP("frames", "n", -1, "Stop after this many video frames")
	bind("frames", key.PlaybackFrames)
	playCmd.Flags().Int("loop", -1, "Loop count, 0 loops forever")
	bind("loop", key.PlaybackLoop)
	playCmd.Flags().Int("chapter-end", 0, "Stop at the end of this chapter")
	bind("chapter-end", key.PlaybackChapterEnd)
	playCmd.Flags().StringSlice("skip-chapter", nil, "Skip chapters matching these names")
	bind("skip-chapter", key.PlaybackSkipChapters)
	playCmd.Flags().Float64("audio-delay", 0, "Audio delay in seconds")
	bind("audio-delay", key.SyncAudioDelay)

	playCmd.Flags().StringP("audio-driver", "a", "", "Audio output driver ("+strings.Join(playback.AudioDrivers, ", ")+")")
	bind("audio-driver", key.AudioDriver)
	lo.Must0(playCmd.RegisterFlagCompletionFunc("audio-driver", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return playback.AudioDrivers, cobra.ShellCompDirectiveNoFileComp
	}))
	playCmd.Flags().String("audio-file", "", "Output file of the pcm audio driver")
	bind("audio-file", key.AudioFile)
	playCmd.Flags().Bool("gapless", false, "Keep the audio device open across entries")
	bind("gapless", key.AudioGapless)
	playCmd.Flags().Int("framedrop", 0, "Frame drop policy: 0 never, 1 skip display, 2 also hint the decoder")
	bind("framedrop", key.VideoFramedrop)
	playCmd.Flags().Bool("untimed", false, "Display video frames as fast as possible")
	bind("untimed", key.VideoUntimed)
	playCmd.Flags().String("filter-lua", "", "Lua video filter script")
	bind("filter-lua", key.VideoFilterLua)

	playCmd.Flags().Float64("synth", 0, "Play a generated clip of this many seconds")
	playCmd.Flags().BoolP("continue", "c", false, "Resume entries at their saved positions")
	playCmd.Flags().BoolP("tui", "t", false, "Play with the interactive terminal interface")
}

var playCmd = &cobra.Command{
	Use:   "play [timeline.toml | synth:SECONDS]...",
	Short: "Play entries one after another",
	Long: `Play a playlist of entries. An entry is either an ordered-chapter timeline file
or a generated clip written as synth:SECONDS.`,
	Example: "  avsync play synth:10 --audio-driver null\n  avsync play movie.toml --tui",
	Run: func(cmd *cobra.Command, args []string) {
		if seconds := lo.Must(cmd.Flags().GetFloat64("synth")); seconds > 0 {
			args = append(args, synthPrefix+strconv.FormatFloat(seconds, 'f', -1, 64))
		}
		if len(args) == 0 {
			handleErr(fmt.Errorf("nothing to play"))
		}

		items, err := playlist(args)
		handleErr(err)

		opts := config.Load()
		resume := lo.Must(cmd.Flags().GetBool("continue"))

		if lo.Must(cmd.Flags().GetBool("tui")) {
			handleErr(tui.Run(items, opts, resume))
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := player.New(items, opts,
			player.WithResume(resume),
			player.WithListener(printer(opts.Quiet)),
		)
		if err := p.Run(ctx); err != nil && ctx.Err() == nil {
			handleErr(err)
		}
	},
}

// playlist turns arguments into playlist items.
func playlist(args []string) ([]player.Item, error) {
	items := make([]player.Item, 0, len(args))
	for _, arg := range args {
		item, err := parseItem(arg)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseItem(arg string) (player.Item, error) {
	if raw, ok := strings.CutPrefix(arg, synthPrefix); ok {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil || seconds <= 0 {
			return player.Item{}, fmt.Errorf("invalid clip length %q", raw)
		}
		return player.Item{Path: arg, Load: func() (playback.Entry, error) {
			opts := synth.Defaults()
			opts.Duration = seconds
			return playback.Entry{Demuxer: synth.New(arg, opts)}, nil
		}}, nil
	}

	if !strings.EqualFold(filepath.Ext(arg), ".toml") {
		return player.Item{}, fmt.Errorf("unsupported entry %s: expected a .toml timeline or %sSECONDS", arg, synthPrefix)
	}
	path, err := filepath.Abs(arg)
	if err != nil {
		return player.Item{}, err
	}
	return player.Item{Path: path, Load: func() (playback.Entry, error) {
		desc, err := timeline.Read(path)
		if err != nil {
			return playback.Entry{}, err
		}
		tl, err := desc.Build()
		if err != nil {
			return playback.Entry{}, fmt.Errorf("%s: %w", path, err)
		}
		return playback.Entry{Path: path, Timeline: tl}, nil
	}}, nil
}

// printer shows playlist events on the terminal with an updating status line.
func printer(quiet bool) player.Listener {
	var (
		erase   = func() {}
		drops   int
		dropped int
	)
	return func(e player.Event) {
		switch e.Kind {
		case player.EntryStarted:
			fmt.Printf("%s Playing %s\n", style.Fg(color.Green)(icon.Get(icon.Play)), style.Bold(e.Title))
		case player.StatusChanged:
			drops = e.Status.Drops
			if quiet {
				return
			}
			erase()
			line := e.Status.Render()
			if e.Status.Paused {
				line = icon.Get(icon.Pause) + " " + line
			}
			erase = util.PrintErasable(line)
		case player.EntryStopped:
			dropped += drops
			drops = 0
			erase()
			erase = func() {}
			fmt.Printf("%s %s: %s\n", style.Faint(icon.Get(icon.Success)), e.Title, util.Capitalize(e.Reason.String()))
		case player.PlaylistFinished:
			if dropped > 0 {
				fmt.Printf("%s %s\n", style.Fg(color.Yellow)(icon.Get(icon.Drop)), util.Quantify(dropped, "frame dropped", "frames dropped"))
			}
		case player.EntryFailed:
			fmt.Fprintf(os.Stderr, "%s %v\n", style.Fg(color.Red)(icon.Get(icon.Fail)), e.Err)
		}
	}
}
