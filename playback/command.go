package playback

import (
	"fmt"

	"github.com/avsync-cli/avsync/seek"
)

// CommandKind enumerates what a front-end can ask of a running session.
type CommandKind int

const (
	CmdSeek CommandKind = iota
	CmdPause
	CmdFrameStep
	CmdChapter
	CmdChapterName
	CmdAudioDelay
	CmdNext
	CmdPrev
	CmdQuit
)

func (k CommandKind) String() string {
	switch k {
	case CmdSeek:
		return "seek"
	case CmdPause:
		return "pause"
	case CmdFrameStep:
		return "frame step"
	case CmdChapter:
		return "chapter"
	case CmdChapterName:
		return "chapter by name"
	case CmdAudioDelay:
		return "audio delay"
	case CmdNext:
		return "next"
	case CmdPrev:
		return "previous"
	case CmdQuit:
		return "quit"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is one request to the playback loop.
type Command struct {
	Kind CommandKind

	SeekType seek.Type
	Amount   float64
	Exact    int

	// Chapter is a relative chapter step for CmdChapter.
	Chapter int
	// Name is matched against chapter names for CmdChapterName.
	Name string
}

func (c Command) String() string {
	switch c.Kind {
	case CmdSeek:
		return fmt.Sprintf("seek %s %.3f", c.SeekType, c.Amount)
	case CmdChapter:
		return fmt.Sprintf("chapter %+d", c.Chapter)
	case CmdChapterName:
		return fmt.Sprintf("chapter %q", c.Name)
	case CmdAudioDelay:
		return fmt.Sprintf("audio delay %+.3f", c.Amount)
	default:
		return c.Kind.String()
	}
}

// SeekCommand builds a seek of the given type.
func SeekCommand(t seek.Type, amount float64, exact int) Command {
	return Command{Kind: CmdSeek, SeekType: t, Amount: amount, Exact: exact}
}

// SeekRelative seeks by delta seconds.
func SeekRelative(delta float64) Command {
	return SeekCommand(seek.Relative, delta, seek.Default)
}

// SeekAbsolute seeks to pos seconds.
func SeekAbsolute(pos float64) Command {
	return SeekCommand(seek.Absolute, pos, seek.Default)
}

// SeekPercent seeks to percent of the total duration.
func SeekPercent(percent float64) Command {
	return SeekCommand(seek.Factor, percent/100, seek.Default)
}

func TogglePause() Command      { return Command{Kind: CmdPause} }
func FrameStep() Command        { return Command{Kind: CmdFrameStep} }
func Next() Command             { return Command{Kind: CmdNext} }
func Prev() Command             { return Command{Kind: CmdPrev} }
func Quit() Command             { return Command{Kind: CmdQuit} }
func ChapterStep(n int) Command { return Command{Kind: CmdChapter, Chapter: n} }

// ChapterNamed seeks to the chapter best matching name.
func ChapterNamed(name string) Command {
	return Command{Kind: CmdChapterName, Name: name}
}

// AudioDelay shifts the audio delay by delta seconds.
func AudioDelay(delta float64) Command {
	return Command{Kind: CmdAudioDelay, Amount: delta}
}
