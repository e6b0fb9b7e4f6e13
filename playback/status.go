package playback

import (
	"fmt"
	"math"
	"strings"

	"github.com/avsync-cli/avsync/avsync"
	"github.com/avsync-cli/avsync/pts"
	"github.com/avsync-cli/avsync/style"
	"github.com/avsync-cli/avsync/util"
	"github.com/muesli/reflow/truncate"
)

// defaultWidth is used when the terminal size is unknown.
const defaultWidth = 80

// DesyncHelp is shown once per session when video cannot keep up with audio.
const DesyncHelp = `
Video is falling behind audio and frames are being dropped.
The system may be too slow to decode this entry in real time.
Things worth trying:
  - allow frame dropping: video.framedrop = 1, or 2 to also hint the decoder
  - drop the lua video filter if one is configured
  - smooth a jittery audio device clock: sync.autosync = 30
  - try another audio driver (audio.driver)
`

// Status is a snapshot of the session for front-ends.
type Status struct {
	Line     string
	Paused   bool
	HasAudio bool
	HasVideo bool
	// Position is the current position in seconds, NaN when unknown.
	Position float64
	Length   float64
	Percent  int
	Speed    float64
	// AVDifference is the audible audio minus the shown video, NaN when unknown.
	AVDifference float64
	Correction   float64
	Drops        int
	Chapter      string
	// Desync is set on the single report that crosses the desync threshold.
	Desync bool
}

// Render colors the status line for a terminal.
func (st Status) Render() string {
	line := st.Line
	if st.HasAudio {
		line = strings.Replace(line, "A", style.Fg(style.AudioColor)("A"), 1)
	}
	if st.HasVideo {
		line = strings.Replace(line, "V:", style.Fg(style.VideoColor)("V")+":", 1)
	}
	if i := strings.LastIndex(line, " D: "); i >= 0 {
		line = line[:i] + style.Fg(style.WarningColor)(line[i:])
	}
	return line
}

// printStatus refreshes the A-V difference and reports the status. aPos is the
// audible position, or pts.None to query the device. atFrame is set right after a flip.
func (s *Session) printStatus(aPos float64, atFrame bool) {
	st := s.st
	if s.audio != nil && !pts.Valid(aPos) {
		aPos = s.playingAudioPts()
	}
	desync := false
	if s.audio != nil && s.video != nil && atFrame {
		if desync = avsync.UpdateAVDifference(st, aPos, s.syncParams()); desync {
			s.log.Warn(DesyncHelp)
		}
	}
	if s.opts.Quiet || s.status == nil {
		return
	}

	report := s.statusReport(aPos)
	report.Desync = desync
	s.status(report)
}

func (s *Session) statusReport(aPos float64) Status {
	st := s.st
	report := Status{
		Paused:       st.Paused,
		HasAudio:     s.audio != nil,
		HasVideo:     s.video != nil,
		Position:     math.NaN(),
		Length:       s.Length(),
		Percent:      s.PercentPos(),
		Speed:        s.speed(),
		AVDifference: math.NaN(),
		Correction:   st.TotalAVSyncChange,
		Drops:        st.DropFrameCount,
	}
	if cur := s.CurrentChapter(); cur >= 0 {
		report.Chapter = s.ChapterName(cur)
	}

	var b strings.Builder
	if st.Paused {
		b.WriteString("(Paused) ")
	}
	if report.HasAudio {
		b.WriteString("A")
	}
	if report.HasVideo {
		b.WriteString("V")
	}
	b.WriteString(":")

	cur := pts.None
	switch {
	case report.HasAudio && pts.Valid(aPos):
		cur = aPos
	case report.HasVideo && pts.Valid(st.VideoPts):
		cur = st.VideoPts
	}
	if pts.Valid(cur) {
		report.Position = cur
		fmt.Fprintf(&b, " %.1f (%s)", cur, pts.Format(cur, s.opts.OsdFractions))
	} else {
		b.WriteString(" ???")
	}

	if report.Length > 0 {
		fmt.Fprintf(&b, " / %.1f (%s)", report.Length, pts.Format(report.Length, s.opts.OsdFractions))
	}
	fmt.Fprintf(&b, " (%d%%)", report.Percent)

	if report.Speed != 1 {
		fmt.Fprintf(&b, " x%4.2f", report.Speed)
	}

	if report.HasAudio && report.HasVideo {
		if pts.Valid(st.LastAVDifference) {
			report.AVDifference = st.LastAVDifference
			fmt.Fprintf(&b, " A-V:%7.3f", st.LastAVDifference)
		} else {
			b.WriteString(" A-V: ???")
		}
		if math.Abs(st.TotalAVSyncChange) > 0.05 {
			fmt.Fprintf(&b, " ct:%7.3f", st.TotalAVSyncChange)
		}
	}

	if report.HasVideo && st.DropFrameCount > 0 {
		fmt.Fprintf(&b, " D: %d", st.DropFrameCount)
	}

	width := defaultWidth
	if w, _, err := util.TerminalSize(); err == nil && w > 0 {
		width = w
	}
	report.Line = truncate.String(b.String(), uint(width))
	return report
}
