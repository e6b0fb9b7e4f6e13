// Package timeline stitches spans of several sources into one logical timeline.
package timeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avsync-cli/avsync/decode"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

// ErrOutOfRange is returned when a position lies past the end of the timeline.
var ErrOutOfRange = errors.New("position beyond end of timeline")

// Source is one opened file backing some parts.
type Source struct {
	ID      string
	Demuxer decode.Demuxer
}

// Part is a contiguous span of the timeline backed by one source.
type Part struct {
	// Start is the position of the part on the timeline.
	Start float64
	// SourceStart is the position inside the source where the part begins.
	SourceStart float64
	Source      *Source
}

// Chapter is a named position on the timeline.
type Chapter struct {
	Name  string
	Start float64
}

// Timeline holds parts ordered by start plus a sentinel part whose start is the total duration.
type Timeline struct {
	Title    string
	parts    []Part
	Chapters []Chapter
}

// New validates parts and appends the sentinel ending at end.
func New(title string, parts []Part, end float64) (*Timeline, error) {
	if len(parts) == 0 {
		return nil, errors.New("timeline has no parts")
	}
	for i, p := range parts {
		if p.Source == nil {
			return nil, fmt.Errorf("part %d has no source", i)
		}
		if i > 0 && p.Start < parts[i-1].Start {
			return nil, fmt.Errorf("part %d starts at %.3f before part %d at %.3f", i, p.Start, i-1, parts[i-1].Start)
		}
	}
	if last := parts[len(parts)-1]; end < last.Start {
		return nil, fmt.Errorf("timeline ends at %.3f before its last part at %.3f", end, last.Start)
	}

	all := append(slices.Clone(parts), Part{Start: end})
	return &Timeline{Title: title, parts: all}, nil
}

// Len returns the number of real parts.
func (t *Timeline) Len() int {
	return len(t.parts) - 1
}

// Part returns part i.
func (t *Timeline) Part(i int) Part {
	return t.parts[i]
}

// End returns the position where part i stops.
func (t *Timeline) End(i int) float64 {
	return t.parts[i+1].Start
}

// Duration is the start of the sentinel.
func (t *Timeline) Duration() float64 {
	return t.parts[len(t.parts)-1].Start
}

// Resolve finds the part containing pos and the matching position inside its source.
// Negative positions clamp to zero.
func (t *Timeline) Resolve(pos float64) (index int, sourcePos float64, err error) {
	if pos < 0 {
		pos = 0
	}
	for i := 0; i < t.Len(); i++ {
		p := t.parts[i]
		if pos < t.parts[i+1].Start {
			return i, pos - p.Start + p.SourceStart, nil
		}
	}
	return -1, 0, ErrOutOfRange
}

// Offset is the bias to add to source timestamps of part i to get timeline positions.
func (t *Timeline) Offset(i int) float64 {
	p := t.parts[i]
	return p.Start - p.SourceStart
}

// Sources lists each distinct source once in order of first use.
func (t *Timeline) Sources() []*Source {
	return lo.Uniq(lo.FilterMap(t.parts, func(p Part, _ int) (*Source, bool) {
		return p.Source, p.Source != nil
	}))
}

// CurrentChapter returns the index of the chapter containing pos, -1 before the first
// chapter and -2 when there are no chapters.
func (t *Timeline) CurrentChapter(pos float64) int {
	if len(t.Chapters) == 0 {
		return -2
	}
	i := 1
	for ; i < len(t.Chapters); i++ {
		if pos < t.Chapters[i].Start {
			break
		}
	}
	if i == 1 && pos < t.Chapters[0].Start {
		return -1
	}
	return i - 1
}

// ChapterStart returns the start of chapter i, clamping negative indexes to the first chapter.
func (t *Timeline) ChapterStart(i int) mo.Option[float64] {
	if i >= len(t.Chapters) || len(t.Chapters) == 0 {
		return mo.None[float64]()
	}
	if i < 0 {
		i = 0
	}
	return mo.Some(t.Chapters[i].Start)
}

// ChapterName renders a chapter for display.
func (t *Timeline) ChapterName(i int) string {
	if i < 0 || i >= len(t.Chapters) {
		return ""
	}
	if name := t.Chapters[i].Name; name != "" {
		return fmt.Sprintf("(%d) %s", i+1, name)
	}
	return fmt.Sprintf("(%d) of %d", i+1, len(t.Chapters))
}

// FindChapter looks up a chapter by a fuzzy, case-insensitive name. The closest match wins.
func (t *Timeline) FindChapter(name string) mo.Option[int] {
	names := lo.Map(t.Chapters, func(c Chapter, _ int) string { return c.Name })
	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(name), names)
	if len(ranks) == 0 {
		return mo.None[int]()
	}
	best := lo.MinBy(ranks, func(a, b fuzzy.Rank) bool {
		return a.Distance < b.Distance || a.Distance == b.Distance && a.OriginalIndex < b.OriginalIndex
	})
	return mo.Some(best.OriginalIndex)
}
