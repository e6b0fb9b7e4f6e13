package player

import (
	"github.com/avsync-cli/avsync/log"
	"github.com/avsync-cli/avsync/playback"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// Skipper leaves chapters such as openings and endings as soon as they are reached.
type Skipper struct {
	names   []string
	skipped map[string]bool
}

// NewSkipper creates a skipper for chapters matching any of names.
func NewSkipper(names []string) *Skipper {
	return &Skipper{
		names:   lo.Compact(names),
		skipped: make(map[string]bool),
	}
}

// Check asks the session to step past the chapter named in status when it is one
// to skip. Every chapter is skipped once per entry, so seeking back into it plays it.
// It reports whether a skip was requested.
func (k *Skipper) Check(s *playback.Session, status playback.Status) bool {
	if s == nil || status.Chapter == "" || k.skipped[status.Chapter] {
		return false
	}
	if !lo.ContainsBy(k.names, func(name string) bool {
		return fuzzy.MatchNormalizedFold(name, status.Chapter)
	}) {
		return false
	}

	if !s.Send(playback.ChapterStep(1)) {
		return false
	}
	k.skipped[status.Chapter] = true
	log.Infof("skipping chapter %s", status.Chapter)
	return true
}
