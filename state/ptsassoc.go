package state

import "github.com/avsync-cli/avsync/pts"

// Timestamp association modes.
const (
	AssocAuto = iota
	// AssocDecoder trusts the timestamps reordered by the decoder.
	AssocDecoder
	// AssocSorted trusts packet timestamps sorted in decode order.
	AssocSorted
)

// PtsAssociation picks which of two timestamp sources to trust for a reordering decoder.
// Each source earns a problem whenever its timestamps fail to increase. The counters
// belong to one video stream and start over with it.
type PtsAssociation struct {
	Mode              int
	ReorderedProblems int
	SortedProblems    int

	prevReordered float64
	prevSorted    float64
	seen          bool
}

// Observe counts non-increasing timestamps from either source.
func (a *PtsAssociation) Observe(reordered, sorted float64) {
	if !a.seen {
		a.prevReordered, a.prevSorted, a.seen = pts.None, pts.None, true
	}
	if pts.Valid(reordered) {
		if pts.Valid(a.prevReordered) && reordered <= a.prevReordered {
			a.ReorderedProblems++
		}
		a.prevReordered = reordered
	}
	if pts.Valid(sorted) {
		if pts.Valid(a.prevSorted) && sorted <= a.prevSorted {
			a.SortedProblems++
		}
		a.prevSorted = sorted
	}
}

// Determine updates the mode and returns the timestamp to use for the frame.
// A forced mode always wins. Otherwise the first frame picks decoder timestamps when the
// demuxer delivers real presentation timestamps, and later frames switch only when the
// current source has at least 1.5 times plus two as many problems as the other.
func (a *PtsAssociation) Determine(forced int, demuxerPts bool, reordered, sorted float64) (p float64, switched bool) {
	switch {
	case forced != AssocAuto:
		a.Mode = forced
	case a.Mode == AssocAuto:
		if demuxerPts && pts.Valid(reordered) {
			a.Mode = AssocDecoder
		} else {
			a.Mode = AssocSorted
		}
	default:
		current, other := a.ReorderedProblems, a.SortedProblems
		if a.Mode == AssocSorted {
			current, other = other, current
		}
		if float64(current) >= float64(other)*1.5+2 {
			a.Mode = AssocDecoder + AssocSorted - a.Mode
			switched = true
		}
	}

	if a.Mode == AssocDecoder {
		return reordered, switched
	}
	return sorted, switched
}
