// Package seek models user seek requests and how consecutive requests merge.
package seek

import (
	"fmt"

	"github.com/avsync-cli/avsync/decode"
)

// Type tags a seek request.
type Type int

const (
	None Type = iota
	Relative
	Absolute
	// Factor seeks to a fraction of the total duration.
	Factor
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Relative:
		return "relative"
	case Absolute:
		return "absolute"
	case Factor:
		return "factor"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Precision levels for Request.Exact.
const (
	// Keyframe forbids precise seeking even when configured.
	Keyframe = -1
	// Default leaves the decision to configuration.
	Default = 0
	// Exact asks for a precise seek.
	Exact = 1
)

// Request is the single pending, coalesced seek.
type Request struct {
	Type   Type
	Amount float64
	Exact  int
	// Direction is -1 backward, 1 forward or 0 unknown.
	Direction int
}

func (r Request) String() string {
	return fmt.Sprintf("%s(%.3f exact=%d)", r.Type, r.Amount, r.Exact)
}

// Pending reports whether a request is queued.
func (r Request) Pending() bool {
	return r.Type != None
}

// Queue merges a new request into r.
//
// Relative requests accumulate into a pending relative or absolute request and
// are ignored while a factor request is pending. A relative sum of zero cancels
// the pending relative request. Absolute and factor requests replace whatever
// was pending.
func (r *Request) Queue(t Type, amount float64, exact int) {
	switch t {
	case Relative:
		if r.Type == Factor {
			return
		}
		if r.Type == None {
			r.Exact = exact
		} else {
			r.Exact = max(r.Exact, exact)
		}
		r.Amount += amount
		if r.Type == Absolute {
			return
		}
		if r.Amount == 0 {
			*r = Request{}
			return
		}
		r.Type = Relative
	case Absolute, Factor:
		*r = Request{Type: t, Amount: amount, Exact: exact}
	default:
		*r = Request{}
	}
}

// Clear drops the pending request.
func (r *Request) Clear() {
	*r = Request{}
}

// Precise decides whether a request is served by decoding forward to the exact target.
// hrSeek is the configured policy: negative never, zero only for absolute seeks, positive always.
func Precise(r Request, accurateDemuxer, correctPts bool, hrSeek int) bool {
	if !accurateDemuxer || !correctPts {
		return false
	}
	if r.Exact < Default || r.Type == Factor {
		return false
	}
	return hrSeek == 0 && r.Type == Absolute || hrSeek > 0 || r.Exact > Default
}

// DemuxerFlags translates a resolved request into demuxer seek flags.
func DemuxerFlags(r Request, precise bool) decode.SeekFlags {
	var flags decode.SeekFlags
	switch r.Type {
	case Factor:
		flags |= decode.SeekFactor | decode.SeekAbsolute
	case Absolute:
		flags |= decode.SeekAbsolute
	}
	if precise || r.Direction < 0 {
		flags |= decode.SeekBackward
	} else if r.Direction > 0 {
		flags |= decode.SeekForward
	}
	return flags
}
