package history

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/avsync-cli/avsync/pts"
)

// Record is the resume position of one entry.
type Record struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Position float64   `json:"position"`
	Length   float64   `json:"length"`
	Chapter  string    `json:"chapter,omitempty"`
	Updated  time.Time `json:"updated"`
}

func (r *Record) encode() string {
	if abs, err := filepath.Abs(r.Path); err == nil {
		return abs
	}
	return r.Path
}

// Percent is the position as a share of the length, or zero when the length is unknown.
func (r *Record) Percent() float64 {
	if r.Length <= 0 {
		return 0
	}
	return min(r.Position/r.Length*100, 100)
}

func (r *Record) String() string {
	name := r.Title
	if name == "" {
		name = filepath.Base(r.Path)
	}
	if r.Length <= 0 {
		return fmt.Sprintf("%s : %s", name, pts.Format(r.Position, false))
	}
	return fmt.Sprintf("%s : %s / %s", name, pts.Format(r.Position, false), pts.Format(r.Length, false))
}
