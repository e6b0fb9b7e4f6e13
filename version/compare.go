// Package version compares release numbers of the form major.minor.patch.
package version

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type release struct {
	major, minor, patch int
}

func parse(s string) (release, error) {
	var r release
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	// a missing patch or minor number counts as zero
	switch strings.Count(s, ".") {
	case 0:
		s += ".0.0"
	case 1:
		s += ".0"
	}
	if _, err := fmt.Sscanf(s, "%d.%d.%d", &r.major, &r.minor, &r.patch); err != nil {
		return r, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return r, nil
}

// Compare returns 1 if a is newer than b, -1 if it is older and 0 if both are equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for _, pair := range []lo.Tuple2[int, int]{
		{A: av.major, B: bv.major},
		{A: av.minor, B: bv.minor},
		{A: av.patch, B: bv.patch},
	} {
		if pair.A > pair.B {
			return 1, nil
		}

		if pair.A < pair.B {
			return -1, nil
		}
	}

	return 0, nil
}

// Supports reports whether a build of version current can read data that requires version required.
// An empty requirement is always met.
func Supports(current, required string) (bool, error) {
	if required == "" {
		return true, nil
	}
	c, err := Compare(current, required)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}
