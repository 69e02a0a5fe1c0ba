// pkg/version/version.go
//
// Version triple parsing and arithmetic.

package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
)

// PreReleaseSuffix is appended to the current version by the pre-release path.
// It never increments.
const PreReleaseSuffix = "-beta.1"

// Triple is a major.minor.patch version.
type Triple struct {
	Major int
	Minor int
	Patch int
}

// Parse reads a dotted three-part numeric version string.
func Parse(s string) (Triple, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Triple{}, &rel_err.MalformedVersionError{
			Value:  s,
			Reason: fmt.Sprintf("expected 3 dot-separated parts, got %d", len(parts)),
		}
	}

	var nums [3]int
	for i, p := range parts {
		// Atoi accepts a leading sign, which a version component must not have.
		if p == "" || strings.IndexFunc(p, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return Triple{}, &rel_err.MalformedVersionError{
				Value:  s,
				Reason: fmt.Sprintf("part %d (%q) is not a non-negative integer", i+1, p),
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Triple{}, &rel_err.MalformedVersionError{Value: s, Reason: err.Error()}
		}
		nums[i] = n
	}
	return Triple{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}

// Tag is the release tag name for t.
func (t Triple) Tag() string {
	return "v" + t.String()
}

// PreReleaseTag is the beta tag for the unmutated version t.
func (t Triple) PreReleaseTag() string {
	return t.Tag() + PreReleaseSuffix
}

// Next applies a magnitude to a triple.
func Next(t Triple, m Magnitude) Triple {
	switch m {
	case Major:
		return Triple{Major: t.Major + 1}
	case Minor:
		return Triple{Major: t.Major, Minor: t.Minor + 1}
	default:
		return Triple{Major: t.Major, Minor: t.Minor, Patch: t.Patch + 1}
	}
}
