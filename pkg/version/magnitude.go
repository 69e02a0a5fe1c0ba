// pkg/version/magnitude.go

package version

import (
	"fmt"
	"strings"
)

// Magnitude is the release classification.
type Magnitude int

const (
	Patch Magnitude = iota
	Minor
	Major
)

func (m Magnitude) String() string {
	switch m {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Patch:
		return "patch"
	}
	return fmt.Sprintf("Magnitude(%d)", int(m))
}

// Title is the capitalised name used in changelog headings.
func (m Magnitude) Title() string {
	s := m.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseMagnitude accepts major, minor or patch, case-insensitively.
func ParseMagnitude(s string) (Magnitude, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "patch":
		return Patch, nil
	}
	return Patch, fmt.Errorf("unknown release magnitude %q (want major, minor or patch)", s)
}
