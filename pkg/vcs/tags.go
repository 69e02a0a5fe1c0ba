// pkg/vcs/tags.go

package vcs

import (
	"sort"

	goversion "github.com/hashicorp/go-version"
)

// NewestTag picks the highest version among tag names. Names that do not
// parse as versions sort below those that do, and lexically among themselves.
func NewestTag(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tagLess(sorted[i], sorted[j])
	})
	return sorted[len(sorted)-1]
}

func tagLess(a, b string) bool {
	va, errA := goversion.NewVersion(a)
	vb, errB := goversion.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return a < b
	case errA != nil:
		return true
	case errB != nil:
		return false
	}
	if va.Equal(vb) {
		return a < b
	}
	return va.LessThan(vb)
}
