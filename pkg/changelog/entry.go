// pkg/changelog/entry.go

// Package changelog builds release entries and splices them into the
// changelog document.
package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/evidence"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/manifest"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/vcs"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/version"
)

// DateLayout is the date format of entry headings.
const DateLayout = "2006-01-02"

// Section titles.
const (
	TitleDependencies = "Dependency Updates"
	TitleFixes        = "Error Fixes"
	TitleFeatures     = "New Features"
	TitleCommits      = "Commits"
)

// Entry is one release section of the changelog. Optional sections are nil
// when absent and are not rendered.
type Entry struct {
	Version      version.Triple
	Magnitude    version.Magnitude
	Date         time.Time
	Headline     string
	Dependencies []string
	Fixes        []string
	Features     []string
	CommitLog    []string
}

// Input is everything Synthesize needs.
type Input struct {
	Report    *evidence.Report
	Version   version.Triple
	Magnitude version.Magnitude
	Date      time.Time
	// Message overrides the generated headline when non-empty.
	Message string
}

// Synthesize assembles the entry for a release.
func Synthesize(in Input) Entry {
	r := in.Report
	if r == nil {
		r = &evidence.Report{}
	}

	e := Entry{
		Version:   in.Version,
		Magnitude: in.Magnitude,
		Date:      in.Date,
		Headline:  strings.TrimSpace(in.Message),
		CommitLog: []string{},
	}
	if e.Headline == "" {
		e.Headline = DefaultHeadline(r.Evidence, r.RecentSubjects)
	}

	if r.DependencyChanged && len(r.DependencyChanges) > 0 {
		for _, c := range r.DependencyChanges {
			e.Dependencies = append(e.Dependencies, DependencyBullet(c))
		}
	}
	if r.HasErrorFixCommits {
		e.Fixes = subjects(r.FixCommits)
	}
	if r.HasFeatureCommits {
		e.Features = subjects(r.FeatureCommits)
	}
	for _, c := range r.CommitLog {
		e.CommitLog = append(e.CommitLog, fmt.Sprintf("%s %s (%s)", c.ShortHash, c.Subject, c.Author))
	}
	return e
}

// DefaultHeadline summarises the evidence and the most recent subjects.
func DefaultHeadline(ev evidence.Evidence, recent []string) string {
	var parts []string
	if ev.DependencyChanged {
		parts = append(parts, "Dependencies updated")
	}
	if ev.HasErrorFixCommits {
		parts = append(parts, "Critical bug fixes")
	}
	if len(recent) > 0 {
		parts = append(parts, "Recent changes: "+strings.Join(recent, ", "))
	}
	if len(parts) == 0 {
		return "Maintenance release"
	}
	return strings.Join(parts, ". ")
}

// DependencyBullet renders one structural dependency change.
func DependencyBullet(c manifest.DependencyChange) string {
	var s string
	switch c.Kind {
	case manifest.Added:
		s = fmt.Sprintf("Added: %s %s", c.Name, c.To)
	case manifest.Removed:
		s = fmt.Sprintf("Removed: %s %s", c.Name, c.From)
	default:
		s = fmt.Sprintf("Updated: %s %s -> %s", c.Name, c.From, c.To)
	}
	if c.Dev {
		s += " (dev)"
	}
	return s
}

func subjects(commits []vcs.Commit) []string {
	if len(commits) == 0 {
		return nil
	}
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.Subject)
	}
	return out
}

// Render formats the entry as Markdown. The text starts with a blank line so
// it sits apart from whatever precedes it.
func (e Entry) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n## [%s] - %s\n", e.Version, e.Date.UTC().Format(DateLayout))
	fmt.Fprintf(&b, "\n### %s Changes\n%s\n", e.Magnitude.Title(), e.Headline)

	writeSection(&b, TitleDependencies, e.Dependencies)
	writeSection(&b, TitleFixes, e.Fixes)
	writeSection(&b, TitleFeatures, e.Features)

	fmt.Fprintf(&b, "\n### %s\n", TitleCommits)
	for _, line := range e.CommitLog {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, bullets []string) {
	if len(bullets) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n", title)
	for _, line := range bullets {
		fmt.Fprintf(b, "- %s\n", line)
	}
}
