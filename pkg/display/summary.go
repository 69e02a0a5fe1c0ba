/* pkg/display/summary.go */

// Package display renders run results for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/publisher"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/versionlog"
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPrimary = lipgloss.Color("#00ffff") // Cyan
	ColorSuccess = lipgloss.Color("#00ff00") // Green
	ColorWarning = lipgloss.Color("#ffaa00") // Orange
	ColorMuted   = lipgloss.Color("#666666") // Gray
	ColorBorder  = lipgloss.Color("#3d5a80") // Medium blue
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	labelStyle = lipgloss.NewStyle().Foreground(ColorMuted).Width(12)
	okStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func flag(b bool) string {
	if b {
		return okStyle.Render("yes")
	}
	return "no"
}

// Summary renders the outcome of a release or pre-release.
func Summary(res *publisher.Result) string {
	var title string
	switch {
	case res.DryRun:
		title = "Release preview (dry run)"
	case res.PreRelease:
		title = "Pre-release published"
	default:
		title = "Release published"
	}

	rows := []string{titleStyle.Render(title), ""}
	if res.PreRelease {
		rows = append(rows, row("Version", res.Previous.String()))
	} else {
		rows = append(rows,
			row("Version", fmt.Sprintf("%s -> %s", res.Previous, res.Next)),
			row("Magnitude", fmt.Sprintf("%s (%s)", res.Decision.Magnitude, res.Decision.Reason)),
			row("Deps", flag(res.Evidence.DependencyChanged)),
			row("Fixes", flag(res.Evidence.HasErrorFixCommits)),
			row("Features", flag(res.Evidence.HasFeatureCommits)),
		)
	}
	rows = append(rows, row("Tag", res.Tag), row("Message", res.Message))

	if len(res.Completed) > 0 {
		steps := make([]string, 0, len(res.Completed))
		for _, s := range res.Completed {
			steps = append(steps, string(s))
		}
		rows = append(rows, row("Steps", okStyle.Render(strings.Join(steps, ", "))))
	}
	for _, w := range res.Warnings {
		rows = append(rows, row("Warning", warnStyle.Render(w.Error())))
	}

	out := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if res.DryRun && res.Changelog != "" {
		out += "\n" + res.Changelog
	}
	return out + "\n"
}

// Snapshot renders a recorded version snapshot.
func Snapshot(s *versionlog.Snapshot, path string) string {
	rows := []string{
		titleStyle.Render("Version snapshot recorded"),
		"",
		row("Version", s.Version),
		row("Command", s.Command),
		row("Toolchain", s.Toolchain),
		row("Log", path),
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)) + "\n"
}
