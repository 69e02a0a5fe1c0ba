// pkg/classifier/classifier.go

// Package classifier decides the magnitude of a pending release.
package classifier

import (
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/evidence"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/version"
)

// Reason names the rule that produced a decision.
type Reason string

const (
	ReasonForced     Reason = "forced"
	ReasonDependency Reason = "dependencies changed"
	ReasonErrorFix   Reason = "error-fix commits"
	ReasonFeature    Reason = "feature commits"
	ReasonDefault    Reason = "no qualifying evidence"
)

// Decision is the outcome of Classify.
type Decision struct {
	Magnitude version.Magnitude
	Reason    Reason
}

// Classify applies the fixed precedence, first match wins:
//
//  1. a forced magnitude, evidence ignored
//  2. dependency change or error-fix commits: Major
//  3. feature commits: Minor
//  4. otherwise Patch
//
// Fixes and dependency changes escalate to Major on purpose; they are
// treated as potentially breaking.
func Classify(forced *version.Magnitude, ev evidence.Evidence) Decision {
	switch {
	case forced != nil:
		return Decision{Magnitude: *forced, Reason: ReasonForced}
	case ev.DependencyChanged:
		return Decision{Magnitude: version.Major, Reason: ReasonDependency}
	case ev.HasErrorFixCommits:
		return Decision{Magnitude: version.Major, Reason: ReasonErrorFix}
	case ev.HasFeatureCommits:
		return Decision{Magnitude: version.Minor, Reason: ReasonFeature}
	default:
		return Decision{Magnitude: version.Patch, Reason: ReasonDefault}
	}
}
