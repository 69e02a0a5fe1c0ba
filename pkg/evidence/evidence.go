// Package evidence gathers the signals used to classify a pending release.
//
// Every probe reads version-control history through a vcs.Backend and is
// independent of the others. A probe that cannot reach its data source
// degrades to a negative signal and a logged warning; collection as a whole
// never fails.
package evidence

import (
	"context"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/manifest"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/telemetry"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/vcs"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	// DefaultWindow is how many recent commits the keyword probes inspect.
	DefaultWindow = 10
	// DefaultHeadlineCommits is how many subjects the default headline lists.
	DefaultHeadlineCommits = 5

	FixPattern     = "fix:"
	FeaturePattern = "feat:"
	FeatureKeyword = "feat"
)

// ErrorKeywords mark a commit subject as an error fix.
var ErrorKeywords = []string{"fix", "error", "bug", "crash", "exception"}

// Probe names, used in warnings and ProbeError.
const (
	ProbeDependencies   = "dependency-diff"
	ProbeErrorKeywords  = "error-keywords"
	ProbeFeatureKeyword = "feature-keyword"
	ProbeFixCommits     = "fix-commits"
	ProbeFeatureCommits = "feature-commits"
	ProbeRecentSubjects = "recent-subjects"
	ProbeLatestTag      = "latest-tag"
	ProbeCommitLog      = "commit-log"
)

// Evidence is the three-signal snapshot the classifier decides on.
type Evidence struct {
	DependencyChanged  bool
	HasErrorFixCommits bool
	HasFeatureCommits  bool
}

// Report is Evidence plus the history detail the changelog is built from.
type Report struct {
	Evidence

	DependencyChanges []manifest.DependencyChange
	FixCommits        []vcs.Commit
	FeatureCommits    []vcs.Commit
	RecentSubjects    []string
	PreviousTag       string
	CommitLog         []vcs.Commit

	// Warnings holds a *rel_err.ProbeError for every probe that degraded.
	Warnings []error
}

// Collector runs the probes against one repository.
type Collector struct {
	Backend         vcs.Backend
	ManifestPath    string
	Window          int
	HeadlineCommits int
}

// NewCollector returns a collector with the default windows.
func NewCollector(backend vcs.Backend, manifestPath string) *Collector {
	return &Collector{
		Backend:         backend,
		ManifestPath:    manifestPath,
		Window:          DefaultWindow,
		HeadlineCommits: DefaultHeadlineCommits,
	}
}

// Collect runs every probe and detail query. current is the working-tree
// manifest.
func (c *Collector) Collect(ctx context.Context, current *manifest.Manifest) *Report {
	ctx, span := telemetry.Start(ctx, "evidence.Collect",
		attribute.String("manifest", c.ManifestPath),
		attribute.Int("window", c.window()))
	defer span.End()

	r := &Report{}

	changes, err := DependencyDiff(ctx, c.Backend, c.ManifestPath, current)
	if r.degrade(ctx, ProbeDependencies, err) {
		r.DependencyChanged = len(changes) > 0
		r.DependencyChanges = changes
	}

	r.HasErrorFixCommits = r.keywordProbe(ctx, c, ProbeErrorKeywords, ErrorKeywords)
	r.HasFeatureCommits = r.keywordProbe(ctx, c, ProbeFeatureKeyword, []string{FeatureKeyword})

	if fixes, err := c.Backend.CommitsMatching(ctx, FixPattern, c.window()); r.degrade(ctx, ProbeFixCommits, err) {
		r.FixCommits = fixes
	}
	if feats, err := c.Backend.CommitsMatching(ctx, FeaturePattern, c.window()); r.degrade(ctx, ProbeFeatureCommits, err) {
		r.FeatureCommits = feats
	}

	limit := c.HeadlineCommits
	if limit < 1 {
		limit = DefaultHeadlineCommits
	}
	if subjects, err := c.Backend.RecentCommitSubjects(ctx, limit); r.degrade(ctx, ProbeRecentSubjects, err) {
		r.RecentSubjects = subjects
	}

	tag, err := c.Backend.MostRecentTag(ctx)
	if r.degrade(ctx, ProbeLatestTag, err) {
		r.PreviousTag = tag
	}
	if log, err := c.Backend.CommitsSince(ctx, r.PreviousTag); r.degrade(ctx, ProbeCommitLog, err) {
		r.CommitLog = log
	}

	span.SetAttributes(
		attribute.Bool("dependency_changed", r.DependencyChanged),
		attribute.Bool("error_fix_commits", r.HasErrorFixCommits),
		attribute.Bool("feature_commits", r.HasFeatureCommits),
		attribute.Int("warnings", len(r.Warnings)))

	otelzap.Ctx(ctx).Info("Evidence collected",
		zap.Bool("dependency_changed", r.DependencyChanged),
		zap.Bool("error_fix_commits", r.HasErrorFixCommits),
		zap.Bool("feature_commits", r.HasFeatureCommits),
		zap.String("previous_tag", r.PreviousTag),
		zap.Int("commits_since_tag", len(r.CommitLog)))
	return r
}

func (r *Report) keywordProbe(ctx context.Context, c *Collector, probe string, keywords []string) bool {
	subjects, err := c.Backend.RecentCommitSubjects(ctx, c.window())
	if !r.degrade(ctx, probe, err) {
		return false
	}
	return ContainsKeyword(subjects, keywords)
}

// degrade records err as a probe warning and reports whether the probe succeeded.
func (r *Report) degrade(ctx context.Context, probe string, err error) bool {
	if err == nil {
		return true
	}
	perr := &rel_err.ProbeError{Probe: probe, Cause: err}
	r.Warnings = append(r.Warnings, perr)
	otelzap.Ctx(ctx).Warn("Evidence probe degraded",
		zap.String("probe", probe),
		zap.Error(err))
	return false
}

func (c *Collector) window() int {
	if c.Window < 1 {
		return DefaultWindow
	}
	return c.Window
}

// DependencyDiff compares the dependency maps of current with those of the
// manifest committed at HEAD.
func DependencyDiff(ctx context.Context, backend vcs.Backend, path string, current *manifest.Manifest) ([]manifest.DependencyChange, error) {
	if current == nil {
		return nil, cerr.New("no working-tree manifest to compare")
	}
	data, err := backend.ReadFileAtRevision(ctx, path, "HEAD")
	if err != nil {
		return nil, cerr.Wrapf(err, "read %s at HEAD", path)
	}
	previous, err := manifest.ParseDependencies(path, data)
	if err != nil {
		return nil, cerr.Wrapf(err, "parse %s at HEAD", path)
	}
	return manifest.Diff(previous, current), nil
}

// ContainsKeyword reports whether any subject contains any keyword,
// ignoring case.
func ContainsKeyword(subjects, keywords []string) bool {
	for _, s := range subjects {
		lower := strings.ToLower(s)
		for _, k := range keywords {
			if strings.Contains(lower, strings.ToLower(k)) {
				return true
			}
		}
	}
	return false
}
