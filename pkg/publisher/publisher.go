// pkg/publisher/publisher.go

// Package publisher runs the release pipeline and its side effects.
//
// The sequence is best effort, not transactional: a failed step stops the
// run and nothing completed before it is rolled back. The returned error
// names the failed step and carries a hint with the commands that finish
// the release by hand.
package publisher

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/classifier"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/evidence"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/telemetry"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/vcs"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/version"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Step is one side effect of a release.
type Step string

const (
	StepWriteManifest  Step = "write-manifest"
	StepStage          Step = "stage"
	StepCommit         Step = "commit"
	StepTag            Step = "tag"
	StepWriteChangelog Step = "write-changelog"
	StepPush           Step = "push"
)

// Options are the caller's choices for one run.
type Options struct {
	// Forced skips classification when set.
	Forced *version.Magnitude
	// Message replaces the generated headline and tag message.
	Message string
}

// Publisher holds the collaborators and paths of one repository.
type Publisher struct {
	Backend vcs.Backend
	FS      fileops.FileSystem

	Remote        string
	ManifestPath  string
	ChangelogPath string

	Window          int
	HeadlineCommits int
	DryRun          bool
	Now             func() time.Time
}

// Result describes what a run did, or in a dry run, would do.
type Result struct {
	Previous   version.Triple
	Next       version.Triple
	Tag        string
	Message    string
	Decision   classifier.Decision
	Evidence   evidence.Evidence
	Warnings   []error
	Changelog  string
	Completed  []Step
	DryRun     bool
	PreRelease bool
}

// Release publishes the next version: write manifest, stage, commit,
// annotated tag, write changelog, push branch and tags.
func (p *Publisher) Release(ctx context.Context, opts Options) (res *Result, err error) {
	ctx, span := telemetry.Start(ctx, "publisher.Release", attribute.Bool("dry_run", p.DryRun))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	plan, err := p.Plan(ctx, opts)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Previous:  plan.Previous,
		Next:      plan.Next,
		Tag:       plan.Tag(),
		Message:   plan.Entry.Headline,
		Decision:  plan.Decision,
		Evidence:  plan.Report.Evidence,
		Warnings:  plan.Report.Warnings,
		Changelog: plan.Entry.Render(),
		DryRun:    p.DryRun,
	}
	span.SetAttributes(attribute.String("version", plan.Next.String()))

	if p.DryRun {
		otelzap.Ctx(ctx).Info("Dry run, nothing written", zap.String("tag", res.Tag))
		return res, nil
	}

	steps := []struct {
		step Step
		run  func(context.Context) error
	}{
		{StepWriteManifest, func(ctx context.Context) error {
			if err := p.FS.Write(ctx, p.ManifestPath, plan.ManifestData); err != nil {
				return &rel_err.WriteError{Artifact: rel_err.ArtifactManifest, Path: p.ManifestPath, Cause: err}
			}
			return nil
		}},
		{StepStage, func(ctx context.Context) error { return p.Backend.Stage(ctx, p.ManifestPath) }},
		{StepCommit, func(ctx context.Context) error { return p.Backend.Commit(ctx, plan.CommitMessage()) }},
		{StepTag, func(ctx context.Context) error { return p.Backend.Tag(ctx, res.Tag, res.Message) }},
		{StepWriteChangelog, func(ctx context.Context) error { return p.writeChangelog(ctx, plan) }},
		{StepPush, func(ctx context.Context) error {
			return p.Backend.Push(ctx, p.Remote, vcs.PushOptions{CurrentBranch: true, Tags: true})
		}},
	}

	for i, s := range steps {
		if err := p.runStep(ctx, s.step, s.run); err != nil {
			var remaining []Step
			for _, later := range steps[i:] {
				remaining = append(remaining, later.step)
			}
			return res, p.stepError(s.step, err, p.resumeCommands(plan, remaining))
		}
		res.Completed = append(res.Completed, s.step)
	}

	otelzap.Ctx(ctx).Info("Release published",
		zap.String("version", plan.Next.String()),
		zap.String("tag", res.Tag),
		zap.String("remote", p.Remote))
	return res, nil
}

// PreRelease tags the current, unbumped version with the beta suffix and
// pushes tags only. The manifest and changelog are not touched.
func (p *Publisher) PreRelease(ctx context.Context, message string) (res *Result, err error) {
	ctx, span := telemetry.Start(ctx, "publisher.PreRelease", attribute.Bool("dry_run", p.DryRun))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	_, current, err := p.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Previous:   current,
		Next:       current,
		Tag:        current.PreReleaseTag(),
		Message:    message,
		DryRun:     p.DryRun,
		PreRelease: true,
	}
	if res.Message == "" {
		res.Message = "Pre-release " + current.String()
	}
	if p.DryRun {
		otelzap.Ctx(ctx).Info("Dry run, nothing written", zap.String("tag", res.Tag))
		return res, nil
	}

	if err := p.runStep(ctx, StepTag, func(ctx context.Context) error {
		return p.Backend.Tag(ctx, res.Tag, res.Message)
	}); err != nil {
		return res, p.stepError(StepTag, err, []string{
			fmt.Sprintf("git tag -a %s -m %s", res.Tag, strconv.Quote(res.Message)),
			fmt.Sprintf("git push %s --tags", p.Remote),
		})
	}
	res.Completed = append(res.Completed, StepTag)

	if err := p.runStep(ctx, StepPush, func(ctx context.Context) error {
		return p.Backend.Push(ctx, p.Remote, vcs.PushOptions{Tags: true})
	}); err != nil {
		return res, p.stepError(StepPush, err, []string{fmt.Sprintf("git push %s --tags", p.Remote)})
	}
	res.Completed = append(res.Completed, StepPush)

	otelzap.Ctx(ctx).Info("Pre-release tag published", zap.String("tag", res.Tag))
	return res, nil
}

func (p *Publisher) runStep(ctx context.Context, step Step, fn func(context.Context) error) error {
	ctx, span := telemetry.Start(ctx, "publisher."+string(step))
	defer span.End()

	logger := otelzap.Ctx(ctx)
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Release step failed", zap.String("step", string(step)), zap.Error(err))
		return err
	}
	logger.Info("Release step completed", zap.String("step", string(step)))
	return nil
}

func (p *Publisher) writeChangelog(ctx context.Context, plan *Plan) error {
	if plan.ChangelogMissing {
		if dir := filepath.Dir(p.ChangelogPath); dir != "." {
			if err := p.FS.EnsureDirectory(ctx, dir); err != nil {
				return &rel_err.WriteError{Artifact: rel_err.ArtifactChangelog, Path: p.ChangelogPath, Cause: err}
			}
		}
	}
	if err := p.FS.Write(ctx, p.ChangelogPath, plan.ChangelogData); err != nil {
		return &rel_err.WriteError{Artifact: rel_err.ArtifactChangelog, Path: p.ChangelogPath, Cause: err}
	}
	return nil
}

// stepError keeps write errors as they are and wraps backend failures in a
// VcsOperationError. Both carry the resume hint.
func (p *Publisher) stepError(step Step, err error, remaining []string) error {
	var werr *rel_err.WriteError
	if cerr.As(err, &werr) {
		return rel_err.WithResumeHint(err, remaining...)
	}
	return rel_err.NewVcsError(string(step), err, remaining...)
}

// resumeCommands lists what is left to do from the first of steps onwards.
func (p *Publisher) resumeCommands(plan *Plan, steps []Step) []string {
	var cmds []string
	for _, s := range steps {
		switch s {
		case StepWriteManifest:
			cmds = append(cmds, fmt.Sprintf("set \"version\" to %s in %s", plan.Next, p.ManifestPath))
		case StepStage:
			cmds = append(cmds, "git add "+p.ManifestPath)
		case StepCommit:
			cmds = append(cmds, "git commit -m "+strconv.Quote(plan.CommitMessage()))
		case StepTag:
			cmds = append(cmds, fmt.Sprintf("git tag -a %s -m %s", plan.Tag(), strconv.Quote(plan.Entry.Headline)))
		case StepWriteChangelog:
			cmds = append(cmds, fmt.Sprintf("add the [%s] entry to %s", plan.Next, p.ChangelogPath))
		case StepPush:
			cmds = append(cmds, fmt.Sprintf("git push %s HEAD --tags", p.Remote))
		}
	}
	return cmds
}
