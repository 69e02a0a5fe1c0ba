// pkg/vcs/gitcli.go
//
// Git backend that shells out to the git binary, one process per query.

package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/execute"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const fieldSep = "\x1f"

// GitCLI runs `git -C RepoDir ...`.
type GitCLI struct {
	RepoDir string
	logger  *zap.Logger
}

// NewGitCLI returns a backend for the repository at repoDir.
func NewGitCLI(repoDir string, logger *zap.Logger) *GitCLI {
	return &GitCLI{RepoDir: repoDir, logger: logger.Named("git")}
}

func (g *GitCLI) run(ctx context.Context, args ...string) (string, error) {
	return execute.Run(ctx, execute.Options{
		Command: "git",
		Args:    append([]string{"-C", g.RepoDir}, args...),
		Logger:  g.logger,
	})
}

// ReadFileAtRevision runs `git show REV:path`.
func (g *GitCLI) ReadFileAtRevision(ctx context.Context, path, revision string) ([]byte, error) {
	// "./" resolves path against RepoDir rather than the top of the worktree.
	spec := revision + ":./" + filepath.ToSlash(filepath.Clean(path))
	out, err := g.run(ctx, "show", spec)
	if err != nil {
		if isMissingObject(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, spec)
		}
		return nil, fmt.Errorf("git show %s: %w", spec, err)
	}
	return []byte(out), nil
}

func isMissingObject(err error) bool {
	var cmdErr *execute.CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	for _, marker := range []string{
		"does not exist in",
		"exists on disk, but not in",
		"invalid object name",
		"bad revision",
		"unknown revision",
	} {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// RecentCommitSubjects runs `git log -n N --pretty=format:%s`.
func (g *GitCLI) RecentCommitSubjects(ctx context.Context, limit int) ([]string, error) {
	out, err := g.run(ctx, "log", "-n", strconv.Itoa(limit), "--pretty=format:%s")
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	return splitLines(out), nil
}

// CommitsMatching runs `git log -n N --grep=PATTERN`.
func (g *GitCLI) CommitsMatching(ctx context.Context, pattern string, limit int) ([]Commit, error) {
	out, err := g.run(ctx, "log", "-n", strconv.Itoa(limit), "--grep="+pattern, commitFormat)
	if err != nil {
		return nil, fmt.Errorf("git log --grep=%s: %w", pattern, err)
	}
	return parseCommits(out), nil
}

// CommitsSince runs `git log TAG..HEAD`.
func (g *GitCLI) CommitsSince(ctx context.Context, tag string) ([]Commit, error) {
	rangeSpec := "HEAD"
	if tag != "" {
		rangeSpec = tag + "..HEAD"
	}
	out, err := g.run(ctx, "log", rangeSpec, commitFormat)
	if err != nil {
		return nil, fmt.Errorf("git log %s: %w", rangeSpec, err)
	}
	return parseCommits(out), nil
}

// MostRecentTag runs `git describe --tags --abbrev=0`.
func (g *GitCLI) MostRecentTag(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "describe", "--tags", "--abbrev=0")
	if err != nil {
		var cmdErr *execute.CommandError
		if errors.As(err, &cmdErr) {
			stderr := strings.ToLower(cmdErr.Stderr)
			if strings.Contains(stderr, "no names found") || strings.Contains(stderr, "cannot describe") {
				return "", nil
			}
		}
		return "", fmt.Errorf("git describe: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Stage runs `git add -- path`.
func (g *GitCLI) Stage(ctx context.Context, path string) error {
	_, err := g.run(ctx, "add", "--", path)
	return err
}

// Commit runs `git commit -m message`.
func (g *GitCLI) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

// Tag creates an annotated tag at HEAD.
func (g *GitCLI) Tag(ctx context.Context, name, message string) error {
	_, err := g.run(ctx, "tag", "-a", name, "-m", message)
	return err
}

// Push sends the current branch and/or all tags to remote.
func (g *GitCLI) Push(ctx context.Context, remote string, opts PushOptions) error {
	args := []string{"push", remote}
	if opts.CurrentBranch {
		args = append(args, "HEAD")
	}
	if opts.Tags {
		args = append(args, "--tags")
	}

	otelzap.Ctx(ctx).Info("Pushing to remote",
		zap.String("remote", remote),
		zap.Bool("branch", opts.CurrentBranch),
		zap.Bool("tags", opts.Tags))

	_, err := g.run(ctx, args...)
	return err
}

const commitFormat = "--pretty=format:%h" + "%x1f" + "%s" + "%x1f" + "%an"

func parseCommits(out string) []Commit {
	var commits []Commit
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, fieldSep, 3)
		c := Commit{ShortHash: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			c.Subject = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			c.Author = strings.TrimSpace(parts[2])
		}
		commits = append(commits, c)
	}
	return commits
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return lines
}
