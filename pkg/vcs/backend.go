// Package vcs is the version-control capability the release pipeline queries
// and publishes through. Two backends are provided: GitCLI shells out to the
// git binary, Native drives the repository in-process with go-git.
package vcs

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a file or revision does not exist.
var ErrNotFound = errors.New("not found")

// Commit is one entry of a history query.
type Commit struct {
	ShortHash string
	Subject   string
	Author    string
}

// PushOptions selects what Push sends to the remote.
type PushOptions struct {
	CurrentBranch bool
	Tags          bool
}

// Backend is the version-control capability consumed by evidence collection
// and the publisher. History queries return newest first. Paths are relative
// to the repository root.
type Backend interface {
	ReadFileAtRevision(ctx context.Context, path, revision string) ([]byte, error)
	RecentCommitSubjects(ctx context.Context, limit int) ([]string, error)
	CommitsMatching(ctx context.Context, pattern string, limit int) ([]Commit, error)
	// CommitsSince lists commits after tag up to HEAD; an empty tag means all of HEAD's history.
	CommitsSince(ctx context.Context, tag string) ([]Commit, error)
	// MostRecentTag returns "" when no tag is reachable from HEAD.
	MostRecentTag(ctx context.Context) (string, error)

	Stage(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
	Tag(ctx context.Context, name, message string) error
	Push(ctx context.Context, remote string, opts PushOptions) error
}

// Subject returns the first line of a commit message.
func Subject(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = message[:i]
	}
	return strings.TrimSpace(message)
}

const shortHashLen = 7

func shortHash(full string) string {
	if len(full) > shortHashLen {
		return full[:shortHashLen]
	}
	return full
}
