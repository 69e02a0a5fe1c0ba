// pkg/vcs/native.go
//
// In-process git backend built on go-git. No git binary is required.

package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Native is a go-git backed repository.
type Native struct {
	repo *git.Repository
	// prefix locates the configured directory inside the worktree.
	prefix string

	// Signature overrides the author, committer and tagger. When nil the
	// repository's user.name and user.email configuration is used.
	Signature *object.Signature
}

// OpenNative opens the repository containing repoDir.
func OpenNative(repoDir string) (*Native, error) {
	repo, err := git.PlainOpenWithOptions(repoDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoDir, err)
	}
	n := &Native{repo: repo}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree of %s: %w", repoDir, err)
	}
	abs, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, err
	}
	top, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if rel, err := filepath.Rel(top, abs); err == nil && rel != "." {
		n.prefix = filepath.ToSlash(rel)
	}
	return n, nil
}

// worktreePath maps a path relative to the configured directory onto the worktree.
func (n *Native) worktreePath(path string) string {
	return filepath.ToSlash(filepath.Join(n.prefix, filepath.Clean(path)))
}

// NewNative wraps an already opened repository.
func NewNative(repo *git.Repository) *Native {
	return &Native{repo: repo}
}

// ReadFileAtRevision returns the file's contents in the given revision.
func (n *Native) ReadFileAtRevision(ctx context.Context, path, revision string) ([]byte, error) {
	hash, err := n.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%w: revision %s", ErrNotFound, revision)
		}
		return nil, fmt.Errorf("resolve %s: %w", revision, err)
	}

	commit, err := n.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}

	name := n.worktreePath(path)
	file, err := commit.File(name)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, revision, name)
		}
		return nil, fmt.Errorf("read %s:%s: %w", revision, name, err)
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s:%s: %w", revision, name, err)
	}
	return []byte(content), nil
}

func (n *Native) logFrom(hash plumbing.Hash) (object.CommitIter, error) {
	return n.repo.Log(&git.LogOptions{From: hash, Order: git.LogOrderCommitterTime})
}

func (n *Native) headLog() (object.CommitIter, error) {
	head, err := n.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	return n.logFrom(head.Hash())
}

// RecentCommitSubjects returns up to limit subjects reachable from HEAD.
func (n *Native) RecentCommitSubjects(ctx context.Context, limit int) ([]string, error) {
	iter, err := n.headLog()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var subjects []string
	err = iter.ForEach(func(c *object.Commit) error {
		if len(subjects) >= limit {
			return storer.ErrStop
		}
		subjects = append(subjects, Subject(c.Message))
		return nil
	})
	return subjects, err
}

// CommitsMatching returns up to limit commits whose message matches pattern,
// in the manner of `git log --grep`. An invalid regular expression is
// matched literally.
func (n *Native) CommitsMatching(ctx context.Context, pattern string, limit int) ([]Commit, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(pattern))
	}

	iter, err := n.headLog()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if len(commits) >= limit {
			return storer.ErrStop
		}
		if re.MatchString(c.Message) {
			commits = append(commits, toCommit(c))
		}
		return nil
	})
	return commits, err
}

// CommitsSince returns commits reachable from HEAD but not from tag.
func (n *Native) CommitsSince(ctx context.Context, tag string) ([]Commit, error) {
	exclude := map[plumbing.Hash]struct{}{}
	if tag != "" {
		target, err := n.peelTag(tag)
		if err != nil {
			return nil, err
		}
		iter, err := n.logFrom(target)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", tag, err)
		}
		err = iter.ForEach(func(c *object.Commit) error {
			exclude[c.Hash] = struct{}{}
			return nil
		})
		iter.Close()
		if err != nil {
			return nil, err
		}
	}

	iter, err := n.headLog()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if _, skip := exclude[c.Hash]; !skip {
			commits = append(commits, toCommit(c))
		}
		return nil
	})
	return commits, err
}

// MostRecentTag returns the tag on the nearest tagged ancestor of HEAD. When
// one commit carries several tags the highest version wins.
func (n *Native) MostRecentTag(ctx context.Context) (string, error) {
	tags, err := n.repo.Tags()
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}

	byCommit := map[plumbing.Hash][]string{}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		target, err := n.peelTag(name)
		if err != nil {
			return err
		}
		byCommit[target] = append(byCommit[target], name)
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(byCommit) == 0 {
		return "", nil
	}

	iter, err := n.headLog()
	if err != nil {
		return "", err
	}
	defer iter.Close()

	var found string
	err = iter.ForEach(func(c *object.Commit) error {
		if names, ok := byCommit[c.Hash]; ok {
			found = NewestTag(names)
			return storer.ErrStop
		}
		return nil
	})
	return found, err
}

// peelTag resolves a tag name to the commit it points at.
func (n *Native) peelTag(name string) (plumbing.Hash, error) {
	ref, err := n.repo.Tag(name)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("tag %s: %w", name, err)
	}

	obj, err := n.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		c, err := obj.Commit()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("tag %s does not point at a commit: %w", name, err)
		}
		return c.Hash, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		// Lightweight tag: the reference names the commit directly.
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, fmt.Errorf("tag %s: %w", name, err)
	}
}

// Stage adds path to the index.
func (n *Native) Stage(ctx context.Context, path string) error {
	wt, err := n.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if _, err := wt.Add(n.worktreePath(path)); err != nil {
		return fmt.Errorf("add %s: %w", path, err)
	}
	return nil
}

// Commit records the index as a new commit on HEAD.
func (n *Native) Commit(ctx context.Context, message string) error {
	wt, err := n.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author:    n.signature(),
		Committer: n.signature(),
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	otelzap.Ctx(ctx).Debug("Commit created", zap.String("hash", shortHash(hash.String())))
	return nil
}

// Tag creates an annotated tag at HEAD. An existing tag is an error.
func (n *Native) Tag(ctx context.Context, name, message string) error {
	head, err := n.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD: %w", err)
	}
	if _, err := n.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Message: message,
		Tagger:  n.signature(),
	}); err != nil {
		return fmt.Errorf("create tag %s: %w", name, err)
	}
	return nil
}

// Push sends the current branch and/or all tags to remote.
func (n *Native) Push(ctx context.Context, remote string, opts PushOptions) error {
	var specs []gitconfig.RefSpec
	if opts.CurrentBranch {
		head, err := n.repo.Head()
		if err != nil {
			return fmt.Errorf("resolve HEAD: %w", err)
		}
		if !head.Name().IsBranch() {
			return fmt.Errorf("HEAD is detached; no branch to push")
		}
		specs = append(specs, gitconfig.RefSpec(head.Name().String()+":"+head.Name().String()))
	}
	if opts.Tags {
		specs = append(specs, gitconfig.RefSpec("refs/tags/*:refs/tags/*"))
	}

	otelzap.Ctx(ctx).Info("Pushing to remote",
		zap.String("remote", remote),
		zap.Bool("branch", opts.CurrentBranch),
		zap.Bool("tags", opts.Tags))

	err := n.repo.PushContext(ctx, &git.PushOptions{RemoteName: remote, RefSpecs: specs})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push %s: %w", remote, err)
	}
	return nil
}

func (n *Native) signature() *object.Signature {
	if n.Signature == nil {
		return nil
	}
	sig := *n.Signature
	sig.When = time.Now()
	return &sig
}

func toCommit(c *object.Commit) Commit {
	return Commit{
		ShortHash: shortHash(c.Hash.String()),
		Subject:   Subject(c.Message),
		Author:    c.Author.Name,
	}
}
