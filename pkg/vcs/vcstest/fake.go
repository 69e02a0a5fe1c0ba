// Package vcstest provides an in-memory vcs.Backend for tests.
package vcstest

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/vcs"
)

// Operation names used as keys of Fake.Fail.
const (
	OpRead     = "read"
	OpSubjects = "subjects"
	OpGrep     = "grep"
	OpSince    = "since"
	OpDescribe = "describe"
	OpStage    = "stage"
	OpCommit   = "commit"
	OpTag      = "tag"
	OpPush     = "push"
)

// Fake records every mutating call and answers queries from its fields.
type Fake struct {
	mu sync.Mutex

	// Files maps revision then path to content.
	Files map[string]map[string][]byte
	// Log is HEAD's history, newest first.
	Log []vcs.Commit
	// LatestTag is what MostRecentTag reports.
	LatestTag string
	// Since is what CommitsSince returns for LatestTag. When nil the whole Log is returned.
	Since []vcs.Commit
	// Fail makes the named operation return the error.
	Fail map[string]error

	// Calls is the ordered journal of mutating calls.
	Calls []string
	// Tags holds created tags and their messages.
	Tags map[string]string
	// Pushes holds every successful push.
	Pushes []PushCall
}

// PushCall is one recorded push.
type PushCall struct {
	Remote string
	Opts   vcs.PushOptions
}

var _ vcs.Backend = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Files: map[string]map[string][]byte{},
		Fail:  map[string]error{},
		Tags:  map[string]string{},
	}
}

// WithFile stores content for path at revision.
func (f *Fake) WithFile(revision, path string, content []byte) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Files[revision] == nil {
		f.Files[revision] = map[string][]byte{}
	}
	f.Files[revision][path] = content
	return f
}

// WithSubjects prepends commits with the given subjects, first argument newest.
func (f *Fake) WithSubjects(subjects ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	var commits []vcs.Commit
	for i, s := range subjects {
		commits = append(commits, vcs.Commit{
			ShortHash: fmt.Sprintf("%07x", len(f.Log)+len(subjects)-i),
			Subject:   s,
			Author:    "Test Author",
		})
	}
	f.Log = append(commits, f.Log...)
	return f
}

// Record appends an entry to the call journal. Test doubles for other
// capabilities use it to interleave their calls with the backend's.
func (f *Fake) Record(entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, entry)
}

// Journal returns a copy of the call journal.
func (f *Fake) Journal() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

func (f *Fake) fail(op string) error {
	if err, ok := f.Fail[op]; ok {
		return err
	}
	return nil
}

func (f *Fake) ReadFileAtRevision(ctx context.Context, path, revision string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpRead); err != nil {
		return nil, err
	}
	files, ok := f.Files[revision]
	if !ok {
		return nil, fmt.Errorf("%w: revision %s", vcs.ErrNotFound, revision)
	}
	data, ok := files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", vcs.ErrNotFound, revision, path)
	}
	return append([]byte(nil), data...), nil
}

func (f *Fake) RecentCommitSubjects(ctx context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpSubjects); err != nil {
		return nil, err
	}
	var out []string
	for _, c := range f.Log {
		if len(out) >= limit {
			break
		}
		out = append(out, c.Subject)
	}
	return out, nil
}

func (f *Fake) CommitsMatching(ctx context.Context, pattern string, limit int) ([]vcs.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpGrep); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(pattern))
	}
	var out []vcs.Commit
	for _, c := range f.Log {
		if len(out) >= limit {
			break
		}
		if re.MatchString(c.Subject) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Fake) CommitsSince(ctx context.Context, tag string) ([]vcs.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpSince); err != nil {
		return nil, err
	}
	if f.Since != nil && tag == f.LatestTag {
		return append([]vcs.Commit(nil), f.Since...), nil
	}
	return append([]vcs.Commit(nil), f.Log...), nil
}

func (f *Fake) MostRecentTag(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpDescribe); err != nil {
		return "", err
	}
	return f.LatestTag, nil
}

func (f *Fake) Stage(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpStage); err != nil {
		return err
	}
	f.Calls = append(f.Calls, "stage "+path)
	return nil
}

func (f *Fake) Commit(ctx context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpCommit); err != nil {
		return err
	}
	f.Calls = append(f.Calls, "commit "+message)
	f.Log = append([]vcs.Commit{{
		ShortHash: fmt.Sprintf("%07x", len(f.Log)+1),
		Subject:   vcs.Subject(message),
		Author:    "Test Author",
	}}, f.Log...)
	return nil
}

func (f *Fake) Tag(ctx context.Context, name, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpTag); err != nil {
		return err
	}
	if _, exists := f.Tags[name]; exists {
		return fmt.Errorf("tag %s already exists", name)
	}
	f.Tags[name] = message
	f.Calls = append(f.Calls, "tag "+name)
	return nil
}

func (f *Fake) Push(ctx context.Context, remote string, opts vcs.PushOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(OpPush); err != nil {
		return err
	}
	var what []string
	if opts.CurrentBranch {
		what = append(what, "branch")
	}
	if opts.Tags {
		what = append(what, "tags")
	}
	f.Calls = append(f.Calls, "push "+remote+" "+strings.Join(what, "+"))
	f.Pushes = append(f.Pushes, PushCall{Remote: remote, Opts: opts})
	return nil
}
