package publisher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/classifier"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/changelog"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/manifest"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/vcs"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/vcs/vcstest"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/version"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	manifestPath  = "package.json"
	changelogPath = "docs/CHANGELOG.md"
	baseChangelog = "# Changelog\n\n## [1.2.3] - 2024-01-01\n\n### Patch Changes\nEarlier\n"
	baseManifest  = `{
  "name": "site",
  "version": "1.2.3",
  "private": true,
  "dependencies": {
    "react": "18.2.0"
  },
  "devDependencies": {
    "vitest": "1.0.0"
  }
}
`
	changedDepsManifest = `{
  "name": "site",
  "version": "1.2.3",
  "private": true,
  "dependencies": {
    "react": "18.2.0",
    "zod": "3.22.0"
  },
  "devDependencies": {
    "vitest": "1.0.0"
  }
}
`
)

var releaseDay = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// recordingFS journals writes into the fake backend so the order of file and
// VCS side effects can be asserted together.
type recordingFS struct {
	fileops.FileSystem
	journal   *vcstest.Fake
	failWrite map[string]error
}

func (r *recordingFS) Write(ctx context.Context, path string, data []byte) error {
	if err := r.failWrite[path]; err != nil {
		return err
	}
	r.journal.Record("write " + path)
	return r.FileSystem.Write(ctx, path, data)
}

func (r *recordingFS) EnsureDirectory(ctx context.Context, path string) error {
	r.journal.Record("mkdir " + path)
	return r.FileSystem.EnsureDirectory(ctx, path)
}

type fixture struct {
	t    *testing.T
	dir  string
	fake *vcstest.Fake
	fs   *recordingFS
	pub  *Publisher
}

// newFixture lays out a repository whose working manifest is working and
// whose committed manifest at HEAD is head.
func newFixture(t *testing.T, working, head string, subjects ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestPath), []byte(working), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, changelogPath), []byte(baseChangelog), 0o644))

	fake := vcstest.New().WithFile("HEAD", manifestPath, []byte(head)).WithSubjects(subjects...)
	fake.LatestTag = "v1.2.3"
	fake.Since = fake.Log

	fs := &recordingFS{
		FileSystem: fileops.NewFileSystemOperations(dir, zaptest.NewLogger(t)),
		journal:    fake,
		failWrite:  map[string]error{},
	}
	return &fixture{
		t:    t,
		dir:  dir,
		fake: fake,
		fs:   fs,
		pub: &Publisher{
			Backend:       fake,
			FS:            fs,
			Remote:        "origin",
			ManifestPath:  manifestPath,
			ChangelogPath: changelogPath,
			Now:           func() time.Time { return releaseDay },
		},
	}
}

func (f *fixture) read(path string) string {
	f.t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, path))
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) manifestVersion() string {
	f.t.Helper()
	m, err := manifest.Parse(manifestPath, []byte(f.read(manifestPath)))
	require.NoError(f.t, err)
	return m.Version
}

func fullSequence(v string) []string {
	return []string{
		"write " + manifestPath,
		"stage " + manifestPath,
		"commit chore: bump version to " + v,
		"tag v" + v,
		"write " + changelogPath,
		"push origin branch+tags",
	}
}

func forced(m version.Magnitude) *version.Magnitude { return &m }

func TestRelease_Scenario1_DependencyChangeIsMajor(t *testing.T) {
	f := newFixture(t, changedDepsManifest, baseManifest, "docs: readme")

	res, err := f.pub.Release(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, version.Major, res.Decision.Magnitude)
	assert.Equal(t, "2.0.0", res.Next.String())
	assert.Equal(t, "v2.0.0", res.Tag)
	assert.Equal(t, fullSequence("2.0.0"), f.fake.Journal())
	assert.Equal(t, "2.0.0", f.manifestVersion())
	assert.Contains(t, f.read(manifestPath), `"zod": "3.22.0"`)
	assert.Equal(t, res.Message, f.fake.Tags["v2.0.0"])
	assert.Equal(t, []vcstest.PushCall{{Remote: "origin", Opts: vcs.PushOptions{CurrentBranch: true, Tags: true}}}, f.fake.Pushes)

	log := f.read(changelogPath)
	assert.Contains(t, log, "### Dependency Updates\n- Added: zod 3.22.0\n")
	assert.Equal(t, []string{"2.0.0", "1.2.3"}, changelog.Parse(log).Versions())
}

func TestRelease_Scenario2_NoEvidenceIsPatch(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "docs: readme", "chore: tidy")

	res, err := f.pub.Release(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, classifier.ReasonDefault, res.Decision.Reason)
	assert.Equal(t, "1.2.4", f.manifestVersion())
	assert.Equal(t, fullSequence("1.2.4"), f.fake.Journal())
	assert.Equal(t, "Recent changes: docs: readme, chore: tidy", res.Message)
}

func TestRelease_Scenario3_FeatureIsMinor(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "feat: dark mode", "docs: readme")

	res, err := f.pub.Release(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "1.3.0", res.Next.String())
	assert.Equal(t, "1.3.0", f.manifestVersion())
	assert.Contains(t, f.read(changelogPath), "### New Features\n- feat: dark mode\n")
}

func TestRelease_Scenario4_ForcedPatchIgnoresEvidence(t *testing.T) {
	f := newFixture(t, changedDepsManifest, baseManifest, "fix: crash", "feat: thing")

	res, err := f.pub.Release(context.Background(), Options{Forced: forced(version.Patch)})
	require.NoError(t, err)

	assert.Equal(t, classifier.ReasonForced, res.Decision.Reason)
	assert.Equal(t, "1.2.4", f.manifestVersion())
	assert.True(t, res.Evidence.DependencyChanged)
}

func TestPreRelease_Scenario5_TagsCurrentVersionOnly(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "feat: dark mode")

	res, err := f.pub.PreRelease(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3-beta.1", res.Tag)
	assert.Equal(t, "Pre-release 1.2.3", f.fake.Tags["v1.2.3-beta.1"])
	assert.Equal(t, []string{"tag v1.2.3-beta.1", "push origin tags"}, f.fake.Journal())
	assert.Equal(t, baseManifest, f.read(manifestPath))
	assert.Equal(t, baseChangelog, f.read(changelogPath))
	assert.Equal(t, []Step{StepTag, StepPush}, res.Completed)
}

func TestRelease_Scenario6_PushFailureLeavesLocalState(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "docs: readme")
	f.fake.Fail[vcstest.OpPush] = errors.New("remote rejected")

	res, err := f.pub.Release(context.Background(), Options{})
	require.Error(t, err)

	assert.ErrorIs(t, err, rel_err.ErrVcsOperationFailed)
	var vErr *rel_err.VcsOperationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "push", vErr.Step)
	assert.NotEqual(t, rel_err.ExitOK, rel_err.ExitCode(err))

	assert.Equal(t, fullSequence("1.2.4")[:5], f.fake.Journal())
	assert.Contains(t, f.fake.Tags, "v1.2.4")
	assert.Equal(t, "chore: bump version to 1.2.4", f.fake.Log[0].Subject)
	assert.Equal(t, "1.2.4", f.manifestVersion())
	assert.Equal(t, []Step{StepWriteManifest, StepStage, StepCommit, StepTag, StepWriteChangelog}, res.Completed)
	assert.Contains(t, cerr.FlattenHints(err), "git push origin HEAD --tags")
}

func TestRelease_MalformedVersionAbortsBeforeMutation(t *testing.T) {
	bad := `{"name":"site","version":"1.2"}`
	f := newFixture(t, bad, bad, "fix: x")

	_, err := f.pub.Release(context.Background(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, rel_err.ErrMalformedVersion)
	assert.Equal(t, rel_err.ExitValidation, rel_err.ExitCode(err))
	assert.Empty(t, f.fake.Journal())
	assert.Equal(t, bad, f.read(manifestPath))
}

func TestRelease_StepFailuresStopTheRun(t *testing.T) {
	tests := []struct {
		op       string
		step     string
		journal  int
		complete []Step
	}{
		{vcstest.OpStage, "stage", 1, []Step{StepWriteManifest}},
		{vcstest.OpCommit, "commit", 2, []Step{StepWriteManifest, StepStage}},
		{vcstest.OpTag, "tag", 3, []Step{StepWriteManifest, StepStage, StepCommit}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			f := newFixture(t, baseManifest, baseManifest, "docs: readme")
			f.fake.Fail[tt.op] = errors.New("backend said no")

			res, err := f.pub.Release(context.Background(), Options{})
			var vErr *rel_err.VcsOperationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.step, vErr.Step)
			assert.Equal(t, fullSequence("1.2.4")[:tt.journal], f.fake.Journal())
			assert.Equal(t, tt.complete, res.Completed)
			assert.Equal(t, baseChangelog, f.read(changelogPath))
		})
	}
}

func TestRelease_ManifestWriteFailure(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest)
	f.fs.failWrite[manifestPath] = errors.New("read-only file system")

	_, err := f.pub.Release(context.Background(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, rel_err.ErrManifestWriteFailed)
	assert.Empty(t, f.fake.Journal())
}

func TestRelease_ChangelogWriteFailureStopsBeforePush(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "docs: readme")
	f.fs.failWrite[changelogPath] = errors.New("disk full")

	res, err := f.pub.Release(context.Background(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, rel_err.ErrChangelogWriteFailed)
	assert.NotErrorIs(t, err, rel_err.ErrVcsOperationFailed)
	assert.Equal(t, fullSequence("1.2.4")[:4], f.fake.Journal())
	assert.Empty(t, f.fake.Pushes)
	assert.Equal(t, []Step{StepWriteManifest, StepStage, StepCommit, StepTag}, res.Completed)
	assert.Contains(t, cerr.FlattenHints(err), "git push origin HEAD --tags")
}

func TestRelease_MissingChangelogIsCreated(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "docs: readme")
	require.NoError(t, os.RemoveAll(filepath.Join(f.dir, "docs")))

	_, err := f.pub.Release(context.Background(), Options{})
	require.NoError(t, err)

	assert.Contains(t, f.fake.Journal(), "mkdir docs")
	log := f.read(changelogPath)
	assert.Equal(t, changelog.DefaultHeading+"\n## [1.2.4] - 2024-03-01\n", log[:len(changelog.DefaultHeading)+len("\n## [1.2.4] - 2024-03-01\n")])
}

func TestRelease_MessageOverridesHeadlineAndTag(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "docs: readme")

	res, err := f.pub.Release(context.Background(), Options{Message: "Spring release"})
	require.NoError(t, err)
	assert.Equal(t, "Spring release", res.Message)
	assert.Equal(t, "Spring release", f.fake.Tags["v1.2.4"])
	assert.Contains(t, f.read(changelogPath), "### Patch Changes\nSpring release\n")
}

func TestRelease_DryRunHasNoSideEffects(t *testing.T) {
	f := newFixture(t, changedDepsManifest, baseManifest, "fix: crash")
	f.pub.DryRun = true

	res, err := f.pub.Release(context.Background(), Options{})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, "2.0.0", res.Next.String())
	assert.Contains(t, res.Changelog, "## [2.0.0] - 2024-03-01")
	assert.Empty(t, f.fake.Journal())
	assert.Empty(t, res.Completed)
	assert.Equal(t, changedDepsManifest, f.read(manifestPath))
	assert.Equal(t, baseChangelog, f.read(changelogPath))
}

func TestRelease_DegradedProbesStillPublish(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "docs: readme")
	f.fake.Fail[vcstest.OpRead] = errors.New("fatal: bad revision 'HEAD'")

	res, err := f.pub.Release(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], rel_err.ErrEvidenceProbeFailed)
	assert.Equal(t, "1.2.4", res.Next.String())
}

func TestRelease_ConsecutiveReleasesStackEntries(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest, "docs: readme")

	_, err := f.pub.Release(context.Background(), Options{})
	require.NoError(t, err)
	// The committed manifest now matches the working tree.
	f.fake.WithFile("HEAD", manifestPath, []byte(f.read(manifestPath)))
	_, err = f.pub.Release(context.Background(), Options{Forced: forced(version.Patch)})
	require.NoError(t, err)

	log := f.read(changelogPath)
	assert.Equal(t, []string{"1.2.5", "1.2.4", "1.2.3"}, changelog.Parse(log).Versions())
	assert.Contains(t, log, baseChangelog[len("# Changelog\n"):])
}

func TestPreRelease_DuplicateTagIsVcsFailure(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest)

	_, err := f.pub.PreRelease(context.Background(), "first")
	require.NoError(t, err)

	_, err = f.pub.PreRelease(context.Background(), "again")
	var vErr *rel_err.VcsOperationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "tag", vErr.Step)
	assert.Equal(t, "first", f.fake.Tags["v1.2.3-beta.1"])
}

func TestPreRelease_PushFailure(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest)
	f.fake.Fail[vcstest.OpPush] = errors.New("offline")

	res, err := f.pub.PreRelease(context.Background(), "Beta")
	var vErr *rel_err.VcsOperationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "push", vErr.Step)
	assert.Equal(t, []Step{StepTag}, res.Completed)
	assert.Equal(t, "Beta", f.fake.Tags["v1.2.3-beta.1"])
}

func TestPreRelease_DryRun(t *testing.T) {
	f := newFixture(t, baseManifest, baseManifest)
	f.pub.DryRun = true

	res, err := f.pub.PreRelease(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3-beta.1", res.Tag)
	assert.Empty(t, f.fake.Journal())
}
