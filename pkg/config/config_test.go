package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.Set(KeyRepo, dir)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		RepositoryRoot:  dir,
		RemoteName:      DefaultRemote,
		ManifestPath:    DefaultManifest,
		ChangelogPath:   DefaultChangelog,
		Backend:         BackendGit,
		CommitWindow:    10,
		HeadlineCommits: 5,
		VersionLogPath:  "logs/versioning.md",
	}, cfg)
}

func TestLoad_FileThenEnvThenExplicit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(
		"remote: upstream\nmanifest: release.yaml\nwindow: 20\nbackend: native\n"), 0o644))

	t.Setenv("RELEASECTL_WINDOW", "30")
	t.Setenv("RELEASECTL_HEADLINE_COMMITS", "3")

	v := New()
	v.Set(KeyRepo, dir)
	v.Set(KeyBackend, "git")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Source)
	assert.Equal(t, "upstream", cfg.RemoteName)
	assert.Equal(t, "release.yaml", cfg.ManifestPath)
	assert.Equal(t, 30, cfg.CommitWindow, "environment outranks the config file")
	assert.Equal(t, 3, cfg.HeadlineCommits)
	assert.Equal(t, BackendGit, cfg.Backend, "explicit values outrank everything")
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnv), []byte(
		"RELEASECTL_REMOTE=fromdotenv\nRELEASECTL_CHANGELOG=CHANGES.md\n"), 0o644))
	t.Setenv("RELEASECTL_REMOTE", "fromshell")
	// Registered with t.Setenv so the value godotenv sets is cleaned up.
	t.Setenv("RELEASECTL_CHANGELOG", "")
	require.NoError(t, os.Unsetenv("RELEASECTL_CHANGELOG"))

	v := New()
	v.Set(KeyRepo, dir)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "fromshell", cfg.RemoteName)
	assert.Equal(t, "CHANGES.md", cfg.ChangelogPath)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	cfg := &Config{
		RepositoryRoot:  file,
		RemoteName:      " ",
		ManifestPath:    "../package.json",
		ChangelogPath:   "/etc/CHANGELOG.md",
		Backend:         "svn",
		CommitWindow:    0,
		HeadlineCommits: -1,
		VersionLogPath:  "logs/versioning.md",
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"not a directory", KeyRemote, KeyBackend, KeyWindow, KeyHeadlineCommits, KeyManifest, KeyChangelog} {
		assert.Contains(t, err.Error(), want)
	}
	assert.NotContains(t, err.Error(), KeyVersionLog)
}

func TestValidate_MissingRoot(t *testing.T) {
	cfg := &Config{
		RepositoryRoot:  filepath.Join(t.TempDir(), "nope"),
		RemoteName:      DefaultRemote,
		ManifestPath:    DefaultManifest,
		ChangelogPath:   DefaultChangelog,
		Backend:         BackendNative,
		CommitWindow:    1,
		HeadlineCommits: 1,
		VersionLogPath:  "logs/versioning.md",
	}
	assert.ErrorContains(t, cfg.Validate(), "repository root")
}
