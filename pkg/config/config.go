// pkg/config/config.go

// Package config loads the release configuration record from defaults, the
// repository's .releasectl.yaml, RELEASECTL_* environment variables (an
// optional .env file included) and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/evidence"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/versionlog"
	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "RELEASECTL"
	FileName  = ".releasectl.yaml"
	DotEnv    = ".env"
)

// Keys, shared by the config file, environment and flags.
const (
	KeyRepo            = "repo"
	KeyRemote          = "remote"
	KeyManifest        = "manifest"
	KeyChangelog       = "changelog"
	KeyBackend         = "backend"
	KeyWindow          = "window"
	KeyHeadlineCommits = "headline-commits"
	KeyDryRun          = "dry-run"
	KeyVersionLog      = "version-log"
)

// Backends.
const (
	BackendGit    = "git"
	BackendNative = "native"
)

// Defaults.
const (
	DefaultRepo      = "."
	DefaultRemote    = "origin"
	DefaultManifest  = "package.json"
	DefaultChangelog = "docs/CHANGELOG.md"
)

// Config is the resolved configuration of one run.
type Config struct {
	RepositoryRoot  string
	RemoteName      string
	ManifestPath    string
	ChangelogPath   string
	Backend         string
	CommitWindow    int
	HeadlineCommits int
	DryRun          bool
	VersionLogPath  string

	// Source is the config file that was read, if any.
	Source string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every key's default.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRepo, DefaultRepo)
	v.SetDefault(KeyRemote, DefaultRemote)
	v.SetDefault(KeyManifest, DefaultManifest)
	v.SetDefault(KeyChangelog, DefaultChangelog)
	v.SetDefault(KeyBackend, BackendGit)
	v.SetDefault(KeyWindow, evidence.DefaultWindow)
	v.SetDefault(KeyHeadlineCommits, evidence.DefaultHeadlineCommits)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyVersionLog, versionlog.DefaultPath)
}

// Load resolves the configuration. The repository root is read first so
// that its .env and .releasectl.yaml can contribute to everything else.
func Load(v *viper.Viper) (*Config, error) {
	root := v.GetString(KeyRepo)

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(filepath.Join(root, DotEnv)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, cerr.Wrapf(err, "load %s", filepath.Join(root, DotEnv))
	}
	root = v.GetString(KeyRepo)

	cfg := &Config{}
	file := filepath.Join(root, FileName)
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, cerr.Wrapf(err, "read %s", file)
		}
		cfg.Source = file
	}

	cfg.RepositoryRoot = root
	cfg.RemoteName = v.GetString(KeyRemote)
	cfg.ManifestPath = v.GetString(KeyManifest)
	cfg.ChangelogPath = v.GetString(KeyChangelog)
	cfg.Backend = strings.ToLower(v.GetString(KeyBackend))
	cfg.CommitWindow = v.GetInt(KeyWindow)
	cfg.HeadlineCommits = v.GetInt(KeyHeadlineCommits)
	cfg.DryRun = v.GetBool(KeyDryRun)
	cfg.VersionLogPath = v.GetString(KeyVersionLog)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	info, err := os.Stat(c.RepositoryRoot)
	switch {
	case err != nil:
		result = multierror.Append(result, fmt.Errorf("%s: repository root %q: %w", KeyRepo, c.RepositoryRoot, err))
	case !info.IsDir():
		result = multierror.Append(result, fmt.Errorf("%s: repository root %q is not a directory", KeyRepo, c.RepositoryRoot))
	}

	if strings.TrimSpace(c.RemoteName) == "" {
		result = multierror.Append(result, fmt.Errorf("%s: must not be empty", KeyRemote))
	}
	if c.Backend != BackendGit && c.Backend != BackendNative {
		result = multierror.Append(result, fmt.Errorf("%s: %q is not one of %s, %s", KeyBackend, c.Backend, BackendGit, BackendNative))
	}
	if c.CommitWindow < 1 {
		result = multierror.Append(result, fmt.Errorf("%s: must be at least 1, got %d", KeyWindow, c.CommitWindow))
	}
	if c.HeadlineCommits < 1 {
		result = multierror.Append(result, fmt.Errorf("%s: must be at least 1, got %d", KeyHeadlineCommits, c.HeadlineCommits))
	}

	for _, p := range []struct{ key, path string }{
		{KeyManifest, c.ManifestPath},
		{KeyChangelog, c.ChangelogPath},
		{KeyVersionLog, c.VersionLogPath},
	} {
		if !fileops.Within(p.path) {
			result = multierror.Append(result, fmt.Errorf("%s: %q must be a relative path inside the repository", p.key, p.path))
		}
	}

	return result.ErrorOrNil()
}
