// pkg/versionlog/versionlog.go

// Package versionlog keeps a Markdown history of version snapshots: the
// manifest version, the toolchain that built it and its dependency sets.
// Newest snapshots come first.
package versionlog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/fileops"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/manifest"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/rel_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DefaultPath is where snapshots are written, relative to the repository root.
const DefaultPath = "logs/versioning.md"

// DefaultCommand labels a snapshot taken without a command name.
const DefaultCommand = "Manual Update"

// Snapshot is one entry of the version log.
type Snapshot struct {
	Version         string
	Toolchain       string
	Command         string
	Timestamp       time.Time
	Dependencies    map[string]string
	DevDependencies map[string]string
}

// Render formats the snapshot as a Markdown section.
func (s Snapshot) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n## Version %s - %s\n\n", s.Version, s.Timestamp.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "- Go Version: %s\n", s.Toolchain)
	fmt.Fprintf(&b, "- Command: %s\n", s.Command)
	fmt.Fprintf(&b, "- Timestamp: %s\n", s.Timestamp.UTC().Format(time.RFC3339))
	writeDeps(&b, "Dependencies", s.Dependencies)
	writeDeps(&b, "Dev Dependencies", s.DevDependencies)
	b.WriteString("\n---\n")
	return b.String()
}

func writeDeps(b *strings.Builder, title string, deps map[string]string) {
	fmt.Fprintf(b, "\n### %s\n", title)
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "- %s: %s\n", name, deps[name])
	}
}

// Recorder writes snapshots of one manifest into one log file.
type Recorder struct {
	FS           fileops.FileSystem
	ManifestPath string
	LogPath      string
	Now          func() time.Time
}

// Record takes a snapshot of the manifest and prepends it to the log.
func (r *Recorder) Record(ctx context.Context, command string) (*Snapshot, error) {
	data, err := r.FS.Read(ctx, r.ManifestPath)
	if err != nil {
		return nil, cerr.Wrapf(err, "read manifest %s", r.ManifestPath)
	}
	m, err := manifest.Parse(r.ManifestPath, data)
	if err != nil {
		return nil, err
	}

	if command == "" {
		command = DefaultCommand
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	snap := &Snapshot{
		Version:         m.Version,
		Toolchain:       runtime.Version(),
		Command:         command,
		Timestamp:       now(),
		Dependencies:    m.Dependencies,
		DevDependencies: m.DevDependencies,
	}

	path := r.LogPath
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := r.FS.EnsureDirectory(ctx, dir); err != nil {
			return nil, &rel_err.WriteError{Artifact: rel_err.ArtifactVersionLog, Path: path, Cause: err}
		}
	}

	existing, err := r.FS.Read(ctx, path)
	if err != nil && !errors.Is(err, fileops.ErrNotFound) {
		return nil, &rel_err.WriteError{Artifact: rel_err.ArtifactVersionLog, Path: path, Cause: err}
	}
	if err := r.FS.Write(ctx, path, append([]byte(snap.Render()), existing...)); err != nil {
		return nil, &rel_err.WriteError{Artifact: rel_err.ArtifactVersionLog, Path: path, Cause: err}
	}

	otelzap.Ctx(ctx).Info("Version snapshot recorded",
		zap.String("version", snap.Version),
		zap.String("command", snap.Command),
		zap.String("path", path))
	return snap, nil
}
