// pkg/rel_err/types.go

package rel_err

import (
	"errors"
	"fmt"
)

// Sentinels usable with errors.Is against the typed errors below.
var (
	ErrMalformedVersion     = errors.New("malformed version")
	ErrEvidenceProbeFailed  = errors.New("evidence probe failed")
	ErrVcsOperationFailed   = errors.New("vcs operation failed")
	ErrChangelogWriteFailed = errors.New("changelog write failed")
	ErrManifestWriteFailed  = errors.New("manifest write failed")
)

// MalformedVersionError is returned when a manifest version is not three
// dot-separated non-negative integers.
type MalformedVersionError struct {
	Value  string
	Reason string
}

func (e *MalformedVersionError) Error() string {
	return fmt.Sprintf("malformed version %q: %s", e.Value, e.Reason)
}

func (e *MalformedVersionError) Is(target error) bool {
	return target == ErrMalformedVersion
}

// ProbeError records a single evidence probe that could not reach its data
// source. It is logged and never aborts a run.
type ProbeError struct {
	Probe string
	Cause error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("evidence probe %s failed: %v", e.Probe, e.Cause)
}

func (e *ProbeError) Unwrap() error { return e.Cause }

func (e *ProbeError) Is(target error) bool {
	return target == ErrEvidenceProbeFailed
}

// VcsOperationError names the publication step that failed.
type VcsOperationError struct {
	Step  string
	Cause error
}

func (e *VcsOperationError) Error() string {
	return fmt.Sprintf("vcs operation %q failed: %v", e.Step, e.Cause)
}

func (e *VcsOperationError) Unwrap() error { return e.Cause }

func (e *VcsOperationError) Is(target error) bool {
	return target == ErrVcsOperationFailed
}

// Artifacts written by a run.
const (
	ArtifactManifest   = "manifest"
	ArtifactChangelog  = "changelog"
	ArtifactVersionLog = "version log"
)

// WriteError is a failed write of one of the durable artifacts.
type WriteError struct {
	Artifact string
	Path     string
	Cause    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s %s: %v", e.Artifact, e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

func (e *WriteError) Is(target error) bool {
	switch target {
	case ErrChangelogWriteFailed:
		return e.Artifact == ArtifactChangelog
	case ErrManifestWriteFailed:
		return e.Artifact == ArtifactManifest
	}
	return false
}

// UserError marks an error as expected and fixable by the user.
type UserError struct {
	cause error
}

func (e *UserError) Error() string {
	return e.cause.Error()
}

func (e *UserError) Unwrap() error {
	return e.cause
}
