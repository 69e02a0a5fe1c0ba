// pkg/rel_err/util.go

package rel_err

import (
	"errors"
	"fmt"
	"io"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Exit codes returned by the CLI.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
)

// NewExpectedError wraps an error for softer UX handling.
func NewExpectedError(err error) error {
	if err == nil {
		return nil
	}
	return &UserError{cause: err}
}

// IsExpectedUserError checks if the error is marked as expected.
func IsExpectedUserError(err error) bool {
	var e *UserError
	return errors.As(err, &e)
}

// ExitCode maps an error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrMalformedVersion) || IsExpectedUserError(err) {
		return ExitValidation
	}
	return ExitFailure
}

// NewVcsError wraps a backend failure for the given publication step and
// attaches a hint describing how to finish by hand.
func NewVcsError(step string, cause error, remaining ...string) error {
	return WithResumeHint(&VcsOperationError{Step: step, Cause: cause}, remaining...)
}

// WithResumeHint attaches the steps still to be done by hand, one per line.
func WithResumeHint(err error, remaining ...string) error {
	if err == nil || len(remaining) == 0 {
		return err
	}
	return cerr.WithHint(err, "to finish the release manually:\n  "+strings.Join(remaining, "\n  "))
}

// PrintError writes a prefixed diagnostic, and any hints, to w.
func PrintError(w io.Writer, prog string, err error) {
	if err == nil {
		return
	}
	if IsExpectedUserError(err) {
		zap.L().Warn("Command finished with user error", zap.Error(err))
		fmt.Fprintf(w, "%s: %v\n", prog, err)
	} else {
		zap.L().Error("Command failed", zap.Error(err))
		fmt.Fprintf(w, "%s: error: %v\n", prog, err)
	}
	for _, hint := range cerr.GetAllHints(err) {
		fmt.Fprintf(w, "%s: hint: %s\n", prog, hint)
	}
}
