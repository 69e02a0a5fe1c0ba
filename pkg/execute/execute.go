// pkg/execute/execute.go

package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Options describes one subprocess invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	Logger  *zap.Logger
}

// CommandError is a subprocess that could not start or exited non-zero.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, ExtractSummary(e.Stderr, 2))
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Run executes a command and returns its standard output. Standard error is
// captured separately and attached to the returned *CommandError. There is
// no timeout; cancellation comes only from ctx.
func Run(ctx context.Context, opts Options) (string, error) {
	cmdStr := buildCommandString(opts.Command, opts.Args...)

	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := telemetry.Start(ctx, "execute.Run",
		attribute.String("command", opts.Command),
		attribute.String("args", strings.Join(opts.Args, " ")),
	)
	defer span.End()

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Starting execution", zap.String("command", cmdStr), zap.String("dir", opts.Dir))

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Command:  cmdStr,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		span.RecordError(cmdErr)
		logger.Debug("Execution failed",
			zap.String("command", cmdStr),
			zap.Int("exit_code", cmdErr.ExitCode),
			zap.String("summary", ExtractSummary(cmdErr.Stderr, 2)))
		return stdout.String(), cmdErr
	}

	logger.Debug("Execution succeeded", zap.String("command", cmdStr), zap.Int("stdout_bytes", stdout.Len()))
	return stdout.String(), nil
}
