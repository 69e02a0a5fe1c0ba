package execute

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunCapturesStdout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "echo hello; echo noise >&2"},
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestRunReportsExitCodeAndStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	_, err := Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "echo 'fatal: tag already exists' >&2; exit 128"},
		Dir:     t.TempDir(),
		Logger:  zaptest.NewLogger(t),
	})
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 128, cmdErr.ExitCode)
	assert.Equal(t, "fatal: tag already exists", cmdErr.Stderr)
	assert.Contains(t, err.Error(), "tag already exists")
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Options{Command: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, -1, cmdErr.ExitCode)
}

func TestExtractSummary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "  ", want: "no output"},
		{name: "first_line_fallback", in: "\nhint: something\nmore", want: "hint: something"},
		{name: "error_lines", in: "To origin\n ! [rejected] main -> main\nerror: failed to push some refs", want: "! [rejected] main -> main - error: failed to push some refs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractSummary(tt.in, 2))
		})
	}
}
