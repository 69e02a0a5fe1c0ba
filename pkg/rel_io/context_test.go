package rel_io

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRuntimeContextLogsOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	rc := NewContext(context.Background(), "auto")
	require.NotEmpty(t, rc.RunID)
	assert.Equal(t, "auto", rc.Command)

	var err error
	rc.End(&err)

	err = errors.New("push rejected")
	rc.End(&err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Command completed", entries[0].Message)
	assert.Equal(t, "Command failed", entries[1].Message)
	assert.Equal(t, rc.RunID, entries[1].ContextMap()["run_id"])
}

func TestHandlePanicConvertsToError(t *testing.T) {
	rc := NewContext(context.Background(), "pre")

	run := func() (err error) {
		defer rc.HandlePanic(&err)
		panic("boom")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestClassifyError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", classifyError(nil))
	assert.Equal(t, "system", classifyError(errors.New("x")))
}
