// pkg/fileops/fileops_test.go
package fileops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFileSystemOperations(t *testing.T) {
	root := t.TempDir()
	fileOps := NewFileSystemOperations(root, zaptest.NewLogger(t))
	ctx := context.Background()

	t.Run("Read", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"version":"1.0.0"}`), 0o644))

		data, err := fileOps.Read(ctx, "package.json")
		require.NoError(t, err)
		assert.Equal(t, `{"version":"1.0.0"}`, string(data))

		_, err = fileOps.Read(ctx, "missing.json")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("WriteKeepsMode", func(t *testing.T) {
		path := filepath.Join(root, "script.sh")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o755))

		require.NoError(t, fileOps.Write(ctx, "script.sh", []byte("new")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	})

	t.Run("WriteIntoMissingDirectoryFails", func(t *testing.T) {
		err := fileOps.Write(ctx, filepath.Join("docs", "CHANGELOG.md"), []byte("# Changelog\n"))
		assert.Error(t, err)
	})

	t.Run("EnsureDirectory", func(t *testing.T) {
		require.NoError(t, fileOps.EnsureDirectory(ctx, filepath.Join("logs", "nested")))
		info, err := os.Stat(filepath.Join(root, "logs", "nested"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		require.NoError(t, fileOps.Write(ctx, filepath.Join("logs", "nested", "x.md"), []byte("x")))
	})

	t.Run("AbsolutePathsBypassRoot", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "abs.txt")
		require.NoError(t, fileOps.Write(ctx, abs, []byte("abs")))
		assert.Equal(t, abs, fileOps.Resolve(abs))
	})
}

func TestWithin(t *testing.T) {
	t.Parallel()

	assert.True(t, Within("package.json"))
	assert.True(t, Within("docs/CHANGELOG.md"))
	assert.True(t, Within("docs/../package.json"))
	assert.False(t, Within("../package.json"))
	assert.False(t, Within(".."))
	assert.False(t, Within("/etc/passwd"))
	assert.False(t, Within(""))
}
