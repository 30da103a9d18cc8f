package temp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/toolup/internal/notify"
)

func TestNewFileAndDirectory(t *testing.T) {
	rec := &notify.Recorder{}
	ctx := New(filepath.Join(t.TempDir(), "tmp"), rec.Handle)

	f1, err := ctx.NewFile(".tar.gz")
	require.NoError(t, err)
	f2, err := ctx.NewFile(".tar.gz")
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)
	assert.True(t, strings.HasSuffix(f1, ".tar.gz"))
	assert.FileExists(t, f1)

	d, err := ctx.NewDirectory()
	require.NoError(t, err)
	assert.DirExists(t, d)

	assert.Equal(t, 1, rec.Count(notify.CreatingDirectory), "root is created once")
}

func TestRemoveAndClean(t *testing.T) {
	ctx := New(t.TempDir(), nil)

	f, err := ctx.NewFile("")
	require.NoError(t, err)
	ctx.Remove(f)
	assert.NoFileExists(t, f)

	_, err = ctx.NewDirectory()
	require.NoError(t, err)
	_, err = ctx.NewFile(".toml")
	require.NoError(t, err)

	require.NoError(t, ctx.Clean())
	entries, err := os.ReadDir(ctx.Root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanMissingRoot(t *testing.T) {
	ctx := New(filepath.Join(t.TempDir(), "missing"), nil)
	assert.NoError(t, ctx.Clean())
}
