package component

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/toolup/internal/diskio"
	"github.com/adamancini/toolup/internal/mock"
	"github.com/adamancini/toolup/internal/temp"
	"github.com/adamancini/toolup/internal/transaction"
	"github.com/adamancini/toolup/internal/types"
)

func testInstaller() mock.InstallerBuilder {
	return mock.InstallerBuilder{Components: []mock.ComponentBuilder{
		{
			Name: "compiler-x86_64-unknown-linux-gnu",
			Files: []mock.File{
				{Path: "bin/compiler", Content: []byte("compiler"), Executable: true},
				{Path: "share/man/man1/compiler.1", Content: []byte("man page")},
			},
		},
		{
			Name: "docs",
			Files: []mock.File{
				{Path: "share/doc/index.html", Content: []byte("<html>")},
				{Path: "share/doc/api/a.html", Content: []byte("a")},
			},
			Dirs: []string{"share/doc"},
		},
	}}
}

type fixture struct {
	prefix string
	tmp    *temp.Context
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	return fixture{
		prefix: filepath.Join(root, "prefix"),
		tmp:    temp.New(filepath.Join(root, "tmp"), nil),
	}
}

func (f fixture) tarball(t *testing.T, c types.Compression) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "installer"+c.Extension())
	require.NoError(t, testInstaller().WriteTarballFile(file, "toolchain-nightly-x86_64-unknown-linux-gnu", c))
	return file
}

func TestOpenTarball(t *testing.T) {
	executors := map[string]func() diskio.Executor{
		"immediate": func() diskio.Executor { return diskio.NewImmediate() },
		"threaded":  func() diskio.Executor { return diskio.NewThreaded(4, nil) },
	}

	for _, c := range types.AllCompressions() {
		for name, newExec := range executors {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				f := newFixture(t)
				exec := newExec()
				defer exec.Close()

				pkg, err := OpenTarball(f.tarball(t, c), c, f.tmp, exec)
				require.NoError(t, err)
				defer pkg.Close()

				assert.Equal(t, []string{"compiler-x86_64-unknown-linux-gnu", "docs"}, pkg.Components())
				assert.True(t, pkg.Contains("docs", ""))
				assert.True(t, pkg.Contains("compiler-x86_64-unknown-linux-gnu", "compiler"))
				assert.True(t, pkg.Contains("docs-x86_64-unknown-linux-gnu", "docs"))
				assert.False(t, pkg.Contains("stdlib", "stdlib"))

				data, err := os.ReadFile(filepath.Join(pkg.root, "docs", "share", "doc", "api", "a.html"))
				require.NoError(t, err)
				assert.Equal(t, "a", string(data))
			})
		}
	}
}

func TestOpenTarballRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	bad := filepath.Join(t.TempDir(), "bad.tar.gz")
	require.NoError(t, os.WriteFile(bad, []byte("not gzip"), 0644))

	_, err := OpenTarball(bad, types.CompressionGz, f.tmp, diskio.NewImmediate())
	assert.Error(t, err)

	_, err = OpenTarball(f.tarball(t, types.CompressionGz), "lz4", f.tmp, diskio.NewImmediate())
	assert.Error(t, err)
}

func TestStripFirstDir(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantOK  bool
		wantErr bool
	}{
		{name: "top/", wantOK: false},
		{name: "top/components", want: "components", wantOK: true},
		{name: "./top/a/b", want: "a/b", wantOK: true},
		{name: "top/../../etc/passwd", wantErr: true},
		{name: "/abs/path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := stripFirstDir(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstallAndUninstall(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	require.NoError(t, testInstaller().WriteDir(src))

	pkg, err := OpenDir(src)
	require.NoError(t, err)
	components := NewComponents(f.prefix)

	tx := transaction.New(f.prefix, f.tmp, nil)
	require.NoError(t, pkg.Install(components, "compiler-x86_64-unknown-linux-gnu", "compiler", tx))
	require.NoError(t, pkg.Install(components, "docs-x86_64-unknown-linux-gnu", "docs", tx))
	tx.Commit()

	assert.FileExists(t, filepath.Join(f.prefix, "bin", "compiler"))
	assert.FileExists(t, filepath.Join(f.prefix, "share", "doc", "api", "a.html"))
	info, err := os.Stat(filepath.Join(f.prefix, "bin", "compiler"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	list, err := components.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "compiler-x86_64-unknown-linux-gnu", list[0].Name())
	assert.Equal(t, "docs-x86_64-unknown-linux-gnu", list[1].Name(), "receipts use the requested name")

	docs, err := components.Find("docs-x86_64-unknown-linux-gnu")
	require.NoError(t, err)
	require.NotNil(t, docs)
	entries, err := docs.Entries()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Kind: EntryDir, Path: "share/doc"}}, entries)

	tx = transaction.New(f.prefix, f.tmp, nil)
	require.NoError(t, docs.Uninstall(tx))
	tx.Commit()

	assert.NoDirExists(t, filepath.Join(f.prefix, "share", "doc"))
	assert.FileExists(t, filepath.Join(f.prefix, "bin", "compiler"))

	missing, err := components.Find("docs-x86_64-unknown-linux-gnu")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUninstallRollback(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	require.NoError(t, testInstaller().WriteDir(src))
	pkg, err := OpenDir(src)
	require.NoError(t, err)
	components := NewComponents(f.prefix)

	tx := transaction.New(f.prefix, f.tmp, nil)
	require.NoError(t, pkg.Install(components, "compiler-x86_64-unknown-linux-gnu", "", tx))
	tx.Commit()

	c, err := components.Find("compiler-x86_64-unknown-linux-gnu")
	require.NoError(t, err)

	tx = transaction.New(f.prefix, f.tmp, nil)
	require.NoError(t, c.Uninstall(tx))
	assert.NoFileExists(t, filepath.Join(f.prefix, "bin", "compiler"))
	tx.Rollback()

	assert.FileExists(t, filepath.Join(f.prefix, "bin", "compiler"))
	again, err := components.Find("compiler-x86_64-unknown-linux-gnu")
	require.NoError(t, err)
	assert.NotNil(t, again)
}

func TestInstallConflict(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	require.NoError(t, testInstaller().WriteDir(src))
	pkg, err := OpenDir(src)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(f.prefix, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.prefix, "bin", "compiler"), []byte("existing"), 0755))

	tx := transaction.New(f.prefix, f.tmp, nil)
	defer tx.Rollback()

	err = pkg.Install(NewComponents(f.prefix), "compiler-x86_64-unknown-linux-gnu", "", tx)
	var conflict *transaction.ConflictError
	assert.True(t, errors.As(err, &conflict))
}

func TestInstallMissingComponent(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	require.NoError(t, testInstaller().WriteDir(src))
	pkg, err := OpenDir(src)
	require.NoError(t, err)

	tx := transaction.New(f.prefix, f.tmp, nil)
	defer tx.Rollback()
	assert.Error(t, pkg.Install(NewComponents(f.prefix), "stdlib", "stdlib", tx))
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		line    string
		want    Entry
		wantErr bool
	}{
		{line: "file:bin/tool", want: Entry{Kind: EntryFile, Path: "bin/tool"}},
		{line: "dir:share/doc", want: Entry{Kind: EntryDir, Path: "share/doc"}},
		{line: "link:bin/tool", wantErr: true},
		{line: "file:", wantErr: true},
		{line: "nocolon", wantErr: true},
		{line: "file:../escape", wantErr: true},
		{line: "file:/etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseEntry(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.line, got.String())
		})
	}
}

func TestMetadataPath(t *testing.T) {
	assert.Equal(t, "lib/toolup/toolup-config.toml", MetadataPath("toolup-config.toml"))
}
