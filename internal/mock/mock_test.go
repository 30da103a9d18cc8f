package mock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/types"
)

func TestDistServerLayout(t *testing.T) {
	target := "x86_64-unknown-linux-gnu"
	tool := manifest.Component{Pkg: "tool", Target: "x86_64-unknown-linux-gnu"}
	ch := Channel{
		Name: "nightly",
		Date: "2016-02-01",
		Packages: []Package{
			{Name: manifest.RootPackage, Version: "1.0.0", Targets: []TargetedPackage{
				{Target: target, Available: true, Components: []manifest.Component{tool}},
			}},
			{Name: "tool", Version: "1.0.0", Targets: []TargetedPackage{
				{Target: target, Available: true, Installer: InstallerBuilder{Components: []ComponentBuilder{{
					Name:  "tool-" + target,
					Files: []File{{Path: "bin/tool", Content: []byte("tool"), Executable: true}},
				}}}},
			}},
		},
	}

	server := &DistServer{Path: t.TempDir(), Channels: []Channel{ch}}
	require.NoError(t, server.Write([]ManifestVersion{V1, V2}, []types.Compression{types.CompressionGz, types.CompressionZst}))

	dist := filepath.Join(server.Path, "dist")
	for _, rel := range []string{
		"2016-02-01/tool-nightly-x86_64-unknown-linux-gnu.tar.gz",
		"2016-02-01/tool-nightly-x86_64-unknown-linux-gnu.tar.zst.sha256",
		"2016-02-01/toolchain-nightly-x86_64-unknown-linux-gnu.tar.gz",
		"channel-toolchain-nightly.toml",
		"channel-toolchain-nightly.toml.sha256",
		"channel-toolchain-nightly",
		"toolchain-nightly-x86_64-unknown-linux-gnu.tar.gz",
	} {
		assert.FileExists(t, filepath.Join(dist, filepath.FromSlash(rel)))
	}
	assert.NoFileExists(t, filepath.Join(dist, "2016-02-01", "tool-nightly-x86_64-unknown-linux-gnu.tar.xz"))

	data, err := os.ReadFile(filepath.Join(dist, "channel-toolchain-nightly.toml"))
	require.NoError(t, err)
	m, err := manifest.Parse(data)
	require.NoError(t, err)
	tp, err := m.TargetPackage(tool)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tp.URL, server.URL()+"/dist/2016-02-01/"))
	assert.NotEmpty(t, tp.ZstHash)
	assert.Empty(t, tp.XZURL)

	listing, err := os.ReadFile(filepath.Join(dist, "channel-toolchain-nightly"))
	require.NoError(t, err)
	assert.Equal(t, "toolchain-nightly-x86_64-unknown-linux-gnu.tar.gz\n", string(listing))
}

func TestWriteDir(t *testing.T) {
	dir := t.TempDir()
	b := InstallerBuilder{Components: []ComponentBuilder{{
		Name: "docs",
		Files: []File{
			{Path: "share/doc/index.html", Content: []byte("index")},
			{Path: "README", Content: []byte("readme")},
		},
		Dirs: []string{"share/doc"},
	}}}
	require.NoError(t, b.WriteDir(dir))

	manifestIn, err := os.ReadFile(filepath.Join(dir, "docs", "manifest.in"))
	require.NoError(t, err)
	assert.Equal(t, "dir:share/doc\nfile:README\n", string(manifestIn))

	components, err := os.ReadFile(filepath.Join(dir, "components"))
	require.NoError(t, err)
	assert.Equal(t, "docs\n", string(components))
}
