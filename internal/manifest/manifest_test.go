package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/toolup/internal/triple"
)

const linux = triple.TargetTriple("x86_64-unknown-linux-gnu")

const sampleManifest = `
manifest-version = "2"
date = "2016-02-01"

[pkg.toolchain]
version = "toolchain 1.3.0 (9a92aaf19 2016-02-01)"

[pkg.toolchain.target.x86_64-unknown-linux-gnu]
available = true
url = "https://static.example.org/dist/toolchain-1.3.0-x86_64-unknown-linux-gnu.tar.gz"
hash = "aaaa"
xz_url = "https://static.example.org/dist/toolchain-1.3.0-x86_64-unknown-linux-gnu.tar.xz"
xz_hash = "bbbb"

[[pkg.toolchain.target.x86_64-unknown-linux-gnu.components]]
pkg = "compiler"
target = "x86_64-unknown-linux-gnu"

[[pkg.toolchain.target.x86_64-unknown-linux-gnu.components]]
pkg = "stdlib"
target = "x86_64-unknown-linux-gnu"

[[pkg.toolchain.target.x86_64-unknown-linux-gnu.extensions]]
pkg = "stdlib"
target = "x86_64-unknown-linux-musl"

[[pkg.toolchain.target.x86_64-unknown-linux-gnu.extensions]]
pkg = "sources"
target = "*"

[pkg.compiler]
version = "compiler 1.3.0"

[pkg.compiler.target.x86_64-unknown-linux-gnu]
available = true
url = "example.com"
hash = "cccc"

[pkg.stdlib]
version = "stdlib 1.3.0"

[pkg.stdlib.target.x86_64-unknown-linux-gnu]
available = true
url = "example.com"
hash = "dddd"

[pkg.stdlib.target.x86_64-unknown-linux-musl]
available = false

[pkg.sources]
version = "sources 1.3.0"

[pkg.sources.target."*"]
available = true
url = "example.com"
hash = "eeee"

[pkg.docs-old]
version = "docs 1.3.0"

[pkg.docs-old.target."*"]
available = true
url = "example.com"
hash = "ffff"

[renames.docs-old]
to = "docs"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, "2016-02-01", m.Date)
	assert.Contains(t, m.RootVersion(), "1.3.0")

	root, err := m.RootTarget(linux)
	require.NoError(t, err)
	assert.True(t, root.Available)
	assert.Equal(t, "bbbb", root.XZHash)
	require.Len(t, root.Components, 2)
	assert.Equal(t, Component{Pkg: "compiler", Target: linux}, root.Components[0])
	require.Len(t, root.Extensions, 2)
	assert.Equal(t, Component{Pkg: "sources"}, root.Extensions[1], "wildcard target normalizes to empty")

	musl, err := m.TargetPackage(root.Extensions[0])
	require.NoError(t, err)
	assert.False(t, musl.Available)
}

func TestParseUnknownTargets(t *testing.T) {
	data := strings.ReplaceAll(sampleManifest, "x86_64-unknown-linux-gnu", "mycpu-myvendor-myos")
	_, err := Parse([]byte(data))
	assert.NoError(t, err)
}

func TestParseUnsupportedVersion(t *testing.T) {
	data := strings.Replace(sampleManifest, `manifest-version = "2"`, `manifest-version = "3"`, 1)
	_, err := Parse([]byte(data))

	var verErr *UnsupportedVersionError
	require.True(t, errors.As(err, &verErr))
	assert.Equal(t, "3", verErr.Version)
}

func TestParseMissingPackageForComponent(t *testing.T) {
	data := `
manifest-version = "2"
date = "2016-02-01"
[pkg.toolchain]
version = "1.3.0"
[pkg.toolchain.target.x86_64-unknown-linux-gnu]
available = true
url = "example.com"
hash = "..."
[[pkg.toolchain.target.x86_64-unknown-linux-gnu.components]]
pkg = "compiler"
target = "x86_64-unknown-linux-gnu"
`
	_, err := Parse([]byte(data))

	var missing *MissingPackageError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "compiler", missing.Name)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("manifest-version = "))
	assert.Error(t, err)
}

func TestRenames(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	renamed, ok := m.Rename(Component{Pkg: "docs-old"})
	assert.True(t, ok)
	assert.Equal(t, "docs", renamed.Pkg)

	_, ok = m.Rename(Component{Pkg: "compiler", Target: linux})
	assert.False(t, ok)

	old, ok := m.OldName("docs")
	assert.True(t, ok)
	assert.Equal(t, "docs-old", old)
}

func TestStringifyRoundTrip(t *testing.T) {
	original, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	data, err := original.Stringify()
	require.NoError(t, err)
	assert.Contains(t, string(data), "target = '*'", "wildcards are written back")

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))

	root, err := original.RootTarget(linux)
	require.NoError(t, err)
	assert.Equal(t, triple.TargetTriple(""), root.Extensions[1].Target, "stringify must not mutate the receiver")
}

func TestEqual(t *testing.T) {
	a, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	b, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := Parse([]byte(strings.Replace(sampleManifest, `date = "2016-02-01"`, `date = "2016-02-02"`, 1)))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))

	var nilManifest *Manifest
	assert.False(t, a.Equal(nilManifest))
	assert.True(t, nilManifest.Equal(nil))
}

func TestGetTargetMissing(t *testing.T) {
	m, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	_, err = m.RootTarget("aarch64-apple-darwin")
	var missing *MissingTargetError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, RootPackage, missing.Package)

	_, err = m.GetPackage("nope")
	var missingPkg *MissingPackageError
	assert.True(t, errors.As(err, &missingPkg))
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "compiler-x86_64-unknown-linux-gnu", Component{Pkg: "compiler", Target: linux}.Name())
	assert.Equal(t, "sources", Component{Pkg: "sources"}.Name())
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Components = []Component{
		{Pkg: "compiler", Target: linux},
		{Pkg: "sources"},
	}

	data, err := cfg.Stringify()
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_version = '1'")

	parsed, err := ParseConfig(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Components, parsed.Components)
	assert.True(t, parsed.Contains(Component{Pkg: "sources"}))
	assert.False(t, parsed.Contains(Component{Pkg: "sources", Target: linux}))
}

func TestParseConfigUnsupportedVersion(t *testing.T) {
	_, err := ParseConfig([]byte(`config_version = "2"`))
	var verErr *UnsupportedVersionError
	assert.True(t, errors.As(err, &verErr))
}
