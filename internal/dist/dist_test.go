package dist

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adamancini/toolup/internal/download"
	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/mock"
	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/temp"
	"github.com/adamancini/toolup/internal/triple"
	"github.com/adamancini/toolup/internal/types"
)

const (
	hostTarget  triple.TargetTriple = "x86_64-unknown-linux-gnu"
	crossTarget triple.TargetTriple = "i686-unknown-linux-gnu"

	date1 = "2016-02-01"
	date2 = "2016-02-02"
)

func comp(pkg string, target triple.TargetTriple) manifest.Component {
	return manifest.Component{Pkg: pkg, Target: target}
}

var (
	compiler    = comp("compiler", hostTarget)
	stdlib      = comp("stdlib", hostTarget)
	crossStdlib = comp("stdlib", crossTarget)
	docs        = comp("docs", hostTarget)
	oldDocs     = comp("docs-old", hostTarget)
	sources     = comp("sources", "")
	profiler    = comp("profiler", hostTarget)
	analyzer    = comp("analyzer", hostTarget)
	sanitizer   = comp("sanitizer", hostTarget)
)

// installer builds a single-component installer whose files contain the
// component name and release date.
func installer(name, date string, files ...string) mock.InstallerBuilder {
	cb := mock.ComponentBuilder{Name: name}
	for _, f := range files {
		cb.Files = append(cb.Files, mock.File{Path: f, Content: []byte(name + " " + date)})
	}
	return mock.InstallerBuilder{Components: []mock.ComponentBuilder{cb}}
}

type channelOpts struct {
	// docsPkg names the documentation package, "docs" by default.
	docsPkg string
	renames map[string]string
	// brokenDocs ships a docs installer that lacks the docs component.
	brokenDocs bool
}

func testChannel(date string, opts channelOpts) mock.Channel {
	docsPkg := opts.docsPkg
	if docsPkg == "" {
		docsPkg = "docs"
	}
	docsComp := comp(docsPkg, hostTarget)

	docsInstaller := mock.InstallerBuilder{Components: []mock.ComponentBuilder{{
		Name: docsComp.Name(),
		Files: []mock.File{
			{Path: "share/doc/index.html", Content: []byte(docsComp.Name() + " " + date)},
			{Path: "share/doc/api/types.html", Content: []byte("types")},
		},
		Dirs: []string{"share/doc"},
	}}}
	if opts.brokenDocs {
		docsInstaller = installer("something-else", date, "share/doc/index.html")
	}

	unavailable := func(name string) mock.Package {
		return mock.Package{Name: name, Version: "0.1.0", Targets: []mock.TargetedPackage{
			{Target: hostTarget.String(), Available: false},
		}}
	}

	return mock.Channel{
		Name:    "nightly",
		Date:    date,
		Renames: opts.renames,
		Packages: []mock.Package{
			{Name: manifest.RootPackage, Version: "1.2.0 (" + date + ")", Targets: []mock.TargetedPackage{{
				Target:     hostTarget.String(),
				Available:  true,
				Components: []manifest.Component{compiler, stdlib},
				Extensions: []manifest.Component{crossStdlib, docsComp, sources, profiler, analyzer, sanitizer},
			}}},
			{Name: "compiler", Version: "1.2.0", Targets: []mock.TargetedPackage{{
				Target: hostTarget.String(), Available: true,
				Installer: installer(compiler.Name(), date, "bin/compiler"),
			}}},
			{Name: "stdlib", Version: "1.2.0", Targets: []mock.TargetedPackage{
				{
					Target: hostTarget.String(), Available: true,
					Installer: installer(stdlib.Name(), date, "lib/stdlib/x86_64-unknown-linux-gnu/libstd.a"),
				},
				{
					Target: crossTarget.String(), Available: true,
					Installer: installer(crossStdlib.Name(), date, "lib/stdlib/i686-unknown-linux-gnu/libstd.a"),
				},
			}},
			{Name: docsPkg, Version: "1.2.0", Targets: []mock.TargetedPackage{{
				Target: hostTarget.String(), Available: true, Installer: docsInstaller,
			}}},
			{Name: "sources", Version: "1.2.0", Targets: []mock.TargetedPackage{{
				Target: "*", Available: true,
				Installer: installer("sources", date, "lib/sources/src.txt"),
			}}},
			unavailable("profiler"),
			unavailable("analyzer"),
			unavailable("sanitizer"),
		},
	}
}

// testEnv is a mock distribution server and an installation prefix.
type testEnv struct {
	t          *testing.T
	server     *mock.DistServer
	prefix     string
	updateHash string
	rec        *notify.Recorder
	cfg        *DownloadCfg
	toolchain  triple.ToolchainDesc
}

func newTestEnv(t *testing.T, versions []mock.ManifestVersion, channels ...mock.Channel) *testEnv {
	t.Helper()
	root := t.TempDir()

	server := &mock.DistServer{
		Path:     filepath.Join(root, "server"),
		BaseURL:  DefaultDistServer,
		Channels: channels,
	}
	require.NoError(t, server.Write(versions, types.AllCompressions()))

	rec := &notify.Recorder{}
	tmp := temp.New(filepath.Join(root, "tmp"), rec.Handle)
	cache := download.NewCache(filepath.Join(root, "downloads"), nil, tmp, rec.Handle)

	return &testEnv{
		t:          t,
		server:     server,
		prefix:     filepath.Join(root, "toolchains", "nightly-"+hostTarget.String()),
		updateHash: filepath.Join(root, "update-hashes", "nightly-"+hostTarget.String()),
		rec:        rec,
		cfg: &DownloadCfg{
			DistServer: server.URL(),
			Cache:      cache,
			Temp:       tmp,
			Notify:     rec.Handle,
		},
		toolchain: triple.ToolchainDesc{Channel: "nightly", Target: hostTarget},
	}
}

// update runs UpdateFromDist and records the resulting hash the way the CLI
// does.
func (e *testEnv) update(changes Changes) (string, error) {
	e.t.Helper()
	hash, err := UpdateFromDist(context.Background(), e.cfg, e.updateHash, e.toolchain, e.prefix, changes)
	if err == nil && hash != "" {
		require.NoError(e.t, os.MkdirAll(filepath.Dir(e.updateHash), 0755))
		require.NoError(e.t, os.WriteFile(e.updateHash, []byte(hash), 0644))
	}
	return hash, err
}

func (e *testEnv) manifestation() *Manifestation {
	return Open(e.prefix, hostTarget)
}

func (e *testEnv) config() *manifest.Config {
	e.t.Helper()
	cfg, err := e.manifestation().ReadConfig()
	require.NoError(e.t, err)
	return cfg
}

func (e *testEnv) read(rel string) string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.prefix, filepath.FromSlash(rel)))
	require.NoError(e.t, err)
	return string(data)
}

func (e *testEnv) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(e.prefix, filepath.FromSlash(rel)))
	return err == nil
}

// snapshot captures every path and file content under root. A missing root
// yields nil.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			out[rel+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}
