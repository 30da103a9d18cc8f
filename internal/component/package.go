package component

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/adamancini/toolup/internal/diskio"
	"github.com/adamancini/toolup/internal/temp"
	"github.com/adamancini/toolup/internal/transaction"
	"github.com/adamancini/toolup/internal/types"
)

const (
	// componentListFile names the components inside an installer.
	componentListFile = "components"
	// componentManifestFile lists the paths a component installs.
	componentManifestFile = "manifest.in"
)

// Package is an unpacked component installer. Its layout is a
// "components" file naming each component, and for each component a
// directory holding "manifest.in" plus the files it lists.
type Package struct {
	root       string
	components []string
	temp       *temp.Context
}

// OpenDir reads an installer that is already unpacked at root.
func OpenDir(root string) (*Package, error) {
	data, err := os.ReadFile(filepath.Join(root, componentListFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read installer component list: %w", err)
	}
	var components []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			components = append(components, line)
		}
	}
	return &Package{root: root, components: components}, nil
}

// OpenTarball unpacks the installer at file into a temp directory using exec.
// The archive's single top-level directory is stripped.
func OpenTarball(file string, compression types.Compression, tmp *temp.Context, exec diskio.Executor) (*Package, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open installer: %w", err)
	}
	defer f.Close()

	r, closer, err := decompress(bufio.NewReader(f), compression)
	if err != nil {
		return nil, err
	}
	defer closer()

	dir, err := tmp.NewDirectory()
	if err != nil {
		return nil, err
	}
	if err := unpack(tar.NewReader(r), dir, exec); err != nil {
		tmp.Remove(dir)
		return nil, fmt.Errorf("failed to extract installer: %w", err)
	}

	pkg, err := OpenDir(dir)
	if err != nil {
		tmp.Remove(dir)
		return nil, err
	}
	pkg.temp = tmp
	return pkg, nil
}

func decompress(r io.Reader, compression types.Compression) (io.Reader, func(), error) {
	switch compression {
	case types.CompressionGz:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read gzip stream: %w", err)
		}
		return gz, func() { _ = gz.Close() }, nil
	case types.CompressionXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read xz stream: %w", err)
		}
		return xr, func() {}, nil
	case types.CompressionZst:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression %q", compression)
	}
}

// Close removes the unpacked installer if it was extracted to a temp dir.
func (p *Package) Close() {
	if p.temp != nil {
		p.temp.Remove(p.root)
	}
}

// Components returns the component names the installer provides.
func (p *Package) Components() []string {
	return slices.Clone(p.components)
}

// Contains reports whether the installer provides name, or short when given.
// Installers name components inconsistently, sometimes with the target and
// sometimes without.
func (p *Package) Contains(name, short string) bool {
	return slices.Contains(p.components, name) || (short != "" && slices.Contains(p.components, short))
}

// Install moves the files of one component into the transaction's prefix and
// records a receipt for it under name.
func (p *Package) Install(target *Components, name, short string, tx *transaction.Transaction) error {
	actual := name
	if !slices.Contains(p.components, name) {
		if short == "" || !slices.Contains(p.components, short) {
			return fmt.Errorf("installer does not contain component '%s'", name)
		}
		actual = short
	}

	compDir := filepath.Join(p.root, actual)
	data, err := os.ReadFile(filepath.Join(compDir, componentManifestFile))
	if err != nil {
		return fmt.Errorf("failed to read manifest for component '%s': %w", actual, err)
	}
	entries, err := parseEntries(data)
	if err != nil {
		return fmt.Errorf("failed to parse manifest for component '%s': %w", actual, err)
	}

	for _, e := range entries {
		src := filepath.Join(compDir, filepath.FromSlash(e.Path))
		switch e.Kind {
		case EntryFile:
			err = tx.CopyFile(name, e.Path, src)
		case EntryDir:
			err = tx.CopyDir(name, e.Path, src)
		}
		if err != nil {
			return err
		}
	}

	return target.Add(name, entries, tx)
}

// unpacker feeds tar entries to an executor. Items whose parent directory is
// still in flight are held back until that directory has been created.
type unpacker struct {
	exec     diskio.Executor
	dirs     map[string]bool
	deferred map[string][]*diskio.Item
	pending  int
	err      error
}

func unpack(tr *tar.Reader, dest string, exec diskio.Executor) error {
	u := &unpacker{
		exec:     exec,
		dirs:     map[string]bool{dest: true},
		deferred: map[string][]*diskio.Item{},
	}

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			u.drain()
			return err
		}

		rel, ok, err := stripFirstDir(hdr.Name)
		if err != nil {
			u.drain()
			return err
		}
		if !ok {
			continue
		}
		full := filepath.Join(dest, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			u.ensureDir(dest, full)
		case tar.TypeReg:
			content, err := io.ReadAll(tr)
			if err != nil {
				u.drain()
				return fmt.Errorf("failed to read %s: %w", hdr.Name, err)
			}
			u.ensureDir(dest, filepath.Dir(full))
			u.submit(diskio.WriteFile(full, content, os.FileMode(hdr.Mode).Perm()|0600))
		default:
			u.drain()
			return fmt.Errorf("unsupported entry type %q for %s", hdr.Typeflag, hdr.Name)
		}

		if u.err != nil {
			u.drain()
			return u.err
		}
	}

	u.drain()
	return u.err
}

// stripFirstDir removes the installer's top-level directory from name.
func stripFirstDir(name string) (string, bool, error) {
	clean := path.Clean(strings.TrimPrefix(name, "./"))
	if err := validateRelPath(clean); err != nil {
		return "", false, err
	}
	_, rest, ok := strings.Cut(clean, "/")
	if !ok || rest == "" {
		return "", false, nil
	}
	return rest, true, nil
}

// ensureDir schedules creation of dir and any missing ancestors below root.
func (u *unpacker) ensureDir(root, dir string) {
	if _, known := u.dirs[dir]; known {
		return
	}
	if dir != root {
		u.ensureDir(root, filepath.Dir(dir))
	}
	u.dirs[dir] = false
	u.submit(diskio.MakeDir(dir, 0755))
}

func (u *unpacker) submit(item *diskio.Item) {
	parent := filepath.Dir(item.FullPath)
	if done, known := u.dirs[parent]; known && !done {
		u.deferred[parent] = append(u.deferred[parent], item)
		return
	}
	u.pending++
	for done := range u.exec.Execute(item) {
		u.complete(done)
	}
}

func (u *unpacker) complete(item *diskio.Item) {
	u.pending--
	if item.Err != nil {
		if u.err == nil {
			u.err = fmt.Errorf("failed to write %s: %w", item.FullPath, item.Err)
		}
		delete(u.deferred, item.FullPath)
		return
	}
	if item.Kind != diskio.KindDirectory {
		return
	}

	u.dirs[item.FullPath] = true
	children := u.deferred[item.FullPath]
	delete(u.deferred, item.FullPath)
	for _, child := range children {
		u.submit(child)
	}
}

// drain waits until every submitted item has been observed.
func (u *unpacker) drain() {
	for done := range u.exec.Completed() {
		u.complete(done)
	}
	for u.pending > 0 {
		for done := range u.exec.Join() {
			u.complete(done)
		}
	}
}
