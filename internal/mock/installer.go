// Package mock builds component installers and distribution servers on disk
// for tests.
package mock

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/adamancini/toolup/internal/types"
)

// File is a file shipped by a mock component.
type File struct {
	Path       string
	Content    []byte
	Executable bool
}

// ComponentBuilder describes one component inside an installer. Files are
// installed with "file:" entries and Dirs with "dir:" entries; a dir entry
// installs every file whose path starts with it.
type ComponentBuilder struct {
	Name  string
	Files []File
	Dirs  []string
}

// InstallerBuilder describes an installer holding several components.
type InstallerBuilder struct {
	Components []ComponentBuilder
}

func (c ComponentBuilder) manifestIn() string {
	var b strings.Builder
	for _, d := range c.Dirs {
		fmt.Fprintf(&b, "dir:%s\n", d)
	}
	for _, f := range c.Files {
		if c.coveredByDir(f.Path) {
			continue
		}
		fmt.Fprintf(&b, "file:%s\n", f.Path)
	}
	return b.String()
}

func (c ComponentBuilder) coveredByDir(p string) bool {
	for _, d := range c.Dirs {
		if strings.HasPrefix(p, d+"/") {
			return true
		}
	}
	return false
}

func (f File) mode() int64 {
	if f.Executable {
		return 0755
	}
	return 0644
}

// WriteDir writes the unpacked installer layout into dir.
func (b InstallerBuilder) WriteDir(dir string) error {
	var names []string
	for _, c := range b.Components {
		names = append(names, c.Name)
		compDir := filepath.Join(dir, c.Name)
		if err := os.MkdirAll(compDir, 0755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(compDir, "manifest.in"), []byte(c.manifestIn()), 0644); err != nil {
			return err
		}
		for _, f := range c.Files {
			full := filepath.Join(compDir, filepath.FromSlash(f.Path))
			if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(full, f.Content, os.FileMode(f.mode())); err != nil {
				return err
			}
		}
	}
	return os.WriteFile(filepath.Join(dir, "components"), []byte(strings.Join(names, "\n")+"\n"), 0644)
}

// WriteTarball writes the installer as a compressed tarball whose entries
// live under topDir. Only the top-level and component directories get
// explicit directory entries; deeper directories are implied by file paths.
func (b InstallerBuilder) WriteTarball(w io.Writer, topDir string, compression types.Compression) error {
	cw, err := compressor(w, compression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)

	addDir := func(name string) error {
		return tw.WriteHeader(&tar.Header{Name: name + "/", Typeflag: tar.TypeDir, Mode: 0755})
	}
	addFile := func(name string, content []byte, mode int64) error {
		if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: mode, Size: int64(len(content))}); err != nil {
			return err
		}
		_, err := tw.Write(content)
		return err
	}

	if err := addDir(topDir); err != nil {
		return err
	}
	var names []string
	for _, c := range b.Components {
		names = append(names, c.Name)
	}
	if err := addFile(path.Join(topDir, "components"), []byte(strings.Join(names, "\n")+"\n"), 0644); err != nil {
		return err
	}
	for _, c := range b.Components {
		compDir := path.Join(topDir, c.Name)
		if err := addDir(compDir); err != nil {
			return err
		}
		if err := addFile(path.Join(compDir, "manifest.in"), []byte(c.manifestIn()), 0644); err != nil {
			return err
		}
		for _, f := range c.Files {
			if err := addFile(path.Join(compDir, f.Path), f.Content, f.mode()); err != nil {
				return err
			}
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return cw.Close()
}

func compressor(w io.Writer, compression types.Compression) (io.WriteCloser, error) {
	switch compression {
	case types.CompressionGz:
		return gzip.NewWriter(w), nil
	case types.CompressionXz:
		return xz.NewWriter(w)
	case types.CompressionZst:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}
}

// WriteTarballFile writes the installer to path.
func (b InstallerBuilder) WriteTarballFile(file, topDir string, compression types.Compression) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := b.WriteTarball(f, topDir, compression); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
