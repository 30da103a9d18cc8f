package mock

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/types"
)

// ManifestVersion selects which manifest generations a server publishes.
type ManifestVersion int

const (
	V1 ManifestVersion = iota + 1
	V2
)

// TargetedPackage is a package built for one target ("*" for none).
type TargetedPackage struct {
	Target     string
	Available  bool
	Components []manifest.Component
	Extensions []manifest.Component
	Installer  InstallerBuilder
}

// Package is a named package with per-target builds.
type Package struct {
	Name    string
	Version string
	Targets []TargetedPackage
}

// Channel is one dated release of a channel.
type Channel struct {
	Name     string
	Date     string
	Packages []Package
	Renames  map[string]string
}

// DistServer is a distribution tree laid out under Path.
type DistServer struct {
	Path string
	// BaseURL prefixes the URLs written into manifests. Defaults to the
	// file URL of Path.
	BaseURL  string
	Channels []Channel
}

// URL returns the file URL of the server root.
func (s *DistServer) URL() string {
	return "file://" + filepath.ToSlash(s.Path)
}

// DistURL returns the file URL of the dist directory.
func (s *DistServer) DistURL() string {
	return s.URL() + "/dist"
}

func (s *DistServer) baseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return s.URL()
}

// Write publishes every channel under dist/<date>/ and points the undated
// channel files at the last channel listed for each name.
func (s *DistServer) Write(versions []ManifestVersion, compressions []types.Compression) error {
	for _, ch := range s.Channels {
		if err := s.writeChannel(ch, versions, compressions); err != nil {
			return err
		}
	}
	for _, ch := range s.Channels {
		if err := s.SetChannelDate(ch.Name, ch.Date); err != nil {
			return err
		}
	}
	return nil
}

func installerName(pkg, channel, target string) string {
	if target == "*" || target == "" {
		return fmt.Sprintf("%s-%s", pkg, channel)
	}
	return fmt.Sprintf("%s-%s-%s", pkg, channel, target)
}

func (s *DistServer) writeChannel(ch Channel, versions []ManifestVersion, compressions []types.Compression) error {
	dateDir := filepath.Join(s.Path, "dist", ch.Date)
	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return err
	}
	dateURL := s.baseURL() + "/dist/" + ch.Date

	m := &manifest.Manifest{
		ManifestVersion: manifest.SupportedVersion,
		Date:            ch.Date,
		Packages:        map[string]manifest.Package{},
	}
	for from, to := range ch.Renames {
		if m.Renames == nil {
			m.Renames = map[string]manifest.Rename{}
		}
		m.Renames[from] = manifest.Rename{To: to}
	}

	for _, pkg := range ch.Packages {
		mp := manifest.Package{Version: pkg.Version, Targets: map[string]manifest.TargetedPackage{}}
		for _, tp := range pkg.Targets {
			entry := manifest.TargetedPackage{
				Available:  tp.Available,
				Components: tp.Components,
				Extensions: tp.Extensions,
			}
			if tp.Available && len(tp.Installer.Components) > 0 {
				name := installerName(pkg.Name, ch.Name, tp.Target)
				for _, c := range compressions {
					file := name + c.Extension()
					hash, err := writeInstaller(filepath.Join(dateDir, file), name, tp.Installer, c)
					if err != nil {
						return err
					}
					url := dateURL + "/" + file
					switch c {
					case types.CompressionGz:
						entry.URL, entry.Hash = url, hash
					case types.CompressionXz:
						entry.XZURL, entry.XZHash = url, hash
					case types.CompressionZst:
						entry.ZstURL, entry.ZstHash = url, hash
					}
				}
			}
			mp.Targets[tp.Target] = entry
		}
		m.Packages[pkg.Name] = mp
	}

	base := filepath.Join(dateDir, "channel-toolchain-"+ch.Name)
	for _, v := range versions {
		switch v {
		case V2:
			data, err := m.Stringify()
			if err != nil {
				return err
			}
			if err := writeWithHash(base+".toml", data); err != nil {
				return err
			}
		case V1:
			if err := s.writeV1(ch, dateDir, base); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeV1 publishes one combined installer per root target and a listing of
// their file names.
func (s *DistServer) writeV1(ch Channel, dateDir, base string) error {
	var listing []string
	for _, pkg := range ch.Packages {
		if pkg.Name != manifest.RootPackage {
			continue
		}
		for _, tp := range pkg.Targets {
			combined := InstallerBuilder{}
			for _, c := range tp.Components {
				combined.Components = append(combined.Components, s.installerFor(ch, c).Components...)
			}
			name := installerName(pkg.Name, ch.Name, tp.Target)
			file := name + types.CompressionGz.Extension()
			if _, err := writeInstaller(filepath.Join(dateDir, file), name, combined, types.CompressionGz); err != nil {
				return err
			}
			listing = append(listing, file)
		}
	}
	return writeWithHash(base, []byte(strings.Join(listing, "\n")+"\n"))
}

func (s *DistServer) installerFor(ch Channel, c manifest.Component) InstallerBuilder {
	for _, pkg := range ch.Packages {
		if pkg.Name != c.Pkg {
			continue
		}
		for _, tp := range pkg.Targets {
			if tp.Target == string(c.Target) || tp.Target == "*" {
				return tp.Installer
			}
		}
	}
	return InstallerBuilder{}
}

func writeInstaller(file, topDir string, b InstallerBuilder, c types.Compression) (string, error) {
	var buf bytes.Buffer
	if err := b.WriteTarball(&buf, topDir, c); err != nil {
		return "", err
	}
	return hashOf(buf.Bytes()), writeWithHash(file, buf.Bytes())
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeWithHash(file string, data []byte) error {
	if err := os.WriteFile(file, data, 0644); err != nil {
		return err
	}
	line := fmt.Sprintf("%s  %s\n", hashOf(data), filepath.Base(file))
	return os.WriteFile(file+".sha256", []byte(line), 0644)
}

// SetChannelDate makes the dated release of channel the current one. The
// legacy listing and the installers it names are copied alongside the
// channel manifests, as legacy listings are relative to the dist root.
func (s *DistServer) SetChannelDate(channel, date string) error {
	distDir := filepath.Join(s.Path, "dist")
	base := "channel-toolchain-" + channel
	files := []string{base, base + ".sha256", base + ".toml", base + ".toml.sha256"}

	listing, err := os.ReadFile(filepath.Join(distDir, date, base))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Fields(string(listing)) {
		files = append(files, line, line+".sha256")
	}

	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(distDir, date, name))
		if os.IsNotExist(err) {
			_ = os.Remove(filepath.Join(distDir, name))
			continue
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(distDir, name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// CorruptFile overwrites a published file without updating its hash.
func (s *DistServer) CorruptFile(rel string) error {
	return os.WriteFile(filepath.Join(s.Path, filepath.FromSlash(rel)), []byte("corrupt"), 0644)
}
