// Package manifest holds the distribution manifest and installed-config
// documents and their TOML encoding.
package manifest

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/adamancini/toolup/internal/triple"
)

const (
	// SupportedVersion is the only manifest-version understood.
	SupportedVersion = "2"

	// RootPackage is the package whose target entry lists a toolchain's
	// required components and available extensions.
	RootPackage = "toolchain"

	// wildcardTarget marks a target-independent package or component on the wire.
	wildcardTarget = "*"
)

// Component is an installable unit. An empty Target means the component is
// target-independent.
type Component struct {
	Pkg    string              `toml:"pkg" json:"pkg" yaml:"pkg"`
	Target triple.TargetTriple `toml:"target" json:"target,omitempty" yaml:"target,omitempty"`
}

// Name is the name the component is installed under: pkg-target, or pkg for
// target-independent components.
func (c Component) Name() string {
	if c.Target.IsZero() {
		return c.Pkg
	}
	return c.Pkg + "-" + c.Target.String()
}

// String returns Name.
func (c Component) String() string {
	return c.Name()
}

// Manifest is a release description published by the distribution server.
type Manifest struct {
	ManifestVersion string             `toml:"manifest-version"`
	Date            string             `toml:"date"`
	Packages        map[string]Package `toml:"pkg"`
	Renames         map[string]Rename  `toml:"renames,omitempty"`

	// reverseRenames maps a new package name back to its old name.
	reverseRenames map[string]string
}

// Rename redirects an old package name to a new one.
type Rename struct {
	To string `toml:"to"`
}

// Package is a named package with one entry per target.
type Package struct {
	Version string                     `toml:"version"`
	Targets map[string]TargetedPackage `toml:"target"`
}

// TargetedPackage is a package built for one target. URL and Hash are
// empty when the package is not available.
type TargetedPackage struct {
	Available  bool        `toml:"available"`
	URL        string      `toml:"url,omitempty"`
	Hash       string      `toml:"hash,omitempty"`
	XZURL      string      `toml:"xz_url,omitempty"`
	XZHash     string      `toml:"xz_hash,omitempty"`
	ZstURL     string      `toml:"zst_url,omitempty"`
	ZstHash    string      `toml:"zst_hash,omitempty"`
	Components []Component `toml:"components,omitempty"`
	Extensions []Component `toml:"extensions,omitempty"`
}

// UnsupportedVersionError is returned for documents with an unknown version.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported manifest version: '%s'", e.Version)
}

// MissingPackageError is returned when a package referenced by name does not
// exist in the manifest.
type MissingPackageError struct {
	Name string
}

func (e *MissingPackageError) Error() string {
	return fmt.Sprintf("could not find package '%s' in manifest", e.Name)
}

// MissingTargetError is returned when a package has no entry for a target.
type MissingTargetError struct {
	Package string
	Target  triple.TargetTriple
}

func (e *MissingTargetError) Error() string {
	if e.Target.IsZero() {
		return fmt.Sprintf("package '%s' has no target-independent entry", e.Package)
	}
	return fmt.Sprintf("package '%s' is not available for target '%s'", e.Package, e.Target)
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if m.ManifestVersion != SupportedVersion {
		return nil, &UnsupportedVersionError{Version: m.ManifestVersion}
	}

	m.normalize()

	if err := m.validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Stringify encodes the manifest as TOML.
func (m *Manifest) Stringify() ([]byte, error) {
	out := m.clone()
	for name, pkg := range out.Packages {
		for t, tp := range pkg.Targets {
			tp.Components = toWire(tp.Components)
			tp.Extensions = toWire(tp.Extensions)
			pkg.Targets[t] = tp
		}
		out.Packages[name] = pkg
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// Equal reports whether two manifests describe the same release.
func (m *Manifest) Equal(other *Manifest) bool {
	if m == nil || other == nil {
		return m == other
	}
	a, b := m.clone(), other.clone()
	a.normalize()
	b.normalize()
	return reflect.DeepEqual(a, b)
}

// GetPackage looks up a package by name.
func (m *Manifest) GetPackage(name string) (*Package, error) {
	pkg, ok := m.Packages[name]
	if !ok {
		return nil, &MissingPackageError{Name: name}
	}
	return &pkg, nil
}

// GetTarget returns the package entry for target. Target-independent
// packages match every target.
func (p *Package) GetTarget(pkgName string, target triple.TargetTriple) (*TargetedPackage, error) {
	if tp, ok := p.Targets[wildcardTarget]; ok {
		return &tp, nil
	}
	if tp, ok := p.Targets[string(target)]; ok && !target.IsZero() {
		return &tp, nil
	}
	return nil, &MissingTargetError{Package: pkgName, Target: target}
}

// TargetPackage resolves a component to its package entry.
func (m *Manifest) TargetPackage(c Component) (*TargetedPackage, error) {
	pkg, err := m.GetPackage(c.Pkg)
	if err != nil {
		return nil, err
	}
	return pkg.GetTarget(c.Pkg, c.Target)
}

// RootTarget returns the root package entry for target.
func (m *Manifest) RootTarget(target triple.TargetTriple) (*TargetedPackage, error) {
	return m.TargetPackage(Component{Pkg: RootPackage, Target: target})
}

// RootVersion returns the version string of the root package, or "".
func (m *Manifest) RootVersion() string {
	if pkg, ok := m.Packages[RootPackage]; ok {
		return pkg.Version
	}
	return ""
}

// Rename returns the component under the name the manifest's rename table
// gives it, and whether a rename applied.
func (m *Manifest) Rename(c Component) (Component, bool) {
	r, ok := m.Renames[c.Pkg]
	if !ok {
		return c, false
	}
	c.Pkg = r.To
	return c, true
}

// OldName returns the name a package had before being renamed, if any.
func (m *Manifest) OldName(pkg string) (string, bool) {
	old, ok := m.reverseRenames[pkg]
	return old, ok
}

// validate checks that every component and extension names a package that
// exists in the manifest.
func (m *Manifest) validate() error {
	for _, pkg := range m.Packages {
		for _, tp := range pkg.Targets {
			for _, c := range slices.Concat(tp.Components, tp.Extensions) {
				if _, ok := m.Packages[c.Pkg]; !ok {
					return fmt.Errorf("failed to validate manifest: component '%s': %w",
						c.Name(), &MissingPackageError{Name: c.Pkg})
				}
			}
		}
	}
	return nil
}

// normalize converts wire wildcards to empty targets, drops empty
// collections and rebuilds the reverse rename index.
func (m *Manifest) normalize() {
	if len(m.Packages) == 0 {
		m.Packages = nil
	}
	for name, pkg := range m.Packages {
		if len(pkg.Targets) == 0 {
			pkg.Targets = nil
		}
		for t, tp := range pkg.Targets {
			tp.Components = fromWire(tp.Components)
			tp.Extensions = fromWire(tp.Extensions)
			pkg.Targets[t] = tp
		}
		m.Packages[name] = pkg
	}

	if len(m.Renames) == 0 {
		m.Renames = nil
	}
	m.reverseRenames = nil
	for from, r := range m.Renames {
		if m.reverseRenames == nil {
			m.reverseRenames = make(map[string]string, len(m.Renames))
		}
		m.reverseRenames[r.To] = from
	}
}

// clone deep-copies the manifest so callers may mutate the result.
func (m *Manifest) clone() *Manifest {
	out := &Manifest{
		ManifestVersion: m.ManifestVersion,
		Date:            m.Date,
	}
	if m.Packages != nil {
		out.Packages = make(map[string]Package, len(m.Packages))
		for name, pkg := range m.Packages {
			cp := Package{Version: pkg.Version}
			if pkg.Targets != nil {
				cp.Targets = make(map[string]TargetedPackage, len(pkg.Targets))
				for t, tp := range pkg.Targets {
					tp.Components = slices.Clone(tp.Components)
					tp.Extensions = slices.Clone(tp.Extensions)
					cp.Targets[t] = tp
				}
			}
			out.Packages[name] = cp
		}
	}
	if m.Renames != nil {
		out.Renames = make(map[string]Rename, len(m.Renames))
		for k, v := range m.Renames {
			out.Renames[k] = v
		}
	}
	if m.reverseRenames != nil {
		out.reverseRenames = make(map[string]string, len(m.reverseRenames))
		for k, v := range m.reverseRenames {
			out.reverseRenames[k] = v
		}
	}
	return out
}

func fromWire(list []Component) []Component {
	if len(list) == 0 {
		return nil
	}
	for i := range list {
		if list[i].Target == wildcardTarget {
			list[i].Target = ""
		}
	}
	return list
}

func toWire(list []Component) []Component {
	for i := range list {
		if list[i].Target.IsZero() {
			list[i].Target = wildcardTarget
		}
	}
	return list
}
