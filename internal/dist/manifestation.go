package dist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adamancini/toolup/internal/component"
	"github.com/adamancini/toolup/internal/diskio"
	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/temp"
	"github.com/adamancini/toolup/internal/transaction"
	"github.com/adamancini/toolup/internal/triple"
	"github.com/adamancini/toolup/internal/types"
)

const (
	// ManifestFile is the installed copy of the channel manifest.
	ManifestFile = "toolup-channel-manifest.toml"
	// ConfigFile records the installed components.
	ConfigFile = "toolup-config.toml"
)

// UpdateStatus reports whether an update changed the installation.
type UpdateStatus int

const (
	Unchanged UpdateStatus = iota
	Changed
)

func (s UpdateStatus) String() string {
	if s == Changed {
		return "changed"
	}
	return "unchanged"
}

// Manifestation is a toolchain installed from manifests into a prefix.
type Manifestation struct {
	installation *component.Components
	target       triple.TargetTriple
}

// Open returns the manifestation for target at prefix. The prefix need not
// exist yet.
func Open(prefix string, target triple.TargetTriple) *Manifestation {
	return &Manifestation{
		installation: component.NewComponents(prefix),
		target:       target,
	}
}

// Prefix returns the installation root.
func (m *Manifestation) Prefix() string {
	return m.installation.Prefix()
}

// Target returns the toolchain's target.
func (m *Manifestation) Target() triple.TargetTriple {
	return m.target
}

// Installed returns the installed components in install order.
func (m *Manifestation) Installed() ([]*component.Component, error) {
	return m.installation.List()
}

func (m *Manifestation) readMetadata(name string) ([]byte, error) {
	data, err := os.ReadFile(m.metadataPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (m *Manifestation) metadataPath(name string) string {
	return filepath.Join(m.installation.Prefix(), filepath.FromSlash(component.MetadataPath(name)))
}

// ReadConfig returns the installed config, or nil if there is none.
func (m *Manifestation) ReadConfig() (*manifest.Config, error) {
	data, err := m.readMetadata(ConfigFile)
	if data == nil || err != nil {
		return nil, err
	}
	return manifest.ParseConfig(data)
}

// LoadManifest returns the installed manifest, or nil if there is none.
func (m *Manifestation) LoadManifest() (*manifest.Manifest, error) {
	data, err := m.readMetadata(ManifestFile)
	if data == nil || err != nil {
		return nil, err
	}
	return manifest.Parse(data)
}

type componentDownload struct {
	component   manifest.Component
	compression types.Compression
	hash        string
	path        string
}

// Update brings the installation in line with newManifest and changes.
// toolchain names the channel in error messages.
func (m *Manifestation) Update(ctx context.Context, newManifest *manifest.Manifest, changes Changes, cfg *DownloadCfg, toolchain string) (UpdateStatus, error) {
	root, err := newManifest.RootTarget(m.target)
	if err != nil {
		return Unchanged, err
	}
	oldManifest, err := m.LoadManifest()
	if err != nil {
		return Unchanged, err
	}
	config, err := m.ReadConfig()
	if err != nil {
		return Unchanged, err
	}

	cs := BuildChangeSet(newManifest, oldManifest, config, changes, root, cfg.Notify)
	if cs.IsEmpty() {
		return Unchanged, nil
	}
	if err := checkAvailability(newManifest, cs.Install, toolchain, cfg.notify); err != nil {
		return Unchanged, err
	}

	downloads := make([]componentDownload, 0, len(cs.Install))
	for _, c := range cs.Install {
		tp, err := newManifest.TargetPackage(c)
		if err != nil {
			return Unchanged, err
		}
		url, hash, compression := preferredInstaller(tp)
		if url == "" {
			return Unchanged, &ComponentDownloadFailedError{Component: c, Err: errors.New("no installer URL in manifest")}
		}
		url = cfg.rewriteURL(url)

		cfg.notify(m.componentEvent(notify.DownloadingComponent, c))
		path, err := cfg.Cache.Download(ctx, url, hash)
		if err != nil {
			return Unchanged, &ComponentDownloadFailedError{Component: c, Err: err}
		}
		downloads = append(downloads, componentDownload{component: c, compression: compression, hash: hash, path: path})
	}

	tx := transaction.New(m.Prefix(), cfg.Temp, cfg.Notify)
	defer tx.Rollback()

	if err := m.maybeHandleV2Upgrade(config, tx, cfg.notify); err != nil {
		return Unchanged, err
	}

	for _, c := range cs.Uninstall {
		cfg.notify(m.componentEvent(notify.RemovingComponent, c))
		if err := m.uninstallComponent(c, tx, cfg.notify); err != nil {
			return Unchanged, err
		}
	}

	exec := cfg.newExecutor()
	defer exec.Close()
	for _, d := range downloads {
		cfg.notify(m.componentEvent(notify.InstallingComponent, d.component))
		if err := m.installComponent(d, tx, cfg, exec); err != nil {
			return Unchanged, err
		}
	}

	if err := m.writeMetadata(tx, ManifestFile, newManifest.Stringify); err != nil {
		return Unchanged, err
	}
	newConfig := manifest.NewConfig()
	newConfig.Components = cs.Final
	if err := m.writeMetadata(tx, ConfigFile, newConfig.Stringify); err != nil {
		return Unchanged, err
	}

	tx.Commit()

	hashes := make([]string, len(downloads))
	for i, d := range downloads {
		hashes[i] = d.hash
	}
	if err := cfg.Cache.Clean(hashes); err != nil {
		cfg.notify(notify.Notification{Kind: notify.NonFatalError, Err: err})
	}
	return Changed, nil
}

// preferredInstaller picks the best compressed installer the entry offers.
func preferredInstaller(tp *manifest.TargetedPackage) (url, hash string, compression types.Compression) {
	for _, c := range types.AllCompressions() {
		switch {
		case c == types.CompressionZst && tp.ZstURL != "":
			return tp.ZstURL, tp.ZstHash, c
		case c == types.CompressionXz && tp.XZURL != "":
			return tp.XZURL, tp.XZHash, c
		case c == types.CompressionGz && tp.URL != "":
			return tp.URL, tp.Hash, c
		}
	}
	return "", "", ""
}

func (m *Manifestation) installComponent(d componentDownload, tx *transaction.Transaction, cfg *DownloadCfg, exec diskio.Executor) error {
	pkg, err := component.OpenTarball(d.path, d.compression, cfg.Temp, exec)
	if err != nil {
		return fmt.Errorf("failed to open installer for '%s': %w", d.component.Name(), err)
	}
	defer pkg.Close()

	name, short := d.component.Name(), d.component.Pkg
	if !pkg.Contains(name, short) {
		return &CorruptComponentError{Name: short}
	}
	return pkg.Install(m.installation, name, short, tx)
}

func (m *Manifestation) componentEvent(kind notify.Kind, c manifest.Component) notify.Notification {
	n := notify.Notification{Kind: kind, Name: c.Pkg}
	if !c.Target.IsZero() && c.Target != m.target {
		n.Target = c.Target.String()
	}
	return n
}

func (m *Manifestation) writeMetadata(tx *transaction.Transaction, name string, encode func() ([]byte, error)) error {
	data, err := encode()
	if err != nil {
		return err
	}
	full, err := tx.ModifyFile(component.MetadataPath(name))
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// maybeHandleV2Upgrade removes everything a legacy install left behind. An
// installation without a config predates manifests and its components are
// unknown to the change set.
func (m *Manifestation) maybeHandleV2Upgrade(config *manifest.Config, tx *transaction.Transaction, handler notify.Handler) error {
	if config != nil {
		return nil
	}
	installed, err := m.installation.List()
	if err != nil {
		return err
	}
	for _, c := range installed {
		handler(notify.Notification{Kind: notify.RemovingOldComponent, Name: c.Name()})
		if err := c.Uninstall(tx); err != nil {
			return err
		}
	}
	return nil
}

// uninstallComponent removes c, falling back to its bare package name for
// components recorded by older installers. A component that is not installed
// is reported and skipped.
func (m *Manifestation) uninstallComponent(c manifest.Component, tx *transaction.Transaction, handler notify.Handler) error {
	for _, name := range []string{c.Name(), c.Pkg} {
		installed, err := m.installation.Find(name)
		if err != nil {
			return err
		}
		if installed != nil {
			return installed.Uninstall(tx)
		}
	}
	handler(notify.Notification{Kind: notify.MissingInstalledComponent, Name: c.Name()})
	return nil
}

// Uninstall removes every installed component, the installed config and the
// installed manifest in one transaction. Uninstalling an installation that
// has nothing left is a no-op.
func (m *Manifestation) Uninstall(tmp *temp.Context, handler notify.Handler) error {
	if handler == nil {
		handler = notify.Discard
	}
	config, err := m.ReadConfig()
	if err != nil {
		return err
	}

	tx := transaction.New(m.Prefix(), tmp, handler)
	defer tx.Rollback()

	if config == nil {
		if err := m.maybeHandleV2Upgrade(nil, tx, handler); err != nil {
			return err
		}
	} else {
		if err := tx.RemoveFile("config", component.MetadataPath(ConfigFile)); err != nil {
			return err
		}
		for _, c := range config.Components {
			handler(m.componentEvent(notify.RemovingComponent, c))
			if err := m.uninstallComponent(c, tx, handler); err != nil {
				return err
			}
		}
	}

	if _, err := os.Stat(m.metadataPath(ManifestFile)); err == nil {
		if err := tx.RemoveFile("manifest", component.MetadataPath(ManifestFile)); err != nil {
			return err
		}
	}

	tx.Commit()
	return nil
}

// UpdateV1 installs a toolchain from a legacy listing of combined installer
// URLs. It returns the short hash of the installer, or "" if updateHashPath
// shows it is already installed.
func (m *Manifestation) UpdateV1(ctx context.Context, urls []string, updateHashPath string, cfg *DownloadCfg) (string, error) {
	config, err := m.ReadConfig()
	if err != nil {
		return "", err
	}
	if config != nil {
		return "", errors.New("the server unexpectedly provided an obsolete version of the distribution manifest")
	}

	suffix := m.target.String() + types.CompressionGz.Extension()
	var url string
	for _, u := range urls {
		if strings.Contains(u, suffix) {
			url = u
			break
		}
	}
	if url == "" {
		return "", fmt.Errorf("binary package was not provided for '%s'", m.target)
	}
	url = cfg.rewriteURL(url)

	file, hash, ok, err := cfg.Cache.DownloadAndCheck(ctx, url, updateHashPath, types.CompressionGz.Extension())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	defer cfg.Temp.Remove(file)

	tx := transaction.New(m.Prefix(), cfg.Temp, cfg.Notify)
	defer tx.Rollback()

	if err := m.maybeHandleV2Upgrade(nil, tx, cfg.notify); err != nil {
		return "", err
	}

	exec := cfg.newExecutor()
	defer exec.Close()
	pkg, err := component.OpenTarball(file, types.CompressionGz, cfg.Temp, exec)
	if err != nil {
		return "", err
	}
	defer pkg.Close()

	for _, name := range pkg.Components() {
		cfg.notify(notify.Notification{Kind: notify.InstallingComponent, Name: name})
		if err := pkg.Install(m.installation, name, "", tx); err != nil {
			return "", err
		}
	}

	tx.Commit()
	return hash, nil
}
