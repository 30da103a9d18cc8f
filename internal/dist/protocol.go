package dist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/adamancini/toolup/internal/download"
	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/triple"
)

// UpdateFromDist installs or updates toolchain at prefix from the
// distribution server and returns the short hash of the manifest that was
// applied, or "" when nothing changed.
//
// updateHashPath records the hash of the last applied manifest; a matching
// published hash skips the update unless changes are requested. If prefix did
// not exist beforehand it is removed again when the update fails.
func UpdateFromDist(ctx context.Context, cfg *DownloadCfg, updateHashPath string, toolchain triple.ToolchainDesc, prefix string, changes Changes) (string, error) {
	fresh := false
	if _, err := os.Stat(prefix); errors.Is(err, os.ErrNotExist) {
		fresh = true
	}

	hash, err := updateFromDist(ctx, cfg, updateHashPath, toolchain, prefix, changes)
	if err != nil && fresh {
		if rmErr := os.RemoveAll(prefix); rmErr != nil {
			cfg.notify(notify.Notification{Kind: notify.NonFatalError, Path: prefix, Err: rmErr})
		}
	}
	return hash, err
}

func updateFromDist(ctx context.Context, cfg *DownloadCfg, updateHashPath string, toolchain triple.ToolchainDesc, prefix string, changes Changes) (string, error) {
	m := Open(prefix, toolchain.Target)
	if !changes.IsEmpty() {
		updateHashPath = ""
	}

	cfg.notify(notify.Notification{Kind: notify.DownloadingManifest, Name: toolchain.ManifestName()})
	newManifest, hash, err := FetchManifest(ctx, cfg, updateHashPath, toolchain)
	switch {
	case err == nil && newManifest == nil:
		return "", nil
	case err == nil:
		cfg.notify(notify.Notification{
			Kind:    notify.DownloadedManifest,
			Name:    toolchain.ManifestName(),
			Version: newManifest.RootVersion(),
		})
		root, err := newManifest.RootTarget(toolchain.Target)
		if err != nil {
			return "", err
		}
		config, err := m.ReadConfig()
		if err != nil {
			return "", err
		}
		if changes, err = ResolveChanges(changes, root, config, cfg.notify); err != nil {
			return "", err
		}
		status, err := m.Update(ctx, newManifest, changes, cfg, toolchain.ManifestName())
		if err != nil {
			return "", err
		}
		if status == Unchanged {
			return "", nil
		}
		return hash, nil
	case !errors.Is(err, download.ErrNotFound):
		return "", err
	}

	cfg.notify(notify.Notification{Kind: notify.DownloadingLegacyManifest, Name: toolchain.ManifestName()})
	urls, err := FetchLegacyManifest(ctx, cfg, toolchain)
	if errors.Is(err, download.ErrNotFound) {
		return "", &NoReleaseError{Name: toolchain.ManifestName()}
	}
	if err != nil {
		return "", err
	}
	return m.UpdateV1(ctx, urls, updateHashPath, cfg)
}

// FetchManifest downloads and parses the structured manifest for toolchain.
// It returns a nil manifest when updateHashPath already records the
// published hash, or when the manifest fails its checksum and
// cfg.StrictManifestChecksum is unset. A missing manifest is reported as
// download.ErrNotFound.
func FetchManifest(ctx context.Context, cfg *DownloadCfg, updateHashPath string, toolchain triple.ToolchainDesc) (*manifest.Manifest, string, error) {
	url := toolchain.ManifestV2URL(cfg.DistRoot(), cfg.StagedManifest)
	file, hash, ok, err := cfg.Cache.DownloadAndCheck(ctx, url, updateHashPath, ".toml")
	var checksumErr *download.ChecksumFailedError
	if errors.As(err, &checksumErr) && !cfg.StrictManifestChecksum {
		cfg.notify(notify.Notification{Kind: notify.ManifestChecksumFailedHack, URL: url, Err: err})
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", nil
	}
	defer cfg.Temp.Remove(file)

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, "", err
	}
	return m, hash, nil
}

// FetchLegacyManifest returns the installer URLs of a toolchain published
// before structured manifests existed. Explicit versions name their single
// installer directly; named channels, dated or not, publish a listing of
// file names relative to the release directory.
func FetchLegacyManifest(ctx context.Context, cfg *DownloadCfg, toolchain triple.ToolchainDesc) ([]string, error) {
	packageDir := toolchain.PackageDir(cfg.DistRoot())
	if !triple.IsTrackingChannel(toolchain.Channel) {
		return []string{fmt.Sprintf("%s/%s-%s-%s.tar.gz", packageDir, manifest.RootPackage, toolchain.Channel, toolchain.Target)}, nil
	}

	url := toolchain.ManifestV1URL(cfg.DistRoot(), cfg.StagedManifest)
	file, _, _, err := cfg.Cache.DownloadAndCheck(ctx, url, "", "")
	if err != nil {
		return nil, err
	}
	defer cfg.Temp.Remove(file)

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy manifest: %w", err)
	}
	var urls []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			urls = append(urls, packageDir+"/"+line)
		}
	}
	return urls, nil
}
