// Package cmd contains the CLI command implementations.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/adamancini/toolup/internal/config"
	"github.com/adamancini/toolup/internal/diff"
	"github.com/adamancini/toolup/internal/diskio"
	"github.com/adamancini/toolup/internal/dist"
	"github.com/adamancini/toolup/internal/download"
	"github.com/adamancini/toolup/internal/manifest"
	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/temp"
	"github.com/adamancini/toolup/internal/triple"
)

// stdlibPkg is the package added for each --target of install.
const stdlibPkg = "stdlib"

// ErrNoDefaultToolchain is returned when a command needs a toolchain and
// neither an argument nor default_toolchain names one.
var ErrNoDefaultToolchain = errors.New("no toolchain given and no default_toolchain configured")

// NotInstalledError is returned for operations on a toolchain that is not
// installed.
type NotInstalledError struct {
	Toolchain string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("toolchain '%s' is not installed", e.Toolchain)
}

// Service wires settings, the download cache and the dist layer together
// for the commands.
type Service struct {
	settings *config.Settings
	dirs     config.Dirs
	host     triple.TargetTriple
	handler  notify.Handler
	tmp      *temp.Context
	cache    *download.Cache
}

// NewService resolves settings from configPath and the environment and
// creates a service for the current host.
func NewService(configPath string, handler notify.Handler) (*Service, error) {
	settings, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	return NewServiceWithDeps(settings, triple.FromHostOrBuild(), handler)
}

// NewServiceWithDeps creates a service with explicit dependencies (for testing).
func NewServiceWithDeps(settings *config.Settings, host triple.TargetTriple, handler notify.Handler) (*Service, error) {
	dirs, err := settings.Dirs()
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = notify.Discard
	}
	tmp := temp.New(dirs.Tmp, handler)
	return &Service{
		settings: settings,
		dirs:     dirs,
		host:     host,
		handler:  handler,
		tmp:      tmp,
		cache:    download.NewCache(dirs.Downloads, nil, tmp, handler),
	}, nil
}

// Close removes scratch files created by the service.
func (s *Service) Close() error {
	return s.tmp.Clean()
}

// Host returns the host triple toolchain names are resolved against.
func (s *Service) Host() triple.TargetTriple {
	return s.host
}

func (s *Service) downloadCfg() *dist.DownloadCfg {
	mode, threads := s.settings.IOMode()
	return &dist.DownloadCfg{
		DistServer: s.settings.DistServer,
		Cache:      s.cache,
		Temp:       s.tmp,
		Notify:     s.handler,
		Executor: func() diskio.Executor {
			return diskio.New(mode, threads, s.handler)
		},
		StagedManifest:         s.settings.StagedManifest,
		StrictManifestChecksum: s.settings.StrictManifestChecksum,
	}
}

// ResolveToolchain expands a possibly partial toolchain name against the
// host. An empty name selects the configured default toolchain.
func (s *Service) ResolveToolchain(name string) (triple.ToolchainDesc, error) {
	if name == "" {
		name = s.settings.DefaultToolchain
	}
	if name == "" {
		return triple.ToolchainDesc{}, ErrNoDefaultToolchain
	}
	partial, err := triple.ParsePartialToolchainDesc(name)
	if err != nil {
		return triple.ToolchainDesc{}, err
	}
	return partial.Resolve(s.host)
}

func (s *Service) prefix(tc triple.ToolchainDesc) string {
	return filepath.Join(s.dirs.Toolchains, tc.String())
}

func (s *Service) updateHashPath(tc triple.ToolchainDesc) string {
	return filepath.Join(s.dirs.UpdateHashes, tc.String())
}

func (s *Service) isInstalled(tc triple.ToolchainDesc) bool {
	_, err := os.Stat(s.prefix(tc))
	return err == nil
}

// Installed lists the installed toolchains in name order.
func (s *Service) Installed() ([]triple.ToolchainDesc, error) {
	entries, err := os.ReadDir(s.dirs.Toolchains)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list toolchains: %w", err)
	}

	var out []triple.ToolchainDesc
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		tc, err := triple.ParseToolchainDesc(e.Name())
		if err != nil {
			continue
		}
		out = append(out, tc)
	}
	return out, nil
}

// Install installs or updates tc. components are extra components for the
// toolchain's target; targets add the standard library for other targets.
func (s *Service) Install(ctx context.Context, tc triple.ToolchainDesc, components, targets []string) ToolchainResult {
	var changes dist.Changes
	for _, name := range components {
		changes.Add = append(changes.Add, manifest.Component{Pkg: name, Target: tc.Target})
	}
	for _, t := range targets {
		c := manifest.Component{Pkg: stdlibPkg, Target: triple.TargetTriple(t)}
		if c.Target != tc.Target {
			changes.Add = append(changes.Add, c)
		}
	}

	fresh := !s.isInstalled(tc)
	if fresh {
		// A stale hash would make the server look unchanged.
		if err := os.Remove(s.updateHashPath(tc)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return failed(tc, fmt.Errorf("failed to remove update hash: %w", err))
		}
	}

	hash, err := dist.UpdateFromDist(ctx, s.downloadCfg(), s.updateHashPath(tc), tc, s.prefix(tc), changes)
	if err != nil {
		return failed(tc, err)
	}

	result := ToolchainResult{Toolchain: tc.String(), Status: StatusUnchanged}
	if hash != "" {
		if err := s.writeUpdateHash(tc, hash); err != nil {
			return failed(tc, err)
		}
		result.Status = StatusUpdated
		if fresh {
			result.Status = StatusInstalled
		}
	}
	result.Version = s.version(tc)
	return result
}

// UpdateAll updates every installed toolchain. A failure in one toolchain
// does not stop the others.
func (s *Service) UpdateAll(ctx context.Context) (UpdateReport, error) {
	installed, err := s.Installed()
	if err != nil {
		return UpdateReport{}, err
	}
	var report UpdateReport
	for _, tc := range installed {
		report.Toolchains = append(report.Toolchains, s.Install(ctx, tc, nil, nil))
	}
	return report, nil
}

func (s *Service) writeUpdateHash(tc triple.ToolchainDesc, hash string) error {
	path := s.updateHashPath(tc)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create update hash directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hash), 0644); err != nil {
		return fmt.Errorf("failed to write update hash: %w", err)
	}
	return nil
}

// version returns the installed root package version, or "" for legacy
// installs that carry no manifest.
func (s *Service) version(tc triple.ToolchainDesc) string {
	m, err := dist.Open(s.prefix(tc), tc.Target).LoadManifest()
	if err != nil || m == nil {
		return ""
	}
	return m.RootVersion()
}

// Uninstall removes tc's components, its directory and its update hash.
func (s *Service) Uninstall(tc triple.ToolchainDesc) error {
	if !s.isInstalled(tc) {
		return &NotInstalledError{Toolchain: tc.String()}
	}
	if err := dist.Open(s.prefix(tc), tc.Target).Uninstall(s.tmp, s.handler); err != nil {
		return err
	}
	if err := os.RemoveAll(s.prefix(tc)); err != nil {
		return fmt.Errorf("failed to remove toolchain directory: %w", err)
	}
	if err := os.Remove(s.updateHashPath(tc)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove update hash: %w", err)
	}
	return nil
}

// installedManifest opens tc and loads its manifest and config. Legacy
// installs have no manifest and cannot be modified.
func (s *Service) installedManifest(tc triple.ToolchainDesc) (*dist.Manifestation, *manifest.Manifest, *manifest.Config, error) {
	if !s.isInstalled(tc) {
		return nil, nil, nil, &NotInstalledError{Toolchain: tc.String()}
	}
	m := dist.Open(s.prefix(tc), tc.Target)
	man, err := m.LoadManifest()
	if err != nil {
		return nil, nil, nil, err
	}
	if man == nil {
		return nil, nil, nil, fmt.Errorf("toolchain '%s' does not have a manifest and cannot be modified", tc)
	}
	cfg, err := m.ReadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	return m, man, cfg, nil
}

// ModifyComponents adds and removes components of an installed toolchain
// using its installed manifest.
func (s *Service) ModifyComponents(ctx context.Context, tc triple.ToolchainDesc, add, remove []string, target string) (ToolchainResult, error) {
	m, man, cfg, err := s.installedManifest(tc)
	if err != nil {
		return ToolchainResult{}, err
	}
	root, err := man.RootTarget(tc.Target)
	if err != nil {
		return ToolchainResult{}, err
	}

	changes := dist.Changes{
		Add:    parseComponents(root, add, tc.Target, target),
		Remove: parseComponents(root, remove, tc.Target, target),
	}
	if changes, err = dist.ResolveChanges(changes, root, cfg, s.handler); err != nil {
		return ToolchainResult{}, err
	}

	status, err := m.Update(ctx, man, changes, s.downloadCfg(), tc.ManifestName())
	if err != nil {
		return ToolchainResult{}, err
	}
	result := ToolchainResult{Toolchain: tc.String(), Status: StatusUnchanged, Version: man.RootVersion()}
	if status == dist.Changed {
		result.Status = StatusUpdated
	}
	return result, nil
}

// parseComponents maps names given on the command line to components. A
// name matching an offered component's full name is taken as is; otherwise
// it is a package for target, defaulting to the toolchain's target.
func parseComponents(root *manifest.TargetedPackage, names []string, tcTarget triple.TargetTriple, target string) []manifest.Component {
	offered := slices.Concat(root.Components, root.Extensions)
	var out []manifest.Component
	for _, name := range names {
		if target == "" {
			if i := slices.IndexFunc(offered, func(c manifest.Component) bool { return c.Name() == name }); i >= 0 {
				out = append(out, offered[i])
				continue
			}
		}
		t := tcTarget
		if target != "" {
			t = triple.TargetTriple(target)
		}
		out = append(out, manifest.Component{Pkg: name, Target: t})
	}
	return out
}

// ListComponents reports every component tc's manifest offers.
func (s *Service) ListComponents(tc triple.ToolchainDesc) (ComponentList, error) {
	_, man, cfg, err := s.installedManifest(tc)
	if err != nil {
		return ComponentList{}, err
	}
	root, err := man.RootTarget(tc.Target)
	if err != nil {
		return ComponentList{}, err
	}

	list := ComponentList{Toolchain: tc.String()}
	add := func(c manifest.Component, required bool) {
		available := false
		if tp, err := man.TargetPackage(c); err == nil {
			available = tp.Available
		}
		list.Components = append(list.Components, ComponentStatus{
			Name:      c.Name(),
			Required:  required,
			Installed: required || cfg.Contains(c),
			Available: available,
		})
	}
	for _, c := range root.Components {
		add(c, true)
	}
	for _, c := range root.Extensions {
		add(c, false)
	}
	return list, nil
}

// Show summarises the installation.
func (s *Service) Show() (ShowReport, error) {
	report := ShowReport{
		Home:             s.dirs.Home,
		Host:             s.host.String(),
		DefaultToolchain: s.settings.DefaultToolchain,
	}
	installed, err := s.Installed()
	if err != nil {
		return ShowReport{}, err
	}
	for _, tc := range installed {
		info := ToolchainInfo{Name: tc.String(), Version: s.version(tc)}
		components, err := dist.Open(s.prefix(tc), tc.Target).Installed()
		if err != nil {
			return ShowReport{}, err
		}
		for _, c := range components {
			info.Components = append(info.Components, c.Name())
		}
		report.Toolchains = append(report.Toolchains, info)
	}
	return report, nil
}

// Check compares installed toolchain tc with the release its channel
// currently publishes, without installing anything.
func (s *Service) Check(ctx context.Context, tc triple.ToolchainDesc) (*diff.Result, error) {
	if !s.isInstalled(tc) {
		return nil, &NotInstalledError{Toolchain: tc.String()}
	}
	m := dist.Open(s.prefix(tc), tc.Target)
	installed, err := m.LoadManifest()
	if err != nil {
		return nil, err
	}
	cfg, err := m.ReadConfig()
	if err != nil {
		return nil, err
	}

	cfgDist := s.downloadCfg()
	cfgDist.StrictManifestChecksum = true
	available, _, err := dist.FetchManifest(ctx, cfgDist, "", tc)
	if errors.Is(err, download.ErrNotFound) {
		return nil, &dist.NoReleaseError{Name: tc.ManifestName()}
	}
	if err != nil {
		return nil, err
	}
	return diff.Compute(tc.String(), tc.Target, installed, cfg, available)
}

// CheckAll checks the named toolchains, or every installed toolchain when
// names is empty.
func (s *Service) CheckAll(ctx context.Context, names []string) (CheckReport, error) {
	var toolchains []triple.ToolchainDesc
	if len(names) == 0 {
		installed, err := s.Installed()
		if err != nil {
			return CheckReport{}, err
		}
		toolchains = installed
	}
	for _, name := range names {
		tc, err := s.ResolveToolchain(name)
		if err != nil {
			return CheckReport{}, err
		}
		toolchains = append(toolchains, tc)
	}

	var report CheckReport
	for _, tc := range toolchains {
		result, err := s.Check(ctx, tc)
		if err != nil {
			return CheckReport{}, fmt.Errorf("failed to check %s: %w", tc, err)
		}
		report.Toolchains = append(report.Toolchains, result)
	}
	return report, nil
}
