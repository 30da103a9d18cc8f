// Package config handles toolup settings parsing and location resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adamancini/toolup/internal/diskio"
	"github.com/adamancini/toolup/internal/types"
)

// Environment variables consulted by toolup.
const (
	EnvHome           = "TOOLUP_HOME"
	EnvSettings       = "TOOLUP_SETTINGS"
	EnvDistServer     = "TOOLUP_DIST_SERVER"
	EnvStagedManifest = "TOOLUP_STAGED_MANIFEST"
	EnvIOThreads      = diskio.ThreadsEnv
)

// ErrNoSettings is returned by FindSettings when no settings file exists.
var ErrNoSettings = errors.New("no settings file found in standard locations")

// Settings is the user's toolup configuration.
type Settings struct {
	Version int `yaml:"version" toml:"version" json:"version"`
	// Home holds toolchains, downloads and scratch files. Defaults to ~/.toolup.
	Home string `yaml:"home,omitempty" toml:"home,omitempty" json:"home,omitempty"`
	// DistServer overrides the distribution server.
	DistServer string `yaml:"dist_server,omitempty" toml:"dist_server,omitempty" json:"dist_server,omitempty"`
	// DefaultToolchain is used when a command is given no toolchain.
	DefaultToolchain string `yaml:"default_toolchain,omitempty" toml:"default_toolchain,omitempty" json:"default_toolchain,omitempty"`
	// IOThreads is "disabled" or a worker count for unpacking.
	IOThreads string `yaml:"io_threads,omitempty" toml:"io_threads,omitempty" json:"io_threads,omitempty"`
	// StagedManifest fetches tracking channels from the staging area.
	StagedManifest bool `yaml:"staged_manifest,omitempty" toml:"staged_manifest,omitempty" json:"staged_manifest,omitempty"`
	// StrictManifestChecksum turns manifest checksum failures into errors.
	StrictManifestChecksum bool `yaml:"strict_manifest_checksum,omitempty" toml:"strict_manifest_checksum,omitempty" json:"strict_manifest_checksum,omitempty"`
}

// Default returns the settings used when no settings file exists.
func Default() *Settings {
	return &Settings{Version: 1}
}

// FindSettings searches for a settings file in the standard locations.
// Returns the path to the first file found, or ErrNoSettings.
func FindSettings(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified settings file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvSettings); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	searchPaths := []string{
		filepath.Join(xdgConfig, "toolup"),
		filepath.Join(home, ".toolup"),
	}
	fileNames := []string{
		"settings.toml",
		"settings.yaml",
		"settings.yml",
		"settings.json",
		"settings",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", ErrNoSettings
}

// Load reads and parses a settings file. Environment overrides are not
// applied.
func Load(path string) (*Settings, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	return parse(content, format)
}

// Resolve locates and loads the settings, falls back to defaults when there
// is no settings file, applies environment overrides and validates the
// result.
func Resolve(explicitPath string) (*Settings, error) {
	settings := Default()
	path, err := FindSettings(explicitPath)
	switch {
	case errors.Is(err, ErrNoSettings):
	case err != nil:
		return nil, err
	default:
		if settings, err = Load(path); err != nil {
			return nil, err
		}
	}

	settings.ApplyEnv(os.LookupEnv)
	if err := Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ApplyEnv overrides settings from environment variables. lookup is usually
// os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvHome); ok && v != "" {
		s.Home = v
	}
	if v, ok := lookup(EnvDistServer); ok && v != "" {
		s.DistServer = v
	}
	if v, ok := lookup(EnvIOThreads); ok && v != "" {
		s.IOThreads = v
	}
	if v, ok := lookup(EnvStagedManifest); ok && v != "" {
		s.StagedManifest = true
	}
}

// HomeDir returns the toolup home, defaulting to ~/.toolup.
func (s *Settings) HomeDir() (string, error) {
	if s.Home != "" {
		return s.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".toolup"), nil
}

// Dirs are the directories toolup keeps under its home.
type Dirs struct {
	Home         string
	Toolchains   string
	Downloads    string
	Tmp          string
	UpdateHashes string
}

// Dirs resolves the directories derived from the toolup home.
func (s *Settings) Dirs() (Dirs, error) {
	home, err := s.HomeDir()
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{
		Home:         home,
		Toolchains:   filepath.Join(home, "toolchains"),
		Downloads:    filepath.Join(home, "downloads"),
		Tmp:          filepath.Join(home, "tmp"),
		UpdateHashes: filepath.Join(home, "update-hashes"),
	}, nil
}

// IOMode returns the executor mode and worker count selected by IOThreads.
func (s *Settings) IOMode() (types.IOMode, int) {
	return diskio.ParseThreads(s.IOThreads)
}

func validThreads(v string) bool {
	if _, err := types.ParseIOMode(v); err == nil {
		return true
	}
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}
