package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format represents the file format of a settings file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, "=") || strings.HasPrefix(line, "[") {
			return FormatTOML
		}
		if strings.Contains(line, ":") {
			return FormatYAML
		}
	}

	return FormatUnknown
}

// rawSettings is an intermediate representation for parsing.
// io_threads may be written as a number or as a string.
type rawSettings struct {
	Version                int         `yaml:"version" toml:"version" json:"version"`
	Home                   string      `yaml:"home" toml:"home" json:"home"`
	DistServer             string      `yaml:"dist_server" toml:"dist_server" json:"dist_server"`
	DefaultToolchain       string      `yaml:"default_toolchain" toml:"default_toolchain" json:"default_toolchain"`
	IOThreads              interface{} `yaml:"io_threads" toml:"io_threads" json:"io_threads"`
	StagedManifest         bool        `yaml:"staged_manifest" toml:"staged_manifest" json:"staged_manifest"`
	StrictManifestChecksum bool        `yaml:"strict_manifest_checksum" toml:"strict_manifest_checksum" json:"strict_manifest_checksum"`
}

// parseThreads converts the flexible io_threads value to its string form.
func parseThreads(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		if t != float64(int64(t)) {
			return "", fmt.Errorf("io_threads: %v is not a whole number", t)
		}
		return strconv.FormatInt(int64(t), 10), nil
	default:
		return "", fmt.Errorf("io_threads: invalid format (expected string or integer)")
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns in content.
func expandEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := envVarPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := os.Getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// parse parses the content according to the specified format.
func parse(content []byte, format Format) (*Settings, error) {
	content = expandEnvVars(content)

	var raw rawSettings

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown file format")
	}

	threads, err := parseThreads(raw.IOThreads)
	if err != nil {
		return nil, err
	}

	settings := &Settings{
		Version:                raw.Version,
		Home:                   raw.Home,
		DistServer:             raw.DistServer,
		DefaultToolchain:       raw.DefaultToolchain,
		IOThreads:              threads,
		StagedManifest:         raw.StagedManifest,
		StrictManifestChecksum: raw.StrictManifestChecksum,
	}
	if settings.Version == 0 {
		settings.Version = 1
	}
	return settings, nil
}
