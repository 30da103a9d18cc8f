package manifest

import (
	"fmt"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// ConfigVersion is the installed-config format version written by toolup.
const ConfigVersion = "1"

// Config records exactly which components are installed in a toolchain.
type Config struct {
	ConfigVersion string      `toml:"config_version"`
	Components    []Component `toml:"components,omitempty"`
}

// NewConfig returns an empty config at the current version.
func NewConfig() *Config {
	return &Config{ConfigVersion: ConfigVersion}
}

// ParseConfig decodes an installed-config document.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse installed config: %w", err)
	}
	if c.ConfigVersion != ConfigVersion {
		return nil, &UnsupportedVersionError{Version: c.ConfigVersion}
	}
	c.Components = fromWire(c.Components)
	return &c, nil
}

// Stringify encodes the config as TOML.
func (c *Config) Stringify() ([]byte, error) {
	out := Config{
		ConfigVersion: c.ConfigVersion,
		Components:    toWire(slices.Clone(c.Components)),
	}
	data, err := toml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode installed config: %w", err)
	}
	return data, nil
}

// Contains reports whether comp is recorded as installed.
func (c *Config) Contains(comp Component) bool {
	return c != nil && slices.Contains(c.Components, comp)
}
